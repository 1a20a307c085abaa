package preview0

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasi-common/errors"
)

// Wire values are fixed by the wasi_unstable errno enum. A change to the
// enum or the kind map must show up here.
func TestErrnoTable(t *testing.T) {
	tests := []struct {
		kind  errors.Kind
		errno Errno
		name  string
	}{
		{errors.KindTooBig, 1, "E2BIG"},
		{errors.KindWouldBlock, 6, "EAGAIN"},
		{errors.KindBadHandle, 8, "EBADF"},
		{errors.KindAlreadyExists, 20, "EEXIST"},
		{errors.KindFault, 21, "EFAULT"},
		{errors.KindIllegalByteSequence, 25, "EILSEQ"},
		{errors.KindInterrupted, 27, "EINTR"},
		{errors.KindInvalidArgument, 28, "EINVAL"},
		{errors.KindIo, 29, "EIO"},
		{errors.KindIsDir, 31, "EISDIR"},
		{errors.KindLoop, 32, "ELOOP"},
		{errors.KindTooManyHandles, 33, "EMFILE"},
		{errors.KindNameTooLong, 37, "ENAMETOOLONG"},
		{errors.KindNotFound, 44, "ENOENT"},
		{errors.KindNoSpace, 51, "ENOSPC"},
		{errors.KindNotDir, 54, "ENOTDIR"},
		{errors.KindNotEmpty, 55, "ENOTEMPTY"},
		{errors.KindNotSupported, 58, "ENOTSUP"},
		{errors.KindOverflow, 61, "EOVERFLOW"},
		{errors.KindPermissionDenied, 63, "EPERM"},
		{errors.KindBrokenPipe, 64, "EPIPE"},
		{errors.KindRange, 68, "ERANGE"},
		{errors.KindInvalidSeek, 70, "ESPIPE"},
		{errors.KindCrossDevice, 75, "EXDEV"},
		{errors.KindNotCapable, 76, "ENOTCAPABLE"},
	}
	require.Len(t, kindErrno, len(tests))
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := ToErrno(errors.New(errors.PhaseHost, tt.kind).Build())
			require.NoError(t, err)
			require.Equal(t, tt.errno, got)
			require.Equal(t, tt.name, ErrnoName(got))
		})
	}
}

func TestErrnoNames(t *testing.T) {
	require.Len(t, errnoNames, int(ErrnoNotcapable)+1)
	require.Equal(t, Errno(0), ErrnoSuccess)
	require.Equal(t, "ESUCCESS", ErrnoName(ErrnoSuccess))
	require.Equal(t, "EXDEV", ErrnoName(ErrnoXdev))
	require.Equal(t, "unknown", ErrnoName(ErrnoNotcapable+1))

	got, err := ToErrno(errors.New(errors.PhaseHost, errors.Kind("unmapped")).Build())
	require.NoError(t, err)
	require.Equal(t, ErrnoIo, got)
}
