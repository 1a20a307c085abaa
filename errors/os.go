package errors

import (
	stderrors "errors"
	"io/fs"
	"os"
	"syscall"
)

// FromOS maps a platform error to a kinded error. Backends call this before
// returning so dispatchers never see platform representations.
func FromOS(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return err
	}
	if IsTerminal(err) {
		return err
	}

	var errno syscall.Errno
	if stderrors.As(err, &errno) {
		return Wrap(PhaseBackend, kindFromErrno(errno), err, "")
	}

	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return Wrap(PhaseBackend, KindNotFound, err, "")
	case stderrors.Is(err, fs.ErrExist):
		return Wrap(PhaseBackend, KindAlreadyExists, err, "")
	case stderrors.Is(err, fs.ErrPermission):
		return Wrap(PhaseBackend, KindPermissionDenied, err, "")
	case stderrors.Is(err, fs.ErrInvalid):
		return Wrap(PhaseBackend, KindInvalidArgument, err, "")
	case stderrors.Is(err, fs.ErrClosed), stderrors.Is(err, os.ErrClosed):
		return Wrap(PhaseBackend, KindBadHandle, err, "")
	case stderrors.Is(err, os.ErrDeadlineExceeded):
		return Wrap(PhaseBackend, KindWouldBlock, err, "")
	}
	return Wrap(PhaseBackend, KindIo, err, "")
}

func kindFromErrno(errno syscall.Errno) Kind {
	switch errno {
	case syscall.EBADF:
		return KindBadHandle
	case syscall.ENOSYS, syscall.ENOTSUP, syscall.ENOTTY:
		return KindNotSupported
	case syscall.EINVAL:
		return KindInvalidArgument
	case syscall.ENOENT:
		return KindNotFound
	case syscall.EEXIST:
		return KindAlreadyExists
	case syscall.EACCES, syscall.EPERM, syscall.EROFS:
		return KindPermissionDenied
	case syscall.ENOSPC, syscall.EDQUOT:
		return KindNoSpace
	case syscall.EINTR:
		return KindInterrupted
	case syscall.EOVERFLOW:
		return KindOverflow
	case syscall.EMFILE, syscall.ENFILE:
		return KindTooManyHandles
	case syscall.ENOTDIR:
		return KindNotDir
	case syscall.EISDIR:
		return KindIsDir
	case syscall.ENOTEMPTY:
		return KindNotEmpty
	case syscall.ELOOP:
		return KindLoop
	case syscall.ENAMETOOLONG:
		return KindNameTooLong
	case syscall.EAGAIN:
		return KindWouldBlock
	case syscall.ESPIPE:
		return KindInvalidSeek
	case syscall.ERANGE:
		return KindRange
	case syscall.EILSEQ:
		return KindIllegalByteSequence
	case syscall.EPIPE:
		return KindBrokenPipe
	case syscall.E2BIG, syscall.EFBIG:
		return KindTooBig
	case syscall.EXDEV:
		return KindCrossDevice
	case syscall.EFAULT:
		return KindFault
	default:
		return KindIo
	}
}
