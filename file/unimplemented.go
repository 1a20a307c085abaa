package file

import (
	"context"

	"github.com/wippyai/wasi-common/errors"
)

// Unimplemented can be embedded by backends that support only part of the
// File contract. Every method fails with KindNotSupported except Close,
// which succeeds, and the readiness queries, which report ready.
type Unimplemented struct{}

func notSupported(op string) error {
	return errors.New(errors.PhaseBackend, errors.KindNotSupported).Op(op).Build()
}

func (Unimplemented) FileType(context.Context) (FileType, error) { return TypeUnknown, nil }

func (Unimplemented) Positioning() Positioning { return 0 }

func (Unimplemented) Read(context.Context, [][]byte) (uint64, error) {
	return 0, notSupported("read")
}

func (Unimplemented) ReadAt(context.Context, [][]byte, uint64) (uint64, error) {
	return 0, notSupported("read_at")
}

func (Unimplemented) Write(context.Context, [][]byte) (uint64, error) {
	return 0, notSupported("write")
}

func (Unimplemented) WriteAt(context.Context, [][]byte, uint64) (uint64, error) {
	return 0, notSupported("write_at")
}

func (Unimplemented) Seek(context.Context, int64, Whence) (uint64, error) {
	return 0, notSupported("seek")
}

func (Unimplemented) Stat(context.Context) (Filestat, error) {
	return Filestat{}, notSupported("stat")
}

func (Unimplemented) SetSize(context.Context, uint64) error { return notSupported("set_size") }

func (Unimplemented) SetTimes(context.Context, *SystemTimeSpec, *SystemTimeSpec) error {
	return notSupported("set_times")
}

func (Unimplemented) Fdflags(context.Context) (FdFlags, error) { return 0, nil }

func (Unimplemented) SetFdflags(context.Context, FdFlags) error {
	return notSupported("set_fdflags")
}

func (Unimplemented) Sync(context.Context) error { return notSupported("sync") }

func (Unimplemented) Datasync(context.Context) error { return notSupported("datasync") }

func (Unimplemented) Advise(context.Context, uint64, uint64, Advice) error {
	return notSupported("advise")
}

func (Unimplemented) Allocate(context.Context, uint64, uint64) error {
	return notSupported("allocate")
}

func (Unimplemented) NumReady(context.Context) (uint64, error) { return 0, nil }

func (Unimplemented) Readable(context.Context) (bool, error) { return true, nil }

func (Unimplemented) Writable(context.Context) (bool, error) { return true, nil }

func (Unimplemented) IsTTY() bool { return false }

func (Unimplemented) Close(context.Context) error { return nil }
