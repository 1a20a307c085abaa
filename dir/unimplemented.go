package dir

import (
	"context"
	"iter"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
)

// Unimplemented can be embedded by read-only or partial directory
// backends. Mutating operations fail with KindNotSupported.
type Unimplemented struct{}

func notSupported(op string) error {
	return errors.New(errors.PhaseBackend, errors.KindNotSupported).Op(op).Build()
}

func (Unimplemented) OpenFile(context.Context, bool, string, OpenFlags, bool, bool, file.FdFlags) (OpenResult, error) {
	return OpenResult{}, notSupported("open_file")
}

func (Unimplemented) CreateDir(context.Context, string) error { return notSupported("create_dir") }

func (Unimplemented) Readdir(context.Context, Cookie) iter.Seq2[Entity, error] {
	return func(yield func(Entity, error) bool) {
		yield(Entity{}, notSupported("readdir"))
	}
}

func (Unimplemented) Symlink(context.Context, string, string) error { return notSupported("symlink") }

func (Unimplemented) ReadLink(context.Context, string) (string, error) {
	return "", notSupported("read_link")
}

func (Unimplemented) RemoveDir(context.Context, string) error { return notSupported("remove_dir") }

func (Unimplemented) UnlinkFile(context.Context, string) error { return notSupported("unlink_file") }

func (Unimplemented) Stat(context.Context) (file.Filestat, error) {
	return file.Filestat{FileType: file.TypeDirectory}, nil
}

func (Unimplemented) StatAt(context.Context, bool, string) (file.Filestat, error) {
	return file.Filestat{}, notSupported("stat_at")
}

func (Unimplemented) SetTimesAt(context.Context, bool, string, *file.SystemTimeSpec, *file.SystemTimeSpec) error {
	return notSupported("set_times_at")
}

func (Unimplemented) Rename(context.Context, string, Dir, string) error {
	return notSupported("rename")
}

func (Unimplemented) HardLink(context.Context, string, Dir, string) error {
	return notSupported("hard_link")
}

func (Unimplemented) Close(context.Context) error { return nil }
