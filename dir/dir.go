package dir

import (
	"context"
	"iter"

	"github.com/wippyai/wasi-common/file"
)

// Cookie is the opaque readdir continuation. Zero starts from the
// beginning; every Entity carries the cookie that resumes after it.
type Cookie uint64

// Entity is one readdir record.
type Entity struct {
	Name     string
	Next     Cookie
	Inode    uint64
	FileType file.FileType
}

// OpenFlags select open-child behavior.
type OpenFlags struct {
	Create    bool
	Directory bool
	Exclusive bool
	Truncate  bool
}

// OpenResult is what OpenFile yields: exactly one of File and Dir is set.
// The caller inserts it into the table.
type OpenResult struct {
	File file.File
	Dir  Dir
}

// Value returns the set member.
func (r OpenResult) Value() any {
	if r.Dir != nil {
		return r.Dir
	}
	return r.File
}

// Dir is the capability a backend implements to expose a directory under a
// guest handle. It is the only way new handles are derived inside the
// sandbox: every path is resolved relative to a Dir the guest already holds.
//
// Paths are relative and use '/' separators. Backends reject absolute paths
// and ".." components that would escape the directory with
// KindPermissionDenied or KindNotCapable.
type Dir interface {
	// OpenFile opens a child. follow controls whether a final symlink
	// component is followed.
	OpenFile(ctx context.Context, follow bool, path string, oflags OpenFlags,
		read, write bool, fdflags file.FdFlags) (OpenResult, error)

	CreateDir(ctx context.Context, path string) error

	// Readdir lists entries starting after cookie. Resuming from a cookie
	// issued earlier never re-emits entries returned before it. Entries
	// added or removed between calls may or may not appear.
	Readdir(ctx context.Context, cookie Cookie) iter.Seq2[Entity, error]

	Symlink(ctx context.Context, oldPath, newPath string) error
	ReadLink(ctx context.Context, path string) (string, error)
	RemoveDir(ctx context.Context, path string) error
	UnlinkFile(ctx context.Context, path string) error

	Stat(ctx context.Context) (file.Filestat, error)
	StatAt(ctx context.Context, follow bool, path string) (file.Filestat, error)
	SetTimesAt(ctx context.Context, follow bool, path string, atim, mtim *file.SystemTimeSpec) error

	// Rename moves oldPath under this directory to newPath under newDir.
	// It is atomic as observed by the guest. Backends fail with
	// KindCrossDevice when newDir belongs to a different backend.
	Rename(ctx context.Context, oldPath string, newDir Dir, newPath string) error
	HardLink(ctx context.Context, oldPath string, newDir Dir, newPath string) error

	Close(ctx context.Context) error
}
