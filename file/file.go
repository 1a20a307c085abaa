package file

import "context"

// File is the capability a backend implements to expose a file-like
// resource under a handle.
//
// Every method takes a context. Synchronous backends complete on the
// calling goroutine and may ignore it; backends that block honor
// cancellation and return ctx.Err() mapped through errors.FromOS.
//
// Errors must carry an errors.Kind; platform errors are converted with
// errors.FromOS before they are returned.
type File interface {
	FileType(ctx context.Context) (FileType, error)

	// Positioning reports the position models the backend supports.
	// Callers never assume one the backend does not report.
	Positioning() Positioning

	// Read fills bufs from the cursor and advances it.
	Read(ctx context.Context, bufs [][]byte) (uint64, error)
	// ReadAt fills bufs from offset without moving the cursor.
	ReadAt(ctx context.Context, bufs [][]byte, offset uint64) (uint64, error)
	// Write writes bufs at the cursor, or at the end when FlagAppend is set.
	Write(ctx context.Context, bufs [][]byte) (uint64, error)
	// WriteAt writes bufs at offset without moving the cursor.
	WriteAt(ctx context.Context, bufs [][]byte, offset uint64) (uint64, error)
	// Seek moves the cursor and returns the new absolute position.
	Seek(ctx context.Context, offset int64, whence Whence) (uint64, error)

	Stat(ctx context.Context) (Filestat, error)
	SetSize(ctx context.Context, size uint64) error
	// SetTimes updates access and modification times; nil leaves a time
	// unchanged.
	SetTimes(ctx context.Context, atim, mtim *SystemTimeSpec) error

	Fdflags(ctx context.Context) (FdFlags, error)
	SetFdflags(ctx context.Context, flags FdFlags) error

	Sync(ctx context.Context) error
	Datasync(ctx context.Context) error
	Advise(ctx context.Context, offset, length uint64, advice Advice) error
	Allocate(ctx context.Context, offset, length uint64) error

	// NumReady reports bytes readable without blocking.
	NumReady(ctx context.Context) (uint64, error)
	// Readable and Writable report non-blocking readiness for poll_oneoff.
	Readable(ctx context.Context) (bool, error)
	Writable(ctx context.Context) (bool, error)

	IsTTY() bool

	Close(ctx context.Context) error
}
