package memfs

import (
	"context"
	"math"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
)

// maxSize bounds a single file so a guest cannot exhaust host memory
// through fd_allocate or a far seek followed by a write.
const maxSize = 1 << 30

// File is an open regular file in an FS. It supports both position models.
type File struct {
	fs     *FS
	n      *node
	pos    uint64
	flags  file.FdFlags
	read   bool
	write  bool
	closed bool
}

var _ file.File = (*File)(nil)

func (f *File) check(op string, needRead, needWrite bool) error {
	if f.closed {
		return errors.New(errors.PhaseBackend, errors.KindBadHandle).Op(op).Detail("file closed").Build()
	}
	if needRead && !f.read {
		return errors.New(errors.PhaseBackend, errors.KindBadHandle).Op(op).Detail("not open for reading").Build()
	}
	if needWrite {
		if !f.write {
			return errors.New(errors.PhaseBackend, errors.KindBadHandle).Op(op).Detail("not open for writing").Build()
		}
		if err := f.fs.writable(op); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) FileType(context.Context) (file.FileType, error) {
	return file.TypeRegularFile, nil
}

func (f *File) Positioning() file.Positioning { return file.Seekable }

func (f *File) readAt(bufs [][]byte, off uint64) uint64 {
	var total uint64
	for _, b := range bufs {
		if off >= uint64(len(f.n.data)) {
			break
		}
		n := copy(b, f.n.data[off:])
		off += uint64(n)
		total += uint64(n)
	}
	f.n.atim = f.fs.now()
	return total
}

func (f *File) writeAt(bufs [][]byte, off uint64) (uint64, error) {
	end := off + file.Total(bufs)
	if end < off || end > maxSize {
		return 0, errors.New(errors.PhaseBackend, errors.KindTooBig).Op("write").Build()
	}
	if end > uint64(len(f.n.data)) {
		grown := make([]byte, end)
		copy(grown, f.n.data)
		f.n.data = grown
	}
	var total uint64
	for _, b := range bufs {
		copy(f.n.data[off:], b)
		off += uint64(len(b))
		total += uint64(len(b))
	}
	now := f.fs.now()
	f.n.mtim, f.n.ctim = now, now
	return total, nil
}

func (f *File) Read(_ context.Context, bufs [][]byte) (uint64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.check("read", true, false); err != nil {
		return 0, err
	}
	n := f.readAt(bufs, f.pos)
	f.pos += n
	return n, nil
}

func (f *File) ReadAt(_ context.Context, bufs [][]byte, offset uint64) (uint64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.check("read_at", true, false); err != nil {
		return 0, err
	}
	return f.readAt(bufs, offset), nil
}

func (f *File) Write(_ context.Context, bufs [][]byte) (uint64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.check("write", false, true); err != nil {
		return 0, err
	}
	if f.flags.Has(file.FlagAppend) {
		f.pos = uint64(len(f.n.data))
	}
	n, err := f.writeAt(bufs, f.pos)
	f.pos += n
	return n, err
}

func (f *File) WriteAt(_ context.Context, bufs [][]byte, offset uint64) (uint64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.check("write_at", false, true); err != nil {
		return 0, err
	}
	return f.writeAt(bufs, offset)
}

func (f *File) Seek(_ context.Context, offset int64, whence file.Whence) (uint64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.check("seek", false, false); err != nil {
		return 0, err
	}
	var base uint64
	switch whence {
	case file.SeekStart:
	case file.SeekCurrent:
		base = f.pos
	case file.SeekEnd:
		base = uint64(len(f.n.data))
	default:
		return 0, errors.InvalidArgument(errors.PhaseBackend, "unknown whence")
	}
	pos, err := file.Offset(base, offset)
	if err != nil {
		return 0, err
	}
	f.pos = pos
	return pos, nil
}

func (f *File) Stat(context.Context) (file.Filestat, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	return f.fs.stat(f.n), nil
}

func (f *File) SetSize(_ context.Context, size uint64) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.check("set_size", false, true); err != nil {
		return err
	}
	if size > maxSize {
		return errors.New(errors.PhaseBackend, errors.KindTooBig).Op("set_size").Build()
	}
	f.resize(size)
	return nil
}

func (f *File) resize(size uint64) {
	switch {
	case size < uint64(len(f.n.data)):
		f.n.data = f.n.data[:size:size]
	case size > uint64(len(f.n.data)):
		grown := make([]byte, size)
		copy(grown, f.n.data)
		f.n.data = grown
	}
	now := f.fs.now()
	f.n.mtim, f.n.ctim = now, now
}

func (f *File) SetTimes(_ context.Context, atim, mtim *file.SystemTimeSpec) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.fs.writable("set_times"); err != nil {
		return err
	}
	f.fs.setTimes(f.n, atim, mtim)
	return nil
}

func (f *File) Fdflags(context.Context) (file.FdFlags, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	return f.flags, nil
}

// SetFdflags accepts the flags an in-memory file can honor. Sync variants
// are trivially satisfied.
func (f *File) SetFdflags(_ context.Context, flags file.FdFlags) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	f.flags = flags
	return nil
}

func (f *File) Sync(context.Context) error { return nil }

func (f *File) Datasync(context.Context) error { return nil }

func (f *File) Advise(context.Context, uint64, uint64, file.Advice) error { return nil }

func (f *File) Allocate(_ context.Context, offset, length uint64) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if err := f.check("allocate", false, true); err != nil {
		return err
	}
	if offset > math.MaxUint64-length {
		return errors.Overflow(errors.PhaseBackend, offset, "file size")
	}
	end := offset + length
	if end > maxSize {
		return errors.New(errors.PhaseBackend, errors.KindNoSpace).Op("allocate").Build()
	}
	if end > uint64(len(f.n.data)) {
		f.resize(end)
	}
	return nil
}

func (f *File) NumReady(context.Context) (uint64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if size := uint64(len(f.n.data)); size > f.pos {
		return size - f.pos, nil
	}
	return 0, nil
}

func (f *File) Readable(context.Context) (bool, error) { return true, nil }

func (f *File) Writable(context.Context) (bool, error) { return true, nil }

func (f *File) IsTTY() bool { return false }

func (f *File) Close(context.Context) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	f.closed = true
	return nil
}
