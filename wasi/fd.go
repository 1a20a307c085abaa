package wasi

import (
	"context"
	"iter"
	"math"
	"time"

	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/resource"
)

// Fdstat is the fd_fdstat_get record.
type Fdstat struct {
	FileType         file.FileType
	Flags            file.FdFlags
	RightsBase       uint64
	RightsInheriting uint64
}

// FstFlags selects which timestamps a set_times call updates. Values
// match both snapshots.
type FstFlags uint16

const (
	FstAtim FstFlags = 1 << iota
	FstAtimNow
	FstMtim
	FstMtimNow
)

func (f FstFlags) has(bit FstFlags) bool { return f&bit != 0 }

// timeSpecs turns the ABI timestamp triple into backend updates. Setting
// both an explicit time and "now" for the same field is invalid.
func timeSpecs(atim, mtim uint64, flags FstFlags) (a, m *file.SystemTimeSpec, err error) {
	if flags&^(FstAtim|FstAtimNow|FstMtim|FstMtimNow) != 0 {
		return nil, nil, errors.InvalidArgument(errors.PhaseDispatch, "unknown fstflags")
	}
	if a, err = timeSpec(atim, flags.has(FstAtim), flags.has(FstAtimNow)); err != nil {
		return nil, nil, err
	}
	if m, err = timeSpec(mtim, flags.has(FstMtim), flags.has(FstMtimNow)); err != nil {
		return nil, nil, err
	}
	return a, m, nil
}

func timeSpec(ns uint64, set, now bool) (*file.SystemTimeSpec, error) {
	switch {
	case set && now:
		return nil, errors.InvalidArgument(errors.PhaseDispatch, "timestamp set both explicitly and to now")
	case now:
		return file.NowSpec(), nil
	case set:
		if ns > math.MaxInt64 {
			return nil, errors.Overflow(errors.PhaseDispatch, ns, "timestamp")
		}
		return file.At(time.Unix(0, int64(ns))), nil
	}
	return nil, nil
}

// FdAdvise passes an access pattern hint to the backend.
func (c *Ctx) FdAdvise(ctx context.Context, h resource.Handle, offset, length uint64, advice file.Advice) error {
	f, err := c.file("fd_advise", h, resource.RightFdAdvise)
	if err != nil {
		return err
	}
	if advice > file.AdviceNoReuse {
		return errors.InvalidArgument(errors.PhaseDispatch, "unknown advice")
	}
	return backend(f.Advise(ctx, offset, length, advice), "fd_advise", h)
}

// FdAllocate reserves space for the byte range.
func (c *Ctx) FdAllocate(ctx context.Context, h resource.Handle, offset, length uint64) error {
	f, err := c.file("fd_allocate", h, resource.RightFdAllocate)
	if err != nil {
		return err
	}
	return backend(f.Allocate(ctx, offset, length), "fd_allocate", h)
}

// FdClose removes h from the table and closes its backend. Preopens and
// stdio may be closed like any other handle.
func (c *Ctx) FdClose(ctx context.Context, h resource.Handle) error {
	v, err := c.table.Remove(h)
	if err != nil {
		return errors.WithOp(err, "fd_close", uint32(h))
	}
	return backend(resource.Release(ctx, v), "fd_close", h)
}

// FdDatasync flushes file data.
func (c *Ctx) FdDatasync(ctx context.Context, h resource.Handle) error {
	f, err := c.file("fd_datasync", h, resource.RightFdDatasync)
	if err != nil {
		return err
	}
	return backend(f.Datasync(ctx), "fd_datasync", h)
}

// FdSync flushes file data and metadata. Directories have nothing to
// flush.
func (c *Ctx) FdSync(ctx context.Context, h resource.Handle) error {
	e, err := c.entry("fd_sync", h, resource.RightFdSync)
	if err != nil {
		return err
	}
	if f, ok := e.Value.(file.File); ok {
		return backend(f.Sync(ctx), "fd_sync", h)
	}
	return nil
}

// entry resolves h as either a file or a directory.
func (c *Ctx) entry(op string, h resource.Handle, right uint64) (resource.Entry, error) {
	e, err := c.table.Lookup(h)
	if err != nil {
		return e, errors.WithOp(err, op, uint32(h))
	}
	switch e.Value.(type) {
	case file.File, dir.Dir:
	default:
		return e, errors.New(errors.PhaseTable, errors.KindNotSupported).
			Op(op).Handle(uint32(h)).Detail("%T is neither a file nor a directory", e.Value).Build()
	}
	if !e.Rights.Has(right) {
		return e, errors.New(errors.PhaseDispatch, errors.KindNotCapable).Op(op).Handle(uint32(h)).Build()
	}
	return e, nil
}

// FdFdstatGet describes a handle.
func (c *Ctx) FdFdstatGet(ctx context.Context, h resource.Handle) (Fdstat, error) {
	e, err := c.entry("fd_fdstat_get", h, 0)
	if err != nil {
		return Fdstat{}, err
	}
	r := rightsOf(e)
	st := Fdstat{RightsBase: r.Base, RightsInheriting: r.Inheriting}
	switch v := e.Value.(type) {
	case dir.Dir:
		st.FileType = file.TypeDirectory
	case file.File:
		if st.FileType, err = v.FileType(ctx); err != nil {
			return Fdstat{}, backend(err, "fd_fdstat_get", h)
		}
		if st.Flags, err = v.Fdflags(ctx); err != nil {
			return Fdstat{}, backend(err, "fd_fdstat_get", h)
		}
	}
	return st, nil
}

// FdFdstatSetFlags replaces the descriptor flags of a file.
func (c *Ctx) FdFdstatSetFlags(ctx context.Context, h resource.Handle, flags file.FdFlags) error {
	f, err := c.file("fd_fdstat_set_flags", h, resource.RightFdFdstatSetFlags)
	if err != nil {
		return err
	}
	return backend(f.SetFdflags(ctx, flags), "fd_fdstat_set_flags", h)
}

// FdFdstatSetRights narrows the rights of a handle. Rights can never be
// widened.
func (c *Ctx) FdFdstatSetRights(h resource.Handle, base, inheriting uint64) error {
	e, err := c.entry("fd_fdstat_set_rights", h, 0)
	if err != nil {
		return err
	}
	if !e.Rights.Narrow(base, inheriting) {
		return errors.New(errors.PhaseDispatch, errors.KindNotCapable).
			Op("fd_fdstat_set_rights").Handle(uint32(h)).Detail("rights can only be narrowed").Build()
	}
	return c.table.SetRights(h, &resource.Rights{Base: base, Inheriting: inheriting})
}

// FdFilestatGet returns the attributes of an open file or directory.
func (c *Ctx) FdFilestatGet(ctx context.Context, h resource.Handle) (file.Filestat, error) {
	e, err := c.entry("fd_filestat_get", h, resource.RightFdFilestatGet)
	if err != nil {
		return file.Filestat{}, err
	}
	var st file.Filestat
	switch v := e.Value.(type) {
	case file.File:
		st, err = v.Stat(ctx)
	case dir.Dir:
		st, err = v.Stat(ctx)
	}
	return st, backend(err, "fd_filestat_get", h)
}

// FdFilestatSetSize truncates or extends a file.
func (c *Ctx) FdFilestatSetSize(ctx context.Context, h resource.Handle, size uint64) error {
	f, err := c.file("fd_filestat_set_size", h, resource.RightFdFilestatSetSize)
	if err != nil {
		return err
	}
	return backend(f.SetSize(ctx, size), "fd_filestat_set_size", h)
}

// FdFilestatSetTimes updates the timestamps of an open file or directory.
func (c *Ctx) FdFilestatSetTimes(ctx context.Context, h resource.Handle, atim, mtim uint64, flags FstFlags) error {
	e, err := c.entry("fd_filestat_set_times", h, resource.RightFdFilestatSetTimes)
	if err != nil {
		return err
	}
	a, m, err := timeSpecs(atim, mtim, flags)
	if err != nil {
		return errors.WithOp(err, "fd_filestat_set_times", uint32(h))
	}
	switch v := e.Value.(type) {
	case file.File:
		err = v.SetTimes(ctx, a, m)
	case dir.Dir:
		err = v.SetTimesAt(ctx, true, ".", a, m)
	}
	return backend(err, "fd_filestat_set_times", h)
}

// FdRead reads at the cursor.
func (c *Ctx) FdRead(ctx context.Context, h resource.Handle, iovs [][]byte) (uint64, error) {
	f, err := c.file("fd_read", h, resource.RightFdRead)
	if err != nil {
		return 0, err
	}
	n, err := f.Read(ctx, iovs)
	return n, backend(err, "fd_read", h)
}

// FdPread reads at offset without moving the cursor. Stream backends
// fail with InvalidSeek.
func (c *Ctx) FdPread(ctx context.Context, h resource.Handle, iovs [][]byte, offset uint64) (uint64, error) {
	f, err := c.file("fd_pread", h, resource.RightFdRead|resource.RightFdSeek)
	if err != nil {
		return 0, err
	}
	if f.Positioning()&file.PositionExplicit == 0 {
		return 0, errors.New(errors.PhaseDispatch, errors.KindInvalidSeek).Op("fd_pread").Handle(uint32(h)).Build()
	}
	n, err := f.ReadAt(ctx, iovs, offset)
	return n, backend(err, "fd_pread", h)
}

// FdWrite writes at the cursor, or at the end in append mode.
func (c *Ctx) FdWrite(ctx context.Context, h resource.Handle, iovs [][]byte) (uint64, error) {
	f, err := c.file("fd_write", h, resource.RightFdWrite)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(ctx, iovs)
	return n, backend(err, "fd_write", h)
}

// FdPwrite writes at offset without moving the cursor.
func (c *Ctx) FdPwrite(ctx context.Context, h resource.Handle, iovs [][]byte, offset uint64) (uint64, error) {
	f, err := c.file("fd_pwrite", h, resource.RightFdWrite|resource.RightFdSeek)
	if err != nil {
		return 0, err
	}
	if f.Positioning()&file.PositionExplicit == 0 {
		return 0, errors.New(errors.PhaseDispatch, errors.KindInvalidSeek).Op("fd_pwrite").Handle(uint32(h)).Build()
	}
	n, err := f.WriteAt(ctx, iovs, offset)
	return n, backend(err, "fd_pwrite", h)
}

// FdSeek moves the cursor and returns the new offset. A zero move from
// the current position only needs the tell right.
func (c *Ctx) FdSeek(ctx context.Context, h resource.Handle, offset int64, whence file.Whence) (uint64, error) {
	right := resource.RightFdSeek | resource.RightFdTell
	if offset == 0 && whence == file.SeekCurrent {
		right = resource.RightFdTell
	}
	f, err := c.file("fd_seek", h, right)
	if err != nil {
		return 0, err
	}
	if whence > file.SeekEnd {
		return 0, errors.InvalidArgument(errors.PhaseDispatch, "unknown whence")
	}
	pos, err := f.Seek(ctx, offset, whence)
	return pos, backend(err, "fd_seek", h)
}

// FdTell returns the cursor.
func (c *Ctx) FdTell(ctx context.Context, h resource.Handle) (uint64, error) {
	f, err := c.file("fd_tell", h, resource.RightFdTell)
	if err != nil {
		return 0, err
	}
	pos, err := f.Seek(ctx, 0, file.SeekCurrent)
	return pos, backend(err, "fd_tell", h)
}

// FdPrestatGet returns the guest path of a preopened directory.
func (c *Ctx) FdPrestatGet(h resource.Handle) (string, error) {
	return c.prestat("fd_prestat_get", h)
}

// FdPrestatDirName returns the guest path of a preopened directory. The
// caller checks it fits the guest buffer.
func (c *Ctx) FdPrestatDirName(h resource.Handle) (string, error) {
	return c.prestat("fd_prestat_dir_name", h)
}

func (c *Ctx) prestat(op string, h resource.Handle) (string, error) {
	e, err := c.table.Lookup(h)
	if err != nil {
		return "", errors.WithOp(err, op, uint32(h))
	}
	if _, ok := e.Value.(dir.Dir); !ok || e.Preopen == "" {
		return "", errors.New(errors.PhaseDispatch, errors.KindBadHandle).
			Op(op).Handle(uint32(h)).Detail("not a preopened directory").Build()
	}
	return e.Preopen, nil
}

// FdReaddir lists a directory starting after cookie. The caller stops
// iterating once the guest buffer is full.
func (c *Ctx) FdReaddir(ctx context.Context, h resource.Handle, cookie dir.Cookie) (iter.Seq2[dir.Entity, error], error) {
	d, err := c.dir("fd_readdir", h, resource.RightFdReaddir)
	if err != nil {
		return nil, err
	}
	return d.Readdir(ctx, cookie), nil
}

// FdRenumber moves the entry at from to to, closing whatever to held.
func (c *Ctx) FdRenumber(ctx context.Context, from, to resource.Handle) error {
	return backend(c.table.Renumber(ctx, from, to), "fd_renumber", from)
}
