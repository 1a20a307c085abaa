package file

import (
	"context"
	"math"

	"github.com/wippyai/wasi-common/errors"
)

// WithCursor gives an explicit-offset-only backend a host-tracked cursor so
// it can serve fd_read, fd_write and fd_seek. Backends that already report
// PositionCursor are returned unchanged.
func WithCursor(f File) File {
	p := f.Positioning()
	if p&PositionCursor != 0 || p&PositionExplicit == 0 {
		return f
	}
	return &cursorFile{File: f}
}

// Unwrap returns the backend behind a WithCursor adapter.
func Unwrap(f File) File {
	if c, ok := f.(*cursorFile); ok {
		return c.File
	}
	return f
}

type cursorFile struct {
	File
	pos uint64
}

func (c *cursorFile) Positioning() Positioning {
	return PositionCursor | PositionExplicit
}

func (c *cursorFile) Read(ctx context.Context, bufs [][]byte) (uint64, error) {
	n, err := c.File.ReadAt(ctx, bufs, c.pos)
	c.pos += n
	return n, err
}

func (c *cursorFile) Write(ctx context.Context, bufs [][]byte) (uint64, error) {
	flags, err := c.File.Fdflags(ctx)
	if err != nil {
		return 0, err
	}
	if flags.Has(FlagAppend) {
		st, err := c.File.Stat(ctx)
		if err != nil {
			return 0, err
		}
		c.pos = st.Size
	}
	n, err := c.File.WriteAt(ctx, bufs, c.pos)
	c.pos += n
	return n, err
}

func (c *cursorFile) Seek(ctx context.Context, offset int64, whence Whence) (uint64, error) {
	var base uint64
	switch whence {
	case SeekStart:
	case SeekCurrent:
		base = c.pos
	case SeekEnd:
		st, err := c.File.Stat(ctx)
		if err != nil {
			return 0, err
		}
		base = st.Size
	default:
		return 0, errors.InvalidArgument(errors.PhaseBackend, "unknown whence")
	}
	pos, err := Offset(base, offset)
	if err != nil {
		return 0, err
	}
	c.pos = pos
	return pos, nil
}

// Offset applies a signed delta to base, failing with KindInvalidArgument
// for negative results and KindOverflow past the int64 range.
func Offset(base uint64, delta int64) (uint64, error) {
	if delta < 0 {
		// -MinInt64 wraps to itself, which is still 1<<63 as uint64.
		d := uint64(-delta)
		if d > base {
			return 0, errors.InvalidArgument(errors.PhaseBackend, "seek before start")
		}
		return base - d, nil
	}
	pos := base + uint64(delta)
	if pos < base || pos > math.MaxInt64 {
		return 0, errors.Overflow(errors.PhaseBackend, pos, "file offset")
	}
	return pos, nil
}

// Total returns the combined length of bufs.
func Total(bufs [][]byte) uint64 {
	var n uint64
	for _, b := range bufs {
		n += uint64(len(b))
	}
	return n
}
