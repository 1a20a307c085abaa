package pipe

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
)

type fder interface {
	Fd() uintptr
}

func isTerminal(v any) func() bool {
	return sync.OnceValue(func() bool {
		f, ok := v.(fder)
		return ok && term.IsTerminal(int(f.Fd()))
	})
}

// ReadPipe is a stream file over an io.Reader. It is what stdin usually is.
// Stream files have no explicit offsets: pread fails with KindInvalidSeek.
type ReadPipe struct {
	file.Unimplemented
	r     io.Reader
	tty   func() bool
	mu    sync.Mutex
	close bool
}

// NewReadPipe wraps r.
func NewReadPipe(r io.Reader) *ReadPipe {
	return &ReadPipe{r: r, tty: isTerminal(r)}
}

// FromString returns a pipe that yields s then EOF.
func FromString(s string) *ReadPipe {
	return NewReadPipe(strings.NewReader(s))
}

func (p *ReadPipe) FileType(context.Context) (file.FileType, error) {
	if p.tty() {
		return file.TypeCharacterDevice, nil
	}
	return file.TypePipe, nil
}

func (p *ReadPipe) Positioning() file.Positioning { return file.Stream }

func (p *ReadPipe) Read(ctx context.Context, bufs [][]byte) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.close {
		return 0, errors.BadHandle("read", 0)
	}
	var total uint64
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		n, err := p.r.Read(b)
		total += uint64(n)
		if stderrors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, errors.FromOS(err)
		}
		if n < len(b) {
			break
		}
	}
	return total, nil
}

func (p *ReadPipe) ReadAt(context.Context, [][]byte, uint64) (uint64, error) {
	return 0, errors.New(errors.PhaseBackend, errors.KindInvalidSeek).Op("read_at").Build()
}

func (p *ReadPipe) Seek(context.Context, int64, file.Whence) (uint64, error) {
	return 0, errors.New(errors.PhaseBackend, errors.KindInvalidSeek).Op("seek").Build()
}

func (p *ReadPipe) Stat(ctx context.Context) (file.Filestat, error) {
	ft, _ := p.FileType(ctx)
	return file.Filestat{FileType: ft, Nlink: 1}, nil
}

func (p *ReadPipe) SetFdflags(_ context.Context, flags file.FdFlags) error {
	if flags&^file.FlagNonblock != 0 {
		return errors.InvalidArgument(errors.PhaseBackend, "unsupported pipe flags")
	}
	return nil
}

// NumReady reports buffered bytes when the reader knows its length.
func (p *ReadPipe) NumReady(context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.r.(interface{ Len() int }); ok {
		return uint64(l.Len()), nil
	}
	return 0, nil
}

func (p *ReadPipe) Readable(context.Context) (bool, error) { return true, nil }

func (p *ReadPipe) Writable(context.Context) (bool, error) {
	return false, errors.New(errors.PhaseBackend, errors.KindBadHandle).Detail("read-only pipe").Build()
}

func (p *ReadPipe) IsTTY() bool { return p.tty() }

// Close detaches the pipe. The underlying reader is owned by the embedder
// and stays open.
func (p *ReadPipe) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.close = true
	return nil
}

// WritePipe is a stream file over an io.Writer. It is what stdout and
// stderr usually are.
type WritePipe struct {
	file.Unimplemented
	w     io.Writer
	tty   func() bool
	mu    sync.Mutex
	close bool
}

// NewWritePipe wraps w.
func NewWritePipe(w io.Writer) *WritePipe {
	return &WritePipe{w: w, tty: isTerminal(w)}
}

// NewCapture returns a pipe that records everything written to it.
func NewCapture() *WritePipe {
	return NewWritePipe(&lockedBuffer{})
}

// Discard returns a pipe that accepts and drops all writes.
func Discard() *WritePipe {
	return NewWritePipe(io.Discard)
}

// Bytes returns what a capture pipe recorded, or nil for other writers.
func (p *WritePipe) Bytes() []byte {
	if b, ok := p.w.(*lockedBuffer); ok {
		return b.Bytes()
	}
	return nil
}

func (p *WritePipe) FileType(context.Context) (file.FileType, error) {
	if p.tty() {
		return file.TypeCharacterDevice, nil
	}
	return file.TypePipe, nil
}

func (p *WritePipe) Positioning() file.Positioning { return file.Stream }

func (p *WritePipe) Write(ctx context.Context, bufs [][]byte) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.close {
		return 0, errors.BadHandle("write", 0)
	}
	var total uint64
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		n, err := p.w.Write(b)
		total += uint64(n)
		if err != nil {
			return total, errors.FromOS(err)
		}
	}
	return total, nil
}

func (p *WritePipe) WriteAt(context.Context, [][]byte, uint64) (uint64, error) {
	return 0, errors.New(errors.PhaseBackend, errors.KindInvalidSeek).Op("write_at").Build()
}

func (p *WritePipe) Seek(context.Context, int64, file.Whence) (uint64, error) {
	return 0, errors.New(errors.PhaseBackend, errors.KindInvalidSeek).Op("seek").Build()
}

func (p *WritePipe) Stat(ctx context.Context) (file.Filestat, error) {
	ft, _ := p.FileType(ctx)
	return file.Filestat{FileType: ft, Nlink: 1}, nil
}

func (p *WritePipe) Fdflags(context.Context) (file.FdFlags, error) {
	return file.FlagAppend, nil
}

func (p *WritePipe) SetFdflags(_ context.Context, flags file.FdFlags) error {
	if flags&^(file.FlagAppend|file.FlagNonblock) != 0 {
		return errors.InvalidArgument(errors.PhaseBackend, "unsupported pipe flags")
	}
	return nil
}

// Sync flushes writers that buffer. Terminals and OS pipes reject fsync
// with EINVAL; that is not a failure for a stream.
func (p *WritePipe) Sync(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.w.(interface{ Sync() error }); ok {
		if err := errors.FromOS(s.Sync()); err != nil && errors.KindOf(err) != errors.KindInvalidArgument {
			return err
		}
	}
	return nil
}

func (p *WritePipe) Readable(context.Context) (bool, error) {
	return false, errors.New(errors.PhaseBackend, errors.KindBadHandle).Detail("write-only pipe").Build()
}

func (p *WritePipe) Writable(context.Context) (bool, error) { return true, nil }

func (p *WritePipe) IsTTY() bool { return p.tty() }

// Close detaches the pipe. The underlying writer stays open.
func (p *WritePipe) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.close = true
	return nil
}

type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
