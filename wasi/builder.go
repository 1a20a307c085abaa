package wasi

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasi-common/clocks"
	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/pipe"
	"github.com/wippyai/wasi-common/random"
	"github.com/wippyai/wasi-common/resource"
	"github.com/wippyai/wasi-common/sched"
)

// Standard stream handles.
const (
	Stdin  resource.Handle = 0
	Stdout resource.Handle = 1
	Stderr resource.Handle = 2
)

// Builder collects the configuration of a Ctx.
type Builder struct {
	random     io.Reader
	sched      sched.Scheduler
	stdin      file.File
	stdout     file.File
	stderr     file.File
	logger     *zap.Logger
	clocks     *clocks.Clocks
	args       []string
	env        [][2]string
	preopens   []preopen
	maxHandles int
}

type preopen struct {
	handle   *resource.Handle
	dir      dir.Dir
	path     string
	readOnly bool
}

func (p preopen) rights() *resource.Rights {
	if p.readOnly {
		return resource.ReadOnlyDirRights()
	}
	return resource.DirRights()
}

// New creates a builder with empty stdin, discarded output, host clocks
// and the host's secure random source.
func New() *Builder {
	return &Builder{}
}

// WithArgs appends command-line arguments. The first is conventionally
// the program name.
func (b *Builder) WithArgs(args ...string) *Builder {
	b.args = append(b.args, args...)
	return b
}

// WithEnv appends one environment variable.
func (b *Builder) WithEnv(key, value string) *Builder {
	b.env = append(b.env, [2]string{key, value})
	return b
}

// WithStdin sets the file behind handle 0.
func (b *Builder) WithStdin(f file.File) *Builder {
	b.stdin = f
	return b
}

// WithStdout sets the file behind handle 1.
func (b *Builder) WithStdout(f file.File) *Builder {
	b.stdout = f
	return b
}

// WithStderr sets the file behind handle 2.
func (b *Builder) WithStderr(f file.File) *Builder {
	b.stderr = f
	return b
}

// WithPreopenedDir exposes d to the guest under guestPath at the next
// free handle, starting at 3.
func (b *Builder) WithPreopenedDir(d dir.Dir, guestPath string) *Builder {
	b.preopens = append(b.preopens, preopen{dir: d, path: guestPath})
	return b
}

// WithReadOnlyPreopenedDir is WithPreopenedDir for a directory whose
// files the guest may only open for reading. Requests for write rights
// are narrowed away instead of failing.
func (b *Builder) WithReadOnlyPreopenedDir(d dir.Dir, guestPath string) *Builder {
	b.preopens = append(b.preopens, preopen{dir: d, path: guestPath, readOnly: true})
	return b
}

// WithPreopen exposes d under guestPath at an explicit handle.
func (b *Builder) WithPreopen(h resource.Handle, d dir.Dir, guestPath string) *Builder {
	b.preopens = append(b.preopens, preopen{handle: &h, dir: d, path: guestPath})
	return b
}

// WithClocks replaces the host clocks.
func (b *Builder) WithClocks(c clocks.Clocks) *Builder {
	b.clocks = &c
	return b
}

// WithScheduler replaces the blocking scheduler.
func (b *Builder) WithScheduler(s sched.Scheduler) *Builder {
	b.sched = s
	return b
}

// WithRandom replaces the random source.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithLogger sets the context logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithMaxHandles bounds the number of open handles, stdio and preopens
// included. Zero means unbounded.
func (b *Builder) WithMaxHandles(n int) *Builder {
	b.maxHandles = n
	return b
}

// Build validates the configuration and creates the context.
func (b *Builder) Build() (*Ctx, error) {
	args, err := newStringArray("argument", b.args)
	if err != nil {
		return nil, err
	}
	env, err := b.environ()
	if err != nil {
		return nil, err
	}

	c := &Ctx{
		args:   args,
		env:    env,
		logger: b.logger,
		random: b.random,
		sched:  b.sched,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.random == nil {
		c.random = random.Secure()
	}
	if b.clocks != nil {
		c.clocks = *b.clocks
	} else {
		c.clocks = clocks.Real()
	}
	if c.sched == nil {
		c.sched = sched.NewSync(c.clocks.Monotonic)
	}

	var opts []resource.Option
	if b.maxHandles > 0 {
		opts = append(opts, resource.WithMaxHandles(b.maxHandles))
	}
	c.table = resource.NewTable(opts...)
	c.table.Subscribe(tableLogger{logger: c.logger})

	if err := b.bind(c.table); err != nil {
		_ = c.table.Close(context.Background())
		return nil, err
	}
	return c, nil
}

func (b *Builder) environ() (StringArray, error) {
	pairs := make([]string, 0, len(b.env))
	for _, kv := range b.env {
		key, value := kv[0], kv[1]
		if key == "" || strings.IndexByte(key, '=') >= 0 {
			return StringArray{}, errors.New(errors.PhaseConfig, errors.KindInvalidArgument).
				Detail("invalid environment key %q", key).Build()
		}
		pairs = append(pairs, key+"="+value)
	}
	return newStringArray("environment variable", pairs)
}

func (b *Builder) bind(t *resource.Table) error {
	stdin, stdout, stderr := b.stdin, b.stdout, b.stderr
	if stdin == nil {
		stdin = pipe.FromString("")
	}
	if stdout == nil {
		stdout = pipe.Discard()
	}
	if stderr == nil {
		stderr = pipe.Discard()
	}
	for h, f := range []file.File{stdin, stdout, stderr} {
		e := resource.Entry{Value: file.WithCursor(f), Rights: resource.StreamRights()}
		if err := t.InsertAt(resource.Handle(h), e); err != nil {
			return err
		}
	}

	// Explicit handles first so implicit ones fill the gaps in order.
	for _, p := range b.preopens {
		if p.handle == nil {
			continue
		}
		if err := validPreopen(p); err != nil {
			return err
		}
		e := resource.Entry{Value: p.dir, Rights: p.rights(), Preopen: p.path}
		if err := t.InsertAt(*p.handle, e); err != nil {
			return errors.WithOp(err, "preopen", uint32(*p.handle))
		}
	}
	for _, p := range b.preopens {
		if p.handle != nil {
			continue
		}
		if err := validPreopen(p); err != nil {
			return err
		}
		e := resource.Entry{Value: p.dir, Rights: p.rights(), Preopen: p.path}
		if _, err := t.InsertEntry(e); err != nil {
			return err
		}
	}
	return nil
}

func validPreopen(p preopen) error {
	if p.dir == nil {
		return errors.InvalidArgument(errors.PhaseConfig, "nil preopened directory for "+p.path)
	}
	if p.path == "" || strings.IndexByte(p.path, 0) >= 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidArgument).
			Detail("invalid preopen path %q", p.path).Build()
	}
	return nil
}
