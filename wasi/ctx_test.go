package wasi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasi-common/clocks"
	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/internal/memfs"
	"github.com/wippyai/wasi-common/pipe"
	"github.com/wippyai/wasi-common/random"
	"github.com/wippyai/wasi-common/resource"
)

var testOrigin = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// newTestCtx builds a context with a memfs root preopened at 3 and a fake
// clock.
func newTestCtx(t *testing.T, opts ...func(*Builder)) (*Ctx, *memfs.FS, *clocks.Fake) {
	t.Helper()
	fake := clocks.NewFake(testOrigin)
	fs := memfs.New(memfs.WithClock(fake.System().Now))
	b := New().
		WithArgs("prog", "arg").
		WithEnv("HOME", "/").
		WithClocks(fake.Clocks()).
		WithRandom(random.Deterministic([]byte("test"))).
		WithPreopenedDir(fs.Root(), "/")
	for _, o := range opts {
		o(b)
	}
	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, fs, fake
}

func requireKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, errors.KindOf(err), "error: %v", err)
}

func TestBuild_Defaults(t *testing.T) {
	c, err := New().Build()
	require.NoError(t, err)
	defer c.Close(context.Background())

	require.Equal(t, 3, c.Table().Len())
	for _, h := range []resource.Handle{Stdin, Stdout, Stderr} {
		require.True(t, c.Table().Contains(h))
	}
	require.Zero(t, c.Args().Len())
	require.Zero(t, c.Environ().Size())
	require.NotNil(t, c.Logger())
	require.NotNil(t, c.Scheduler())
}

func TestBuild_StringArrays(t *testing.T) {
	c, _, _ := newTestCtx(t, func(b *Builder) { b.WithEnv("LANG", "C") })

	require.Equal(t, []string{"prog", "arg"}, c.Args().Elements())
	require.Equal(t, uint32(2), c.Args().Len())
	require.Equal(t, uint32(len("prog")+1+len("arg")+1), c.Args().Size())
	require.Equal(t, []string{"HOME=/", "LANG=C"}, c.Environ().Elements())
}

func TestBuild_Validation(t *testing.T) {
	fs := memfs.New()
	tests := []struct {
		name  string
		build *Builder
		kind  errors.Kind
	}{
		{"nul in arg", New().WithArgs("a\x00b"), errors.KindInvalidArgument},
		{"nul in env value", New().WithEnv("K", "v\x00"), errors.KindInvalidArgument},
		{"equals in env key", New().WithEnv("A=B", "v"), errors.KindInvalidArgument},
		{"empty env key", New().WithEnv("", "v"), errors.KindInvalidArgument},
		{"preopen on stdio", New().WithPreopen(1, fs.Root(), "/"), errors.KindAlreadyExists},
		{"preopen collision", New().WithPreopen(5, fs.Root(), "/a").WithPreopen(5, fs.Root(), "/b"), errors.KindAlreadyExists},
		{"nil preopen", New().WithPreopenedDir(nil, "/"), errors.KindInvalidArgument},
		{"empty preopen path", New().WithPreopenedDir(fs.Root(), ""), errors.KindInvalidArgument},
		{"handle limit", New().WithMaxHandles(3).WithPreopenedDir(fs.Root(), "/"), errors.KindTooManyHandles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build.Build()
			requireKind(t, err, tt.kind)
		})
	}
}

func TestBuild_PreopenOrder(t *testing.T) {
	a, b, c := memfs.New(), memfs.New(), memfs.New()
	ctx, err := New().
		WithPreopen(7, a.Root(), "/a").
		WithPreopenedDir(b.Root(), "/b").
		WithPreopenedDir(c.Root(), "/c").
		Build()
	require.NoError(t, err)
	defer ctx.Close(context.Background())

	for h, want := range map[resource.Handle]string{3: "/b", 4: "/c", 7: "/a"} {
		got, err := ctx.FdPrestatGet(h)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err = ctx.FdPrestatGet(5)
	requireKind(t, err, errors.KindBadHandle)
}

func TestPrestat(t *testing.T) {
	c, _, _ := newTestCtx(t)

	name, err := c.FdPrestatDirName(3)
	require.NoError(t, err)
	require.Equal(t, "/", name)

	_, err = c.FdPrestatGet(Stdout)
	requireKind(t, err, errors.KindBadHandle)

	h, err := c.PathOpen(context.Background(), 3, true, ".", dir.OpenFlags{Directory: true}, resource.RightsDir, resource.RightsAll, 0)
	require.NoError(t, err)
	_, err = c.FdPrestatGet(h)
	requireKind(t, err, errors.KindBadHandle)
}

func TestStdio(t *testing.T) {
	out := pipe.NewCapture()
	c, _, _ := newTestCtx(t, func(b *Builder) {
		b.WithStdin(pipe.FromString("input")).WithStdout(out)
	})
	ctx := context.Background()

	n, err := c.FdWrite(ctx, Stdout, [][]byte{[]byte("hello "), []byte("world")})
	require.NoError(t, err)
	require.Equal(t, uint64(11), n)
	require.Equal(t, "hello world", string(out.Bytes()))

	buf := make([]byte, 16)
	n, err = c.FdRead(ctx, Stdin, [][]byte{buf})
	require.NoError(t, err)
	require.Equal(t, "input", string(buf[:n]))

	_, err = c.FdSeek(ctx, Stdin, 1, 0)
	requireKind(t, err, errors.KindNotCapable)
}

func TestClocks(t *testing.T) {
	c, _, fake := newTestCtx(t)

	wall, err := c.ClockTimeGet(ClockRealtime, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(testOrigin.UnixNano()), wall)

	before, err := c.ClockTimeGet(ClockMonotonic, 0)
	require.NoError(t, err)
	fake.Advance(time.Second)
	after, err := c.ClockTimeGet(ClockMonotonic, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(time.Second), after-before)

	res, err := c.ClockResGet(ClockMonotonic)
	require.NoError(t, err)
	require.NotZero(t, res)

	for _, id := range []ClockID{ClockProcessCPUTime, ClockThreadCPUTime, 9} {
		_, err := c.ClockTimeGet(id, 0)
		requireKind(t, err, errors.KindInvalidArgument)
		_, err = c.ClockResGet(id)
		requireKind(t, err, errors.KindInvalidArgument)
	}
}

func TestRandomGet_Deterministic(t *testing.T) {
	a, _, _ := newTestCtx(t)
	b, _, _ := newTestCtx(t)

	bufA, bufB := make([]byte, 64), make([]byte, 64)
	require.NoError(t, a.RandomGet(bufA))
	require.NoError(t, b.RandomGet(bufB))
	require.Equal(t, bufA, bufB)
	require.NotEqual(t, make([]byte, 64), bufA)
}

func TestProcExit(t *testing.T) {
	c, _, _ := newTestCtx(t)

	_, exited := c.ExitCode()
	require.False(t, exited)

	err := c.ProcExit(3)
	exit, ok := errors.AsExit(err)
	require.True(t, ok)
	require.Equal(t, uint32(3), exit.Code)
	require.True(t, errors.IsTerminal(err))

	code, exited := c.ExitCode()
	require.True(t, exited)
	require.Equal(t, uint32(3), code)

	requireKind(t, c.ProcRaise(6), errors.KindNotSupported)
	require.NoError(t, c.SchedYield(context.Background()))
}

func TestSockets(t *testing.T) {
	c, _, _ := newTestCtx(t)
	ctx := context.Background()

	_, _, err := c.SockRecv(ctx, Stdin, nil, 0)
	requireKind(t, err, errors.KindNotSupported)
	_, err = c.SockSend(ctx, Stdout, nil, 0)
	requireKind(t, err, errors.KindNotSupported)
	requireKind(t, c.SockShutdown(ctx, Stdout, 0), errors.KindNotSupported)
	_, err = c.SockAccept(ctx, 42, 0)
	requireKind(t, err, errors.KindBadHandle)
}

func TestClose(t *testing.T) {
	c, err := New().Build()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))
	_, err = c.FdWrite(ctx, Stdout, [][]byte{[]byte("x")})
	requireKind(t, err, errors.KindBadHandle)
}
