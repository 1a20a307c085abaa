package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/pipe"
	"github.com/wippyai/wasi-common/snapshots/preview0"
	"github.com/wippyai/wasi-common/snapshots/preview1"
	"github.com/wippyai/wasi-common/wasi"
)

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func vec(items ...[]byte) []byte {
	return cat(uleb(uint32(len(items))), cat(items...))
}

func name(s string) []byte { return cat(uleb(uint32(len(s))), []byte(s)) }

func section(id byte, content []byte) []byte {
	return cat([]byte{id}, uleb(uint32(len(content))), content)
}

func i32Const(v int32) []byte { return cat([]byte{0x41}, sleb(v)) }

func call(idx uint32) []byte { return cat([]byte{0x10}, uleb(idx)) }

// command assembles a guest whose _start writes "hi\n" to stdout through
// module's fd_write with iovsLen iovecs, then calls proc_exit(exit) if
// exit is not negative.
func command(module string, iovsLen, exit int32) []byte {
	types := vec(
		[]byte{0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f},
		[]byte{0x60, 0x01, 0x7f, 0x00},
		[]byte{0x60, 0x00, 0x00},
	)
	imports := vec(
		cat(name(module), name("fd_write"), []byte{0x00, 0x00}),
		cat(name(module), name("proc_exit"), []byte{0x00, 0x01}),
	)
	funcs := vec([]byte{0x02})
	memory := vec([]byte{0x00, 0x01})
	exports := vec(
		cat(name("memory"), []byte{0x02, 0x00}),
		cat(name("_start"), []byte{0x00, 0x02}),
	)

	body := cat([]byte{0x00}, i32Const(1), i32Const(0), i32Const(iovsLen), i32Const(16), call(0), []byte{0x1a})
	if exit >= 0 {
		body = cat(body, i32Const(exit), call(1))
	}
	body = append(body, 0x0b)
	code := vec(cat(uleb(uint32(len(body))), body))

	// iovec{buf: 8, len: 3} followed by the bytes it points at.
	payload := []byte{8, 0, 0, 0, 3, 0, 0, 0, 'h', 'i', '\n'}
	data := vec(cat([]byte{0x00}, i32Const(0), []byte{0x0b}, uleb(uint32(len(payload))), payload))

	return cat(
		[]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		section(1, types),
		section(2, imports),
		section(3, funcs),
		section(5, memory),
		section(7, exports),
		section(10, code),
		section(11, data),
	)
}

func newGuestCtx(t *testing.T) (*wasi.Ctx, *pipe.WritePipe) {
	t.Helper()
	out := pipe.NewCapture()
	c, err := wasi.New().WithStdout(out).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, out
}

func newEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	ctx := context.Background()
	e, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func TestRun_ExitCode(t *testing.T) {
	e := newEngine(t, nil)
	c, out := newGuestCtx(t)

	code, err := e.Run(context.Background(), command(preview1.ModuleName, 1, 3), c)
	require.NoError(t, err)
	require.Equal(t, uint32(3), code)
	require.Equal(t, "hi\n", string(out.Bytes()))

	recorded, exited := c.ExitCode()
	require.True(t, exited)
	require.Equal(t, uint32(3), recorded)
}

func TestRun_ReturnFromStart(t *testing.T) {
	e := newEngine(t, nil)
	c, out := newGuestCtx(t)

	code, err := e.Run(context.Background(), command(preview1.ModuleName, 1, -1), c)
	require.NoError(t, err)
	require.Zero(t, code)
	require.Equal(t, "hi\n", string(out.Bytes()))

	_, exited := c.ExitCode()
	require.False(t, exited)
}

func TestRun_Preview0(t *testing.T) {
	e := newEngine(t, nil)
	c, out := newGuestCtx(t)

	code, err := e.Run(context.Background(), command(preview0.ModuleName, 1, 0), c)
	require.NoError(t, err)
	require.Zero(t, code)
	require.Equal(t, "hi\n", string(out.Bytes()))
}

func TestRun_GuestsDoNotShareContexts(t *testing.T) {
	e := newEngine(t, nil)
	first, firstOut := newGuestCtx(t)
	second, secondOut := newGuestCtx(t)

	_, err := e.Run(context.Background(), command(preview1.ModuleName, 1, 0), first)
	require.NoError(t, err)
	_, err = e.Run(context.Background(), command(preview1.ModuleName, 1, 0), second)
	require.NoError(t, err)

	require.Equal(t, "hi\n", string(firstOut.Bytes()))
	require.Equal(t, "hi\n", string(secondOut.Bytes()))
}

func TestRun_Trap(t *testing.T) {
	e := newEngine(t, nil)
	c, out := newGuestCtx(t)

	// 1<<29 iovecs of 8 bytes do not fit a 32-bit address space.
	_, err := e.Run(context.Background(), command(preview1.ModuleName, 1<<29, 0), c)
	require.Error(t, err)
	require.True(t, errors.IsTrap(err))
	require.False(t, errors.IsExit(err))
	require.Empty(t, out.Bytes())
}

func TestRun_SnapshotSelection(t *testing.T) {
	e := newEngine(t, &Config{Snapshots: []string{preview0.ModuleName}})
	require.NotNil(t, e.Runtime().Module(preview0.ModuleName))
	require.Nil(t, e.Runtime().Module(preview1.ModuleName))

	c, _ := newGuestCtx(t)
	_, err := e.Run(context.Background(), command(preview1.ModuleName, 1, 0), c)
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	stats := NewStats()
	e := newEngine(t, &Config{Stats: stats})
	c, _ := newGuestCtx(t)

	_, err := e.Run(context.Background(), command(preview1.ModuleName, 1, 2), c)
	require.NoError(t, err)

	byName := map[string]FuncStats{}
	for _, fs := range stats.Snapshot() {
		byName[fs.Func] = fs
	}
	require.Equal(t, uint64(1), byName["fd_write"].Calls)
	require.Zero(t, byName["fd_write"].Errors)
	require.Equal(t, uint64(1), byName["proc_exit"].Signals)
	require.Equal(t, preview1.ModuleName, byName["proc_exit"].Module)
}

func TestInstantiate(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	c, _ := newGuestCtx(t)

	_, err := Instantiate(ctx, r, c, WithSnapshots("wasi_future"))
	require.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	h, err := Instantiate(ctx, r, c)
	require.NoError(t, err)
	require.Len(t, h.Modules(), 2)
	require.NotNil(t, r.Module(preview1.ModuleName))

	// Host modules expose definitions only; ExportedFunction panics on them.
	defs := r.Module(preview1.ModuleName).ExportedFunctionDefinitions()
	require.NotNil(t, defs["fd_close"])
	require.Equal(t, []string{"fd"}, defs["fd_close"].ParamNames())
	require.NoError(t, h.Close(ctx))
}

func TestWithContext(t *testing.T) {
	c, _ := newGuestCtx(t)
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	got, ok := FromContext(WithContext(context.Background(), c))
	require.True(t, ok)
	require.Same(t, c, got)
}

func TestMemory_Nil(t *testing.T) {
	m := NewMemory(nil)
	_, err := m.Read(0, 1)
	require.Equal(t, errors.KindFault, errors.KindOf(err))
	require.Equal(t, errors.KindFault, errors.KindOf(m.WriteU32(0, 1)))
	require.Zero(t, m.Size())
}

func TestExitCode(t *testing.T) {
	code, err := ExitCode(nil)
	require.NoError(t, err)
	require.Zero(t, code)

	_, err = ExitCode(errors.Trap("x", nil))
	require.True(t, errors.IsTrap(err))

	_, err = ExitCode(errors.New(errors.PhaseHost, errors.KindIo).Build())
	require.True(t, errors.IsTrap(err))
}
