package snapshots

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/wasi"
)

func TestSpan(t *testing.T) {
	require.NoError(t, Span(0, 0))
	require.NoError(t, Span(math.MaxUint32, 1))
	require.NoError(t, Span(0, math.MaxUint32))

	err := Span(math.MaxUint32, 2)
	require.True(t, errors.IsTrap(err))
	require.True(t, stderrors.Is(err, errors.ErrFault))
}

func TestMul(t *testing.T) {
	n, err := Mul(3, 8)
	require.NoError(t, err)
	require.Equal(t, uint32(24), n)

	_, err = Mul(1<<29, 8)
	require.True(t, errors.IsTrap(err))
}

func TestSliceMemory_Bounds(t *testing.T) {
	mem := NewSliceMemory(16)
	require.NoError(t, mem.WriteU64(8, 0x0102030405060708))
	v, err := mem.ReadU32(8)
	require.NoError(t, err)
	require.Equal(t, uint32(0x05060708), v)

	_, err = mem.ReadU64(12)
	require.Equal(t, errors.KindFault, errors.KindOf(err))
	require.Equal(t, errors.KindFault, errors.KindOf(mem.Write(15, []byte{1, 2})))
	require.Equal(t, uint32(16), mem.Size())
}

func TestReadIovecs(t *testing.T) {
	mem := NewSliceMemory(64)
	b := mem.Bytes()
	copy(b[32:], "hello world")
	binary.LittleEndian.PutUint32(b[0:], 32)
	binary.LittleEndian.PutUint32(b[4:], 5)
	binary.LittleEndian.PutUint32(b[8:], 38)
	binary.LittleEndian.PutUint32(b[12:], 5)

	iovs, err := ReadIovecs(mem, 0, 2)
	require.NoError(t, err)
	require.Len(t, iovs, 2)
	require.Equal(t, "hello", string(iovs[0].Buf))
	require.Equal(t, "world", string(iovs[1].Buf))
	require.Equal(t, uint32(38), iovs[1].Ptr)

	binary.LittleEndian.PutUint32(b[12:], 100)
	_, err = ReadIovecs(mem, 0, 2)
	require.Equal(t, errors.KindFault, errors.KindOf(err))
}

// copyMemory returns copies from Read, as engines without views do.
type copyMemory struct {
	*SliceMemory
}

func (m copyMemory) Read(offset, length uint32) ([]byte, error) {
	b, err := m.SliceMemory.Read(offset, length)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func TestStoreIovecs(t *testing.T) {
	mem := copyMemory{NewSliceMemory(64)}
	b := mem.Bytes()
	binary.LittleEndian.PutUint32(b[0:], 16)
	binary.LittleEndian.PutUint32(b[4:], 3)
	binary.LittleEndian.PutUint32(b[8:], 24)
	binary.LittleEndian.PutUint32(b[12:], 3)

	iovs, err := ReadIovecs(mem, 0, 2)
	require.NoError(t, err)
	copy(iovs[0].Buf, "abc")
	copy(iovs[1].Buf, "def")
	require.Zero(t, b[16])

	require.NoError(t, StoreIovecs(mem, iovs, 4))
	require.Equal(t, "abc", string(b[16:19]))
	require.Equal(t, []byte{'d', 0, 0}, b[24:27])
}

func TestWriteStrings(t *testing.T) {
	mem := NewSliceMemory(64)
	require.NoError(t, WriteStrings(mem, []string{"a", "bc"}, 0, 16))

	b := mem.Bytes()
	require.Equal(t, uint32(16), binary.LittleEndian.Uint32(b[0:]))
	require.Equal(t, uint32(18), binary.LittleEndian.Uint32(b[4:]))
	require.Equal(t, "a\x00bc\x00", string(b[16:21]))

	require.Equal(t, errors.KindFault, errors.KindOf(WriteStrings(mem, []string{"toolong"}, 0, 60)))
}

func TestFlags(t *testing.T) {
	of, err := OpenFlags(0b1011)
	require.NoError(t, err)
	require.True(t, of.Create)
	require.True(t, of.Directory)
	require.False(t, of.Exclusive)
	require.True(t, of.Truncate)

	_, err = OpenFlags(0x10)
	require.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	_, err = FdFlags("fd_fdstat_set_flags", 0x20)
	require.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	_, err = Advice(9)
	require.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))

	require.True(t, Follow(1))
	require.False(t, Follow(2))
}

func TestVersion(t *testing.T) {
	called := false
	v := NewVersion("test_module", func(e uint32) string { return "E" },
		Func{Name: "noop", Call: func(context.Context, *wasi.Ctx, wasicommon.Memory, []uint64) (uint32, error) {
			called = true
			return 0, nil
		}},
	)
	require.Equal(t, "test_module", v.Name())
	require.Len(t, v.Funcs(), 1)

	_, ok := v.Lookup("noop")
	require.True(t, ok)
	_, err := v.Call(context.Background(), "noop", nil, nil, nil)
	require.NoError(t, err)
	require.True(t, called)

	err = v.Check("missing")
	require.True(t, stderrors.Is(err, errors.ErrNotSupported))
	_, err = v.Call(context.Background(), "missing", nil, nil, nil)
	require.True(t, stderrors.Is(err, errors.ErrNotSupported))
}
