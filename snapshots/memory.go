package snapshots

import (
	"encoding/binary"
	"math"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/errors"
)

// Span checks that [ptr, ptr+size) is addressable in a 32-bit memory.
// A range that wraps the address space is a trap: no guest could have
// produced it from valid pointers.
func Span(ptr, size uint32) error {
	if uint64(ptr)+uint64(size) > math.MaxUint32+1 {
		return errors.Trap("guest pointer overflow", errors.Fault(ptr, size))
	}
	return nil
}

// Mul returns count*size, trapping when the product overflows.
func Mul(count, size uint32) (uint32, error) {
	n := uint64(count) * uint64(size)
	if n > math.MaxUint32 {
		return 0, errors.Trap("guest length overflow", errors.Overflow(errors.PhaseDecode, n, "u32"))
	}
	return uint32(n), nil
}

// Read returns size bytes at ptr.
func Read(mem wasicommon.Memory, ptr, size uint32) ([]byte, error) {
	if err := Span(ptr, size); err != nil {
		return nil, err
	}
	return mem.Read(ptr, size)
}

// ReadString decodes a (ptr, len) string argument.
func ReadString(mem wasicommon.Memory, ptr, size uint32) (string, error) {
	b, err := Read(mem, ptr, size)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Iovec is one decoded guest buffer.
type Iovec struct {
	Buf []byte
	Ptr uint32
}

// ReadIovecs decodes an array of n (buf u32, len u32) records at ptr.
func ReadIovecs(mem wasicommon.Memory, ptr, n uint32) ([]Iovec, error) {
	size, err := Mul(n, 8)
	if err != nil {
		return nil, err
	}
	raw, err := Read(mem, ptr, size)
	if err != nil {
		return nil, err
	}
	raw = append([]byte(nil), raw...)

	iovs := make([]Iovec, n)
	for i := range iovs {
		bufPtr := binary.LittleEndian.Uint32(raw[i*8:])
		bufLen := binary.LittleEndian.Uint32(raw[i*8+4:])
		b, err := Read(mem, bufPtr, bufLen)
		if err != nil {
			return nil, err
		}
		iovs[i] = Iovec{Ptr: bufPtr, Buf: b}
	}
	return iovs, nil
}

// Buffers returns the byte slices of iovs.
func Buffers(iovs []Iovec) [][]byte {
	out := make([][]byte, len(iovs))
	for i, v := range iovs {
		out[i] = v.Buf
	}
	return out
}

// StoreIovecs writes the first n filled bytes of iovs back to guest
// memory. Memories that return views can skip this, but it is always
// correct.
func StoreIovecs(mem wasicommon.Memory, iovs []Iovec, n uint64) error {
	for _, v := range iovs {
		if n == 0 {
			return nil
		}
		chunk := v.Buf
		if uint64(len(chunk)) > n {
			chunk = chunk[:n]
		}
		if err := mem.Write(v.Ptr, chunk); err != nil {
			return err
		}
		n -= uint64(len(chunk))
	}
	return nil
}

// WriteStrings stores values as NUL-terminated strings starting at buf and
// their addresses as u32 little-endian pointers starting at ptrs. It is the
// encoding of args_get and environ_get in both snapshots.
func WriteStrings(mem wasicommon.Memory, values []string, ptrs, buf uint32) error {
	for _, v := range values {
		if err := Span(buf, uint32(len(v))+1); err != nil {
			return err
		}
		if err := mem.WriteU32(ptrs, buf); err != nil {
			return err
		}
		ptrs += 4
		if err := mem.Write(buf, append([]byte(v), 0)); err != nil {
			return err
		}
		buf += uint32(len(v)) + 1
	}
	return nil
}
