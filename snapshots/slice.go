package snapshots

import (
	"encoding/binary"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/errors"
)

// SliceMemory is a guest memory over a byte slice. Read returns views.
// It backs the dispatcher tests and embeddings that run guests without a
// wasm engine.
type SliceMemory struct {
	buf []byte
}

var (
	_ wasicommon.Memory      = (*SliceMemory)(nil)
	_ wasicommon.MemorySizer = (*SliceMemory)(nil)
)

// NewSliceMemory allocates size bytes of zeroed memory.
func NewSliceMemory(size uint32) *SliceMemory {
	return &SliceMemory{buf: make([]byte, size)}
}

// Bytes returns the backing slice.
func (m *SliceMemory) Bytes() []byte { return m.buf }

func (m *SliceMemory) Size() uint32 { return uint32(len(m.buf)) }

func (m *SliceMemory) view(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.buf)) {
		return nil, errors.Fault(offset, length)
	}
	return m.buf[offset:end:end], nil
}

func (m *SliceMemory) Read(offset, length uint32) ([]byte, error) {
	return m.view(offset, length)
}

func (m *SliceMemory) Write(offset uint32, data []byte) error {
	b, err := m.view(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (m *SliceMemory) ReadU8(offset uint32) (uint8, error) {
	b, err := m.view(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *SliceMemory) ReadU16(offset uint32) (uint16, error) {
	b, err := m.view(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *SliceMemory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.view(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *SliceMemory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.view(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *SliceMemory) WriteU8(offset uint32, value uint8) error {
	b, err := m.view(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (m *SliceMemory) WriteU16(offset uint32, value uint16) error {
	b, err := m.view(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (m *SliceMemory) WriteU32(offset uint32, value uint32) error {
	b, err := m.view(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *SliceMemory) WriteU64(offset uint32, value uint64) error {
	b, err := m.view(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}
