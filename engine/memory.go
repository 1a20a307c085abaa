package engine

import (
	"github.com/tetratelabs/wazero/api"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/errors"
)

// Memory adapts a wazero memory to the guest memory contract. Reads
// return views into the linear memory. A nil memory faults on every
// access.
type Memory struct {
	mem api.Memory
}

// NewMemory wraps mem.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, errors.Fault(offset, length)
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.Fault(offset, length)
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if m.mem == nil || !m.mem.Write(offset, data) {
		return errors.Fault(offset, uint32(len(data)))
	}
	return nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	if m.mem == nil {
		return 0, errors.Fault(offset, 1)
	}
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errors.Fault(offset, 1)
	}
	return v, nil
}

func (m *Memory) ReadU16(offset uint32) (uint16, error) {
	if m.mem == nil {
		return 0, errors.Fault(offset, 2)
	}
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.Fault(offset, 2)
	}
	return v, nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	if m.mem == nil {
		return 0, errors.Fault(offset, 4)
	}
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.Fault(offset, 4)
	}
	return v, nil
}

func (m *Memory) ReadU64(offset uint32) (uint64, error) {
	if m.mem == nil {
		return 0, errors.Fault(offset, 8)
	}
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.Fault(offset, 8)
	}
	return v, nil
}

func (m *Memory) WriteU8(offset uint32, value uint8) error {
	if m.mem == nil || !m.mem.WriteByte(offset, value) {
		return errors.Fault(offset, 1)
	}
	return nil
}

func (m *Memory) WriteU16(offset uint32, value uint16) error {
	if m.mem == nil || !m.mem.WriteUint16Le(offset, value) {
		return errors.Fault(offset, 2)
	}
	return nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if m.mem == nil || !m.mem.WriteUint32Le(offset, value) {
		return errors.Fault(offset, 4)
	}
	return nil
}

func (m *Memory) WriteU64(offset uint32, value uint64) error {
	if m.mem == nil || !m.mem.WriteUint64Le(offset, value) {
		return errors.Fault(offset, 8)
	}
	return nil
}

func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

var (
	_ wasicommon.Memory      = (*Memory)(nil)
	_ wasicommon.MemorySizer = (*Memory)(nil)
)
