package armsim

import (
	"encoding/binary"
	"fmt"
)

// region is one disjoint byte-addressable span of simulated memory.
type region struct {
	base  uint32
	bytes []byte
}

// Memory is the simulated address space, backing both generated code and
// whatever scratch/stack space a test reserves alongside it. It is not
// necessarily one flat window: a procedure generated across more than one
// codebuf buffer occupies separate, non-adjacent spans in real memory, so
// Memory holds a list of them and resolves an address against whichever
// span owns it. Tests populate it from codebuf.Chain.ReadRange (or
// vmasm.Assembler.Regions, for a chained procedure) rather than executing
// the live mmap'd pages directly.
type Memory struct {
	regions []region
}

// NewMemory wraps data as the address range [base, base+len(data)). Use
// AddRegion afterwards to register any further, disjoint spans.
func NewMemory(base uint32, data []byte) *Memory {
	return &Memory{regions: []region{{base, data}}}
}

// AddRegion registers another disjoint span of simulated memory, for a
// procedure whose code was generated across more than one codebuf buffer
// and is therefore not contiguous with the first region.
func (m *Memory) AddRegion(base uint32, data []byte) {
	m.regions = append(m.regions, region{base, data})
}

func (m *Memory) find(addr uint32) (region, int, error) {
	for _, r := range m.regions {
		if addr >= r.base && int(addr-r.base) < len(r.bytes) {
			return r, int(addr - r.base), nil
		}
	}
	return region{}, 0, fmt.Errorf("armsim: address %#x outside any simulated region", addr)
}

func (m *Memory) offset(addr uint32) (int, error) {
	_, off, err := m.find(addr)
	return off, err
}

// ReadWord reads a little-endian 32-bit word.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	r, off, err := m.find(addr)
	if err != nil || off+4 > len(r.bytes) {
		return 0, fmt.Errorf("armsim: word read out of range at %#x", addr)
	}
	return binary.LittleEndian.Uint32(r.bytes[off : off+4]), nil
}

// WriteWord writes a little-endian 32-bit word.
func (m *Memory) WriteWord(addr, val uint32) error {
	r, off, err := m.find(addr)
	if err != nil || off+4 > len(r.bytes) {
		return fmt.Errorf("armsim: word write out of range at %#x", addr)
	}
	binary.LittleEndian.PutUint32(r.bytes[off:off+4], val)
	return nil
}

// ReadByte reads one byte.
func (m *Memory) ReadByte(addr uint32) (byte, error) {
	r, off, err := m.find(addr)
	if err != nil {
		return 0, err
	}
	return r.bytes[off], nil
}

// WriteByte writes one byte.
func (m *Memory) WriteByte(addr uint32, val byte) error {
	r, off, err := m.find(addr)
	if err != nil {
		return err
	}
	r.bytes[off] = val
	return nil
}

// ReadHalf reads a little-endian 16-bit halfword.
func (m *Memory) ReadHalf(addr uint32) (uint16, error) {
	r, off, err := m.find(addr)
	if err != nil || off+2 > len(r.bytes) {
		return 0, fmt.Errorf("armsim: halfword read out of range at %#x", addr)
	}
	return binary.LittleEndian.Uint16(r.bytes[off : off+2]), nil
}

// WriteHalf writes a little-endian 16-bit halfword.
func (m *Memory) WriteHalf(addr uint32, val uint16) error {
	r, off, err := m.find(addr)
	if err != nil || off+2 > len(r.bytes) {
		return fmt.Errorf("armsim: halfword write out of range at %#x", addr)
	}
	binary.LittleEndian.PutUint16(r.bytes[off:off+2], val)
	return nil
}
