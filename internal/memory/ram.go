// Package memory implements the RAM (C3) and ROM (C4) devices: the two bus
// participants that back the machine's paged address space.
package memory

import (
	"github.com/starritt/locus16/internal/bus"
	"github.com/starritt/locus16/internal/mapper"
)

const (
	ramLow  int16 = -28672 // 0x9000
	ramHigh int16 = 28672  // 0x7000, exclusive, wrapping through 0x0000
)

// RAM is the paged-RAM device. It owns no storage of its own; every access
// is translated through the mapper into its shared physical array.
type RAM struct {
	bus.Base
	mapper *mapper.Mapper
}

// NewRAM constructs the RAM device against the given mapper.
func NewRAM(m *mapper.Mapper) *RAM {
	r := &RAM{mapper: m}
	r.Base = bus.NewBase("RAM", ramLow, ramHigh, r)
	return r
}

func (r *RAM) GetByte(addr int16) byte {
	idx, ok := r.mapper.Translate(addr)
	if !ok {
		return 0xFF
	}
	return r.mapper.Phys()[idx]
}

func (r *RAM) SetByte(addr int16, v byte) {
	idx, ok := r.mapper.Translate(addr)
	if !ok {
		return
	}
	r.mapper.Phys()[idx] = v
}

// GetWord reads a big-endian word; the high byte lives at addr, the low
// byte at addr+1.
func (r *RAM) GetWord(addr int16) int16 {
	hi := r.GetByte(addr)
	lo := r.GetByte(addr + 1)
	return int16(uint16(hi)<<8 | uint16(lo))
}

func (r *RAM) SetWord(addr int16, v int16) {
	r.SetByte(addr, byte(uint16(v)>>8))
	r.SetByte(addr+1, byte(uint16(v)))
}
