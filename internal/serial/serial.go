// Package serial implements the Locus 16 serial channel (C6): one
// unidirectional memory-mapped link between the bus and a character
// peripheral (tape reader/punch, terminal).
package serial

import (
	"log/slog"

	"github.com/starritt/locus16/internal/bus"
)

// Direction distinguishes an input channel (the peripheral feeds the ALP)
// from an output channel (the ALP feeds the peripheral).
type Direction int

const (
	Input Direction = iota
	Output
)

// Peripheral is the minimal non-blocking byte interface a serial channel
// drives. Tape readers/punches and the terminal all satisfy it.
type Peripheral interface {
	ReadByte() (value byte, ok bool)
	WriteByte(value byte) (ok bool)
}

const (
	readyWord    = int16(-16384) // 0xC000
	notReadyWord = int16(0)
)

// Serial is a passive bus.Device occupying [status, status+4).
type Serial struct {
	bus.Base

	direction  Direction
	statusAddr int16
	dataAddr   int16
	peripheral Peripheral

	bufferedByte byte
	present      bool
}

// New constructs a serial channel at statusAddr; its data register is
// statusAddr+2, per the fixed status/data pairing.
func New(direction Direction, statusAddr int16) *Serial {
	s := &Serial{direction: direction, statusAddr: statusAddr, dataAddr: statusAddr + 2}
	s.Base = bus.NewBase("Serial", statusAddr, statusAddr+4, s)
	return s
}

// Connect attaches (or replaces) the peripheral this channel drives,
// discarding any stale latched byte.
func (s *Serial) Connect(p Peripheral) {
	s.peripheral = p
	s.present = false
	s.bufferedByte = 0
}

func (s *Serial) GetWord(addr int16) int16 {
	switch {
	case addr == s.statusAddr:
		if s.peripheral == nil {
			return notReadyWord
		}
		if s.direction == Input {
			if !s.present {
				if b, ok := s.peripheral.ReadByte(); ok {
					s.bufferedByte = b
					s.present = true
				}
			}
			if s.present {
				return readyWord
			}
			return notReadyWord
		}
		return readyWord // output: always ready once attached
	case addr == s.dataAddr && s.direction == Input:
		if s.present {
			s.present = false
			return int16(s.bufferedByte)
		}
		return bus.AllOnes
	default:
		slog.Warn("serial: bogus address", "addr", addr, "direction", s.direction)
		return bus.AllOnes
	}
}

func (s *Serial) SetWord(addr int16, value int16) {
	if s.peripheral != nil && addr == s.dataAddr && s.direction == Output {
		s.peripheral.WriteByte(byte(value))
		return
	}
	slog.Warn("serial: bogus write", "addr", addr, "direction", s.direction)
}
