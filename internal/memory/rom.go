package memory

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starritt/locus16/internal/bus"
)

const (
	romLow  int16 = -32768 // 0x8000
	romHigh int16 = -28672 // 0x9000
	romSize       = 4096
)

// ROM is the read-only, file-backed image device. Writes are silently
// discarded; uninitialised contents default to all-ones.
type ROM struct {
	bus.Base
	filename string
	image    [romSize]byte
}

// NewROM constructs an ROM device whose contents will be loaded from
// filename when Initialise is called.
func NewROM(filename string) *ROM {
	r := &ROM{filename: filename}
	for i := range r.image {
		r.image[i] = 0xFF
	}
	r.Base = bus.NewBase("ROM", romLow, romHigh, r)
	return r
}

// Initialise loads the ROM image from its backing file. A missing or
// oversized file is reported but does not prevent the emulator from
// starting with all-ones contents, matching the I/O error handling design
// ("reported through the peripheral's diagnostic channel... does not
// terminate the emulator").
func (r *ROM) Initialise() error {
	if r.filename == "" {
		return nil
	}
	data, err := os.ReadFile(r.filename)
	if err != nil {
		slog.Error("rom: could not load image", "file", r.filename, "error", err)
		return fmt.Errorf("loading ROM image %q: %w", r.filename, err)
	}
	if len(data) > romSize {
		return fmt.Errorf("ROM image %q is %d bytes, exceeds %d byte capacity", r.filename, len(data), romSize)
	}
	copy(r.image[:], data)
	return nil
}

func (r *ROM) GetByte(addr int16) byte {
	return r.image[uint16(addr)&0x0FFF]
}

func (r *ROM) SetByte(int16, byte) {} // read-only

func (r *ROM) GetWord(addr int16) int16 {
	off := uint16(addr) & 0x0FFF
	return int16(uint16(r.image[off])<<8 | uint16(r.image[off+1]))
}

func (r *ROM) SetWord(int16, int16) {} // read-only
