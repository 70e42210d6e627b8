// Package mapper implements the Locus 16 memory mapper (C2): it presents
// the 16-bit logical addresses of the paged RAM window as indices into a
// larger physical byte array, with per-active-identity remapping of the
// 0x2000-0x5FFF window.
package mapper

import (
	"log/slog"
	"os"

	"github.com/starritt/locus16/internal/bus"
)

const (
	registerLow  int16 = 0x7B00
	registerHigh int16 = 0x7B10

	// PageSize is the size in bytes of one physical RAM page.
	PageSize = 4096
	// FixedPageCount is the number of logical nibbles with a fixed,
	// identity-independent physical page.
	FixedPageCount = 10
	// BanksPerNibble is the number of selectable banks for each of the
	// four dynamically-mapped nibbles.
	BanksPerNibble = 16
	// DynamicNibbleCount is the number of logical nibbles whose physical
	// page is chosen per active identity (0x2..0x5).
	DynamicNibbleCount = 4
	// TotalPages is the physical page count: 10 fixed + 4*16 dynamic.
	TotalPages = FixedPageCount + DynamicNibbleCount*BanksPerNibble
	// TotalSize is the physical RAM size in bytes: 74 * 4096 = 303104.
	TotalSize = TotalPages * PageSize
	// MaxIdentities is the number of independent page tables the mapper
	// keeps, one per active device.
	MaxIdentities = 8
)

// fixedNibbleOrder lists, in the order they are assigned physical pages
// 0..9, the logical address nibbles whose mapping never changes. The
// ordering follows the logical address sequence of the paged RAM window
// (0x9000 ascending, wrapping through 0x0000, skipping the dynamically
// mapped 0x2-0x5 nibbles): 9,A,B,C,D,E,F,0,1,6.
var fixedNibbleOrder = [FixedPageCount]uint16{0x9, 0xA, 0xB, 0xC, 0xD, 0xE, 0xF, 0x0, 0x1, 0x6}

func fixedPageFor(nibble uint16) (page int, ok bool) {
	for i, n := range fixedNibbleOrder {
		if n == nibble {
			return i, true
		}
	}
	return 0, false
}

// AbortFunc is called when a guest access targets an unmapped nibble (the ROM
// or device window, reached here only by mapper misuse). Per the error
// handling design, the mapper is the only component authorised to
// terminate the process; tests substitute a non-fatal stand-in.
type AbortFunc func(reason string)

// Mapper is a passive bus.Device occupying the map-register window,
// [0x7B00,0x7B10), and also the translation service consulted by the RAM
// device.
type Mapper struct {
	bus.Base

	mapValues [MaxIdentities]uint16
	// pages[id][j] is the physical page index for dynamic nibble j
	// (j=0 -> logical nibble 0x2, ... j=3 -> logical nibble 0x5) under
	// active identity id.
	pages          [MaxIdentities][DynamicNibbleCount]int
	activeIdentity int
	phys           [TotalSize]byte
	abort          AbortFunc
}

// New constructs a mapper. abort defaults to a fatal log+os.Exit if nil is
// passed; tests pass their own non-fatal AbortFunc instead.
func New(abort AbortFunc) *Mapper {
	m := &Mapper{abort: abort}
	m.Base = bus.NewBase("MemoryController", registerLow, registerHigh, m)
	if m.abort == nil {
		m.abort = func(reason string) {
			slog.Error("mapper abort", "reason", reason)
			os.Exit(1)
		}
	}
	return m
}

// SetActiveIdentity selects which identity's page table subsequent RAM
// accesses are translated through. Out-of-range ids clamp to 0 with a
// diagnostic, per the mapper's contract.
func (m *Mapper) SetActiveIdentity(id int) {
	if id < 0 || id >= MaxIdentities {
		slog.Warn("mapper: active identity out of range, clamping to 0", "id", id)
		id = 0
	}
	m.activeIdentity = id
}

// GetWord reads back the map word most recently written to a slot.
func (m *Mapper) GetWord(addr int16) int16 {
	slot := (addr - registerLow) / 2
	if slot < 0 || int(slot) >= MaxIdentities {
		return bus.AllOnes
	}
	return int16(m.mapValues[slot])
}

// SetWord writes a map word and immediately recomputes the four mapped
// page offsets it controls.
func (m *Mapper) SetWord(addr int16, value int16) {
	slot := (addr - registerLow) / 2
	if slot < 0 || int(slot) >= MaxIdentities {
		return
	}
	word := uint16(value)
	m.mapValues[slot] = word
	for j := 0; j < DynamicNibbleCount; j++ {
		shift := uint(12 - 4*j)
		bank := int((word >> shift) & 0xF)
		m.pages[slot][j] = FixedPageCount + DynamicNibbleCount*bank + j
	}
}

// mapAddress consults the current identity's table and returns the
// physical byte offset for a logical address in the paged RAM window.
func (m *Mapper) mapAddress(addr int16) (int, bool) {
	nibble := (uint16(addr) >> 12) & 0xF
	if nibble == 0x8 || nibble == 0x7 {
		return 0, false
	}
	offset := int(uint16(addr) & 0x0FFF)
	if page, ok := fixedPageFor(nibble); ok {
		return page*PageSize + offset, true
	}
	j := int(nibble) - 0x2
	page := m.pages[m.activeIdentity][j]
	return page*PageSize + offset, true
}

// Translate exposes mapAddress to the RAM device; a false second return
// means the nibble is unmapped and the caller must abort.
func (m *Mapper) Translate(addr int16) (int, bool) {
	idx, ok := m.mapAddress(addr)
	if !ok {
		m.abort(badNibbleMessage(addr))
	}
	return idx, ok
}

// Phys exposes the physical backing array for direct byte access by the
// RAM device.
func (m *Mapper) Phys() *[TotalSize]byte { return &m.phys }

func badNibbleMessage(addr int16) string {
	return "unmapped nibble access at " + hexAddr(addr)
}

func hexAddr(addr int16) string {
	const digits = "0123456789ABCDEF"
	u := uint16(addr)
	out := [4]byte{digits[(u>>12)&0xF], digits[(u>>8)&0xF], digits[(u>>4)&0xF], digits[u&0xF]}
	return "0x" + string(out[:])
}
