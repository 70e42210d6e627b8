// Package bus implements the Locus 16 address bus: range-based dispatch of
// word and byte accesses to the devices plugged into it.
package bus

import "fmt"

// AllOnes is the sentinel value returned for an access that hits no
// registered device, and the uninitialised-memory fill value for ROM.
const AllOnes int16 = -1

// MaxDevices bounds how many devices a single bus may carry.
const MaxDevices = 20

// Device is the capability every bus participant implements. Byte access
// has a sensible default (big-endian half of the enclosing word); RAM and
// ROM override it because they back raw bytes directly.
type Device interface {
	Name() string
	Range() (low, high int16) // half-open: [low, high)
	GetWord(addr int16) int16
	SetWord(addr int16, value int16)
	GetByte(addr int16) byte
	SetByte(addr int16, value byte)
	// Initialise loads any backing data (ROM image, etc). Most devices
	// have nothing to do here.
	Initialise() error
	// ActiveIdentity returns the mapper slot this device executes under,
	// or -1 for devices that are not active (don't own execution time).
	ActiveIdentity() int
}

// ActiveDevice is a Device that owns execution time and is driven by the
// scheduler.
type ActiveDevice interface {
	Device
	Execute() bool
}

// Base provides the common bookkeeping (name, range, default byte-via-word
// access) that every passive device embeds rather than reimplements.
type Base struct {
	name         string
	low, high    int16
	wordAccessor WordAccessor
}

// WordAccessor lets Base's default byte implementation call back into the
// embedding device's own GetWord/SetWord without Go interface inheritance.
type WordAccessor interface {
	GetWord(addr int16) int16
	SetWord(addr int16, value int16)
}

// NewBase wires up the common fields. The embedding device passes itself as
// the WordAccessor so GetByte/SetByte can reach its overridden word access.
func NewBase(name string, low, high int16, accessor WordAccessor) Base {
	return Base{name: name, low: low, high: high, wordAccessor: accessor}
}

func (b Base) Name() string            { return b.name }
func (b Base) Range() (int16, int16)   { return b.low, b.high }
func (b Base) Initialise() error       { return nil }
func (b Base) ActiveIdentity() int     { return -1 }

// GetByte returns the big-endian half of the word at addr&^1: the even
// address holds the high byte, the odd address the low byte.
func (b Base) GetByte(addr int16) byte {
	word := b.wordAccessor.GetWord(addr &^ 1)
	if addr&1 == 0 {
		return byte(uint16(word) >> 8)
	}
	return byte(uint16(word))
}

// SetByte rewrites the addressed half of the enclosing word, leaving the
// other half untouched.
func (b Base) SetByte(addr int16, value byte) {
	base := addr &^ 1
	word := uint16(b.wordAccessor.GetWord(base))
	if addr&1 == 0 {
		word = (word & 0x00FF) | (uint16(value) << 8)
	} else {
		word = (word & 0xFF00) | uint16(value)
	}
	b.wordAccessor.SetWord(base, int16(word))
}

// nullDevice absorbs any address not claimed by a registered device: reads
// yield AllOnes, writes are discarded.
type nullDevice struct{}

func (nullDevice) Name() string                 { return "null" }
func (nullDevice) Range() (int16, int16)        { return 0, 0 }
func (nullDevice) GetWord(int16) int16          { return AllOnes }
func (nullDevice) SetWord(int16, int16)         {}
func (nullDevice) GetByte(int16) byte           { return 0xFF }
func (nullDevice) SetByte(int16, byte)          {}
func (nullDevice) Initialise() error            { return nil }
func (nullDevice) ActiveIdentity() int          { return -1 }

var null Device = nullDevice{}

// overlaps reports whether two half-open ranges share any address. Ranges
// are measured modulo 2^16, so a range ending at 0x8000 has high == -32768.
func overlaps(lowA, highA, lowB, highB int16) bool {
	sizeA, sizeB := uint16(highA-lowA), uint16(highB-lowB)
	if sizeA == 0 || sizeB == 0 {
		return false
	}
	return uint16(lowB-lowA) < sizeA || uint16(lowA-lowB) < sizeB
}

// DuplicateRangeError is returned by Register when a device's range
// overlaps one already registered.
type DuplicateRangeError struct {
	New, Existing Device
}

func (e *DuplicateRangeError) Error() string {
	nl, nh := e.New.Range()
	el, eh := e.Existing.Range()
	return fmt.Sprintf("device %q range [%04X,%04X) overlaps %q range [%04X,%04X)",
		e.New.Name(), uint16(nl), uint16(nh), e.Existing.Name(), uint16(el), uint16(eh))
}

// CapacityError is returned by Register once MaxDevices devices are
// registered.
type CapacityError struct{}

func (CapacityError) Error() string {
	return fmt.Sprintf("bus already carries the maximum of %d devices", MaxDevices)
}
