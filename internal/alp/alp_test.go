package alp_test

import (
	"testing"

	"github.com/starritt/locus16/internal/alp"
	"github.com/starritt/locus16/internal/bus"
)

// flatMemory is a minimal word-addressed bus.Device used only to host a
// small test program; it has none of the mapper/paging behaviour RAM has.
type flatMemory struct {
	bus.Base
	words map[int16]int16
}

func newFlatMemory(low, high int16) *flatMemory {
	m := &flatMemory{words: make(map[int16]int16)}
	m.Base = bus.NewBase("flatMemory", low, high, m)
	return m
}

func (m *flatMemory) GetWord(addr int16) int16    { return m.words[addr] }
func (m *flatMemory) SetWord(addr int16, v int16) { m.words[addr] = v }

// word reinterprets an instruction written as unsigned hex as the signed
// 16-bit value memory holds.
func word(u uint16) int16 { return int16(u) }

func newTestALP(t *testing.T) (*alp.ALP, *bus.Bus, *flatMemory) {
	t.Helper()
	b := bus.New()
	mem := newFlatMemory(0x0000, 0x1000)
	if err := b.Register(mem); err != nil {
		t.Fatalf("register flatMemory: %v", err)
	}
	a := alp.New(b, 1)
	if err := b.Register(a); err != nil {
		t.Fatalf("register alp: %v", err)
	}
	return a, b, mem
}

// registerAddr computes the memory-mapped address of a level's register,
// mirroring the primary ALP's 16-byte-per-level register window. reg 0 is
// the status word slot (meaningful only at level 0) and reg 7 is reserved.
func registerAddr(level, reg int) int16 {
	return 0x7F00 + int16(level*16+reg*2)
}

const (
	regStatus = 0
	regP      = 1
	regA      = 2
	regR      = 3
	regS      = 4
	regT      = 5
	regFlags  = 6
	regUnused = 7
)

func TestLiteralLoadAndAdd(t *testing.T) {
	a, _, mem := newTestALP(t)
	a.SetWord(registerAddr(0, regP), 0x0100)

	mem.words[0x0100] = word(0xE005) // SET A, #5
	mem.words[0x0102] = word(0xE103) // ADD A, #3

	if ok := a.Execute(); !ok {
		t.Fatal("SET A,#5 reported a decode failure")
	}
	if got := a.GetWord(registerAddr(0, regA)); got != 5 {
		t.Fatalf("A after SET #5 = %d, want 5", got)
	}
	if ok := a.Execute(); !ok {
		t.Fatal("ADD A,#3 reported a decode failure")
	}
	if got := a.GetWord(registerAddr(0, regA)); got != 8 {
		t.Fatalf("A after ADD #3 = %d, want 8", got)
	}
}

func TestUnconditionalJump(t *testing.T) {
	a, _, mem := newTestALP(t)
	a.SetWord(registerAddr(0, regP), 0x0100)
	mem.words[0x0100] = word(0xC010) // J +0x10, indexed by P (post-increment)

	if ok := a.Execute(); !ok {
		t.Fatal("J reported a decode failure")
	}
	if got := a.GetWord(registerAddr(0, regP)); got != 0x0112 {
		t.Fatalf("P after jump = %04X, want 0112", uint16(got))
	}
}

func TestCoupledRotateCarriesThroughCarryFlag(t *testing.T) {
	a, _, mem := newTestALP(t)
	a.SetWord(registerAddr(0, regP), 0x0100)
	a.SetWord(registerAddr(0, regA), int16(-32767)) // 0x8001
	a.SetWord(registerAddr(0, regFlags), 1)          // C set, V clear, K clear
	mem.words[0x0100] = word(0xE740)                 // shift-A, left, logical, count=0 (coupled)

	if ok := a.Execute(); !ok {
		t.Fatal("coupled rotate reported a decode failure")
	}
	if got := a.GetWord(registerAddr(0, regA)); got != 3 {
		t.Fatalf("A after coupled left-rotate = %04X, want 0003", uint16(got))
	}
	if got := a.GetWord(registerAddr(0, regFlags)); got&1 == 0 {
		t.Fatal("carry should still be set: the bit rotated out was a 1")
	}
}

func TestUndefinedArithmeticCoupledShiftIsAFatalDecode(t *testing.T) {
	a, _, mem := newTestALP(t)
	a.SetWord(registerAddr(0, regP), 0x0100)
	mem.words[0x0100] = word(0xE750) // shift-A, left, arithmetic, count=0: undefined

	if ok := a.Execute(); ok {
		t.Fatal("count=0 with arithmetic mode must be reported as a decode failure")
	}
}

func TestRegisterWindowRoundTrip(t *testing.T) {
	a, _, _ := newTestALP(t)
	want := map[int]int16{regP: 0x1234, regA: 0x5678, regR: -1, regS: 42, regT: 7}
	for reg, v := range want {
		a.SetWord(registerAddr(2, reg), v)
	}
	for reg, v := range want {
		if got := a.GetWord(registerAddr(2, reg)); got != v {
			t.Fatalf("level 2 register %d round-tripped to %04X, want %04X", reg, uint16(got), uint16(v))
		}
	}
}

func TestStatusWordAndReservedSlotsReadAllOnes(t *testing.T) {
	a, _, _ := newTestALP(t)

	if got := a.GetWord(registerAddr(0, regStatus)); got != 0 {
		t.Fatalf("status word before any interrupt = %04X, want 0000", uint16(got))
	}
	a.RequestInterrupt()
	if got := a.GetWord(registerAddr(0, regStatus)); got != 0x10 {
		t.Fatalf("status word with interrupt pending at level 0 = %04X, want 0010", uint16(got))
	}

	// reg 0 at any level other than 0 is not the status word -- it is
	// reserved, and reserved slots read as all-ones regardless of level.
	for _, lv := range []int{1, 2, 3} {
		if got := a.GetWord(registerAddr(lv, regStatus)); got != bus.AllOnes {
			t.Fatalf("level %d reg 0 = %04X, want all-ones", lv, uint16(got))
		}
	}
	// reg 7 is reserved at every level, including level 0.
	for lv := 0; lv < a.NumberLevels(); lv++ {
		if got := a.GetWord(registerAddr(lv, regUnused)); got != bus.AllOnes {
			t.Fatalf("level %d reg 7 = %04X, want all-ones", lv, uint16(got))
		}
	}

	// Writes to the status word and reserved slots must not panic and must
	// not perturb the surrounding registers.
	a.SetWord(registerAddr(0, regStatus), 0x7777)
	a.SetWord(registerAddr(1, regUnused), 0x7777)
	if got := a.GetWord(registerAddr(0, regStatus)); got != 0x10 {
		t.Fatalf("status word after a write attempt = %04X, want unchanged 0010", uint16(got))
	}
}

func TestInterruptSwitchesOnlyFromLevelZero(t *testing.T) {
	a, _, mem := newTestALP(t)
	a.SetWord(registerAddr(0, regP), 0x0100)
	a.SetWord(registerAddr(1, regP), 0x0200)
	mem.words[0x0100] = word(0xFFFF) // NUL, harmless filler at level 0
	mem.words[0x0200] = word(0xFFFF) // NUL, harmless filler at level 1

	a.RequestInterrupt()
	if got := a.CurrentLevel(); got != 0 {
		t.Fatalf("level before Execute = %d, want 0", got)
	}
	a.Execute() // should take the interrupt before running the level-0 instruction
	if got := a.CurrentLevel(); got != 1 {
		t.Fatalf("level after interrupted Execute = %d, want 1", got)
	}

	// Once inside level 1, a fresh interrupt request must not re-trigger
	// another switch -- only level 0 can be interrupted.
	a.RequestInterrupt()
	a.Execute()
	if got := a.CurrentLevel(); got != 1 {
		t.Fatalf("level should remain 1 while already servicing an interrupt, got %d", got)
	}
}

func TestInterruptIsMaskedWhenLevelZeroSetsK(t *testing.T) {
	a, _, mem := newTestALP(t)
	a.SetWord(registerAddr(0, regP), 0x0100)
	a.SetWord(registerAddr(0, regFlags), 4) // K set
	mem.words[0x0100] = word(0xFFFF)        // NUL, harmless filler

	a.RequestInterrupt()
	a.Execute()
	if got := a.CurrentLevel(); got != 0 {
		t.Fatalf("level after masked interrupt = %d, want 0 (K masks entry)", got)
	}
}
