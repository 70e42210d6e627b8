package alp

import (
	"fmt"
	"log/slog"

	"github.com/starritt/locus16/internal/bus"
)

// addressFirst is the reset vector both primary and secondary ALPs start
// executing from: the base of ROM.
const addressFirst int16 = -32768 // 0x8000

const registerStride = 8 // words per level in the register window

// ALP is one Arithmetic/Logic Processor: a set of priority levels sharing
// one instruction set, registered on the bus as its own memory-mapped
// register window as well as being the active device the scheduler drives.
type ALP struct {
	bus.Base

	bus    *bus.Bus
	slot   int // 1 = primary (4 levels), 2 = secondary (2 levels)
	levels []Level
	level  int

	interruptRequested bool
}

// New constructs an ALP. slot 1 occupies [0x7F00,0x8000) with 4 levels;
// slot 2 occupies [0x7E00,0x7F00) with 2 levels (structural only -- the
// secondary ALP has no clock interrupt routed to it).
func New(b *bus.Bus, slot int) *ALP {
	var low int16
	numberLevels := 2
	if slot == 1 {
		low = 0x7F00
		numberLevels = 4
	} else {
		low = 0x7E00
	}
	a := &ALP{bus: b, slot: slot, levels: make([]Level, numberLevels), level: 0}
	a.levels[0].P = addressFirst
	a.Base = bus.NewBase(fmt.Sprintf("ALP%d", slot), low, low+0x100, a)
	return a
}

// RequestInterrupt raises the shared interrupt latch. It is consumed the
// next time Execute runs at level 0.
func (a *ALP) RequestInterrupt() { a.interruptRequested = true }

// CurrentLevel reports which priority level is executing.
func (a *ALP) CurrentLevel() int { return a.level }

// NumberLevels reports how many priority levels this ALP has (4 for
// primary, 2 for secondary).
func (a *ALP) NumberLevels() int { return len(a.levels) }

// RegisterAddr computes the memory-mapped address of one level's register,
// for callers (the debugger) that need to address a register without
// duplicating the window layout.
func (a *ALP) RegisterAddr(level, reg int) int16 {
	low, _ := a.Range()
	return low + int16(level*registerStride*2+reg*2)
}

// Execute runs exactly one instruction. It reports false on an
// unrecognised opcode, which the scheduler treats as a fatal decode error.
func (a *ALP) Execute() bool {
	if a.interruptRequested && a.level == 0 && !a.levels[0].K {
		a.level = 1
		a.interruptRequested = false
	}

	lvl := &a.levels[a.level]
	addr := lvl.P
	instr := a.bus.GetWord(addr)
	lvl.P = addr + 2

	msb := byte(uint16(instr) >> 8)
	lsb := byte(uint16(instr))
	return a.dispatch(lvl, addr, msb, lsb)
}

func (a *ALP) sign(msb byte) int16 {
	if msb&1 != 0 {
		return -1
	}
	return 1
}

// access reads the effective operand for a Y-addressed instruction: direct
// word/byte access through the index register plus a signed offset.
func (a *ALP) access(idx, wordOffset, byteOffset int16, isWord bool) int16 {
	if isWord {
		return a.bus.GetWord(idx + wordOffset)
	}
	return int16(a.bus.GetByte(idx + byteOffset))
}

func (a *ALP) dispatch(lvl *Level, addr int16, msb, lsb byte) bool {
	sign := a.sign(msb)
	isWord := lsb&1 == 0
	wordOffset := sign * int16(lsb)
	byteOffset := sign * int16(lsb>>1)
	jumpOffset := sign * int16(lsb&0xFE)

	idxSel32 := int(msb>>1) & 3      // full 2-bit index selector
	destSel32 := int(msb>>3) & 3     // full 2-bit destination selector (32-wide groups)
	destSelAR := int(msb>>3) & 1     // A/R-only destination selector (16-wide groups)

	switch {
	case msb < 0x20: // SET
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		if destSel32 == selTdest {
			lvl.setPlain(selTdest, v)
		} else {
			lvl.setX(destSel32, v)
		}
		return true

	case msb < 0x40: // STR -- store the destination register's value to memory
		idx := lvl.index(idxSel32)
		v := lvl.dest(destSel32)
		a.store(idx, wordOffset, byteOffset, isWord, v)
		return true

	case msb < 0x60: // ADD
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		lvl.addX(destSel32, v)
		return true

	case msb < 0x80: // CMP
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		lvl.cmpX(destSel32, v)
		return true

	case msb < 0x90: // SUB (A or R only)
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		lvl.subX(destSelAR, v)
		return true

	case msb < 0xA0: // AND
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		lvl.andX(destSelAR, v)
		return true

	case msb < 0xB0: // XOR
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		lvl.xorX(destSelAR, v)
		return true

	case msb < 0xC0: // OR
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		lvl.iorX(destSelAR, v)
		return true

	case msb < 0xC8: // J -- unconditional jump
		idx := lvl.index(idxSel32)
		a.jump(lvl, true, idx, jumpOffset, lsb&1 != 0)
		return true

	case msb < 0xD0: // JS -- jump to subroutine, link in S
		idx := lvl.index(idxSel32)
		returnAddr := addr + 2
		a.jump(lvl, true, idx, jumpOffset, lsb&1 != 0)
		lvl.S = returnAddr
		return true

	case msb >= 0xD0 && msb <= 0xD7: // conditional jumps, fixed index P
		return a.conditionalJump(lvl, msb, jumpOffset, lsb&1 != 0)

	case msb < 0xE0: // MLT (0xD8-0xDF)
		idx := lvl.index(idxSel32)
		v := a.access(idx, wordOffset, byteOffset, isWord)
		lvl.mlt(v)
		return true

	case msb <= 0xFF:
		return a.literal(lvl, msb, lsb)
	}

	slog.Warn("alp: unrecognised opcode", "msb", msb, "lsb", lsb)
	return false
}

func (a *ALP) store(idx, wordOffset, byteOffset int16, isWord bool, v int16) {
	if isWord {
		a.bus.SetWord(idx+wordOffset, v)
	} else {
		a.bus.SetByte(idx+byteOffset, byte(v))
	}
}

// jump updates P when condition holds: direct (idx+offset) or, when
// indirect is set, through one extra level of memory indirection.
func (a *ALP) jump(lvl *Level, condition bool, idx, offset int16, indirect bool) {
	if !condition {
		return
	}
	if indirect {
		lvl.P = a.bus.GetWord(idx + offset)
	} else {
		lvl.P = idx + offset
	}
}

// conditionalJump handles opcodes 0xD0-0xD7: the condition is selected by
// bits 1-2 of the opcode (the same field that is the index-register
// selector elsewhere, here repurposed since the index register is fixed to
// P), bit 0 remaining the general sign bit folded into offset already.
func (a *ALP) conditionalJump(lvl *Level, msb byte, offset int16, indirect bool) bool {
	var condition bool
	switch (msb >> 1) & 3 {
	case 0: // JLT: overflow (V) flag set
		condition = lvl.V
	case 1: // JGE: overflow (V) flag clear
		condition = !lvl.V
	case 2: // JEQ: carry (C) flag set
		condition = lvl.C
	case 3: // JNE: carry (C) flag clear
		condition = !lvl.C
	}
	a.jump(lvl, condition, lvl.P, offset, indirect)
	return true
}

// literal handles the 0xE0-0xFF literal-immediate block: seven arithmetic
// ops across A/R/S/T, each with its own register-shift/specials opcode.
func (a *ALP) literal(lvl *Level, msb, lsb byte) bool {
	base := msb &^ 0x07
	opIndex := int(msb - base)
	var dest int
	switch base {
	case 0xE0:
		dest = selA
	case 0xE8:
		dest = selRdest
	case 0xF0:
		dest = selSdest
	case 0xF8:
		dest = selTdest
	default:
		return false
	}

	if opIndex == 7 {
		if lsb&0xC0 == 0x40 {
			return lvl.shift(dest, lsb)
		}
		if dest == selTdest {
			return a.specials(lsb)
		}
		return false
	}

	operand := int16(lsb)
	switch opIndex {
	case 0: // SET
		if dest == selTdest {
			lvl.setPlain(dest, operand)
		} else {
			lvl.setX(dest, operand)
		}
	case 1:
		lvl.addX(dest, operand)
	case 2:
		lvl.subX(dest, operand)
	case 3:
		lvl.cmpX(dest, operand)
	case 4:
		lvl.andX(dest, operand)
	case 5:
		lvl.xorX(dest, operand)
	case 6:
		lvl.iorX(dest, operand)
	default:
		return false
	}
	return true
}

// specials are the reserved 0xFF,lsb forms that aren't a T shift:
// level/flag housekeeping instructions.
func (a *ALP) specials(lsb byte) bool {
	lvl := &a.levels[a.level]
	switch {
	case int(lsb) < a.NumberLevels(): // SETL -- set current level directly
		a.level = int(lsb)
		return true
	case lsb == 0x20: // CLRK
		lvl.K = false
		return true
	case lsb == 0x21: // SETK
		lvl.K = true
		return true
	case lsb == 0xFF: // NUL
		return true
	default:
		return false
	}
}

// register window: the ALP's own registers are exposed as memory so the
// debugger and interrupt glue can read/write them uniformly. Within a
// level's 8-word slice, reg 0 is the status word -- but only at level 0,
// where it reads (interruptRequested<<4)|currentLevel rather than any
// per-level register, and ignores writes. reg 0 at every other level and
// reg 7 at every level are reserved: they read as all-ones and ignore
// writes.
func (a *ALP) GetWord(addr int16) int16 {
	levelIdx, reg, ok := a.decodeRegisterAddr(addr)
	if !ok {
		return bus.AllOnes
	}
	if levelIdx == 0 && reg == 0 {
		var interrupt int16
		if a.interruptRequested {
			interrupt = 1
		}
		return interrupt<<4 | int16(a.level)
	}
	lvl := &a.levels[levelIdx]
	switch reg {
	case 1:
		return lvl.P
	case 2:
		return lvl.A
	case 3:
		return lvl.R
	case 4:
		return lvl.S
	case 5:
		return lvl.T
	case 6:
		return flagsWord(lvl)
	default:
		return bus.AllOnes
	}
}

func (a *ALP) SetWord(addr int16, value int16) {
	levelIdx, reg, ok := a.decodeRegisterAddr(addr)
	if !ok {
		return
	}
	if levelIdx == 0 && reg == 0 {
		return // writes to the status word are not meaningful
	}
	lvl := &a.levels[levelIdx]
	switch reg {
	case 1:
		lvl.P = value
	case 2:
		lvl.A = value
	case 3:
		lvl.R = value
	case 4:
		lvl.S = value
	case 5:
		lvl.T = value
	case 6:
		setFlagsWord(lvl, value)
	}
}

func (a *ALP) decodeRegisterAddr(addr int16) (levelIdx, reg int, ok bool) {
	low, _ := a.Range()
	off := int(addr-low) / 2
	levelIdx = off / registerStride
	reg = off % registerStride
	if levelIdx < 0 || levelIdx >= len(a.levels) {
		return 0, 0, false
	}
	return levelIdx, reg, true
}

func flagsWord(lvl *Level) int16 {
	var w int16
	if lvl.C {
		w |= 1
	}
	if lvl.V {
		w |= 2
	}
	if lvl.K {
		w |= 4
	}
	return w
}

func setFlagsWord(lvl *Level, w int16) {
	lvl.C = w&1 != 0
	lvl.V = w&2 != 0
	lvl.K = w&4 != 0
}
