package alp

// setX stores value in the destination register and derives C/V from the
// stored (already 16-bit) value: C when it is zero, V when it is negative.
// This is the flag behaviour shared by every "SET"-family opcode except a
// direct write to T, which bypasses flags entirely.
func (lvl *Level) setX(dest int, value int16) {
	lvl.setDest(dest, value)
	lvl.C = value == 0
	lvl.V = value < 0
}

// addX adds operand to the current value of dest, storing the truncated
// 16-bit result and deriving carry/overflow from the untruncated 32-bit
// intermediate, mirroring the bit-exact source this is ported from.
func (lvl *Level) addX(dest int, operand int16) {
	t := int32(lvl.dest(dest)) + int32(operand)
	lvl.setDest(dest, int16(t))
	lvl.C = (t>>16)&1 == 1
	lvl.V = t > 32767 || t < -32768
}

func (lvl *Level) subX(dest int, operand int16) {
	t := int32(lvl.dest(dest)) - int32(operand)
	lvl.setDest(dest, int16(t))
	lvl.C = (t>>16)&1 == 1
	lvl.V = t > 32767 || t < -32768
}

// cmpX compares without storing: C when equal, V when dest is less than
// operand.
func (lvl *Level) cmpX(dest int, operand int16) {
	r := lvl.dest(dest)
	lvl.C = r == operand
	lvl.V = r < operand
}

// Bitwise ops never touch the flags, regardless of destination register.
func (lvl *Level) andX(dest int, operand int16) { lvl.setDest(dest, lvl.dest(dest)&operand) }
func (lvl *Level) xorX(dest int, operand int16) { lvl.setDest(dest, lvl.dest(dest)^operand) }
func (lvl *Level) iorX(dest int, operand int16) { lvl.setDest(dest, lvl.dest(dest)|operand) }

// setPlain writes dest without touching flags -- the direct-to-T exception
// both the Y-addressed SETT_Y and the literal SETT opcodes share.
func (lvl *Level) setPlain(dest int, value int16) { lvl.setDest(dest, value) }

// mlt performs the double-width signed multiply A:R = 2 * (A * operand),
// truncated to a 32-bit intermediate exactly as the original's "long"
// arithmetic would have been on its reference platform.
func (lvl *Level) mlt(operand int16) {
	t := int64(lvl.A) * int64(operand) * 2
	t32 := int32(t)
	lvl.A = int16(t32 >> 16)
	lvl.R = int16(t32)
}
