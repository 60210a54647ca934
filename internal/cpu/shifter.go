package cpu

// shiftResult carries a barrel-shifter output and the carry bit it produced,
// the latter only meaningful when the instruction's S bit requests a flag
// update, per spec.md §4.4.
type shiftResult struct {
	value    uint32
	carryOut bool
}

// barrelShift applies one of the four ARM shift types to value, by amount.
// immediate reports whether amount came from a 5-bit immediate field (true)
// or the bottom byte of a register (false) — the two have different #0 and
// large-amount edge cases. carryIn is the current CPSR carry flag, needed
// when amount is zero.
func barrelShift(kind ARMShiftType, value uint32, amount uint8, immediate bool, carryIn bool) shiftResult {
	switch kind {
	case LSL:
		return shiftLSL(value, amount, immediate, carryIn)
	case LSR:
		return shiftLSR(value, amount, immediate, carryIn)
	case ASR:
		return shiftASR(value, amount, immediate, carryIn)
	case ROR:
		return shiftROR(value, amount, immediate, carryIn)
	}
	return shiftResult{value: value, carryOut: carryIn}
}

func shiftLSL(value uint32, amount uint8, immediate bool, carryIn bool) shiftResult {
	if immediate && amount == 0 {
		return shiftResult{value: value, carryOut: carryIn}
	}
	if amount == 0 {
		return shiftResult{value: value, carryOut: carryIn}
	}
	if amount >= 32 {
		if amount == 32 {
			return shiftResult{value: 0, carryOut: value&1 != 0}
		}
		return shiftResult{value: 0, carryOut: false}
	}
	carryOut := (value>>(32-amount))&1 != 0
	return shiftResult{value: value << amount, carryOut: carryOut}
}

func shiftLSR(value uint32, amount uint8, immediate bool, carryIn bool) shiftResult {
	// LSR #0 is encoded as LSR #32 for immediate shifts.
	if immediate && amount == 0 {
		amount = 32
	}
	if amount == 0 {
		return shiftResult{value: value, carryOut: carryIn}
	}
	if amount >= 32 {
		if amount == 32 {
			return shiftResult{value: 0, carryOut: value&0x80000000 != 0}
		}
		return shiftResult{value: 0, carryOut: false}
	}
	carryOut := (value>>(amount-1))&1 != 0
	return shiftResult{value: value >> amount, carryOut: carryOut}
}

func shiftASR(value uint32, amount uint8, immediate bool, carryIn bool) shiftResult {
	if immediate && amount == 0 {
		amount = 32
	}
	if amount == 0 {
		return shiftResult{value: value, carryOut: carryIn}
	}
	signed := int32(value)
	if amount >= 32 {
		if signed < 0 {
			return shiftResult{value: 0xFFFFFFFF, carryOut: true}
		}
		return shiftResult{value: 0, carryOut: false}
	}
	carryOut := (value>>(amount-1))&1 != 0
	return shiftResult{value: uint32(signed >> amount), carryOut: carryOut}
}

func shiftROR(value uint32, amount uint8, immediate bool, carryIn bool) shiftResult {
	if amount == 0 {
		if immediate {
			// ROR #0 is encoded as RRX: rotate right through carry by one bit.
			result := value>>1 | boolToBit(carryIn)<<31
			return shiftResult{value: result, carryOut: value&1 != 0}
		}
		return shiftResult{value: value, carryOut: carryIn}
	}
	amount &= 31
	if amount == 0 {
		return shiftResult{value: value, carryOut: value&0x80000000 != 0}
	}
	result := value>>amount | value<<(32-amount)
	carryOut := (value>>(amount-1))&1 != 0
	return shiftResult{value: result, carryOut: carryOut}
}

func boolToBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
