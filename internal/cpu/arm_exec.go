package cpu

import "GoBA/util/dbg"

// executeArm checks the condition code and dispatches a 32-bit ARM opcode
// to its exec_X handler.
func (c *CPU) executeArm(instruction uint32) {
	cond := uint32(instruction>>28) & 0xF
	if !c.checkCondition_Arm(cond) {
		return
	}

	switch inst := DecodeInstruction_Arm(instruction).(type) {
	case ARMDataProcessingInstruction:
		c.execArm_DataProcessing(inst)
	case ARMMultiplyInstruction:
		c.execArm_Multiply(inst)
	case ARMMultiplyLongInstruction:
		c.execArm_MultiplyLong(inst)
	case ARMSingleDataSwapInstruction:
		c.execArm_Swap(inst)
	case ARMBranchExchangeInstruction:
		c.execArm_BranchExchange(inst)
	case ARMHalfwordTransferInstruction:
		c.execArm_HalfwordTransfer(inst)
	case ARMPSRTransferInstruction:
		c.execArm_PSRTransfer(inst)
	case ARMLoadStoreInstruction:
		c.execArm_LoadStore(inst)
	case ARMBlockDataTransferInstruction:
		c.execArm_BlockDataTransfer(inst)
	case ARMBranchInstruction:
		c.execArm_Branch(inst)
	case ARMSWIInstruction:
		c.RaiseSWI()
	case ARMUndefinedInstruction:
		c.RaiseUndefined()
	default:
		dbg.Printf("cpu: unhandled ARM decode result %T at PC=%08X\n", inst, c.reg.GetPC()-4)
		c.RaiseUndefined()
	}
}

func (c *CPU) checkCondition_Arm(cond uint32) bool {
	n, z, cf, v := c.reg.GetFlagN(), c.reg.GetFlagZ(), c.reg.GetFlagC(), c.reg.GetFlagV()
	switch ARMCondition(cond) {
	case EQ:
		return z
	case NE:
		return !z
	case CS:
		return cf
	case CC:
		return !cf
	case MI:
		return n
	case PL:
		return !n
	case VS:
		return v
	case VC:
		return !v
	case HI:
		return cf && !z
	case LS:
		return !cf || z
	case GE:
		return n == v
	case LT:
		return n != v
	case GT:
		return !z && n == v
	case LE:
		return z || n != v
	case AL:
		return true
	case NV:
		return false
	}
	return false
}

// operand2 resolves a data-processing instruction's second operand and the
// shifter carry-out, per spec.md §4.4.
func (c *CPU) operand2(inst ARMDataProcessingInstruction) (uint32, bool) {
	carryIn := c.reg.GetFlagC()
	if inst.I {
		rot := uint8(inst.Is) * 2
		r := barrelShift(ROR, uint32(inst.Nn), rot, true, carryIn)
		if rot == 0 {
			return uint32(inst.Nn), carryIn
		}
		return r.value, r.carryOut
	}
	rm := c.readRegForShift(inst.Rm)
	var amount uint8
	if inst.R {
		amount = uint8(c.reg.GetReg(inst.Rs))
		if amount == 0 {
			return rm, carryIn
		}
	} else {
		amount = inst.Is
	}
	r := barrelShift(inst.ShiftType, rm, amount, !inst.R, carryIn)
	return r.value, r.carryOut
}

// readRegForShift reads Rm/Rn with the ARM PC-read-ahead quirk: reading R15
// mid-instruction yields PC+8 (two instructions ahead) in ARM state.
func (c *CPU) readRegForShift(n uint8) uint32 {
	if n == 15 {
		return c.reg.GetPC() + 4
	}
	return c.reg.GetReg(n)
}

func (c *CPU) execArm_DataProcessing(inst ARMDataProcessingInstruction) {
	rn := c.readRegForShift(inst.Rn)
	op2, shiftCarry := c.operand2(inst)

	var result uint32
	var writesResult = true
	var carryOut = shiftCarry
	var overflow = c.reg.GetFlagV()

	switch inst.Opcode {
	case AND:
		result = rn & op2
	case EOR:
		result = rn ^ op2
	case SUB:
		result, carryOut, overflow = subWithFlags(rn, op2)
	case RSB:
		result, carryOut, overflow = subWithFlags(op2, rn)
	case ADD:
		result, carryOut, overflow = addWithFlags(rn, op2)
	case ADC:
		result, carryOut, overflow = adcWithFlags(rn, op2, c.reg.GetFlagC())
	case SBC:
		result, carryOut, overflow = sbcWithFlags(rn, op2, c.reg.GetFlagC())
	case RSC:
		result, carryOut, overflow = sbcWithFlags(op2, rn, c.reg.GetFlagC())
	case TST:
		result = rn & op2
		writesResult = false
	case TEQ:
		result = rn ^ op2
		writesResult = false
	case CMP:
		result, carryOut, overflow = subWithFlags(rn, op2)
		writesResult = false
	case CMN:
		result, carryOut, overflow = addWithFlags(rn, op2)
		writesResult = false
	case ORR:
		result = rn | op2
	case MOV:
		result = op2
	case BIC:
		result = rn &^ op2
	case MVN:
		result = ^op2
	}

	if writesResult {
		c.setReg15Aware(inst.Rd, result)
	}

	if inst.S {
		if inst.Rd == 15 && writesResult {
			// MOVS/ADDS/etc. with Rd=R15 restores CPSR from SPSR: exception return idiom.
			c.reg.LoadSPSRToCPSR()
			return
		}
		c.reg.SetFlagN(result&0x80000000 != 0)
		c.reg.SetFlagZ(result == 0)
		c.reg.SetFlagC(carryOut)
		switch inst.Opcode {
		case AND, EOR, TST, TEQ, ORR, MOV, BIC, MVN:
			// logical ops: V unaffected, C comes from the shifter.
		default:
			c.reg.SetFlagV(overflow)
		}
	}
}

// setReg15Aware writes Rd, triggering a pipeline flush if Rd is R15.
func (c *CPU) setReg15Aware(rd uint8, value uint32) {
	if rd == 15 {
		c.branchTo(value)
		return
	}
	c.reg.SetReg(rd, value)
}

func addWithFlags(a, b uint32) (result uint32, carry bool, overflow bool) {
	sum := uint64(a) + uint64(b)
	result = uint32(sum)
	carry = sum > 0xFFFFFFFF
	overflow = (a^result)&(b^result)&0x80000000 != 0
	return
}

func adcWithFlags(a, b uint32, carryIn bool) (result uint32, carry bool, overflow bool) {
	sum := uint64(a) + uint64(b) + uint64(boolToBit(carryIn))
	result = uint32(sum)
	carry = sum > 0xFFFFFFFF
	overflow = (a^result)&(b^result)&0x80000000 != 0
	return
}

func subWithFlags(a, b uint32) (result uint32, carry bool, overflow bool) {
	diff := uint64(a) - uint64(b)
	result = uint32(diff)
	carry = a >= b // ARM borrow convention: C=1 means no borrow
	overflow = (a^b)&(a^result)&0x80000000 != 0
	return
}

func sbcWithFlags(a, b uint32, carryIn bool) (result uint32, carry bool, overflow bool) {
	borrow := uint64(1)
	if carryIn {
		borrow = 0
	}
	diff := uint64(a) - uint64(b) - borrow
	result = uint32(diff)
	carry = uint64(a) >= uint64(b)+borrow
	overflow = (a^b)&(a^result)&0x80000000 != 0
	return
}

func (c *CPU) execArm_Multiply(inst ARMMultiplyInstruction) {
	rm := c.reg.GetReg(inst.Rm)
	rs := c.reg.GetReg(inst.Rs)
	result := rm * rs
	if inst.A {
		result += c.reg.GetReg(inst.Rn)
	}
	c.reg.SetReg(inst.Rd, result)
	if inst.S {
		c.reg.SetFlagN(result&0x80000000 != 0)
		c.reg.SetFlagZ(result == 0)
	}
}

func (c *CPU) execArm_MultiplyLong(inst ARMMultiplyLongInstruction) {
	rm := c.reg.GetReg(inst.Rm)
	rs := c.reg.GetReg(inst.Rs)
	var result uint64
	if inst.Signed {
		result = uint64(int64(int32(rm)) * int64(int32(rs)))
	} else {
		result = uint64(rm) * uint64(rs)
	}
	if inst.A {
		acc := uint64(c.reg.GetReg(inst.RdHi))<<32 | uint64(c.reg.GetReg(inst.RdLo))
		result += acc
	}
	lo := uint32(result)
	hi := uint32(result >> 32)
	c.reg.SetReg(inst.RdLo, lo)
	c.reg.SetReg(inst.RdHi, hi)
	if inst.S {
		c.reg.SetFlagN(hi&0x80000000 != 0)
		c.reg.SetFlagZ(result == 0)
	}
}

func (c *CPU) execArm_Swap(inst ARMSingleDataSwapInstruction) {
	addr := c.reg.GetReg(inst.Rn)
	if inst.B {
		old := c.busRead8(addr)
		c.busWrite8(addr, uint8(c.reg.GetReg(inst.Rm)))
		c.reg.SetReg(inst.Rd, uint32(old))
	} else {
		old := c.busRead32(addr)
		c.busWrite32(addr, c.reg.GetReg(inst.Rm))
		c.reg.SetReg(inst.Rd, old)
	}
}

func (c *CPU) execArm_BranchExchange(inst ARMBranchExchangeInstruction) {
	target := c.reg.GetReg(inst.Rm)
	if inst.Link {
		c.reg.SetReg(14, c.reg.GetPC())
	}
	c.reg.SetThumbState(target&1 != 0)
	c.branchTo(target)
}

func (c *CPU) execArm_HalfwordTransfer(inst ARMHalfwordTransferInstruction) {
	base := c.reg.GetReg(inst.Rn)
	var offset uint32
	if inst.Immediate {
		offset = uint32(inst.Offset)
	} else {
		offset = c.reg.GetReg(inst.Offset)
	}
	addr := base
	if inst.P {
		if inst.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if inst.L {
		var value uint32
		switch {
		case !inst.S && inst.H:
			value = uint32(c.busRead16(addr))
		case inst.S && !inst.H:
			value = uint32(int32(int8(c.busRead8(addr))))
		case inst.S && inst.H:
			value = uint32(int32(int16(c.busRead16(addr))))
		default:
			value = uint32(c.busRead16(addr))
		}
		c.setReg15Aware(inst.Rd, value)
	} else {
		c.busWrite16(addr, uint16(c.reg.GetReg(inst.Rd)))
	}

	if !inst.P {
		if inst.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.reg.SetReg(inst.Rn, addr)
	} else if inst.W {
		c.reg.SetReg(inst.Rn, addr)
	}
}

func (c *CPU) execArm_PSRTransfer(inst ARMPSRTransferInstruction) {
	if inst.IsMRS {
		if inst.ToSPSR {
			c.reg.SetReg(inst.Rd, c.reg.GetSPSR())
		} else {
			c.reg.SetReg(inst.Rd, c.reg.GetCPSR())
		}
		return
	}

	var operand uint32
	if inst.Immediate {
		operand = inst.ImmValue
	} else {
		operand = c.reg.GetReg(inst.Rm)
	}

	var mask uint32
	if inst.FieldMask&0x1 != 0 {
		mask |= 0x000000FF // control field (c) — privileged mode only, allowed here
	}
	if inst.FieldMask&0x2 != 0 {
		mask |= 0x0000FF00 // extension (x)
	}
	if inst.FieldMask&0x4 != 0 {
		mask |= 0x00FF0000 // status (s)
	}
	if inst.FieldMask&0x8 != 0 {
		mask |= 0xFF000000 // flags (f)
	}

	if inst.ToSPSR {
		cur := c.reg.GetSPSR()
		c.reg.SetSPSR((cur &^ mask) | (operand & mask))
		return
	}
	cur := c.reg.GetCPSR()
	// Writes to the mode/control bits are only meaningful in a privileged
	// mode; the GBA never runs User code that needs this guarded further.
	c.reg.SetCPSR((cur &^ mask) | (operand & mask))
}

func (c *CPU) execArm_LoadStore(inst ARMLoadStoreInstruction) {
	base := c.reg.GetReg(inst.Rn)
	offset := c.resolveLoadStoreOffset(inst)
	addr := base
	if inst.P {
		if inst.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if inst.L {
		var value uint32
		if inst.B {
			value = uint32(c.busRead8(addr))
		} else {
			raw := c.busRead32(addr)
			rot := (addr & 0x3) * 8
			value = raw>>rot | raw<<(32-rot)
		}
		c.setReg15Aware(inst.Rd, value)
	} else {
		v := c.reg.GetReg(inst.Rd)
		if inst.Rd == 15 {
			v += 4 // store of PC includes the pipeline's extra word
		}
		if inst.B {
			c.busWrite8(addr, uint8(v))
		} else {
			c.busWrite32(addr, v)
		}
	}

	if !inst.P {
		if inst.U {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.reg.SetReg(inst.Rn, addr)
	} else if inst.W {
		c.reg.SetReg(inst.Rn, addr)
	}
}

func (c *CPU) resolveLoadStoreOffset(inst ARMLoadStoreInstruction) uint32 {
	if !inst.isRegOffset {
		return inst.Offset
	}
	rm := c.reg.GetReg(uint8(inst.Offset & 0xF))
	shiftType := ARMShiftType((inst.Offset >> 5) & 0x3)
	amount := uint8((inst.Offset >> 7) & 0x1F)
	r := barrelShift(shiftType, rm, amount, true, c.reg.GetFlagC())
	return r.value
}

func (c *CPU) execArm_BlockDataTransfer(inst ARMBlockDataTransferInstruction) {
	base := c.reg.GetReg(inst.Rn)
	addr := base

	count := 0
	for r := 0; r < 16; r++ {
		if inst.RegisterList&(1<<uint(r)) != 0 {
			count++
		}
	}
	list := inst.RegisterList
	if count == 0 {
		list = 1 << 15 // empty register list: PC-only transfer, base moves by 0x40
		count = 16
	}

	// Pre-decrement transfers walk the list in reverse address order; to
	// keep iteration simple, compute the starting address directly.
	start := base
	if !inst.U {
		start = base - uint32(count)*4
	}
	if inst.P == inst.U {
		start += 4
	}
	addr = start

	userBankTransfer := inst.S && !(inst.L && list&(1<<15) != 0)

	for r := 0; r < 16; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		if inst.L {
			value := c.busRead32(addr)
			if userBankTransfer && r >= 8 && r <= 14 {
				c.setUserModeReg(uint8(r), value)
			} else {
				c.setReg15Aware(uint8(r), value)
			}
		} else {
			var value uint32
			if userBankTransfer && r >= 8 && r <= 14 {
				value = c.userModeReg(uint8(r))
			} else {
				value = c.reg.GetReg(uint8(r))
			}
			if r == 15 {
				value += 4
			}
			c.busWrite32(addr, value)
		}
		addr += 4
	}

	if inst.L && list&(1<<15) != 0 && inst.S {
		c.reg.LoadSPSRToCPSR()
	}

	if inst.W {
		if inst.U {
			c.reg.SetReg(inst.Rn, base+uint32(count)*4)
		} else {
			c.reg.SetReg(inst.Rn, base-uint32(count)*4)
		}
	}
}

// userModeReg/setUserModeReg access R8-R14 as they appear in User mode,
// used by LDM/STM's S-bit "user bank transfer" variant even when executed
// from a privileged mode.
func (c *CPU) userModeReg(n uint8) uint32 {
	saved := c.reg.GetMode()
	c.reg.SetMode(USRMode)
	v := c.reg.GetReg(n)
	c.reg.SetMode(saved)
	return v
}

func (c *CPU) setUserModeReg(n uint8, v uint32) {
	saved := c.reg.GetMode()
	c.reg.SetMode(USRMode)
	c.reg.SetReg(n, v)
	c.reg.SetMode(saved)
}

func (c *CPU) execArm_Branch(inst ARMBranchInstruction) {
	pc := c.reg.GetPC()
	target := pc + 4 + inst.TargetAddr
	if inst.Link {
		c.reg.SetReg(14, pc)
	}
	c.branchTo(target)
}
