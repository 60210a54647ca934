package cpu

import "GoBA/util/dbg"

// executeThumb dispatches a 16-bit THUMB opcode to its format handler, per
// spec.md §4.4's 19-format THUMB decode table.
func (c *CPU) executeThumb(instr uint16) {
	switch {
	case instr&0xF800 == 0x1800:
		c.thumbAddSub(instr)
	case instr&0xE000 == 0x0000:
		c.thumbMoveShifted(instr)
	case instr&0xE000 == 0x2000:
		c.thumbImmediate(instr)
	case instr&0xFC00 == 0x4000:
		c.thumbALU(instr)
	case instr&0xFC00 == 0x4400:
		c.thumbHiRegBX(instr)
	case instr&0xF800 == 0x4800:
		c.thumbPCRelativeLoad(instr)
	case instr&0xF200 == 0x5000:
		c.thumbLoadStoreRegOffset(instr)
	case instr&0xF200 == 0x5200:
		c.thumbLoadStoreSignExtended(instr)
	case instr&0xE000 == 0x6000:
		c.thumbLoadStoreImmOffset(instr)
	case instr&0xF000 == 0x8000:
		c.thumbLoadStoreHalfword(instr)
	case instr&0xF000 == 0x9000:
		c.thumbSPRelativeLoadStore(instr)
	case instr&0xF000 == 0xA000:
		c.thumbLoadAddress(instr)
	case instr&0xFF00 == 0xB000:
		c.thumbAddOffsetToSP(instr)
	case instr&0xF600 == 0xB400:
		c.thumbPushPop(instr)
	case instr&0xF000 == 0xC000:
		c.thumbMultipleLoadStore(instr)
	case instr&0xFF00 == 0xDF00:
		c.RaiseSWI()
	case instr&0xF000 == 0xD000:
		c.thumbConditionalBranch(instr)
	case instr&0xF800 == 0xE000:
		c.thumbUnconditionalBranch(instr)
	case instr&0xF000 == 0xF000:
		c.thumbLongBranchLink(instr)
	default:
		dbg.Printf("cpu: unhandled THUMB opcode %04X at PC=%08X\n", instr, c.reg.GetPC()-2)
		c.RaiseUndefined()
	}
}

// Format 1: LSL/LSR/ASR Rd, Rs, #imm5
func (c *CPU) thumbMoveShifted(instr uint16) {
	op := (instr >> 11) & 0x3
	amount := uint8((instr >> 6) & 0x1F)
	rs := uint8((instr >> 3) & 0x7)
	rd := uint8(instr & 0x7)

	value := c.reg.GetReg(rs)
	var kind ARMShiftType
	switch op {
	case 0:
		kind = LSL
	case 1:
		kind = LSR
	case 2:
		kind = ASR
	}
	r := barrelShift(kind, value, amount, true, c.reg.GetFlagC())
	c.reg.SetReg(rd, r.value)
	c.setLogicalFlags(r.value, r.carryOut)
}

// Format 2: ADD/SUB Rd, Rs, Rn/#imm3
func (c *CPU) thumbAddSub(instr uint16) {
	immediate := (instr>>10)&1 != 0
	subtract := (instr>>9)&1 != 0
	rnOrImm := uint8((instr >> 6) & 0x7)
	rs := uint8((instr >> 3) & 0x7)
	rd := uint8(instr & 0x7)

	a := c.reg.GetReg(rs)
	var b uint32
	if immediate {
		b = uint32(rnOrImm)
	} else {
		b = c.reg.GetReg(rnOrImm)
	}

	var result uint32
	var carry, overflow bool
	if subtract {
		result, carry, overflow = subWithFlags(a, b)
	} else {
		result, carry, overflow = addWithFlags(a, b)
	}
	c.reg.SetReg(rd, result)
	c.reg.SetFlagN(result&0x80000000 != 0)
	c.reg.SetFlagZ(result == 0)
	c.reg.SetFlagC(carry)
	c.reg.SetFlagV(overflow)
}

// Format 3: MOV/CMP/ADD/SUB Rd, #imm8
func (c *CPU) thumbImmediate(instr uint16) {
	op := (instr >> 11) & 0x3
	rd := uint8((instr >> 8) & 0x7)
	imm := uint32(instr & 0xFF)
	rdVal := c.reg.GetReg(rd)

	switch op {
	case 0: // MOV
		c.reg.SetReg(rd, imm)
		c.reg.SetFlagN(false)
		c.reg.SetFlagZ(imm == 0)
	case 1: // CMP
		result, carry, overflow := subWithFlags(rdVal, imm)
		c.reg.SetFlagN(result&0x80000000 != 0)
		c.reg.SetFlagZ(result == 0)
		c.reg.SetFlagC(carry)
		c.reg.SetFlagV(overflow)
	case 2: // ADD
		result, carry, overflow := addWithFlags(rdVal, imm)
		c.reg.SetReg(rd, result)
		c.reg.SetFlagN(result&0x80000000 != 0)
		c.reg.SetFlagZ(result == 0)
		c.reg.SetFlagC(carry)
		c.reg.SetFlagV(overflow)
	case 3: // SUB
		result, carry, overflow := subWithFlags(rdVal, imm)
		c.reg.SetReg(rd, result)
		c.reg.SetFlagN(result&0x80000000 != 0)
		c.reg.SetFlagZ(result == 0)
		c.reg.SetFlagC(carry)
		c.reg.SetFlagV(overflow)
	}
}

// Format 4: ALU operations Rd, Rs
func (c *CPU) thumbALU(instr uint16) {
	op := (instr >> 6) & 0xF
	rs := uint8((instr >> 3) & 0x7)
	rd := uint8(instr & 0x7)
	a := c.reg.GetReg(rd)
	b := c.reg.GetReg(rs)

	var result uint32
	writesResult := true
	carry := c.reg.GetFlagC()
	overflow := c.reg.GetFlagV()
	logical := true

	switch op {
	case 0x0: // AND
		result = a & b
	case 0x1: // EOR
		result = a ^ b
	case 0x2: // LSL
		r := barrelShift(LSL, a, uint8(b), false, carry)
		result, carry = r.value, r.carryOut
	case 0x3: // LSR
		r := barrelShift(LSR, a, uint8(b), false, carry)
		result, carry = r.value, r.carryOut
	case 0x4: // ASR
		r := barrelShift(ASR, a, uint8(b), false, carry)
		result, carry = r.value, r.carryOut
	case 0x5: // ADC
		result, carry, overflow = adcWithFlags(a, b, carry)
		logical = false
	case 0x6: // SBC
		result, carry, overflow = sbcWithFlags(a, b, carry)
		logical = false
	case 0x7: // ROR
		r := barrelShift(ROR, a, uint8(b), false, carry)
		result, carry = r.value, r.carryOut
	case 0x8: // TST
		result = a & b
		writesResult = false
	case 0x9: // NEG
		result, carry, overflow = subWithFlags(0, b)
		logical = false
	case 0xA: // CMP
		result, carry, overflow = subWithFlags(a, b)
		writesResult = false
		logical = false
	case 0xB: // CMN
		result, carry, overflow = addWithFlags(a, b)
		writesResult = false
		logical = false
	case 0xC: // ORR
		result = a | b
	case 0xD: // MUL
		result = a * b
	case 0xE: // BIC
		result = a &^ b
	case 0xF: // MVN
		result = ^b
	}

	if writesResult {
		c.reg.SetReg(rd, result)
	}
	c.reg.SetFlagN(result&0x80000000 != 0)
	c.reg.SetFlagZ(result == 0)
	c.reg.SetFlagC(carry)
	if !logical {
		c.reg.SetFlagV(overflow)
	}
}

func (c *CPU) setLogicalFlags(result uint32, carry bool) {
	c.reg.SetFlagN(result&0x80000000 != 0)
	c.reg.SetFlagZ(result == 0)
	c.reg.SetFlagC(carry)
}

// Format 5: Hi register operations / BX
func (c *CPU) thumbHiRegBX(instr uint16) {
	op := (instr >> 8) & 0x3
	h1 := (instr>>7)&1 != 0
	h2 := (instr>>6)&1 != 0
	rs := uint8((instr>>3)&0x7) + boolToRegOffset(h2)
	rd := uint8(instr&0x7) + boolToRegOffset(h1)

	switch op {
	case 0: // ADD
		c.reg.SetReg(rd, c.reg.GetReg(rd)+c.reg.GetReg(rs))
		if rd == 15 {
			c.branchTo(c.reg.GetReg(15))
		}
	case 1: // CMP
		result, carry, overflow := subWithFlags(c.reg.GetReg(rd), c.reg.GetReg(rs))
		c.reg.SetFlagN(result&0x80000000 != 0)
		c.reg.SetFlagZ(result == 0)
		c.reg.SetFlagC(carry)
		c.reg.SetFlagV(overflow)
	case 2: // MOV
		c.reg.SetReg(rd, c.reg.GetReg(rs))
		if rd == 15 {
			c.branchTo(c.reg.GetReg(15))
		}
	case 3: // BX / BLX
		target := c.reg.GetReg(rs)
		if h1 {
			c.reg.SetReg(14, c.reg.GetPC())
		}
		c.reg.SetThumbState(target&1 != 0)
		c.branchTo(target)
	}
}

func boolToRegOffset(b bool) uint8 {
	if b {
		return 8
	}
	return 0
}

// Format 6: PC-relative load
func (c *CPU) thumbPCRelativeLoad(instr uint16) {
	rd := uint8((instr >> 8) & 0x7)
	imm := uint32(instr&0xFF) * 4
	base := (c.reg.GetPC() + 2) &^ 3 // PC read-ahead, word-aligned
	c.reg.SetReg(rd, c.busRead32(base+imm))
}

// Format 7/8: load/store with register offset (and sign-extended byte/half)
func (c *CPU) thumbLoadStoreRegOffset(instr uint16) {
	opcode := (instr >> 10) & 0x3
	ro := uint8((instr >> 6) & 0x7)
	rb := uint8((instr >> 3) & 0x7)
	rd := uint8(instr & 0x7)
	addr := c.reg.GetReg(rb) + c.reg.GetReg(ro)

	switch opcode {
	case 0: // STR
		c.busWrite32(addr, c.reg.GetReg(rd))
	case 1: // STRB
		c.busWrite8(addr, uint8(c.reg.GetReg(rd)))
	case 2: // LDR
		raw := c.busRead32(addr)
		rot := (addr & 0x3) * 8
		c.reg.SetReg(rd, raw>>rot|raw<<(32-rot))
	case 3: // LDRB
		c.reg.SetReg(rd, uint32(c.busRead8(addr)))
	}
}

func (c *CPU) thumbLoadStoreSignExtended(instr uint16) {
	opcode := (instr >> 10) & 0x3
	ro := uint8((instr >> 6) & 0x7)
	rb := uint8((instr >> 3) & 0x7)
	rd := uint8(instr & 0x7)
	addr := c.reg.GetReg(rb) + c.reg.GetReg(ro)

	switch opcode {
	case 0: // STRH
		c.busWrite16(addr, uint16(c.reg.GetReg(rd)))
	case 1: // LDSB
		c.reg.SetReg(rd, uint32(int32(int8(c.busRead8(addr)))))
	case 2: // LDRH
		c.reg.SetReg(rd, uint32(c.busRead16(addr)))
	case 3: // LDSH
		c.reg.SetReg(rd, uint32(int32(int16(c.busRead16(addr)))))
	}
}

// Format 9: load/store with immediate offset
func (c *CPU) thumbLoadStoreImmOffset(instr uint16) {
	byteTransfer := (instr>>12)&1 != 0
	load := (instr>>11)&1 != 0
	imm := uint32((instr >> 6) & 0x1F)
	rb := uint8((instr >> 3) & 0x7)
	rd := uint8(instr & 0x7)

	if !byteTransfer {
		imm *= 4
	}
	addr := c.reg.GetReg(rb) + imm

	switch {
	case load && byteTransfer:
		c.reg.SetReg(rd, uint32(c.busRead8(addr)))
	case load && !byteTransfer:
		raw := c.busRead32(addr)
		rot := (addr & 0x3) * 8
		c.reg.SetReg(rd, raw>>rot|raw<<(32-rot))
	case !load && byteTransfer:
		c.busWrite8(addr, uint8(c.reg.GetReg(rd)))
	default:
		c.busWrite32(addr, c.reg.GetReg(rd))
	}
}

// Format 10: load/store halfword, immediate offset
func (c *CPU) thumbLoadStoreHalfword(instr uint16) {
	load := (instr>>11)&1 != 0
	imm := uint32((instr>>6)&0x1F) * 2
	rb := uint8((instr >> 3) & 0x7)
	rd := uint8(instr & 0x7)
	addr := c.reg.GetReg(rb) + imm

	if load {
		c.reg.SetReg(rd, uint32(c.busRead16(addr)))
	} else {
		c.busWrite16(addr, uint16(c.reg.GetReg(rd)))
	}
}

// Format 11: SP-relative load/store
func (c *CPU) thumbSPRelativeLoadStore(instr uint16) {
	load := (instr>>11)&1 != 0
	rd := uint8((instr >> 8) & 0x7)
	imm := uint32(instr&0xFF) * 4
	addr := c.reg.GetReg(13) + imm

	if load {
		raw := c.busRead32(addr)
		rot := (addr & 0x3) * 8
		c.reg.SetReg(rd, raw>>rot|raw<<(32-rot))
	} else {
		c.busWrite32(addr, c.reg.GetReg(rd))
	}
}

// Format 12: load address (from PC or SP)
func (c *CPU) thumbLoadAddress(instr uint16) {
	fromSP := (instr>>11)&1 != 0
	rd := uint8((instr >> 8) & 0x7)
	imm := uint32(instr&0xFF) * 4

	if fromSP {
		c.reg.SetReg(rd, c.reg.GetReg(13)+imm)
	} else {
		c.reg.SetReg(rd, ((c.reg.GetPC()+2)&^3)+imm)
	}
}

// Format 13: add offset to SP
func (c *CPU) thumbAddOffsetToSP(instr uint16) {
	negative := (instr>>7)&1 != 0
	imm := uint32(instr&0x7F) * 4
	sp := c.reg.GetReg(13)
	if negative {
		c.reg.SetReg(13, sp-imm)
	} else {
		c.reg.SetReg(13, sp+imm)
	}
}

// Format 14: push/pop register list
func (c *CPU) thumbPushPop(instr uint16) {
	pop := (instr>>11)&1 != 0
	includePCLR := (instr>>8)&1 != 0
	list := uint8(instr & 0xFF)

	if pop {
		sp := c.reg.GetReg(13)
		for r := 0; r < 8; r++ {
			if list&(1<<uint(r)) != 0 {
				c.reg.SetReg(uint8(r), c.busRead32(sp))
				sp += 4
			}
		}
		if includePCLR {
			target := c.busRead32(sp)
			sp += 4
			c.branchTo(target &^ 1)
		}
		c.reg.SetReg(13, sp)
		return
	}

	count := 0
	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) != 0 {
			count++
		}
	}
	if includePCLR {
		count++
	}
	sp := c.reg.GetReg(13) - uint32(count)*4
	base := sp
	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) != 0 {
			c.busWrite32(base, c.reg.GetReg(uint8(r)))
			base += 4
		}
	}
	if includePCLR {
		c.busWrite32(base, c.reg.GetReg(14))
	}
	c.reg.SetReg(13, sp)
}

// Format 15: multiple load/store
func (c *CPU) thumbMultipleLoadStore(instr uint16) {
	load := (instr>>11)&1 != 0
	rb := uint8((instr >> 8) & 0x7)
	list := uint8(instr & 0xFF)
	addr := c.reg.GetReg(rb)

	for r := 0; r < 8; r++ {
		if list&(1<<uint(r)) == 0 {
			continue
		}
		if load {
			c.reg.SetReg(uint8(r), c.busRead32(addr))
		} else {
			c.busWrite32(addr, c.reg.GetReg(uint8(r)))
		}
		addr += 4
	}
	c.reg.SetReg(rb, addr)
}

// Format 16: conditional branch
func (c *CPU) thumbConditionalBranch(instr uint16) {
	cond := uint32(instr>>8) & 0xF
	if !c.checkCondition_Arm(cond) {
		return
	}
	offset := int32(int8(instr & 0xFF)) * 2
	target := uint32(int32(c.reg.GetPC()+2) + offset)
	c.branchTo(target)
}

// Format 18: unconditional branch
func (c *CPU) thumbUnconditionalBranch(instr uint16) {
	offset := int32(instr&0x7FF) << 21 >> 20 // sign-extend 11-bit, x2
	target := uint32(int32(c.reg.GetPC()+2) + offset)
	c.branchTo(target)
}

// Format 19: long branch with link, two 16-bit halves
func (c *CPU) thumbLongBranchLink(instr uint16) {
	high := (instr>>11)&1 == 0
	offset := uint32(instr & 0x7FF)

	if high {
		signExtended := int32(offset<<21) >> 9 // sign-extend 11 bits, shifted into bits 22-12
		lr := uint32(int32(c.reg.GetPC()+2) + signExtended)
		c.reg.SetReg(14, lr)
		return
	}

	lr := c.reg.GetReg(14)
	target := lr + offset<<1
	nextInstr := c.reg.GetPC()
	c.reg.SetReg(14, nextInstr|1)
	c.branchTo(target)
}
