// Package io holds the handful of GBA system-control registers that don't
// belong to any single component: WAITCNT (cartridge bus timing), POSTFLG
// (post-boot flag) and HALTCNT (the write-only HALT/STOP trigger).
// Everything else in the 0x04000000 block (PPU, DMA, timers, APU, keypad,
// interrupt registers) is owned and mounted by its respective component;
// internal/bus dispatches to whichever one a given address belongs to.
package io

// WaitControl decodes WAITCNT's per-region nonsequential/sequential wait
// state selectors, per spec.md §4.3.
type WaitControl struct {
	raw uint16
}

// IORegs is the remaining flat register block: WAITCNT, POSTFLG, HALTCNT.
type IORegs struct {
	waitcnt WaitControl
	postflg uint8
	haltcnt uint8
}

// NewIORegs returns system-control registers at their hardware reset value.
func NewIORegs() *IORegs {
	return &IORegs{}
}

// WAITCNT returns the raw 16-bit register value.
func (r *IORegs) WAITCNT() uint16 { return r.waitcnt.raw }

// SetWAITCNT writes WAITCNT.
func (r *IORegs) SetWAITCNT(v uint16) { r.waitcnt.raw = v }

// sramWaitCycles returns the nonsequential wait count for the SRAM/Flash
// region (bits 0-1: 0=4,1=3,2=2,3=8 cycles).
func (r *IORegs) sramWaitCycles() int {
	table := [4]int{4, 3, 2, 8}
	return table[r.waitcnt.raw&0x3]
}

// waitState returns (nonsequential, sequential) wait cycles for one of the
// three ROM wait-state blocks (ws: 0, 1, or 2), decoded from WAITCNT bits
// 2-4, 5-7, 8-10 respectively.
func (r *IORegs) waitState(ws int) (nonseq int, seq int) {
	nsTable := [4]int{4, 3, 2, 8}
	var shift uint
	var seqBit uint16
	seqTables := map[int][2]int{0: {2, 1}, 1: {4, 1}, 2: {8, 1}}
	switch ws {
	case 0:
		shift, seqBit = 2, 1<<4
	case 1:
		shift, seqBit = 5, 1<<7
	case 2:
		shift, seqBit = 8, 1<<10
	}
	nonseq = nsTable[(r.waitcnt.raw>>shift)&0x3]
	if r.waitcnt.raw&seqBit != 0 {
		seq = seqTables[ws][1]
	} else {
		seq = seqTables[ws][0]
	}
	return
}

// ROMWaitCycles returns the cycle cost of an access to one of the three
// mirrored ROM windows (0, 1, or 2) at the given width, distinguishing a
// sequential access (address continues the previous one) from a
// nonsequential one (new burst), per spec.md §4.3.
func (r *IORegs) ROMWaitCycles(window int, width int, sequential bool) int {
	nonseq, seq := r.waitState(window)
	cost := 1
	if sequential {
		cost += seq
	} else {
		cost += nonseq
	}
	if width == 32 {
		// A 32-bit ROM access costs one extra sequential access on top of
		// the initial fetch, since the physical ROM bus is 16 bits wide.
		cost += 1 + seq
	}
	return cost
}

// SRAMWaitCycles returns the cycle cost of a byte access to cartridge
// SRAM/Flash, per spec.md §4.3.
func (r *IORegs) SRAMWaitCycles() int {
	return 1 + r.sramWaitCycles()
}

// POSTFLG returns the post-boot flag BIOS sets after its first run.
func (r *IORegs) POSTFLG() uint8 { return r.postflg }

// SetPOSTFLG writes POSTFLG.
func (r *IORegs) SetPOSTFLG(v uint8) { r.postflg = v }

// HALTCNT returns the last value written to the HALT/STOP trigger.
func (r *IORegs) HALTCNT() uint8 { return r.haltcnt }

// SetHALTCNT writes HALTCNT; bit 7 clear requests HALT, set requests STOP.
// The caller (internal/bus, on behalf of internal/gba.Console) is
// responsible for actually invoking interrupt.Controller.Halt()/Stop().
func (r *IORegs) SetHALTCNT(v uint8) { r.haltcnt = v }

// Register offsets, relative to 0x04000000.
const (
	regWAITCNT = 0x204
	regPOSTFLG = 0x300
	regHALTCNT = 0x301
)

// ReadIO8 implements interfaces.IOComponent.
func (r *IORegs) ReadIO8(addr uint32) (uint8, bool) {
	switch addr {
	case regWAITCNT:
		return uint8(r.WAITCNT()), true
	case regWAITCNT + 1:
		return uint8(r.WAITCNT() >> 8), true
	case regPOSTFLG:
		return r.POSTFLG(), true
	case regHALTCNT:
		return r.HALTCNT(), true
	}
	return 0, false
}

// WriteIO8 implements interfaces.IOComponent.
func (r *IORegs) WriteIO8(addr uint32, v uint8) bool {
	switch addr {
	case regWAITCNT:
		r.SetWAITCNT(r.WAITCNT()&0xFF00 | uint16(v))
	case regWAITCNT + 1:
		r.SetWAITCNT(r.WAITCNT()&0x00FF | uint16(v)<<8)
	case regPOSTFLG:
		r.SetPOSTFLG(v)
	case regHALTCNT:
		r.SetHALTCNT(v)
	default:
		return false
	}
	return true
}
