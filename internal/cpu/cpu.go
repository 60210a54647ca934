// Package cpu implements the ARM7TDMI interpreter: ARM and THUMB decode and
// execution, banked registers, and exception entry/return, per spec.md §4.4.
package cpu

import (
	"GoBA/internal/interfaces"
	"GoBA/internal/interrupt"
	"GoBA/internal/scheduler"
	"GoBA/util/dbg"
)

// Exception vectors, fixed by the ARM architecture.
const (
	vectorReset         = 0x00000000
	vectorUndefined     = 0x00000004
	vectorSWI           = 0x00000008
	vectorPrefetchAbort = 0x0000000C
	vectorDataAbort     = 0x00000010
	vectorIRQ           = 0x00000018
	vectorFIQ           = 0x0000001C
)

// CPU is the ARM7TDMI core: registers and the bus/interrupt-controller
// collaborators it drives. The fetch/decode/execute pipeline is modeled as
// an immediate fetch-then-execute per Step, which is externally
// indistinguishable from the hardware's 2-stage prefetch except for the
// PC-read-ahead values instructions must still account for explicitly
// (readRegForShift, branch target math) — see spec.md §4.4.
type CPU struct {
	reg   *Registers
	bus   interfaces.BusInterface
	irq   *interrupt.Controller
	sched *scheduler.Scheduler

	accCycles int
}

// New constructs a CPU wired to bus and irq. Reset() must be called before
// the first Step().
func New(bus interfaces.BusInterface, irq *interrupt.Controller) *CPU {
	return &CPU{
		reg: NewRegisters(),
		bus: bus,
		irq: irq,
	}
}

// AttachScheduler wires the CPU to the console's event scheduler and
// registers the IRQ exception-entry handler against EventIRQLatch, per
// spec.md §4.4: "the event handler checks I=0 at fire time; if still
// enabled it performs IRQ exception entry". Once attached, Step no longer
// dispatches IRQs the moment Asserted() goes true — it waits for the
// scheduled callback, giving the interrupt controller's 3-cycle latch real
// effect.
func (c *CPU) AttachScheduler(s *scheduler.Scheduler) {
	c.sched = s
	s.RegisterCallback(scheduler.EventIRQLatch, c.onIRQLatch)
}

func (c *CPU) onIRQLatch(uint64) {
	if c.irq.Asserted() && !c.reg.IsIRQDisabled() {
		c.enterException(vectorIRQ, IRQMode, false)
	}
}

// Registers exposes the register bank through the cross-package contract.
func (c *CPU) Registers() interfaces.RegistersInterface { return c.reg }

// Reset puts the CPU at its BIOS entry point: Supervisor mode, ARM state,
// IRQ/FIQ disabled, PC=0, per spec.md §4.2.
func (c *CPU) Reset() {
	c.reg = NewRegisters()
	c.reg.SetPC(vectorReset)
}

// ResetSkipBIOS initializes the register bank to the documented post-BIOS
// snapshot (spec.md §4.2) so execution jumps straight to the cartridge
// entry point when no BIOS image is supplied.
func (c *CPU) ResetSkipBIOS() {
	c.reg = NewRegisters()
	c.reg.SetCPSR(uint32(SYSMode))
	c.reg.SetPC(0x08000000) // cartridge ROM entry point
	c.reg.SP_usr = 0x03007F00
	c.reg.SP_irq = 0x03007FA0
	c.reg.SP_svc = 0x03007FE0
}

// Step retires one instruction (or services a pending interrupt, or idles
// through HALT) and returns the number of cycles consumed.
func (c *CPU) Step() int {
	c.accCycles = 0

	if c.irq.Stopped() {
		return 1
	}
	if c.irq.Halted() {
		return 1
	}
	if c.sched == nil && c.irq.Asserted() && !c.reg.IsIRQDisabled() {
		// No scheduler attached (isolated tests): fall back to the
		// immediate check in lieu of the 3-cycle scheduled latch.
		c.enterException(vectorIRQ, IRQMode, false)
		return c.accCycles
	}

	if c.reg.IsThumb() {
		c.stepThumb()
	} else {
		c.stepArm()
	}
	if c.accCycles == 0 {
		c.accCycles = 1
	}
	return c.accCycles
}

func (c *CPU) stepArm() {
	pc := c.reg.GetPC()
	instr := c.busRead32(pc)
	c.reg.SetPC(pc + 4)
	c.executeArm(instr)
}

func (c *CPU) stepThumb() {
	pc := c.reg.GetPC()
	instr := uint16(c.busRead16(pc))
	c.reg.SetPC(pc + 2)
	c.executeThumb(instr)
}

func (c *CPU) busRead8(addr uint32) uint8 {
	v, cyc := c.bus.Read8(addr)
	c.accCycles += cyc
	return v
}

func (c *CPU) busRead16(addr uint32) uint16 {
	v, cyc := c.bus.Read16(addr)
	c.accCycles += cyc
	return v
}

func (c *CPU) busRead32(addr uint32) uint32 {
	v, cyc := c.bus.Read32(addr)
	c.accCycles += cyc
	return v
}

func (c *CPU) busWrite8(addr uint32, v uint8) {
	c.accCycles += c.bus.Write8(addr, v)
}

func (c *CPU) busWrite16(addr uint32, v uint16) {
	c.accCycles += c.bus.Write16(addr, v)
}

func (c *CPU) busWrite32(addr uint32, v uint32) {
	c.accCycles += c.bus.Write32(addr, v)
}

// branchTo writes PC and flushes the fetch pipeline, the behavior every
// taken branch / exception entry / write to R15 triggers per spec.md §4.4
// step 3.
func (c *CPU) branchTo(addr uint32) {
	if c.reg.IsThumb() {
		c.reg.SetPC(addr &^ 1)
	} else {
		c.reg.SetPC(addr &^ 3)
	}
	c.accCycles += 2 // pipeline refill cost (2S+1N approximated)
}

// enterException performs the shared exception-entry sequence: save CPSR to
// the target mode's SPSR, switch mode, save return address to LR, disable
// IRQs (and FIQs when disableFIQ is set, true only for Reset/FIQ entry),
// force ARM state, jump to vector.
func (c *CPU) enterException(vector uint32, mode uint8, disableFIQ bool) {
	// PC already points past the instruction Step just fetched. IRQ's
	// return address is that value as-is (next instruction to resume);
	// every other exception's is PC+4 ahead of that, matching the
	// interpreter's immediate fetch-then-execute model (no separate
	// prefetch-stage lag to account for).
	lr := c.reg.GetPC()
	if mode != IRQMode {
		lr += 4
	}

	oldCPSR := c.reg.GetCPSR()
	c.reg.SetMode(mode)
	c.reg.SetSPSR(oldCPSR)

	c.reg.SetReg(14, lr)
	c.reg.SetThumbState(false)
	c.reg.SetIRQDisabled(true)
	if disableFIQ {
		c.reg.SetFIQDisabled(true)
	}
	c.branchTo(vector)
	dbg.Printf("cpu: exception vector=%08X mode=%02X\n", vector, mode)
}

// RaiseSWI enters the Software Interrupt exception, called from execArm_SWI
// / THUMB format 17.
func (c *CPU) RaiseSWI() {
	c.enterException(vectorSWI, SVCMode, false)
}

// RaiseUndefined enters the Undefined Instruction exception.
func (c *CPU) RaiseUndefined() {
	c.enterException(vectorUndefined, UNDMode, false)
}
