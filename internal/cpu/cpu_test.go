package cpu

import (
	"testing"

	"GoBA/internal/interrupt"
	"GoBA/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is a minimal interfaces.BusInterface backed by a sparse byte map,
// enough to feed the CPU a fixed instruction stream.
type fakeBus struct {
	mem map[uint32]uint8
}

func newFakeBus() *fakeBus { return &fakeBus{mem: map[uint32]uint8{}} }

func (f *fakeBus) put32(addr, v uint32) {
	f.mem[addr] = uint8(v)
	f.mem[addr+1] = uint8(v >> 8)
	f.mem[addr+2] = uint8(v >> 16)
	f.mem[addr+3] = uint8(v >> 24)
}

func (f *fakeBus) Read8(addr uint32) (uint8, int) { return f.mem[addr], 1 }
func (f *fakeBus) Read16(addr uint32) (uint16, int) {
	lo, hi := f.mem[addr], f.mem[addr+1]
	return uint16(lo) | uint16(hi)<<8, 1
}
func (f *fakeBus) Read32(addr uint32) (uint32, int) {
	v := uint32(f.mem[addr]) | uint32(f.mem[addr+1])<<8 | uint32(f.mem[addr+2])<<16 | uint32(f.mem[addr+3])<<24
	return v, 1
}
func (f *fakeBus) Write8(addr uint32, v uint8) int  { f.mem[addr] = v; return 1 }
func (f *fakeBus) Write16(addr uint32, v uint16) int {
	f.mem[addr], f.mem[addr+1] = uint8(v), uint8(v>>8)
	return 1
}
func (f *fakeBus) Write32(addr uint32, v uint32) int { f.put32(addr, v); return 1 }

func TestResetSkipBIOSEntersSystemModeAtCartridgeEntry(t *testing.T) {
	c := New(newFakeBus(), interrupt.New())
	c.ResetSkipBIOS()
	assert.Equal(t, uint32(0x08000000), c.reg.GetPC())
	assert.Equal(t, uint8(SYSMode), c.reg.GetMode())
}

func TestStepExecutesMOVImmediate(t *testing.T) {
	b := newFakeBus()
	b.put32(0x08000000, 0xE3A00005) // MOV R0, #5
	c := New(b, interrupt.New())
	c.ResetSkipBIOS()

	cycles := c.Step()
	assert.Equal(t, uint32(5), c.reg.GetReg(0))
	assert.Equal(t, uint32(0x08000004), c.reg.GetPC())
	assert.Greater(t, cycles, 0)
}

func TestRaiseSWIEntersSupervisorMode(t *testing.T) {
	c := New(newFakeBus(), interrupt.New())
	c.ResetSkipBIOS()
	pcBefore := c.reg.GetPC()

	c.RaiseSWI()
	assert.Equal(t, uint8(SVCMode), c.reg.GetMode())
	assert.Equal(t, uint32(0x00000008), c.reg.GetPC())
	assert.Equal(t, pcBefore+4, c.reg.GetReg(14), "LR holds the return address")
	assert.True(t, c.reg.IsIRQDisabled())
}

func TestAttachedSchedulerDelaysIRQByThreeCycles(t *testing.T) {
	irq := interrupt.New()
	s := scheduler.New()
	c := New(newFakeBus(), irq)
	c.AttachScheduler(s)
	irq.AttachScheduler(s)
	c.ResetSkipBIOS()
	pc := c.reg.GetPC()

	irq.SetIE(uint16(interrupt.VBlank))
	irq.SetIME(true)
	irq.Request(interrupt.VBlank)

	s.Step(2)
	s.RunDue()
	assert.Equal(t, pc, c.reg.GetPC(), "latch not due yet")

	s.Step(1)
	s.RunDue()
	assert.Equal(t, uint8(IRQMode), c.reg.GetMode(), "latch fires at exactly 3 cycles")
}

func TestHaltedCPUConsumesOneCycleWithoutStepping(t *testing.T) {
	irq := interrupt.New()
	c := New(newFakeBus(), irq)
	c.ResetSkipBIOS()
	pc := c.reg.GetPC()

	irq.Halt()
	cycles := c.Step()
	require.Equal(t, 1, cycles)
	assert.Equal(t, pc, c.reg.GetPC(), "halted CPU does not fetch")
}
