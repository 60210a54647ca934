// Package dma implements the GBA's four-channel DMA arbiter: trigger
// selection, transfer execution, and EEPROM/sound-FIFO special cases, per
// spec.md §4.5.
//
// Per spec.md §5 ("no suspension or yielding occurs inside callbacks: ...
// a DMA transfer ... run[s] to completion before returning to the loop"),
// a triggered transfer always executes atomically rather than through the
// scheduled preemption/catch-up mechanics §4.5 describes for cycle-exact
// bus contention: with no concurrent execution to preempt, the final memory
// effect of running channels in priority order inside one synchronous pass
// is identical. Only sub-cycle timing precision is traded away.
package dma

import (
	"GoBA/internal/bus"
	"GoBA/internal/cartridge"
	"GoBA/internal/interrupt"
)

// destControl / srcControl encode DMACNT_H's address-control fields.
const (
	ctrlInc = iota
	ctrlDec
	ctrlFixed
	ctrlIncReload
)

const (
	timingImmediate = iota
	timingVBlank
	timingHBlank
	timingSpecial
)

type channel struct {
	sad, dad   uint32
	countReg   uint16
	control    uint16 // DMACNT_H
	enabled    bool

	// Latched at the 0->1 enable transition, or at repeat completion.
	curSrc, curDst uint32
	remaining      int
}

func (c *channel) destCtrl() int    { return int((c.control >> 5) & 0x3) }
func (c *channel) srcCtrl() int     { return int((c.control >> 7) & 0x3) }
func (c *channel) repeat() bool     { return c.control&(1<<9) != 0 }
func (c *channel) wordSize() bool   { return c.control&(1<<10) != 0 } // true = 32-bit
func (c *channel) gamePakDRQ() bool { return c.control&(1<<11) != 0 }
func (c *channel) timing() int      { return int((c.control >> 12) & 0x3) }
func (c *channel) irqEnabled() bool { return c.control&(1<<14) != 0 }

var completionSources = [4]interrupt.Source{
	interrupt.DMA0, interrupt.DMA1, interrupt.DMA2, interrupt.DMA3,
}

var maxCount = [4]int{0x4000, 0x4000, 0x4000, 0x10000}

// Arbiter is the 4-channel DMA controller, implementing
// interfaces.DMAInterface and ppu.DMANotifier.
type Arbiter struct {
	bus  *bus.Bus
	irq  *interrupt.Controller
	cart *cartridge.Cartridge

	channels [4]channel
}

// New returns an Arbiter with all channels disabled. AttachBus must be
// called once internal/gba finishes wiring the bus before any transfer can
// execute (the bus itself holds the Arbiter as its DMA peripheral, so the
// two are connected after both exist).
func New(irq *interrupt.Controller, cart *cartridge.Cartridge) *Arbiter {
	return &Arbiter{irq: irq, cart: cart}
}

// AttachBus completes the construction cycle between Bus and Arbiter.
func (a *Arbiter) AttachBus(b *bus.Bus) { a.bus = b }

// Tick is a no-op: DMA has no independent clock of its own between
// triggers, per the synchronous-execution model above.
func (a *Arbiter) Tick(cycles int) {}

// NotifyHBlank implements ppu.DMANotifier.
func (a *Arbiter) NotifyHBlank() { a.fireTiming(timingHBlank) }

// NotifyVBlank implements ppu.DMANotifier.
func (a *Arbiter) NotifyVBlank() { a.fireTiming(timingVBlank) }

// TriggerFIFORefill runs whichever enabled "special" timing channel targets
// FIFO A (which=0, dest 0x040000A0) or FIFO B (which=1, dest 0x040000A4).
func (a *Arbiter) TriggerFIFORefill(which int) {
	fifoAddr := uint32(0x040000A0)
	if which == 1 {
		fifoAddr = 0x040000A4
	}
	for i := 0; i < 4; i++ {
		c := &a.channels[i]
		if c.enabled && c.timing() == timingSpecial && c.dad == fifoAddr {
			a.runFIFOTransfer(i)
		}
	}
}

func (a *Arbiter) fireTiming(t int) {
	for i := 0; i < 4; i++ {
		c := &a.channels[i]
		if c.enabled && c.timing() == t {
			a.execute(i)
		}
	}
}

// fireImmediate runs channel i right away; called from WriteIO8 on the 0->1
// enable transition when the channel's timing field selects "immediate".
func (a *Arbiter) fireImmediate(i int) {
	if a.channels[i].timing() == timingImmediate {
		a.execute(i)
	}
}

// latch copies SAD/DAD/count into the channel's internal working registers,
// per spec.md §4.5's 0->1 enable transition rule.
func (a *Arbiter) latch(i int) {
	c := &a.channels[i]
	c.curSrc = c.sad
	c.curDst = c.dad
	c.remaining = int(c.countReg)
	if c.remaining == 0 {
		c.remaining = maxCount[i]
	}
}

func (a *Arbiter) runFIFOTransfer(i int) {
	c := &a.channels[i]
	for n := 0; n < 4; n++ {
		v, _ := a.bus.Read32(c.curSrc)
		a.bus.Write32(c.curDst, v)
		if c.srcCtrl() != ctrlFixed {
			c.curSrc += 4
		}
	}
	if c.irqEnabled() {
		a.irq.Request(completionSources[i])
	}
	// Sound-FIFO DMA always repeats; the destination and count are fixed.
}

// execute runs channel i's configured transfer to completion, per
// spec.md §4.5.
func (a *Arbiter) execute(i int) {
	c := &a.channels[i]
	if i == 3 && a.isEEPROMTransfer(c) {
		a.runEEPROMTransfer(c)
	} else {
		a.runGeneralTransfer(i, c)
	}

	if c.irqEnabled() {
		a.irq.Request(completionSources[i])
	}

	if c.repeat() && c.timing() != timingImmediate {
		c.remaining = int(c.countReg)
		if c.remaining == 0 {
			c.remaining = maxCount[i]
		}
		if c.destCtrl() == ctrlIncReload {
			c.curDst = c.dad
		}
	} else {
		c.enabled = false
		c.control &^= 1 << 15
	}
}

func (a *Arbiter) runGeneralTransfer(i int, c *channel) {
	width := uint32(2)
	if c.wordSize() {
		width = 4
	}
	for n := 0; n < c.remaining; n++ {
		if c.wordSize() {
			v, _ := a.bus.Read32(c.curSrc)
			a.bus.Write32(c.curDst, v)
		} else {
			v, _ := a.bus.Read16(c.curSrc)
			a.bus.Write16(c.curDst, v)
		}
		c.curSrc = adjust(c.curSrc, c.srcCtrl(), width)
		c.curDst = adjust(c.curDst, c.destCtrl(), width)
	}
}

func adjust(addr uint32, ctrl int, width uint32) uint32 {
	switch ctrl {
	case ctrlInc, ctrlIncReload:
		return addr + width
	case ctrlDec:
		return addr - width
	default: // ctrlFixed
		return addr
	}
}

// isEEPROMTransfer reports whether channel 3's configuration matches the
// EEPROM access pattern (dest/src pointing at the cartridge's 0x0D000000
// EEPROM window), per spec.md §4.5's special case.
func (a *Arbiter) isEEPROMTransfer(c *channel) bool {
	if a.cart.EEPROM() == nil {
		return false
	}
	const eepromBase = 0x0D000000
	return c.curSrc&0xFF000000 == eepromBase || c.curDst&0xFF000000 == eepromBase
}

// runEEPROMTransfer synthesizes the serial bit stream DMA3 walks the EEPROM
// state machine with: a write stream (address bits then 64 data bits) or a
// read stream (address bits then 4 don't-care bits, yielding 64 data bits
// plus leading don't-cares), per spec.md §4.5.
func (a *Arbiter) runEEPROMTransfer(c *channel) {
	ee := a.cart.EEPROM()
	const eepromBase = 0x0D000000
	isWrite := c.curDst&0xFF000000 == eepromBase

	if isWrite {
		// Stream layout: 2 start bits, 6 or 14 address bits, 64 data bits,
		// 1 stop bit - all delivered as one bit per halfword's low bit.
		bits := make([]uint8, 0, c.remaining)
		for n := 0; n < c.remaining; n++ {
			v, _ := a.bus.Read16(c.curSrc)
			bits = append(bits, uint8(v&1))
			c.curSrc += 2
		}
		for _, b := range bits {
			ee.WriteBit(b)
		}
	} else {
		addrBits := 6
		if c.remaining > 9 {
			addrBits = 14
		}
		addr := 0
		for n := 0; n < addrBits; n++ {
			v, _ := a.bus.Read16(c.curSrc)
			addr = addr<<1 | int(v&1)
			c.curSrc += 2
		}
		ee.BeginRead(addr)
		for n := addrBits; n < c.remaining; n++ {
			bit := uint16(ee.ReadBit())
			a.bus.Write16(c.curDst, bit)
			c.curDst += 2
		}
	}
}
