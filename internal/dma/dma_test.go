package dma

import (
	"testing"

	"GoBA/internal/bus"
	"GoBA/internal/cartridge"
	"GoBA/internal/interrupt"
	"GoBA/internal/io"
	"GoBA/internal/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArbiter() (*Arbiter, *bus.Bus, *interrupt.Controller) {
	irq := interrupt.New()
	cart := cartridge.New(make([]byte, 0x200), nil)
	b := bus.New(memory.NewBIOS(nil), cart, io.NewIORegs())
	a := New(irq, cart)
	a.AttachBus(b)
	return a, b, irq
}

func writeChannel(a *Arbiter, ch int, sad, dad uint32, count uint16, control uint16) {
	base := uint32(regBase + ch*channelStride)
	for n := uint32(0); n < 4; n++ {
		a.WriteIO8(base+n, byteOf(sad, n))
	}
	for n := uint32(0); n < 4; n++ {
		a.WriteIO8(base+4+n, byteOf(dad, n))
	}
	a.WriteIO8(base+8, uint8(count))
	a.WriteIO8(base+9, uint8(count>>8))
	a.WriteIO8(base+10, uint8(control))
	a.WriteIO8(base+11, uint8(control>>8)) // 0->1 enable transition fires here
}

func TestImmediateTransferCopiesWords(t *testing.T) {
	a, b, _ := newTestArbiter()
	b.Write32(0x02000000, 0xCAFEBABE)

	writeChannel(a, 0, 0x02000000, 0x02001000, 1, 1<<15|1<<10) // enable, 32-bit, immediate
	v, _ := b.Read32(0x02001000)
	assert.Equal(t, uint32(0xCAFEBABE), v)
}

func TestNonRepeatingChannelDisablesAfterCompletion(t *testing.T) {
	a, _, _ := newTestArbiter()
	writeChannel(a, 0, 0x02000000, 0x02001000, 1, 1<<15)
	assert.False(t, a.channels[0].enabled, "one-shot channel clears its enable bit")
}

func TestRepeatingChannelStaysArmedForNextTrigger(t *testing.T) {
	a, b, _ := newTestArbiter()
	b.Write16(0x02000000, 0x1234)
	// repeat, HBlank timing
	writeChannel(a, 0, 0x02000000, 0x02001000, 1, 1<<15|1<<9|timingHBlank<<12)
	require.True(t, a.channels[0].enabled, "repeat channels remain enabled")

	b.Write16(0x02000000, 0x5678)
	a.NotifyHBlank()
	v, _ := b.Read16(0x02001000)
	assert.Equal(t, uint16(0x5678), v, "the HBlank trigger runs the transfer")
	assert.True(t, a.channels[0].enabled, "repeat channel is still armed after the transfer")
}

func TestIRQRequestedOnCompletion(t *testing.T) {
	a, _, irq := newTestArbiter()
	writeChannel(a, 1, 0x02000000, 0x02001000, 1, 1<<15|1<<14)
	assert.NotZero(t, irq.IF()&uint16(interrupt.DMA1))
}

func TestFIFORefillTargetsBoundChannel(t *testing.T) {
	a, b, _ := newTestArbiter()
	b.Write32(0x02000000, 0x11223344)
	// channel 1 targets FIFO A, special timing, 32-bit, repeat
	writeChannel(a, 1, 0x02000000, 0x040000A0, 4, 1<<15|1<<9|1<<10|timingSpecial<<12)

	a.TriggerFIFORefill(0)
	// runFIFOTransfer always moves 4 words regardless of the count register
	assert.Equal(t, uint32(0x02000010), a.channels[1].curSrc)
}
