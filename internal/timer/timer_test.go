package timer

import (
	"testing"

	"GoBA/internal/interrupt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTimer(b *Bank, idx int, reload uint16, control uint16) {
	b.WriteIO8(uint32(regBase+idx*4), uint8(reload))
	b.WriteIO8(uint32(regBase+idx*4+1), uint8(reload>>8))
	b.WriteIO8(uint32(regBase+idx*4+2), uint8(control))
	b.WriteIO8(uint32(regBase+idx*4+3), uint8(control>>8))
}

func TestOverflowReloadsAndRaisesIRQ(t *testing.T) {
	irq := interrupt.New()
	b := New(irq)
	// prescaler=1, irq enabled, start, reload near overflow
	startTimer(b, 0, 0xFFFE, 1<<6|1<<7)

	b.Tick(1)
	assert.Equal(t, uint16(0xFFFF), b.Counter(0))

	b.Tick(1)
	assert.Equal(t, uint16(0xFFFE), b.Counter(0), "reloaded on overflow")
	assert.NotZero(t, irq.IF()&uint16(interrupt.Timer0))
}

func TestCascadeIncrementsNextTimer(t *testing.T) {
	irq := interrupt.New()
	b := New(irq)
	startTimer(b, 0, 0xFFFF, 1<<7)        // prescaler=1, no irq
	startTimer(b, 1, 0, 1<<2|1<<7)        // cascade, start

	b.Tick(1) // timer0 wraps from 0xFFFF to 0 and overflows, cascading into timer1
	assert.Equal(t, uint16(0xFFFF), b.Counter(0), "reload value is also 0xFFFF here")
	assert.Equal(t, uint16(1), b.Counter(1), "cascade increments timer1 once")
}

func TestCascadingTimerIgnoresItsOwnPrescaler(t *testing.T) {
	irq := interrupt.New()
	b := New(irq)
	startTimer(b, 1, 0, 1<<2|1<<7) // cascade timer1, never ticked directly
	b.Tick(10000)
	require.Equal(t, uint16(0), b.Counter(1), "a cascading timer only advances via overflow, not Tick")
}

type fakeAPU struct{ notified []int }

func (f *fakeAPU) NotifyTimerOverflow(i int) { f.notified = append(f.notified, i) }

func TestFIFORefillNotifiesOnlyTimer0And1(t *testing.T) {
	irq := interrupt.New()
	b := New(irq)
	fa := &fakeAPU{}
	b.AttachAPU(fa)

	startTimer(b, 1, 0xFFFF, 1<<7)
	b.Tick(1)
	startTimer(b, 2, 0xFFFF, 1<<7)
	b.Tick(1)

	// timer1 (reload 0xFFFF) overflows on both ticks; timer2 overflows on the second.
	assert.Equal(t, []int{1, 1}, fa.notified, "timer2 overflow must not reach the APU notifier")
}
