package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferPushPull(t *testing.T) {
	var r ring
	r.Push(0.5, -0.5)
	r.Push(0.25, -0.25)
	assert.Equal(t, 2, r.Available())

	out := make([][2]float32, 4)
	n := r.Pull(out)
	require.Equal(t, 2, n)
	assert.Equal(t, [2]float32{0.5, -0.5}, out[0])
	assert.Equal(t, [2]float32{0.25, -0.25}, out[1])
	assert.Zero(t, r.Available())
}

func TestRingBufferDropsOnOverflow(t *testing.T) {
	var r ring
	for i := 0; i < ringSize+10; i++ {
		r.Push(1, 1)
	}
	assert.LessOrEqual(t, r.Available(), ringSize-1, "a full ring never overwrites unread frames")
}

func TestSquareChannelTriggerEnablesWhenDACOn(t *testing.T) {
	var c square
	c.dacOn = true
	c.initVol = 8
	c.trigger()
	assert.True(t, c.enabled)
	assert.Equal(t, uint8(8), c.curVol)
}

func TestSquareChannelTriggerIgnoredWithoutDAC(t *testing.T) {
	var c square
	c.dacOn = false
	c.trigger()
	assert.False(t, c.enabled, "triggering with the DAC off cannot enable the channel")
}

func TestSquareLengthCounterDisablesChannel(t *testing.T) {
	var c square
	c.dacOn = true
	c.lenOn = true
	c.length = 1
	c.trigger()
	c.clockLength()
	assert.False(t, c.enabled)
	assert.Zero(t, c.length)
}

func TestEnvelopeRampsTowardCeiling(t *testing.T) {
	var c square
	c.dacOn = true
	c.initVol = 0
	c.envUp = true
	c.envStep = 1
	c.trigger()
	for i := 0; i < 20; i++ {
		c.clockEnvelope()
	}
	assert.Equal(t, uint8(15), c.curVol, "envelope clamps at the 4-bit ceiling")
}

func TestSweepOverflowDisablesChannel(t *testing.T) {
	var c square
	c.hasSweep = true
	c.dacOn = true
	c.freq = 2047
	c.sweepShift = 1
	c.sweepPer = 1
	c.sweepDown = false
	c.trigger()
	c.clockSweep()
	assert.False(t, c.enabled, "a sweep calculation above 2047 disables the channel")
}

func TestFIFONeedsRefillAtHalfEmpty(t *testing.T) {
	var f fifo
	for i := 0; i < 32; i++ {
		f.push(int8(i))
	}
	assert.False(t, f.needsRefill())
	for i := 0; i < 16; i++ {
		f.pop()
	}
	assert.True(t, f.needsRefill())
}

type fakeDMA struct{ triggered []int }

func (d *fakeDMA) TriggerFIFORefill(which int) { d.triggered = append(d.triggered, which) }

func TestTimerOverflowPopsBoundFIFOAndRequestsRefill(t *testing.T) {
	a := New(48000)
	dma := &fakeDMA{}
	a.AttachDMA(dma)
	for i := 0; i < 17; i++ {
		a.fifoA.push(int8(i))
	}
	// FIFO A and FIFO B are both bound to timer 0 by default (soundcntH bits
	// 10 and 14 clear); B starts empty, so it requests a refill as well.
	a.NotifyTimerOverflow(0)
	assert.Equal(t, []int{0, 1}, dma.triggered, "draining to the 16-byte threshold requests a refill")
}

func TestMixSampleRespectsMasterDisable(t *testing.T) {
	a := New(48000)
	a.soundcntX = 0 // master disabled
	a.Tick(1000)
	assert.Zero(t, a.Available(), "Tick is a no-op while SOUNDCNT_X master enable is clear")
}

func TestClamp10(t *testing.T) {
	assert.Equal(t, int32(0), clamp10(-5))
	assert.Equal(t, int32(0x3FF), clamp10(0x400))
	assert.Equal(t, int32(0x200), clamp10(0x200))
}
