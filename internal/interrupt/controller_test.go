package interrupt

import (
	"testing"

	"GoBA/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAndAssert(t *testing.T) {
	c := New()
	assert.False(t, c.Asserted(), "no lines enabled or requested")

	c.Request(VBlank)
	assert.False(t, c.Asserted(), "IME still clear")

	c.SetIME(true)
	assert.False(t, c.Asserted(), "VBlank not enabled in IE")

	c.SetIE(uint16(VBlank))
	assert.True(t, c.Asserted())
}

func TestWriteIFClearsOnlySetBits(t *testing.T) {
	c := New()
	c.Request(VBlank)
	c.Request(Timer0)
	require.Equal(t, uint16(VBlank|Timer0), c.IF())

	c.WriteIF(uint16(VBlank))
	assert.Equal(t, uint16(Timer0), c.IF(), "write-1-to-clear leaves unset bits untouched")
}

func TestHaltedClearsOncePending(t *testing.T) {
	c := New()
	c.SetIE(uint16(Timer0))
	c.Halt()
	assert.True(t, c.Halted())

	c.Request(Timer0)
	assert.False(t, c.Halted(), "a pending enabled line wakes the CPU from HALT")
}

func TestRequestWakesHaltImmediately(t *testing.T) {
	c := New()
	c.SetIE(uint16(Keypad))
	c.Halt()
	c.Request(Keypad)
	assert.False(t, c.Halted())
}

func TestStopClearedByWakeFromStop(t *testing.T) {
	c := New()
	c.Stop()
	assert.True(t, c.Stopped())
	c.WakeFromStop()
	assert.False(t, c.Stopped())
}

func TestAttachedSchedulerArmsIRQLatchThreeCyclesOut(t *testing.T) {
	s := scheduler.New()
	c := New()
	c.AttachScheduler(s)

	c.SetIE(uint16(VBlank))
	c.SetIME(true)
	assert.False(t, s.Pending(scheduler.EventIRQLatch), "IF still clear")

	c.Request(VBlank)
	require.True(t, s.Pending(scheduler.EventIRQLatch))
	assert.Equal(t, uint64(3), s.Remaining(scheduler.EventIRQLatch))
}

func TestAttachedSchedulerDoesNotRearmAlreadyPendingLatch(t *testing.T) {
	s := scheduler.New()
	c := New()
	c.AttachScheduler(s)
	c.SetIE(uint16(VBlank) | uint16(Timer0))
	c.SetIME(true)

	c.Request(VBlank)
	s.Step(2)
	c.Request(Timer0)
	assert.Equal(t, uint64(1), s.Remaining(scheduler.EventIRQLatch), "second request must not reset the in-flight latch")
}

func TestIORegisterWindow(t *testing.T) {
	c := New()
	ok := c.WriteIO8(regIE, 0xFF)
	require.True(t, ok)
	ok = c.WriteIO8(regIE+1, 0x3F)
	require.True(t, ok)
	assert.Equal(t, uint16(0x3FFF), c.IE())

	v, ok := c.ReadIO8(regIE)
	require.True(t, ok)
	assert.Equal(t, uint8(0xFF), v)

	_, ok = c.ReadIO8(0xDEAD)
	assert.False(t, ok, "unmapped address")
}
