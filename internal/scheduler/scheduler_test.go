package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleAndRunDueFiresCallback(t *testing.T) {
	s := New()
	fired := false
	s.RegisterCallback(EventPPUHBlank, func(extra uint64) { fired = true })
	s.Schedule(EventPPUHBlank, 100)

	s.Step(99)
	s.RunDue()
	assert.False(t, fired, "not due yet")

	s.Step(1)
	s.RunDue()
	assert.True(t, fired)
	assert.False(t, s.Pending(EventPPUHBlank), "RunDue clears the scheduled flag")
}

func TestRunDueOrdersByFireTimeThenOrdinal(t *testing.T) {
	s := New()
	var order []EventKind
	record := func(k EventKind) Callback {
		return func(extra uint64) { order = append(order, k) }
	}
	s.RegisterCallback(EventTimer1Overflow, record(EventTimer1Overflow))
	s.RegisterCallback(EventPPUHBlank, record(EventPPUHBlank))

	// Both due at the same clock value; EventTimer1Overflow has the lower ordinal.
	s.Schedule(EventTimer1Overflow, 10)
	s.Schedule(EventPPUHBlank, 10)
	s.Step(10)
	s.RunDue()

	assert.Equal(t, []EventKind{EventTimer1Overflow, EventPPUHBlank}, order)
}

func TestCallbackExtraCyclesReflectsOvershoot(t *testing.T) {
	s := New()
	var extra uint64
	s.RegisterCallback(EventAPUSample, func(e uint64) { extra = e })
	s.Schedule(EventAPUSample, 50)
	s.Step(55)
	s.RunDue()
	assert.Equal(t, uint64(5), extra)
}

func TestUnscheduleCancelsPendingEvent(t *testing.T) {
	s := New()
	fired := false
	s.RegisterCallback(EventDMA0Complete, func(uint64) { fired = true })
	s.Schedule(EventDMA0Complete, 10)
	s.Unschedule(EventDMA0Complete)
	s.Step(10)
	s.RunDue()
	assert.False(t, fired)
}

func TestRemainingAndTotalLength(t *testing.T) {
	s := New()
	s.Schedule(EventIRQLatch, 40)
	assert.Equal(t, uint64(40), s.Remaining(EventIRQLatch))
	assert.Equal(t, uint64(40), s.TotalLength(EventIRQLatch))

	s.Step(15)
	assert.Equal(t, uint64(25), s.Remaining(EventIRQLatch))
	assert.Equal(t, uint64(15), s.Elapsed(EventIRQLatch))
}

func TestSkipToNextFastForwardsClock(t *testing.T) {
	s := New()
	s.Schedule(EventPPUVBlank, 1000)
	s.Schedule(EventPPUHBlank, 300)

	ok := s.SkipToNext()
	assert.True(t, ok)
	assert.Equal(t, uint64(300), s.Clock())
}

func TestSkipToNextFalseWhenNothingPending(t *testing.T) {
	s := New()
	assert.False(t, s.SkipToNext())
}
