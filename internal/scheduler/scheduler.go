// Package scheduler is the single source of time for the emulator core: a
// cycle-ordered queue of future events that the console steps forward and
// drains, per spec §4.1.
package scheduler

// EventKind names every timed side effect the console schedules. Ordinal
// value doubles as tie-break priority when two events share a fire cycle —
// lower ordinal wins. Order follows the reference EventType enum (APU
// channel events, then timers, then DMA, then PPU, then the sample tick),
// so a same-cycle collision resolves the way hardware's single event queue
// would. EventIRQLatch has no counterpart in that enum; it sits last since
// nothing in the reference ordering constrains it.
type EventKind int

const (
	EventAPUChannel1Clock EventKind = iota
	EventAPUChannel1Envelope
	EventAPUChannel1Length
	EventAPUChannel1Sweep
	EventAPUChannel2Clock
	EventAPUChannel2Envelope
	EventAPUChannel2Length
	EventAPUChannel4Clock
	EventAPUChannel4Envelope
	EventAPUChannel4Length
	EventTimer0Overflow
	EventTimer1Overflow
	EventTimer2Overflow
	EventTimer3Overflow
	EventDMA0Complete
	EventDMA1Complete
	EventDMA2Complete
	EventDMA3Complete
	EventPPUHBlank
	EventPPUVBlank
	EventPPUVDraw
	EventAPUSample
	EventIRQLatch

	numEventKinds
)

// Callback receives the number of cycles elapsed since the event's intended
// fire time, so a periodic handler can compensate when rescheduling.
type Callback func(extraCycles uint64)

type event struct {
	kind      EventKind
	fireAt    uint64
	queuedAt  uint64
	scheduled bool
}

// Scheduler owns the global cycle clock and the set of pending events.
// Queue depth is bounded by numEventKinds (< 32), so a linear scan per
// schedule/unschedule is both correct and, per spec §9, the sanctioned
// implementation strategy at this scale.
type Scheduler struct {
	clock     uint64
	events    [numEventKinds]event
	callbacks [numEventKinds]Callback
}

// New creates a Scheduler with its clock at zero and no pending events.
func New() *Scheduler {
	return &Scheduler{}
}

// RegisterCallback binds the handler for an event kind. Called once during
// initialization, per spec §4.1.
func (s *Scheduler) RegisterCallback(kind EventKind, fn Callback) {
	s.callbacks[kind] = fn
}

// Clock returns the current absolute cycle count.
func (s *Scheduler) Clock() uint64 {
	return s.clock
}

// Schedule arms kind to fire delta cycles from now, overwriting any pending
// occurrence of the same kind (each kind may appear at most once concurrently).
func (s *Scheduler) Schedule(kind EventKind, delta uint64) {
	s.events[kind] = event{
		kind:      kind,
		fireAt:    s.clock + delta,
		queuedAt:  s.clock,
		scheduled: true,
	}
}

// Unschedule cancels a pending event; a no-op if none is pending.
func (s *Scheduler) Unschedule(kind EventKind) {
	s.events[kind].scheduled = false
}

// Pending reports whether kind currently has an armed occurrence.
func (s *Scheduler) Pending(kind EventKind) bool {
	return s.events[kind].scheduled
}

// Elapsed returns how many cycles have passed since kind was scheduled.
func (s *Scheduler) Elapsed(kind EventKind) uint64 {
	e := s.events[kind]
	if !e.scheduled {
		return 0
	}
	return s.clock - e.queuedAt
}

// Remaining returns how many cycles remain until kind fires; zero if overdue
// or not scheduled.
func (s *Scheduler) Remaining(kind EventKind) uint64 {
	e := s.events[kind]
	if !e.scheduled || s.clock >= e.fireAt {
		return 0
	}
	return e.fireAt - s.clock
}

// TotalLength returns the full delta originally requested for kind's current
// occurrence (fireAt - queuedAt).
func (s *Scheduler) TotalLength(kind EventKind) uint64 {
	e := s.events[kind]
	if !e.scheduled {
		return 0
	}
	return e.fireAt - e.queuedAt
}

// Step advances the clock by n cycles without firing anything; callers must
// follow with RunDue to dispatch anything now overdue.
func (s *Scheduler) Step(n uint64) {
	s.clock += n
}

// RunDue pops and dispatches every event whose fireAt has been reached,
// earliest-fireAt first, ties broken by kind ordinal. A callback may
// reschedule its own kind (or any other); newly-armed events are only
// eligible for dispatch on a later RunDue call, since their fireAt is always
// in the future relative to the clock at the moment they're armed.
func (s *Scheduler) RunDue() {
	for {
		kind, ok := s.nextDue()
		if !ok {
			return
		}
		s.events[kind].scheduled = false
		extra := s.clock - s.events[kind].fireAt
		if cb := s.callbacks[kind]; cb != nil {
			cb(extra)
		}
	}
}

func (s *Scheduler) nextDue() (EventKind, bool) {
	best := EventKind(-1)
	for k := EventKind(0); k < numEventKinds; k++ {
		e := s.events[k]
		if !e.scheduled || e.fireAt > s.clock {
			continue
		}
		if best == -1 || e.fireAt < s.events[best].fireAt {
			best = k
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// SkipToNext fast-forwards the clock to the fireAt of the soonest pending
// event, used when the CPU is halted or a DMA transfer is monopolizing the
// bus. Returns false if nothing is pending (caller should not advance).
func (s *Scheduler) SkipToNext() bool {
	best := uint64(0)
	found := false
	for k := EventKind(0); k < numEventKinds; k++ {
		e := s.events[k]
		if !e.scheduled {
			continue
		}
		if !found || e.fireAt < best {
			best = e.fireAt
			found = true
		}
	}
	if !found {
		return false
	}
	if best > s.clock {
		s.clock = best
	}
	return true
}
