package apu

import "sync/atomic"

// ringSize must be a power of two so index wraparound is a cheap mask.
const ringSize = 1 << 13 // 8192 stereo frames

// ring is a lock-free single-producer/single-consumer queue of stereo
// frames: the emulation thread (producer) pushes via Push, the host audio
// callback (consumer) drains via Pull, per spec.md §5's sole synchronization
// boundary.
type ring struct {
	buf        [ringSize][2]float32
	head, tail atomic.Uint32 // head: next write slot; tail: next read slot
}

// Push enqueues one stereo frame, dropping it if the ring is full rather
// than blocking the emulation thread.
func (r *ring) Push(l, rr float32) {
	head := r.head.Load()
	next := (head + 1) & (ringSize - 1)
	if next == r.tail.Load() {
		return
	}
	r.buf[head] = [2]float32{l, rr}
	r.head.Store(next)
}

// Pull drains up to len(out) stereo frames into out, returning the count
// actually copied.
func (r *ring) Pull(out [][2]float32) int {
	tail := r.tail.Load()
	head := r.head.Load()
	n := 0
	for n < len(out) && tail != head {
		out[n] = r.buf[tail]
		tail = (tail + 1) & (ringSize - 1)
		n++
	}
	r.tail.Store(tail)
	return n
}

// Available reports how many stereo frames are currently queued.
func (r *ring) Available() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int((head - tail) & (ringSize - 1))
}
