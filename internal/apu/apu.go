// Package apu implements the GBA sound mixer: four PSG channels, two
// DMA-fed direct-sound FIFOs, and the sampling/mixing algorithm that feeds a
// lock-free ring buffer for the host audio callback, per spec.md §4.8.
package apu

const cpuHz = 16777216
const frameSequencerHz = 512

// fifo is one of the two 32-byte direct-sound queues fed by DMA and drained
// on a timer overflow, per spec.md §4.8.
type fifo struct {
	data    []int8
	current int8
}

func (f *fifo) push(b int8) {
	if len(f.data) >= 32 {
		return
	}
	f.data = append(f.data, b)
}

func (f *fifo) pop() {
	if len(f.data) == 0 {
		return
	}
	f.current = f.data[0]
	f.data = f.data[1:]
}

func (f *fifo) needsRefill() bool { return len(f.data) <= 16 }

// DMANotifier lets the APU ask the DMA arbiter to refill a FIFO once it
// drains to its threshold, without importing internal/dma.
type DMANotifier interface {
	TriggerFIFORefill(which int)
}

// APU is the sound mixer, implementing interfaces.APUInterface.
type APU struct {
	dma DMANotifier
	out ring

	ch1, ch2 square
	ch3      wave
	ch4      noise
	fifoA    fifo
	fifoB    fifo

	soundcntL uint16 // NR50/NR51 equivalent: master volume + channel enable
	soundcntH uint16 // DMA sound control: FIFO volume/reset/timer-select/enable
	soundcntX uint16 // master enable + channel-running flags (read-only bits 0-3)
	soundbias uint16

	sampleRate      int
	cyclesPerSample float64
	sampleAccum     float64

	fsAccum float64
	fsStep  int
}

// wave is GBA sound channel 3: 32 4-bit samples played back from RAM. Per
// spec.md §4.8 it is not required for this core and generates silence.
type wave struct {
	enabled bool
	dacOn   bool
	length  int
	lenOn   bool
	ram     [16]byte
}

// New returns an APU producing samples at sampleRate into its ring buffer.
func New(sampleRate int) *APU {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	a := &APU{
		sampleRate:      sampleRate,
		cyclesPerSample: float64(cpuHz) / float64(sampleRate),
	}
	a.ch1.hasSweep = true
	return a
}

// AttachDMA wires the DMA arbiter so a drained FIFO can request a refill.
func (a *APU) AttachDMA(d DMANotifier) { a.dma = d }

// NotifyTimerOverflow implements timer.FIFORefill: timer 0 or 1 overflowing
// pops one sample from whichever FIFO is bound to it (SOUNDCNT_H bit 10/14),
// per spec.md §4.8.
func (a *APU) NotifyTimerOverflow(timerIndex int) {
	if a.fifoTimer(0) == timerIndex {
		a.fifoA.pop()
		if a.fifoA.needsRefill() && a.dma != nil {
			a.dma.TriggerFIFORefill(0)
		}
	}
	if a.fifoTimer(1) == timerIndex {
		a.fifoB.pop()
		if a.fifoB.needsRefill() && a.dma != nil {
			a.dma.TriggerFIFORefill(1)
		}
	}
}

func (a *APU) fifoTimer(which int) int {
	bit := uint(10 + which*4)
	if a.soundcntH&(1<<bit) != 0 {
		return 1
	}
	return 0
}

// PullSamples drains up to len(out) stereo frames from the ring buffer for
// the host audio callback.
func (a *APU) PullSamples(out [][2]float32) int { return a.out.Pull(out) }

// Available reports how many stereo frames are currently queued.
func (a *APU) Available() int { return a.out.Available() }

// Tick advances the frame sequencer, per-channel clocks, and the sampling
// cadence by cycles CPU cycles, per spec.md §4.8.
func (a *APU) Tick(cycles int) {
	if a.soundcntX&(1<<7) == 0 {
		return // master disable
	}
	a.ch1.clock(cycles)
	a.ch2.clock(cycles)
	a.ch4.clock(cycles)

	a.fsAccum += float64(cycles)
	fsPeriod := float64(cpuHz) / frameSequencerHz
	for a.fsAccum >= fsPeriod {
		a.fsAccum -= fsPeriod
		a.stepFrameSequencer()
	}

	a.sampleAccum += float64(cycles)
	for a.sampleAccum >= a.cyclesPerSample {
		a.sampleAccum -= a.cyclesPerSample
		a.mixSample()
	}
}

// stepFrameSequencer runs the 512 Hz length/envelope/sweep clock, per the
// standard Game Boy family frame-sequencer schedule (steps 0/2/4/6 clock
// length, 2/6 also clock sweep, step 7 clocks envelope).
func (a *APU) stepFrameSequencer() {
	if a.fsStep%2 == 0 {
		a.ch1.clockLength()
		a.ch2.clockLength()
		a.ch4.clockLength()
	}
	if a.fsStep == 2 || a.fsStep == 6 {
		a.ch1.clockSweep()
	}
	if a.fsStep == 7 {
		a.ch1.clockEnvelope()
		a.ch2.clockEnvelope()
		a.ch4.clockEnvelope()
	}
	a.fsStep = (a.fsStep + 1) % 8
}

// mixSample implements spec.md §4.8's sampling algorithm: combine the
// enabled PSG channels, scale by the PSG master volume, add the FIFO
// contributions at their own volume, add SOUNDBIAS, clamp and normalize.
func (a *APU) mixSample() {
	var leftPSG, rightPSG int32
	chans := [4]int8{a.ch1.sample(), a.ch2.sample(), 0, a.ch4.sample()}
	for i, s := range chans {
		if a.soundcntL&(1<<(12+uint(i))) != 0 {
			leftPSG += int32(s)
		}
		if a.soundcntL&(1<<(8+uint(i))) != 0 {
			rightPSG += int32(s)
		}
	}
	psgDiv := [4]int32{4, 2, 1, 1}[a.soundcntL&0x3]
	leftPSG = leftPSG * 8 / psgDiv
	rightPSG = rightPSG * 8 / psgDiv

	fifoVolShift := uint(1)
	if a.soundcntH&(1<<2) != 0 {
		fifoVolShift = 0 // 100%
	}
	fifoA := int32(a.fifoA.current) << (2 - fifoVolShift)
	fifoB := int32(a.fifoB.current) << (2 - fifoVolShift)

	var left, right int32 = leftPSG, rightPSG
	if a.soundcntH&(1<<8) != 0 {
		left += fifoA
	}
	if a.soundcntH&(1<<9) != 0 {
		right += fifoA
	}
	if a.soundcntH&(1<<12) != 0 {
		left += fifoB
	}
	if a.soundcntH&(1<<13) != 0 {
		right += fifoB
	}

	bias := int32(a.soundbias & 0x3FF)
	left += bias
	right += bias
	left = clamp10(left)
	right = clamp10(right)

	const center = 0x200
	a.out.Push(float32(left-center)/512, float32(right-center)/512)
}

func clamp10(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 0x3FF {
		return 0x3FF
	}
	return v
}
