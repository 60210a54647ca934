// Package ppu implements the GBA picture processor: the 228-line scanline
// timer, the four background renderers (text and affine), sprite
// evaluation, windowing and blending, per spec.md §4.7.
package ppu

import "GoBA/internal/interrupt"

const (
	Width  = 240
	Height = 160

	cyclesPerLine = 1232
	hblankAt      = 960
	linesPerFrame = 228
)

// DMANotifier lets the PPU kick off HBlank/VBlank-triggered DMA transfers
// without importing internal/dma.
type DMANotifier interface {
	NotifyHBlank()
	NotifyVBlank()
}

// affineBG holds one affine background's 2x2 transform matrix and its
// per-frame reference-point accumulator, per spec.md §4.7's affine formula.
type affineBG struct {
	pa, pb, pc, pd int16
	refXReg        int32 // value last written to Xn registers (28-bit signed, .8 fixed point)
	refYReg        int32
	x, y           int32 // running accumulator, reloaded from refXReg/refYReg at VBlank
}

// PPU is the picture processor: its own VRAM/palette/OAM memories, the
// DISPCNT-family registers, and the scanline-driven renderer.
type PPU struct {
	irq *interrupt.Controller
	dma DMANotifier

	vram [0x18000]byte
	pram [0x400]byte
	oam  [0x400]byte

	dispcnt  uint16
	dispstat uint16
	vcount   uint16

	bgcnt  [4]uint16
	bghofs [4]uint16
	bgvofs [4]uint16
	affine [2]affineBG // index 0 = BG2, index 1 = BG3

	win0h, win1h  uint16
	win0v, win1v  uint16
	winin, winout uint16
	mosaic        uint16
	bldcnt        uint16
	bldalpha      uint16
	bldy          uint16

	dotCycle int

	frame      [Width * Height]uint16
	frameReady bool

	spriteLine [Width]spritePixel
	windowLine [Width]windowRecord
}

// New returns a PPU wired to the interrupt controller it requests
// HBlank/VBlank/VCount interrupts through.
func New(irq *interrupt.Controller) *PPU {
	return &PPU{irq: irq}
}

// AttachDMA wires the DMA arbiter so HBlank/VBlank can kick its triggers.
func (p *PPU) AttachDMA(d DMANotifier) { p.dma = d }

// Frame returns the most recently completed frame as BGR555 texels,
// row-major, per spec.md §6.
func (p *PPU) Frame() []uint16 { return p.frame[:] }

// FrameReady reports whether a new frame has been completed since the last
// call to ConsumeFrame.
func (p *PPU) FrameReady() bool { return p.frameReady }

// ConsumeFrame clears the frame-ready latch; called by internal/gba once it
// has copied or handed off the frame buffer to the host.
func (p *PPU) ConsumeFrame() { p.frameReady = false }

// Tick advances the scanline timer by cycles, rendering a scanline at its
// HBlank point and firing HBlank/VBlank/VCount interrupts and DMA triggers
// at the appropriate transitions, per spec.md §4.7.
func (p *PPU) Tick(cycles int) {
	for cycles > 0 {
		remaining := cyclesPerLine - p.dotCycle
		step := cycles
		if step > remaining {
			step = remaining
		}
		wasHBlank := p.dotCycle >= hblankAt
		p.dotCycle += step
		cycles -= step

		if !wasHBlank && p.dotCycle >= hblankAt {
			p.enterHBlank()
		}
		if p.dotCycle >= cyclesPerLine {
			p.dotCycle -= cyclesPerLine
			p.advanceLine()
		}
	}
}

func (p *PPU) enterHBlank() {
	if p.vcount < Height {
		p.renderScanline(int(p.vcount))
	}
	p.dispstat |= 1 << 1
	if p.dispstat&(1<<4) != 0 {
		p.irq.Request(interrupt.HBlank)
	}
	if p.dma != nil {
		p.dma.NotifyHBlank()
	}
}

func (p *PPU) advanceLine() {
	p.dispstat &^= 1 << 1 // HBlank flag clears at the start of every line
	p.vcount++
	if p.vcount == Height {
		p.enterVBlank()
	}
	if p.vcount == linesPerFrame {
		p.vcount = 0
		p.dispstat &^= 1 << 0
	}
	p.checkVCountMatch()
	if p.vcount < Height {
		for i := range p.affine {
			p.affine[i].x += int32(p.affine[i].pb)
			p.affine[i].y += int32(p.affine[i].pd)
		}
	}
}

func (p *PPU) enterVBlank() {
	p.dispstat |= 1 << 0
	if p.dispstat&(1<<3) != 0 {
		p.irq.Request(interrupt.VBlank)
	}
	if p.dma != nil {
		p.dma.NotifyVBlank()
	}
	p.frameReady = true
	for i := range p.affine {
		p.affine[i].x = p.affine[i].refXReg
		p.affine[i].y = p.affine[i].refYReg
	}
}

func (p *PPU) checkVCountMatch() {
	lyc := uint16(p.dispstat >> 8)
	if p.vcount == lyc {
		p.dispstat |= 1 << 2
		if p.dispstat&(1<<5) != 0 {
			p.irq.Request(interrupt.VCount)
		}
	} else {
		p.dispstat &^= 1 << 2
	}
}
