// Package gba wires every component into the single Console the host shell
// drives one frame at a time, per SPEC_FULL.md §6.
package gba

import (
	"errors"

	"GoBA/internal/apu"
	"GoBA/internal/bus"
	"GoBA/internal/cartridge"
	"GoBA/internal/cpu"
	"GoBA/internal/dma"
	"GoBA/internal/interrupt"
	"GoBA/internal/io"
	"GoBA/internal/joypad"
	"GoBA/internal/memory"
	"GoBA/internal/ppu"
	"GoBA/internal/scheduler"
	"GoBA/internal/timer"
)

// ErrInvalidImage reports a BIOS or ROM image that failed size/shape
// validation, per spec.md §7.
var ErrInvalidImage = errors.New("gba: invalid image")

const biosSize = 16 * 1024

// FrameWidth and FrameHeight are the dimensions of the buffer StepFrame
// returns, mirroring the GBA's fixed 240x160 LCD.
const (
	FrameWidth  = ppu.Width
	FrameHeight = ppu.Height
)

// Config holds emulation-affecting flags, distinct from the host's
// presentation-only settings (cmd/goba's Config), per SPEC_FULL.md §4.11.
// TraceOnBoot and FastForwardX are carried here but not read by the core.
type Config struct {
	SkipBIOS      bool
	TraceOnBoot   bool
	SampleRate    int
	FastForwardX  int
}

// JoypadState is the 10-bit host-reported button mask §6 describes.
type JoypadState struct {
	A, B, Select, Start          bool
	Right, Left, Up, Down        bool
	R, L                         bool
}

// Console is the fully wired emulator core: every component from
// spec.md §2's table, reachable only through StepFrame once constructed.
type Console struct {
	cfg Config

	irq     *interrupt.Controller
	keys    *joypad.Joypad
	timers  *timer.Bank
	dmaCtrl *dma.Arbiter
	ppu     *ppu.PPU
	apu     *apu.APU
	bus     *bus.Bus
	cpu     *cpu.CPU
	cart    *cartridge.Cartridge
}

// New validates bios/rom and wires a Console, ready for StepFrame.
// bios may be nil, in which case cfg.SkipBIOS is forced on and the CPU
// starts at the post-BIOS register snapshot.
func New(biosImage, romImage, backupImage []byte, cfg Config) (*Console, error) {
	if len(romImage) == 0 {
		return nil, ErrInvalidImage
	}
	if biosImage != nil && len(biosImage) != biosSize {
		return nil, ErrInvalidImage
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if biosImage == nil {
		cfg.SkipBIOS = true
	}

	bi := memory.NewBIOS(biosImage)
	cart := cartridge.New(romImage, backupImage)
	ioRegs := io.NewIORegs()
	irq := interrupt.New()
	sched := scheduler.New()

	b := bus.New(bi, cart, ioRegs)
	c := cpu.New(b, irq)

	pp := ppu.New(irq)
	tm := timer.New(irq)
	dm := dma.New(irq, cart)
	snd := apu.New(cfg.SampleRate)
	keys := joypad.New(irq)

	pp.AttachDMA(dm)
	tm.AttachAPU(snd)
	snd.AttachDMA(dm)
	dm.AttachBus(b)
	b.AttachPeripherals(pp, dm, tm, snd, keys, irq)
	b.AttachScheduler(sched)
	irq.AttachScheduler(sched)
	c.AttachScheduler(sched)

	con := &Console{
		cfg:     cfg,
		irq:     irq,
		keys:    keys,
		timers:  tm,
		dmaCtrl: dm,
		ppu:     pp,
		apu:     snd,
		bus:     b,
		cpu:     c,
		cart:    cart,
	}

	if biosImage == nil || cfg.SkipBIOS {
		c.ResetSkipBIOS()
	} else {
		c.Reset()
	}
	return con, nil
}

// applyKeys pushes the host's reported button state into the joypad.
func (con *Console) applyKeys(k JoypadState) {
	con.keys.SetButtonState(joypad.A, k.A)
	con.keys.SetButtonState(joypad.B, k.B)
	con.keys.SetButtonState(joypad.Select, k.Select)
	con.keys.SetButtonState(joypad.Start, k.Start)
	con.keys.SetButtonState(joypad.Right, k.Right)
	con.keys.SetButtonState(joypad.Left, k.Left)
	con.keys.SetButtonState(joypad.Up, k.Up)
	con.keys.SetButtonState(joypad.Down, k.Down)
	con.keys.SetButtonState(joypad.R, k.R)
	con.keys.SetButtonState(joypad.L, k.L)
}

// StepFrame runs the emulator until one video frame completes, applying the
// host's current button state first. It returns the completed 240x160
// BGR555 frame buffer and any audio samples produced during the frame,
// per SPEC_FULL.md §6's single per-frame entry point.
func (con *Console) StepFrame(keys JoypadState) (frame []uint16, samples [][2]float32) {
	con.applyKeys(keys)

	for !con.ppu.FrameReady() {
		cycles := con.cpu.Step()
		con.bus.Tick(cycles)
	}
	con.ppu.ConsumeFrame()

	frame = con.ppu.Frame()
	buf := make([][2]float32, con.apu.Available())
	n := con.apu.PullSamples(buf)
	return frame, buf[:n]
}

// SaveBackup returns the cartridge's backup medium bytes for the host to
// persist to a .sav file, or nil if the cartridge has none.
func (con *Console) SaveBackup() []byte { return con.cart.SaveBackup() }

// Title returns the cartridge's ASCII game title from its ROM header.
func (con *Console) Title() string { return con.cart.Title() }
