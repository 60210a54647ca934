package interfaces

// IOComponent is satisfied by every piece of hardware that owns a slice of
// the 0x04000000 I/O register block (PPU, APU, DMA, timers, keypad,
// interrupt controller). addr is the byte offset from 0x04000000.
// Implementations report ok=false for addresses they don't own so
// internal/bus can fall through to the next component, or to open bus.
type IOComponent interface {
	ReadIO8(addr uint32) (uint8, bool)
	WriteIO8(addr uint32, v uint8) bool
}

// Ticker advances a component's internal state by a number of CPU cycles
// that have already elapsed, the fan-out pattern every clocked peripheral
// (PPU, APU, DMA, timers) shares.
type Ticker interface {
	Tick(cycles int)
}

// PPUInterface is the contract internal/bus drives the picture processor
// through: its I/O register window plus the three memories (palette, VRAM,
// OAM) that aren't part of the general address-space dispatch because the
// PPU applies its own mirroring/width rules to them.
type PPUInterface interface {
	IOComponent
	Ticker
	ReadPaletteRAM8(offset uint32) uint8
	WritePaletteRAM8(offset uint32, v uint8)
	ReadVRAM8(offset uint32) uint8
	WriteVRAM8(offset uint32, v uint8)
	ReadOAM8(offset uint32) uint8
	WriteOAM8(offset uint32, v uint8)
}

// DMAInterface is the 4-channel DMA arbiter's contract: its register
// window, plus Tick so it can catch up to triggers queued since the last
// CPU step.
type DMAInterface interface {
	IOComponent
	Ticker
}

// TimerInterface is the 4-timer chain's contract.
type TimerInterface interface {
	IOComponent
	Ticker
}

// APUInterface is the sound mixer's contract.
type APUInterface interface {
	IOComponent
	Ticker
}

// JoypadInterface is the keypad's contract: KEYINPUT/KEYCNT only, no
// ticking (state changes only on host input, not on a cycle clock).
type JoypadInterface interface {
	IOComponent
}

// InterruptInterface is the interrupt controller's contract: IE/IF/IME,
// plus whatever else lives in that register window.
type InterruptInterface interface {
	IOComponent
}
