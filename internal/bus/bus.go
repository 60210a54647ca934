// Package bus implements the GBA's 32-bit address space dispatcher: region
// routing, mirroring, wait-state cycle costs and open-bus behavior, per
// spec.md §4.3.
package bus

import (
	"GoBA/internal/cartridge"
	"GoBA/internal/interfaces"
	"GoBA/internal/io"
	"GoBA/internal/memory"
	"GoBA/internal/scheduler"
	"GoBA/util/dbg"
)

// Region boundaries, high nibble of bits 27:24.
const (
	biosEnd  = 0x00003FFF
	ewramEnd = 0x02FFFFFF
	iwramEnd = 0x03FFFFFF
	ioEnd    = 0x04FFFFFF
	palEnd   = 0x05FFFFFF
	vramEnd  = 0x06FFFFFF
	oamEnd   = 0x07FFFFFF
	romEnd   = 0x0DFFFFFF
	sramEnd  = 0x0FFFFFFF

	ewramStart = 0x02000000
	iwramStart = 0x03000000
	ioStart    = 0x04000000
	palStart   = 0x05000000
	vramStart  = 0x06000000
	oamStart   = 0x07000000
	romStart   = 0x08000000
	sramStart  = 0x0E000000

	vramVisible = 96 * 1024
	vramFold    = 128 * 1024
)

// Bus wires the CPU to every memory-mapped component. Peripherals that
// depend on the bus for their own accesses (PPU, DMA, timers, APU, keypad,
// interrupt controller) are attached after construction via
// AttachPeripherals, breaking the construction cycle internal/gba would
// otherwise hit wiring them all together.
type Bus struct {
	BIOS   *memory.BIOS
	EWRAM  *memory.EWRAM
	IWRAM  *memory.IWRAM
	IORegs *io.IORegs
	Cart   *cartridge.Cartridge

	PPU   interfaces.PPUInterface
	DMA   interfaces.DMAInterface
	Timer interfaces.TimerInterface
	APU   interfaces.APUInterface
	Keys  interfaces.JoypadInterface
	IRQ   interfaces.InterruptInterface

	sched *scheduler.Scheduler

	lastBIOSWord uint32 // most recent word successfully fetched from BIOS, for open-bus reads
}

// New constructs a Bus with its always-present memories. Peripherals are
// wired in with AttachPeripherals once they exist.
func New(bios *memory.BIOS, cart *cartridge.Cartridge, ioRegs *io.IORegs) *Bus {
	return &Bus{
		BIOS:   bios,
		EWRAM:  memory.NewEWRAM(),
		IWRAM:  memory.NewIWRAM(),
		IORegs: ioRegs,
		Cart:   cart,
	}
}

// AttachPeripherals wires the clocked/IO-mapped components built after the
// bus itself.
func (b *Bus) AttachPeripherals(ppu interfaces.PPUInterface, dma interfaces.DMAInterface, tm interfaces.TimerInterface, apu interfaces.APUInterface, keys interfaces.JoypadInterface, irq interfaces.InterruptInterface) {
	b.PPU = ppu
	b.DMA = dma
	b.Timer = tm
	b.APU = apu
	b.Keys = keys
	b.IRQ = irq
}

// AttachScheduler wires the bus to the console's event scheduler. Once
// attached, every Tick advances the scheduler's clock and dispatches
// whatever callbacks (notably the IRQ latch registered by cpu.CPU) have
// come due.
func (b *Bus) AttachScheduler(s *scheduler.Scheduler) {
	b.sched = s
}

func foldVRAM(offset uint32) uint32 {
	if offset < vramVisible {
		return offset
	}
	offset %= vramFold
	if offset >= 0x18000 {
		offset -= 0x8000
	}
	return offset
}

// romWindow returns which of the three mirrored ROM wait-state windows
// (0, 1, 2) addr falls in.
func romWindow(addr uint32) int {
	return int((addr - romStart) / 0x02000000)
}

// cost returns the fixed cycle price of one access of the given width (8,
// 16 or 32) to the region addr falls in, per spec.md §4.3 step 4. ROM and
// SRAM/Flash go through IORegs' WAITCNT-driven tables instead, since their
// cost depends on the access sequence, not just width.
func (b *Bus) cost(addr uint32, width int) int {
	switch {
	case addr <= biosEnd, addr >= iwramStart && addr <= iwramEnd, addr >= oamStart && addr <= oamEnd:
		return 1
	case addr >= ewramStart && addr <= ewramEnd:
		if width == 32 {
			return 6
		}
		return 3
	case addr >= ioStart && addr <= ioEnd:
		return 1
	case addr >= palStart && addr <= palEnd, addr >= vramStart && addr <= vramEnd:
		if width == 32 {
			return 2
		}
		return 1
	case addr >= romStart && addr <= romEnd:
		return b.IORegs.ROMWaitCycles(romWindow(addr), width, false)
	case addr >= sramStart && addr <= sramEnd:
		return b.IORegs.SRAMWaitCycles()
	default:
		return 1
	}
}

// raw8 returns the data byte at addr with no cycle accounting, dispatching
// across every mapped region.
func (b *Bus) raw8(addr uint32) uint8 {
	switch {
	case addr <= biosEnd:
		return b.BIOS.Read8(addr)
	case addr >= ewramStart && addr <= ewramEnd:
		return b.EWRAM.Read8((addr - ewramStart) % memory.EWRAMSize)
	case addr >= iwramStart && addr <= iwramEnd:
		return b.IWRAM.Read8((addr - iwramStart) % memory.IWRAMSize)
	case addr >= ioStart && addr <= ioEnd:
		return b.readIO8((addr - ioStart) % 0x400)
	case addr >= palStart && addr <= palEnd:
		return b.PPU.ReadPaletteRAM8((addr - palStart) % 0x400)
	case addr >= vramStart && addr <= vramEnd:
		return b.PPU.ReadVRAM8(foldVRAM((addr - vramStart) % vramFold))
	case addr >= oamStart && addr <= oamEnd:
		return b.PPU.ReadOAM8((addr - oamStart) % 0x400)
	case addr >= romStart && addr <= romEnd:
		return b.Cart.ReadROM8(addr - romStart)
	case addr >= sramStart && addr <= sramEnd:
		return b.readBackup8(addr)
	default:
		dbg.Printf("bus: open-bus read at %08X\n", addr)
		return uint8(b.lastBIOSWord)
	}
}

func (b *Bus) readBackup8(addr uint32) uint8 {
	size := b.Cart.BackupByteSize()
	if size == 0 {
		return 0xFF
	}
	return b.Cart.ReadBackup8((addr - sramStart) % uint32(size))
}

func (b *Bus) readIO8(off uint32) uint8 {
	for _, c := range b.ioComponents() {
		if c == nil {
			continue
		}
		if v, ok := c.ReadIO8(off); ok {
			return v
		}
	}
	dbg.Printf("bus: unhandled I/O read at offset %03X\n", off)
	return 0
}

func (b *Bus) ioComponents() [7]interfaces.IOComponent {
	return [7]interfaces.IOComponent{b.PPU, b.APU, b.DMA, b.Timer, b.Keys, b.IRQ, b.IORegs}
}

// writeRaw8 writes one data byte with no cycle accounting and no width
// broadcast (that's layered on top by Write8/16/32's region-aware callers).
func (b *Bus) writeRaw8(addr uint32, v uint8) {
	switch {
	case addr <= biosEnd:
		// BIOS is read-only.
	case addr >= ewramStart && addr <= ewramEnd:
		b.EWRAM.Write8((addr-ewramStart)%memory.EWRAMSize, v)
	case addr >= iwramStart && addr <= iwramEnd:
		b.IWRAM.Write8((addr-iwramStart)%memory.IWRAMSize, v)
	case addr >= ioStart && addr <= ioEnd:
		b.writeIO8((addr-ioStart)%0x400, v)
	case addr >= palStart && addr <= palEnd:
		off := (addr - palStart) % 0x400 &^ 1
		b.PPU.WritePaletteRAM8(off, v)
		b.PPU.WritePaletteRAM8(off+1, v)
	case addr >= vramStart && addr <= vramEnd:
		off := foldVRAM((addr - vramStart) % vramFold) &^ 1
		b.PPU.WriteVRAM8(off, v)
		b.PPU.WriteVRAM8(off+1, v)
	case addr >= oamStart && addr <= oamEnd:
		// byte writes to OAM are silently dropped
	case addr >= romStart && addr <= romEnd:
		// ROM is read-only
	case addr >= sramStart && addr <= sramEnd:
		size := b.Cart.BackupByteSize()
		if size != 0 {
			b.Cart.WriteBackup8((addr-sramStart)%uint32(size), v)
		}
	default:
		dbg.Printf("bus: open-bus write at %08X\n", addr)
	}
}

func (b *Bus) writeIO8(off uint32, v uint8) {
	if off == 0x301 { // HALTCNT: bit 7 clear requests HALT, set requests STOP
		if h, ok := b.IRQ.(interface{ Halt(); Stop() }); ok {
			if v&0x80 != 0 {
				h.Stop()
			} else {
				h.Halt()
			}
		}
	}
	for _, c := range b.ioComponents() {
		if c == nil {
			continue
		}
		if c.WriteIO8(off, v) {
			return
		}
	}
	dbg.Printf("bus: unhandled I/O write at offset %03X\n", off)
}

// Read8 reads one byte and its cycle cost.
func (b *Bus) Read8(addr uint32) (uint8, int) {
	return b.raw8(addr), b.cost(addr, 8)
}

// Write8 writes one byte. A write narrower than a region's native width to
// palette RAM/VRAM broadcasts to both bytes of the containing halfword, per
// spec.md §4.1; byte writes to OAM/ROM/BIOS are dropped.
func (b *Bus) Write8(addr uint32, v uint8) int {
	b.writeRaw8(addr, v)
	return b.cost(addr, 8)
}

// Read16 reads a little-endian halfword, aligning addr down to the
// halfword boundary per spec.md §4.3 step 1.
func (b *Bus) Read16(addr uint32) (uint16, int) {
	addr &^= 1
	lo := uint16(b.raw8(addr))
	hi := uint16(b.raw8(addr + 1))
	return lo | hi<<8, b.cost(addr, 16)
}

// Write16 writes a little-endian halfword, aligned down.
func (b *Bus) Write16(addr uint32, v uint16) int {
	addr &^= 1
	b.writeRaw8(addr, uint8(v))
	b.writeRaw8(addr+1, uint8(v>>8))
	return b.cost(addr, 16)
}

// Read32 reads a little-endian word, aligned down.
func (b *Bus) Read32(addr uint32) (uint32, int) {
	addr &^= 3
	b0 := uint32(b.raw8(addr))
	b1 := uint32(b.raw8(addr + 1))
	b2 := uint32(b.raw8(addr + 2))
	b3 := uint32(b.raw8(addr + 3))
	v := b0 | b1<<8 | b2<<16 | b3<<24
	if addr <= biosEnd {
		b.lastBIOSWord = v
	}
	return v, b.cost(addr, 32)
}

// Write32 writes a little-endian word, aligned down.
func (b *Bus) Write32(addr uint32, v uint32) int {
	addr &^= 3
	b.writeRaw8(addr, uint8(v))
	b.writeRaw8(addr+1, uint8(v>>8))
	b.writeRaw8(addr+2, uint8(v>>16))
	b.writeRaw8(addr+3, uint8(v>>24))
	return b.cost(addr, 32)
}

// Tick fans a completed CPU step's cycle count out to every clocked
// peripheral, then advances the scheduler and dispatches whatever events
// it now finds due. Peripheral order (APU, timers, DMA, PPU) matches the
// reference EventType priority order, so a same-cycle tie between two
// peripherals' own IRQ requests resolves the way the scheduler's ordinal
// tie-break would.
func (b *Bus) Tick(cycles int) {
	if b.APU != nil {
		b.APU.Tick(cycles)
	}
	if b.Timer != nil {
		b.Timer.Tick(cycles)
	}
	if b.DMA != nil {
		b.DMA.Tick(cycles)
	}
	if b.PPU != nil {
		b.PPU.Tick(cycles)
	}
	if b.sched != nil {
		b.sched.Step(uint64(cycles))
		b.sched.RunDue()
	}
}
