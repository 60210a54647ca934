package bus

import (
	"testing"

	"GoBA/internal/cartridge"
	"GoBA/internal/io"
	"GoBA/internal/memory"

	"github.com/stretchr/testify/assert"
)

func newTestBus() *Bus {
	cart := cartridge.New(make([]byte, 0x1000), nil)
	return New(memory.NewBIOS(nil), cart, io.NewIORegs())
}

func TestEWRAMReadWriteRoundTrip(t *testing.T) {
	b := newTestBus()
	b.Write32(0x02000100, 0xDEADBEEF)
	v, cost := b.Read32(0x02000100)
	assert.Equal(t, uint32(0xDEADBEEF), v)
	assert.Equal(t, 6, cost, "32-bit EWRAM access costs 6 cycles")
}

func TestIWRAMNarrowerCostThanEWRAM(t *testing.T) {
	b := newTestBus()
	_, costIW := b.Read8(0x03000000)
	_, costEW := b.Read16(0x02000000)
	assert.Equal(t, 1, costIW)
	assert.Equal(t, 3, costEW)
}

func TestEWRAMMirrorsAcrossItsRegion(t *testing.T) {
	b := newTestBus()
	b.Write8(0x02000005, 0x42)
	v, _ := b.Read8(0x02000005 + memory.EWRAMSize)
	assert.Equal(t, uint8(0x42), v, "EWRAM repeats every EWRAMSize bytes across its address window")
}

func TestUnalignedReadsAlignDown(t *testing.T) {
	b := newTestBus()
	b.Write32(0x03000000, 0x11223344)
	v, _ := b.Read16(0x03000003) // misaligned, should fold to 0x03000002
	assert.Equal(t, uint16(0x1122), v)
}

func TestROMReadMirrorsAcrossThreeWindows(t *testing.T) {
	rom := make([]byte, 0x200)
	rom[0x10] = 0x77
	cart := cartridge.New(rom, nil)
	b := New(memory.NewBIOS(nil), cart, io.NewIORegs())

	v1, _ := b.Read8(0x08000010)
	v2, _ := b.Read8(0x0A000010)
	assert.Equal(t, uint8(0x77), v1)
	assert.Equal(t, v1, v2, "waitstate windows 0 and 2 mirror the same ROM bytes")
}

func TestSRAMReadsOpenBusWithoutBackup(t *testing.T) {
	b := newTestBus() // cartridge has no save data to autodetect
	v, _ := b.Read8(0x0E000000)
	assert.Equal(t, uint8(0xFF), v, "no detected backup medium reads as open bus 0xFF")
}

func TestWriteIO8DispatchesToAttachedComponent(t *testing.T) {
	b := newTestBus()
	fake := &stubIO{}
	b.AttachPeripherals(nil, nil, nil, nil, nil, nil)
	b.Keys = fake
	b.writeIO8(0x130, 0x55)
	assert.Equal(t, []uint8{0x55}, fake.written)
}

type stubIO struct{ written []uint8 }

func (s *stubIO) ReadIO8(addr uint32) (uint8, bool) { return 0, false }
func (s *stubIO) WriteIO8(addr uint32, v uint8) bool {
	s.written = append(s.written, v)
	return true
}
