package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func romWithMarker(marker string) []byte {
	rom := make([]byte, 0x100)
	copy(rom[0x40:], marker) // 0x40 is 4-byte aligned
	return rom
}

func TestDetectBackupKindSRAM(t *testing.T) {
	c := New(romWithMarker("SRAM_V110"), nil)
	assert.Equal(t, BackupSRAM, c.Kind)
	assert.Equal(t, 32*1024, c.BackupByteSize())
}

func TestDetectBackupKindFlash128KPreferredOverGenericFlash(t *testing.T) {
	c := New(romWithMarker("FLASH1M_V102"), nil)
	assert.Equal(t, BackupFlash128K, c.Kind)
}

func TestDetectBackupKindNoneWhenNoMarkerPresent(t *testing.T) {
	c := New(make([]byte, 0x100), nil)
	assert.Equal(t, BackupNone, c.Kind)
	assert.Zero(t, c.BackupByteSize())
	assert.Nil(t, c.SaveBackup())
}

func TestSRAMReadWriteRoundTrip(t *testing.T) {
	c := New(romWithMarker("SRAM_V110"), nil)
	c.WriteBackup8(10, 0xAB)
	assert.Equal(t, uint8(0xAB), c.ReadBackup8(10))
}

func TestLoadBackupSeedsDetectedMedium(t *testing.T) {
	seed := make([]byte, 32*1024)
	seed[5] = 0x99
	c := New(romWithMarker("SRAM_V110"), seed)
	assert.Equal(t, uint8(0x99), c.ReadBackup8(5))
}

func TestReadROM8MirrorsPastImageLength(t *testing.T) {
	rom := make([]byte, 0x10)
	rom[4] = 0x55
	c := New(rom, nil)
	assert.Equal(t, uint8(0x55), c.ReadROM8(4+0x10))
}

func TestReadROM8EmptyImageReturnsOpenBus(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, uint8(0xFF), c.ReadROM8(0))
}

func TestEEPROMBackupExposedOnlyWhenDetected(t *testing.T) {
	sram := New(romWithMarker("SRAM_V110"), nil)
	assert.Nil(t, sram.EEPROM())

	eep := New(romWithMarker("EEPROM_V120"), nil)
	assert.NotNil(t, eep.EEPROM())
}
