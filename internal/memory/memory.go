// Package memory implements the GBA's fixed-size on-chip RAM blocks and the
// Boot ROM. Cartridge ROM/backup media live in internal/cartridge; region
// dispatch across all of these lives in internal/bus.
package memory

const (
	BIOSStart = 0x00000000
	BIOSEnd   = 0x00003FFF
	BIOSSize  = BIOSEnd - BIOSStart + 1 // 16KiB

	EWRAMStart = 0x02000000
	EWRAMEnd   = 0x0203FFFF
	EWRAMSize  = EWRAMEnd - EWRAMStart + 1 // 256KiB

	IWRAMStart = 0x03000000
	IWRAMEnd   = 0x03007FFF
	IWRAMSize  = IWRAMEnd - IWRAMStart + 1 // 32KiB
)
