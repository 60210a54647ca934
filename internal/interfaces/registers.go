// Package interfaces collects the small cross-package contracts that let
// internal/cpu, internal/bus, internal/ppu and friends depend on each other's
// shape without importing each other's concrete packages.
package interfaces

// RegistersInterface is the contract the CPU core uses to read and mutate
// the ARM7TDMI register file. A single implementation (internal/cpu.Registers)
// backs it; the interface exists so internal/bus and internal/ppu can be
// constructed without importing internal/cpu.
type RegistersInterface interface {
	GetReg(n uint8) uint32
	SetReg(n uint8, v uint32)
	GetPC() uint32
	SetPC(v uint32)

	GetCPSR() uint32
	SetCPSR(v uint32)
	GetSPSR() uint32
	SetSPSR(v uint32)
	SaveCPSRToSPSR()
	LoadSPSRToCPSR()

	GetMode() uint8
	SetMode(mode uint8)
	IsThumb() bool
	SetThumbState(thumb bool)
	IsIRQDisabled() bool
	SetIRQDisabled(disabled bool)
	IsFIQDisabled() bool
	SetFIQDisabled(disabled bool)

	GetFlagN() bool
	GetFlagZ() bool
	GetFlagC() bool
	GetFlagV() bool
	SetFlagN(v bool)
	SetFlagZ(v bool)
	SetFlagC(v bool)
	SetFlagV(v bool)
}
