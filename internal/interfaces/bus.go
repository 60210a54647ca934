package interfaces

// BusInterface is the address-space dispatcher contract. Every access costs
// cycles (wait states, region timing); callers that don't care about timing
// can discard the second/only return value.
type BusInterface interface {
	Read8(addr uint32) (uint8, int)
	Read16(addr uint32) (uint16, int)
	Read32(addr uint32) (uint32, int)
	Write8(addr uint32, v uint8) int
	Write16(addr uint32, v uint16) int
	Write32(addr uint32, v uint32) int
}
