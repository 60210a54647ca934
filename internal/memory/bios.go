package memory

// BIOS is the GBA's internal 16KiB Boot ROM. It is read-only; the caller
// (internal/bus) is responsible for enforcing the "only fetch from BIOS
// while PC is inside it" rule and for open-bus behavior on illegitimate
// reads, per spec.md §4.3.
type BIOS struct {
	data []byte
}

// NewBIOS wraps the given BIOS image. image is loaded by the host
// (cmd/goba) from an external file; BIOS loading is outside this package's
// scope. image is copied into a BIOSSize buffer, zero-padded/truncated if
// it's the wrong length.
func NewBIOS(image []byte) *BIOS {
	data := make([]byte, BIOSSize)
	copy(data, image)
	return &BIOS{data: data}
}

// Read8 reads a byte at offset (relative to BIOSStart).
func (b *BIOS) Read8(offset uint32) uint8 {
	return b.data[offset%BIOSSize]
}

// Read16 reads a little-endian halfword at offset.
func (b *BIOS) Read16(offset uint32) uint16 {
	lo := uint16(b.Read8(offset))
	hi := uint16(b.Read8(offset + 1))
	return lo | hi<<8
}

// Read32 reads a little-endian word at offset.
func (b *BIOS) Read32(offset uint32) uint32 {
	lo := uint32(b.Read16(offset))
	hi := uint32(b.Read16(offset + 2))
	return lo | hi<<16
}
