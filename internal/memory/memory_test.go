package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBIOSReadsBackImageBytes(t *testing.T) {
	img := make([]byte, 4)
	img[0], img[1], img[2], img[3] = 0x12, 0x34, 0x56, 0x78
	b := NewBIOS(img)
	assert.Equal(t, uint32(0x78563412), b.Read32(0))
}

func TestBIOSShorterImageIsZeroPadded(t *testing.T) {
	b := NewBIOS([]byte{0xAB})
	assert.Equal(t, uint8(0xAB), b.Read8(0))
	assert.Equal(t, uint8(0), b.Read8(1))
}

func TestBIOSReadWrapsAtSize(t *testing.T) {
	img := make([]byte, BIOSSize)
	img[0] = 0x42
	b := NewBIOS(img)
	assert.Equal(t, uint8(0x42), b.Read8(BIOSSize))
}

func TestEWRAMReadWriteWraps(t *testing.T) {
	e := NewEWRAM()
	e.Write8(5, 0x99)
	assert.Equal(t, uint8(0x99), e.Read8(5+EWRAMSize))
}

func TestIWRAMReadWriteWraps(t *testing.T) {
	w := NewIWRAM()
	w.Write8(3, 0x7A)
	assert.Equal(t, uint8(0x7A), w.Read8(3+IWRAMSize))
}
