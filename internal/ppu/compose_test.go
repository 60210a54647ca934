package ppu

import (
	"testing"

	"GoBA/internal/interrupt"

	"github.com/stretchr/testify/assert"
)

func TestBlendAlphaAverage(t *testing.T) {
	// EVA=8, EVB=8 (half each) of full-white top and full-black bottom.
	top := uint16(0x7FFF)
	bot := uint16(0x0000)
	got := blendAlpha(top, bot, 8|8<<8)
	assert.Equal(t, uint16(15), got&0x1F, "8/16 of 31 rounds down to 15 per channel")
}

func TestBlendBrightnessIncreaseTowardWhite(t *testing.T) {
	got := blendBrightness(0x0000, 16, true) // EVY=16 -> full increase
	assert.Equal(t, uint16(0x7FFF), got)
}

func TestBlendBrightnessDecreaseTowardBlack(t *testing.T) {
	got := blendBrightness(0x7FFF, 16, false)
	assert.Equal(t, uint16(0x0000), got)
}

func TestDecodeWindowByte(t *testing.T) {
	bg, obj, fx := decodeWindowByte(0b00101111)
	assert.Equal(t, [4]bool{true, true, true, true}, bg)
	assert.False(t, obj)
	assert.True(t, fx)
}

func TestSetupWindowsNoWindowEnabledAllowsEverything(t *testing.T) {
	p := New(interrupt.New())
	p.setupWindows(0)
	for x := 0; x < Width; x++ {
		assert.True(t, p.windowLine[x].effects, "no window active: every dot passes through enabled")
	}
}

func TestStampWindowOverridesWinout(t *testing.T) {
	p := New(interrupt.New())
	p.dispcnt |= 1 << 13 // WIN0 enabled
	p.win0h = uint16(10)<<8 | 50
	p.win0v = 0<<8 | uint16(Height)
	p.winin = 0x00 // inside WIN0: nothing enabled
	p.winout = 0x3F

	p.setupWindows(0)
	assert.False(t, p.windowLine[20].effects, "inside WIN0 uses WININ, not WINOUT")
	assert.True(t, p.windowLine[5].effects, "left of WIN0's range keeps WINOUT's settings")
}

func TestComposePixelPicksBackdropWhenNoLayersOpaque(t *testing.T) {
	p := New(interrupt.New())
	p.dispcnt = 1 << 8 // BG0 enabled, nothing drawn
	p.setupWindows(0)
	var bgPixels [4][Width]bgCandidate
	backdrop := uint16(0x1234) & 0x7FFF
	got := p.composePixel(0, 0, &bgPixels, backdrop)
	assert.Equal(t, backdrop, got)
}

func TestComposePixelHigherBGPriorityWins(t *testing.T) {
	p := New(interrupt.New())
	p.dispcnt = 1<<8 | 1<<9 // BG0, BG1 enabled
	p.bgcnt[0] = 2          // lower priority number = higher priority... BG0 priority field=2
	p.bgcnt[1] = 0          // BG1 priority=0, wins
	p.setupWindows(0)

	var bgPixels [4][Width]bgCandidate
	bgPixels[0][0] = bgCandidate{color: 0x111, opaque: true}
	bgPixels[1][0] = bgCandidate{color: 0x222, opaque: true}

	got := p.composePixel(0, 0, &bgPixels, 0)
	assert.Equal(t, uint16(0x222), got, "BG1's lower priority number wins over BG0")
}
