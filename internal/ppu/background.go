package ppu

// textMapSize returns (tiles-wide, tiles-tall) for a text BG's size field
// (bits 14-15 of BGCNT).
func textMapSize(size uint16) (int, int) {
	switch size {
	case 0:
		return 32, 32
	case 1:
		return 64, 32
	case 2:
		return 32, 64
	default:
		return 64, 64
	}
}

// affineMapTiles returns the tiles-per-side of an affine BG's square map
// (bits 14-15 of BGCNT).
func affineMapTiles(size uint16) int {
	return 16 << size
}

// renderTextBGPixel renders background bg's pixel at screen column x of scanline y,
// returning the 15-bit color and whether it's opaque (non-backdrop).
func (p *PPU) renderTextBGPixel(bg, x, y int) (uint16, bool) {
	cnt := p.bgcnt[bg]
	charBase := uint32((cnt>>2)&0x3) * 0x4000
	screenBase := uint32((cnt>>8)&0x1F) * 0x800
	depth8 := cnt&(1<<7) != 0
	mapW, mapH := textMapSize((cnt >> 14) & 0x3)

	scrollX := int(p.bghofs[bg])
	scrollY := int(p.bgvofs[bg])
	mapX := (x + scrollX) % (mapW * 8)
	mapY := (y + scrollY) % (mapH * 8)
	if mapX < 0 {
		mapX += mapW * 8
	}
	if mapY < 0 {
		mapY += mapH * 8
	}

	tileX, tileY := mapX/8, mapY/8
	blockX, blockY := tileX/32, tileY/32
	localTileX, localTileY := tileX%32, tileY%32

	var blockIndex int
	switch {
	case mapW == 64 && mapH == 64:
		blockIndex = blockY*2 + blockX
	case mapW == 64:
		blockIndex = blockX
	case mapH == 64:
		blockIndex = blockY
	default:
		blockIndex = 0
	}

	entryAddr := screenBase + uint32(blockIndex)*0x800 + uint32(localTileY*32+localTileX)*2
	entry := uint16(p.vram[entryAddr]) | uint16(p.vram[entryAddr+1])<<8
	tileNum := int(entry & 0x3FF)
	hflip := entry&(1<<10) != 0
	vflip := entry&(1<<11) != 0
	palBank := int((entry >> 12) & 0xF)

	inTileX, inTileY := mapX%8, mapY%8
	if hflip {
		inTileX = 7 - inTileX
	}
	if vflip {
		inTileY = 7 - inTileY
	}

	if depth8 {
		addr := charBase + uint32(tileNum)*64 + uint32(inTileY)*8 + uint32(inTileX)
		idx := p.vram[addr]
		if idx == 0 {
			return 0, false
		}
		return p.paletteColor16(int(idx)), true
	}
	addr := charBase + uint32(tileNum)*32 + uint32(inTileY)*4 + uint32(inTileX/2)
	b := p.vram[addr]
	var nibble uint8
	if inTileX%2 == 0 {
		nibble = b & 0xF
	} else {
		nibble = b >> 4
	}
	if nibble == 0 {
		return 0, false
	}
	return p.paletteColor16(palBank*16 + int(nibble)), true
}

// renderAffineBGPixel renders affine background bg (0 => BG2, 1 => BG3) at
// screen column x of the current scanline, per spec.md §4.7's affine
// formula. wraps selects the Display Area Overflow behavior (BGCNT bit 13).
func (p *PPU) renderAffineBGPixel(bg, x int) (uint16, bool) {
	cnt := p.bgcnt[2+bg]
	charBase := uint32((cnt>>2)&0x3) * 0x4000
	screenBase := uint32((cnt>>8)&0x1F) * 0x800
	wraps := cnt&(1<<13) != 0
	tilesPerSide := affineMapTiles((cnt >> 14) & 0x3)
	mapPixels := tilesPerSide * 8

	a := &p.affine[bg]
	px := int32(a.x) + int32(a.pa)*int32(x)
	py := int32(a.y) + int32(a.pc)*int32(x)
	tx := int(px >> 8)
	ty := int(py >> 8)

	if wraps {
		tx = ((tx % mapPixels) + mapPixels) % mapPixels
		ty = ((ty % mapPixels) + mapPixels) % mapPixels
	} else if tx < 0 || ty < 0 || tx >= mapPixels || ty >= mapPixels {
		return 0, false
	}

	tileX, tileY := tx/8, ty/8
	entryAddr := screenBase + uint32(tileY*tilesPerSide+tileX)
	tileNum := uint32(p.vram[entryAddr])
	inTileX, inTileY := tx%8, ty%8

	addr := charBase + tileNum*64 + uint32(inTileY)*8 + uint32(inTileX)
	idx := p.vram[addr]
	if idx == 0 {
		return 0, false
	}
	return p.paletteColor16(int(idx)), true
}

// renderBitmapPixel implements modes 3-5's direct/paletted bitmap
// backgrounds on BG2, per spec.md §4.7 step 5.
func (p *PPU) renderBitmapPixel(mode, x, y int) (uint16, bool) {
	switch mode {
	case 3:
		addr := uint32(y*Width+x) * 2
		if int(addr)+1 >= len(p.vram) {
			return 0, false
		}
		c := uint16(p.vram[addr]) | uint16(p.vram[addr+1])<<8
		return c, true
	case 4:
		frameBase := uint32(0)
		if p.frameSelect() == 1 {
			frameBase = 0xA000
		}
		addr := frameBase + uint32(y*Width+x)
		if int(addr) >= len(p.vram) {
			return 0, false
		}
		idx := p.vram[addr]
		if idx == 0 {
			return 0, false
		}
		return p.paletteColor16(int(idx)), true
	case 5:
		const bmW, bmH = 160, 128
		if x >= bmW || y >= bmH {
			return 0, false
		}
		frameBase := uint32(0)
		if p.frameSelect() == 1 {
			frameBase = 0xA000
		}
		addr := frameBase + uint32(y*bmW+x)*2
		if int(addr)+1 >= len(p.vram) {
			return 0, false
		}
		c := uint16(p.vram[addr]) | uint16(p.vram[addr+1])<<8
		return c, true
	}
	return 0, false
}
