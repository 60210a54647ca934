package ppu

// spritePixel is one dot's winning sprite candidate, kept across the full
// OAM scan so the final compose pass only has to look at the highest
// priority non-transparent hit.
type spritePixel struct {
	color           uint16
	opaque          bool
	priority        uint8
	semiTransparent bool
}

var shapeSizeTable = [4][4][2]int{
	0: {{8, 8}, {16, 16}, {32, 32}, {64, 64}},
	1: {{16, 8}, {32, 8}, {32, 16}, {64, 32}},
	2: {{8, 16}, {8, 32}, {16, 32}, {32, 64}},
}

// affineSpriteParams reads one of the 32 affine parameter groups, stored in
// the attr3 slot of 4 consecutive OAM entries.
func (p *PPU) affineSpriteParams(group int) (pa, pb, pc, pd int16) {
	base := group * 32
	read := func(entryOffset int) int16 {
		addr := base + entryOffset*8 + 6
		return int16(uint16(p.oam[addr]) | uint16(p.oam[addr+1])<<8)
	}
	return read(0), read(1), read(2), read(3)
}

// evaluateSprites scans all 128 OAM entries for the given scanline. When
// objWindowPass is false it renders gfxMode 0/1 sprites into p.spriteLine;
// when true it stamps the OBJ-window record onto p.windowLine wherever a
// gfxMode=2 sprite covers a non-transparent dot, per spec.md §4.7.
func (p *PPU) evaluateSprites(scanline int, objWindowPass bool) {
	if !objWindowPass {
		for i := range p.spriteLine {
			p.spriteLine[i] = spritePixel{}
		}
	}
	charBase := uint32(0x10000)
	if p.mode() >= 3 {
		charBase = 0x14000
	}
	objWinBG, objWinObj, objWinFx := decodeWindowByte(uint8(p.winout >> 8))

	for entry := 0; entry < 128; entry++ {
		base := entry * 8
		attr0 := uint16(p.oam[base]) | uint16(p.oam[base+1])<<8
		attr1 := uint16(p.oam[base+2]) | uint16(p.oam[base+3])<<8
		attr2 := uint16(p.oam[base+4]) | uint16(p.oam[base+5])<<8

		affine := attr0&0x100 != 0
		flag9 := attr0&0x200 != 0
		if !affine && flag9 {
			continue // disabled
		}
		gfxMode := (attr0 >> 10) & 0x3
		if gfxMode == 3 {
			continue
		}
		isWindowSprite := gfxMode == 2
		if isWindowSprite != objWindowPass {
			continue
		}

		shape := (attr0 >> 14) & 0x3
		if shape == 3 {
			continue
		}
		size := (attr1 >> 14) & 0x3
		dims := shapeSizeTable[shape][size]
		width, height := dims[0], dims[1]

		boundW, boundH := width, height
		doubleSize := affine && flag9
		if doubleSize {
			boundW, boundH = width*2, height*2
		}

		y := int(attr0 & 0xFF)
		if y >= Height {
			y -= 256
		}
		if scanline < y || scanline >= y+boundH {
			continue
		}
		x := int(attr1 & 0x1FF)
		if x >= 256 {
			x -= 512
		}

		depth8 := attr0&0x2000 != 0
		tileNum := int(attr2 & 0x3FF)
		priority := uint8((attr2 >> 10) & 0x3)
		palBank := int((attr2 >> 12) & 0xF)

		var pa, pb, pc, pd int16
		if affine {
			group := int((attr1 >> 9) & 0x1F)
			pa, pb, pc, pd = p.affineSpriteParams(group)
		}

		for col := 0; col < boundW; col++ {
			screenX := x + col
			if screenX < 0 || screenX >= Width {
				continue
			}
			var lx, ly int
			if affine {
				dx := col - boundW/2
				dy := scanline - y - boundH/2
				tx := (int32(width/2)<<8 + int32(pa)*int32(dx) + int32(pb)*int32(dy)) >> 8
				ty := (int32(height/2)<<8 + int32(pc)*int32(dx) + int32(pd)*int32(dy)) >> 8
				if tx < 0 || ty < 0 || int(tx) >= width || int(ty) >= height {
					continue
				}
				lx, ly = int(tx), int(ty)
			} else {
				lx, ly = col, scanline-y
				if attr1&(1<<12) != 0 {
					lx = width - 1 - lx
				}
				if attr1&(1<<13) != 0 {
					ly = height - 1 - ly
				}
			}

			colorIdx, opaque := p.spriteTexel(charBase, tileNum, width, lx, ly, depth8, palBank)
			if !opaque {
				continue
			}
			if objWindowPass {
				p.windowLine[screenX] = windowRecord{bg: objWinBG, obj: objWinObj, effects: objWinFx}
				continue
			}
			cur := &p.spriteLine[screenX]
			if !cur.opaque || priority < cur.priority {
				cur.color = colorIdx
				cur.opaque = true
				cur.priority = priority
				cur.semiTransparent = gfxMode == 1
			}
		}
	}
}

// spriteTexel resolves one sprite-local pixel (lx, ly) to a 15-bit color,
// dispatching on color depth and 1D/2D tile mapping per spec.md §4.7.
func (p *PPU) spriteTexel(charBase uint32, tileNum, width, lx, ly int, depth8 bool, palBank int) (uint16, bool) {
	tilesWide := width / 8
	localTileX, localTileY := lx/8, ly/8
	inTileX, inTileY := lx%8, ly%8

	stride := 1
	if depth8 {
		stride = 2
	}
	rowAdvance := 32
	if p.objMapping1D() {
		rowAdvance = tilesWide * stride
	}
	tileSlot := tileNum + localTileY*rowAdvance + localTileX*stride
	tileStart := charBase + uint32(tileSlot)*32

	if depth8 {
		addr := tileStart + uint32(inTileY)*8 + uint32(inTileX)
		if int(addr) >= len(p.vram) {
			return 0, false
		}
		idx := p.vram[addr]
		if idx == 0 {
			return 0, false
		}
		return p.paletteColor16(256 + int(idx)), true
	}
	addr := tileStart + uint32(inTileY)*4 + uint32(inTileX/2)
	if int(addr) >= len(p.vram) {
		return 0, false
	}
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
	return p.paletteColor16(256 + palBank*16 + int(nibble)), true
}
