package ppu

// windowRecord is the per-dot {bg_enabled[0..3], obj_enabled,
// effects_enabled} tuple spec.md §4.7 describes windowing as producing.
type windowRecord struct {
	bg      [4]bool
	obj     bool
	effects bool
}

func decodeWindowByte(v uint8) (bg [4]bool, obj, effects bool) {
	for i := 0; i < 4; i++ {
		bg[i] = v&(1<<uint(i)) != 0
	}
	obj = v&(1<<4) != 0
	effects = v&(1<<5) != 0
	return
}

// setupWindows fills p.windowLine for the given scanline per spec.md
// §4.7 step 2-3: if no window is active, every dot gets the
// all-layers-enabled record; otherwise dots start at WINOUT, get stamped by
// the OBJ window, then window 1, then window 0 (highest priority last).
func (p *PPU) setupWindows(scanline int) {
	if !p.anyWindowActive() {
		for i := range p.windowLine {
			p.windowLine[i] = windowRecord{bg: [4]bool{true, true, true, true}, obj: true, effects: true}
		}
		return
	}

	outBG, outObj, outFx := decodeWindowByte(uint8(p.winout))
	for i := range p.windowLine {
		p.windowLine[i] = windowRecord{bg: outBG, obj: outObj, effects: outFx}
	}

	if p.objWinEnabled() {
		p.evaluateSprites(scanline, true)
	}

	if p.win1Enabled() && p.insideWindowY(p.win1v, scanline) {
		bg, obj, fx := decodeWindowByte(uint8(p.winin >> 8))
		p.stampWindow(p.win1h, bg, obj, fx)
	}
	if p.win0Enabled() && p.insideWindowY(p.win0v, scanline) {
		bg, obj, fx := decodeWindowByte(uint8(p.winin))
		p.stampWindow(p.win0h, bg, obj, fx)
	}
}

func (p *PPU) insideWindowY(reg uint16, scanline int) bool {
	top := int(reg >> 8)
	bottom := int(reg & 0xFF)
	if top > bottom {
		bottom = Height
	}
	return scanline >= top && scanline < bottom
}

func (p *PPU) stampWindow(reg uint16, bg [4]bool, obj, effects bool) {
	left := int(reg >> 8)
	right := int(reg & 0xFF)
	if left > right || right > Width {
		right = Width
	}
	for x := left; x < right && x < Width; x++ {
		if x < 0 {
			continue
		}
		p.windowLine[x] = windowRecord{bg: bg, obj: obj, effects: effects}
	}
}

// bgCandidate is one background layer's resolved pixel for a dot, carried
// forward for the priority-sort/blend pass.
type bgCandidate struct {
	color  uint16
	opaque bool
}

// renderScanline implements the HBlank-fired per-line render described in
// spec.md §4.7: windows, sprites, mode dispatch, then compose/blend.
func (p *PPU) renderScanline(y int) {
	if p.forceBlank() {
		backdrop := p.paletteColor16(0)
		for x := 0; x < Width; x++ {
			p.frame[y*Width+x] = backdrop
		}
		return
	}

	p.setupWindows(y)
	if p.objEnabled() {
		p.evaluateSprites(y, false)
	} else {
		for i := range p.spriteLine {
			p.spriteLine[i] = spritePixel{}
		}
	}

	mode := p.mode()
	var bgPixels [4][Width]bgCandidate
	switch mode {
	case 0:
		for bg := 0; bg < 4; bg++ {
			if !p.bgEnabled(bg) {
				continue
			}
			for x := 0; x < Width; x++ {
				c, ok := p.renderTextBGPixel(bg, x, y)
				bgPixels[bg][x] = bgCandidate{c, ok}
			}
		}
	case 1:
		for bg := 0; bg < 2; bg++ {
			if !p.bgEnabled(bg) {
				continue
			}
			for x := 0; x < Width; x++ {
				c, ok := p.renderTextBGPixel(bg, x, y)
				bgPixels[bg][x] = bgCandidate{c, ok}
			}
		}
		if p.bgEnabled(2) {
			for x := 0; x < Width; x++ {
				c, ok := p.renderAffineBGPixel(0, x)
				bgPixels[2][x] = bgCandidate{c, ok}
			}
		}
	case 2:
		for i, bg := range []int{2, 3} {
			if !p.bgEnabled(bg) {
				continue
			}
			for x := 0; x < Width; x++ {
				c, ok := p.renderAffineBGPixel(i, x)
				bgPixels[bg][x] = bgCandidate{c, ok}
			}
		}
	case 3, 4, 5:
		if p.bgEnabled(2) {
			for x := 0; x < Width; x++ {
				c, ok := p.renderBitmapPixel(mode, x, y)
				bgPixels[2][x] = bgCandidate{c, ok}
			}
		}
	}

	backdrop := p.paletteColor16(0)
	for x := 0; x < Width; x++ {
		p.frame[y*Width+x] = p.composePixel(x, mode, &bgPixels, backdrop)
	}
}

// layer identifies one compose candidate: either a background (kind<4,
// index=bg number) or the sprite layer (kind=4).
type layer struct {
	kind     int
	priority int
	color    uint16
}

// composePixel gathers every opaque layer visible at dot x (gated by its
// window record), ranks by priority, and applies BLDCNT blending between the
// top two per spec.md §4.7's final compose step.
func (p *PPU) composePixel(x, mode int, bgPixels *[4][Width]bgCandidate, backdrop uint16) uint16 {
	win := p.windowLine[x]
	var layers []layer

	for bg := 0; bg < 4; bg++ {
		if !win.bg[bg] || !p.bgEnabled(bg) {
			continue
		}
		c := bgPixels[bg][x]
		if !c.opaque {
			continue
		}
		layers = append(layers, layer{kind: bg, priority: int(p.bgcnt[bg] & 0x3), color: c.color})
	}

	sp := p.spriteLine[x]
	if win.obj && p.objEnabled() && sp.opaque {
		layers = append(layers, layer{kind: 4, priority: int(sp.priority), color: sp.color})
	}

	if len(layers) == 0 {
		return backdrop
	}

	// Stable-sort by priority; sprites win ties against backgrounds of the
	// same priority, and among backgrounds lower bg index wins (the order
	// layers were appended already reflects that for bg-vs-bg).
	top, second := 0, -1
	for i := 1; i < len(layers); i++ {
		if layers[i].priority < layers[top].priority ||
			(layers[i].priority == layers[top].priority && layers[i].kind == 4) {
			second = top
			top = i
		} else if second == -1 || layers[i].priority < layers[second].priority {
			second = i
		}
	}

	topColor := layers[top].color
	if !win.effects {
		return topColor
	}

	semiTransparentSprite := layers[top].kind == 4 && p.spriteLine[x].semiTransparent
	mode2 := int((p.bldcnt >> 6) & 0x3)

	if semiTransparentSprite {
		var botColor uint16 = backdrop
		if second != -1 && p.targetB(layers[second].kind) {
			botColor = layers[second].color
		} else if second == -1 && !p.targetB(5) {
			return topColor
		}
		if !p.targetA(layers[top].kind) {
			return topColor
		}
		return blendAlpha(topColor, botColor, p.bldalpha)
	}

	switch mode2 {
	case 1: // alpha blend
		if !p.targetA(layers[top].kind) {
			return topColor
		}
		var botColor uint16 = backdrop
		if second != -1 {
			if !p.targetB(layers[second].kind) {
				return topColor
			}
			botColor = layers[second].color
		} else if !p.targetB(5) {
			return topColor
		}
		return blendAlpha(topColor, botColor, p.bldalpha)
	case 2: // brightness increase
		if !p.targetA(layers[top].kind) {
			return topColor
		}
		return blendBrightness(topColor, p.bldy, true)
	case 3: // brightness decrease
		if !p.targetA(layers[top].kind) {
			return topColor
		}
		return blendBrightness(topColor, p.bldy, false)
	}
	return topColor
}

// targetA/targetB test BLDCNT's target-layer select bits. kind 0-3 are BG0-3,
// 4 is OBJ, 5 is the backdrop.
func (p *PPU) targetA(kind int) bool { return p.bldcnt&(1<<uint(kind)) != 0 }
func (p *PPU) targetB(kind int) bool { return p.bldcnt&(1<<(8+uint(kind))) != 0 }

func blendChannel5(a, b uint16, eva, evb uint32) uint16 {
	v := (uint32(a)*eva + uint32(b)*evb) >> 4
	if v > 31 {
		v = 31
	}
	return uint16(v)
}

// blendAlpha implements BLDCNT mode 1's per-channel alpha blend using
// BLDALPHA's EVA/EVB coefficients (5-bit channels, /16 weighted).
func blendAlpha(top, bot uint16, bldalpha uint16) uint16 {
	eva := uint32(bldalpha & 0x1F)
	evb := uint32((bldalpha >> 8) & 0x1F)
	if eva > 16 {
		eva = 16
	}
	if evb > 16 {
		evb = 16
	}
	r := blendChannel5(top&0x1F, bot&0x1F, eva, evb)
	g := blendChannel5((top>>5)&0x1F, (bot>>5)&0x1F, eva, evb)
	b := blendChannel5((top>>10)&0x1F, (bot>>10)&0x1F, eva, evb)
	return r | g<<5 | b<<10
}

// blendBrightness implements BLDCNT modes 2/3 (brightness increase/decrease)
// using BLDY's EVY coefficient.
func blendBrightness(c uint16, bldy uint16, increase bool) uint16 {
	evy := uint32(bldy & 0x1F)
	if evy > 16 {
		evy = 16
	}
	blend := func(ch uint16) uint16 {
		v := uint32(ch)
		if increase {
			v = v + ((31-v)*evy)>>4
		} else {
			v = v - (v*evy)>>4
		}
		if v > 31 {
			v = 31
		}
		return uint16(v)
	}
	r := blend(c & 0x1F)
	g := blend((c >> 5) & 0x1F)
	b := blend((c >> 10) & 0x1F)
	return r | g<<5 | b<<10
}
