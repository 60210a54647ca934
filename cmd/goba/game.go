package main

import (
	"os"

	"GoBA/internal/gba"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

const sampleRate = 48000

// game implements ebiten.Game, driving one Console frame per Update and
// presenting the result through an ebiten.Image and an audio.Player, per
// SPEC_FULL.md §4.13.
type game struct {
	con     *gba.Console
	cfg     Config
	savPath string

	img     *ebiten.Image
	pixels  []byte
	audioCx *audio.Context
	player  *audio.Player
	stream  *apuStream
}

func newGame(con *gba.Console, cfg Config, savPath string) *game {
	g := &game{
		con:     con,
		cfg:     cfg,
		savPath: savPath,
		img:     ebiten.NewImage(gba.FrameWidth, gba.FrameHeight),
		pixels:  make([]byte, gba.FrameWidth*gba.FrameHeight*4),
	}
	g.audioCx = audio.NewContext(sampleRate)
	g.stream = &apuStream{muted: cfg.Mute}
	if p, err := g.audioCx.NewPlayer(g.stream); err == nil {
		g.player = p
		g.player.Play()
	}
	return g
}

func (g *game) saveBackup() {
	data := g.con.SaveBackup()
	if data == nil {
		return
	}
	_ = os.WriteFile(g.savPath, data, 0644)
}

func (g *game) Update() error {
	keys := pollJoypad()
	frame, samples := g.con.StepFrame(keys)
	writeBGR555(g.pixels, frame)
	g.img.WritePixels(g.pixels)
	g.stream.push(samples)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	op := &ebiten.DrawImageOptions{}
	sx := float64(screen.Bounds().Dx()) / float64(gba.FrameWidth)
	sy := float64(screen.Bounds().Dy()) / float64(gba.FrameHeight)
	op.GeoM.Scale(sx, sy)
	screen.DrawImage(g.img, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return gba.FrameWidth, gba.FrameHeight
}

// writeBGR555 expands the core's packed BGR555 scanout into screen's RGBA
// byte layout.
func writeBGR555(dst []byte, frame []uint16) {
	for i, px := range frame {
		r := uint8(px&0x1F) << 3
		g := uint8((px>>5)&0x1F) << 3
		b := uint8((px>>10)&0x1F) << 3
		o := i * 4
		dst[o] = r
		dst[o+1] = g
		dst[o+2] = b
		dst[o+3] = 0xFF
	}
}

// pollJoypad reads the host keyboard each Update and packs it into the
// 10-bit button mask the core expects, per SPEC_FULL.md §4.13.
func pollJoypad() gba.JoypadState {
	return gba.JoypadState{
		A:      ebiten.IsKeyPressed(ebiten.KeyX),
		B:      ebiten.IsKeyPressed(ebiten.KeyZ),
		Select: ebiten.IsKeyPressed(ebiten.KeyBackspace),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Right:  ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Left:   ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Up:     ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		R:      ebiten.IsKeyPressed(ebiten.KeyS),
		L:      ebiten.IsKeyPressed(ebiten.KeyA),
	}
}
