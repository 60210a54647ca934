package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"GoBA/internal/gba"
	"GoBA/util/dbg"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
)

var (
	flagBIOS        string
	flagScale       int
	flagMute        bool
	flagFastForward int
	flagTrace       bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goba [rom]",
		Short: "GoBA is a Game Boy Advance emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
	cmd.Flags().StringVar(&flagBIOS, "bios", "", "path to a 16KiB BIOS image (defaults to boot-stub reset)")
	cmd.Flags().IntVar(&flagScale, "scale", 0, "window scale factor (0 = use saved setting)")
	cmd.Flags().BoolVar(&flagMute, "mute", false, "disable audio output")
	cmd.Flags().IntVar(&flagFastForward, "fast-forward", 1, "fast-forward speed multiplier (stored in gba.Config; the frame loop does not read it)")
	cmd.Flags().BoolVar(&flagTrace, "trace", false, "instruction tracing on boot (stored in gba.Config; the core does not read it)")
	return cmd
}

func run(romPath string) error {
	cfg := loadConfig()
	if flagScale > 0 {
		cfg.Scale = flagScale
	}
	if flagMute {
		cfg.Mute = true
	}
	cfg.LastROMDir = filepath.Dir(romPath)
	defer cfg.save()

	romData, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	var biosData []byte
	if flagBIOS != "" {
		biosData, err = os.ReadFile(flagBIOS)
		if err != nil {
			return fmt.Errorf("reading BIOS: %w", err)
		}
	}

	savPath := savePathFor(romPath)
	backup, _ := os.ReadFile(savPath)

	gcfg := gba.Config{
		SkipBIOS:     biosData == nil,
		TraceOnBoot:  flagTrace,
		SampleRate:   sampleRate,
		FastForwardX: flagFastForward,
	}
	con, err := gba.New(biosData, romData, backup, gcfg)
	if err != nil {
		return fmt.Errorf("constructing console: %w", err)
	}
	dbg.Printf("loaded %q (%d bytes)\n", con.Title(), len(romData))

	title := strings.TrimSpace(con.Title())
	if title == "" {
		title = filepath.Base(romPath)
	}
	ebiten.SetWindowTitle("GoBA - " + title)
	ebiten.SetWindowSize(gba.FrameWidth*cfg.Scale, gba.FrameHeight*cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := newGame(con, cfg, savPath)
	defer g.saveBackup()
	return ebiten.RunGame(g)
}

func savePathFor(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".sav"
}
