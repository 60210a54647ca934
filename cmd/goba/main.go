// Command goba is the GBA emulator's host shell: it loads a BIOS and ROM,
// drives the Console one frame at a time, and presents the result through
// ebiten, per SPEC_FULL.md §4.12-§4.14.
package main

import (
	"log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
