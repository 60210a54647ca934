package cartridge

import "strings"

// headerTitleOffset and headerTitleLen locate the ASCII game title in a GBA
// ROM header, per spec.md §6.
const (
	headerTitleOffset = 0xA0
	headerTitleLen    = 12
)

// Title extracts the cartridge's ASCII title from its ROM header,
// trimming trailing NUL padding. Returns "" if the ROM is too short to
// contain a header.
func (c *Cartridge) Title() string {
	if len(c.ROM) < headerTitleOffset+headerTitleLen {
		return ""
	}
	raw := c.ROM[headerTitleOffset : headerTitleOffset+headerTitleLen]
	return strings.TrimRight(string(raw), "\x00")
}
