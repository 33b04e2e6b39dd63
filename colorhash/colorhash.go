// Package colorhash maps peer identifiers to stable display colors.
package colorhash

import "fmt"

type RGB struct {
	R, G, B uint8
}

// For derives a color from an identifier. The same identifier always
// yields the same color; nearby integer ids spread across the palette.
func For(id string) RGB {
	var hash int32
	for _, r := range id {
		hash = hash*31 + int32(r)
	}
	return RGB{
		R: uint8((hash >> 16) & 0xFF),
		G: uint8((hash >> 8) & 0xFF),
		B: uint8(hash & 0xFF),
	}
}

// ForInt is For over the decimal representation of id.
func ForInt(id int) RGB {
	return For(fmt.Sprintf("%d", id))
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex decodes "#rrggbb". Returns false on any other form.
func ParseHex(s string) (RGB, bool) {
	var c RGB
	if len(s) != 7 || s[0] != '#' {
		return c, false
	}
	n, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	if err != nil || n != 3 {
		return c, false
	}
	return c, true
}
