package ws

import (
	"fmt"
	"hash/fnv"
	"math"
)

// ColorDetails is the cursor color assigned to a collaborator.
type ColorDetails struct {
	Color   string `json:"color"`
	IsLight bool   `json:"is_light"`
}

// nameColor derives a stable display color from a user name so every client
// paints the same cursor the same way without coordination. Hue spans the
// full wheel; saturation 50-55% and lightness 50-60% keep the result vivid
// but readable.
func nameColor(name string) ColorDetails {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	sum := h.Sum32()

	hue := float64(sum % 360)
	sat := 0.50 + float64((sum/360)%6)/100
	lig := 0.50 + float64((sum/2160)%11)/100

	r, g, b := hslToRGB(hue, sat, lig)
	// Perceived brightness (YIQ); light colors get dark text on top.
	yiq := (299*int(r) + 587*int(g) + 114*int(b)) / 1000

	return ColorDetails{
		Color:   fmt.Sprintf("#%02x%02x%02x", r, g, b),
		IsLight: yiq >= 128,
	}
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return uint8(math.Round((r + m) * 255)),
		uint8(math.Round((g + m) * 255)),
		uint8(math.Round((b + m) * 255))
}
