package render

import (
	"math"
	"strconv"
	"strings"
)

// readableThreshold splits light from dark backgrounds. Strictly greater
// picks the dark foreground.
const readableThreshold = 0.62

// Luminance returns the relative luminance of a #rgb / #rrggbb colour.
// Unparseable input is treated as black.
func Luminance(hex string) float64 {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return 0
	}
	return 0.2126*channel(r) + 0.7152*channel(g) + 0.0722*channel(b)
}

// PickReadableOn returns dark when bg is light enough, otherwise light.
func PickReadableOn(bg, light, dark string) string {
	return pickByLuminance(Luminance(bg), light, dark)
}

func pickByLuminance(l float64, light, dark string) string {
	if l > readableThreshold {
		return dark
	}
	return light
}

// IsColor reports whether s is a #rgb or #rrggbb colour.
func IsColor(s string) bool {
	_, _, _, ok := parseHex(s)
	return ok
}

func channel(v uint8) float64 {
	c := float64(v) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func parseHex(s string) (r, g, b uint8, ok bool) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
