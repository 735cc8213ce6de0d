package a11y

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// MinContrastRatio is the WCAG AA minimum contrast for normal text.
const MinContrastRatio = 4.5

// errInvalidHexColor is returned for colors that are not #rrggbb literals.
var errInvalidHexColor = errors.New("invalid hex color")

// RGB is a color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// ParseHexColor parses a "#rrggbb" literal. Surrounding whitespace and any
// trailing tokens such as "!important" are ignored. Three-digit shorthand
// and named colors are rejected.
func ParseHexColor(value string) (RGB, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return RGB{}, errInvalidHexColor
	}
	token := fields[0]
	if len(token) != 7 || token[0] != '#' {
		return RGB{}, errInvalidHexColor
	}

	n, err := strconv.ParseUint(token[1:], 16, 32)
	if err != nil {
		return RGB{}, errInvalidHexColor
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// RelativeLuminance returns the WCAG relative luminance of c.
func (c RGB) RelativeLuminance() float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

// linearize converts an 8-bit sRGB channel to linear light.
func linearize(channel uint8) float64 {
	v := float64(channel) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio returns the contrast ratio between two colors, from 1 to 21.
func ContrastRatio(a, b RGB) float64 {
	l1, l2 := a.RelativeLuminance(), b.RelativeLuminance()
	lighter, darker := math.Max(l1, l2), math.Min(l1, l2)
	return (lighter + 0.05) / (darker + 0.05)
}

// HexContrastRatio parses two hex literals and returns their contrast ratio.
// ok is false when either color cannot be parsed.
func HexContrastRatio(foreground, background string) (ratio float64, ok bool) {
	fg, err := ParseHexColor(foreground)
	if err != nil {
		return 0, false
	}
	bg, err := ParseHexColor(background)
	if err != nil {
		return 0, false
	}
	return ContrastRatio(fg, bg), true
}
