// Package colormath converts hex colors and picks legible text colors using the
// WCAG 2.x relative luminance and contrast ratio formulas.
package colormath

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidColorFormat is returned for strings that are not "#RGB" or "#RRGGBB".
var ErrInvalidColorFormat = errors.New("invalid color format")

// MinContrast is the WCAG AA threshold for normal-size text.
const MinContrast = 4.5

// RGB is an 8-bit per channel opaque color.
type RGB struct {
	R, G, B uint8
}

var (
	White = RGB{255, 255, 255}
	Black = RGB{0, 0, 0}
)

// ParseHex parses "#RRGGBB" (or the short "#RGB" form) into an RGB triple.
// The leading "#" is optional.
func ParseHex(hex string) (RGB, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q: must be 6 hex digits", ErrInvalidColorFormat, hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, hex)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats c as "#RRGGBB" with uppercase digits.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// NRGBA returns c with the given straight alpha.
func (c RGB) NRGBA(alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Lerp interpolates per channel between c and to, truncating toward zero.
// frac 0 yields c, frac 1 yields to.
func (c RGB) Lerp(to RGB, frac float64) RGB {
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a)*(1-frac) + float64(b)*frac)
	}
	return RGB{R: mix(c.R, to.R), G: mix(c.G, to.G), B: mix(c.B, to.B)}
}

func linearize(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// RelativeLuminance returns the gamma-linearized luminance of c in [0, 1].
func RelativeLuminance(c RGB) float64 {
	r := linearize(float64(c.R) / 255)
	g := linearize(float64(c.G) / 255)
	b := linearize(float64(c.B) / 255)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio returns the WCAG contrast ratio between bg and fg, in [1, 21].
func ContrastRatio(bg, fg RGB) float64 {
	l1 := RelativeLuminance(bg)
	l2 := RelativeLuminance(fg)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// ChooseTextColor picks white or black text for the background bgHex.
// White wins when it reaches [MinContrast]; otherwise black if it does.
// When neither reaches the threshold the result is white.
func ChooseTextColor(bgHex string) (RGB, error) {
	bg, err := ParseHex(bgHex)
	if err != nil {
		return RGB{}, err
	}
	return ChooseFor(bg), nil
}

// ChooseFor is [ChooseTextColor] for an already parsed color.
func ChooseFor(bg RGB) RGB {
	if ContrastRatio(bg, White) >= MinContrast {
		return White
	}
	if ContrastRatio(bg, Black) >= MinContrast {
		return Black
	}
	return White
}

// Shadow returns the photometric opposite of a text color chosen by
// [ChooseTextColor]: black for white text, white for black text.
func Shadow(text RGB) RGB {
	if text == White {
		return Black
	}
	return White
}
