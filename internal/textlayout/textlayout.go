// Package textlayout measures glyph runs and breaks text into lines that fit
// a pixel width.
//
// Measurement goes through the [Measurer] interface so that layout code can be
// exercised with a fixed-advance stand-in instead of a real font.
package textlayout

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
)

// ErrMeasurement is returned when a glyph run cannot be measured.
var ErrMeasurement = errors.New("text measurement failed")

// Extent is the pixel bounding box of a rendered glyph run, relative to the
// drawing origin on the baseline.
type Extent struct {
	// Width and Height are the visual size of the run.
	Width, Height int
	// OffsetX is the distance from the origin to the leftmost inked pixel.
	OffsetX int
	// OffsetY is the distance from the baseline to the topmost inked pixel.
	// It is negative for glyphs that rise above the baseline.
	OffsetY int
}

// Measurer returns the extent of s in some font.
type Measurer interface {
	Measure(s string) (Extent, error)
}

// ///////////////////////////////////////////////
// Face Measurement
// ///////////////////////////////////////////////

// FaceMeasurer measures text with a [font.Face].
type FaceMeasurer struct {
	Face font.Face
}

// Measure returns the exact ink bounds of s drawn with m.Face.
func (m FaceMeasurer) Measure(s string) (Extent, error) {
	if m.Face == nil {
		return Extent{}, fmt.Errorf("%w: no font face", ErrMeasurement)
	}
	b, _ := font.BoundString(m.Face, s)
	if b.Max.X < b.Min.X || b.Max.Y < b.Min.Y {
		return Extent{}, fmt.Errorf("%w: inverted bounds for %q", ErrMeasurement, s)
	}
	if b.Empty() && strings.TrimSpace(s) != "" {
		return Extent{}, fmt.Errorf("%w: no ink for %q", ErrMeasurement, s)
	}
	return Extent{
		Width:   (b.Max.X - b.Min.X).Ceil(),
		Height:  (b.Max.Y - b.Min.Y).Ceil(),
		OffsetX: b.Min.X.Floor(),
		OffsetY: b.Min.Y.Floor(),
	}, nil
}

// ///////////////////////////////////////////////
// Fallback Estimation
// ///////////////////////////////////////////////

// Estimate returns a crude box for s at the given pixel size: half an em per
// rune wide and one em tall, sitting on the baseline. It only keeps chip
// sizing sane when real measurement fails.
func Estimate(s string, size float64) Extent {
	h := int(math.Ceil(size))
	return Extent{
		Width:   int(math.Ceil(float64(utf8.RuneCountInString(s)) * size * 0.5)),
		Height:  h,
		OffsetY: -h,
	}
}

// estimating substitutes [Estimate] whenever the wrapped measurer fails.
type estimating struct {
	m      Measurer
	size   float64
	onFail func(text string, err error)
}

// Estimating wraps m so that Measure never fails: errors are reported to
// onFail (which may be nil) and replaced by [Estimate] at size.
func Estimating(m Measurer, size float64, onFail func(text string, err error)) Measurer {
	return estimating{m: m, size: size, onFail: onFail}
}

func (e estimating) Measure(s string) (Extent, error) {
	ext, err := e.m.Measure(s)
	if err == nil {
		return ext, nil
	}
	if e.onFail != nil {
		e.onFail(s, err)
	}
	return Estimate(s, e.size), nil
}

// ///////////////////////////////////////////////
// Wrapping
// ///////////////////////////////////////////////

// Wrap breaks text into lines no wider than maxWidth using greedy word
// wrapping on whitespace. A word wider than maxWidth is placed alone on its
// own line and never split. Blank input yields no lines.
func Wrap(text string, maxWidth int, m Measurer) ([]string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		ext, err := m.Measure(candidate)
		if err != nil {
			return nil, err
		}
		if ext.Width <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current), nil
}

// ///////////////////////////////////////////////
// Block Extent
// ///////////////////////////////////////////////

// Block is the combined size of a stack of lines.
type Block struct {
	MaxWidth    int
	TotalHeight int
	// Lines holds the per-line extents in input order.
	Lines []Extent
}

// BlockExtent measures each line and stacks them with lineSpacing pixels
// between consecutive lines.
func BlockExtent(lines []string, lineSpacing int, m Measurer) (Block, error) {
	b := Block{Lines: make([]Extent, 0, len(lines))}
	for i, line := range lines {
		ext, err := m.Measure(line)
		if err != nil {
			return Block{}, err
		}
		b.Lines = append(b.Lines, ext)
		b.MaxWidth = max(b.MaxWidth, ext.Width)
		b.TotalHeight += ext.Height
		if i > 0 {
			b.TotalHeight += lineSpacing
		}
	}
	return b, nil
}
