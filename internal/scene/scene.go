// Package scene builds the base canvas every background is drawn on: the
// resized base picture, the translucent brand gradient, and the logo.
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"tools.zach/dev/dresscode/internal/colormath"
)

// Canvas dimensions in pixels.
const (
	Width  = 1920
	Height = 1080
)

// ErrInvalidCanvas is returned when the base image has no pixels to stretch.
var ErrInvalidCanvas = errors.New("invalid canvas")

// Bounds is the canvas rectangle.
var Bounds = image.Rect(0, 0, Width, Height)

// FitCanvas stretches base to exactly [Width]x[Height], ignoring its aspect
// ratio, and returns a fresh RGBA canvas owned by the caller.
func FitCanvas(base image.Image) (*image.RGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, fmt.Errorf("%w: base image has empty bounds", ErrInvalidCanvas)
	}
	resized := imaging.Resize(base, Width, Height, imaging.Lanczos)
	canvas := image.NewRGBA(Bounds)
	draw.Draw(canvas, Bounds, resized, image.Point{}, draw.Src)
	return canvas, nil
}

// Gradient returns a w x h overlay whose rows run from top to bottom. Row y
// uses top.Lerp(bottom, y/h), so the first row is exactly top and the last
// row is one step short of bottom. Every pixel carries alpha.
func Gradient(w, h int, top, bottom colormath.RGB, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return img
	}
	for y := range h {
		c := top.Lerp(bottom, float64(y)/float64(h)).NRGBA(alpha)
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			row[x], row[x+1], row[x+2], row[x+3] = c.R, c.G, c.B, c.A
		}
	}
	return img
}

// Composite blends overlay onto canvas with the "over" operator, aligning
// the overlay's top-left corner with the canvas origin.
func Composite(canvas *image.RGBA, overlay image.Image) {
	if overlay == nil {
		return
	}
	draw.Draw(canvas, canvas.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
}

// PasteLogo resizes logo to size x size and draws it at `at`, using the
// logo's own alpha as the mask. A nil logo leaves the canvas untouched.
func PasteLogo(canvas *image.RGBA, logo image.Image, size int, at image.Point) {
	if logo == nil || logo.Bounds().Empty() || size <= 0 {
		return
	}
	resized := imaging.Resize(logo, size, size, imaging.Lanczos)
	r := image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}
	draw.Draw(canvas, r, resized, image.Point{}, draw.Over)
}
