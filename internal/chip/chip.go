// Package chip lays out and draws rounded-rectangle text blocks ("chips").
//
// Layout is pure geometry over a [textlayout.Measurer], so placement can be
// tested without a raster. Draw paints a laid-out chip onto a canvas.
package chip

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"tools.zach/dev/dresscode/internal/colormath"
	"tools.zach/dev/dresscode/internal/textlayout"
)

// Fixed chip geometry in pixels.
const (
	HPad         = 10
	Radius       = 15
	ShadowOffset = 2
	RightMargin  = 70
)

// Fill and shadow alphas.
const (
	PrimaryAlpha   = 0x77
	SecondaryAlpha = 0x64
	ShadowAlpha    = 128
)

// ///////////////////////////////////////////////
// Variants and Palette
// ///////////////////////////////////////////////

// Variant selects one of the two translucent chip fills.
type Variant int

const (
	Primary Variant = iota
	Secondary
)

func (v Variant) String() string {
	if v == Secondary {
		return "secondary"
	}
	return "primary"
}

// Align is the horizontal placement of a chip relative to its anchor x.
type Align int

const (
	// Left starts the text at the anchor.
	Left Align = iota
	// Center centers each line on the anchor.
	Center
	// Right ends each line at the anchor.
	Right
)

// Palette holds the resolved colors shared by every chip of one render.
type Palette struct {
	fills  [2]color.NRGBA
	Text   colormath.RGB
	Shadow colormath.RGB
}

// NewPalette derives chip fills from the corporate colors. The text color is
// chosen for contrast against primary, and the shadow is its opposite.
func NewPalette(primary, secondary colormath.RGB) Palette {
	text := colormath.ChooseFor(primary)
	return Palette{
		fills:  [2]color.NRGBA{primary.NRGBA(PrimaryAlpha), secondary.NRGBA(SecondaryAlpha)},
		Text:   text,
		Shadow: colormath.Shadow(text),
	}
}

// Fill returns the fill color for v.
func (p Palette) Fill(v Variant) color.NRGBA {
	if v == Secondary {
		return p.fills[1]
	}
	return p.fills[0]
}

// ///////////////////////////////////////////////
// Layout
// ///////////////////////////////////////////////

// Style controls the padding and alignment of one chip.
type Style struct {
	Align       Align
	Variant     Variant
	VPad        int
	LineSpacing int
}

// Line is one positioned line of a chip.
type Line struct {
	Text   string
	Extent textlayout.Extent
	// Dot is the baseline origin passed to the glyph drawer.
	Dot image.Point
}

// Geometry is a fully placed chip.
type Geometry struct {
	// Box is the rounded rectangle's bounding box.
	Box     image.Rectangle
	Lines   []Line
	Variant Variant
}

// Height is the chip's vertical extent, zero for an empty chip.
func (g Geometry) Height() int {
	return g.Box.Dy()
}

// Translate returns g moved by d.
func (g Geometry) Translate(d image.Point) Geometry {
	out := Geometry{Box: g.Box.Add(d), Variant: g.Variant, Lines: make([]Line, len(g.Lines))}
	for i, l := range g.Lines {
		l.Dot = l.Dot.Add(d)
		out.Lines[i] = l
	}
	return out
}

// Empty reports whether the chip has nothing to draw.
func (g Geometry) Empty() bool {
	return len(g.Lines) == 0
}

// Layout places lines in a chip whose top edge is at anchor.Y. The meaning
// of anchor.X depends on style.Align (see [Align]). The box spans the widest
// line plus [HPad] on each side and the stacked text height plus style.VPad
// above and below. Each line is aligned on its own measured width, and its
// glyphs start exactly at the running top so lines never overlap.
func Layout(lines []string, anchor image.Point, m textlayout.Measurer, style Style) (Geometry, error) {
	if len(lines) == 0 {
		return Geometry{Variant: style.Variant}, nil
	}
	block, err := textlayout.BlockExtent(lines, style.LineSpacing, m)
	if err != nil {
		return Geometry{}, err
	}

	startX := anchor.X
	switch style.Align {
	case Center:
		startX = anchor.X - block.MaxWidth/2
	case Right:
		startX = anchor.X - block.MaxWidth
	}

	g := Geometry{
		Box: image.Rect(
			startX-HPad, anchor.Y,
			startX+block.MaxWidth+HPad, anchor.Y+block.TotalHeight+2*style.VPad,
		),
		Lines:   make([]Line, len(lines)),
		Variant: style.Variant,
	}

	top := anchor.Y + style.VPad
	for i, text := range lines {
		ext := block.Lines[i]
		x := startX
		switch style.Align {
		case Center:
			x = anchor.X - ext.Width/2
		case Right:
			x = anchor.X - ext.Width
		}
		g.Lines[i] = Line{
			Text:   text,
			Extent: ext,
			Dot:    image.Pt(x-ext.OffsetX, top-ext.OffsetY),
		}
		top += ext.Height + style.LineSpacing
	}
	return g, nil
}

// RightAnchor is the anchor x that right-aligns a chip's text [RightMargin]
// pixels from the right edge of a canvas canvasWidth wide.
func RightAnchor(canvasWidth int) int {
	return canvasWidth - RightMargin
}

// ///////////////////////////////////////////////
// Drawing
// ///////////////////////////////////////////////

// Draw paints g onto canvas: the rounded box in the variant's fill, then each
// line as a shadow offset by [ShadowOffset] followed by the text itself.
// It returns the chip height.
func Draw(canvas *image.RGBA, g Geometry, face font.Face, p Palette) int {
	if g.Empty() {
		return 0
	}
	dc := gg.NewContextForRGBA(canvas)
	fillBox(dc, g.Box, p.Fill(g.Variant))

	dc.SetFontFace(face)
	for _, line := range g.Lines {
		x, y := float64(line.Dot.X), float64(line.Dot.Y)
		dc.SetColor(p.Shadow.NRGBA(ShadowAlpha))
		dc.DrawString(line.Text, x+ShadowOffset, y+ShadowOffset)
		dc.SetColor(p.Text.NRGBA(255))
		dc.DrawString(line.Text, x, y)
	}
	return g.Height()
}

// FillBox paints a rounded rectangle of radius [Radius] covering r.
func FillBox(canvas *image.RGBA, r image.Rectangle, fill color.Color) {
	fillBox(gg.NewContextForRGBA(canvas), r, fill)
}

func fillBox(dc *gg.Context, r image.Rectangle, fill color.Color) {
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), Radius)
	dc.Fill()
}
