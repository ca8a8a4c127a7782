// Package contactqr turns contact fields into QR codes and draws them, on
// tinted backing chips with labels, in the bottom-right contact block.
package contactqr

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"

	"tools.zach/dev/dresscode/internal/chip"
	"tools.zach/dev/dresscode/internal/textlayout"
)

// ErrQREncoding is returned when a contact cannot be turned into a QR code.
var ErrQREncoding = errors.New("qr encoding failed")

// Block geometry in pixels.
const (
	// Size is the edge of each pasted code.
	Size = 128
	// Gap separates consecutive code slots.
	Gap = 20
	// Inset is the backing chip margin around each code.
	Inset = 10
	// ModulePx is the pixel size of one module before resizing.
	ModulePx = 5
	// RightOffset is the space between the block and the canvas right edge.
	RightOffset = 100
	// BottomOffset is the distance from the code tops to the canvas bottom.
	BottomOffset = 220
	// HeaderGap separates the header chip from the backing chips.
	HeaderGap = 10
	// LabelGap is the distance from the code top to its label chip, past the code.
	LabelGap = 30
	// HeaderVPad and LabelVPad are the vertical paddings of the header and
	// caption chips.
	HeaderVPad = 12
	LabelVPad  = 8
	// Slots is the number of channel positions in the block.
	Slots = 2
)

// BlockWidth is the width reserved for [Slots] codes.
const BlockWidth = Slots*Size + (Slots-1)*Gap

var telegramHandleRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ///////////////////////////////////////////////
// Channels
// ///////////////////////////////////////////////

// Labels are the captions drawn in the contact block.
type Labels struct {
	Header   string
	Email    string
	Telegram string
}

// DefaultLabels returns the English captions.
func DefaultLabels() Labels {
	return Labels{Header: "Contacts", Email: "Email", Telegram: "Telegram"}
}

// Channel is one contact method to encode.
type Channel struct {
	Label   string
	Payload string
	Variant chip.Variant
}

// Channels returns the channels for the given contact fields in slot order:
// email (primary fill) then Telegram (secondary fill). Empty fields are
// skipped silently. A malformed Telegram handle is skipped and reported.
func Channels(email, telegram string, labels Labels) ([]Channel, []error) {
	var (
		out  []Channel
		errs []error
	)
	if email = strings.TrimSpace(email); email != "" {
		out = append(out, Channel{Label: labels.Email, Payload: "mailto:" + email, Variant: chip.Primary})
	}
	if telegram = strings.TrimSpace(telegram); telegram != "" {
		handle := strings.TrimPrefix(telegram, "@")
		if telegramHandleRe.MatchString(handle) {
			out = append(out, Channel{Label: labels.Telegram, Payload: "https://t.me/" + handle, Variant: chip.Secondary})
		} else {
			errs = append(errs, fmt.Errorf("%w: malformed telegram handle %q", ErrQREncoding, telegram))
		}
	}
	return out, errs
}

// ///////////////////////////////////////////////
// Encoding
// ///////////////////////////////////////////////

// Code is an encoded channel ready to paste.
type Code struct {
	Channel
	// Bitmap is the module matrix including the quiet zone; true is dark.
	Bitmap [][]bool
	// Image is the code resized to size x size.
	Image image.Image
}

// Encode renders ch.Payload at [ModulePx] pixels per module and resizes the
// result to size x size with nearest-neighbour sampling so modules stay sharp.
func Encode(ch Channel, size int) (Code, error) {
	q, err := qrcode.New(ch.Payload, qrcode.Medium)
	if err != nil {
		return Code{}, fmt.Errorf("%w: %s: %v", ErrQREncoding, ch.Label, err)
	}
	raw := q.Image(-ModulePx)
	return Code{
		Channel: ch,
		Bitmap:  q.Bitmap(),
		Image:   imaging.Resize(raw, size, size, imaging.NearestNeighbor),
	}, nil
}

// PNG encodes text as a size x size PNG, for previews.
func PNG(text string, size int) ([]byte, error) {
	data, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQREncoding, err)
	}
	return data, nil
}

// ///////////////////////////////////////////////
// Placement
// ///////////////////////////////////////////////

// Text bundles a face with the measurer used to lay out its chips.
type Text struct {
	Face     font.Face
	Measurer textlayout.Measurer
}

// Placement records where a code was drawn.
type Placement struct {
	Label   string
	Payload string
	Bitmap  [][]bool
	// Rect is the pasted code; Backing is the chip behind it.
	Rect    image.Rectangle
	Backing image.Rectangle
	// Caption is the label chip under the code.
	Caption chip.Geometry
}

// Block is the outcome of [Render].
type Block struct {
	Header chip.Geometry
	Codes  []Placement
}

// BackingSpan is the width covered by n backing chips placed side by side.
func BackingSpan(n int) int {
	if n <= 0 {
		return 0
	}
	return (n-1)*(Size+Gap) + Size + 2*Inset
}

// Origin returns the top-left of the first code slot's backing chip on a
// canvas of the given bounds.
func Origin(bounds image.Rectangle) image.Point {
	return image.Pt(bounds.Max.X-BlockWidth-RightOffset, bounds.Max.Y-BottomOffset)
}

// Render draws codes side by side from [Origin], each on a backing chip in
// its channel's fill, with the header centered above the drawn chips and each
// label centered beneath its code. Nothing is drawn when codes is empty.
func Render(canvas *image.RGBA, codes []Code, header string, heading, caption Text, p chip.Palette) (Block, error) {
	var block Block
	if len(codes) == 0 {
		return block, nil
	}
	origin := Origin(canvas.Bounds())

	// The header's bottom edge sits HeaderGap above the backing chips.
	centerX := origin.X + BackingSpan(len(codes))/2
	style := chip.Style{Align: chip.Center, Variant: chip.Primary, VPad: HeaderVPad, LineSpacing: 5}
	sized, err := chip.Layout(linesOf(header), image.Pt(centerX, 0), heading.Measurer, style)
	if err != nil {
		return block, fmt.Errorf("laying out contact header: %w", err)
	}
	top := origin.Y - HeaderGap - sized.Height()
	if block.Header, err = chip.Layout(linesOf(header), image.Pt(centerX, top), heading.Measurer, style); err != nil {
		return block, fmt.Errorf("laying out contact header: %w", err)
	}
	chip.Draw(canvas, block.Header, heading.Face, p)

	for i, code := range codes {
		x := origin.X + i*(Size+Gap)
		backing := image.Rect(x, origin.Y, x+Size+2*Inset, origin.Y+Size+2*Inset)
		chip.FillBox(canvas, backing, p.Fill(code.Variant))

		rect := image.Rect(x+Inset, origin.Y+Inset, x+Inset+Size, origin.Y+Inset+Size)
		draw.Draw(canvas, rect, code.Image, code.Image.Bounds().Min, draw.Over)

		labelStyle := chip.Style{Align: chip.Center, Variant: code.Variant, VPad: LabelVPad, LineSpacing: 5}
		labelAt := image.Pt(x+backing.Dx()/2, origin.Y+Size+LabelGap)
		geom, err := chip.Layout(linesOf(code.Label), labelAt, caption.Measurer, labelStyle)
		if err != nil {
			return block, fmt.Errorf("laying out %s label: %w", code.Label, err)
		}
		chip.Draw(canvas, geom, caption.Face, p)

		block.Codes = append(block.Codes, Placement{
			Label:   code.Label,
			Payload: code.Payload,
			Bitmap:  code.Bitmap,
			Rect:    rect,
			Backing: backing,
			Caption: geom,
		})
	}
	return block, nil
}

// linesOf returns s as a single line, or no lines when s is blank.
func linesOf(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return []string{s}
}
