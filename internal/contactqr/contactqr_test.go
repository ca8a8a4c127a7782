package contactqr

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"tools.zach/dev/dresscode/internal/chip"
	"tools.zach/dev/dresscode/internal/colormath"
	"tools.zach/dev/dresscode/internal/textlayout"
)

func goText(t *testing.T, size float64) Text {
	t.Helper()
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { face.Close() })
	return Text{Face: face, Measurer: textlayout.FaceMeasurer{Face: face}}
}

// readModules samples the centre of every module of an n x n code pasted
// into r and reports which are dark.
func readModules(img *image.RGBA, r image.Rectangle, n int) [][]bool {
	out := make([][]bool, n)
	for y := range n {
		out[y] = make([]bool, n)
		for x := range n {
			px := r.Min.X + int((float64(x)+0.5)*float64(r.Dx())/float64(n))
			py := r.Min.Y + int((float64(y)+0.5)*float64(r.Dy())/float64(n))
			out[y][x] = img.RGBAAt(px, py).R < 128
		}
	}
	return out
}

func sameBitmap(a, b [][]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// ///////////////////////////////////////////////
// Channels
// ///////////////////////////////////////////////

func TestChannels(t *testing.T) {
	labels := DefaultLabels()
	tests := []struct {
		name     string
		email    string
		telegram string
		payloads []string
		errs     int
	}{
		{"both", "a@b.co", "@handle_1", []string{"mailto:a@b.co", "https://t.me/handle_1"}, 0},
		{"no at sign", "", "handle", []string{"https://t.me/handle"}, 0},
		{"email only", "x@y.org", "", []string{"mailto:x@y.org"}, 0},
		{"none", "", "  ", nil, 0},
		{"malformed handle", "a@b.co", "@bad handle!", []string{"mailto:a@b.co"}, 1},
		{"bare at", "", "@", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Channels(tt.email, tt.telegram, labels)
			if len(errs) != tt.errs {
				t.Fatalf("errs = %v, want %d", errs, tt.errs)
			}
			for _, err := range errs {
				if !errors.Is(err, ErrQREncoding) {
					t.Errorf("err = %v, want ErrQREncoding", err)
				}
			}
			if len(got) != len(tt.payloads) {
				t.Fatalf("channels = %+v, want payloads %q", got, tt.payloads)
			}
			for i, ch := range got {
				if ch.Payload != tt.payloads[i] {
					t.Errorf("payload %d = %q, want %q", i, ch.Payload, tt.payloads[i])
				}
			}
		})
	}

	got, _ := Channels("a@b.co", "h", labels)
	if got[0].Variant != chip.Primary || got[1].Variant != chip.Secondary {
		t.Errorf("variants = %v, %v; want primary, secondary", got[0].Variant, got[1].Variant)
	}
	if got[0].Label != "Email" || got[1].Label != "Telegram" {
		t.Errorf("labels = %q, %q", got[0].Label, got[1].Label)
	}
}

// ///////////////////////////////////////////////
// Encode
// ///////////////////////////////////////////////

func TestEncode(t *testing.T) {
	code, err := Encode(Channel{Label: "Email", Payload: "mailto:a@b.co"}, Size)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if b := code.Image.Bounds(); b.Dx() != Size || b.Dy() != Size {
		t.Errorf("image = %v, want %dx%d", b, Size, Size)
	}
	n := len(code.Bitmap)
	if n < 21+8 {
		t.Fatalf("bitmap size %d too small for a QR symbol with quiet zone", n)
	}
	// The quiet zone is light and the finder pattern's corner is dark.
	if code.Bitmap[0][0] || !code.Bitmap[4][4] {
		t.Errorf("unexpected corner modules: quiet=%v finder=%v", code.Bitmap[0][0], code.Bitmap[4][4])
	}
}

func TestEncodeTooLong(t *testing.T) {
	_, err := Encode(Channel{Label: "Email", Payload: "mailto:" + strings.Repeat("a", 4000)}, Size)
	if !errors.Is(err, ErrQREncoding) {
		t.Errorf("err = %v, want ErrQREncoding", err)
	}
}

func TestPNG(t *testing.T) {
	data, err := PNG("https://t.me/someone", 256)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Errorf("width = %d, want 256", img.Bounds().Dx())
	}
}

// ///////////////////////////////////////////////
// Render
// ///////////////////////////////////////////////

func TestRender(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	primary, _ := colormath.ParseHex("#0052CC")
	secondary, _ := colormath.ParseHex("#00B8D9")
	p := chip.NewPalette(primary, secondary)

	channels, errs := Channels("jane@example.com", "@jane_doe", DefaultLabels())
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	var codes []Code
	for _, ch := range channels {
		code, err := Encode(ch, Size)
		if err != nil {
			t.Fatal(err)
		}
		codes = append(codes, code)
	}

	block, err := Render(canvas, codes, "Contacts", goText(t, 40), goText(t, 25), p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(block.Codes) != 2 {
		t.Fatalf("placed %d codes, want 2", len(block.Codes))
	}

	origin := Origin(canvas.Bounds())
	if origin != image.Pt(1920-276-100, 860) {
		t.Errorf("origin = %v", origin)
	}
	want := []string{"mailto:jane@example.com", "https://t.me/jane_doe"}
	for i, pl := range block.Codes {
		if pl.Payload != want[i] {
			t.Errorf("payload %d = %q, want %q", i, pl.Payload, want[i])
		}
		if pl.Rect != image.Rect(origin.X+i*148+10, 870, origin.X+i*148+138, 998) {
			t.Errorf("code %d rect = %v", i, pl.Rect)
		}
		if !pl.Rect.In(pl.Backing) || pl.Backing.Dx() != 148 {
			t.Errorf("code %d backing = %v", i, pl.Backing)
		}
		got := readModules(canvas, pl.Rect, len(pl.Bitmap))
		if !sameBitmap(got, pl.Bitmap) {
			t.Errorf("code %d pixels do not match its module bitmap", i)
		}
		if pl.Caption.Box.Min.Y != origin.Y+Size+LabelGap {
			t.Errorf("caption %d top = %d", i, pl.Caption.Box.Min.Y)
		}
		if c := pl.Caption.Box.Min.X + pl.Caption.Box.Dx()/2; c < pl.Backing.Min.X+72 || c > pl.Backing.Min.X+76 {
			t.Errorf("caption %d centre %d not under code", i, c)
		}
	}

	// The header never overlaps the backing chips.
	if block.Header.Box.Max.Y > origin.Y {
		t.Errorf("header bottom %d overlaps codes at %d", block.Header.Box.Max.Y, origin.Y)
	}
	if block.Header.Lines[0].Text != "Contacts" {
		t.Errorf("header = %q", block.Header.Lines[0].Text)
	}
}

func TestRenderHeaderCentered(t *testing.T) {
	primary, _ := colormath.ParseHex("#0052CC")
	secondary, _ := colormath.ParseHex("#00B8D9")
	p := chip.NewPalette(primary, secondary)

	channels, errs := Channels("jane@example.com", "@jane_doe", DefaultLabels())
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	var codes []Code
	for _, ch := range channels {
		code, err := Encode(ch, Size)
		if err != nil {
			t.Fatal(err)
		}
		codes = append(codes, code)
	}

	for _, n := range []int{1, 2} {
		canvas := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
		block, err := Render(canvas, codes[:n], "Contacts", goText(t, 40), goText(t, 25), p)
		if err != nil {
			t.Fatalf("Render(%d codes): %v", n, err)
		}
		first, last := block.Codes[0].Backing, block.Codes[n-1].Backing
		if span := last.Max.X - first.Min.X; span != BackingSpan(n) {
			t.Errorf("%d codes: backings span %d, want %d", n, span, BackingSpan(n))
		}
		want := (first.Min.X + last.Max.X) / 2
		box := block.Header.Box
		if got := box.Min.X + box.Dx()/2; got < want-1 || got > want+1 {
			t.Errorf("%d codes: header centre %d, want %d", n, got, want)
		}
	}
}

func TestBackingSpan(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0},
		{1, 148},
		{2, 296},
	}
	for _, tt := range tests {
		if got := BackingSpan(tt.n); got != tt.want {
			t.Errorf("BackingSpan(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestRenderNothing(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	block, err := Render(canvas, nil, "Contacts", Text{}, Text{}, chip.Palette{})
	if err != nil {
		t.Fatal(err)
	}
	if len(block.Codes) != 0 || !block.Header.Empty() {
		t.Errorf("block = %+v, want empty", block)
	}
	for _, v := range canvas.Pix {
		if v != 0 {
			t.Fatal("canvas modified with no codes")
		}
	}
}
