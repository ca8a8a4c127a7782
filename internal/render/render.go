// Package render turns an employee record and a base picture into a finished
// 1920x1080 virtual background.
//
// A render runs a fixed sequence of stages over one canvas:
//
//	base -> gradient -> logo -> identity -> org -> contacts -> slogan -> encode
//
// The privacy level decides which region stages draw anything (see
// [PolicyFor]). Only a missing or empty base image, an invalid corporate
// color, and a failed output write abort a render. Every other failure is
// logged, recorded as a [Warning] on the [Result], and the render continues
// without the affected element.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"time"

	"tools.zach/dev/dresscode/internal/atomicfile"
	"tools.zach/dev/dresscode/internal/chip"
	"tools.zach/dev/dresscode/internal/colormath"
	"tools.zach/dev/dresscode/internal/contactqr"
	"tools.zach/dev/dresscode/internal/employee"
	"tools.zach/dev/dresscode/internal/fonts"
	"tools.zach/dev/dresscode/internal/scene"
	"tools.zach/dev/dresscode/internal/textlayout"
)

// ErrInvalidCanvas is returned when the base image cannot form a canvas.
var ErrInvalidCanvas = scene.ErrInvalidCanvas

// Stage names one step of a render.
type Stage string

const (
	StageBase     Stage = "base"
	StageGradient Stage = "gradient"
	StageLogo     Stage = "logo"
	StageIdentity Stage = "identity"
	StageOrg      Stage = "org"
	StageContacts Stage = "contacts"
	StageSlogan   Stage = "slogan"
	StageEncode   Stage = "encode"
)

// Fixed region placement in pixels.
const (
	IdentityX      = 50
	IdentityBottom = scene.Height - 200
	OrgTop         = 120
	SloganTop      = 50
	ChipVPad       = 12
	LineSpacing    = 5
)

// ///////////////////////////////////////////////
// Layout and Dependencies
// ///////////////////////////////////////////////

// Layout holds the tunable parts of the layout.
type Layout struct {
	// OverlayAlpha is the gradient's uniform alpha.
	OverlayAlpha uint8
	LogoSize     int
	LogoOffset   image.Point
	// WrapWidth is the maximum line width for wrapped text.
	WrapWidth  int
	BodySize   float64
	SloganSize float64
	LabelSize  float64
	// DefaultPrimary and DefaultSecondary replace empty corporate colors.
	DefaultPrimary   string
	DefaultSecondary string
	Labels           contactqr.Labels
}

// DefaultLayout returns the standard layout.
func DefaultLayout() Layout {
	return Layout{
		OverlayAlpha:     31,
		LogoSize:         125,
		LogoOffset:       image.Pt(50, 50),
		WrapWidth:        500,
		BodySize:         40,
		SloganSize:       30,
		LabelSize:        25,
		DefaultPrimary:   "#0052CC",
		DefaultSecondary: "#00B8D9",
		Labels:           contactqr.DefaultLabels(),
	}
}

// FaceSource opens font faces. [fonts.Resolver] implements it.
type FaceSource interface {
	Face(size float64) *fonts.Face
}

// AssetSource loads images. [assets.Loader] implements it.
type AssetSource interface {
	Base(path string) (image.Image, error)
	Logo(src string) (image.Image, error)
}

// Renderer renders backgrounds. It holds no per-render state and is safe for
// concurrent use when its FaceSource and AssetSource are.
type Renderer struct {
	layout Layout
	fonts  FaceSource
	assets AssetSource
}

// New returns a Renderer.
func New(layout Layout, faces FaceSource, assets AssetSource) *Renderer {
	return &Renderer{layout: layout, fonts: faces, assets: assets}
}

// ///////////////////////////////////////////////
// Result
// ///////////////////////////////////////////////

// Chip is a drawn chip with the region it belongs to.
type Chip struct {
	Name string
	chip.Geometry
}

// Result describes a finished render.
type Result struct {
	// Path is the written file when an output path was given.
	Path string
	// PNG holds the encoded image when no output path was given.
	PNG []byte
	// Warnings lists recoverable failures in the order they happened.
	Warnings []Warning
	// Chips lists every drawn chip in drawing order.
	Chips []Chip
	// QRCodes lists the placed contact codes.
	QRCodes []contactqr.Placement
	// FontSource names the font used, "builtin" when degraded.
	FontSource string
	// Stages lists the stages that ran, in order.
	Stages []Stage
}

// Chip returns the first chip named name.
func (r *Result) Chip(name string) (Chip, bool) {
	for _, c := range r.Chips {
		if c.Name == name {
			return c, true
		}
	}
	return Chip{}, false
}

// ///////////////////////////////////////////////
// Render
// ///////////////////////////////////////////////

// job is the state of one render.
type job struct {
	r       *Renderer
	rec     employee.Record
	policy  Policy
	base    string
	out     string
	canvas  *image.RGBA
	primary colormath.RGB
	second  colormath.RGB
	palette chip.Palette
	faces   map[float64]*fonts.Face
	res     *Result
}

// stages is the fixed render order.
var stages = []struct {
	stage Stage
	run   func(*job) error
}{
	{StageBase, (*job).loadBase},
	{StageGradient, (*job).gradient},
	{StageLogo, (*job).logo},
	{StageIdentity, (*job).identity},
	{StageOrg, (*job).org},
	{StageContacts, (*job).contacts},
	{StageSlogan, (*job).slogan},
	{StageEncode, (*job).encode},
}

// Render draws rec over the picture at basePath. With a non-empty outPath the
// PNG is written there atomically and Result.Path is set; otherwise the PNG
// bytes are returned in Result.PNG. Fields rec's privacy level withholds are
// never drawn.
func (r *Renderer) Render(rec employee.Record, basePath, outPath string) (*Result, error) {
	start := time.Now()
	j := &job{
		r:      r,
		rec:    rec.Disclosed(),
		policy: PolicyFor(rec.PrivacyLevel),
		base:   basePath,
		out:    outPath,
		faces:  map[float64]*fonts.Face{},
		res:    &Result{},
	}
	defer j.closeFaces()

	var err error
	if j.primary, err = parseColor(rec.Branding.CorporateColors.Primary, r.layout.DefaultPrimary); err != nil {
		return nil, fmt.Errorf("primary color: %w", err)
	}
	if j.second, err = parseColor(rec.Branding.CorporateColors.Secondary, r.layout.DefaultSecondary); err != nil {
		return nil, fmt.Errorf("secondary color: %w", err)
	}
	j.palette = chip.NewPalette(j.primary, j.second)

	for _, s := range stages {
		t := time.Now()
		if err := s.run(j); err != nil {
			return nil, fmt.Errorf("render %s: %w", s.stage, err)
		}
		j.res.Stages = append(j.res.Stages, s.stage)
		slog.Debug("render stage done", "stage", s.stage, "elapsed", time.Since(t))
	}

	slog.Info("background rendered",
		"level", rec.PrivacyLevel.Effective(),
		"warnings", len(j.res.Warnings),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return j.res, nil
}

// parseColor parses hex, substituting fallback when hex is blank.
func parseColor(hex, fallback string) (colormath.RGB, error) {
	if strings.TrimSpace(hex) == "" {
		hex = fallback
	}
	return colormath.ParseHex(hex)
}

func (j *job) warn(stage Stage, err error) {
	w := Warning{Stage: stage, Err: err}
	j.res.Warnings = append(j.res.Warnings, w)
	slog.Warn("render degraded", "stage", stage, "kind", w.Kind(), "error", err)
}

// text returns the face and a never-failing measurer at size. Faces are
// opened once per render and closed when it returns.
func (j *job) text(stage Stage, size float64) contactqr.Text {
	face, ok := j.faces[size]
	if !ok {
		face = j.r.fonts.Face(size)
		j.faces[size] = face
		if j.res.FontSource == "" {
			j.res.FontSource = face.Source
		}
		if face.Degraded {
			j.warn(stage, fmt.Errorf("%.0fpx text uses the builtin bitmap font: %w", size, face.Err))
		}
	}
	m := textlayout.Estimating(textlayout.FaceMeasurer{Face: face}, size, func(text string, err error) {
		j.warn(stage, fmt.Errorf("estimating size of %q: %w", text, err))
	})
	return contactqr.Text{Face: face, Measurer: m}
}

func (j *job) closeFaces() {
	for size, f := range j.faces {
		if err := f.Close(); err != nil {
			slog.Debug("closing face", "size", size, "error", err)
		}
	}
}

// place lays out and draws lines as a named chip.
func (j *job) place(name string, lines []string, anchor image.Point, t contactqr.Text, style chip.Style) (chip.Geometry, error) {
	g, err := chip.Layout(lines, anchor, t.Measurer, style)
	if err != nil {
		return g, fmt.Errorf("laying out %s: %w", name, err)
	}
	j.draw(name, g, t)
	return g, nil
}

func (j *job) draw(name string, g chip.Geometry, t contactqr.Text) {
	if g.Empty() {
		return
	}
	chip.Draw(j.canvas, g, t.Face, j.palette)
	j.res.Chips = append(j.res.Chips, Chip{Name: name, Geometry: g})
}

// ///////////////////////////////////////////////
// Stages
// ///////////////////////////////////////////////

func (j *job) loadBase() error {
	img, err := j.r.assets.Base(j.base)
	if err != nil {
		return err
	}
	j.canvas, err = scene.FitCanvas(img)
	return err
}

func (j *job) gradient() error {
	l := j.r.layout
	scene.Composite(j.canvas, scene.Gradient(scene.Width, scene.Height, j.primary, j.second, l.OverlayAlpha))
	return nil
}

func (j *job) logo() error {
	src := j.rec.Branding.LogoURL
	if strings.TrimSpace(src) == "" {
		return nil
	}
	img, err := j.r.assets.Logo(src)
	if err != nil {
		j.warn(StageLogo, err)
		return nil
	}
	scene.PasteLogo(j.canvas, img, j.r.layout.LogoSize, j.r.layout.LogoOffset)
	return nil
}

// identity draws one chip holding the wrapped position followed by the full
// name, its bottom edge at IdentityBottom.
func (j *job) identity() error {
	if !j.policy.Identity {
		return nil
	}
	t := j.text(StageIdentity, j.r.layout.BodySize)

	lines, err := textlayout.Wrap(j.rec.Position, j.r.layout.WrapWidth, t.Measurer)
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(j.rec.FullName); name != "" {
		lines = append(lines, name)
	}
	style := chip.Style{Align: chip.Left, Variant: chip.Primary, VPad: ChipVPad, LineSpacing: LineSpacing}
	g, err := chip.Layout(lines, image.Pt(IdentityX, 0), t.Measurer, style)
	if err != nil {
		return fmt.Errorf("laying out identity: %w", err)
	}
	if g.Empty() {
		return nil
	}
	j.draw("identity", g.Translate(image.Pt(0, IdentityBottom-g.Height())), t)
	return nil
}

func (j *job) org() error {
	if !j.policy.Org {
		return nil
	}
	var lines []string
	for _, s := range []string{j.rec.Company, j.rec.Department, j.rec.OfficeLocation} {
		if strings.TrimSpace(s) != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	t := j.text(StageOrg, j.r.layout.BodySize)
	style := chip.Style{Align: chip.Right, Variant: chip.Secondary, VPad: ChipVPad, LineSpacing: LineSpacing}
	_, err := j.place("org", lines, image.Pt(chip.RightAnchor(scene.Width), OrgTop), t, style)
	return err
}

func (j *job) contacts() error {
	if !j.policy.Contacts {
		return nil
	}
	labels := j.r.layout.Labels
	channels, errs := contactqr.Channels(j.rec.Contact.Email, j.rec.Contact.Telegram, labels)
	for _, err := range errs {
		j.warn(StageContacts, err)
	}

	var codes []contactqr.Code
	for _, ch := range channels {
		code, err := contactqr.Encode(ch, contactqr.Size)
		if err != nil {
			j.warn(StageContacts, err)
			continue
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil
	}

	heading := j.text(StageContacts, j.r.layout.BodySize)
	caption := j.text(StageContacts, j.r.layout.LabelSize)
	block, err := contactqr.Render(j.canvas, codes, labels.Header, heading, caption, j.palette)
	if err != nil {
		return err
	}
	if !block.Header.Empty() {
		j.res.Chips = append(j.res.Chips, Chip{Name: "contacts", Geometry: block.Header})
	}
	for _, p := range block.Codes {
		j.res.Chips = append(j.res.Chips, Chip{Name: "qr:" + p.Label, Geometry: p.Caption})
	}
	j.res.QRCodes = block.Codes
	return nil
}

func (j *job) slogan() error {
	if !j.policy.Slogan {
		return nil
	}
	if strings.TrimSpace(j.rec.Branding.Slogan) == "" {
		return nil
	}
	t := j.text(StageSlogan, j.r.layout.SloganSize)
	lines, err := textlayout.Wrap(j.rec.Branding.Slogan, j.r.layout.WrapWidth, t.Measurer)
	if err != nil {
		return err
	}
	style := chip.Style{Align: chip.Center, Variant: chip.Secondary, VPad: ChipVPad, LineSpacing: LineSpacing}
	_, err = j.place("slogan", lines, image.Pt(scene.Width/2, SloganTop), t, style)
	return err
}

func (j *job) encode() error {
	if j.out == "" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, j.canvas); err != nil {
			return fmt.Errorf("encoding png: %w", err)
		}
		j.res.PNG = buf.Bytes()
		return nil
	}
	err := atomicfile.WriteFunc(j.out, 0o644, func(w io.Writer) error {
		return png.Encode(w, j.canvas)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", j.out, err)
	}
	j.res.Path = j.out
	return nil
}
