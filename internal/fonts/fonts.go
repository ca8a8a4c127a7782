// Package fonts discovers font files and opens faces at requested sizes.
//
// Resolution walks an ordered candidate chain and never fails outright:
//  1. Font files found in the configured fonts directory (glob patterns)
//  2. Conventional system font paths, only when the directory has none
//  3. A Google Fonts download ("google:FAMILY:WEIGHT"), cached on disk
//  4. The built-in 7x13 bitmap face, flagged as [Face.Degraded]
//
// The parsed font program is cached and shared between renders because it is
// immutable. Each [Face] is owned by one render and must be closed by it.
package fonts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-retryablehttp"
	sfntconv "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// ErrFontUnavailable reports that no scalable font could be loaded.
var ErrFontUnavailable = errors.New("no scalable font available")

// DefaultPatterns match font files anywhere below the fonts directory.
var DefaultPatterns = []string{"**/*.{ttf,otf,woff2,TTF,OTF,WOFF2}"}

// DefaultFallbacks are conventional system font locations tried when the
// fonts directory is empty.
var DefaultFallbacks = []string{
	"arial.ttf",
	"/System/Library/Fonts/Arial.ttf",
	"/usr/share/fonts/truetype/freefont/FreeSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"C:/Windows/Fonts/arial.ttf",
}

// ///////////////////////////////////////////////
// Face
// ///////////////////////////////////////////////

// Face is a font face at a fixed size together with how it was obtained.
type Face struct {
	font.Face
	// Size is the requested size in pixels (points at 72 DPI).
	Size float64
	// Source is the font file path, Google Fonts spec, or "builtin".
	Source string
	// Degraded is true when the face is the built-in bitmap font. Its glyphs
	// are tiny and ignore Size.
	Degraded bool
	// Err explains why the face is degraded; nil otherwise.
	Err error
}

// Close releases the face. Closing a degraded face is a no-op.
func (f *Face) Close() error {
	if f == nil || f.Degraded || f.Face == nil {
		return nil
	}
	return f.Face.Close()
}

// builtinFace returns the degraded bitmap face with the reason attached.
func builtinFace(size float64, reason error) *Face {
	return &Face{
		Face:     basicfont.Face7x13,
		Size:     size,
		Source:   "builtin",
		Degraded: true,
		Err:      reason,
	}
}

// ///////////////////////////////////////////////
// Discovery
// ///////////////////////////////////////////////

// Discover lists font files under dir matching any of patterns, creating dir
// if it does not exist. When nothing matches, fallbacks are returned instead.
// Results are sorted for a stable resolution order.
func Discover(dir string, patterns, fallbacks []string) []string {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("cannot create fonts dir", "dir", dir, "error", err)
	}

	var found []string
	fsys := os.DirFS(dir)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			slog.Warn("invalid font glob pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, m := range matches {
			// Hidden entries include the Google Fonts download cache.
			if isHidden(m) {
				continue
			}
			found = append(found, filepath.Join(dir, filepath.FromSlash(m)))
		}
	}
	slices.Sort(found)
	found = slices.Compact(found)
	if len(found) == 0 {
		return slices.Clone(fallbacks)
	}
	return found
}

// isHidden reports whether any element of the slash-separated path starts with ".".
func isHidden(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// IsFontFile reports whether name has a font file extension the resolver can load.
func IsFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf", ".woff2":
		return true
	}
	return false
}

// ///////////////////////////////////////////////
// Resolver
// ///////////////////////////////////////////////

// Options configures a [Resolver].
type Options struct {
	// Dir is the fonts directory scanned with Patterns.
	Dir string
	// Patterns are doublestar globs relative to Dir.
	Patterns []string
	// Fallbacks are font paths tried when Dir yields nothing.
	Fallbacks []string
	// GoogleSpec is an optional "google:FAMILY:WEIGHT" download tried after
	// every local candidate fails.
	GoogleSpec string
	// CacheDir stores downloaded Google Fonts.
	CacheDir string
	// Client performs Google Fonts downloads. Nil disables them.
	Client *retryablehttp.Client
}

// Resolver resolves the font chain once and hands out faces at any size.
// It is safe for concurrent use.
type Resolver struct {
	opts Options

	mu       sync.Mutex
	resolved bool
	program  *opentype.Font
	source   string
	err      error
}

// NewResolver returns a Resolver for opts. Nothing is read until the first
// call to [Resolver.Face].
func NewResolver(opts Options) *Resolver {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	return &Resolver{opts: opts}
}

// Rescan forgets the resolved font so the next [Resolver.Face] call walks the
// candidate chain again.
func (r *Resolver) Rescan() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = false
	r.program = nil
	r.source = ""
	r.err = nil
}

// Status reports the source of the resolved font, or the reason none loaded.
func (r *Resolver) Status() (source string, err error) {
	_, source, err = r.resolve()
	return source, err
}

// Candidates returns the local candidate chain in resolution order.
func (r *Resolver) Candidates() []string {
	return Discover(r.opts.Dir, r.opts.Patterns, r.opts.Fallbacks)
}

// Face opens a face at size pixels. When no scalable font can be loaded the
// built-in bitmap face is returned with Degraded set.
func (r *Resolver) Face(size float64) *Face {
	program, source, err := r.resolve()
	if err != nil {
		return builtinFace(size, err)
	}
	face, err := opentype.NewFace(program, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return builtinFace(size, fmt.Errorf("%w: %s at %.0fpx: %v", ErrFontUnavailable, source, size, err))
	}
	return &Face{Face: face, Size: size, Source: source}
}

// resolve walks the candidate chain once and caches the outcome.
func (r *Resolver) resolve() (*opentype.Font, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return r.program, r.source, r.err
	}
	r.program, r.source, r.err = r.load()
	r.resolved = true
	if r.err != nil {
		slog.Warn("no scalable font found, using builtin bitmap font", "error", r.err)
	} else {
		slog.Info("using font", "source", r.source)
	}
	return r.program, r.source, r.err
}

// load returns the first candidate that parses.
func (r *Resolver) load() (*opentype.Font, string, error) {
	var tried []string
	for _, path := range r.Candidates() {
		program, err := LoadFile(path)
		if err == nil {
			return program, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("font candidate rejected", "path", path, "error", err)
		}
		tried = append(tried, path)
	}

	if r.opts.GoogleSpec != "" && r.opts.Client != nil {
		data, err := FetchGoogleFont(r.opts.Client, r.opts.GoogleSpec, r.opts.CacheDir)
		if err == nil {
			program, perr := opentype.Parse(data)
			if perr == nil {
				return program, r.opts.GoogleSpec, nil
			}
			err = perr
		}
		slog.Warn("google fonts fallback failed", "spec", r.opts.GoogleSpec, "error", err)
		tried = append(tried, r.opts.GoogleSpec)
	}

	return nil, "", fmt.Errorf("%w (tried %d candidates)", ErrFontUnavailable, len(tried))
}

// LoadFile reads and parses a TTF, OTF, or WOFF2 font file.
func LoadFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err = maybeConvertWOFF2(path, data)
	if err != nil {
		return nil, err
	}
	program, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return program, nil
}

// maybeConvertWOFF2 converts WOFF2 font data to SFNT format if needed.
func maybeConvertWOFF2(path string, data []byte) ([]byte, error) {
	if !isWOFF2(path, data) {
		return data, nil
	}
	sfnt, err := sfntconv.ToSFNT(data)
	if err != nil {
		return nil, fmt.Errorf("convert woff2 to sfnt: %w", err)
	}
	return sfnt, nil
}

// isWOFF2 checks whether font data is WOFF2 by extension or magic bytes ("wOF2").
func isWOFF2(path string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(path), ".woff2") {
		return true
	}
	return len(data) >= 4 && string(data[:4]) == "wOF2"
}
