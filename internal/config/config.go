// Package config provides configuration loading and defaults for dresscode.
//
// Configuration is loaded from a TOML file in the user's data directory. It
// covers font discovery, the tunable parts of the background layout, remote
// fetch limits, the HTTP server, and logging, with sensible defaults for all.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"tools.zach/dev/dresscode/internal/atomicfile"
	"tools.zach/dev/dresscode/internal/colormath"
	"tools.zach/dev/dresscode/internal/contactqr"
	"tools.zach/dev/dresscode/internal/fonts"
	"tools.zach/dev/dresscode/internal/paths"
	"tools.zach/dev/dresscode/internal/render"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Fonts holds font discovery settings.
	Fonts FontsConfig `toml:"fonts"`
	// Render holds layout settings.
	Render RenderConfig `toml:"render"`
	// Fetch holds limits for remote logo and font downloads.
	Fetch FetchConfig `toml:"fetch"`
	// Server holds HTTP server settings.
	Server ServerConfig `toml:"server"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// FontsConfig holds font discovery settings.
type FontsConfig struct {
	// Dir is the fonts directory. Relative paths are resolved against the data
	// directory; empty means <data-dir>/fonts.
	Dir string `toml:"dir,omitempty"`
	// Patterns are doublestar globs matched inside Dir.
	Patterns []string `toml:"patterns"`
	// Fallbacks are font files tried when Dir has no fonts.
	Fallbacks []string `toml:"fallbacks"`
	// Google is an optional "google:FAMILY:WEIGHT" download tried last.
	Google string `toml:"google,omitempty"`
	// Watch rescans fonts when files in Dir change (server mode).
	Watch bool `toml:"watch"`
}

// RenderConfig holds the tunable parts of the layout.
type RenderConfig struct {
	// OverlayAlpha is the gradient alpha, 0-255.
	OverlayAlpha int `toml:"overlay_alpha"`
	// LogoSize is the edge of the square logo in pixels.
	LogoSize int `toml:"logo_size"`
	// LogoX and LogoY place the logo's top-left corner.
	LogoX int `toml:"logo_x"`
	LogoY int `toml:"logo_y"`
	// WrapWidth is the maximum width of wrapped lines in pixels.
	WrapWidth int `toml:"wrap_width"`
	// BodySize, SloganSize and LabelSize are text sizes in pixels.
	BodySize   float64 `toml:"body_size"`
	SloganSize float64 `toml:"slogan_size"`
	LabelSize  float64 `toml:"label_size"`
	// PrimaryColor and SecondaryColor replace empty corporate colors.
	PrimaryColor   string `toml:"primary_color"`
	SecondaryColor string `toml:"secondary_color"`
	// Labels holds the contact block captions.
	Labels LabelsConfig `toml:"labels"`
}

// LabelsConfig holds the contact block captions.
type LabelsConfig struct {
	Contacts string `toml:"contacts"`
	Email    string `toml:"email"`
	Telegram string `toml:"telegram"`
}

// FetchConfig holds limits for remote downloads.
type FetchConfig struct {
	// TimeoutSeconds bounds each HTTP attempt.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// Retries is the number of retries after a failed attempt.
	Retries int `toml:"retries"`
	// MaxBytes caps a downloaded logo.
	MaxBytes int64 `toml:"max_bytes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
	// BackgroundsDir holds the base pictures offered by the API. Relative
	// paths are resolved against the data directory; empty means
	// <data-dir>/backgrounds.
	BackgroundsDir string `toml:"backgrounds_dir,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	layout := render.DefaultLayout()
	return &Config{
		Fonts: FontsConfig{
			Patterns:  append([]string(nil), fonts.DefaultPatterns...),
			Fallbacks: append([]string(nil), fonts.DefaultFallbacks...),
			Watch:     true,
		},
		Render: RenderConfig{
			OverlayAlpha:   int(layout.OverlayAlpha),
			LogoSize:       layout.LogoSize,
			LogoX:          layout.LogoOffset.X,
			LogoY:          layout.LogoOffset.Y,
			WrapWidth:      layout.WrapWidth,
			BodySize:       layout.BodySize,
			SloganSize:     layout.SloganSize,
			LabelSize:      layout.LabelSize,
			PrimaryColor:   layout.DefaultPrimary,
			SecondaryColor: layout.DefaultSecondary,
			Labels: LabelsConfig{
				Contacts: layout.Labels.Header,
				Email:    layout.Labels.Email,
				Telegram: layout.Labels.Telegram,
			},
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 10,
			Retries:        2,
			MaxBytes:       10 << 20,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config suitable for generating config.default.toml.
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	// Keep the generated file portable: system font paths are documented
	// instead of baked in.
	cfg.Fonts.Fallbacks = []string{fonts.DefaultFallbacks[2], fonts.DefaultFallbacks[3]}
	return cfg
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	for _, p := range c.Fonts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid fonts.patterns entry %q", p)
		}
	}
	if c.Fonts.Google != "" {
		if _, _, ok := fonts.ParseGoogleFontSpec(c.Fonts.Google); !ok {
			return fmt.Errorf("invalid fonts.google %q: expected google:FAMILY:WEIGHT", c.Fonts.Google)
		}
	}

	r := c.Render
	if r.OverlayAlpha < 0 || r.OverlayAlpha > 255 {
		return fmt.Errorf("render.overlay_alpha must be 0-255, got %d", r.OverlayAlpha)
	}
	if r.LogoSize <= 0 || r.LogoSize > 540 {
		return fmt.Errorf("render.logo_size must be 1-540, got %d", r.LogoSize)
	}
	if r.LogoX < 0 || r.LogoY < 0 {
		return fmt.Errorf("render.logo_x and logo_y must be >= 0, got %d,%d", r.LogoX, r.LogoY)
	}
	if r.WrapWidth <= 0 {
		return fmt.Errorf("render.wrap_width must be > 0, got %d", r.WrapWidth)
	}
	for name, size := range map[string]float64{"body_size": r.BodySize, "slogan_size": r.SloganSize, "label_size": r.LabelSize} {
		if size <= 0 || size > 200 {
			return fmt.Errorf("render.%s must be in (0, 200], got %g", name, size)
		}
	}
	for name, hex := range map[string]string{"primary_color": r.PrimaryColor, "secondary_color": r.SecondaryColor} {
		if _, err := colormath.ParseHex(hex); err != nil {
			return fmt.Errorf("render.%s: %w", name, err)
		}
	}

	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must be >= 0, got %d", c.Fetch.Retries)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("fetch.max_bytes must be > 0, got %d", c.Fetch.MaxBytes)
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}
	return nil
}

// ///////////////////////////////////////////////
// Derived Settings
// ///////////////////////////////////////////////

// Layout converts the render section into a [render.Layout].
func (c *Config) Layout() render.Layout {
	r := c.Render
	return render.Layout{
		OverlayAlpha:     uint8(r.OverlayAlpha),
		LogoSize:         r.LogoSize,
		LogoOffset:       image.Pt(r.LogoX, r.LogoY),
		WrapWidth:        r.WrapWidth,
		BodySize:         r.BodySize,
		SloganSize:       r.SloganSize,
		LabelSize:        r.LabelSize,
		DefaultPrimary:   r.PrimaryColor,
		DefaultSecondary: r.SecondaryColor,
		Labels: contactqr.Labels{
			Header:   r.Labels.Contacts,
			Email:    r.Labels.Email,
			Telegram: r.Labels.Telegram,
		},
	}
}

// FetchTimeout returns the per-attempt HTTP timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FontsDir returns the fonts directory for the data directory d.
func (c *Config) FontsDir(d paths.DataDir) string {
	return resolveDir(d.Root, c.Fonts.Dir, d.Fonts())
}

// BackgroundsDir returns the backgrounds directory for the data directory d.
func (c *Config) BackgroundsDir(d paths.DataDir) string {
	return resolveDir(d.Root, c.Server.BackgroundsDir, d.Backgrounds())
}

// resolveDir returns dir resolved against root, or fallback when dir is empty.
func resolveDir(root, dir, fallback string) string {
	switch {
	case dir == "":
		return fallback
	case filepath.IsAbs(dir):
		return dir
	default:
		return filepath.Join(root, dir)
	}
}
