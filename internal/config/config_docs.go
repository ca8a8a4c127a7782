package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "render.labels.email")
// to their [FieldDoc] entries. The genconfig tool uses this map to annotate the
// generated config.default.toml with inline comments and alternative examples.
var ConfigDocs = map[string]FieldDoc{
	// ── Fonts ────────────────────────────────────────────────────
	"fonts.dir": {
		Comment:      "Directory scanned for font files. Relative paths are resolved against\nthe data directory. Defaults to <data-dir>/fonts.",
		Alternatives: []string{`dir = "/usr/share/fonts/truetype/inter"`},
	},
	"fonts.patterns": {
		Comment: "Glob patterns matched inside the fonts directory (** matches subdirectories).\nThe first file that parses is used, in sorted path order.",
	},
	"fonts.fallbacks": {
		Comment:      "Font files tried only when the fonts directory has no matches.",
		Alternatives: []string{`fallbacks = ["/System/Library/Fonts/Arial.ttf", "C:/Windows/Fonts/arial.ttf"]`},
	},
	"fonts.google": {
		Comment:      "Google Fonts download tried after every local candidate fails.\nFormat: google:FAMILY:WEIGHT. Downloads are cached under <fonts-dir>/.cache.",
		Alternatives: []string{`google = "google:Inter:400"`},
	},
	"fonts.watch": {
		Comment: "Rescan fonts when files in the fonts directory change (server mode only).",
	},

	// ── Render ───────────────────────────────────────────────────
	"render.overlay_alpha": {
		Comment: "Opacity of the corporate gradient over the base picture (0-255).",
	},
	"render.logo_size": {
		Comment: "Edge of the square logo in pixels and its top-left corner.",
	},
	"render.logo_x": {},
	"render.logo_y": {},
	"render.wrap_width": {
		Comment: "Maximum width of a wrapped text line in pixels.",
	},
	"render.body_size": {
		Comment: "Text sizes in pixels: chips, slogan, and contact captions.",
	},
	"render.slogan_size": {},
	"render.label_size":  {},
	"render.primary_color": {
		Comment: "Corporate colors used when the employee record leaves them empty.",
	},
	"render.secondary_color": {},
	"render.labels.contacts": {
		Comment:      "Contact block header and QR captions.",
		Alternatives: []string{`contacts = "Контакты"`},
	},
	"render.labels.email":    {},
	"render.labels.telegram": {},

	// ── Fetch ────────────────────────────────────────────────────
	"fetch.timeout_seconds": {
		Comment: "Per-attempt timeout for logo and font downloads.",
	},
	"fetch.retries": {
		Comment: "Retries after a failed download attempt.",
	},
	"fetch.max_bytes": {
		Comment: "Largest accepted logo download in bytes.",
	},

	// ── Server ───────────────────────────────────────────────────
	"server.addr": {
		Comment:      "Listen address for dresscode -serve.",
		Alternatives: []string{`addr = "0.0.0.0:8080"`},
	},
	"server.backgrounds_dir": {
		Comment:      "Directory of base pictures offered by the HTTP API.\nRelative paths are resolved against the data directory. Defaults to <data-dir>/backgrounds.",
		Alternatives: []string{`backgrounds_dir = "/srv/dresscode/backgrounds"`},
	},

	// ── Log ──────────────────────────────────────────────────────
	"log.level": {
		Comment:      "Minimum log level: trace, debug, info, warn, error",
		Alternatives: []string{`level = "debug"`},
	},
	"log.max_size_mb": {
		Comment: "Log file is rotated when it exceeds this size.",
	},
}
