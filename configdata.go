// Package dresscode provides embedded assets for the dresscode renderer.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The CLI writes it to the data directory on first run
// so every option is documented in place.
package dresscode

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time. It is regenerated by go generate ./internal/config.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
