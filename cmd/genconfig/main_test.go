package main

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"tools.zach/dev/dresscode/internal/config"
)

// ///////////////////////////////////////////////
// parseSectionPath Tests
// ///////////////////////////////////////////////

func TestParseSectionPath(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    []string
	}{
		{"single segment", "render", []string{"render"}},
		{"two segments", "render.labels", []string{"render", "labels"}},
		{"three segments", "a.b.c", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSectionPath(tt.section)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSectionPath(%q) = %q, want %q", tt.section, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// sectionName Tests
// ///////////////////////////////////////////////

func TestSectionName(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    string
	}{
		{"single segment", "fonts", "Fonts"},
		{"last of two", "render.labels", "Labels"},
		{"already capitalized", "Log", "Log"},
		{"single char", "a", "A"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sectionName(tt.section); got != tt.want {
				t.Errorf("sectionName(%q) = %q, want %q", tt.section, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// injectOmitted Tests
// ///////////////////////////////////////////////

func TestInjectOmittedNoSection(t *testing.T) {
	var out []string
	injectOmitted(&out, config.ConfigDocs, nil, map[string]bool{})
	if len(out) != 0 {
		t.Errorf("injectOmitted with nil sectionStack produced %d lines, want 0", len(out))
	}
}

func TestInjectOmittedSkipsEmittedAndNested(t *testing.T) {
	docs := map[string]config.FieldDoc{
		"server.addr":            {Comment: "listen"},
		"server.backgrounds_dir": {Comment: "pictures", Alternatives: []string{`backgrounds_dir = "/srv"`}},
		"server.tls.cert":        {Comment: "nested"},
	}
	emitted := map[string]bool{"server.addr": true}

	var out []string
	injectOmitted(&out, docs, []string{"server"}, emitted)

	want := []string{"", "# pictures", `# backgrounds_dir = "/srv"`}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("out = %q, want %q", out, want)
	}
	if !emitted["server.backgrounds_dir"] {
		t.Error("injected key not marked as emitted")
	}
}

// ///////////////////////////////////////////////
// generate Tests
// ///////////////////////////////////////////////

func TestGenerateRoundTrips(t *testing.T) {
	out, err := generate(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(out, "# ///////////////////////////////////////////////\n# Dresscode Configuration") {
		t.Errorf("missing header:\n%s", out)
	}

	cfg := config.DefaultConfig()
	if err := toml.Unmarshal([]byte(out), cfg); err != nil {
		t.Fatalf("generated file does not parse: %v", err)
	}
	if !reflect.DeepEqual(cfg, config.ExampleConfig()) {
		t.Errorf("generated config decodes to %+v, want ExampleConfig", cfg)
	}
}

func TestGenerateDocumentsOmittedFields(t *testing.T) {
	out, err := generate(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{
		`# google = "google:Inter:400"`,
		`# dir = "/usr/share/fonts/truetype/inter"`,
		`# backgrounds_dir = "/srv/dresscode/backgrounds"`,
		"# ///// Labels /////",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated file missing %q", want)
		}
	}
}

func TestCommittedDefaultConfigIsCurrent(t *testing.T) {
	data, err := os.ReadFile("../../config.default.toml")
	if err != nil {
		t.Fatalf("read config.default.toml: %v", err)
	}
	cfg := config.DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		t.Fatalf("config.default.toml does not parse: %v", err)
	}
	if !reflect.DeepEqual(cfg, config.ExampleConfig()) {
		t.Errorf("config.default.toml is stale; run go generate ./internal/config")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config.default.toml fails validation: %v", err)
	}
}
