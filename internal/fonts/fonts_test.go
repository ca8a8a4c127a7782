// fonts_test.go tests discovery, the resolver's degrade chain, Google Fonts
// spec parsing and caching, and the fonts directory watcher.

package fonts

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/image/font/gofont/goregular"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// ///////////////////////////////////////////////
// Discover
// ///////////////////////////////////////////////

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.ttf"), goregular.TTF)
	writeFile(t, filepath.Join(dir, "nested", "a.otf"), []byte("otf"))
	writeFile(t, filepath.Join(dir, "readme.txt"), []byte("text"))
	writeFile(t, filepath.Join(dir, ".cache", "Inter-400.ttf"), goregular.TTF)

	got := Discover(dir, DefaultPatterns, []string{"/fallback.ttf"})
	want := []string{filepath.Join(dir, "b.ttf"), filepath.Join(dir, "nested", "a.otf")}
	if len(got) != len(want) {
		t.Fatalf("Discover = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Discover[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiscoverEmptyUsesFallbacks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fonts")
	got := Discover(dir, DefaultPatterns, []string{"/x.ttf", "/y.ttf"})
	if len(got) != 2 || got[0] != "/x.ttf" {
		t.Errorf("Discover = %q, want fallbacks", got)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("fonts dir not created: %v", err)
	}
}

// ///////////////////////////////////////////////
// Resolver
// ///////////////////////////////////////////////

func TestResolverLoadsFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "0-broken.ttf"), []byte("not a font"))
	writeFile(t, filepath.Join(dir, "1-goregular.ttf"), goregular.TTF)

	r := NewResolver(Options{Dir: dir})
	face := r.Face(40)
	defer face.Close()

	if face.Degraded {
		t.Fatalf("face degraded: %v", face.Err)
	}
	if want := filepath.Join(dir, "1-goregular.ttf"); face.Source != want {
		t.Errorf("Source = %q, want %q", face.Source, want)
	}
	if face.Metrics().Height.Ceil() < 40 {
		t.Errorf("line height %d smaller than requested size", face.Metrics().Height.Ceil())
	}
}

func TestResolverDegrades(t *testing.T) {
	r := NewResolver(Options{
		Dir:       t.TempDir(),
		Fallbacks: []string{filepath.Join(t.TempDir(), "missing.ttf")},
	})
	face := r.Face(40)
	if !face.Degraded {
		t.Fatal("expected degraded face")
	}
	if !errors.Is(face.Err, ErrFontUnavailable) {
		t.Errorf("Err = %v, want ErrFontUnavailable", face.Err)
	}
	if face.Face == nil {
		t.Fatal("degraded face has no glyphs")
	}
	if err := face.Close(); err != nil {
		t.Errorf("Close on degraded face: %v", err)
	}
	if _, err := r.Status(); !errors.Is(err, ErrFontUnavailable) {
		t.Errorf("Status err = %v, want ErrFontUnavailable", err)
	}
}

func TestResolverRescan(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(Options{Dir: dir})
	if f := r.Face(20); !f.Degraded {
		t.Fatal("expected degraded face before fonts are installed")
	}

	writeFile(t, filepath.Join(dir, "go.ttf"), goregular.TTF)
	if f := r.Face(20); !f.Degraded {
		t.Fatal("resolution should be cached until Rescan")
	}

	r.Rescan()
	f := r.Face(20)
	defer f.Close()
	if f.Degraded {
		t.Fatalf("expected scalable face after Rescan: %v", f.Err)
	}
}

func TestResolverConcurrentFaces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.ttf"), goregular.TTF)
	r := NewResolver(Options{Dir: dir})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(size float64) {
			defer wg.Done()
			f := r.Face(size)
			defer f.Close()
			if f.Degraded {
				t.Errorf("face %v degraded: %v", size, f.Err)
			}
		}(float64(20 + i))
	}
	wg.Wait()
}

// ///////////////////////////////////////////////
// Google Fonts
// ///////////////////////////////////////////////

func TestParseGoogleFontSpec(t *testing.T) {
	tests := []struct {
		spec           string
		family, weight string
		ok             bool
	}{
		{"google:Inter:800", "Inter", "800", true},
		{"google:Open Sans:400", "Open Sans", "400", true},
		{"google:Inter", "", "", false},
		{"local:Inter:800", "", "", false},
		{"google::400", "", "", false},
	}
	for _, tt := range tests {
		family, weight, ok := ParseGoogleFontSpec(tt.spec)
		if family != tt.family || weight != tt.weight || ok != tt.ok {
			t.Errorf("ParseGoogleFontSpec(%q) = %q, %q, %v", tt.spec, family, weight, ok)
		}
	}
}

func TestFetchGoogleFontCacheHit(t *testing.T) {
	cache := t.TempDir()
	writeFile(t, filepath.Join(cache, "Inter-400.ttf"), goregular.TTF)

	// A nil client proves the network is never touched on a cache hit.
	data, err := FetchGoogleFont(nil, "google:Inter:400", cache)
	if err != nil {
		t.Fatalf("FetchGoogleFont: %v", err)
	}
	if len(data) != len(goregular.TTF) {
		t.Errorf("got %d bytes, want %d", len(data), len(goregular.TTF))
	}
}

func TestFetchGoogleFontNoURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("/* no font here */"))
	}))
	defer srv.Close()

	old := cssAPI
	cssAPI = srv.URL
	defer func() { cssAPI = old }()

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 0

	if _, err := FetchGoogleFont(client, "google:Inter:400", t.TempDir()); err == nil {
		t.Fatal("expected error when CSS has no font URL")
	}
}

func TestResolverGoogleFallbackFromCache(t *testing.T) {
	cache := t.TempDir()
	writeFile(t, filepath.Join(cache, "Inter-400.ttf"), goregular.TTF)

	r := NewResolver(Options{
		Dir:        t.TempDir(),
		GoogleSpec: "google:Inter:400",
		CacheDir:   cache,
		Client:     retryablehttp.NewClient(),
	})
	f := r.Face(30)
	defer f.Close()
	if f.Degraded {
		t.Fatalf("expected google fallback, got degraded: %v", f.Err)
	}
	if f.Source != "google:Inter:400" {
		t.Errorf("Source = %q", f.Source)
	}
}

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

func TestWatcherFontAdded(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	// Give fsnotify a moment to register the watch.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "new.ttf"), goregular.TTF)

	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for font change event")
	}
}

func TestWatcherPollingFallback(t *testing.T) {
	dir := t.TempDir()
	w := &Watcher{
		dir:          dir,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 20 * time.Millisecond,
	}
	w.startPolling()
	defer w.Close()

	if !w.Polling() {
		t.Fatal("Polling() = false after startPolling")
	}
	time.Sleep(40 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "poll.otf"), goregular.TTF)

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for polled change")
	}
}

func TestWatcherCloseIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
