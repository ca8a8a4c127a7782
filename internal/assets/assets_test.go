package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xAA
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "base.png")
	if err := os.WriteFile(path, pngBytes(t, 32, 16), 0o644); err != nil {
		t.Fatal(err)
	}

	var l Loader
	img, err := l.Base(path)
	if err != nil {
		t.Fatalf("Base: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Errorf("bounds = %v", img.Bounds())
	}

	if _, err := l.Base(filepath.Join(dir, "missing.png")); !errors.Is(err, ErrAssetLoad) {
		t.Errorf("missing base err = %v, want ErrAssetLoad", err)
	}

	corrupt := filepath.Join(dir, "corrupt.png")
	os.WriteFile(corrupt, []byte("not an image"), 0o644)
	if _, err := l.Base(corrupt); !errors.Is(err, ErrAssetLoad) {
		t.Errorf("corrupt base err = %v, want ErrAssetLoad", err)
	}
}

func TestLogoLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	os.WriteFile(path, pngBytes(t, 8, 8), 0o644)

	var l Loader
	if _, err := l.Logo(path); err != nil {
		t.Fatalf("Logo: %v", err)
	}
	for _, src := range []string{"", "   ", "/definitely/not/here.png"} {
		if _, err := l.Logo(src); !errors.Is(err, ErrAssetLoad) {
			t.Errorf("Logo(%q) err = %v, want ErrAssetLoad", src, err)
		}
	}
}

func TestLogoRemote(t *testing.T) {
	logo := pngBytes(t, 10, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			w.Write(logo)
		case "/huge.png":
			w.Write(bytes.Repeat([]byte{0}, 2048))
		case "/text":
			w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := Loader{Client: NewClient(5*time.Second, 0), MaxBytes: 1024}

	img, err := l.Logo(srv.URL + "/logo.png")
	if err != nil {
		t.Fatalf("Logo: %v", err)
	}
	if img.Bounds().Dx() != 10 {
		t.Errorf("width = %d, want 10", img.Bounds().Dx())
	}

	for _, path := range []string{"/missing.png", "/huge.png", "/text"} {
		if _, err := l.Logo(srv.URL + path); !errors.Is(err, ErrAssetLoad) {
			t.Errorf("Logo(%s) err = %v, want ErrAssetLoad", path, err)
		}
	}

	var offline Loader
	if _, err := offline.Logo(srv.URL + "/logo.png"); !errors.Is(err, ErrAssetLoad) {
		t.Errorf("nil client err = %v, want ErrAssetLoad", err)
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://x.io/a.png": true,
		"HTTP://x.io/a.png":  true,
		"ftp://x.io/a.png":   false,
		"logo.png":           false,
		"/srv/https/a.png":   false,
	}
	for src, want := range tests {
		if got := IsRemote(src); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestListBackgrounds(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"office.png", "beach.JPG", "notes.txt", "forest.jpeg"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644)
	}
	os.MkdirAll(filepath.Join(dir, "nested"), 0o755)
	os.WriteFile(filepath.Join(dir, "nested", "deep.png"), []byte("x"), 0o644)

	got, err := ListBackgrounds(dir)
	if err != nil {
		t.Fatalf("ListBackgrounds: %v", err)
	}
	want := []string{"beach.JPG", "forest.jpeg", "office.png"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	none, err := ListBackgrounds(filepath.Join(dir, "absent"))
	if err != nil || len(none) != 0 {
		t.Errorf("missing dir = %q, %v", none, err)
	}
}

func TestResolveBackground(t *testing.T) {
	dir := t.TempDir()
	if p, err := ResolveBackground(dir, "office.png"); err != nil || p != filepath.Join(dir, "office.png") {
		t.Errorf("ResolveBackground = %q, %v", p, err)
	}
	for _, name := range []string{"", "../etc/passwd.png", "nested/a.png", "/abs.png", "notes.txt"} {
		if _, err := ResolveBackground(dir, name); !errors.Is(err, ErrAssetLoad) {
			t.Errorf("ResolveBackground(%q) err = %v, want ErrAssetLoad", name, err)
		}
	}
}
