// Package assets loads the images a render is built from: the base picture
// (always a local file) and the logo (a local file or an http(s) URL).
//
// Remote logos are fetched through a shared retryablehttp client with a
// response size cap. Every failure wraps [ErrAssetLoad].
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrAssetLoad is returned when an image asset cannot be read or decoded.
var ErrAssetLoad = errors.New("asset load failed")

// DefaultMaxBytes caps remote logo downloads.
const DefaultMaxBytes = 10 << 20

// ImagePattern matches the raster formats the decoder understands.
const ImagePattern = "*.{png,jpg,jpeg,gif,bmp,tif,tiff,PNG,JPG,JPEG}"

// NewClient returns a retryablehttp client with the given per-attempt
// timeout and retry count, and retryablehttp's own logging suppressed.
func NewClient(timeout time.Duration, retries int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return c
}

// Loader reads image assets.
type Loader struct {
	// Client fetches remote logos. Nil disables remote logos.
	Client *retryablehttp.Client
	// MaxBytes caps remote responses; zero means [DefaultMaxBytes].
	MaxBytes int64
}

// Base decodes the base picture at path.
func (l *Loader) Base(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: base image %s: %v", ErrAssetLoad, path, err)
	}
	return img, nil
}

// Logo decodes the logo at src, which may be a file path or an http(s) URL.
// An empty src is an error so callers can report the logo as skipped.
func (l *Loader) Logo(src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, fmt.Errorf("%w: no logo configured", ErrAssetLoad)
	case IsRemote(src):
		return l.fetch(src)
	}
	img, err := imaging.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%w: logo %s: %v", ErrAssetLoad, src, err)
	}
	return img, nil
}

// IsRemote reports whether src is an http or https URL.
func IsRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (l *Loader) fetch(url string) (image.Image, error) {
	if l.Client == nil {
		return nil, fmt.Errorf("%w: remote logo %s: fetching disabled", ErrAssetLoad, url)
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	resp, err := l.Client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrAssetLoad, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrAssetLoad, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrAssetLoad, url, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrAssetLoad, url, limit)
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrAssetLoad, url, err)
	}
	return img, nil
}

// ///////////////////////////////////////////////
// Backgrounds
// ///////////////////////////////////////////////

// ListBackgrounds returns the names of image files directly inside dir,
// sorted. A missing directory yields no names.
func ListBackgrounds(dir string) ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(dir), ImagePattern)
	if err != nil {
		return nil, fmt.Errorf("listing backgrounds: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// ResolveBackground maps a background name from [ListBackgrounds] to a path
// inside dir, rejecting names that would escape it.
func ResolveBackground(dir, name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: invalid background name %q", ErrAssetLoad, name)
	}
	if ok, _ := doublestar.Match(ImagePattern, name); !ok {
		return "", fmt.Errorf("%w: %q is not an image", ErrAssetLoad, name)
	}
	return filepath.Join(dir, name), nil
}
