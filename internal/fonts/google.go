// google.go downloads font files from the Google Fonts CSS API.
//
// Font specs use the format "google:FAMILY:WEIGHT" (e.g. "google:Inter:400").
// Downloads are cached in the font cache directory so they are fetched once.

package fonts

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// fontURLRe extracts the font file URL from the CSS response.
var fontURLRe = regexp.MustCompile(`url\((https://fonts\.gstatic\.com/[^)]+)\)`)

// cssAPI is the Google Fonts CSS endpoint; tests point it at a local server.
var cssAPI = "https://fonts.googleapis.com/css2"

// ParseGoogleFontSpec splits a "google:Family:Weight" spec.
func ParseGoogleFontSpec(spec string) (family, weight string, ok bool) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 || parts[0] != "google" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// FetchGoogleFont returns SFNT bytes for spec, reading cacheDir first and
// downloading (and caching) on a miss. WOFF2 downloads are converted.
func FetchGoogleFont(client *retryablehttp.Client, spec, cacheDir string) ([]byte, error) {
	family, weight, ok := ParseGoogleFontSpec(spec)
	if !ok {
		return nil, fmt.Errorf("invalid google font spec %q: expected google:FAMILY:WEIGHT", spec)
	}

	cacheFile := filepath.Join(cacheDir, fmt.Sprintf("%s-%s.ttf", strings.ReplaceAll(family, " ", "_"), weight))
	if data, err := os.ReadFile(cacheFile); err == nil {
		return data, nil
	}

	cssURL := fmt.Sprintf("%s?family=%s:wght@%s", cssAPI, url.QueryEscape(family), weight)
	cssBody, err := get(client, cssURL, 1<<20)
	if err != nil {
		return nil, fmt.Errorf("fetching CSS from Google Fonts: %w", err)
	}

	m := fontURLRe.FindSubmatch(cssBody)
	if m == nil {
		return nil, fmt.Errorf("no font URL in Google Fonts CSS for %s wght@%s", family, weight)
	}
	fontURL := string(m[1])

	data, err := get(client, fontURL, 10<<20)
	if err != nil {
		return nil, fmt.Errorf("downloading font file: %w", err)
	}
	data, err = maybeConvertWOFF2(fontURL, data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating font cache dir: %w", err)
	}
	if err := os.WriteFile(cacheFile, data, 0o644); err != nil {
		slog.Warn("failed to cache font", "path", cacheFile, "error", err)
	}
	return data, nil
}

// get fetches url and reads at most limit bytes of a 200 response.
func get(client *retryablehttp.Client, url string, limit int64) ([]byte, error) {
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	// A modern UA makes Google serve WOFF2, which we can convert.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
