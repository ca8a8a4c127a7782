package render

import (
	"errors"
	"fmt"

	"tools.zach/dev/dresscode/internal/assets"
	"tools.zach/dev/dresscode/internal/contactqr"
	"tools.zach/dev/dresscode/internal/fonts"
	"tools.zach/dev/dresscode/internal/textlayout"
)

// Warning is a recoverable failure: the render continued without the
// affected element.
type Warning struct {
	Stage Stage
	Err   error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Stage, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Kind names the failure class of w.Err.
func (w Warning) Kind() string {
	switch {
	case errors.Is(w.Err, assets.ErrAssetLoad):
		return "asset_load"
	case errors.Is(w.Err, fonts.ErrFontUnavailable):
		return "font_unavailable"
	case errors.Is(w.Err, textlayout.ErrMeasurement):
		return "text_measurement"
	case errors.Is(w.Err, contactqr.ErrQREncoding):
		return "qr_encoding"
	default:
		return "unknown"
	}
}
