package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tools.zach/dev/dresscode/internal/assets"
	"tools.zach/dev/dresscode/internal/colormath"
	"tools.zach/dev/dresscode/internal/contactqr"
	"tools.zach/dev/dresscode/internal/employee"
	"tools.zach/dev/dresscode/internal/render"
)

// Preview bounds for /api/qr.
const (
	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 1024
	// MaxQRText is the longest payload /api/qr accepts.
	MaxQRText = 1024
)

// Response headers set by /api/render.
const (
	HeaderWarnings   = "X-Render-Warnings"
	HeaderFontSource = "X-Font-Source"
)

func (s *Server) health(c *gin.Context) {
	source, err := s.fonts.Status()
	resp := gin.H{"status": "ok", "font": source}
	if err != nil {
		resp["status"] = "degraded"
		resp["font"] = "builtin"
		resp["font_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// render renders the posted envelope over ?background= and returns the PNG.
// Recoverable failures are listed in X-Render-Warnings as stage:kind pairs.
func (s *Server) render(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.MaxBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if int64(len(body)) > s.MaxBody {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	rec, err := employee.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	base, err := assets.ResolveBackground(s.backgrounds, c.Query("background"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.renderer.Render(rec, base, "")
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			slog.Error("render failed", "background", c.Query("background"), "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if len(res.Warnings) > 0 {
		c.Header(HeaderWarnings, warningsHeader(res.Warnings))
	}
	c.Header(HeaderFontSource, res.FontSource)
	c.Data(http.StatusOK, "image/png", res.PNG)
}

// statusFor maps a hard render failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assets.ErrAssetLoad):
		return http.StatusNotFound
	case errors.Is(err, colormath.ErrInvalidColorFormat):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrInvalidCanvas):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func warningsHeader(ws []render.Warning) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = string(w.Stage) + ":" + w.Kind()
	}
	return strings.Join(parts, ", ")
}

// qr returns a PNG preview of ?text= at ?size= pixels.
func (s *Server) qr(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text parameter is required"})
		return
	}
	if len(text) > MaxQRText {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text parameter too long"})
		return
	}
	size := DefaultQRSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < MinQRSize || n > MaxQRSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be an integer between 64 and 1024"})
			return
		}
		size = n
	}
	b, err := contactqr.PNG(text, size)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

func (s *Server) listBackgrounds(c *gin.Context) {
	names, err := assets.ListBackgrounds(s.backgrounds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(names), "backgrounds": names})
}

func (s *Server) listFonts(c *gin.Context) {
	source, err := s.fonts.Status()
	resp := gin.H{"source": source, "degraded": err != nil, "candidates": s.fonts.Candidates()}
	if err != nil {
		resp["source"] = "builtin"
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
