// Package api serves the renderer over HTTP with gin.
//
//	GET  /api/health                 liveness and font status
//	POST /api/render?background=NAME {"employee": {...}} -> image/png
//	GET  /api/qr?text=&size=         contact code preview
//	GET  /api/backgrounds            names accepted by /api/render
//	GET  /api/fonts                  resolved font and candidate chain
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"tools.zach/dev/dresscode/internal/employee"
	"tools.zach/dev/dresscode/internal/render"
)

// Renderer renders a record over a base picture. [render.Renderer] implements it.
type Renderer interface {
	Render(rec employee.Record, basePath, outPath string) (*render.Result, error)
}

// FontStatus reports font resolution. [fonts.Resolver] implements it.
type FontStatus interface {
	Status() (source string, err error)
	Candidates() []string
}

// Server holds the handlers' dependencies.
type Server struct {
	renderer    Renderer
	fonts       FontStatus
	backgrounds string
	// MaxBody caps the size of a render request body.
	MaxBody int64
}

// New returns a Server rendering pictures from backgroundsDir.
func New(r Renderer, fonts FontStatus, backgroundsDir string) *Server {
	return &Server{renderer: r, fonts: fonts, backgrounds: backgroundsDir, MaxBody: 1 << 20}
}

// RegisterRoutes mounts the API under /api.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/render", s.render)
		api.GET("/qr", s.qr)
		api.GET("/backgrounds", s.listBackgrounds)
		api.GET("/fonts", s.listFonts)
	}
}

// Handler returns an engine with recovery, request logging, and the API routes.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s.RegisterRoutes(r)
	return r
}

// requestLogger logs each request through slog instead of gin's own writer.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelDebug
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond))
	}
}
