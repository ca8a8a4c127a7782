// Package main implements the dresscode command, which renders a personalized
// 1920x1080 virtual background from an employee record, or serves the
// renderer over HTTP with -serve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	rootpkg "tools.zach/dev/dresscode"
	"tools.zach/dev/dresscode/internal/api"
	"tools.zach/dev/dresscode/internal/assets"
	"tools.zach/dev/dresscode/internal/config"
	"tools.zach/dev/dresscode/internal/employee"
	"tools.zach/dev/dresscode/internal/fonts"
	"tools.zach/dev/dresscode/internal/logger"
	"tools.zach/dev/dresscode/internal/paths"
	"tools.zach/dev/dresscode/internal/render"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//   - goreleaser: -X main.version={{.Version}}  -> "0.1.0"
//   - make build: -X main.version=$(VERSION)    -> "0.0.0-dev+05ffee5"
//
// When ldflags are not set, resolveVersion reads the VCS info that Go embeds.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags at build time it is returned as-is; otherwise the VCS revision and
// dirty state embedded by the Go toolchain form a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Flags
// ///////////////////////////////////////////////

// options holds the parsed command line.
type options struct {
	dataDir  string
	employee string
	base     string
	out      string
	serve    bool
	init     bool
	force    bool
	version  bool
}

// defaultDataDir returns the platform default directory for dresscode data,
// typically ~/.dresscode. Falls back to ./.dresscode if the home directory
// cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dataDir, "data-dir", defaultDataDir(), "Data directory for config, fonts, backgrounds, and logs")
	fs.StringVar(&o.employee, "employee", "", "Employee JSON file (default <data-dir>/employee.json)")
	fs.StringVar(&o.base, "base", "", "Base picture: a file path or a name in the backgrounds directory")
	fs.StringVar(&o.out, "out", "", "Output PNG (default <data-dir>/background.png)")
	fs.BoolVar(&o.serve, "serve", false, "Serve the HTTP API instead of rendering once")
	fs.BoolVar(&o.init, "init", false, "Create the employee file interactively")
	fs.BoolVar(&o.force, "force", false, "With -init, overwrite an existing employee file")
	fs.BoolVar(&o.version, "version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.serve && o.init {
		return o, errors.New("-serve and -init cannot be combined")
	}
	return o, nil
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", paths.BinaryName, err)
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, paths.BinaryName, resolveVersion())
		return 0
	}

	dp := DataPaths{Root: opts.dataDir}
	if err := os.MkdirAll(dp.Root, 0o755); err != nil {
		fmt.Fprintf(stderr, "fatal: create data dir: %v\n", err)
		return 1
	}
	if _, err := os.Stat(dp.Config()); os.IsNotExist(err) {
		if writeErr := os.WriteFile(dp.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}

	cfg, err := config.Load(dp.Root)
	if err != nil {
		fmt.Fprintf(stderr, "fatal: load config: %v\n", err)
		return 1
	}

	log, logCloser, err := logger.NewLogger(logger.Options{
		Path:         dp.Log(),
		Level:        logger.ParseLevel(cfg.Log.Level),
		MaxSizeMB:    cfg.Log.MaxSizeMB,
		Console:      stderr,
		ConsoleLevel: logger.LevelWarn,
	})
	if err != nil {
		fmt.Fprintf(stderr, "fatal: init logger: %v\n", err)
		return 1
	}
	defer logCloser.Close()
	prev := slog.Default()
	slog.SetDefault(log)
	defer slog.SetDefault(prev)
	slog.Info("dresscode starting", "version", resolveVersion(), "data_dir", dp.Root)

	employeePath := opts.employee
	if employeePath == "" {
		employeePath = dp.Employee()
	}

	switch {
	case opts.init:
		err = runInit(employeePath, opts.force, stdin, stdout)
	case opts.serve:
		a := newApp(cfg, dp)
		var ln net.Listener
		ln, err = net.Listen("tcp", cfg.Server.Addr)
		if err == nil {
			sigs, release := shutdownSignals()
			err = a.serve(ln, sigs)
			release()
		}
	default:
		err = newApp(cfg, dp).renderOnce(employeePath, opts.base, opts.out, stdout)
	}
	if err != nil {
		logger.Fail(slog.Default(), "dresscode failed", "error", err)
		return 1
	}
	return 0
}

// ///////////////////////////////////////////////
// Wiring
// ///////////////////////////////////////////////

// app holds the components shared by render and serve modes.
type app struct {
	cfg            *config.Config
	paths          DataPaths
	fontsDir       string
	backgroundsDir string
	resolver       *fonts.Resolver
	renderer       *render.Renderer
}

func newApp(cfg *config.Config, dp DataPaths) *app {
	client := assets.NewClient(cfg.FetchTimeout(), cfg.Fetch.Retries)
	fontsDir := cfg.FontsDir(dp)
	resolver := fonts.NewResolver(fonts.Options{
		Dir:        fontsDir,
		Patterns:   cfg.Fonts.Patterns,
		Fallbacks:  cfg.Fonts.Fallbacks,
		GoogleSpec: cfg.Fonts.Google,
		CacheDir:   paths.FontCache(fontsDir),
		Client:     client,
	})
	loader := &assets.Loader{Client: client, MaxBytes: cfg.Fetch.MaxBytes}
	return &app{
		cfg:            cfg,
		paths:          dp,
		fontsDir:       fontsDir,
		backgroundsDir: cfg.BackgroundsDir(dp),
		resolver:       resolver,
		renderer:       render.New(cfg.Layout(), resolver, loader),
	}
}

// ///////////////////////////////////////////////
// Modes
// ///////////////////////////////////////////////

// runInit prompts for a record and saves it to path.
func runInit(path string, force bool, stdin io.Reader, stdout io.Writer) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	rec, err := employee.Prompt(stdin, stdout)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create employee dir: %w", err)
	}
	if err := employee.Save(path, rec); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "saved %s\n", path)
	return nil
}

// renderOnce renders the record at employeePath over base and prints the
// written path. Warnings reach stderr through the console log handler.
func (a *app) renderOnce(employeePath, base, out string, stdout io.Writer) error {
	if base == "" {
		return errors.New("-base is required")
	}
	basePath, err := a.resolveBase(base)
	if err != nil {
		return err
	}
	if out == "" {
		out = a.paths.Output()
	}
	rec, err := employee.Load(employeePath)
	if err != nil {
		return err
	}
	res, err := a.renderer.Render(rec, basePath, out)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, res.Path)
	return nil
}

// resolveBase returns base when it names an existing file, and otherwise
// looks it up in the backgrounds directory.
func (a *app) resolveBase(base string) (string, error) {
	if _, err := os.Stat(base); err == nil {
		return base, nil
	}
	if filepath.Base(base) != base {
		return base, nil
	}
	return assets.ResolveBackground(a.backgroundsDir, base)
}

// serve runs the HTTP API on ln until a value arrives on stop. In watch mode
// font file changes trigger a resolver rescan.
func (a *app) serve(ln net.Listener, stop <-chan os.Signal) error {
	if err := os.MkdirAll(a.backgroundsDir, 0o755); err != nil {
		return fmt.Errorf("create backgrounds dir: %w", err)
	}
	if logger.ParseLevel(a.cfg.Log.Level) > logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if a.cfg.Fonts.Watch {
		if err := os.MkdirAll(a.fontsDir, 0o755); err != nil {
			return fmt.Errorf("create fonts dir: %w", err)
		}
		w, err := fonts.NewWatcher(a.fontsDir)
		if err != nil {
			return fmt.Errorf("watch fonts: %w", err)
		}
		defer w.Close()
		if w.Polling() {
			slog.Info("using polling mode for font watching")
		}
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case <-done:
					return
				case <-w.Events():
					slog.Info("fonts changed, rescanning", "dir", a.fontsDir)
					a.resolver.Rescan()
				}
			}
		}()
	}

	srv := &http.Server{
		Handler:           api.New(a.renderer, a.resolver, a.backgroundsDir).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("serving", "addr", ln.Addr().String(), "backgrounds", a.backgroundsDir)

	select {
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
