package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/gesturefield/internal/app"
	"github.com/ayusman/gesturefield/internal/config"
	"github.com/ayusman/gesturefield/internal/logging"
	"github.com/ayusman/gesturefield/internal/pipeline"
	"github.com/ayusman/gesturefield/internal/server"
	"github.com/ayusman/gesturefield/internal/store"
	"github.com/ayusman/gesturefield/internal/tray"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "config file (default: gesturefield.yaml in the data dir)")
	mock := flag.Bool("mock", false, "use a blank camera and the mock detector")
	headless := flag.Bool("headless", false, "run without the tray icon")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gesturefield: %v\n", err)
		os.Exit(1)
	}
	if *mock {
		cfg.App.Mock = true
	}

	if err := run(cfg, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "gesturefield: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, headless bool) error {
	outs := []io.Writer{os.Stderr}
	if cfg.Log.Dir != "" {
		f, err := logging.OpenFile(cfg.Log.Dir, "gesturefield", time.Now())
		if err != nil {
			return err
		}
		defer f.Close()
		outs = append(outs, f)
	}
	logger := logging.New(cfg.Log, outs...)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.New(filepath.Join(cfg.DataDir, "gesturefield.db"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if cfg.App.PluginDir == "" {
		cfg.App.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}

	a, err := app.New(app.Options{
		Config:   cfg.App,
		Camera:   cfg.Camera,
		Detector: cfg.Detector,
		Pipeline: cfg.Pipeline,
		Store:    st,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	hub := server.NewHub(logger)
	hub.SetGreeting(func() any {
		f := a.LatestFrame()
		return &f
	})
	a.AddListener(func(f *pipeline.Frame) { hub.Broadcast(f) })

	webDir := cfg.Server.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		logger.Info().Str("dir", webDir).Msg("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Field:     a,
		Frames:    a,
		Plugins:   a.PluginManager(),
		Hub:       hub,
		Logger:    logger,
	})

	if err := a.Start(); err != nil {
		return fmt.Errorf("starting app: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	wait := func() {
		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		case runErr = <-serveErr:
			if runErr != nil {
				runErr = fmt.Errorf("serving http: %w", runErr)
			}
		}
	}

	if headless {
		wait()
	} else {
		// The tray owns the main thread until it quits.
		t := tray.New(a, logger)
		a.AddListener(func(f *pipeline.Frame) { t.SetFieldState(f.Field) })
		t.OnOpen(func() { openBrowser(logger, previewURL(cfg.Server.Addr)) })
		go func() {
			wait()
			t.Quit()
		}()
		t.Run()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn().Err(err).Msg("shutting down http server")
	}
	a.Stop()

	return runErr
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// previewURL turns a listen address into a browsable URL.
func previewURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(logger zerolog.Logger, url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("opening browser")
		return
	}
	go cmd.Wait()
}
