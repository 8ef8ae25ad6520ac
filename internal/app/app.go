// Package app runs gesturefield: it feeds camera frames through the hand
// detector and the gesture core, persists field events, runs plugin hooks
// and publishes frames to live listeners.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/gesturefield/internal/capture"
	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/field"
	"github.com/ayusman/gesturefield/internal/overlay"
	"github.com/ayusman/gesturefield/internal/pipeline"
	"github.com/ayusman/gesturefield/internal/plugin"
	"github.com/ayusman/gesturefield/internal/store"
	"github.com/ayusman/gesturefield/internal/tracking"
)

// ErrInvalidSize is returned by ResizeField for non-positive sizes.
var ErrInvalidSize = errors.New("width and height must be positive")

// Config holds the host settings.
type Config struct {
	HandExpiry  time.Duration `mapstructure:"hand_expiry"`  // Forget hand state unseen this long
	HookTimeout time.Duration `mapstructure:"hook_timeout"` // Per plugin call
	PluginDir   string        `mapstructure:"plugin_dir"`   // Empty means <data dir>/plugins
	Overlay     bool          `mapstructure:"overlay"`      // Draw the field and hands on the preview
	JPEGQuality int           `mapstructure:"jpeg_quality"`
	Mock        bool          `mapstructure:"mock"` // Blank camera and mock detector
}

// DefaultConfig returns the default host configuration.
func DefaultConfig() Config {
	return Config{
		HandExpiry:  time.Second,
		HookTimeout: 5 * time.Second,
		Overlay:     true,
		JPEGQuality: 80,
	}
}

// Options are everything New needs.
type Options struct {
	Config   Config
	Camera   capture.Config
	Detector detector.Config
	Pipeline pipeline.Config
	Store    *store.Store
	Logger   zerolog.Logger
}

// App is the running host.
type App struct {
	config Config
	store  *store.Store
	logger zerolog.Logger
	clock  func() time.Time

	camera     capture.Camera
	motion     *capture.MotionDetector
	governor   *capture.RateGovernor
	detector   detector.Detector
	proc       *pipeline.Processor
	renderer   *overlay.Renderer
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor

	// mu serializes the core between the frame loop and HTTP handlers.
	mu        sync.Mutex
	lastSeen  map[string]int64
	latest    pipeline.Frame
	jpeg      []byte
	jpegSeq   uint64
	listeners []func(*pipeline.Frame)

	stateMu sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// hookMu guards hookCancel, which is nil once Stop has begun.
	hookMu     sync.Mutex
	hookCtx    context.Context
	hookCancel context.CancelFunc
	hooks      sync.WaitGroup
}

// New builds an App. The stored field is restored and the enabled flag is
// read from the settings table.
func New(opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, errors.New("app needs a store")
	}

	logger := opts.Logger.With().Str("component", "app").Logger()

	proc, err := pipeline.NewProcessor(opts.Pipeline, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating processor: %w", err)
	}

	a := &App{
		config:     opts.Config,
		store:      opts.Store,
		logger:     logger,
		clock:      time.Now,
		motion:     capture.NewMotionDetector(opts.Camera.MotionThreshold),
		governor:   capture.NewRateGovernor(opts.Camera),
		proc:       proc,
		renderer:   overlay.NewRenderer(opts.Pipeline.Viewport),
		pluginMgr:  plugin.NewManager(opts.Config.PluginDir, opts.Logger.With().Str("component", "plugins").Logger()),
		pluginExec: plugin.NewExecutor(opts.Config.HookTimeout),
		lastSeen:   make(map[string]int64),
		enabled:    opts.Store.Settings().GetBool(store.SettingEnabled, true),
	}

	if opts.Config.Mock {
		a.camera = capture.NewBlankCamera(opts.Camera.Width, opts.Camera.Height)
		a.detector = detector.NewMockDetector()
		logger.Info().Msg("using mock camera and detector")
	} else {
		a.camera = capture.NewCamera(opts.Camera)
		if mp, err := detector.NewMediaPipeDetector(opts.Detector, opts.Logger); err == nil {
			a.detector = mp
			logger.Info().Msg("using MediaPipe hand detection")
		} else {
			logger.Warn().Err(err).Msg("MediaPipe not available, using mock detector")
			a.detector = detector.NewMockDetector()
		}
	}

	a.hookCtx, a.hookCancel = context.WithCancel(context.Background())
	proc.Machine().OnEvent(a.onFieldEvent)
	a.restoreField()
	a.latest = pipeline.Frame{Dominant: -1, Field: proc.Machine().State()}

	return a, nil
}

func (a *App) restoreField() {
	saved, err := a.store.Field().Load()
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("loading field state")
		return
	}

	a.proc.Machine().Restore(
		field.Bounds{X: saved.X, Y: saved.Y, Width: saved.Width, Height: saved.Height},
		field.Size{Width: saved.ScreenWidth, Height: saved.ScreenHeight},
	)
	b := a.proc.Machine().Bounds()
	a.logger.Info().
		Float64("x", b.X).Float64("y", b.Y).
		Float64("width", b.Width).Float64("height", b.Height).
		Msg("restored field")
}

// SetEnabled pauses or resumes frame processing and persists the choice.
func (a *App) SetEnabled(enabled bool) error {
	a.stateMu.Lock()
	a.enabled = enabled
	a.stateMu.Unlock()

	if err := a.store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
		return fmt.Errorf("saving enabled setting: %w", err)
	}
	a.logger.Info().Bool("enabled", enabled).Msg("processing toggled")
	return nil
}

// IsEnabled reports whether frames are processed.
func (a *App) IsEnabled() bool {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.enabled
}

// SetDetector replaces the hand detector.
func (a *App) SetDetector(d detector.Detector) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.detector
}

// SetCamera replaces the camera. Call it before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.camera = c
}

// Camera returns the camera.
func (a *App) Camera() capture.Camera {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.camera
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// AddListener registers fn to receive every processed frame. It is called
// on the frame loop goroutine and must not block.
func (a *App) AddListener(fn func(*pipeline.Frame)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// FieldState returns the current field state.
func (a *App) FieldState() field.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.proc.Machine().State()
}

// ResetField centers the field at its default size.
func (a *App) ResetField() field.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.proc.Machine().Reset()
	return a.proc.Machine().State()
}

// ResizeField changes the viewport the core projects into.
func (a *App) ResizeField(width, height float64) (field.State, error) {
	if width <= 0 || height <= 0 {
		return field.State{}, ErrInvalidSize
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	vp := tracking.Viewport{Width: width, Height: height}
	a.proc.Resize(vp)
	a.renderer.SetViewport(vp)
	return a.proc.Machine().State(), nil
}

// LatestFrame returns the last processed frame.
func (a *App) LatestFrame() pipeline.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// LatestJPEG returns the last preview image and its sequence number. The
// sequence grows by one per image; zero means none yet.
func (a *App) LatestJPEG() ([]byte, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.jpeg, a.jpegSeq
}

// Start opens the camera, discovers plugins and starts the frame loop.
func (a *App) Start() error {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.pluginMgr.Discover(); err != nil {
		a.logger.Warn().Err(err).Msg("discovering plugins")
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("opening camera: %w", err)
	}
	a.camera.SetFPS(a.governor.FPS())

	a.hookMu.Lock()
	if a.hookCancel == nil {
		a.hookCtx, a.hookCancel = context.WithCancel(context.Background())
	}
	a.hookMu.Unlock()

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	a.logger.Info().Int("fps", a.governor.FPS()).Msg("frame loop started")
	return nil
}

// Stop halts the frame loop, cancels running hooks and waits for them, then
// releases the camera, motion detector and hand detector. Field events after
// Stop no longer start hooks.
func (a *App) Stop() {
	a.stateMu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.stateMu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.hookMu.Lock()
	if a.hookCancel != nil {
		a.hookCancel()
		a.hookCancel = nil
	}
	a.hookMu.Unlock()
	a.hooks.Wait()

	if err := a.Camera().Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing camera")
	}
	a.motion.Close()
	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing detector")
		}
	}

	a.logger.Info().Msg("frame loop stopped")
}
