// Package config loads gesturefield settings from defaults, an optional
// config file and GESTUREFIELD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ayusman/gesturefield/internal/app"
	"github.com/ayusman/gesturefield/internal/capture"
	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/logging"
	"github.com/ayusman/gesturefield/internal/pipeline"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// FileName is the config file looked up in the data directory.
const FileName = "gesturefield"

// EnvPrefix prefixes environment overrides, e.g. GESTUREFIELD_SERVER_ADDR.
const EnvPrefix = "GESTUREFIELD"

// Server holds the HTTP listener settings.
type Server struct {
	Addr   string `mapstructure:"addr"`
	WebDir string `mapstructure:"web_dir"` // Empty means look next to the binary
}

// Config is the full application configuration.
type Config struct {
	DataDir  string          `mapstructure:"data_dir"`
	Log      logging.Config  `mapstructure:"log"`
	Camera   capture.Config  `mapstructure:"camera"`
	Detector detector.Config `mapstructure:"detector"`
	Pipeline pipeline.Config `mapstructure:"pipeline"`
	Server   Server          `mapstructure:"server"`
	App      app.Config      `mapstructure:"app"`
}

// DefaultDataDir returns ~/.gesturefield, or .gesturefield when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gesturefield"
	}
	return filepath.Join(home, ".gesturefield")
}

// Load reads the configuration. When path is empty the file is optional and
// searched for in the data directory; otherwise it must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(v.GetString("data_dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())

	l := logging.DefaultConfig()
	v.SetDefault("log.level", l.Level)
	v.SetDefault("log.format", l.Format)
	v.SetDefault("log.dir", l.Dir)

	c := capture.DefaultConfig()
	v.SetDefault("camera.device_id", c.DeviceID)
	v.SetDefault("camera.width", c.Width)
	v.SetDefault("camera.height", c.Height)
	v.SetDefault("camera.idle_fps", c.IdleFPS)
	v.SetDefault("camera.active_fps", c.ActiveFPS)
	v.SetDefault("camera.motion_threshold", c.MotionThreshold)
	v.SetDefault("camera.idle_after", c.IdleAfter)

	d := detector.DefaultConfig()
	v.SetDefault("detector.max_hands", d.MaxHands)
	v.SetDefault("detector.min_confidence", d.MinConfidence)
	v.SetDefault("detector.min_tracking_confidence", d.MinTrackingConf)
	v.SetDefault("detector.script_path", d.ScriptPath)
	v.SetDefault("detector.python_path", d.PythonPath)
	v.SetDefault("detector.idle_timeout", d.IdleTimeout)

	p := pipeline.DefaultConfig()
	v.SetDefault("pipeline.viewport.width", p.Viewport.Width)
	v.SetDefault("pipeline.viewport.height", p.Viewport.Height)
	v.SetDefault("pipeline.primary_hand", string(p.PrimaryHand))

	v.SetDefault("pipeline.stabilizer.visibility_margin", p.Stabilizer.VisibilityMargin)
	v.SetDefault("pipeline.stabilizer.persistence_window", p.Stabilizer.PersistenceWindow)
	v.SetDefault("pipeline.stabilizer.smoothing", p.Stabilizer.Smoothing)
	v.SetDefault("pipeline.stabilizer.confidence_floor", p.Stabilizer.ConfidenceFloor)
	v.SetDefault("pipeline.stabilizer.mirror", p.Stabilizer.Mirror)

	v.SetDefault("pipeline.velocity.max_age", p.Velocity.MaxAge)
	v.SetDefault("pipeline.velocity.max_samples", p.Velocity.MaxSamples)
	v.SetDefault("pipeline.velocity.min_interval", p.Velocity.MinInterval)
	v.SetDefault("pipeline.velocity.frame_scale", p.Velocity.FrameScale)

	g := p.Gesture
	v.SetDefault("pipeline.gesture.fist_tip_radius", g.FistTipRadius)
	v.SetDefault("pipeline.gesture.fist_min_curled", g.FistMinCurled)
	v.SetDefault("pipeline.gesture.pinch_distance", g.PinchDistance)
	v.SetDefault("pipeline.gesture.pinch_strength_range", g.PinchStrengthRange)
	v.SetDefault("pipeline.gesture.pinch_min_confidence", g.PinchMinConfidence)
	v.SetDefault("pipeline.gesture.point_index_min_dist", g.PointIndexMinDist)
	v.SetDefault("pipeline.gesture.point_curled_max_dist", g.PointCurledMaxDist)
	v.SetDefault("pipeline.gesture.point_straight_cos", g.PointStraightCos)
	v.SetDefault("pipeline.gesture.point_extrapolation", g.PointExtrapolation)
	v.SetDefault("pipeline.gesture.palm_wrist_margin", g.PalmWristMargin)
	v.SetDefault("pipeline.gesture.palm_depth_tolerance", g.PalmDepthTolerance)
	v.SetDefault("pipeline.gesture.palm_finger_rise_margin", g.PalmFingerRiseMargin)
	v.SetDefault("pipeline.gesture.palm_tip_min_dist", g.PalmTipMinDist)
	v.SetDefault("pipeline.gesture.palm_thumb_min_dist", g.PalmThumbMinDist)
	v.SetDefault("pipeline.gesture.palm_mcp_level_range", g.PalmMCPLevelRange)
	v.SetDefault("pipeline.gesture.palm_mcp_depth_range", g.PalmMCPDepthRange)
	v.SetDefault("pipeline.gesture.up_fist_wrist_margin", g.UpFistWristMargin)
	v.SetDefault("pipeline.gesture.up_fist_mcp_level_range", g.UpFistMCPLevelRange)
	v.SetDefault("pipeline.gesture.up_fist_thumb_max_dist", g.UpFistThumbMaxDist)
	v.SetDefault("pipeline.gesture.open_hand_tip_min_dist", g.OpenHandTipMinDist)
	v.SetDefault("pipeline.gesture.open_hand_min_extended", g.OpenHandMinExtended)

	v.SetDefault("pipeline.field.variant", string(p.Field.Variant))
	v.SetDefault("pipeline.field.hold_duration", p.Field.HoldDuration)
	v.SetDefault("pipeline.field.default_fraction", p.Field.DefaultFraction)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.web_dir", "")

	a := app.DefaultConfig()
	v.SetDefault("app.hand_expiry", a.HandExpiry)
	v.SetDefault("app.hook_timeout", a.HookTimeout)
	v.SetDefault("app.plugin_dir", a.PluginDir)
	v.SetDefault("app.overlay", a.Overlay)
	v.SetDefault("app.jpeg_quality", a.JPEGQuality)
	v.SetDefault("app.mock", a.Mock)
}

// Validate rejects settings the core cannot run with.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	p := c.Pipeline
	check(p.Viewport.Width > 0 && p.Viewport.Height > 0, "pipeline.viewport must be positive")
	check(p.PrimaryHand == detector.HandLeft || p.PrimaryHand == detector.HandRight,
		"pipeline.primary_hand must be Left or Right")
	check(p.Stabilizer.PersistenceWindow > 0, "pipeline.stabilizer.persistence_window must be positive")
	check(p.Stabilizer.Smoothing >= 0 && p.Stabilizer.Smoothing < 1, "pipeline.stabilizer.smoothing must be in [0,1)")
	check(p.Velocity.MaxAge > 0, "pipeline.velocity.max_age must be positive")
	check(p.Velocity.MaxSamples >= 2, "pipeline.velocity.max_samples must be at least 2")
	check(p.Velocity.MinInterval > 0, "pipeline.velocity.min_interval must be positive")
	check(p.Field.Variant.Valid(), "pipeline.field.variant must be palm or fist")
	check(p.Field.HoldDuration > 0, "pipeline.field.hold_duration must be positive")
	check(p.Field.DefaultFraction > 0 && p.Field.DefaultFraction <= 1, "pipeline.field.default_fraction must be in (0,1]")

	check(logging.ValidLevel(c.Log.Level), "log.level must be trace, debug, info, warn or error")
	check(c.Log.Format == "console" || c.Log.Format == "json", "log.format must be console or json")

	check(c.Camera.IdleFPS > 0 && c.Camera.ActiveFPS > 0, "camera fps must be positive")
	check(c.Camera.MotionThreshold > 0, "camera.motion_threshold must be positive")
	check(c.Detector.MaxHands > 0, "detector.max_hands must be positive")

	check(c.App.HandExpiry > 0, "app.hand_expiry must be positive")
	check(c.App.HookTimeout > 0, "app.hook_timeout must be positive")
	check(c.App.JPEGQuality > 0 && c.App.JPEGQuality <= 100, "app.jpeg_quality must be in (0,100]")
	check(c.DataDir != "", "data_dir must be set")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
