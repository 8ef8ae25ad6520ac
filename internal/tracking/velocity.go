package tracking

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// VelocityConfig bounds the per-hand motion history.
type VelocityConfig struct {
	MaxAge      time.Duration `mapstructure:"max_age"`
	MaxSamples  int           `mapstructure:"max_samples"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	// FrameScale converts px/ms into px per nominal 60 Hz frame.
	FrameScale float64 `mapstructure:"frame_scale"`
}

// DefaultVelocityConfig returns the calibrated velocity defaults.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{
		MaxAge:      150 * time.Millisecond,
		MaxSamples:  8,
		MinInterval: time.Millisecond,
		FrameScale:  16,
	}
}

// Sample is one recorded palm position.
type Sample struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

// VelocityTracker keeps a short position history per hand and derives an
// instantaneous and a recency-weighted velocity from it.
type VelocityTracker struct {
	config    VelocityConfig
	histories map[string][]Sample
}

// NewVelocityTracker creates a tracker with no history.
func NewVelocityTracker(config VelocityConfig) *VelocityTracker {
	return &VelocityTracker{
		config:    config,
		histories: make(map[string][]Sample),
	}
}

// Track records pos for the hand key at ts and returns the instantaneous and
// smoothed velocities. Both are zero until two samples are retained.
func (t *VelocityTracker) Track(key string, pos r2.Vec, ts int64) (instant, smoothed r2.Vec) {
	history := t.histories[key]

	// a repeated or rewound timestamp replaces the newer samples
	for len(history) > 0 && history[len(history)-1].Timestamp >= ts {
		history = history[:len(history)-1]
	}
	history = append(history, Sample{X: pos.X, Y: pos.Y, Timestamp: ts})

	maxAge := t.config.MaxAge.Milliseconds()
	cut := 0
	for cut < len(history) && ts-history[cut].Timestamp > maxAge {
		cut++
	}
	history = history[cut:]

	if t.config.MaxSamples > 0 && len(history) > t.config.MaxSamples {
		history = history[len(history)-t.config.MaxSamples:]
	}

	kept := make([]Sample, len(history))
	copy(kept, history)
	t.histories[key] = kept

	return Velocities(kept, t.config)
}

// History returns a copy of the retained samples for the hand key.
func (t *VelocityTracker) History(key string) []Sample {
	h := t.histories[key]
	out := make([]Sample, len(h))
	copy(out, h)
	return out
}

// Rescale multiplies every retained sample position by sx and sy.
func (t *VelocityTracker) Rescale(sx, sy float64) {
	for _, history := range t.histories {
		for i := range history {
			history[i].X *= sx
			history[i].Y *= sy
		}
	}
}

// Forget drops the history for the hand key.
func (t *VelocityTracker) Forget(key string) {
	delete(t.histories, key)
}

// Velocities computes the instantaneous velocity of the newest pair and the
// mean of all consecutive-pair velocities weighted i/len(history) for pair i
// counted from the oldest.
func Velocities(history []Sample, config VelocityConfig) (instant, smoothed r2.Vec) {
	n := len(history)
	if n < 2 {
		return r2.Vec{}, r2.Vec{}
	}

	vx := make([]float64, 0, n-1)
	vy := make([]float64, 0, n-1)
	weights := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		v := pairVelocity(history[i-1], history[i], config)
		vx = append(vx, v.X)
		vy = append(vy, v.Y)
		weights = append(weights, float64(i)/float64(n))
	}

	instant = r2.Vec{X: vx[len(vx)-1], Y: vy[len(vy)-1]}
	smoothed = r2.Vec{X: stat.Mean(vx, weights), Y: stat.Mean(vy, weights)}
	return instant, smoothed
}

func pairVelocity(a, b Sample, config VelocityConfig) r2.Vec {
	dt := float64(b.Timestamp - a.Timestamp)
	if minDt := float64(config.MinInterval.Milliseconds()); dt < minDt {
		dt = minDt
	}
	if dt <= 0 {
		dt = 1
	}
	return r2.Vec{
		X: (b.X - a.X) / dt * config.FrameScale,
		Y: (b.Y - a.Y) / dt * config.FrameScale,
	}
}
