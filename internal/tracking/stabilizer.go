// Package tracking turns raw per-frame hand landmarks into stable screen-space
// positions, palm features and motion estimates.
package tracking

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/gesturefield/internal/detector"
)

// StabilizerConfig holds the landmark smoothing and persistence parameters.
type StabilizerConfig struct {
	// VisibilityMargin widens the [0,1] band in which a raw landmark counts as seen.
	VisibilityMargin float64 `mapstructure:"visibility_margin"`
	// PersistenceWindow is how long a stored landmark is trusted after it was last seen.
	PersistenceWindow time.Duration `mapstructure:"persistence_window"`
	// Smoothing is the history weight applied to a fully confident stored landmark.
	Smoothing float64 `mapstructure:"smoothing"`
	// ConfidenceFloor is reported for landmarks that are neither seen nor remembered.
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
	// Mirror flips x when projecting to the screen.
	Mirror bool `mapstructure:"mirror"`
}

// DefaultStabilizerConfig returns the calibrated stabilizer defaults.
func DefaultStabilizerConfig() StabilizerConfig {
	return StabilizerConfig{
		VisibilityMargin:  0.1,
		PersistenceWindow: 400 * time.Millisecond,
		Smoothing:         0.5,
		ConfidenceFloor:   0.1,
	}
}

// Viewport is the host surface in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Landmark is one stabilized landmark for the current frame.
type Landmark struct {
	Position   r3.Vec  `json:"position"`
	Confidence float64 `json:"confidence"`
	Visible    bool    `json:"visible"`
}

// StoredLandmark is the remembered state of one landmark of one hand.
type StoredLandmark struct {
	Position   r3.Vec
	Confidence float64
	// Timestamp is the last frame, in milliseconds, in which the landmark was seen.
	Timestamp int64

	// confidence at the time of the last observation; decay is linear from here
	observed float64
}

type handTable [detector.NumLandmarks]*StoredLandmark

// Stabilizer smooths landmarks over time and bridges short gaps in
// visibility. It is not safe for concurrent use.
type Stabilizer struct {
	config StabilizerConfig
	hands  map[string]*handTable
}

// NewStabilizer creates a Stabilizer with an empty landmark table.
func NewStabilizer(config StabilizerConfig) *Stabilizer {
	return &Stabilizer{
		config: config,
		hands:  make(map[string]*handTable),
	}
}

// Project converts a normalized landmark to screen space. Depth is scaled by
// the viewport width so it shares units with x. NaN coordinates map to 0.
func Project(p detector.Point3D, vp Viewport, mirror bool) r3.Vec {
	x := finite(p.X)
	if mirror {
		x = 1 - x
	}
	return r3.Vec{
		X: x * vp.Width,
		Y: finite(p.Y) * vp.Height,
		Z: finite(p.Z) * vp.Width,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// visible reports whether a raw landmark lies inside the tolerance band.
func (s *Stabilizer) visible(p detector.Point3D) bool {
	if p.IsMissing() {
		return false
	}
	lo, hi := -s.config.VisibilityMargin, 1+s.config.VisibilityMargin
	return p.X >= lo && p.X <= hi && p.Y >= lo && p.Y <= hi
}

// Stabilize produces 21 screen-space landmarks for the hand identified by key
// and records them for later frames. It always returns a full set.
func (s *Stabilizer) Stabilize(key string, raw *[detector.NumLandmarks]detector.Point3D, vp Viewport, ts int64) [detector.NumLandmarks]Landmark {
	table, ok := s.hands[key]
	if !ok {
		table = &handTable{}
		s.hands[key] = table
	}

	window := s.config.PersistenceWindow.Milliseconds()

	var out [detector.NumLandmarks]Landmark
	for i, p := range raw {
		pos := Project(p, vp, s.config.Mirror)
		stored := table[i]

		var age int64
		recent := false
		if stored != nil {
			age = ts - stored.Timestamp
			recent = age <= window
		}

		switch {
		case s.visible(p):
			if recent {
				w := s.config.Smoothing * stored.Confidence
				pos = r3.Add(r3.Scale(w, stored.Position), r3.Scale(1-w, pos))
			}
			if stored == nil {
				stored = &StoredLandmark{}
				table[i] = stored
			}
			stored.Position = pos
			stored.Confidence = 1
			stored.observed = 1
			stored.Timestamp = ts
			out[i] = Landmark{Position: pos, Confidence: 1, Visible: true}

		case recent:
			conf := stored.observed
			if window > 0 {
				conf *= 1 - float64(age)/float64(window)
			}
			stored.Confidence = conf
			out[i] = Landmark{Position: stored.Position, Confidence: conf}

		default:
			if stored != nil {
				stored.Confidence = 0
			}
			out[i] = Landmark{Position: pos, Confidence: s.config.ConfidenceFloor}
		}
	}

	return out
}

// Stored returns the remembered state of landmark index for the hand key.
func (s *Stabilizer) Stored(key string, index int) (StoredLandmark, bool) {
	table, ok := s.hands[key]
	if !ok || index < 0 || index >= detector.NumLandmarks || table[index] == nil {
		return StoredLandmark{}, false
	}
	return *table[index], true
}

// Rescale multiplies every remembered position by the per-axis factors, used
// when the viewport changes size.
func (s *Stabilizer) Rescale(sx, sy, sz float64) {
	for _, table := range s.hands {
		for _, stored := range table {
			if stored == nil {
				continue
			}
			stored.Position = r3.Vec{
				X: stored.Position.X * sx,
				Y: stored.Position.Y * sy,
				Z: stored.Position.Z * sz,
			}
		}
	}
}

// Forget drops all remembered landmarks for the hand key.
func (s *Stabilizer) Forget(key string) {
	delete(s.hands, key)
}

// Keys returns the hand keys with remembered landmarks, sorted.
func (s *Stabilizer) Keys() []string {
	keys := make([]string, 0, len(s.hands))
	for k := range s.hands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
