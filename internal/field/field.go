// Package field implements the hold-to-move protocol that relocates and locks
// the rectangular playing field.
//
// The machine is driven by one Update per frame with timestamps supplied by
// the caller. It never reads the wall clock and is not safe for concurrent use.
package field

import (
	"time"
)

// Mode is the externally visible state of the machine.
type Mode string

const (
	// ModeNormal is the idle state; the field is locked.
	ModeNormal Mode = "normal"
	// ModeMovePending means the start gesture is being held.
	ModeMovePending Mode = "move-pending"
	// ModeMoving means the field follows the hand until the lock gesture.
	ModeMoving Mode = "moving"
)

// Variant selects the start and lock gestures.
type Variant string

const (
	// VariantPalm starts on a front-facing open palm and locks on a fist.
	VariantPalm Variant = "palm"
	// VariantFist starts on an upward fist and locks on an open hand.
	VariantFist Variant = "fist"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantPalm || v == VariantFist
}

// Config holds the field-move parameters.
type Config struct {
	Variant         Variant       `mapstructure:"variant"`
	HoldDuration    time.Duration `mapstructure:"hold_duration"`
	DefaultFraction float64       `mapstructure:"default_fraction"` // Share of the screen covered after a reset
}

// DefaultConfig returns the default field configuration.
func DefaultConfig() Config {
	return Config{
		Variant:         VariantPalm,
		HoldDuration:    3 * time.Second,
		DefaultFraction: 0.8,
	}
}

// Bounds is an axis-aligned rectangle in screen pixels.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right is the x coordinate of the right edge.
func (b Bounds) Right() float64 { return b.X + b.Width }

// Bottom is the y coordinate of the bottom edge.
func (b Bounds) Bottom() float64 { return b.Y + b.Height }

// Size is the host screen in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// centered returns a rectangle covering fraction of s in each dimension.
func centered(s Size, fraction float64) Bounds {
	w, h := s.Width*fraction, s.Height*fraction
	return Bounds{
		X:      (s.Width - w) / 2,
		Y:      (s.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}

// clamp keeps b inside s. A rectangle larger than the screen is pinned to
// the top-left corner.
func clamp(b Bounds, s Size) Bounds {
	b.X = min(max(b.X, 0), max(s.Width-b.Width, 0))
	b.Y = min(max(b.Y, 0), max(s.Height-b.Height, 0))
	return b
}

// EventKind identifies why the bounds were published.
type EventKind string

const (
	EventCommit EventKind = "commit"
	EventResize EventKind = "resize"
	EventReset  EventKind = "reset"
)

// Event carries bounds published to collaborators.
type Event struct {
	Kind   EventKind `json:"kind"`
	Bounds Bounds    `json:"bounds"`
}

// State is a read-only view of the machine.
type State struct {
	Mode     Mode    `json:"mode"`
	Progress float64 `json:"progress"`
	Bounds   Bounds  `json:"bounds"`
	Screen   Size    `json:"screen"`
	Variant  Variant `json:"variant"`
}
