// Package pipeline runs the per-frame gesture core: stabilization, feature
// extraction, velocity tracking, classification and the field-move machine.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/field"
	"github.com/ayusman/gesturefield/internal/gesture"
	"github.com/ayusman/gesturefield/internal/tracking"
)

// Config holds the configuration of every core stage.
type Config struct {
	Viewport    tracking.Viewport         `mapstructure:"viewport"`
	PrimaryHand detector.Handedness       `mapstructure:"primary_hand"`
	Stabilizer  tracking.StabilizerConfig `mapstructure:"stabilizer"`
	Velocity    tracking.VelocityConfig   `mapstructure:"velocity"`
	Gesture     gesture.Config            `mapstructure:"gesture"`
	Field       field.Config              `mapstructure:"field"`
}

// DefaultConfig returns the default core configuration for a 1280x720 view.
func DefaultConfig() Config {
	return Config{
		Viewport:    tracking.Viewport{Width: 1280, Height: 720},
		PrimaryHand: detector.HandRight,
		Stabilizer:  tracking.DefaultStabilizerConfig(),
		Velocity:    tracking.DefaultVelocityConfig(),
		Gesture:     gesture.DefaultConfig(),
		Field:       field.DefaultConfig(),
	}
}

// HandSnapshot is everything the core knows about one hand in one frame.
type HandSnapshot struct {
	Key              string              `json:"key"`
	Handedness       detector.Handedness `json:"handedness"`
	Score            float64             `json:"score"`
	Landmarks        tracking.Landmarks  `json:"landmarks"`
	PalmCenter       r3.Vec              `json:"palmCenter"`
	PalmPolygon      []r2.Vec            `json:"palmPolygon"`
	Velocity         r2.Vec              `json:"velocity"`
	SmoothedVelocity r2.Vec              `json:"smoothedVelocity"`
	Scale            float64             `json:"scale"`
	Depth            float64             `json:"depth"`
	IsPartial        bool                `json:"isPartial"` // Fewer than 21 landmarks seen this frame
	gesture.Signals
}

// Frame is the result of one ProcessFrame call.
type Frame struct {
	Timestamp int64          `json:"timestamp"`
	Hands     []HandSnapshot `json:"hands"`
	Dominant  int            `json:"dominant"` // Index into Hands, -1 without hands
	Field     field.State    `json:"field"`
}

// DominantHand returns the hand that drives the field machine.
func (f *Frame) DominantHand() (*HandSnapshot, bool) {
	if f.Dominant < 0 || f.Dominant >= len(f.Hands) {
		return nil, false
	}
	return &f.Hands[f.Dominant], true
}

// Processor owns all cross-frame state of the core. It must be driven by a
// single goroutine.
type Processor struct {
	config     Config
	viewport   tracking.Viewport
	stabilizer *tracking.Stabilizer
	velocity   *tracking.VelocityTracker
	classifier *gesture.Classifier
	machine    *field.Machine
	logger     zerolog.Logger

	frames      metric.Int64Counter
	handsSeen   metric.Int64Counter
	fieldEvents metric.Int64Counter
	modeChanges metric.Int64Counter
}

// NewProcessor creates a Processor. Metrics go to the global OTel meter
// provider.
func NewProcessor(config Config, logger zerolog.Logger) (*Processor, error) {
	p := &Processor{
		config:     config,
		viewport:   config.Viewport,
		stabilizer: tracking.NewStabilizer(config.Stabilizer),
		velocity:   tracking.NewVelocityTracker(config.Velocity),
		classifier: gesture.NewClassifier(config.Gesture),
		machine:    field.NewMachine(config.Field, fieldSize(config.Viewport)),
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}

	m := meter()
	var err error

	p.frames, err = m.Int64Counter(
		"pipeline.frames.processed",
		metric.WithDescription("Frames run through the gesture core"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	p.handsSeen, err = m.Int64Counter(
		"pipeline.hands.detected",
		metric.WithDescription("Hands received from the detector"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hands counter: %w", err)
	}

	p.fieldEvents, err = m.Int64Counter(
		"field.events",
		metric.WithDescription("Field bounds published, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating field events counter: %w", err)
	}

	p.modeChanges, err = m.Int64Counter(
		"field.mode.changes",
		metric.WithDescription("Field mode transitions, by target mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mode changes counter: %w", err)
	}

	p.machine.OnEvent(func(ev field.Event) {
		p.fieldEvents.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("kind", string(ev.Kind))))
	})
	p.machine.OnModeChange(func(from, to field.Mode) {
		p.modeChanges.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("mode", string(to))))
		p.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("field mode changed")
	})

	return p, nil
}

func fieldSize(vp tracking.Viewport) field.Size {
	return field.Size{Width: vp.Width, Height: vp.Height}
}

// Machine returns the field-move state machine.
func (p *Processor) Machine() *field.Machine {
	return p.machine
}

// Classifier returns the gesture classifier.
func (p *Processor) Classifier() *gesture.Classifier {
	return p.classifier
}

// Viewport returns the current projection viewport.
func (p *Processor) Viewport() tracking.Viewport {
	return p.viewport
}

// Resize changes the projection viewport and rescales the field. Stored
// landmarks and velocity histories are carried over into the new pixel scale.
func (p *Processor) Resize(vp tracking.Viewport) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	if old := p.viewport; old.Width > 0 && old.Height > 0 {
		sx, sy := vp.Width/old.Width, vp.Height/old.Height
		// depth is projected in width units
		p.stabilizer.Rescale(sx, sy, sx)
		p.velocity.Rescale(sx, sy)
	} else {
		for _, key := range p.Keys() {
			p.Forget(key)
		}
	}
	p.viewport = vp
	p.machine.Resize(fieldSize(vp))
}

// Forget discards the stored landmarks and velocity history of a hand.
func (p *Processor) Forget(key string) {
	p.stabilizer.Forget(key)
	p.velocity.Forget(key)
}

// Keys returns the hand keys with stored state.
func (p *Processor) Keys() []string {
	return p.stabilizer.Keys()
}

// ProcessFrame runs every core stage for the hands detected at ts.
func (p *Processor) ProcessFrame(ts int64, hands []detector.HandLandmarks) Frame {
	ctx := context.Background()
	p.frames.Add(ctx, 1)
	p.handsSeen.Add(ctx, int64(len(hands)))

	frame := Frame{
		Timestamp: ts,
		Hands:     make([]HandSnapshot, 0, len(hands)),
		Dominant:  -1,
	}

	used := make(map[string]int, len(hands))
	for i := range hands {
		key := hands[i].Key()
		// two hands with the same label and no track id get separate slots
		if n := used[key]; n > 0 {
			used[key] = n + 1
			key = fmt.Sprintf("%s#%d", key, n+1)
		} else {
			used[key] = 1
		}
		frame.Hands = append(frame.Hands, p.snapshot(key, &hands[i], ts))
	}

	frame.Dominant = p.dominant(frame.Hands)

	in := field.Input{Timestamp: ts}
	if hand, ok := frame.DominantHand(); ok {
		in.Present = true
		in.Palm = tracking.XY(hand.PalmCenter)
		in.Start, in.Lock = p.fieldGestures(hand)
	}
	p.machine.Update(in)

	frame.Field = p.machine.State()
	return frame
}

func (p *Processor) snapshot(key string, hand *detector.HandLandmarks, ts int64) HandSnapshot {
	lm := p.stabilizer.Stabilize(key, &hand.Points, p.viewport, ts)
	gh := gesture.NewHand(hand.Handedness, lm)
	gh.Mirrored = p.config.Stabilizer.Mirror
	instant, smoothed := p.velocity.Track(key, tracking.XY(gh.Palm), ts)

	visible := 0
	for i := range lm {
		if lm[i].Visible {
			visible++
		}
	}

	return HandSnapshot{
		Key:              key,
		Handedness:       hand.Handedness,
		Score:            hand.Score,
		Landmarks:        lm,
		PalmCenter:       gh.Palm,
		PalmPolygon:      tracking.PalmPolygon(&lm),
		Velocity:         instant,
		SmoothedVelocity: smoothed,
		Scale:            tracking.HandScale(&lm),
		Depth:            tracking.Depth(&lm),
		IsPartial:        visible < detector.NumLandmarks,
		Signals:          p.classifier.Classify(gh),
	}
}

// dominant prefers the configured primary hand, else the first hand.
func (p *Processor) dominant(hands []HandSnapshot) int {
	if len(hands) == 0 {
		return -1
	}
	for i := range hands {
		if hands[i].Handedness == p.config.PrimaryHand {
			return i
		}
	}
	return 0
}

// fieldGestures maps a hand onto the start and lock gestures of the
// configured variant.
func (p *Processor) fieldGestures(h *HandSnapshot) (start, lock bool) {
	switch p.machine.Variant() {
	case field.VariantFist:
		return h.UpwardFist.OK, h.OpenHand
	default:
		return h.FrontPalm.OK, h.Fist
	}
}
