package gesture

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/tracking"
)

// Hand is the classifier input for one detected hand.
type Hand struct {
	Handedness detector.Handedness
	Landmarks  tracking.Landmarks
	Palm       r3.Vec // Palm center, see tracking.PalmCenter
	// Mirrored is set when the landmarks were projected with x flipped.
	Mirrored bool
}

// NewHand wraps stabilized landmarks and computes the palm center.
func NewHand(handedness detector.Handedness, landmarks tracking.Landmarks) *Hand {
	return &Hand{
		Handedness: handedness,
		Landmarks:  landmarks,
		Palm:       tracking.PalmCenter(&landmarks),
	}
}

func (h *Hand) pos(i int) r3.Vec {
	return h.Landmarks[i].Position
}

func (h *Hand) palmDist(i int) float64 {
	return r3.Norm(r3.Sub(h.pos(i), h.Palm))
}

// tipDistances returns the palm distance of the index to pinky fingertips.
func (h *Hand) tipDistances() [4]float64 {
	var d [4]float64
	for f, joints := range detector.Fingers {
		d[f] = h.palmDist(joints[3])
	}
	return d
}

// mcpAxis collects one coordinate of the four finger MCP joints.
func (h *Hand) mcpAxis(axis func(r3.Vec) float64) []float64 {
	vals := make([]float64, 0, len(detector.Fingers))
	for _, joints := range detector.Fingers {
		vals = append(vals, axis(h.pos(joints[0])))
	}
	return vals
}

// usable reports whether landmark i is seen this frame or remembered with
// more than minConfidence.
func (h *Hand) usable(i int, minConfidence float64) bool {
	lm := h.Landmarks[i]
	return lm.Visible || lm.Confidence > minConfidence
}

// jointCos is the cosine of the angle at joint between joint→a and joint→b.
func (h *Hand) jointCos(a, joint, b int) float64 {
	u := r3.Sub(h.pos(a), h.pos(joint))
	v := r3.Sub(h.pos(b), h.pos(joint))
	n := r3.Norm(u) * r3.Norm(v)
	if n == 0 {
		return 1
	}
	return r3.Dot(u, v) / n
}

func countIf(vals [4]float64, pred func(float64) bool) int {
	n := 0
	for _, v := range vals {
		if pred(v) {
			n++
		}
	}
	return n
}

func spread(vals []float64) float64 {
	return floats.Max(vals) - floats.Min(vals)
}

func dist2(a, b r3.Vec) float64 {
	return r2.Norm(r2.Sub(tracking.XY(a), tracking.XY(b)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func getY(v r3.Vec) float64 { return v.Y }
func getZ(v r3.Vec) float64 { return v.Z }

// Check is one named predicate of a conjunctive classifier.
type Check struct {
	Name string
	Test func(h *Hand) bool
}

// Result is the outcome of a check list. Failed names the first check that
// rejected the hand.
type Result struct {
	OK     bool   `json:"ok"`
	Failed string `json:"failed,omitempty"`
}

// Evaluate runs checks in order and stops at the first failure.
func Evaluate(checks []Check, h *Hand) Result {
	for _, c := range checks {
		if !c.Test(h) {
			return Result{Failed: c.Name}
		}
	}
	return Result{OK: true}
}
