// Package detector finds hand landmarks in camera frames.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Fingers lists the MCP, PIP, DIP and tip indices of the four non-thumb fingers,
// ordered index, middle, ring, pinky.
var Fingers = [4][4]int{
	{IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{RingMCP, RingPIP, RingDIP, RingTip},
	{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

// Handedness is the left/right label assigned to a hand by the detector.
type Handedness string

const (
	HandLeft  Handedness = "Left"
	HandRight Handedness = "Right"
)

// Point3D represents a normalized landmark position. X and Y are nominally
// in [0,1] but may fall outside when the hand leaves the frame; Z is relative
// depth where smaller means closer to the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MissingPoint returns the placeholder used for landmarks the detector did not report.
func MissingPoint() Point3D {
	nan := math.NaN()
	return Point3D{X: nan, Y: nan, Z: nan}
}

// IsMissing reports whether any coordinate of p is NaN.
func (p Point3D) IsMissing() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
	// TrackID optionally identifies the hand across frames. When empty the
	// handedness label is used, which collapses two same-side hands into one.
	TrackID string `json:"track_id,omitempty"`
}

// Key returns the identity used for per-hand history.
func (h *HandLandmarks) Key() string {
	if h.TrackID != "" {
		return h.TrackID
	}
	return string(h.Handedness)
}
