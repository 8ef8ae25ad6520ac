package gesture

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/tracking"
)

// Check names reported in Result.Failed.
const (
	CheckNotPinchOrFist   = "not-pinch-or-fist"
	CheckWristBelowPalm   = "wrist-below-palm"
	CheckPalmFacingCamera = "palm-facing-camera"
	CheckThumbSide        = "thumb-side"
	CheckFingersExtended  = "fingers-extended"
	CheckThumbExtended    = "thumb-extended"
	CheckMCPsLevel        = "mcps-level"
	CheckMCPsCoplanar     = "mcps-coplanar"

	CheckFist           = "fist"
	CheckWristBelowMCPs = "wrist-below-mcps"
	CheckTipsCurled     = "tips-curled"
	CheckThumbTucked    = "thumb-tucked"
)

// Signals is the complete classification of one hand for one frame.
type Signals struct {
	Pinching       bool    `json:"pinching"`
	PinchStrength  float64 `json:"pinchStrength"`
	Fist           bool    `json:"fist"`
	Pointing       bool    `json:"pointing"`
	PointingTarget *r2.Vec `json:"pointingTarget,omitempty"`
	FrontPalm      Result  `json:"frontPalm"`
	UpwardFist     Result  `json:"upwardFist"`
	OpenHand       bool    `json:"openHand"`
}

// Classifier evaluates gesture predicates with a fixed set of thresholds.
type Classifier struct {
	config     Config
	frontPalm  []Check
	upwardFist []Check
}

// NewClassifier creates a Classifier and builds its check lists.
func NewClassifier(config Config) *Classifier {
	c := &Classifier{config: config}
	c.frontPalm = []Check{
		{CheckNotPinchOrFist, c.notPinchOrFist},
		{CheckWristBelowPalm, c.wristBelowPalm},
		{CheckPalmFacingCamera, c.palmFacingCamera},
		{CheckThumbSide, thumbSide},
		{CheckFingersExtended, c.fingersExtended},
		{CheckThumbExtended, c.thumbExtended},
		{CheckMCPsLevel, mcpsLevel(config.PalmMCPLevelRange)},
		{CheckMCPsCoplanar, c.mcpsCoplanar},
	}
	c.upwardFist = []Check{
		{CheckFist, c.Fist},
		{CheckWristBelowMCPs, c.wristBelowMCPs},
		{CheckMCPsLevel, mcpsLevel(config.UpFistMCPLevelRange)},
		{CheckTipsCurled, c.tipsCurled},
		{CheckThumbTucked, c.thumbTucked},
	}
	return c
}

// Config returns the thresholds in use.
func (c *Classifier) Config() Config {
	return c.config
}

// FrontPalmChecks returns the ordered checks of the strict open palm.
func (c *Classifier) FrontPalmChecks() []Check {
	return append([]Check(nil), c.frontPalm...)
}

// UpwardFistChecks returns the ordered checks of the upward fist.
func (c *Classifier) UpwardFistChecks() []Check {
	return append([]Check(nil), c.upwardFist...)
}

// Classify runs every classifier against h.
func (c *Classifier) Classify(h *Hand) Signals {
	var s Signals
	s.Pinching, s.PinchStrength = c.Pinch(h)
	s.Fist = c.Fist(h)
	if ok, target := c.Pointing(h); ok {
		s.Pointing = true
		s.PointingTarget = &target
	}
	s.FrontPalm = c.FrontPalm(h)
	s.UpwardFist = c.UpwardFist(h)
	s.OpenHand = c.OpenHand(h)
	return s
}

// Fist reports whether enough fingertips are curled into the palm.
func (c *Classifier) Fist(h *Hand) bool {
	return c.tipsCurled(h)
}

func (c *Classifier) tipsCurled(h *Hand) bool {
	curled := countIf(h.tipDistances(), func(d float64) bool { return d < c.config.FistTipRadius })
	return curled >= c.config.FistMinCurled
}

// Pinch reports whether the thumb and index tips touch, and how strongly.
// Both tips must be seen this frame or confidently remembered; otherwise the
// hand is never pinching.
func (c *Classifier) Pinch(h *Hand) (bool, float64) {
	if !h.usable(detector.ThumbTip, c.config.PinchMinConfidence) ||
		!h.usable(detector.IndexTip, c.config.PinchMinConfidence) {
		return false, 0
	}
	d := dist2(h.pos(detector.ThumbTip), h.pos(detector.IndexTip))
	strength := clamp01(1 - d/c.config.PinchStrengthRange)
	return d < c.config.PinchDistance, strength
}

// Pointing reports whether only the index finger is out and straight. The
// target extends the MCP to tip vector past the tip.
func (c *Classifier) Pointing(h *Hand) (bool, r2.Vec) {
	d := h.tipDistances()
	if d[0] <= c.config.PointIndexMinDist {
		return false, r2.Vec{}
	}
	for _, other := range d[1:] {
		if other >= c.config.PointCurledMaxDist {
			return false, r2.Vec{}
		}
	}
	if h.jointCos(detector.IndexMCP, detector.IndexPIP, detector.IndexTip) >= c.config.PointStraightCos {
		return false, r2.Vec{}
	}

	tip := tracking.XY(h.pos(detector.IndexTip))
	mcp := tracking.XY(h.pos(detector.IndexMCP))
	return true, r2.Add(tip, r2.Scale(c.config.PointExtrapolation, r2.Sub(tip, mcp)))
}

// FrontPalm evaluates the strict front-facing open palm.
func (c *Classifier) FrontPalm(h *Hand) Result {
	return Evaluate(c.frontPalm, h)
}

// UpwardFist evaluates the upward-facing fist.
func (c *Classifier) UpwardFist(h *Hand) Result {
	return Evaluate(c.upwardFist, h)
}

// OpenHand reports a hand that is not a fist and has most fingertips away
// from the palm.
func (c *Classifier) OpenHand(h *Hand) bool {
	if c.Fist(h) {
		return false
	}
	extended := countIf(h.tipDistances(), func(d float64) bool { return d > c.config.OpenHandTipMinDist })
	return extended >= c.config.OpenHandMinExtended
}

func (c *Classifier) notPinchOrFist(h *Hand) bool {
	pinching, _ := c.Pinch(h)
	return !pinching && !c.Fist(h)
}

func (c *Classifier) wristBelowPalm(h *Hand) bool {
	return h.pos(detector.Wrist).Y > h.Palm.Y+c.config.PalmWristMargin
}

// palmFacingCamera compares fingertip and knuckle depth; the back of the
// hand puts the tips behind the knuckles.
func (c *Classifier) palmFacingCamera(h *Hand) bool {
	tips := make([]float64, 0, len(detector.Fingers))
	for _, joints := range detector.Fingers {
		tips = append(tips, h.pos(joints[3]).Z)
	}
	mcps := h.mcpAxis(getZ)
	return stat.Mean(tips, nil)-stat.Mean(mcps, nil) <= c.config.PalmDepthTolerance
}

// thumbSide expects the thumb right of the pinky for a right hand in camera
// space, left of it for a left hand. A flipped projection is undone first.
func thumbSide(h *Hand) bool {
	thumb := h.pos(detector.ThumbTip).X
	pinky := h.pos(detector.PinkyMCP).X
	if h.Mirrored {
		thumb, pinky = -thumb, -pinky
	}
	if h.Handedness == detector.HandLeft {
		return thumb < pinky
	}
	return thumb > pinky
}

func (c *Classifier) fingersExtended(h *Hand) bool {
	for f := range detector.Fingers {
		if !c.fingerExtended(h, f) {
			return false
		}
	}
	return true
}

func (c *Classifier) fingerExtended(h *Hand, finger int) bool {
	j := detector.Fingers[finger]
	mcp, pip, dip, tip := h.pos(j[0]), h.pos(j[1]), h.pos(j[2]), h.pos(j[3])

	if mcp.Y-tip.Y <= c.config.PalmFingerRiseMargin {
		return false
	}
	if !(mcp.Y > pip.Y && pip.Y > dip.Y && dip.Y > tip.Y) {
		return false
	}
	if h.palmDist(j[3]) <= c.config.PalmTipMinDist {
		return false
	}
	return h.jointCos(j[0], j[1], j[3]) < 0
}

func (c *Classifier) thumbExtended(h *Hand) bool {
	return h.palmDist(detector.ThumbTip) > c.config.PalmThumbMinDist
}

func mcpsLevel(maxRange float64) func(*Hand) bool {
	return func(h *Hand) bool {
		return spread(h.mcpAxis(getY)) < maxRange
	}
}

func (c *Classifier) mcpsCoplanar(h *Hand) bool {
	return spread(h.mcpAxis(getZ)) < c.config.PalmMCPDepthRange
}

func (c *Classifier) wristBelowMCPs(h *Hand) bool {
	return h.pos(detector.Wrist).Y > stat.Mean(h.mcpAxis(getY), nil)+c.config.UpFistWristMargin
}

func (c *Classifier) thumbTucked(h *Hand) bool {
	return h.palmDist(detector.ThumbTip) < c.config.UpFistThumbMaxDist
}
