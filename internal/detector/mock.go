package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Fixture poses are designed in pixels on a FixtureWidth x FixtureHeight
// viewport and returned normalized (x/width, y/height, z/width).
const (
	FixtureWidth  = 1280
	FixtureHeight = 720
)

type pixelPose [NumLandmarks][3]float64

func (p pixelPose) landmarks(handedness Handedness) HandLandmarks {
	lm := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}
	for i, px := range p {
		lm.Points[i] = Point3D{
			X: px[0] / FixtureWidth,
			Y: px[1] / FixtureHeight,
			Z: px[2] / FixtureWidth,
		}
	}
	return lm
}

// Mirror flips a hand horizontally and swaps its handedness label.
func Mirror(h HandLandmarks) HandLandmarks {
	out := h
	for i, p := range h.Points {
		out.Points[i] = Point3D{X: 1 - p.X, Y: p.Y, Z: p.Z}
	}
	switch h.Handedness {
	case HandLeft:
		out.Handedness = HandRight
	case HandRight:
		out.Handedness = HandLeft
	}
	return out
}

// OpenPalmLandmarks returns an upright right hand with the palm facing the
// camera, all four fingers straight up and the thumb spread outward.
func OpenPalmLandmarks() HandLandmarks {
	return pixelPose{
		Wrist:     {640, 600, 0},
		ThumbCMC:  {680, 570, -5},
		ThumbMCP:  {720, 530, -8},
		ThumbIP:   {750, 500, -12},
		ThumbTip:  {775, 475, -15},
		IndexMCP:  {690, 450, -10},
		IndexPIP:  {695, 380, -14},
		IndexDIP:  {698, 335, -17},
		IndexTip:  {700, 295, -20},
		MiddleMCP: {640, 440, -10},
		MiddlePIP: {640, 360, -14},
		MiddleDIP: {640, 310, -17},
		MiddleTip: {640, 265, -20},
		RingMCP:   {595, 450, -10},
		RingPIP:   {590, 380, -14},
		RingDIP:   {587, 335, -17},
		RingTip:   {585, 295, -20},
		PinkyMCP:  {555, 465, -10},
		PinkyPIP:  {548, 405, -14},
		PinkyDIP:  {544, 370, -17},
		PinkyTip:  {540, 340, -20},
	}.landmarks(HandRight)
}

// OpenPalmLandmarksFor returns the open palm pose for the given hand.
func OpenPalmLandmarksFor(handedness Handedness) HandLandmarks {
	if handedness == HandLeft {
		return Mirror(OpenPalmLandmarks())
	}
	return OpenPalmLandmarks()
}

// FistLandmarks returns an upright right fist with knuckles level and the
// thumb tucked in front of the curled fingers.
func FistLandmarks() HandLandmarks {
	return fistPose().landmarks(HandRight)
}

// PointingLandmarks returns a right fist with the index finger straight up.
func PointingLandmarks() HandLandmarks {
	p := fistPose()
	p[IndexPIP] = [3]float64{690, 400, -14}
	p[IndexDIP] = [3]float64{693, 350, -17}
	p[IndexTip] = [3]float64{695, 305, -20}
	return p.landmarks(HandRight)
}

// PinchLandmarks returns an open right hand with the index tip bent onto
// the thumb tip.
func PinchLandmarks() HandLandmarks {
	lm := OpenPalmLandmarks()
	set := func(i int, x, y, z float64) {
		lm.Points[i] = Point3D{X: x / FixtureWidth, Y: y / FixtureHeight, Z: z / FixtureWidth}
	}
	set(IndexPIP, 715, 400, -14)
	set(IndexDIP, 735, 385, -17)
	set(IndexTip, 748, 400, -20)
	set(ThumbIP, 745, 480, -12)
	set(ThumbTip, 758, 412, -18)
	return lm
}

func fistPose() pixelPose {
	return pixelPose{
		Wrist:     {640, 600, 0},
		ThumbCMC:  {675, 570, -5},
		ThumbMCP:  {700, 530, -10},
		ThumbIP:   {690, 505, -20},
		ThumbTip:  {665, 500, -25},
		IndexMCP:  {685, 470, -10},
		IndexPIP:  {690, 430, -25},
		IndexDIP:  {680, 455, -35},
		IndexTip:  {670, 490, -30},
		MiddleMCP: {640, 462, -10},
		MiddlePIP: {642, 420, -25},
		MiddleDIP: {638, 450, -35},
		MiddleTip: {635, 485, -30},
		RingMCP:   {598, 468, -10},
		RingPIP:   {600, 428, -25},
		RingDIP:   {600, 455, -35},
		RingTip:   {602, 488, -30},
		PinkyMCP:  {560, 480, -10},
		PinkyPIP:  {565, 445, -22},
		PinkyDIP:  {568, 465, -30},
		PinkyTip:  {575, 492, -28},
	}
}

// Translate shifts every landmark by (dx, dy) normalized units.
func Translate(h HandLandmarks, dx, dy float64) HandLandmarks {
	out := h
	for i, p := range h.Points {
		out.Points[i] = Point3D{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
	}
	return out
}
