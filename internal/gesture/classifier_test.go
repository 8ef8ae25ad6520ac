package gesture

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/tracking"
)

// newHand stabilizes a fixture on the reference viewport.
func newHand(t *testing.T, lm detector.HandLandmarks) *Hand {
	t.Helper()
	s := tracking.NewStabilizer(tracking.DefaultStabilizerConfig())
	vp := tracking.Viewport{Width: detector.FixtureWidth, Height: detector.FixtureHeight}
	return NewHand(lm.Handedness, s.Stabilize(lm.Key(), &lm.Points, vp, 0))
}

func findCheck(t *testing.T, checks []Check, name string) Check {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return Check{}
}

func TestClassifier_Fixtures(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name       string
		landmarks  detector.HandLandmarks
		pinching   bool
		fist       bool
		pointing   bool
		frontPalm  Result
		upwardFist Result
		openHand   bool
	}{
		{
			name:       "open palm right",
			landmarks:  detector.OpenPalmLandmarks(),
			frontPalm:  Result{OK: true},
			upwardFist: Result{Failed: CheckFist},
			openHand:   true,
		},
		{
			name:       "open palm left",
			landmarks:  detector.OpenPalmLandmarksFor(detector.HandLeft),
			frontPalm:  Result{OK: true},
			upwardFist: Result{Failed: CheckFist},
			openHand:   true,
		},
		{
			name:       "fist",
			landmarks:  detector.FistLandmarks(),
			pinching:   true,
			fist:       true,
			frontPalm:  Result{Failed: CheckNotPinchOrFist},
			upwardFist: Result{OK: true},
		},
		{
			name:       "mirrored fist",
			landmarks:  detector.Mirror(detector.FistLandmarks()),
			pinching:   true,
			fist:       true,
			frontPalm:  Result{Failed: CheckNotPinchOrFist},
			upwardFist: Result{OK: true},
		},
		{
			name:       "pointing",
			landmarks:  detector.PointingLandmarks(),
			fist:       true,
			pointing:   true,
			frontPalm:  Result{Failed: CheckNotPinchOrFist},
			upwardFist: Result{OK: true},
		},
		{
			name:       "pinch",
			landmarks:  detector.PinchLandmarks(),
			pinching:   true,
			frontPalm:  Result{Failed: CheckNotPinchOrFist},
			upwardFist: Result{Failed: CheckFist},
			openHand:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := c.Classify(newHand(t, tt.landmarks))

			assert.Equal(t, tt.pinching, s.Pinching, "pinching")
			assert.Equal(t, tt.fist, s.Fist, "fist")
			assert.Equal(t, tt.pointing, s.Pointing, "pointing")
			assert.Equal(t, tt.pointing, s.PointingTarget != nil, "pointing target")
			assert.Equal(t, tt.frontPalm, s.FrontPalm, "front palm")
			assert.Equal(t, tt.upwardFist, s.UpwardFist, "upward fist")
			assert.Equal(t, tt.openHand, s.OpenHand, "open hand")
		})
	}
}

func TestClassifier_FrontPalmSymmetry(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	right := newHand(t, detector.OpenPalmLandmarksFor(detector.HandRight))
	left := newHand(t, detector.OpenPalmLandmarksFor(detector.HandLeft))

	require.Equal(t, Result{OK: true}, c.FrontPalm(right))
	require.Equal(t, Result{OK: true}, c.FrontPalm(left))

	t.Run("wrong label fails the thumb side", func(t *testing.T) {
		lm := detector.OpenPalmLandmarks()
		lm.Handedness = detector.HandLeft
		assert.Equal(t, Result{Failed: CheckThumbSide}, c.FrontPalm(newHand(t, lm)))
	})
}

func TestClassifier_FrontPalmSymmetryMirrored(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	vp := tracking.Viewport{Width: detector.FixtureWidth, Height: detector.FixtureHeight}

	for _, mirror := range []bool{false, true} {
		cfg := tracking.DefaultStabilizerConfig()
		cfg.Mirror = mirror
		s := tracking.NewStabilizer(cfg)

		for _, side := range []detector.Handedness{detector.HandRight, detector.HandLeft} {
			lm := detector.OpenPalmLandmarksFor(side)
			h := NewHand(side, s.Stabilize(lm.Key(), &lm.Points, vp, 0))
			h.Mirrored = mirror
			assert.Equal(t, Result{OK: true}, c.FrontPalm(h), "mirror=%v %s", mirror, side)

			h.Handedness = detector.Mirror(lm).Handedness
			assert.Equal(t, Result{Failed: CheckThumbSide}, c.FrontPalm(h), "mirror=%v %s relabeled", mirror, side)
		}
	}
}

func TestClassifier_FrontPalmChecks(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	checks := c.FrontPalmChecks()

	names := make([]string, 0, len(checks))
	for _, check := range checks {
		names = append(names, check.Name)
	}
	assert.Equal(t, []string{
		CheckNotPinchOrFist,
		CheckWristBelowPalm,
		CheckPalmFacingCamera,
		CheckThumbSide,
		CheckFingersExtended,
		CheckThumbExtended,
		CheckMCPsLevel,
		CheckMCPsCoplanar,
	}, names)

	t.Run("each check passes on the open palm", func(t *testing.T) {
		h := newHand(t, detector.OpenPalmLandmarks())
		for _, check := range checks {
			assert.True(t, check.Test(h), check.Name)
		}
	})

	t.Run("back of hand", func(t *testing.T) {
		h := newHand(t, detector.OpenPalmLandmarks())
		for _, f := range detector.Fingers {
			h.Landmarks[f[3]].Position.Z = 30
		}
		assert.False(t, findCheck(t, checks, CheckPalmFacingCamera).Test(h))
		assert.Equal(t, Result{Failed: CheckPalmFacingCamera}, c.FrontPalm(h))
	})

	t.Run("one curled finger", func(t *testing.T) {
		h := newHand(t, detector.OpenPalmLandmarks())
		h.Landmarks[detector.RingTip].Position = r3.Vec{X: 592, Y: 420, Z: -25}
		assert.False(t, findCheck(t, checks, CheckFingersExtended).Test(h))
	})

	t.Run("wrist above palm", func(t *testing.T) {
		h := newHand(t, detector.OpenPalmLandmarks())
		h.Landmarks[detector.Wrist].Position.Y = h.Palm.Y
		assert.False(t, findCheck(t, checks, CheckWristBelowPalm).Test(h))
	})

	t.Run("thumb folded", func(t *testing.T) {
		h := newHand(t, detector.OpenPalmLandmarks())
		h.Landmarks[detector.ThumbTip].Position = r3.Vec{X: h.Palm.X + 20, Y: h.Palm.Y, Z: -10}
		assert.False(t, findCheck(t, checks, CheckThumbExtended).Test(h))
	})

	t.Run("rolled palm", func(t *testing.T) {
		h := newHand(t, detector.OpenPalmLandmarks())
		h.Landmarks[detector.PinkyMCP].Position.Y = 520
		assert.False(t, findCheck(t, checks, CheckMCPsLevel).Test(h))
	})

	t.Run("tilted palm", func(t *testing.T) {
		h := newHand(t, detector.OpenPalmLandmarks())
		h.Landmarks[detector.IndexMCP].Position.Z = -60
		assert.False(t, findCheck(t, checks, CheckMCPsCoplanar).Test(h))
	})
}

func TestClassifier_UpwardFist(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	t.Run("splayed thumb", func(t *testing.T) {
		h := newHand(t, detector.FistLandmarks())
		h.Landmarks[detector.ThumbTip].Position = r3.Vec{X: h.Palm.X + 140, Y: h.Palm.Y, Z: -10}
		assert.Equal(t, Result{Failed: CheckThumbTucked}, c.UpwardFist(h))
	})

	t.Run("hand upside down", func(t *testing.T) {
		h := newHand(t, detector.FistLandmarks())
		h.Landmarks[detector.Wrist].Position.Y = 400
		assert.Equal(t, Result{Failed: CheckWristBelowMCPs}, c.UpwardFist(h))
	})
}

func TestClassifier_Pinch(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	t.Run("strength", func(t *testing.T) {
		ok, strength := c.Pinch(newHand(t, detector.PinchLandmarks()))
		assert.True(t, ok)
		assert.InDelta(t, 0.902, strength, 0.005)
	})

	t.Run("open hand has zero strength", func(t *testing.T) {
		ok, strength := c.Pinch(newHand(t, detector.OpenPalmLandmarks()))
		assert.False(t, ok)
		assert.Zero(t, strength)
	})

	t.Run("unusable thumb tip", func(t *testing.T) {
		h := newHand(t, detector.PinchLandmarks())
		h.Landmarks[detector.ThumbTip].Visible = false
		h.Landmarks[detector.ThumbTip].Confidence = 0.2

		ok, strength := c.Pinch(h)
		assert.False(t, ok)
		assert.Zero(t, strength)
	})

	t.Run("confidently remembered thumb tip", func(t *testing.T) {
		h := newHand(t, detector.PinchLandmarks())
		h.Landmarks[detector.ThumbTip].Visible = false
		h.Landmarks[detector.ThumbTip].Confidence = 0.5

		ok, _ := c.Pinch(h)
		assert.True(t, ok)
	})
}

func TestClassifier_PointingTarget(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	ok, target := c.Pointing(newHand(t, detector.PointingLandmarks()))
	require.True(t, ok)
	assert.InDelta(t, 715, target.X, 1e-6)
	assert.InDelta(t, -25, target.Y, 1e-6)

	t.Run("bent index", func(t *testing.T) {
		h := newHand(t, detector.PointingLandmarks())
		// tip folds back toward the knuckle
		h.Landmarks[detector.IndexTip].Position = r3.Vec{X: 740, Y: 420, Z: -20}
		ok, _ := c.Pointing(h)
		assert.False(t, ok)
	})
}

func TestClassifier_FistOpenHandExclusive(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	rng := rand.New(rand.NewSource(7))

	base := []detector.HandLandmarks{
		detector.OpenPalmLandmarks(),
		detector.FistLandmarks(),
		detector.PointingLandmarks(),
		detector.PinchLandmarks(),
	}

	for _, lm := range base {
		for i := 0; i < 50; i++ {
			jittered := lm
			for j := range jittered.Points {
				jittered.Points[j].X += (rng.Float64() - 0.5) * 0.1
				jittered.Points[j].Y += (rng.Float64() - 0.5) * 0.1
			}
			h := newHand(t, jittered)
			assert.False(t, c.Fist(h) && c.OpenHand(h), "fist and open hand both true")
		}
	}
}
