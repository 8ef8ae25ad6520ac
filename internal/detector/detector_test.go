package detector

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestHandLandmarks_Key(t *testing.T) {
	t.Run("falls back to handedness", func(t *testing.T) {
		hand := HandLandmarks{Handedness: HandRight}
		if hand.Key() != "Right" {
			t.Errorf("expected key Right, got %s", hand.Key())
		}
	})

	t.Run("prefers track id", func(t *testing.T) {
		hand := HandLandmarks{Handedness: HandRight, TrackID: "hand-7"}
		if hand.Key() != "hand-7" {
			t.Errorf("expected key hand-7, got %s", hand.Key())
		}
	})
}

func TestMissingPoint(t *testing.T) {
	if !MissingPoint().IsMissing() {
		t.Error("expected MissingPoint to report missing")
	}
	if (Point3D{X: 0.5, Y: 0.5}).IsMissing() {
		t.Error("expected regular point not to report missing")
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{FistLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestOpenPalmLandmarks(t *testing.T) {
	landmarks := OpenPalmLandmarks()

	t.Run("all fingers are extended", func(t *testing.T) {
		for _, f := range Fingers {
			mcp, tip := landmarks.Points[f[0]], landmarks.Points[f[3]]
			if mcp.Y-tip.Y < 0.15 {
				t.Errorf("finger %d not extended (extension: %f)", f[3], mcp.Y-tip.Y)
			}
		}
	})

	t.Run("thumb is on the right of the pinky", func(t *testing.T) {
		if landmarks.Points[ThumbTip].X <= landmarks.Points[PinkyMCP].X {
			t.Error("thumb tip should be to the right of the pinky MCP for a right palm")
		}
	})

	t.Run("all points are inside the frame", func(t *testing.T) {
		for i, p := range landmarks.Points {
			if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
				t.Errorf("point %d outside frame: %+v", i, p)
			}
		}
	})
}

func TestMirror(t *testing.T) {
	right := OpenPalmLandmarks()
	left := Mirror(right)

	if left.Handedness != HandLeft {
		t.Errorf("expected Left, got %s", left.Handedness)
	}
	if math.Abs(left.Points[ThumbTip].X-(1-right.Points[ThumbTip].X)) > epsilon {
		t.Errorf("thumb tip not mirrored: %f", left.Points[ThumbTip].X)
	}
	if left.Points[ThumbTip].X >= left.Points[PinkyMCP].X {
		t.Error("mirrored left palm should have thumb left of pinky")
	}

	back := Mirror(left)
	for i := range right.Points {
		if math.Abs(back.Points[i].X-right.Points[i].X) > epsilon {
			t.Fatalf("double mirror changed point %d", i)
		}
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("fills missing points", func(t *testing.T) {
		line := `{"hands":[{"handedness":"Left","score":0.8,"points":[{"x":0.1,"y":0.2,"z":0.0},null]}]}`

		hands, err := parseResponse([]byte(line))
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}

		hand := hands[0]
		if hand.Handedness != HandLeft {
			t.Errorf("expected Left, got %s", hand.Handedness)
		}
		if hand.Points[Wrist].IsMissing() {
			t.Error("wrist should be present")
		}
		if !hand.Points[ThumbCMC].IsMissing() {
			t.Error("null point should be missing")
		}
		if !hand.Points[PinkyTip].IsMissing() {
			t.Error("omitted point should be missing")
		}
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte("{nope")); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected 0 hands, got %d", len(hands))
		}
	})
}
