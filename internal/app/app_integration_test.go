package app

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gesturefield/internal/capture"
	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/field"
	"github.com/ayusman/gesturefield/internal/pipeline"
)

func TestApp_FrameLoop_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := newStore(t)
	a := newTestApp(t, s)
	a.clock = time.Now

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	a.SetDetector(mock)

	frames := make(chan pipeline.Frame, 256)
	a.AddListener(func(f *pipeline.Frame) {
		select {
		case frames <- *f:
		default:
		}
	})

	require.NoError(t, a.Start())
	defer a.Stop()
	require.NoError(t, a.Start(), "second Start is a no-op")

	select {
	case f := <-frames:
		require.Len(t, f.Hands, 1)
		assert.Equal(t, field.ModeMovePending, f.Field.Mode)
	case <-time.After(3 * time.Second):
		t.Fatal("no frame processed")
	}

	require.Eventually(t, func() bool {
		_, seq := a.LatestJPEG()
		return seq > 0
	}, 3*time.Second, 20*time.Millisecond)

	data, _ := a.LatestJPEG()
	assert.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}), "preview is a JPEG")

	require.Eventually(t, func() bool {
		return a.Camera().FPS() == capture.DefaultConfig().ActiveFPS
	}, 3*time.Second, 20*time.Millisecond, "visible hands switch to the active rate")
}

func TestApp_FrameLoop_PausedAndDetectorErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a := newTestApp(t, newStore(t))
	mock := detector.NewMockDetector()
	a.SetDetector(mock)

	require.NoError(t, a.SetEnabled(false))
	require.NoError(t, a.Start())

	time.Sleep(400 * time.Millisecond)
	assert.Zero(t, mock.Calls(), "paused app must not detect")

	mock.SetError(errors.New("subprocess died"))
	require.NoError(t, a.SetEnabled(true))
	require.Eventually(t, func() bool { return mock.Calls() > 0 }, 3*time.Second, 20*time.Millisecond)

	_, seq := a.LatestJPEG()
	assert.Zero(t, seq, "frames with detector errors are skipped")

	a.Stop()
	a.Stop()
}
