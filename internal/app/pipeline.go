package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturefield/internal/detector"
	"github.com/ayusman/gesturefield/internal/overlay"
	"github.com/ayusman/gesturefield/internal/pipeline"
)

// run is the frame loop. Every frame read is processed; motion and visible
// hands only change how often frames are read.
func (a *App) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := a.governor.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		a.step()

		if next := a.governor.Interval(); next != interval {
			interval = next
			ticker.Reset(interval)
		}
	}
}

// step reads, detects and processes one frame.
func (a *App) step() {
	cam := a.Camera()
	mat, err := cam.ReadFrame()
	if err != nil {
		a.logger.Warn().Err(err).Msg("reading frame")
		return
	}
	defer mat.Close()

	now := a.clock()
	moving, changed := a.motion.Detect(mat)

	hands, err := a.Detector().Detect(mat)
	if err != nil {
		// The frame is skipped so a transient detector failure does not
		// read as the hand leaving.
		a.logger.Warn().Err(err).Msg("detecting hands")
		return
	}

	frame := a.ProcessHands(now, hands)
	a.publishPreview(mat, &frame)

	before := a.governor.FPS()
	if fps := a.governor.Observe(moving, len(hands) > 0, now); fps != before {
		cam.SetFPS(fps)
		a.logger.Debug().Int("fps", fps).Float64("changed", changed).Msg("capture rate changed")
	}
}

// ProcessHands runs the core on hands detected at now, forgets hands unseen
// for longer than HandExpiry and notifies listeners.
func (a *App) ProcessHands(now time.Time, hands []detector.HandLandmarks) pipeline.Frame {
	ts := now.UnixMilli()

	a.mu.Lock()
	frame := a.proc.ProcessFrame(ts, hands)
	for _, h := range frame.Hands {
		a.lastSeen[h.Key] = ts
	}
	a.expireHands(ts)
	a.latest = frame
	listeners := a.listeners
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(&frame)
	}
	return frame
}

// expireHands drops core state for hands not seen within HandExpiry.
// Callers hold a.mu.
func (a *App) expireHands(ts int64) {
	expiry := a.config.HandExpiry.Milliseconds()
	if expiry <= 0 {
		return
	}

	for _, key := range a.proc.Keys() {
		seen, ok := a.lastSeen[key]
		if !ok {
			seen = ts
			a.lastSeen[key] = ts
		}
		if ts-seen > expiry {
			a.proc.Forget(key)
			delete(a.lastSeen, key)
			a.logger.Debug().Str("hand", key).Msg("hand expired")
		}
	}
}

// publishPreview draws the overlay and stores the encoded preview.
func (a *App) publishPreview(mat *gocv.Mat, frame *pipeline.Frame) {
	if a.config.Overlay {
		a.mu.Lock()
		a.renderer.Draw(mat, frame)
		a.mu.Unlock()
	}

	quality := a.config.JPEGQuality
	if quality <= 0 {
		quality = DefaultConfig().JPEGQuality
	}
	data, err := overlay.EncodeJPEG(mat, quality)
	if err != nil {
		a.logger.Warn().Err(err).Msg("encoding preview")
		return
	}

	a.mu.Lock()
	a.jpeg = data
	a.jpegSeq++
	a.mu.Unlock()
}
