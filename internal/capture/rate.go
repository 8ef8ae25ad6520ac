package capture

import "time"

// RateGovernor picks the capture rate from recent activity. Motion or a
// visible hand switches to the active rate; after IdleAfter without either
// it falls back to the idle rate. Every frame read is still processed, so
// hold timers keep running at either rate.
type RateGovernor struct {
	idleFPS    int
	activeFPS  int
	idleAfter  time.Duration
	lastActive time.Time
	active     bool
}

// NewRateGovernor creates a governor from config. It starts idle.
func NewRateGovernor(config Config) *RateGovernor {
	defaults := DefaultConfig()
	g := &RateGovernor{
		idleFPS:   config.IdleFPS,
		activeFPS: config.ActiveFPS,
		idleAfter: config.IdleAfter,
	}
	if g.idleFPS <= 0 {
		g.idleFPS = defaults.IdleFPS
	}
	if g.activeFPS <= 0 {
		g.activeFPS = defaults.ActiveFPS
	}
	if g.idleAfter <= 0 {
		g.idleAfter = defaults.IdleAfter
	}
	return g
}

// Observe records one frame's activity and returns the rate to use next.
func (g *RateGovernor) Observe(motion, hands bool, now time.Time) int {
	if motion || hands {
		g.lastActive = now
		g.active = true
	} else if g.active && now.Sub(g.lastActive) >= g.idleAfter {
		g.active = false
	}
	return g.FPS()
}

// FPS returns the current rate.
func (g *RateGovernor) FPS() int {
	if g.active {
		return g.activeFPS
	}
	return g.idleFPS
}

// Active reports whether the governor is at the active rate.
func (g *RateGovernor) Active() bool {
	return g.active
}

// Interval returns the frame period for the current rate.
func (g *RateGovernor) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
