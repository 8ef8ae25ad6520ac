package field

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Input is the per-frame view of the dominant hand.
type Input struct {
	Present   bool   // A hand was detected this frame
	Start     bool   // The variant's start gesture is held
	Lock      bool   // The variant's lock gesture is held
	Palm      r2.Vec // Palm center in screen pixels
	Timestamp int64  // Milliseconds
}

type state interface {
	mode() Mode
}

type normalState struct{}

func (normalState) mode() Mode { return ModeNormal }

type pendingState struct {
	start    int64
	startPos r2.Vec
	progress float64
}

func (*pendingState) mode() Mode { return ModeMovePending }

type movingState struct{}

func (movingState) mode() Mode { return ModeMoving }

// Machine runs the normal → move-pending → moving → normal protocol.
type Machine struct {
	config Config
	screen Size
	bounds Bounds
	state  state

	onEvent []func(Event)
	onMode  []func(from, to Mode)
}

// NewMachine creates a machine in normal mode with default bounds for screen.
func NewMachine(config Config, screen Size) *Machine {
	return &Machine{
		config: config,
		screen: screen,
		bounds: centered(screen, config.DefaultFraction),
		state:  normalState{},
	}
}

// OnEvent registers a callback for committed, resized and reset bounds.
func (m *Machine) OnEvent(fn func(Event)) {
	m.onEvent = append(m.onEvent, fn)
}

// OnModeChange registers a callback for mode transitions.
func (m *Machine) OnModeChange(fn func(from, to Mode)) {
	m.onMode = append(m.onMode, fn)
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	return m.state.mode()
}

// Progress returns the hold progress in [0,1].
func (m *Machine) Progress() float64 {
	switch s := m.state.(type) {
	case *pendingState:
		return s.progress
	case movingState:
		return 1
	}
	return 0
}

// Bounds returns the current field rectangle.
func (m *Machine) Bounds() Bounds {
	return m.bounds
}

// Screen returns the host screen size.
func (m *Machine) Screen() Size {
	return m.screen
}

// Variant returns the configured gesture pairing.
func (m *Machine) Variant() Variant {
	return m.config.Variant
}

// State returns a snapshot of the machine.
func (m *Machine) State() State {
	return State{
		Mode:     m.Mode(),
		Progress: m.Progress(),
		Bounds:   m.bounds,
		Screen:   m.screen,
		Variant:  m.config.Variant,
	}
}

// PendingStart returns the timestamp and palm position at which the current
// hold began. ok is false outside move-pending.
func (m *Machine) PendingStart() (ts int64, pos r2.Vec, ok bool) {
	if s, isPending := m.state.(*pendingState); isPending {
		return s.start, s.startPos, true
	}
	return 0, r2.Vec{}, false
}

// Update advances the machine by one frame.
func (m *Machine) Update(in Input) {
	switch s := m.state.(type) {
	case normalState:
		if in.Present && in.Start {
			m.setState(&pendingState{start: in.Timestamp, startPos: in.Palm})
		}

	case *pendingState:
		if !in.Present || !in.Start {
			m.setState(normalState{})
			return
		}
		if p := m.holdProgress(s.start, in.Timestamp); p >= 1 {
			m.setState(movingState{})
		} else {
			s.progress = max(s.progress, p)
		}

	case movingState:
		if !in.Present {
			// frozen until the hand returns
			return
		}
		if in.Lock {
			m.setState(normalState{})
			m.emit(EventCommit)
			return
		}
		m.bounds.X = in.Palm.X - m.bounds.Width/2
		m.bounds.Y = in.Palm.Y - m.bounds.Height/2
		m.bounds = clamp(m.bounds, m.screen)
	}
}

func (m *Machine) holdProgress(start, now int64) float64 {
	hold := m.config.HoldDuration.Milliseconds()
	if hold <= 0 {
		return 1
	}
	p := float64(now-start) / float64(hold)
	return min(max(p, 0), 1)
}

// Resize rescales the bounds proportionally to a new screen size. The mode is
// left untouched.
func (m *Machine) Resize(screen Size) {
	if screen.Width <= 0 || screen.Height <= 0 {
		return
	}
	old := m.screen
	m.screen = screen
	if old.Width <= 0 || old.Height <= 0 {
		m.bounds = centered(screen, m.config.DefaultFraction)
	} else {
		m.bounds = clamp(scale(m.bounds, old, screen), screen)
	}
	m.emit(EventResize)
}

// Reset recenters the field at the default size and returns to normal mode.
func (m *Machine) Reset() {
	m.bounds = centered(m.screen, m.config.DefaultFraction)
	m.setState(normalState{})
	m.emit(EventReset)
}

// Restore applies bounds saved for a screen of size from, rescaled to the
// current screen. No event is published.
func (m *Machine) Restore(b Bounds, from Size) {
	if from.Width > 0 && from.Height > 0 && from != m.screen {
		b = scale(b, from, m.screen)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return
	}
	m.bounds = clamp(b, m.screen)
}

func scale(b Bounds, from, to Size) Bounds {
	sx, sy := to.Width/from.Width, to.Height/from.Height
	return Bounds{
		X:      b.X * sx,
		Y:      b.Y * sy,
		Width:  b.Width * sx,
		Height: b.Height * sy,
	}
}

func (m *Machine) setState(next state) {
	from := m.state.mode()
	m.state = next
	if to := next.mode(); to != from {
		for _, fn := range m.onMode {
			fn(from, to)
		}
	}
}

func (m *Machine) emit(kind EventKind) {
	ev := Event{Kind: kind, Bounds: m.bounds}
	for _, fn := range m.onEvent {
		fn(ev)
	}
}
