// Package tray shows the field status in the system tray and offers
// enable, reset and quit controls.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/ayusman/gesturefield/internal/field"
)

// Controller is the part of the app the tray drives.
type Controller interface {
	IsEnabled() bool
	SetEnabled(enabled bool) error
	ResetField() field.State
}

// Tray is the system tray menu.
type Tray struct {
	ctrl   Controller
	logger zerolog.Logger
	onOpen func()
	onQuit func()
	status string
	mu     sync.RWMutex

	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a Tray for ctrl.
func New(ctrl Controller, logger zerolog.Logger) *Tray {
	return &Tray{
		ctrl:   ctrl,
		logger: logger.With().Str("component", "tray").Logger(),
		status: StatusLabel(field.State{Mode: field.ModeNormal}),
	}
}

// OnOpen sets the callback for the preview menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("gesturefield")
	systray.SetTooltip("gesturefield hand-gesture playing field")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Field mode")
	t.menuStatus.Disable()
	systray.AddSeparator()
	t.menuToggle = systray.AddMenuItem(ToggleLabel(t.ctrl.IsEnabled()), "Pause or resume hand tracking")
	t.mu.Unlock()

	menuReset := systray.AddMenuItem("Reset Field", "Center the field at its default size")
	menuOpen := systray.AddMenuItem("Open Preview...", "Open the live preview in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit gesturefield")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.handleReset()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	enabled := !t.ctrl.IsEnabled()
	if err := t.ctrl.SetEnabled(enabled); err != nil {
		t.logger.Error().Err(err).Msg("toggling processing")
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(ToggleLabel(t.ctrl.IsEnabled()))
	}
}

func (t *Tray) handleReset() {
	t.SetFieldState(t.ctrl.ResetField())
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetFieldState updates the status item. Safe to call every frame; the
// menu is only touched when the label changes.
func (t *Tray) SetFieldState(state field.State) {
	label := StatusLabel(state)

	t.mu.Lock()
	defer t.mu.Unlock()
	if label == t.status {
		return
	}
	t.status = label
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(label)
	}
}

// Status returns the current status label.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// StatusLabel renders the field state for the menu. Progress is shown in
// steps of ten percent.
func StatusLabel(state field.State) string {
	switch state.Mode {
	case field.ModeMovePending:
		return fmt.Sprintf("Field: hold %d%%", int(state.Progress*10)*10)
	case field.ModeMoving:
		return "Field: moving"
	default:
		return "Field: locked"
	}
}

// ToggleLabel renders the enable item.
func ToggleLabel(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}
