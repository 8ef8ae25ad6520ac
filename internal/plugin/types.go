// Package plugin discovers external plugin executables and delivers field
// events to them as JSON over stdin.
package plugin

import "encoding/json"

// Manifest is the plugin.json file in a plugin directory.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// HasAction reports whether the manifest declares action.
func (m *Manifest) HasAction(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Rect is a rectangle in screen pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Event is the field event handed to a plugin.
type Event struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Bounds    Rect   `json:"bounds"`
	Screen    Rect   `json:"screen"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// Request is written to the plugin's stdin.
type Request struct {
	Action string          `json:"action"`
	Event  Event           `json:"event"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
