package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/gesturefield/internal/field"
)

// FieldController is the part of the app the field endpoints drive.
type FieldController interface {
	FieldState() field.State
	ResetField() field.State
	ResizeField(width, height float64) (field.State, error)
	IsEnabled() bool
	SetEnabled(enabled bool) error
}

// FieldHandler serves /api/field and its reset, resize and enabled
// sub-resources.
type FieldHandler struct {
	ctrl FieldController
}

// NewFieldHandler creates a FieldHandler driving ctrl.
func NewFieldHandler(ctrl FieldController) *FieldHandler {
	return &FieldHandler{ctrl: ctrl}
}

type fieldResponse struct {
	field.State
	Enabled bool `json:"enabled"`
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

// ServeHTTP implements http.Handler.
func (h *FieldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch subPath(r, "/api/field") {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.respond(w, h.ctrl.FieldState())
	case "reset":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.respond(w, h.ctrl.ResetField())
	case "resize":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.resize(w, r)
	case "enabled":
		h.enabled(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *FieldHandler) respond(w http.ResponseWriter, state field.State) {
	writeJSON(w, http.StatusOK, fieldResponse{State: state, Enabled: h.ctrl.IsEnabled()})
}

// resize handles POST /api/field/resize.
func (h *FieldHandler) resize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}

	state, err := h.ctrl.ResizeField(req.Width, req.Height)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, state)
}

// enabled handles GET and PUT /api/field/enabled.
func (h *FieldHandler) enabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.ctrl.IsEnabled()})
	case http.MethodPut:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.ctrl.SetEnabled(*req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save setting")
			return
		}
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.ctrl.IsEnabled()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
