package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/gesturefield/internal/field"
	"github.com/ayusman/gesturefield/internal/store"
)

// MaxEventLimit caps the limit query parameter.
const MaxEventLimit = 500

// EventHandler serves the field event log at /api/field/events.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler reading from s.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

type eventResponse struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"`
	Bounds    field.Bounds `json:"bounds"`
	CreatedAt string       `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

func toEventResponse(e *store.FieldEvent) eventResponse {
	return eventResponse{
		ID:        e.ID,
		Kind:      e.Kind,
		Bounds:    field.Bounds{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height},
		CreatedAt: formatTime(e.CreatedAt),
	}
}

// validEventKind reports whether kind names a field event.
func validEventKind(kind string) bool {
	switch field.EventKind(kind) {
	case field.EventCommit, field.EventResize, field.EventReset:
		return true
	}
	return false
}

// ServeHTTP handles GET /api/field/events?limit=N&kind=K. Newest first.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	limit := store.DefaultEventLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxEventLimit)
	}

	kind := query.Get("kind")
	if kind != "" && !validEventKind(kind) {
		writeError(w, http.StatusBadRequest, "unknown event kind")
		return
	}

	events, err := h.store.Events().List(kind, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		response.Events = append(response.Events, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, response)
}
