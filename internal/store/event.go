package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DefaultEventLimit caps List when no positive limit is given.
const DefaultEventLimit = 50

// FieldEvent is one logged field event.
type FieldEvent struct {
	ID        string
	Kind      string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	CreatedAt time.Time
}

// EventRepository appends to and reads the field event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append logs an event. An empty ID is filled with a new UUID.
func (r *EventRepository) Append(e *FieldEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO field_events (id, kind, x, y, width, height, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.X, e.Y, e.Width, e.Height, e.CreatedAt,
	)
	return err
}

// List returns the most recent events first. kind filters by event kind
// when not empty.
func (r *EventRepository) List(kind string, limit int) ([]*FieldEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	query := `SELECT id, kind, x, y, width, height, created_at FROM field_events`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*FieldEvent
	for rows.Next() {
		e := &FieldEvent{}
		if err := rows.Scan(&e.ID, &e.Kind, &e.X, &e.Y, &e.Width, &e.Height, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns the number of logged events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM field_events`).Scan(&n)
	return n, err
}
