package store

import (
	"database/sql"
	"errors"
	"time"
)

// FieldState is the persisted playing field.
type FieldState struct {
	X            float64
	Y            float64
	Width        float64
	Height       float64
	ScreenWidth  float64 // Screen the bounds were computed for
	ScreenHeight float64
	UpdatedAt    time.Time
}

// FieldRepository stores the single field_state row.
type FieldRepository struct {
	db *sql.DB
}

// Field returns the field repository for this store.
func (s *Store) Field() *FieldRepository {
	return &FieldRepository{db: s.db}
}

// Save replaces the stored field state.
func (r *FieldRepository) Save(f *FieldState) error {
	f.UpdatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO field_state (id, x, y, width, height, screen_width, screen_height, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			x = excluded.x,
			y = excluded.y,
			width = excluded.width,
			height = excluded.height,
			screen_width = excluded.screen_width,
			screen_height = excluded.screen_height,
			updated_at = excluded.updated_at`,
		f.X, f.Y, f.Width, f.Height, f.ScreenWidth, f.ScreenHeight, f.UpdatedAt,
	)
	return err
}

// Load returns the stored field state or ErrNotFound.
func (r *FieldRepository) Load() (*FieldState, error) {
	f := &FieldState{}
	err := r.db.QueryRow(
		`SELECT x, y, width, height, screen_width, screen_height, updated_at
		 FROM field_state WHERE id = 1`,
	).Scan(&f.X, &f.Y, &f.Width, &f.Height, &f.ScreenWidth, &f.ScreenHeight, &f.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Clear removes the stored field state.
func (r *FieldRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM field_state`)
	return err
}
