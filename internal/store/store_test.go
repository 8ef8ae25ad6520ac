package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// newTestStore creates a Store backed by a temporary database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("expected path %q, got %q", dbPath, s.Path())
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"field_state", "field_events", "hooks", "settings"}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	indexes := []string{"idx_field_events_kind", "idx_hooks_event_kind"}
	for _, idx := range indexes {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Field().Save(&FieldState{X: 1, Y: 2, Width: 3, Height: 4, ScreenWidth: 10, ScreenHeight: 10}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	f, err := s.Field().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Width != 3 {
		t.Errorf("expected width 3 after reopen, got %f", f.Width)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestFieldRepository(t *testing.T) {
	s := newTestStore(t)

	t.Run("load without state", func(t *testing.T) {
		_, err := s.Field().Load()
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("save replaces the single row", func(t *testing.T) {
		first := &FieldState{X: 10, Y: 20, Width: 300, Height: 200, ScreenWidth: 1280, ScreenHeight: 720}
		if err := s.Field().Save(first); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		second := &FieldState{X: 50, Y: 60, Width: 400, Height: 250, ScreenWidth: 1920, ScreenHeight: 1080}
		if err := s.Field().Save(second); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		var rows int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM field_state").Scan(&rows); err != nil {
			t.Fatalf("count error: %v", err)
		}
		if rows != 1 {
			t.Errorf("expected 1 row, got %d", rows)
		}

		got, err := s.Field().Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.X != 50 || got.Y != 60 || got.Width != 400 || got.Height != 250 {
			t.Errorf("unexpected bounds: %+v", got)
		}
		if got.ScreenWidth != 1920 || got.ScreenHeight != 1080 {
			t.Errorf("unexpected screen: %+v", got)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("expected UpdatedAt to be set")
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := s.Field().Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := s.Field().Load(); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after clear, got %v", err)
		}
	})
}

func TestEventRepository(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()

	kinds := []string{"reset", "commit", "resize", "commit"}
	for i, kind := range kinds {
		e := &FieldEvent{Kind: kind, X: float64(i), Width: 100, Height: 50}
		if err := events.Append(e); err != nil {
			t.Fatalf("Append(%s) error = %v", kind, err)
		}
		if e.ID == "" {
			t.Error("expected Append to assign an ID")
		}
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := events.List("", 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 4 {
			t.Fatalf("expected 4 events, got %d", len(got))
		}
		if got[0].X != 3 || got[3].X != 0 {
			t.Errorf("unexpected order: first X=%f last X=%f", got[0].X, got[3].X)
		}
	})

	t.Run("filter and limit", func(t *testing.T) {
		got, err := events.List("commit", 1)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 event, got %d", len(got))
		}
		if got[0].Kind != "commit" || got[0].X != 3 {
			t.Errorf("unexpected event: %+v", got[0])
		}
	})

	t.Run("count", func(t *testing.T) {
		n, err := events.Count()
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n != 4 {
			t.Errorf("expected 4 events, got %d", n)
		}
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		if err := events.Append(&FieldEvent{Kind: "wave"}); err == nil {
			t.Error("expected error for unknown kind")
		}
	})
}

func TestHookRepository(t *testing.T) {
	s := newTestStore(t)
	hooks := s.Hooks()

	h := &Hook{
		ID:         "hook-1",
		EventKind:  "commit",
		PluginName: "field-logger",
		ActionName: "log",
		Config:     json.RawMessage(`{"path":"/tmp/field.log"}`),
		Enabled:    true,
	}
	if err := hooks.Create(h); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	disabled := &Hook{ID: "hook-2", EventKind: "commit", PluginName: "field-logger", ActionName: "log"}
	if err := hooks.Create(disabled); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("get by id", func(t *testing.T) {
		got, err := hooks.GetByID("hook-1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.PluginName != "field-logger" || !got.Enabled {
			t.Errorf("unexpected hook: %+v", got)
		}
		if string(got.Config) != `{"path":"/tmp/field.log"}` {
			t.Errorf("unexpected config: %s", got.Config)
		}
	})

	t.Run("default config", func(t *testing.T) {
		got, err := hooks.GetByID("hook-2")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if string(got.Config) != "{}" {
			t.Errorf("expected empty config object, got %s", got.Config)
		}
	})

	t.Run("list enabled by kind", func(t *testing.T) {
		got, err := hooks.ListEnabled("commit")
		if err != nil {
			t.Fatalf("ListEnabled() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "hook-1" {
			t.Errorf("expected only hook-1, got %d hooks", len(got))
		}

		got, err = hooks.ListEnabled("reset")
		if err != nil {
			t.Fatalf("ListEnabled() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no reset hooks, got %d", len(got))
		}
	})

	t.Run("update", func(t *testing.T) {
		disabled.Enabled = true
		disabled.EventKind = "reset"
		if err := hooks.Update(disabled); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, err := hooks.ListEnabled("reset")
		if err != nil {
			t.Fatalf("ListEnabled() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 reset hook, got %d", len(got))
		}
	})

	t.Run("list", func(t *testing.T) {
		got, err := hooks.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 hooks, got %d", len(got))
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := hooks.GetByID("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := hooks.Update(&Hook{ID: "missing", EventKind: "commit"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on update, got %v", err)
		}
		if err := hooks.Delete("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on delete, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := hooks.Delete("hook-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := hooks.GetByID("hook-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if _, err := settings.Get(SettingEnabled); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if !settings.GetBool(SettingEnabled, true) {
		t.Error("expected default true")
	}

	if err := settings.SetBool(SettingEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if settings.GetBool(SettingEnabled, true) {
		t.Error("expected stored false")
	}

	if err := settings.Set(SettingEnabled, "garbage"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !settings.GetBool(SettingEnabled, true) {
		t.Error("expected default for invalid value")
	}
}
