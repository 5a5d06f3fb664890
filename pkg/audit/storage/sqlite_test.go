package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crucible-hq/crucible/pkg/audit"
)

// TestSQLiteStore_Initialize tests database creation and schema version.
func TestSQLiteStore_Initialize(t *testing.T) {
	for _, driver := range []string{DriverMattn, DriverModernc} {
		t.Run(driver, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "nested", "audit.db")
			s, err := NewSQLiteStore(&SQLiteConfig{Path: dbPath, Driver: driver, WALMode: true, BusyTimeout: time.Second})
			if err != nil {
				t.Fatalf("NewSQLiteStore() error = %v", err)
			}
			defer s.Close()

			if _, err := os.Stat(dbPath); err != nil {
				t.Errorf("database file was not created: %v", err)
			}

			var version int
			if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
				t.Fatalf("schema version query error = %v", err)
			}
			if version != SchemaVersion {
				t.Errorf("schema version = %d, want %d", version, SchemaVersion)
			}

			var mode string
			if err := s.db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
				t.Fatalf("journal_mode query error = %v", err)
			}
			if !strings.EqualFold(mode, "wal") {
				t.Errorf("journal_mode = %q, want wal", mode)
			}

			var sync int
			if err := s.db.QueryRow("PRAGMA synchronous;").Scan(&sync); err != nil {
				t.Fatalf("synchronous query error = %v", err)
			}
			if sync != 2 {
				t.Errorf("synchronous = %d, want 2 (FULL)", sync)
			}
		})
	}
}

// TestSQLiteStore_RejectsUpdateAndDelete tests the append-only triggers.
func TestSQLiteStore_RejectsUpdateAndDelete(t *testing.T) {
	s := newTestSQLite(t, DriverMattn, nil)
	defer s.Close()

	mustAppend(t, s, analysisEvent("S-001", true))

	statements := []string{
		"UPDATE audit_events SET payload = '{}' WHERE id = 1",
		"DELETE FROM audit_events WHERE id = 1",
		"DELETE FROM audit_events",
	}
	for _, stmt := range statements {
		_, err := s.db.Exec(stmt)
		if err == nil || !strings.Contains(err.Error(), "append-only") {
			t.Errorf("%q: error = %v, want append-only violation", stmt, err)
		}
	}

	events := mustCollect(t, s, nil)
	if len(events) != 1 || events[0].Analysis.ScenarioID != "S-001" {
		t.Errorf("event changed after rejected statements: %+v", events)
	}
}

// TestSQLiteStore_Reopen tests that events and id sequence survive a reopen.
func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	cfg := &SQLiteConfig{Path: dbPath, Driver: DriverMattn, WALMode: true, BusyTimeout: time.Second}

	s, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	mustAppend(t, s, analysisEvent("S-1", true))
	mustAppend(t, s, validationEvent("sess-1", audit.OutcomePassed))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if id := mustAppend(t, s, analysisEvent("S-2", false)); id != 3 {
		t.Errorf("id after reopen = %d, want 3", id)
	}
	if got := len(mustCollect(t, s, nil)); got != 3 {
		t.Errorf("listed %d events after reopen, want 3", got)
	}
}

// TestSQLiteStore_SharedFile tests two stores appending to one database file,
// as two processes would.
func TestSQLiteStore_SharedFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	cfg := &SQLiteConfig{Path: dbPath, Driver: DriverMattn, WALMode: true, BusyTimeout: 5 * time.Second}

	a, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore(a) error = %v", err)
	}
	defer a.Close()
	b, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore(b) error = %v", err)
	}
	defer b.Close()

	// b's clock runs behind a's; creation order must still follow id order.
	a.now = func() time.Time { return baseTime.Add(time.Hour) }
	b.now = func() time.Time { return baseTime }

	mustAppend(t, a, analysisEvent("A", true))
	mustAppend(t, b, analysisEvent("B", true))

	events := mustCollect(t, b, nil)
	if len(events) != 2 {
		t.Fatalf("listed %d events, want 2", len(events))
	}
	if events[0].Analysis.ScenarioID != "A" || events[1].Analysis.ScenarioID != "B" {
		t.Errorf("order = %s, %s; want A, B", events[0].Analysis.ScenarioID, events[1].Analysis.ScenarioID)
	}
	if events[1].CreatedAt.Before(events[0].CreatedAt) {
		t.Errorf("second event created at %v, before first at %v", events[1].CreatedAt, events[0].CreatedAt)
	}
}

// TestSQLiteStore_Errors tests configuration and open failures.
func TestSQLiteStore_Errors(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  *SQLiteConfig
	}{
		{name: "unknown driver", cfg: &SQLiteConfig{Path: filepath.Join(t.TempDir(), "a.db"), Driver: "postgres"}},
		{name: "question mark in path", cfg: &SQLiteConfig{Path: filepath.Join(t.TempDir(), "a?.db")}},
		{name: "parent is a file", cfg: &SQLiteConfig{Path: filepath.Join(blocker, "audit.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLiteStore(tt.cfg)
			var serr *audit.StorageError
			if !errors.As(err, &serr) {
				t.Fatalf("NewSQLiteStore() error = %v, want *audit.StorageError", err)
			}
			if serr.Backend != "sqlite" {
				t.Errorf("Backend = %q, want sqlite", serr.Backend)
			}
		})
	}
}

// TestSQLiteStore_CancelledAppend tests that a cancelled context stores nothing.
func TestSQLiteStore_CancelledAppend(t *testing.T) {
	s := newTestSQLite(t, DriverMattn, nil)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Append(ctx, analysisEvent("S", true)); err == nil {
		t.Fatal("Append() with cancelled context succeeded")
	}
	if got := len(mustCollect(t, s, nil)); got != 0 {
		t.Errorf("listed %d events, want 0", got)
	}
}
