// Package storage provides append-only backends for the audit trail.
//
// # Backends
//
//   - SQLite: embedded database, the default. Works with either the cgo
//     driver (github.com/mattn/go-sqlite3, driver name "sqlite3") or the
//     pure-Go driver (modernc.org/sqlite, driver name "sqlite").
//   - JSONL: one JSON object per line in a plain file.
//   - Memory: in-process only, for tests and dry runs.
//
// None of them implements update or delete.
//
// # SQLite Backend
//
//   - WAL mode and synchronous=FULL, so a committed append survives a crash
//   - Busy timeout for writers contending across processes
//   - AUTOINCREMENT ids, never reused
//   - Triggers that abort any UPDATE or DELETE on audit_events
//   - Schema version tracked in schema_version
//
// Appends are single INSERT statements, so concurrent writers in any number
// of processes are serialized by SQLite itself.
//
// # JSONL Backend
//
// Each append is one write of one line followed by fsync. A failed or short
// write is truncated away before the error is returned, and an incomplete
// trailing line left by a crash is removed when the file is reopened. The
// mutex that orders appends is per process: point only one process at a
// given file.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
//	    Path:   "data/audit.db",
//	    Driver: storage.DriverMattn,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	id, err := store.Append(ctx, &audit.Event{
//	    Type:     audit.EventTypeAnalysis,
//	    Analysis: payload,
//	})
package storage
