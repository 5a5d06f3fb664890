package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"crucible-hq/crucible/pkg/audit"
)

const (
	// DriverMattn selects the cgo driver github.com/mattn/go-sqlite3.
	DriverMattn = "sqlite3"

	// DriverModernc selects the pure-Go driver modernc.org/sqlite.
	DriverModernc = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is DriverMattn or DriverModernc.
	// Default: DriverMattn
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging so readers do not block the writer.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		Driver:       DriverMattn,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// dsn builds a connection string that applies the pragmas on every pooled
// connection, not just the first.
func (c *SQLiteConfig) dsn() (string, error) {
	busy := strconv.FormatInt(c.BusyTimeout.Milliseconds(), 10)
	v := url.Values{}
	v.Set("_txlock", "immediate")

	switch c.Driver {
	case DriverMattn:
		v.Set("_busy_timeout", busy)
		v.Set("_synchronous", "FULL")
		if c.WALMode {
			v.Set("_journal_mode", "WAL")
		}
	case DriverModernc:
		v.Add("_pragma", "busy_timeout("+busy+")")
		v.Add("_pragma", "synchronous(FULL)")
		if c.WALMode {
			v.Add("_pragma", "journal_mode(WAL)")
		}
	default:
		return "", fmt.Errorf("unknown sqlite driver %q (want %q or %q)", c.Driver, DriverMattn, DriverModernc)
	}

	if strings.Contains(c.Path, "?") {
		return "", fmt.Errorf("database path must not contain '?': %q", c.Path)
	}
	return c.Path + "?" + v.Encode(), nil
}

// SQLiteStore implements audit.Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at config.Path and
// installs the schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	cfg := *config
	if cfg.Driver == "" {
		cfg.Driver = DriverMattn
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.Path == ":memory:" {
		// Every connection to :memory: is a different database.
		cfg.MaxOpenConns = 1
	}
	if cfg.MaxIdleConns <= 0 || cfg.MaxIdleConns > cfg.MaxOpenConns {
		cfg.MaxIdleConns = cfg.MaxOpenConns
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	dsn, err := cfg.dsn()
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, audit.NewStorageError("sqlite", "open", err)
			}
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: &cfg,
		logger: logger,
		now:    time.Now,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite audit store initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// initialize creates the schema and checks its version.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}

	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Append implements audit.Store.
func (s *SQLiteStore) Append(ctx context.Context, ev *audit.Event) (int64, error) {
	if err := ev.Validate(); err != nil {
		return 0, err
	}

	payload, err := marshalPayload(ev)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "encode", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "append", err)
	}
	defer tx.Rollback()

	var (
		id      int64
		created int64
	)
	err = tx.QueryRowContext(ctx, insertEvent, string(ev.Type), s.now().UTC().UnixNano(), string(payload)).
		Scan(&id, &created)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "append", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, audit.NewStorageError("sqlite", "commit", err)
	}

	ev.ID = id
	ev.CreatedAt = time.Unix(0, created).UTC()

	s.logger.Debug("audit event appended", "event_id", id, "event_type", ev.Type)
	return id, nil
}

// List implements audit.Store. The stream reads from one SQLite snapshot, so
// appends made while it is open are not seen.
func (s *SQLiteStore) List(ctx context.Context, filter *audit.Filter) (<-chan *audit.Event, <-chan error, error) {
	if err := filter.Validate(); err != nil {
		return nil, nil, audit.NewQueryError(filter, err)
	}

	whereClause, args := buildWhereClause(filter)

	query := "SELECT id, event_type, created_at, payload FROM audit_events"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter != nil && filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	eventsCh := make(chan *audit.Event, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(eventsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			errCh <- audit.NewStorageError("sqlite", "list", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			ev, err := scanEvent(rows)
			if err != nil {
				errCh <- audit.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case eventsCh <- ev:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- audit.NewStorageError("sqlite", "list", err)
		}
	}()

	return eventsCh, errCh, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite audit store closed")
	return nil
}

func buildWhereClause(filter *audit.Filter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var (
		conditions []string
		args       []any
	)
	if filter.Type != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	if filter.Until != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, filter.Until.UnixNano())
	}
	return strings.Join(conditions, " AND "), args
}

func scanEvent(rows *sql.Rows) (*audit.Event, error) {
	var (
		id        int64
		eventType string
		created   int64
		payload   string
	)
	if err := rows.Scan(&id, &eventType, &created, &payload); err != nil {
		return nil, err
	}

	ev := &audit.Event{
		ID:        id,
		Type:      audit.EventType(eventType),
		CreatedAt: time.Unix(0, created).UTC(),
	}
	if err := unmarshalPayload(ev, []byte(payload)); err != nil {
		return nil, fmt.Errorf("event %d: %w", id, err)
	}
	return ev, nil
}

// marshalPayload encodes whichever payload ev carries.
func marshalPayload(ev *audit.Event) ([]byte, error) {
	switch ev.Type {
	case audit.EventTypeAnalysis:
		return json.Marshal(ev.Analysis)
	default:
		return json.Marshal(ev.Validation)
	}
}

func unmarshalPayload(ev *audit.Event, data []byte) error {
	switch ev.Type {
	case audit.EventTypeAnalysis:
		ev.Analysis = &audit.AnalysisPayload{}
		return json.Unmarshal(data, ev.Analysis)
	case audit.EventTypeValidationSession:
		ev.Validation = &audit.ValidationPayload{}
		return json.Unmarshal(data, ev.Validation)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}
