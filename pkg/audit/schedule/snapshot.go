package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"crucible-hq/crucible/pkg/audit"
	"crucible-hq/crucible/pkg/audit/export"
)

// Config controls scheduled snapshots.
type Config struct {
	// Schedule is a standard cron expression. Empty disables scheduling.
	Schedule string

	// Directory receives snapshot files.
	Directory string

	// Format is "csv" or "jsonl".
	// Default: "csv"
	Format string

	// Prefix starts every snapshot file name.
	// Default: "audit"
	Prefix string
}

// Snapshotter exports the audit log to timestamped files.
type Snapshotter struct {
	store    audit.Store
	config   Config
	exporter export.Exporter
	now      func() time.Time
	logger   *slog.Logger
}

// NewSnapshotter validates config and returns a Snapshotter.
func NewSnapshotter(store audit.Store, config *Config) (*Snapshotter, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if config == nil || config.Directory == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}

	cfg := *config
	if cfg.Format == "" {
		cfg.Format = "csv"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "audit"
	}

	exporter, ok := export.ForFormat(cfg.Format)
	if !ok {
		return nil, fmt.Errorf("unsupported snapshot format %q", cfg.Format)
	}

	return &Snapshotter{
		store:    store,
		config:   cfg,
		exporter: exporter,
		now:      time.Now,
		logger:   slog.Default().With("component", "audit.schedule"),
	}, nil
}

// Snapshot exports every event to a new file and returns its path and the
// number of events written.
func (s *Snapshotter) Snapshot(ctx context.Context) (string, int, error) {
	if err := os.MkdirAll(s.config.Directory, 0o750); err != nil {
		return "", 0, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.%s", s.config.Prefix,
		s.now().UTC().Format("20060102T150405.000Z"), s.exporter.Format())
	path := filepath.Join(s.config.Directory, name)
	if _, err := os.Stat(path); err == nil {
		return "", 0, fmt.Errorf("snapshot %s already exists", path)
	}

	tmp, err := os.CreateTemp(s.config.Directory, "."+name+".*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := export.Snapshot(ctx, s.store, nil, s.exporter, tmp)
	if err != nil {
		tmp.Close()
		return "", n, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", n, fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", n, fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", n, fmt.Errorf("failed to publish snapshot: %w", err)
	}

	return path, n, nil
}
