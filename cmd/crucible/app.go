package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"crucible-hq/crucible/pkg/audit"
	"crucible-hq/crucible/pkg/audit/storage"
	"crucible-hq/crucible/pkg/cli"
	"crucible-hq/crucible/pkg/config"
	"crucible-hq/crucible/pkg/detection"
	"crucible-hq/crucible/pkg/patterns"
	"crucible-hq/crucible/pkg/session"
	"crucible-hq/crucible/pkg/telemetry/logging"
	"crucible-hq/crucible/pkg/telemetry/metrics"
	"crucible-hq/crucible/pkg/telemetry/tracing"
)

// app holds everything a command needs, built from one configuration.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	library *patterns.Library
	engine  *detection.Engine
	store   audit.Store
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	coord   *session.Coordinator
}

// loadConfig loads the --config file (or defaults) with CRUCIBLE_*
// environment overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// loadLibrary loads the configured pattern library, or the built-in one.
func loadLibrary(cfg *config.Config) (*patterns.Library, error) {
	if cfg.Patterns.FilePath == "" {
		return patterns.Default(), nil
	}
	return patterns.LoadFile(cfg.Patterns.FilePath)
}

// openStore opens the configured audit store.
func openStore(cfg *config.AuditConfig) (audit.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	case "jsonl":
		return storage.NewJSONLStore(&storage.JSONLConfig{Path: cfg.JSONL.Path})
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, cli.NewConfigError("audit.backend", fmt.Sprintf("unsupported backend: %s (supported: sqlite, jsonl, memory)", cfg.Backend))
	}
}

// newApp loads configuration and wires the engine, store and coordinator.
// Logs go to the command's error stream.
func newApp(stderr io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}

	library, err := loadLibrary(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := detection.NewEngine(library, detection.WithContextWords(cfg.Patterns.ContextWords))
	if err != nil {
		return nil, err
	}

	questions, err := session.QuestionsFromConfig(cfg.Session.Questions)
	if err != nil {
		return nil, cli.NewConfigError("session.questions", err.Error())
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		library: library,
		engine:  engine,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
	}

	a.store, err = openStore(&cfg.Audit)
	if err != nil {
		return nil, err
	}

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		a.store.Close()
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	a.coord = session.New(engine, a.store,
		session.WithQuestions(questions),
		session.WithLogger(logger.With("component", "session")),
		session.WithMetrics(a.metrics),
		session.WithTracer(a.tracer.Tracer()),
		session.WithDefaultAnalyst(cfg.Session.DefaultAnalyst),
	)

	logger.Debug("crucible initialized",
		"library_version", library.Version(),
		"rules", library.Len(),
		"backend", cfg.Audit.Backend,
	)
	return a, nil
}

// Close writes the metrics file, if one is configured, and releases the
// store.
func (a *app) Close() error {
	var errs []error

	path := metricsOut
	if path == "" {
		path = a.cfg.Telemetry.Metrics.OutputPath
	}
	if path != "" && a.cfg.Telemetry.Metrics.Enabled {
		if err := writeMetrics(a.metrics, path); err != nil {
			errs = append(errs, err)
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close audit store: %w", err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

func writeMetrics(collector *metrics.Collector, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	if err := collector.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
