package config

import "time"

// Config is the root configuration structure for the Crucible gate.
type Config struct {
	// Patterns selects the pattern library and detection parameters.
	Patterns PatternsConfig `yaml:"patterns"`

	// Audit contains audit log backend and export configuration.
	Audit AuditConfig `yaml:"audit"`

	// Session contains session coordinator settings including the
	// validation question set.
	Session SessionConfig `yaml:"session"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PatternsConfig contains pattern library configuration.
type PatternsConfig struct {
	// FilePath is a YAML pattern library. Empty selects the built-in library.
	// Default: ""
	FilePath string `yaml:"file_path"`

	// ContextWords is the number of words shown on each side of a match.
	// Default: 6
	ContextWords int `yaml:"context_words"`
}

// AuditConfig contains audit log configuration.
type AuditConfig struct {
	// Backend selects the store.
	// Options: "sqlite", "jsonl", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// JSONL contains JSON Lines file configuration.
	JSONL JSONLConfig `yaml:"jsonl"`

	// Export contains scheduled export configuration.
	Export ExportConfig `yaml:"export"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite3" (github.com/mattn/go-sqlite3), "sqlite" (modernc.org/sqlite)
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a writer waits for a lock held elsewhere.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// JSONLConfig contains JSON Lines backend configuration.
type JSONLConfig struct {
	// Path is the log file path.
	// Default: "data/audit.jsonl"
	Path string `yaml:"path"`
}

// ExportConfig contains scheduled export configuration.
type ExportConfig struct {
	// Schedule is a standard cron expression. Empty disables scheduled export.
	// Default: ""
	Schedule string `yaml:"schedule"`

	// Directory receives snapshot files.
	// Default: "exports"
	Directory string `yaml:"directory"`

	// Format is the snapshot format.
	// Options: "csv", "jsonl"
	// Default: "csv"
	Format string `yaml:"format"`
}

// SessionConfig contains session coordinator configuration.
type SessionConfig struct {
	// DefaultAnalyst is recorded when a submission names no analyst.
	// Default: "DEMO_ANALYST"
	DefaultAnalyst string `yaml:"default_analyst"`

	// Questions replaces the built-in validation question set when non-empty.
	Questions []QuestionConfig `yaml:"questions"`
}

// QuestionConfig describes one validation question.
type QuestionConfig struct {
	// ID is the stable key answers are recorded under.
	ID string `yaml:"id"`

	// Prompt is the question text.
	Prompt string `yaml:"prompt"`

	// Options are the permitted answers.
	Options []string `yaml:"options"`

	// PassOption is the answer that counts towards a PASSED outcome.
	PassOption string `yaml:"pass_option"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "crucible"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gate"
	Subsystem string `yaml:"subsystem"`

	// OutputPath receives the text exposition of all metrics when the CLI
	// exits. Empty disables the dump.
	// Default: ""
	OutputPath string `yaml:"output_path"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	// Enabled installs a tracer provider. Log records then carry trace and
	// span ids.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is recorded as the service.name resource attribute.
	// Default: "crucible"
	ServiceName string `yaml:"service_name"`

	// Sampler is the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter selects where finished spans go. Only local destinations
	// are supported.
	// Options: "none", "file"
	// Default: "none"
	Exporter string `yaml:"exporter"`

	// FilePath receives one JSON object per span when Exporter is "file".
	FilePath string `yaml:"file_path"`
}
