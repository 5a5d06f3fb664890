package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// File values are layered over Default() and the result is validated.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path skips the file and starts
// from Default(). Environment variables follow the naming convention
// CRUCIBLE_SECTION_FIELD and always take precedence over the file.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Layer the YAML file
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = loadFile(path); err != nil {
			return nil, err
		}
	}

	envErrs := applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	err := Validate(cfg)
	if len(envErrs) > 0 {
		var verr ValidationError
		if errors.As(err, &verr) {
			envErrs = append(envErrs, verr.Errors...)
		}
		err = ValidationError{Errors: envErrs}
	}
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// loadFile decodes path over Default(). Unknown keys are rejected.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies CRUCIBLE_* environment variables to cfg and
// returns a FieldError for each value that does not parse.
func applyEnvOverrides(cfg *Config) []FieldError {
	var errs []FieldError

	str := func(name string, dst *string) {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}
	boolean := func(name, field string, dst *bool) {
		if val := os.Getenv(name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s: %q is not a boolean", name, val)})
				return
			}
			*dst = b
		}
	}
	integer := func(name, field string, dst *int) {
		if val := os.Getenv(name); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s: %q is not an integer", name, val)})
				return
			}
			*dst = i
		}
	}
	duration := func(name, field string, dst *time.Duration) {
		if val := os.Getenv(name); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s: %q is not a duration", name, val)})
				return
			}
			*dst = d
		}
	}

	// Pattern overrides
	str("CRUCIBLE_PATTERNS_FILE_PATH", &cfg.Patterns.FilePath)
	integer("CRUCIBLE_PATTERNS_CONTEXT_WORDS", "patterns.context_words", &cfg.Patterns.ContextWords)

	// Audit overrides
	str("CRUCIBLE_AUDIT_BACKEND", &cfg.Audit.Backend)
	str("CRUCIBLE_AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	str("CRUCIBLE_AUDIT_SQLITE_DRIVER", &cfg.Audit.SQLite.Driver)
	integer("CRUCIBLE_AUDIT_SQLITE_MAX_OPEN_CONNS", "audit.sqlite.max_open_conns", &cfg.Audit.SQLite.MaxOpenConns)
	boolean("CRUCIBLE_AUDIT_SQLITE_WAL_MODE", "audit.sqlite.wal_mode", &cfg.Audit.SQLite.WALMode)
	duration("CRUCIBLE_AUDIT_SQLITE_BUSY_TIMEOUT", "audit.sqlite.busy_timeout", &cfg.Audit.SQLite.BusyTimeout)
	str("CRUCIBLE_AUDIT_JSONL_PATH", &cfg.Audit.JSONL.Path)
	str("CRUCIBLE_AUDIT_EXPORT_SCHEDULE", &cfg.Audit.Export.Schedule)
	str("CRUCIBLE_AUDIT_EXPORT_DIRECTORY", &cfg.Audit.Export.Directory)
	str("CRUCIBLE_AUDIT_EXPORT_FORMAT", &cfg.Audit.Export.Format)

	// Session overrides
	str("CRUCIBLE_SESSION_DEFAULT_ANALYST", &cfg.Session.DefaultAnalyst)

	// Telemetry overrides
	str("CRUCIBLE_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	str("CRUCIBLE_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	boolean("CRUCIBLE_TELEMETRY_METRICS_ENABLED", "telemetry.metrics.enabled", &cfg.Telemetry.Metrics.Enabled)
	str("CRUCIBLE_TELEMETRY_METRICS_OUTPUT_PATH", &cfg.Telemetry.Metrics.OutputPath)
	boolean("CRUCIBLE_TELEMETRY_TRACING_ENABLED", "telemetry.tracing.enabled", &cfg.Telemetry.Tracing.Enabled)
	str("CRUCIBLE_TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	str("CRUCIBLE_TELEMETRY_TRACING_EXPORTER", &cfg.Telemetry.Tracing.Exporter)
	str("CRUCIBLE_TELEMETRY_TRACING_FILE_PATH", &cfg.Telemetry.Tracing.FilePath)

	return errs
}
