package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "audit.sqlite.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePatterns(&cfg.Patterns)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validatePatterns validates pattern library configuration.
func validatePatterns(cfg *PatternsConfig) []FieldError {
	var errs []FieldError

	if cfg.ContextWords < 1 || cfg.ContextWords > 100 {
		errs = append(errs, FieldError{
			Field:   "patterns.context_words",
			Message: fmt.Sprintf("context words must be between 1 and 100, got %d", cfg.ContextWords),
		})
	}

	return errs
}

// validateAudit validates audit log configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'sqlite'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.max_open_conns",
				Message: "max open connections must be at least 1",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	case "jsonl":
		if cfg.JSONL.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.jsonl.path",
				Message: "JSONL path is required when backend is 'jsonl'",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite', 'jsonl', or 'memory'", cfg.Backend),
		})
	}

	if cfg.Export.Format != "csv" && cfg.Export.Format != "jsonl" {
		errs = append(errs, FieldError{
			Field:   "audit.export.format",
			Message: fmt.Sprintf("invalid format %q: must be 'csv' or 'jsonl'", cfg.Export.Format),
		})
	}
	if cfg.Export.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Export.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.export.schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Export.Schedule, err),
			})
		}
		if cfg.Export.Directory == "" {
			errs = append(errs, FieldError{
				Field:   "audit.export.directory",
				Message: "directory is required when a schedule is set",
			})
		}
	}

	return errs
}

// validateSession validates session and question configuration.
func validateSession(cfg *SessionConfig) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(cfg.DefaultAnalyst) == "" {
		errs = append(errs, FieldError{
			Field:   "session.default_analyst",
			Message: "default analyst must not be blank",
		})
	}

	seen := make(map[string]bool)
	for i, q := range cfg.Questions {
		field := fmt.Sprintf("session.questions[%d]", i)

		if q.ID == "" {
			errs = append(errs, FieldError{Field: field + ".id", Message: "question id is required"})
		} else if seen[q.ID] {
			errs = append(errs, FieldError{Field: field + ".id", Message: fmt.Sprintf("duplicate question id %q", q.ID)})
		}
		seen[q.ID] = true

		if strings.TrimSpace(q.Prompt) == "" {
			errs = append(errs, FieldError{Field: field + ".prompt", Message: "prompt is required"})
		}

		if len(q.Options) < 2 {
			errs = append(errs, FieldError{Field: field + ".options", Message: "at least two options are required"})
		}
		options := make(map[string]bool)
		for _, opt := range q.Options {
			if opt == "" {
				errs = append(errs, FieldError{Field: field + ".options", Message: "options must not be empty"})
			} else if options[opt] {
				errs = append(errs, FieldError{Field: field + ".options", Message: fmt.Sprintf("duplicate option %q", opt)})
			}
			options[opt] = true
		}

		if !options[q.PassOption] {
			errs = append(errs, FieldError{
				Field:   field + ".pass_option",
				Message: fmt.Sprintf("pass option %q is not one of the options", q.PassOption),
			})
		}
	}

	return errs
}

var metricNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if !metricNameRE.MatchString(cfg.Metrics.Namespace) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: fmt.Sprintf("invalid metric namespace %q", cfg.Metrics.Namespace),
		})
	}
	if !metricNameRE.MatchString(cfg.Metrics.Subsystem) {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.subsystem",
			Message: fmt.Sprintf("invalid metric subsystem %q", cfg.Metrics.Subsystem),
		})
	}

	switch cfg.Tracing.Sampler {
	case "always", "never":
	case "ratio":
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.Tracing.SampleRatio),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}

	switch cfg.Tracing.Exporter {
	case "none":
	case "file":
		if cfg.Tracing.FilePath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.file_path",
				Message: "file path is required when exporter is 'file'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("invalid exporter %q: must be 'none' or 'file'", cfg.Tracing.Exporter),
		})
	}

	return errs
}
