package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crucible.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// TestLoadConfig_ValidFile tests loading a complete configuration file.
func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
patterns:
  file_path: "./rules.yaml"
  context_words: 4

audit:
  backend: "jsonl"
  jsonl:
    path: "./audit.jsonl"
  sqlite:
    driver: "sqlite"
    wal_mode: false
    busy_timeout: "2s"
  export:
    schedule: "0 18 * * 1-5"
    format: "jsonl"

session:
  default_analyst: "analyst-7"
  questions:
    - id: q1
      prompt: "Did the engine catch the deference?"
      options: ["Yes", "No"]
      pass_option: "Yes"

telemetry:
  logging:
    level: "debug"
    format: "json"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Patterns.FilePath != "./rules.yaml" || cfg.Patterns.ContextWords != 4 {
		t.Errorf("patterns = %+v", cfg.Patterns)
	}
	if cfg.Audit.Backend != "jsonl" || cfg.Audit.JSONL.Path != "./audit.jsonl" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if cfg.Audit.SQLite.Driver != "sqlite" || cfg.Audit.SQLite.WALMode || cfg.Audit.SQLite.BusyTimeout != 2*time.Second {
		t.Errorf("audit.sqlite = %+v", cfg.Audit.SQLite)
	}
	if cfg.Audit.SQLite.Path != DefaultSQLitePath {
		t.Errorf("audit.sqlite.path = %q, want default %q", cfg.Audit.SQLite.Path, DefaultSQLitePath)
	}
	if cfg.Audit.Export.Directory != DefaultExportDirectory {
		t.Errorf("audit.export.directory = %q, want default", cfg.Audit.Export.Directory)
	}
	if cfg.Session.DefaultAnalyst != "analyst-7" || len(cfg.Session.Questions) != 1 {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("telemetry.metrics.enabled = true, want false from file")
	}
	if cfg.Telemetry.Metrics.Namespace != "crucible" || cfg.Telemetry.Metrics.Subsystem != "gate" {
		t.Errorf("metrics naming = %s/%s", cfg.Telemetry.Metrics.Namespace, cfg.Telemetry.Metrics.Subsystem)
	}
}

// TestLoadConfig_EmptyFile tests that an empty file yields the defaults.
func TestLoadConfig_EmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	want := Default()
	if cfg.Audit.Backend != want.Audit.Backend || !cfg.Audit.SQLite.WALMode || !cfg.Telemetry.Metrics.Enabled {
		t.Errorf("empty file config = %+v, want defaults", cfg)
	}
}

// TestLoadConfig_Errors tests read, parse and validation failures.
func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantMsg: "failed to read",
		},
		{
			name:    "malformed yaml",
			path:    func(t *testing.T) string { return writeConfig(t, "audit: [unclosed") },
			wantMsg: "failed to parse",
		},
		{
			name:    "unknown key",
			path:    func(t *testing.T) string { return writeConfig(t, "audit:\n  backedn: sqlite\n") },
			wantMsg: "failed to parse",
		},
		{
			name:    "invalid backend",
			path:    func(t *testing.T) string { return writeConfig(t, "audit:\n  backend: postgres\n") },
			wantMsg: "audit.backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path(t))
			if err == nil {
				t.Fatal("LoadConfig() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

// TestLoadConfigWithEnvOverrides tests that environment variables win over the file.
func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "audit:\n  backend: sqlite\n  sqlite:\n    path: file.db\n")

	t.Setenv("CRUCIBLE_AUDIT_SQLITE_PATH", "/tmp/env.db")
	t.Setenv("CRUCIBLE_AUDIT_SQLITE_DRIVER", "sqlite")
	t.Setenv("CRUCIBLE_AUDIT_SQLITE_BUSY_TIMEOUT", "250ms")
	t.Setenv("CRUCIBLE_PATTERNS_CONTEXT_WORDS", "3")
	t.Setenv("CRUCIBLE_TELEMETRY_METRICS_ENABLED", "false")
	t.Setenv("CRUCIBLE_SESSION_DEFAULT_ANALYST", "env-analyst")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Audit.SQLite.Path != "/tmp/env.db" || cfg.Audit.SQLite.Driver != "sqlite" {
		t.Errorf("audit.sqlite = %+v", cfg.Audit.SQLite)
	}
	if cfg.Audit.SQLite.BusyTimeout != 250*time.Millisecond {
		t.Errorf("busy_timeout = %v", cfg.Audit.SQLite.BusyTimeout)
	}
	if cfg.Patterns.ContextWords != 3 {
		t.Errorf("context_words = %d", cfg.Patterns.ContextWords)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics still enabled")
	}
	if cfg.Session.DefaultAnalyst != "env-analyst" {
		t.Errorf("default_analyst = %q", cfg.Session.DefaultAnalyst)
	}
}

// TestLoadConfigWithEnvOverrides_NoFile tests defaults plus environment.
func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("CRUCIBLE_AUDIT_BACKEND", "memory")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides(\"\") error = %v", err)
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("backend = %q, want memory", cfg.Audit.Backend)
	}
}

// TestLoadConfigWithEnvOverrides_BadValues tests that unparsable environment
// values are reported alongside other validation errors.
func TestLoadConfigWithEnvOverrides_BadValues(t *testing.T) {
	t.Setenv("CRUCIBLE_TELEMETRY_METRICS_ENABLED", "sometimes")
	t.Setenv("CRUCIBLE_AUDIT_SQLITE_BUSY_TIMEOUT", "soon")
	t.Setenv("CRUCIBLE_AUDIT_BACKEND", "postgres")

	_, err := LoadConfigWithEnvOverrides("")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}

	fields := make(map[string]bool)
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"telemetry.metrics.enabled", "audit.sqlite.busy_timeout", "audit.backend"} {
		if !fields[want] {
			t.Errorf("missing field error for %s in %v", want, verr.Errors)
		}
	}
}
