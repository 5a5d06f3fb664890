// Package config provides configuration management for the Crucible gate.
//
// Configuration is read from a YAML file, layered over defaults and then over
// environment variables, and validated as a whole before use.
//
// # Configuration Loading
//
//  1. Defaults only (no file):
//     cfg, err := config.LoadConfigWithEnvOverrides("")
//
//  2. From a YAML file:
//     cfg, err := config.LoadConfig("crucible.yaml")
//
//  3. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("crucible.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CRUCIBLE_SECTION_FIELD:
//
//   - CRUCIBLE_PATTERNS_FILE_PATH overrides patterns.file_path
//   - CRUCIBLE_AUDIT_BACKEND overrides audit.backend
//   - CRUCIBLE_AUDIT_SQLITE_PATH overrides audit.sqlite.path
//   - CRUCIBLE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails with every problem found, not just the first)
//
// There is no package-level configuration instance. The loaded *Config is
// passed explicitly to whatever needs it.
//
// # Example Configuration
//
//	patterns:
//	  file_path: ""          # empty: built-in library
//	  context_words: 6
//
//	audit:
//	  backend: sqlite        # sqlite, jsonl or memory
//	  sqlite:
//	    path: data/audit.db
//	    driver: sqlite3      # sqlite3 (cgo) or sqlite (pure Go)
//	  jsonl:
//	    path: data/audit.jsonl
//	  export:
//	    schedule: "0 18 * * 1-5"
//	    directory: exports
//	    format: csv
//
//	session:
//	  default_analyst: DEMO_ANALYST
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
//	  metrics:
//	    enabled: true
package config
