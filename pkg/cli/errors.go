package cli

import (
	"errors"
	"fmt"

	"crucible-hq/crucible/pkg/config"
	"crucible-hq/crucible/pkg/patterns"
	"crucible-hq/crucible/pkg/session"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitAuditFailure = 3
	ExitFlagged      = 4
)

// ErrFlagged is returned by analyze when --fail-on-flag is set and the
// rationale was flagged.
var ErrFlagged = errors.New("rationale flagged for filter deference")

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		logErr     *session.LoggingError
		valErr     *session.ValidationError
		libErr     *patterns.ConfigError
		cfgErr     *ConfigError
		cfgInvalid config.ValidationError
	)
	switch {
	case errors.Is(err, ErrFlagged):
		return ExitFlagged
	case errors.As(err, &logErr):
		return ExitAuditFailure
	case errors.As(err, &valErr), errors.As(err, &libErr),
		errors.As(err, &cfgErr), errors.As(err, &cfgInvalid):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}
