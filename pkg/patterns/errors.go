package patterns

import "fmt"

// ConfigError reports a pattern library that cannot be loaded. It is fatal at
// startup.
type ConfigError struct {
	Source  string // File path or "<embedded>"
	Rule    string // Offending rule name, if any
	Index   int    // Zero-based rule position, -1 when not rule-specific
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("pattern library %s", e.Source)
	if e.Index >= 0 {
		msg += fmt.Sprintf(": rule %d", e.Index)
		if e.Rule != "" {
			msg += fmt.Sprintf(" (%q)", e.Rule)
		}
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func newConfigError(source string, index int, rule, message string, cause error) *ConfigError {
	return &ConfigError{
		Source:  source,
		Rule:    rule,
		Index:   index,
		Message: message,
		Cause:   cause,
	}
}
