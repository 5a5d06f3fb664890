package session

import (
	"fmt"
	"strings"
)

// FieldProblem describes one invalid input field.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError is returned for malformed input. Nothing was analyzed or
// written.
type ValidationError struct {
	// Operation is the rejected call ("submit_rationale", "record_validation").
	Operation string

	// Problems lists every invalid field found.
	Problems []FieldProblem
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		p := e.Problems[0]
		return fmt.Sprintf("%s: invalid input: %s: %s", e.Operation, p.Field, p.Message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d invalid fields:", e.Operation, len(e.Problems))
	for _, p := range e.Problems {
		fmt.Fprintf(&b, "\n  - %s: %s", p.Field, p.Message)
	}
	return b.String()
}

// Has reports whether field is among the problems.
func (e *ValidationError) Has(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

type problems []FieldProblem

func (p *problems) add(field, format string, args ...any) {
	*p = append(*p, FieldProblem{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (p problems) err(op string) error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Operation: op, Problems: p}
}

// LoggingError reports that an event could not be written to the audit log.
// For SubmitRationale the analysis itself still succeeded.
type LoggingError struct {
	// EventType is the type of the event that was lost.
	EventType string

	// Cause is the store error, normally an *audit.StorageError.
	Cause error
}

// Error implements the error interface.
func (e *LoggingError) Error() string {
	return fmt.Sprintf("audit log append failed for %s event: %v", e.EventType, e.Cause)
}

// Unwrap returns the underlying store error.
func (e *LoggingError) Unwrap() error {
	return e.Cause
}
