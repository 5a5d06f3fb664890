package audit

import "fmt"

// Validate checks that ev is well formed for appending. The ID and CreatedAt
// fields are ignored; stores assign them.
func (ev *Event) Validate() error {
	if ev == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalidEvent)
	}
	switch ev.Type {
	case EventTypeAnalysis:
		if ev.Analysis == nil {
			return fmt.Errorf("%w: analysis event without analysis payload", ErrInvalidEvent)
		}
		if ev.Validation != nil {
			return fmt.Errorf("%w: analysis event carries a validation payload", ErrInvalidEvent)
		}
	case EventTypeValidationSession:
		if ev.Validation == nil {
			return fmt.Errorf("%w: validation event without validation payload", ErrInvalidEvent)
		}
		if ev.Analysis != nil {
			return fmt.Errorf("%w: validation event carries an analysis payload", ErrInvalidEvent)
		}
		if ev.Validation.SessionID == "" {
			return fmt.Errorf("%w: validation event without session id", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, ev.Type)
	}
	return nil
}

// Validate checks that the filter is usable.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Type != "" && !f.Type.Valid() {
		return fmt.Errorf("unknown event type %q", f.Type)
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", f.Limit)
	}
	if f.Since != nil && f.Until != nil && f.Until.Before(*f.Since) {
		return fmt.Errorf("until (%s) is before since (%s)", f.Until, f.Since)
	}
	return nil
}
