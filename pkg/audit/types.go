package audit

import (
	"context"
	"time"
)

// EventType identifies the kind of audit event.
type EventType string

const (
	// EventTypeAnalysis records one rationale analysis.
	EventTypeAnalysis EventType = "analysis"

	// EventTypeValidationSession records one expert validation session.
	EventTypeValidationSession EventType = "validation_session"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventTypeAnalysis || t == EventTypeValidationSession
}

// Event is one immutable audit record.
type Event struct {
	// ID is assigned by the store on append and increases with append order.
	ID int64 `json:"event_id"`

	// Type selects which payload is set.
	Type EventType `json:"event_type"`

	// CreatedAt is assigned by the store on append (UTC).
	CreatedAt time.Time `json:"created_at"`

	// Analysis is set for EventTypeAnalysis.
	Analysis *AnalysisPayload `json:"analysis,omitempty"`

	// Validation is set for EventTypeValidationSession.
	Validation *ValidationPayload `json:"validation,omitempty"`
}

// AnalysisPayload captures a rationale and the verdict it received.
type AnalysisPayload struct {
	ScenarioID     string        `json:"scenario_id,omitempty"`
	AnalystID      string        `json:"analyst_id"`
	Rationale      string        `json:"rationale"`
	RationaleWords int           `json:"rationale_words"`
	Flagged        bool          `json:"flagged"`
	MatchCount     int           `json:"match_count"`
	RuleNames      []string      `json:"rule_names"`
	Categories     []string      `json:"categories"`
	Matches        []MatchRecord `json:"matches"`
	LibraryVersion string        `json:"library_version"`
	AnalyzedAt     time.Time     `json:"analyzed_at"`
}

// MatchRecord is the persisted form of one match.
type MatchRecord struct {
	Rule     string `json:"rule"`
	Category string `json:"category"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Context  string `json:"context"`
}

// Outcome summarises a validation session.
type Outcome string

const (
	// OutcomePassed means every question received its passing answer.
	OutcomePassed Outcome = "PASSED"

	// OutcomePartial means at least one question did not.
	OutcomePartial Outcome = "PARTIAL"
)

// Answer is the reviewer's response to one validation question.
type Answer struct {
	Option string `json:"option"`
	Notes  string `json:"notes,omitempty"`
}

// ValidationPayload captures one expert validation session.
type ValidationPayload struct {
	SessionID         string            `json:"session_id"`
	ValidatorName     string            `json:"validator_name"`
	ScenariosReviewed []string          `json:"scenarios_reviewed"`
	Answers           map[string]Answer `json:"answers"`
	AdditionalNotes   string            `json:"additional_notes,omitempty"`
	PositiveCases     int               `json:"positive_cases"`
	NegativeCases     int               `json:"negative_cases"`
	Outcome           Outcome           `json:"outcome"`
	Supersedes        string            `json:"supersedes,omitempty"`
	SubmittedAt       time.Time         `json:"submitted_at"`
}

// Filter narrows List results. A nil or zero Filter selects everything.
type Filter struct {
	// Type restricts results to one event type.
	Type EventType

	// Since is an inclusive lower bound on CreatedAt.
	Since *time.Time

	// Until is an exclusive upper bound on CreatedAt.
	Until *time.Time

	// Limit caps the number of events returned; 0 means no cap.
	Limit int
}

// Matches reports whether ev passes the filter.
func (f *Filter) Matches(ev *Event) bool {
	if f == nil {
		return true
	}
	if f.Type != "" && ev.Type != f.Type {
		return false
	}
	if f.Since != nil && ev.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !ev.CreatedAt.Before(*f.Until) {
		return false
	}
	return true
}

// Store is an append-only event store. Implementations must be safe for
// concurrent use. There is deliberately no way to update or delete an event.
type Store interface {
	// Append validates ev, assigns ev.ID and ev.CreatedAt, and persists it.
	// It returns only once the event is durable. On failure nothing is
	// written and ev is left unchanged. Malformed events fail with an error
	// wrapping ErrInvalidEvent; storage failures with a *StorageError.
	Append(ctx context.Context, ev *Event) (int64, error)

	// List streams matching events ordered by CreatedAt then ID.
	//
	// Returns:
	//   - events: channel of events (closed when the listing ends)
	//   - errs: channel carrying at most one error (closed when the listing ends)
	//   - error: immediate error (e.g. invalid filter)
	//
	// Callers should drain events and then read errs. Cancel ctx to stop early.
	List(ctx context.Context, filter *Filter) (<-chan *Event, <-chan error, error)

	// Close releases the store's resources.
	Close() error
}
