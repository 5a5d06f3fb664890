package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crucible-hq/crucible/pkg/audit"
	"crucible-hq/crucible/pkg/config"
	"crucible-hq/crucible/pkg/detection"
	"crucible-hq/crucible/pkg/telemetry/logging"
	"crucible-hq/crucible/pkg/telemetry/metrics"
)

const (
	tracerName = "crucible-hq/crucible/pkg/session"

	opSubmitRationale  = "submit_rationale"
	opRecordValidation = "record_validation"
)

// Submission is one rationale submitted for analysis.
type Submission struct {
	// Rationale is the analyst's text. It must not be nil; an empty string
	// is valid and is never flagged.
	Rationale *string

	// ScenarioID identifies the case the rationale was written for.
	ScenarioID string

	// AnalystID identifies the author. Empty means the coordinator default.
	AnalystID string
}

// Receipt is the outcome of SubmitRationale.
type Receipt struct {
	// Result is the engine verdict. It is set whenever analysis ran, even
	// if the audit append failed.
	Result *detection.Result

	// EventID is the audit event id, or 0 if the append failed.
	EventID int64
}

// ValidationSession is one expert review of the gate.
type ValidationSession struct {
	ValidatorName     string
	ScenariosReviewed []string
	Answers           map[string]audit.Answer
	AdditionalNotes   string
	PositiveCases     int
	NegativeCases     int

	// Supersedes optionally names the session id this one corrects.
	Supersedes string
}

// Coordinator runs analyses and validation sessions against an audit store.
type Coordinator struct {
	engine         *detection.Engine
	store          audit.Store
	questions      *QuestionSet
	defaultAnalyst string
	logger         *slog.Logger
	metrics        *metrics.Collector
	tracer         trace.Tracer
	now            func() time.Time
	newSessionID   func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithQuestions replaces the default validation questions.
func WithQuestions(qs *QuestionSet) Option {
	return func(c *Coordinator) {
		if qs != nil {
			c.questions = qs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. A nil collector records nothing.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithClock overrides the clock used to stamp validation sessions.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTracer sets the tracer. The default is the global provider's tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithDefaultAnalyst sets the analyst recorded when a submission names none.
func WithDefaultAnalyst(id string) Option {
	return func(c *Coordinator) {
		if id != "" {
			c.defaultAnalyst = id
		}
	}
}

// New creates a coordinator.
func New(engine *detection.Engine, store audit.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:         engine,
		store:          store,
		questions:      DefaultQuestions(),
		defaultAnalyst: config.DefaultAnalyst,
		logger:         slog.Default().With("component", "session"),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
		newSessionID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Questions returns the validation question set in use.
func (c *Coordinator) Questions() *QuestionSet {
	return c.questions
}

// SubmitRationale analyzes a rationale and appends an analysis event.
//
// A nil submission or nil rationale fails with *ValidationError and has no
// effect. If the append fails the receipt still carries the result and the
// error is a *LoggingError.
func (c *Coordinator) SubmitRationale(ctx context.Context, sub *Submission) (*Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "session.SubmitRationale")
	defer span.End()

	var probs problems
	if sub == nil {
		probs.add("submission", "is required")
	} else if sub.Rationale == nil {
		probs.add("rationale", "is required")
	}
	if err := probs.err(opSubmitRationale); err != nil {
		span.SetStatus(codes.Error, "invalid submission")
		c.logger.WarnContext(ctx, "rejected rationale submission", "error", err)
		return nil, err
	}

	analyst := sub.AnalystID
	if analyst == "" {
		analyst = c.defaultAnalyst
	}
	ctx = logging.WithAnalyst(ctx, analyst)
	if sub.ScenarioID != "" {
		ctx = logging.WithScenario(ctx, sub.ScenarioID)
	}

	text := *sub.Rationale
	start := time.Now()
	result := c.engine.Analyze(text)
	c.metrics.RecordAnalysis(result.Flagged, time.Since(start))
	for _, m := range result.Matches {
		c.metrics.RecordRuleMatch(m.Rule, string(m.Category))
	}

	span.SetAttributes(
		attribute.Int("rationale.bytes", len(text)),
		attribute.Bool("flagged", result.Flagged),
		attribute.Int("match_count", result.MatchCount()),
	)
	c.logger.InfoContext(ctx, "rationale analyzed",
		"rationale_bytes", len(text),
		"flagged", result.Flagged,
		"match_count", result.MatchCount(),
		"rules", result.RuleNames(),
	)

	receipt := &Receipt{Result: result}
	ev := &audit.Event{
		Type:     audit.EventTypeAnalysis,
		Analysis: analysisPayload(sub.ScenarioID, analyst, result),
	}
	id, err := c.append(ctx, span, ev)
	if err != nil {
		return receipt, err
	}
	receipt.EventID = id
	return receipt, nil
}

// RecordValidation validates a session, computes its outcome and appends a
// validation event. It returns the new event id.
//
// Every configured question must be answered with one of its options and no
// unknown question may appear. All problems are reported together in one
// *ValidationError. The outcome is PASSED iff every answer is the question's
// pass option.
func (c *Coordinator) RecordValidation(ctx context.Context, vs *ValidationSession) (int64, error) {
	ctx, span := c.tracer.Start(ctx, "session.RecordValidation")
	defer span.End()

	if err := c.validateSession(vs); err != nil {
		span.SetStatus(codes.Error, "invalid validation session")
		c.logger.WarnContext(ctx, "rejected validation session", "error", err)
		return 0, err
	}

	sessionID := c.newSessionID()
	ctx = logging.WithSession(ctx, sessionID)

	payload := &audit.ValidationPayload{
		SessionID:         sessionID,
		ValidatorName:     strings.TrimSpace(vs.ValidatorName),
		ScenariosReviewed: normalizeScenarios(vs.ScenariosReviewed),
		Answers:           make(map[string]audit.Answer, len(vs.Answers)),
		AdditionalNotes:   vs.AdditionalNotes,
		PositiveCases:     vs.PositiveCases,
		NegativeCases:     vs.NegativeCases,
		Outcome:           audit.OutcomePassed,
		Supersedes:        vs.Supersedes,
		SubmittedAt:       c.now().UTC(),
	}
	for id, ans := range vs.Answers {
		payload.Answers[id] = ans
		if q, _ := c.questions.Lookup(id); ans.Option != q.PassOption {
			payload.Outcome = audit.OutcomePartial
		}
	}
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("outcome", string(payload.Outcome)),
		attribute.Int("scenarios", len(payload.ScenariosReviewed)),
	)
	c.logger.InfoContext(ctx, "validation session recorded",
		"validator", payload.ValidatorName,
		"outcome", payload.Outcome,
		"scenarios", len(payload.ScenariosReviewed),
		"notes_bytes", notesBytes(payload),
	)

	id, err := c.append(ctx, span, &audit.Event{
		Type:       audit.EventTypeValidationSession,
		Validation: payload,
	})
	if err != nil {
		return 0, err
	}
	c.metrics.RecordValidation(string(payload.Outcome))
	return id, nil
}

// append writes ev, recording metrics and span status. Failures are wrapped
// in a *LoggingError.
func (c *Coordinator) append(ctx context.Context, span trace.Span, ev *audit.Event) (int64, error) {
	start := time.Now()
	id, err := c.store.Append(ctx, ev)
	c.metrics.RecordAppend(string(ev.Type), err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit append failed")
		c.logger.ErrorContext(ctx, "audit append failed",
			"event_type", ev.Type,
			"error", err,
		)
		return 0, &LoggingError{EventType: string(ev.Type), Cause: err}
	}

	span.SetAttributes(attribute.Int64("event.id", id))
	c.logger.DebugContext(ctx, "audit event appended",
		"event_type", ev.Type,
		"event_id", id,
	)
	return id, nil
}

func (c *Coordinator) validateSession(vs *ValidationSession) error {
	var probs problems
	if vs == nil {
		probs.add("session", "is required")
		return probs.err(opRecordValidation)
	}

	if strings.TrimSpace(vs.ValidatorName) == "" {
		probs.add("validator_name", "is required")
	}
	if len(normalizeScenarios(vs.ScenariosReviewed)) == 0 {
		probs.add("scenarios_reviewed", "at least one scenario is required")
	}
	if vs.PositiveCases < 0 {
		probs.add("positive_cases", "must not be negative")
	}
	if vs.NegativeCases < 0 {
		probs.add("negative_cases", "must not be negative")
	}
	if vs.Supersedes != "" {
		if _, err := uuid.Parse(vs.Supersedes); err != nil {
			probs.add("supersedes", "must be a session id: %v", err)
		}
	}

	for _, q := range c.questions.Questions() {
		ans, ok := vs.Answers[q.ID]
		switch {
		case !ok:
			probs.add("answers."+q.ID, "is required")
		case !slices.Contains(q.Options, ans.Option):
			probs.add("answers."+q.ID, "%q is not one of %v", ans.Option, q.Options)
		}
	}
	unknown := make([]string, 0)
	for id := range vs.Answers {
		if _, ok := c.questions.Lookup(id); !ok {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	for _, id := range unknown {
		probs.add("answers."+id, "unknown question")
	}

	return probs.err(opRecordValidation)
}

// normalizeScenarios trims, drops empty ids, sorts and removes duplicates.
func normalizeScenarios(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func analysisPayload(scenario, analyst string, r *detection.Result) *audit.AnalysisPayload {
	p := &audit.AnalysisPayload{
		ScenarioID:     scenario,
		AnalystID:      analyst,
		Rationale:      r.Input,
		RationaleWords: len(strings.Fields(r.Input)),
		Flagged:        r.Flagged,
		MatchCount:     r.MatchCount(),
		RuleNames:      r.RuleNames(),
		Categories:     make([]string, 0),
		Matches:        make([]audit.MatchRecord, 0, len(r.Matches)),
		LibraryVersion: r.LibraryVersion,
		AnalyzedAt:     r.Timestamp,
	}
	for _, cat := range r.Categories() {
		p.Categories = append(p.Categories, string(cat))
	}
	for _, m := range r.Matches {
		p.Matches = append(p.Matches, audit.MatchRecord{
			Rule:     m.Rule,
			Category: string(m.Category),
			Start:    m.Span.Start,
			End:      m.Span.End,
			Context:  m.Context,
		})
	}
	return p
}

// notesBytes is the total size of a session's free text.
func notesBytes(p *audit.ValidationPayload) int {
	n := len(p.AdditionalNotes)
	for _, ans := range p.Answers {
		n += len(ans.Notes)
	}
	return n
}
