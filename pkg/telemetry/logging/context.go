package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// ScenarioKey is the context key for scenario identifiers.
	ScenarioKey contextKey = "scenario_id"

	// AnalystKey is the context key for analyst identifiers.
	AnalystKey contextKey = "analyst_id"

	// SessionKey is the context key for validation session identifiers.
	SessionKey contextKey = "session_id"
)

// WithScenario adds a scenario identifier to the context.
func WithScenario(ctx context.Context, scenario string) context.Context {
	return context.WithValue(ctx, ScenarioKey, scenario)
}

// GetScenario retrieves the scenario identifier from the context.
func GetScenario(ctx context.Context) string {
	if scenario, ok := ctx.Value(ScenarioKey).(string); ok {
		return scenario
	}
	return ""
}

// WithAnalyst adds an analyst identifier to the context.
func WithAnalyst(ctx context.Context, analyst string) context.Context {
	return context.WithValue(ctx, AnalystKey, analyst)
}

// GetAnalyst retrieves the analyst identifier from the context.
func GetAnalyst(ctx context.Context) string {
	if analyst, ok := ctx.Value(AnalystKey).(string); ok {
		return analyst
	}
	return ""
}

// WithSession adds a validation session identifier to the context.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSession retrieves the validation session identifier from the context.
func GetSession(ctx context.Context) string {
	if session, ok := ctx.Value(SessionKey).(string); ok {
		return session
	}
	return ""
}

// contextAttrs extracts the context's log fields, including the ids of the
// active span if one is recording.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if scenario := GetScenario(ctx); scenario != "" {
		attrs = append(attrs, slog.String(string(ScenarioKey), scenario))
	}
	if analyst := GetAnalyst(ctx); analyst != "" {
		attrs = append(attrs, slog.String(string(AnalystKey), analyst))
	}
	if session := GetSession(ctx); session != "" {
		attrs = append(attrs, slog.String(string(SessionKey), session))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return attrs
}

// contextHandler adds context fields to every record.
type contextHandler struct {
	slog.Handler
}

// Handle implements slog.Handler.
func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if attrs := contextAttrs(ctx); len(attrs) > 0 {
			r = r.Clone()
			r.AddAttrs(attrs...)
		}
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
