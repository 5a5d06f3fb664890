// Package logging builds the structured slog loggers used across the gate.
//
// # Overview
//
//   - JSON or text output via log/slog handlers
//   - Level parsing ("debug", "info", "warn", "error")
//   - Context fields (scenario, analyst, validation session) and the active
//     OpenTelemetry trace and span ids added to records logged with a context
//   - Free-text fields (rationales, reviewer notes) replaced by their length
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx = logging.WithScenario(ctx, "S-104")
//	logger.InfoContext(ctx, "rationale analyzed", "flagged", true)
//	// ... scenario_id=S-104 trace_id=... flagged=true
package logging
