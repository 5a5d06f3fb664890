// Package tracing provides OpenTelemetry tracing for the Crucible gate.
//
// # Overview
//
// The coordinator opens one span per analysis and per validation session.
// With tracing enabled, log records written through the logging package
// carry the active trace and span ids, so one analysis can be followed
// from its log lines to its audit event.
//
// # Exporters
//
// Crucible runs locally and never ships telemetry over the network. Two
// exporters are supported:
//   - none: spans are sampled and correlated in logs but not written
//   - file: each finished span is appended to a file as one JSON object
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: Sample all traces
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	coord := session.New(engine, store, session.WithTracer(tracer.Tracer()))
package tracing
