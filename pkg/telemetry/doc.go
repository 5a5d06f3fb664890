// Package telemetry groups Crucible's observability packages.
//
// # Components
//
//   - logging: slog construction, context fields and free-text redaction
//   - metrics: Prometheus counters and histograms, written as a text file
//   - tracing: OpenTelemetry spans, optionally written to a local file
//   - health: readiness checks behind the doctor command
//
// Nothing here listens on a port. Metrics and spans are files, so a gate
// run on an analyst's workstation leaves everything on that machine.
package telemetry
