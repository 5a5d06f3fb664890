// Package metrics provides Prometheus metrics for the Crucible gate.
//
// # Metrics
//
// With the default namespace "crucible" and subsystem "gate":
//
//   - crucible_gate_analyses_total{flagged}: rationales analyzed
//   - crucible_gate_rule_matches_total{rule,category}: matches per rule
//   - crucible_gate_analysis_duration_seconds: time spent analyzing
//   - crucible_gate_validations_total{outcome}: validation sessions recorded
//   - crucible_gate_audit_appends_total{event_type,result}: audit appends
//   - crucible_gate_audit_append_duration_seconds{event_type}: append latency
//
// The rule label is bounded by the size of the pattern library.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	collector.RecordAnalysis(result.Flagged, elapsed)
//
//	// At exit, dump in the Prometheus text exposition format.
//	if err := collector.WriteText(f); err != nil {
//	    log.Fatal(err)
//	}
//
// A nil *Collector is valid and records nothing.
package metrics
