// Crucible is a pre-clearance gate that flags filter-deference reasoning in
// analyst rationales and keeps an append-only evidentiary audit log.
//
// It provides:
//   - Phrase and regex detection of deference to filters, thresholds and policy
//   - Append-only audit logging of every analysis and validation session
//   - CSV and JSON Lines export of the audit log, on demand or on a schedule
//
// Usage:
//
//	# Analyze a rationale
//	crucible analyze --text "Closed per policy, below threshold."
//
//	# Analyze a rationale from a file with a custom configuration
//	crucible analyze --file rationale.txt --config crucible.yaml
//
//	# Record an expert validation session
//	crucible validate --file session.yaml
//
//	# Export the audit log
//	crucible audit export --output audit.csv
//
//	# Lint a pattern library, again on every save
//	crucible patterns lint --file patterns.yaml --watch
//
//	# Check the configured store and directories before a session
//	crucible doctor
package main

func main() {
	Execute()
}
