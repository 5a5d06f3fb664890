// Package export writes audit events in CSV and JSON Lines form.
//
// # CSV Schema
//
// The CSV exporter writes one header row followed by one row per event, in
// listing order. Columns are fixed and always present; columns that do not
// apply to an event's type are empty.
//
//	column              applies to   format
//	event_id            all          integer
//	event_type          all          "analysis" or "validation_session"
//	created_at          all          RFC 3339 with nanoseconds, UTC
//	scenario_id         analysis     text
//	analyst_id          analysis     text
//	rationale           analysis     text, verbatim
//	flagged             analysis     "true" or "false"
//	match_count         analysis     integer
//	matched_rules       analysis     JSON array of distinct rule names
//	matched_categories  analysis     JSON array of distinct categories
//	library_version     analysis     text
//	validator_name      validation   text
//	session_id          validation   UUID
//	scenarios_reviewed  validation   JSON array
//	answers             validation   JSON object keyed by question id
//	additional_notes    validation   text
//	positive_cases      validation   integer
//	negative_cases      validation   integer
//	outcome             validation   "PASSED" or "PARTIAL"
//	supersedes          validation   UUID of a corrected session, or empty
//
// Quoting follows RFC 4180: fields containing commas, double quotes or line
// breaks are quoted, and embedded quotes are doubled.
//
// # JSON Lines
//
// The JSONL exporter writes each event as one JSON object per line, using the
// same encoding as audit.Event.
//
// # Usage
//
//	n, err := export.Snapshot(ctx, store, nil, export.NewCSVExporter(true), f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("exported %d events", n)
package export
