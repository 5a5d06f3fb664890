// Package audit defines the append-only trail of analyses and validation
// sessions.
//
// # Events
//
// Every event carries a store-assigned ID, an event type, a store-assigned
// creation time and exactly one payload:
//
//   - EventTypeAnalysis with an AnalysisPayload: one rationale and its verdict.
//   - EventTypeValidationSession with a ValidationPayload: one expert review.
//
// # Guarantees
//
// A Store only appends. The interface has no update or delete operation and
// no backend implements one; corrections are recorded as new events that
// reference the superseded session.
//
// Append returns only after the event is durable. Concurrent appends are
// linearized: IDs are distinct and increase in append order, and creation
// times never decrease.
//
// List streams events ordered by creation time, ties broken by ID. Calling it
// again yields the same sequence until a new event is appended.
//
// # Limitation
//
// This is append-only logging for evidentiary purposes. It is NOT
// cryptographically immutable: anyone with write access to the underlying file
// or database can alter it out of band, and nothing here would detect that.
// It is not production compliance infrastructure.
//
// Backends live in the storage subpackage; CSV and JSON Lines exporters in
// export; scheduled snapshot exports in schedule.
package audit
