// Package session coordinates analysis submissions and expert validation
// sessions.
//
// A Coordinator ties the detection engine to the audit log:
//
//	SubmitRationale: analyze -> append analysis event -> return result
//	RecordValidation: validate -> compute outcome -> append validation event
//
// An analysis is never discarded because logging failed. When the append
// fails SubmitRationale returns the receipt, with its Result set, together
// with a *LoggingError that wraps the store's *audit.StorageError:
//
//	receipt, err := coord.SubmitRationale(ctx, &session.Submission{Rationale: &text})
//	var logErr *session.LoggingError
//	switch {
//	case errors.As(err, &logErr):
//	    // receipt.Result is valid; the evidence record was not written
//	case err != nil:
//	    // malformed submission, nothing was analyzed or written
//	}
//
// Nothing is retried. The coordinator holds no mutable state and is safe for
// concurrent use; appends are linearized by the store.
package session
