// Package detection classifies analyst rationale against a pattern library
// and extracts the evidence behind each verdict.
//
// The engine is stateless and binary: a rationale is flagged if and only if at
// least one rule matches. There is no scoring and no partial state.
//
//	engine, err := detection.NewEngine(patterns.Default())
//	if err != nil {
//	    return err
//	}
//	result := engine.Analyze(rationale)
//	if result.Flagged {
//	    fmt.Println(detection.Explain(result))
//	}
//
// # Normalization and offsets
//
// Matching runs on a copy of the input with runs of whitespace collapsed to a
// single space and leading and trailing whitespace removed. Every reported
// Span and ContextSpan is translated back to byte offsets in the original
// input, so result.Input[m.Span.Start:m.Span.End] is always the text that
// triggered the rule, line breaks included.
//
// # Determinism
//
// Rules are evaluated independently in library order and each rule scans the
// text once. The same input and library always give the same matches in the
// same order; a rule that occurs several times contributes one match per
// occurrence, left to right. Results are safe to compare with reflect or cmp
// once the clock is fixed via WithClock.
package detection
