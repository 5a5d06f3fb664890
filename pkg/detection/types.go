package detection

import (
	"time"

	"crucible-hq/crucible/pkg/patterns"
)

// Span is a half-open byte range [Start, End) into the original input.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Match is one occurrence of one rule.
type Match struct {
	// Rule is the matching rule's name.
	Rule string `json:"rule"`

	// Category is the rule's reporting category.
	Category patterns.Category `json:"category"`

	// Span locates the matched text in the original input.
	Span Span `json:"span"`

	// Text is the original input at Span, whitespace untouched.
	Text string `json:"text"`

	// Context is a window of surrounding words from the original input.
	Context string `json:"context"`

	// ContextSpan locates Context in the original input.
	ContextSpan Span `json:"context_span"`
}

// Result is the verdict for one rationale.
type Result struct {
	// Input is the rationale exactly as submitted.
	Input string `json:"input"`

	// Flagged is true iff Matches is non-empty.
	Flagged bool `json:"flagged"`

	// Matches lists every occurrence, grouped by rule in library order and
	// left to right within a rule. Never nil.
	Matches []Match `json:"matches"`

	// LibraryVersion identifies the rule table used.
	LibraryVersion string `json:"library_version"`

	// Timestamp is when the analysis ran.
	Timestamp time.Time `json:"timestamp"`
}

// MatchCount returns the number of occurrences found.
func (r *Result) MatchCount() int {
	return len(r.Matches)
}

// RuleNames returns the distinct matching rule names in first-seen order.
func (r *Result) RuleNames() []string {
	names := make([]string, 0, len(r.Matches))
	seen := make(map[string]bool, len(r.Matches))
	for _, m := range r.Matches {
		if !seen[m.Rule] {
			seen[m.Rule] = true
			names = append(names, m.Rule)
		}
	}
	return names
}

// Categories returns the distinct categories of the matches in first-seen
// order.
func (r *Result) Categories() []patterns.Category {
	cats := make([]patterns.Category, 0, len(patterns.Categories))
	seen := make(map[patterns.Category]bool, len(patterns.Categories))
	for _, m := range r.Matches {
		if !seen[m.Category] {
			seen[m.Category] = true
			cats = append(cats, m.Category)
		}
	}
	return cats
}

// HasRule reports whether any match came from the named rule.
func (r *Result) HasRule(name string) bool {
	for _, m := range r.Matches {
		if m.Rule == name {
			return true
		}
	}
	return false
}
