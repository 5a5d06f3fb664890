// Package patterns holds the versioned rule table used to recognise
// filter-deference language in analyst rationale.
//
// # Rules
//
// A rule names one phrase (or RE2 pattern) that indicates an analyst deferred
// to a filter, threshold, policy or checklist instead of exercising judgment:
//
//	version: fp01-v1
//	rules:
//	  - name: per policy
//	    matcher: per policy
//	    category: policy-deference
//	  - name: below threshold
//	    matcher: 'below (?:reporting )?threshold'
//	    kind: regex
//	    category: threshold-deference
//
// Phrase rules are matched literally, case-insensitively, with internal
// whitespace collapsed. They match anywhere in the text, including inside
// longer words. Regex rules are compiled case-insensitively as given.
// Category only controls how a match is reported; every rule counts equally
// toward the verdict.
//
// # Loading
//
// A library is loaded once at startup and never changes afterwards:
//
//	lib, err := patterns.LoadFile("patterns.yaml")
//	if err != nil {
//	    log.Fatal(err) // *patterns.ConfigError
//	}
//
// Default returns the built-in library compiled into the binary.
//
// Loading fails with a *ConfigError when two rules share a name, a matcher is
// empty, a regex does not compile, or a category or kind is unknown.
package patterns
