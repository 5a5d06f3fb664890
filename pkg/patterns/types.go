package patterns

import "regexp"

// Category groups rules for reporting. It never affects whether a rule counts.
type Category string

const (
	// CategoryFilterDeference covers deference to a system recommendation,
	// automated review or filter output.
	CategoryFilterDeference Category = "filter-deference"

	// CategoryThresholdDeference covers decisions justified by a fixed threshold.
	CategoryThresholdDeference Category = "threshold-deference"

	// CategoryPolicyDeference covers "per policy" style justifications.
	CategoryPolicyDeference Category = "policy-deference"

	// CategoryChecklistCompletion covers procedural box-ticking language.
	CategoryChecklistCompletion Category = "checklist-completion"

	// CategoryStandardPractice covers appeals to habit or house style.
	CategoryStandardPractice Category = "standard-practice"
)

// Categories lists every known category in reporting order.
var Categories = []Category{
	CategoryFilterDeference,
	CategoryThresholdDeference,
	CategoryPolicyDeference,
	CategoryChecklistCompletion,
	CategoryStandardPractice,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Kind selects how a rule's matcher is interpreted.
type Kind string

const (
	// KindPhrase matches the matcher text literally. This is the default.
	KindPhrase Kind = "phrase"

	// KindRegex compiles the matcher as an RE2 expression.
	KindRegex Kind = "regex"
)

// Rule is one named detection rule.
type Rule struct {
	// Name identifies the rule and is unique within a library.
	Name string `yaml:"name" json:"name"`

	// Matcher is the phrase or expression searched for in rationale text.
	Matcher string `yaml:"matcher" json:"matcher"`

	// Kind is "phrase" or "regex". Empty means phrase.
	Kind Kind `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Category is used when reporting matches.
	Category Category `yaml:"category" json:"category"`

	// Description is optional reviewer-facing text.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Library is an ordered, immutable sequence of rules.
type Library struct {
	version  string
	rules    []Rule
	compiled []CompiledRule
}

// CompiledRule pairs a rule with its case-insensitive expression.
type CompiledRule struct {
	Rule
	Expr *regexp.Regexp
}

// Version returns the library version string.
func (l *Library) Version() string {
	return l.version
}

// Len returns the number of rules.
func (l *Library) Len() int {
	return len(l.rules)
}

// Rules returns a copy of the rules in library order.
func (l *Library) Rules() []Rule {
	out := make([]Rule, len(l.rules))
	copy(out, l.rules)
	return out
}

// Compiled returns the compiled rules in library order. The returned slice
// must not be modified; *regexp.Regexp is safe for concurrent use.
func (l *Library) Compiled() []CompiledRule {
	return l.compiled
}

// Lookup returns the rule with the given name.
func (l *Library) Lookup(name string) (Rule, bool) {
	for _, r := range l.rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
