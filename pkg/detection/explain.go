package detection

import (
	"fmt"
	"strings"
)

// maxExplainedContexts limits how many context snippets Explain prints.
const maxExplainedContexts = 3

// Explain renders a reviewer-facing explanation of a result.
func Explain(r *Result) string {
	if r == nil || !r.Flagged {
		return "No filter-deference detected. Rationale shows independent judgment."
	}

	names := r.RuleNames()

	var sb strings.Builder
	sb.WriteString("FILTER-DEFERENCE DETECTED\n\n")
	fmt.Fprintf(&sb, "Your rationale contains %d instance(s) of filter-deference language:\n\n", len(names))
	for i, name := range names {
		fmt.Fprintf(&sb, "%d. %q\n", i+1, name)
	}

	sb.WriteString("\nCONTEXT:\n")
	for i, m := range r.Matches {
		if i == maxExplainedContexts {
			break
		}
		fmt.Fprintf(&sb, "  - ...%s...\n", strings.Join(strings.Fields(m.Context), " "))
	}

	sb.WriteString("\nREGULATORY RISK:\n")
	sb.WriteString("This reasoning structure appears in FCA enforcement findings where reliance on filters replaced independent judgment.\n\n")
	sb.WriteString("Relevant cases: Nationwide (GBP 264.8M), Barclays (GBP 72M), Mako/Coinbase (GBP 3.5M+)\n\n")
	sb.WriteString("This language pattern indicates judgment may have been outsourced to procedural filters.")

	return sb.String()
}
