package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"crucible-hq/crucible/pkg/cli"
	"crucible-hq/crucible/pkg/detection"
	"crucible-hq/crucible/pkg/session"
)

var analyzeFlags struct {
	text       string
	file       string
	scenario   string
	analyst    string
	format     string
	failOnFlag bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a rationale for filter deference",
	Long: `Analyze one rationale against the pattern library and record the
analysis in the audit log.

The rationale is read from --text, from --file, or from standard input when
neither is given. The verdict is printed even if the audit log cannot be
written; in that case the command exits with status 3.

Examples:
  # Analyze inline text
  crucible analyze --text "Closed per policy, below threshold."

  # Analyze a file and tag it with a scenario
  crucible analyze --file rationale.txt --scenario SCN-004 --analyst a.smith

  # Use in a pipeline; exit status 4 when flagged
  cat rationale.txt | crucible analyze --fail-on-flag --format json`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFlags.text, "text", "t", "", "rationale text")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.file, "file", "f", "", "file containing the rationale (- for stdin)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.scenario, "scenario", "", "scenario id the rationale was written for")
	analyzeCmd.Flags().StringVar(&analyzeFlags.analyst, "analyst", "", "analyst id (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.format, "format", "text", "output format: text, json")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.failOnFlag, "fail-on-flag", false, "exit with status 4 when the rationale is flagged")
}

// analyzeOutput is what analyze prints.
type analyzeOutput struct {
	Result      *detection.Result `json:"result"`
	Explanation string            `json:"explanation"`
	EventID     int64             `json:"event_id,omitempty"`
	AuditError  string            `json:"audit_error,omitempty"`
}

func (o *analyzeOutput) String() string {
	var sb strings.Builder

	r := o.Result
	verdict := "CLEAR"
	if r.Flagged {
		verdict = "FLAGGED"
	}
	fmt.Fprintf(&sb, "Verdict: %s (%d matches, library %s)\n\n", verdict, r.MatchCount(), r.LibraryVersion)
	sb.WriteString(o.Explanation)
	sb.WriteString("\n")

	if r.Flagged {
		sb.WriteString("\nMatches:\n")
		for _, m := range r.Matches {
			fmt.Fprintf(&sb, "  [%d:%d] %s (%s): %q\n", m.Span.Start, m.Span.End, m.Rule, m.Category, m.Text)
		}
	}

	if o.AuditError != "" {
		fmt.Fprintf(&sb, "\n✗ Not recorded in audit log: %s", o.AuditError)
	} else {
		fmt.Fprintf(&sb, "\n✓ Recorded as audit event %d", o.EventID)
	}
	return sb.String()
}

func runAnalyze(cmd *cobra.Command, args []string) (err error) {
	formatter, err := cli.NewFormatter(cli.OutputFormat(analyzeFlags.format))
	if err != nil {
		return err
	}

	text, err := readRationale(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	receipt, subErr := a.coord.SubmitRationale(cmd.Context(), &session.Submission{
		Rationale:  &text,
		ScenarioID: analyzeFlags.scenario,
		AnalystID:  analyzeFlags.analyst,
	})

	var logErr *session.LoggingError
	if subErr != nil && !errors.As(subErr, &logErr) {
		return cli.NewCommandError("analyze", subErr)
	}

	out := &analyzeOutput{
		Result:      receipt.Result,
		Explanation: detection.Explain(receipt.Result),
		EventID:     receipt.EventID,
	}
	if logErr != nil {
		out.AuditError = logErr.Error()
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	switch {
	case logErr != nil:
		return cli.NewCommandError("analyze", logErr)
	case analyzeFlags.failOnFlag && receipt.Result.Flagged:
		return cli.ErrFlagged
	}
	return nil
}

// readRationale returns the rationale from --text, --file or stdin.
func readRationale(cmd *cobra.Command) (string, error) {
	textSet := cmd.Flags().Changed("text")
	if textSet && analyzeFlags.file != "" {
		return "", cli.NewConfigError("text", "--text and --file are mutually exclusive")
	}
	if textSet {
		return analyzeFlags.text, nil
	}

	var r io.Reader = cmd.InOrStdin()
	if analyzeFlags.file != "" && analyzeFlags.file != "-" {
		f, err := os.Open(analyzeFlags.file)
		if err != nil {
			return "", fmt.Errorf("failed to open rationale file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read rationale: %w", err)
	}
	return string(data), nil
}
