package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"crucible-hq/crucible/pkg/audit"
	"crucible-hq/crucible/pkg/cli"
	"crucible-hq/crucible/pkg/session"
)

var validateFlags struct {
	file      string
	format    string
	questions bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Record an expert validation session",
	Long: `Record an expert validation session in the audit log.

The session is read from a YAML file (or stdin with --file -):

  validator: Head of QA
  scenarios: [SCN-001, SCN-002, SCN-004]
  positive_cases: 3
  negative_cases: 2
  answers:
    detects_deference: {option: "Yes"}
    clean_not_flagged: {option: "Yes"}
    explanations_clear: {option: "No", notes: "context too short"}
    fit_for_pilot: {option: "Yes"}
  additional_notes: Reviewed with the MLRO.
  supersedes: ""   # session id of an earlier session this one corrects

Every configured question must be answered with one of its options. The
outcome is PASSED when every answer is the question's passing option and
PARTIAL otherwise. Past sessions are never edited; record a new session
with supersedes set instead.

Examples:
  # Show the questions and their options
  crucible validate --questions

  # Record a session
  crucible validate --file session.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.file, "file", "f", "", "validation session YAML file (- for stdin)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.Flags().BoolVar(&validateFlags.questions, "questions", false, "print the validation questions and exit")
}

// validationInput is the YAML form of a validation session.
type validationInput struct {
	Validator       string                 `yaml:"validator"`
	Scenarios       []string               `yaml:"scenarios"`
	PositiveCases   int                    `yaml:"positive_cases"`
	NegativeCases   int                    `yaml:"negative_cases"`
	Answers         map[string]answerInput `yaml:"answers"`
	AdditionalNotes string                 `yaml:"additional_notes"`
	Supersedes      string                 `yaml:"supersedes"`
}

type answerInput struct {
	Option string `yaml:"option"`
	Notes  string `yaml:"notes"`
}

func (in *validationInput) session() *session.ValidationSession {
	vs := &session.ValidationSession{
		ValidatorName:     in.Validator,
		ScenariosReviewed: in.Scenarios,
		Answers:           make(map[string]audit.Answer, len(in.Answers)),
		AdditionalNotes:   in.AdditionalNotes,
		PositiveCases:     in.PositiveCases,
		NegativeCases:     in.NegativeCases,
		Supersedes:        in.Supersedes,
	}
	for id, ans := range in.Answers {
		vs.Answers[id] = audit.Answer{Option: ans.Option, Notes: ans.Notes}
	}
	return vs
}

// parseValidationInput decodes a session document, rejecting unknown keys.
func parseValidationInput(r io.Reader) (*validationInput, error) {
	var in validationInput
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, cli.NewConfigError("file", "validation session is empty")
		}
		return nil, cli.NewConfigError("file", fmt.Sprintf("failed to parse validation session: %v", err))
	}
	return &in, nil
}

// questionList is what --questions prints.
type questionList []session.Question

func (l questionList) String() string {
	var sb strings.Builder
	for i, q := range l {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\n  %s\n  options: %s (pass: %s)\n", q.ID, q.Prompt, strings.Join(q.Options, ", "), q.PassOption)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// validationOutput is what validate prints after recording a session.
type validationOutput struct {
	EventID int64 `json:"event_id"`
}

func (o validationOutput) String() string {
	return fmt.Sprintf("✓ Validation session recorded as audit event %d", o.EventID)
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	formatter, err := cli.NewFormatter(cli.OutputFormat(validateFlags.format))
	if err != nil {
		return err
	}
	if !validateFlags.questions && validateFlags.file == "" {
		return cli.NewConfigError("file", "either --file or --questions must be specified")
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

	if validateFlags.questions {
		return formatter.FormatTo(cmd.OutOrStdout(), questionList(a.coord.Questions().Questions()))
	}

	var r io.Reader = cmd.InOrStdin()
	if validateFlags.file != "-" {
		f, err := os.Open(validateFlags.file)
		if err != nil {
			return fmt.Errorf("failed to open validation session: %w", err)
		}
		defer f.Close()
		r = f
	}

	in, err := parseValidationInput(r)
	if err != nil {
		return err
	}

	id, err := a.coord.RecordValidation(cmd.Context(), in.session())
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), validationOutput{EventID: id})
}
