package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"crucible-hq/crucible/pkg/cli"
	"crucible-hq/crucible/pkg/patterns"
	"crucible-hq/crucible/pkg/patterns/watch"
)

var patternsFlags struct {
	files  []string
	dir    string
	strict bool
	watch  bool
	format string
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and validate pattern libraries",
	Long: `Inspect the active pattern library or validate library files.

Subcommands:
  list  - Print the rules of the configured library
  lint  - Validate library files before deploying them`,
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules of the configured pattern library",
	RunE:  runPatternsList,
}

var patternsLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate pattern library files",
	Long: `Validate pattern library files.

Errors make the library unloadable: duplicate or empty rule names, empty
matchers, invalid regular expressions, unknown categories or kinds.

Warnings flag rules whose phrase is also matched by another rule, so the
same words are reported twice.

Examples:
  # Lint one file
  crucible patterns lint --file patterns.yaml

  # Lint a directory, warnings as errors, JSON output for CI
  crucible patterns lint --dir libraries/ --strict --format json

  # Re-lint whenever a library file is saved
  crucible patterns lint --dir libraries/ --watch`,
	RunE: runPatternsLint,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.AddCommand(patternsListCmd, patternsLintCmd)

	patternsListCmd.Flags().StringVar(&patternsFlags.format, "format", "text", "output format: text, json")

	patternsLintCmd.Flags().StringSliceVarP(&patternsFlags.files, "file", "f", nil, "pattern library file to validate (repeatable)")
	patternsLintCmd.Flags().StringVarP(&patternsFlags.dir, "dir", "d", "", "directory of pattern library files")
	patternsLintCmd.Flags().BoolVar(&patternsFlags.strict, "strict", false, "treat warnings as errors")
	patternsLintCmd.Flags().BoolVarP(&patternsFlags.watch, "watch", "w", false, "re-lint on every change until interrupted")
	patternsLintCmd.Flags().StringVar(&patternsFlags.format, "format", "text", "output format: text, json")
}

// ruleList is what patterns list prints.
type ruleList struct {
	Version string          `json:"version"`
	Rules   []patterns.Rule `json:"rules"`
}

func (l ruleList) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pattern library %s (%d rules)\n", l.Version, len(l.Rules))
	for _, r := range l.Rules {
		kind := r.Kind
		if kind == "" {
			kind = patterns.KindPhrase
		}
		fmt.Fprintf(&sb, "\n  %-36s %-22s %-6s %s", r.Name, r.Category, kind, r.Matcher)
	}
	return sb.String()
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(patternsFlags.format))
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	library, err := loadLibrary(cfg)
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), ruleList{Version: library.Version(), Rules: library.Rules()})
}

// LintResult is the lint outcome for one library file.
type LintResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Version  string   `json:"version,omitempty"`
	Rules    int      `json:"rules"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// lintReport is what patterns lint prints.
type lintReport []LintResult

func (r lintReport) String() string {
	var sb strings.Builder
	totalErrors, totalWarnings := r.totals()

	for _, result := range r {
		fmt.Fprintf(&sb, "Validating %s...\n", result.File)
		if result.Valid {
			fmt.Fprintf(&sb, "✓ %d rules loaded (version %s)\n", result.Rules, result.Version)
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(&sb, "✗ Error: %s\n", msg)
		}
		for _, msg := range result.Warnings {
			fmt.Fprintf(&sb, "⚠  Warning: %s\n", msg)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  %d error(s), %d warning(s)", totalErrors, totalWarnings)
	return sb.String()
}

func (r lintReport) totals() (errs, warnings int) {
	for _, result := range r {
		errs += len(result.Errors)
		warnings += len(result.Warnings)
	}
	return errs, warnings
}

func runPatternsLint(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(patternsFlags.format))
	if err != nil {
		return err
	}

	files, err := lintTargets()
	if err != nil {
		return err
	}
	if len(files) == 0 && !patternsFlags.watch {
		return cli.NewConfigError("file", "either --file or --dir must be specified")
	}

	lintErr := lintAndReport(cmd.OutOrStdout(), formatter, files)
	if !patternsFlags.watch {
		return lintErr
	}
	return watchAndLint(cmd, formatter)
}

// lintTargets lists the --file arguments followed by the library files
// currently in --dir.
func lintTargets() ([]string, error) {
	files := append([]string(nil), patternsFlags.files...)
	if patternsFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(patternsFlags.dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to list pattern files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

// lintAndReport lints files, prints the report and returns a
// *patterns.ConfigError if the lint failed.
func lintAndReport(w io.Writer, formatter cli.Formatter, files []string) error {
	report := make(lintReport, 0, len(files))
	for _, file := range files {
		report = append(report, lintFile(file))
	}
	if err := formatter.FormatTo(w, report); err != nil {
		return err
	}

	totalErrors, totalWarnings := report.totals()
	if totalErrors > 0 || (patternsFlags.strict && totalWarnings > 0) {
		return &patterns.ConfigError{
			Source:  strings.Join(files, ", "),
			Index:   -1,
			Message: fmt.Sprintf("lint failed with %d error(s), %d warning(s)", totalErrors, totalWarnings),
		}
	}
	return nil
}

// watchAndLint re-lints after every change until interrupted. Lint
// failures are printed, not returned.
func watchAndLint(cmd *cobra.Command, formatter cli.Formatter) error {
	paths := append([]string(nil), patternsFlags.files...)
	if patternsFlags.dir != "" {
		paths = append(paths, patternsFlags.dir)
	}
	if len(paths) == 0 {
		return cli.NewConfigError("file", "either --file or --dir must be specified")
	}

	w, err := watch.New(watch.Config{Paths: paths}, nil)
	if err != nil {
		return cli.NewCommandError("patterns lint", err)
	}
	defer w.Close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", strings.Join(paths, ", "))
	return w.Run(ctx, func(changed string) {
		fmt.Fprintf(out, "\n--- %s changed ---\n", changed)
		files, err := lintTargets()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		_ = lintAndReport(out, formatter, files)
	})
}

// lintFile loads one library and checks it for overlapping rules.
func lintFile(path string) LintResult {
	result := LintResult{File: path}

	library, err := patterns.LoadFile(path)
	if err != nil {
		var cfgErr *patterns.ConfigError
		if errors.As(err, &cfgErr) {
			result.Errors = append(result.Errors, cfgErr.Error())
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return result
	}

	result.Valid = true
	result.Version = library.Version()
	result.Rules = library.Len()
	result.Warnings = overlapWarnings(library)
	return result
}

// overlapWarnings reports phrase rules whose text another rule also matches.
func overlapWarnings(library *patterns.Library) []string {
	var warnings []string
	compiled := library.Compiled()
	for _, rule := range compiled {
		if rule.Kind == patterns.KindRegex {
			continue
		}
		for _, other := range compiled {
			if other.Name == rule.Name {
				continue
			}
			if other.Expr.MatchString(rule.Matcher) {
				warnings = append(warnings, fmt.Sprintf("rule %q also matches the phrase of rule %q", other.Name, rule.Name))
			}
		}
	}
	return warnings
}
