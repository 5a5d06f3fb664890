package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crucible-hq/crucible/pkg/cli"
	"crucible-hq/crucible/pkg/telemetry/health"
)

var doctorFlags struct {
	timeout time.Duration
	format  string
}

var errNotReady = errors.New("one or more checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured components are usable",
	Long: `Run readiness checks against the configured deployment.

Checks:
  pattern_library  every phrase rule fires on its own phrase
  audit_store      the audit log can be opened and read
  export_dir       the export directory is writable
  span_dir         the span file directory is writable (file exporter only)
  metrics_dir      the metrics file directory is writable (if configured)

Exits 1 if any check fails.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().DurationVar(&doctorFlags.timeout, "timeout", 5*time.Second, "per-check timeout")
	doctorCmd.Flags().StringVar(&doctorFlags.format, "format", "text", "output format: text, json")
}

// doctorOutput is what doctor prints.
type doctorOutput struct {
	*health.Report
}

func (o doctorOutput) String() string {
	var sb strings.Builder
	for _, c := range o.Checks {
		mark := "✓"
		if c.Status != health.StatusOK {
			mark = "✗"
		}
		fmt.Fprintf(&sb, "%s %-16s %s", mark, c.Name, c.Duration.Round(time.Microsecond))
		if c.Message != "" {
			fmt.Fprintf(&sb, "  %s", c.Message)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nStatus: %s", o.Status)
	return sb.String()
}

func runDoctor(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(doctorFlags.format))
	if err != nil {
		return err
	}

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	checker := health.New(doctorFlags.timeout)
	checker.Register("pattern_library", health.LibraryCheck(a.engine))
	checker.Register("audit_store", health.StoreCheck(a.store))
	checker.Register("export_dir", health.DirectoryCheck(a.cfg.Audit.Export.Directory))
	if tr := a.cfg.Telemetry.Tracing; tr.Enabled && tr.Exporter == "file" {
		checker.Register("span_dir", health.FileDirCheck(tr.FilePath))
	}
	if path := a.cfg.Telemetry.Metrics.OutputPath; path != "" {
		checker.Register("metrics_dir", health.FileDirCheck(path))
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	report := checker.Run(ctx)
	a.logger.Debug("doctor finished", "status", report.Status, "checks", len(report.Checks))

	if err := formatter.FormatTo(cmd.OutOrStdout(), doctorOutput{report}); err != nil {
		return err
	}
	if !report.Ready() {
		return cli.NewCommandError("doctor", errNotReady)
	}
	return nil
}
