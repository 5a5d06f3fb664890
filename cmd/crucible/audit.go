package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crucible-hq/crucible/pkg/audit"
	"crucible-hq/crucible/pkg/audit/export"
	"crucible-hq/crucible/pkg/audit/schedule"
	"crucible-hq/crucible/pkg/cli"
)

var auditFlags struct {
	eventType string
	since     string
	until     string
	limit     int
	recent    int
	format    string
	exportFmt string
	output    string
	once      bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and export the audit log",
	Long: `Inspect and export the append-only audit log.

The audit log records every analysis and every validation session. Events
are never edited or deleted; corrections are recorded as new events.

Subcommands:
  list      - List events
  export    - Export events as CSV or JSON Lines
  stats     - Show totals and the flag rate
  schedule  - Export snapshots on the configured cron schedule`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	Long: `List audit events oldest first, or the most recent events newest first
with --recent.

Time Format:
  RFC3339, for example 2025-03-14T09:30:00Z. --since is inclusive and
  --until is exclusive.

Examples:
  # Last 10 events
  crucible audit list --recent 10

  # Validation sessions in March as JSON
  crucible audit list --type validation_session \
    --since 2025-03-01T00:00:00Z --until 2025-04-01T00:00:00Z --format json`,
	RunE: runAuditList,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit events",
	Long: `Export audit events in listing order.

CSV output has a fixed header row and column order and can be opened in any
spreadsheet tool. JSON Lines output carries the complete event records.

Examples:
  # Export everything to CSV
  crucible audit export --output audit.csv

  # Export analyses only, as JSON Lines, to stdout
  crucible audit export --type analysis --format jsonl`,
	RunE: runAuditExport,
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show audit statistics",
	RunE:  runAuditStats,
}

var auditScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Export snapshots on a schedule",
	Long: `Write a timestamped export of the whole audit log to the configured
directory on the audit.export.schedule cron expression, until interrupted.

Examples:
  # Run the scheduler in the foreground
  crucible audit schedule --config crucible.yaml

  # Write a single snapshot now
  crucible audit schedule --once`,
	RunE: runAuditSchedule,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditExportCmd, auditStatsCmd, auditScheduleCmd)

	for _, c := range []*cobra.Command{auditListCmd, auditExportCmd} {
		c.Flags().StringVar(&auditFlags.eventType, "type", "", "event type: analysis, validation_session")
		c.Flags().StringVar(&auditFlags.since, "since", "", "only events created at or after this time (RFC3339)")
		c.Flags().StringVar(&auditFlags.until, "until", "", "only events created before this time (RFC3339)")
		c.Flags().IntVar(&auditFlags.limit, "limit", 0, "max events (0 for all)")
	}

	auditListCmd.Flags().IntVar(&auditFlags.recent, "recent", 0, "show the N most recent events, newest first")
	auditListCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json")

	auditExportCmd.Flags().StringVar(&auditFlags.exportFmt, "format", "", "export format: csv, jsonl (default from config)")
	auditExportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")

	auditStatsCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json")

	auditScheduleCmd.Flags().BoolVar(&auditFlags.once, "once", false, "write one snapshot and exit")
}

// buildFilter converts the filter flags.
func buildFilter() (*audit.Filter, error) {
	filter := &audit.Filter{
		Type:  audit.EventType(auditFlags.eventType),
		Limit: auditFlags.limit,
	}

	parse := func(flag, value string) (*time.Time, error) {
		if value == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, cli.NewConfigError(flag, fmt.Sprintf("invalid time: %v", err))
		}
		return &t, nil
	}

	var err error
	if filter.Since, err = parse("since", auditFlags.since); err != nil {
		return nil, err
	}
	if filter.Until, err = parse("until", auditFlags.until); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, cli.NewConfigError("filter", err.Error())
	}
	return filter, nil
}

// eventList is what audit list prints.
type eventList []*audit.Event

func (l eventList) String() string {
	if len(l) == 0 {
		return "No events."
	}
	var sb strings.Builder
	for i, ev := range l {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(summarizeEvent(ev))
	}
	return sb.String()
}

// summarizeEvent renders one event on one line without free text.
func summarizeEvent(ev *audit.Event) string {
	prefix := fmt.Sprintf("#%-6d %s  %-18s", ev.ID, ev.CreatedAt.Format(time.RFC3339), ev.Type)
	switch {
	case ev.Analysis != nil:
		p := ev.Analysis
		verdict := "clear"
		if p.Flagged {
			verdict = fmt.Sprintf("FLAGGED %s", strings.Join(p.RuleNames, ", "))
		}
		scenario := p.ScenarioID
		if scenario == "" {
			scenario = "-"
		}
		return fmt.Sprintf("%s  scenario=%s analyst=%s words=%d  %s", prefix, scenario, p.AnalystID, p.RationaleWords, verdict)
	case ev.Validation != nil:
		p := ev.Validation
		line := fmt.Sprintf("%s  validator=%s scenarios=%d  %s", prefix, p.ValidatorName, len(p.ScenariosReviewed), p.Outcome)
		if p.Supersedes != "" {
			line += " supersedes=" + p.Supersedes
		}
		return line
	default:
		return prefix
	}
}

func runAuditList(cmd *cobra.Command, args []string) (err error) {
	formatter, err := cli.NewFormatter(cli.OutputFormat(auditFlags.format))
	if err != nil {
		return err
	}
	filter, err := buildFilter()
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

	var events []*audit.Event
	if auditFlags.recent > 0 {
		events, err = audit.Recent(cmd.Context(), a.store, filter, auditFlags.recent)
	} else {
		events, err = audit.Collect(cmd.Context(), a.store, filter)
	}
	if err != nil {
		return cli.NewCommandError("audit list", err)
	}
	if events == nil {
		events = []*audit.Event{}
	}
	return formatter.FormatTo(cmd.OutOrStdout(), eventList(events))
}

func runAuditExport(cmd *cobra.Command, args []string) (err error) {
	filter, err := buildFilter()
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

	format := auditFlags.exportFmt
	if format == "" {
		format = a.cfg.Audit.Export.Format
	}
	exporter, ok := export.ForFormat(format)
	if !ok {
		return cli.NewConfigError("format", fmt.Sprintf("unsupported export format %q (supported: csv, jsonl)", format))
	}

	if auditFlags.output == "" {
		if _, err := export.Snapshot(cmd.Context(), a.store, filter, exporter, cmd.OutOrStdout()); err != nil {
			return cli.NewCommandError("audit export", err)
		}
		return nil
	}

	n, err := exportToFile(cmd, a.store, filter, exporter, auditFlags.output)
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d events to %s\n", n, auditFlags.output)
	return nil
}

// exportToFile writes the export next to path and renames it into place, so
// a failed export never leaves a truncated file behind.
func exportToFile(cmd *cobra.Command, store audit.Store, filter *audit.Filter, exporter export.Exporter, path string) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := export.Snapshot(cmd.Context(), store, filter, exporter, tmp)
	if err != nil {
		tmp.Close()
		return n, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return n, fmt.Errorf("failed to sync output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("failed to move output file into place: %w", err)
	}
	return n, nil
}

// statsOutput is what audit stats prints.
type statsOutput struct {
	*audit.Stats
}

func (s statsOutput) String() string {
	return fmt.Sprintf(`Analyses:           %d
Flagged:            %d (%.1f%%)
Validations:        %d
Validations passed: %d`,
		s.TotalAnalyses, s.TotalFlagged, s.FlagRatio*100, s.TotalValidations, s.ValidationsPassed)
}

func runAuditStats(cmd *cobra.Command, args []string) (err error) {
	formatter, err := cli.NewFormatter(cli.OutputFormat(auditFlags.format))
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

	stats, err := audit.ComputeStats(cmd.Context(), a.store)
	if err != nil {
		return cli.NewCommandError("audit stats", err)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), statsOutput{stats})
}

func runAuditSchedule(cmd *cobra.Command, args []string) (err error) {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	exportCfg := a.cfg.Audit.Export
	snapshotter, err := schedule.NewSnapshotter(a.store, &schedule.Config{
		Schedule:  exportCfg.Schedule,
		Directory: exportCfg.Directory,
		Format:    exportCfg.Format,
	})
	if err != nil {
		return cli.NewConfigError("audit.export", err.Error())
	}

	if auditFlags.once {
		path, n, err := snapshotter.Snapshot(cmd.Context())
		if err != nil {
			return cli.NewCommandError("audit schedule", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d events to %s\n", n, path)
		return nil
	}

	if exportCfg.Schedule == "" {
		return cli.NewConfigError("audit.export.schedule", "no schedule configured (use --once for a single snapshot)")
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	scheduler := schedule.NewScheduler(snapshotter)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("audit schedule", err)
	}
	if next := scheduler.NextRun(); next != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Next snapshot at %s (Ctrl+C to stop)\n", next.Format(time.RFC3339))
	}

	<-ctx.Done()
	scheduler.Stop()
	return nil
}
