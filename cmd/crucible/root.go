package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crucible-hq/crucible/pkg/cli"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	metricsOut string
)

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Crucible - filter-deference pre-clearance gate",
	Long: `Crucible checks analyst rationales for reasoning that defers to a filter,
threshold, policy or checklist instead of judging the case itself.

Every analysis and every expert validation session is written to an
append-only audit log that can be exported as CSV for review.

The audit log is append-only for evidentiary purposes. It is not
cryptographically immutable.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "write metrics in Prometheus text format to this file on exit")
}
