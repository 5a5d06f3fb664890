/*
Package cli provides helpers shared by the crucible command.

Output Formatting:

Commands print either human-readable text or indented JSON:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Exit Codes:

ExitCode maps an error returned by a command to the process exit status, so
scripts can tell a rejected input from an unwritable audit log:

	0  success
	1  any other failure
	2  invalid configuration, pattern library or input
	3  the audit log could not be written (the analysis was still printed)
	4  a rationale was flagged and --fail-on-flag was set

Signal Handling:

For long-running commands such as scheduled exports:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
