/*
Package cli provides helpers shared by the redactor commands.

Output formatting renders run reports and query results as text tables,
JSON or CSV:

	format, err := cli.ParseOutputFormat(flagOutput)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, report)

Long imports draw a progress bar on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "events")
	progress.Start(int64(len(records)))
	progress.Add(int64(len(batch)))
	progress.Finish()

Graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

ExitCode maps command errors to process exit codes.
*/
package cli
