package main

import (
	"os"

	"github.com/spf13/cobra"

	"privacyviz/redactor/pkg/cli"
)

var runFlags struct {
	dryRun      bool
	concurrency int
	output      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one redaction pass now",
	Long: `Run the redaction job once and print its report.

Every user's time and location policies are evaluated up to now and the
covered records are deleted from the event store.

Examples:
  # Delete redacted records
  redactor run

  # Count what would be deleted
  redactor run --dry-run

  # Process eight users at a time, report as JSON
  redactor run --concurrency 8 --output json`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "count records instead of deleting them")
	runCmd.Flags().IntVar(&runFlags.concurrency, "concurrency", 0, "override number of users processed in parallel")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "text", "output format (text, json, csv)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(runFlags.output)
	if err != nil {
		return err
	}
	if runFlags.concurrency < 0 {
		return cli.NewConfigError("concurrency", "must be at least 1")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.concurrency > 0 {
		cfg.Redaction.Concurrency = runFlags.concurrency
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.close()

	report, err := a.job(runFlags.dryRun || cfg.Redaction.DryRun).Run(ctx)
	if report != nil {
		if ferr := cli.NewFormatter(format).FormatTo(os.Stdout, report); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
