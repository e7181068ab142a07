package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"privacyviz/redactor/pkg/cli"
	"privacyviz/redactor/pkg/config"
	"privacyviz/redactor/pkg/redaction/retention"
	"privacyviz/redactor/pkg/server"
	"privacyviz/redactor/pkg/telemetry/health"
)

var serveFlags struct {
	listenAddress   string
	runOnStart      bool
	shutdownTimeout time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the redaction job on its schedule",
	Long: `Run the redaction job on the configured cron schedule and serve the
metrics and health endpoints until interrupted.

Examples:
  # Start with default config
  redactor serve

  # Start with custom config
  redactor serve --config /etc/redactor/config.yaml

  # Run once immediately, then on schedule
  redactor serve --run-on-start`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override metrics and health listen address")
	serveCmd.Flags().BoolVar(&serveFlags.runOnStart, "run-on-start", false, "run the job once before waiting for the schedule")
	serveCmd.Flags().DurationVar(&serveFlags.shutdownTimeout, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Telemetry.Metrics.ListenAddress = serveFlags.listenAddress
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer a.close()

	printBanner(cfg)

	checker := health.New(5 * time.Second)
	checker.RegisterCheck("storage", health.PingCheck(a.store))

	job := a.job(cfg.Redaction.DryRun)

	var scheduler *retention.Scheduler
	if cfg.Schedule.Enabled {
		scheduler, err = retention.NewScheduler(job)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer scheduler.Stop()

		checker.RegisterCheck("last_run", health.LastRunCheck(scheduler))
		if next := scheduler.NextRun(); next != nil {
			fmt.Printf("✓ Next run at %s\n", next.Format(time.RFC3339))
		}
	} else {
		slog.Warn("schedule disabled, job runs only with --run-on-start")
	}

	if a.policyFile != nil && cfg.Storage.PolicyFile.Watch {
		go func() {
			if err := a.policyFile.Watch(ctx); err != nil {
				slog.Error("policy file watcher stopped", "error", err)
			}
		}()
		fmt.Printf("✓ Watching %s\n", cfg.Storage.PolicyFile.Path)
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		metricsHandler = a.metrics.Handler()
	}
	srv := server.NewServer(&server.Config{
		ListenAddress:   cfg.Telemetry.Metrics.ListenAddress,
		MetricsPath:     cfg.Telemetry.Metrics.Path,
		ShutdownTimeout: serveFlags.shutdownTimeout,
	}, checker, metricsHandler)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()
	fmt.Printf("✓ Health endpoints on http://%s/health\n", cfg.Telemetry.Metrics.ListenAddress)

	if serveFlags.runOnStart {
		report, err := job.Run(ctx)
		if err != nil {
			slog.Error("startup redaction failed", "error", err)
		} else {
			slog.Info("startup redaction completed",
				"run_id", report.RunID,
				"total_deleted", report.TotalDeleted,
			)
		}
	}

	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case <-ctx.Done():
		fmt.Println("\nShutting down gracefully...")
		if err := <-serverErr; err != nil {
			return cli.NewCommandError("serve", err)
		}
	case err := <-serverErr:
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
	}

	slog.Info("server stopped gracefully")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Println("Redactor")
	fmt.Printf("Version: %s\n", Version)
	fmt.Println()
	fmt.Printf("✓ Configuration loaded (backend %s)\n", cfg.Storage.Backend)
	fmt.Printf("✓ Timezone offset %+d h, dwell gap %s\n", cfg.Redaction.TimezoneOffsetHours, cfg.Redaction.DwellGapThreshold)
	if cfg.Schedule.Enabled {
		fmt.Printf("✓ Schedule %q (%s)\n", cfg.Schedule.Cron, cfg.Schedule.Timezone)
	}
	if cfg.Redaction.DryRun {
		fmt.Println("✓ Dry run: records are counted, not deleted")
	}
}
