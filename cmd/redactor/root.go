package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"privacyviz/redactor/pkg/cli"
	"privacyviz/redactor/pkg/config"
	"privacyviz/redactor/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "redactor",
	Short: "Retroactive time and location redaction for the privacyviz event log",
	Long: `Redactor enforces the data-sharing settings privacyviz members choose per
data type:

  - time: records collected inside a daily wall-clock window are removed
  - location: records collected while the member dwelt near a place are removed
  - off: the data type is hidden entirely

A scheduled job deletes redacted records from the event store; the query
command hides records the job has not reached yet.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: defaults plus PRIVACYVIZ_* environment)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads the dotenv file, the configuration and installs the
// default logger. Commands that need configuration call it first.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NewConfigError("env-file", err.Error())
		}
	}

	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if _, err := logging.Setup(logging.ConfigFrom(cfg.Telemetry.Logging)); err != nil {
		return nil, cli.NewConfigError("log-level", err.Error())
	}

	slog.Debug("configuration loaded",
		"config_file", cfgFile,
		"backend", cfg.Storage.Backend,
		"policy_file", cfg.Storage.PolicyFile.Path,
	)

	return cfg, nil
}
