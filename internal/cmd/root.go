package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petrarca/sas-analyzer/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "sas-analyzer",
	Short: "Static analyzer for SAS programs",
	Long: `SAS Analyzer reads SAS source files and reports their structure: step and
macro blocks, datasets created and used, procedures, macros, SQL queries,
libraries, includes and the dataset lineage connecting them.

Results are written as JSON, YAML or a text report, optionally aggregated
across a whole project and recorded in a SQLite database for history.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// settings holds defaults and environment overrides; flags write into it
var settings = config.LoadSettings()

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", settings.LogLevel.String(), "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", settings.LogFormat, "Log format: text or json")
	rootCmd.PersistentFlags().String("log-file", settings.LogFile, "Log file path (default: stderr)")
}

// configureLogging sets up logging based on command flags
func configureLogging(cmd *cobra.Command) *slog.Logger {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	logFile, _ := cmd.Flags().GetString("log-file")

	if level, err := config.ParseLogLevel(logLevel); err == nil {
		settings.LogLevel = level
	}
	settings.LogFormat = logFormat
	settings.LogFile = logFile

	return settings.ConfigureLogger()
}

// exitOnError logs err and terminates the process
func exitOnError(logger *slog.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logger.Error(msg, "error", err)
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
