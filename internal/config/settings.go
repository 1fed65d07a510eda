package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"log/slog"

	"github.com/petrarca/sas-analyzer/internal/aggregator"
	"github.com/petrarca/sas-analyzer/internal/util"
)

// envPrefix prefixes every environment override
const envPrefix = "SAS_ANALYZER_"

// Settings holds all analyzer configuration
type Settings struct {
	// Output settings
	OutputFile  string // empty or "-" writes to stdout
	Format      string // json, yaml or text
	PrettyPrint bool
	Aggregate   string

	// Analysis behavior
	ExcludePatterns []string
	Jobs            int    // concurrent analyses, 0 = number of CPUs
	StatePath       string // SQLite database recording runs, empty disables it
	RulesDir        string // external pattern tables
	NoCodeStats     bool   // Disable code statistics (enabled by default)
	Verbose         bool

	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	LogFile   string // Optional: write logs to file instead of stderr
}

// DefaultSettings returns default configuration
func DefaultSettings() *Settings {
	return &Settings{
		OutputFile:      "",
		Format:          "json",
		PrettyPrint:     true,
		Aggregate:       "",
		ExcludePatterns: []string{},
		Jobs:            0,
		StatePath:       "",
		RulesDir:        "",
		NoCodeStats:     false,
		Verbose:         false,
		LogLevel:        slog.LevelError, // only errors by default
		LogFormat:       "text",
		LogFile:         "", // Empty = stderr
	}
}

// LoadSettings creates settings from defaults and applies environment variable overrides
func LoadSettings() *Settings {
	settings := DefaultSettings()

	if outputFile := getenv("OUTPUT"); outputFile != "" {
		settings.OutputFile = outputFile
	}

	if format := getenv("FORMAT"); format != "" {
		settings.Format = util.NormalizeFormat(format)
	}

	if pretty := getenv("PRETTY"); pretty != "" {
		settings.PrettyPrint = strings.ToLower(pretty) == "true"
	}

	if excludePatterns := getenv("EXCLUDE"); excludePatterns != "" {
		settings.ExcludePatterns = splitList(excludePatterns)
	}

	if aggregate := getenv("AGGREGATE"); aggregate != "" {
		settings.Aggregate = aggregate
	}

	if jobs := getenv("JOBS"); jobs != "" {
		if n, err := strconv.Atoi(jobs); err == nil && n >= 0 {
			settings.Jobs = n
		}
	}

	if state := getenv("STATE"); state != "" {
		settings.StatePath = state
	}

	if rulesDir := getenv("RULES_DIR"); rulesDir != "" {
		settings.RulesDir = rulesDir
	}

	// Logging settings
	if logLevel := getenv("LOG_LEVEL"); logLevel != "" {
		if level, err := ParseLogLevel(logLevel); err == nil {
			settings.LogLevel = level
		}
	}

	if logFormat := getenv("LOG_FORMAT"); logFormat != "" {
		settings.LogFormat = logFormat
	}

	if logFile := getenv("LOG_FILE"); logFile != "" {
		settings.LogFile = logFile
	}

	if verbose := getenv("VERBOSE"); verbose != "" {
		settings.Verbose = strings.ToLower(verbose) == "true"
	}

	return settings
}

func getenv(name string) string {
	return os.Getenv(envPrefix + name)
}

// splitList splits a comma separated list, dropping empty entries
func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseLogLevel converts string log level to slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "fatal":
		return slog.LevelError, nil // slog doesn't have fatal, use error
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ConfigureLogger sets up the logger based on settings
func (s *Settings) ConfigureLogger() *slog.Logger {
	var handler slog.Handler

	// Set output destination
	var output io.Writer = os.Stderr
	if s.LogFile != "" {
		file, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stderr if file can't be opened
			fmt.Fprintf(os.Stderr, "Warning: Cannot open log file %s: %v\n", s.LogFile, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	opts := &slog.HandlerOptions{
		Level: s.LogLevel,
	}

	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Validate checks the settings for values the analyzer cannot work with
func (s *Settings) Validate() error {
	if err := util.ValidateOutputFormat(s.Format); err != nil {
		return err
	}
	if s.Jobs < 0 {
		return fmt.Errorf("invalid jobs: %d, must be 0 or more", s.Jobs)
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s. Valid formats are: text, json", s.LogFormat)
	}
	if s.Aggregate != "" {
		if _, err := aggregator.ParseFields(s.Aggregate); err != nil {
			return err
		}
	}
	if s.RulesDir != "" {
		info, err := os.Stat(s.RulesDir)
		if err != nil {
			return fmt.Errorf("rules directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("rules directory %s is not a directory", s.RulesDir)
		}
	}
	return nil
}
