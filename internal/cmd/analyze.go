package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petrarca/sas-analyzer/internal/aggregator"
	"github.com/petrarca/sas-analyzer/internal/codestats"
	"github.com/petrarca/sas-analyzer/internal/config"
	"github.com/petrarca/sas-analyzer/internal/matchers"
	"github.com/petrarca/sas-analyzer/internal/progress"
	"github.com/petrarca/sas-analyzer/internal/report"
	"github.com/petrarca/sas-analyzer/internal/scanner"
	"github.com/petrarca/sas-analyzer/internal/store"
	"github.com/petrarca/sas-analyzer/internal/util"
)

var configPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path...]",
	Short: "Analyze SAS programs",
	Long: `Analyze reads SAS programs from directories, files or URLs and reports
blocks, datasets, procedures, macros, SQL queries and dataset lineage.

Directories are walked recursively; .sas files and extensionless files that
look like SAS are analyzed. Files and URLs named explicitly are analyzed
regardless of their extension.

Examples:
  sas-analyzer analyze /path/to/project
  sas-analyzer analyze jobs/load.sas -f text
  sas-analyzer analyze --aggregate datasets,lineage /path/to/project
  sas-analyzer analyze --aggregate all -f yaml -o summary.yaml .
  sas-analyzer analyze --exclude legacy --exclude "*_bak.sas" .
  sas-analyzer analyze --state runs.db /path/to/project
  sas-analyzer analyze --config analysis.yml`,
	Run: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()
	flags.StringVarP(&settings.OutputFile, "output", "o", settings.OutputFile, "Output file path, - for stdout (default: stdout)")
	flags.StringVarP(&settings.Format, "format", "f", settings.Format, "Output format: json, yaml, or text")
	flags.BoolVar(&settings.PrettyPrint, "pretty", settings.PrettyPrint, "Pretty print JSON output")
	flags.StringVar(&settings.Aggregate, "aggregate", settings.Aggregate, "Aggregate fields: "+strings.Join(aggregator.ValidFields, ",")+",all")
	flags.StringSliceVar(&settings.ExcludePatterns, "exclude", settings.ExcludePatterns, "Patterns to exclude (supports glob patterns, can be specified multiple times)")
	flags.IntVar(&settings.Jobs, "jobs", settings.Jobs, "Files analyzed concurrently (default: number of CPUs)")
	flags.StringVar(&settings.StatePath, "state", settings.StatePath, "SQLite database recording the run (default: disabled)")
	flags.StringVar(&configPath, "config", "", "Analysis config file (YAML or JSON) or inline JSON")
	flags.StringVar(&settings.RulesDir, "rules-dir", settings.RulesDir, "Directory with pattern tables overriding the built-in ones")
	flags.BoolVar(&settings.NoCodeStats, "no-code-stats", settings.NoCodeStats, "Disable code statistics (lines of code, comments, blanks, complexity)")
	flags.BoolVarP(&settings.Verbose, "verbose", "v", settings.Verbose, "Show progress on stderr")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := analyze(ctx, settings, args, configPath, cmd.Flags().Changed, logger)
	exitOnError(logger, "Analysis failed", err)

	if failed := result.Project.Metadata.FailedCount; failed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d file(s) could not be analyzed\n", failed)
	}

	err = OutputToFile(result, settings.Format, settings.OutputFile, settings.PrettyPrint)
	exitOnError(logger, "Failed to write output", err)
}

// analysisResult is a project, or its aggregate when fields were requested
type analysisResult struct {
	Project   *scanner.Project
	Aggregate *aggregator.AggregateOutput
}

func (r *analysisResult) ToJSON() interface{} {
	if r.Aggregate != nil {
		return r.Aggregate
	}
	return r.Project
}

func (r *analysisResult) ToText(rr *report.Renderer) {
	if r.Aggregate != nil {
		rr.Aggregate(r.Aggregate)
		return
	}
	rr.Project(r.Project)
}

// analyze runs one analysis. s is completed from the config file at
// configPath for every flag changed reports as unset.
func analyze(ctx context.Context, s *config.Settings, args []string, configPath string, changed func(string) bool, logger *slog.Logger) (*analysisResult, error) {
	cfgFile, err := config.LoadAnalysisConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfgFile.MergeWithSettings(s, changed)

	s.Format = util.NormalizeFormat(s.Format)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	for i, pattern := range s.ExcludePatterns {
		s.ExcludePatterns[i] = strings.TrimSpace(pattern)
	}

	paths := args
	if len(paths) == 0 {
		paths = cfgFile.GetPaths()
	}

	projectCfg := &config.ProjectConfig{}
	if root := projectRoot(paths); root != "" {
		if projectCfg, err = config.LoadConfig(root); err != nil {
			return nil, err
		}
	}
	merged := cfgFile.GetMergedConfig(projectCfg)

	tables, err := matchers.Load(s.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern tables: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Analyzing: %s\n", strings.Join(paths, ", "))
	logger.Debug("Initializing scanner",
		"paths", paths,
		"exclude_patterns", merged.MergeExcludes(s.ExcludePatterns),
		"jobs", s.Jobs,
		"code_stats", !s.NoCodeStats)

	sc := scanner.New(scanner.Options{
		Excludes:       s.ExcludePatterns,
		ConfigExcludes: merged.Exclude,
		Jobs:           s.Jobs,
		Tables:         tables,
		CodeStats:      codestats.NewAnalyzer(!s.NoCodeStats),
		Progress:       progress.New(s.Verbose, progress.NewSimpleHandler(os.Stderr)),
		Logger:         logger,
		Properties:     merged.Properties,
	})

	project, err := sc.ScanPaths(ctx, paths)
	if err != nil {
		return nil, err
	}

	if s.StatePath != "" {
		if err := recordRun(ctx, s.StatePath, project, logger); err != nil {
			return nil, fmt.Errorf("failed to record run in %s: %w", s.StatePath, err)
		}
	}

	result := &analysisResult{Project: project}
	if s.Aggregate != "" {
		logger.Debug("Aggregating output", "fields", s.Aggregate)
		fields, err := aggregator.ParseFields(s.Aggregate)
		if err != nil {
			return nil, err
		}
		result.Aggregate = aggregator.NewAggregator(fields).Aggregate(project)
	}
	return result, nil
}

// recordRun stores project as a new run and sets its run ID
func recordRun(ctx context.Context, path string, project *scanner.Project, logger *slog.Logger) error {
	st := store.NewSQLiteStore(logger)
	if err := st.Open(path); err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.InitSchema(ctx); err != nil {
		return err
	}

	meta := project.Metadata
	run, err := st.CreateRun(ctx, strings.Join(meta.Paths, ","), meta.ProjectID)
	if err != nil {
		return err
	}

	for i := range project.Files {
		file := &project.Files[i]
		err := st.SaveFile(ctx, run.ID, file)
		if errors.Is(err, store.ErrDuplicateFile) {
			logger.Warn("Skipping duplicate file", "path", file.Path, "fingerprint", file.Fingerprint)
			continue
		}
		if err != nil {
			_ = st.CompleteRun(ctx, run.ID, err.Error())
			return err
		}
	}

	if err := st.CompleteRun(ctx, run.ID, ""); err != nil {
		return err
	}
	meta.RunID = run.ID
	logger.Info("Run recorded", "run_id", run.ID, "state", path)
	return nil
}
