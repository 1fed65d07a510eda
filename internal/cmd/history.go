package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petrarca/sas-analyzer/internal/report"
	"github.com/petrarca/sas-analyzer/internal/store"
)

// defaultStatePath is read by history when neither --state nor
// SAS_ANALYZER_STATE names a database
const defaultStatePath = "sas-analyzer.db"

var (
	historyFormat string
	historyState  string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show recorded analysis runs",
	Long: `History lists the runs recorded with analyze --state, newest first.
Given a file path, it lists every recorded analysis of that file instead.

Examples:
  sas-analyzer history --state runs.db
  sas-analyzer history --state runs.db --limit 5
  sas-analyzer history --state runs.db jobs/load.sas`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	setupFormatFlag(historyCmd, &historyFormat, "text")

	state := settings.StatePath
	if state == "" {
		state = defaultStatePath
	}
	historyCmd.Flags().StringVar(&historyState, "state", state, "SQLite database written by analyze --state")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list, 0 for all")
}

// RunsResult is the output of history without a path
type RunsResult struct {
	Runs []*store.Run `json:"runs" yaml:"runs"`
}

func (r *RunsResult) ToJSON() interface{} {
	return r
}

func (r *RunsResult) ToText(rr *report.Renderer) {
	rr.Runs(r.Runs)
}

// FileHistoryResult is the output of history for one file
type FileHistoryResult struct {
	Path    string             `json:"path" yaml:"path"`
	Records []store.FileRecord `json:"records" yaml:"records"`
}

func (r *FileHistoryResult) ToJSON() interface{} {
	return r
}

func (r *FileHistoryResult) ToText(rr *report.Renderer) {
	rr.History(r.Path, r.Records)
}

func runHistory(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)

	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	result, err := loadHistory(cmd.Context(), historyState, path, historyLimit)
	exitOnError(logger, "Failed to read history", err)
	exitOnError(logger, "Failed to write output", Output(result, historyFormat))
}

// loadHistory reads the runs, or the history of path when it is set
func loadHistory(ctx context.Context, statePath, path string, limit int) (Outputter, error) {
	if _, err := os.Stat(statePath); err != nil {
		return nil, fmt.Errorf("no state database at %s: %w", statePath, err)
	}

	st := store.NewSQLiteStore(nil)
	if err := st.Open(statePath); err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if err := st.InitSchema(ctx); err != nil {
		return nil, err
	}

	if path != "" {
		records, err := st.GetFileHistory(ctx, path)
		if err != nil {
			return nil, err
		}
		return &FileHistoryResult{Path: path, Records: records}, nil
	}

	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &RunsResult{Runs: runs}, nil
}
