package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrarca/sas-analyzer/internal/config"
	"github.com/petrarca/sas-analyzer/internal/metadata"
)

const loadJob = `LIBNAME RAW '/data/raw';
DATA WORK.T1;
  SET RAW.SRC;
RUN;
PROC PRINT DATA=WORK.T1;
RUN;`

func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etl"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etl", "load.sas"), []byte(loadJob), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etl", "load_bak.sas"), []byte(loadJob+"\n* old;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ProjectConfigFile), []byte(`
properties:
  team: actuarial
exclude:
  - "*_bak.sas"
`), 0o644))
	return root
}

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.NoCodeStats = true
	return s
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAnalyze(t *testing.T) {
	root := setupProject(t)

	result, err := analyze(context.Background(), testSettings(), []string{root}, "", nil, discard())
	require.NoError(t, err)
	require.Nil(t, result.Aggregate)

	project := result.Project
	require.Len(t, project.Files, 1, "project config excludes the backup")
	assert.Equal(t, filepath.Join(root, "etl", "load.sas"), project.Files[0].Path)
	assert.Equal(t, "actuarial", project.Metadata.Properties["team"])
	assert.Equal(t, 6, project.Metadata.LineCount)
	assert.Empty(t, project.Metadata.RunID)
	assert.Same(t, project, result.ToJSON())
}

func TestAnalyzeExcludeFlag(t *testing.T) {
	root := setupProject(t)
	s := testSettings()
	s.ExcludePatterns = []string{" etl "}

	result, err := analyze(context.Background(), s, []string{root}, "", nil, discard())
	require.NoError(t, err)
	assert.Empty(t, result.Project.Files)
}

func TestAnalyzeAggregate(t *testing.T) {
	root := setupProject(t)
	s := testSettings()
	s.Aggregate = "datasets,procedures"

	result, err := analyze(context.Background(), s, []string{root}, "", nil, discard())
	require.NoError(t, err)
	require.NotNil(t, result.Aggregate)
	assert.Same(t, result.Aggregate, result.ToJSON())

	names := make([]string, 0)
	for _, d := range result.Aggregate.Datasets {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"RAW.SRC", "WORK.T1"}, names)
	assert.Equal(t, 1, result.Aggregate.Procedures["PRINT"])
	assert.Nil(t, result.Aggregate.Macros)
	assert.Equal(t, metadata.FormatAggregated, result.Aggregate.Metadata.Format)
}

func TestAnalyzeConfigFile(t *testing.T) {
	root := setupProject(t)
	inline := `{"analysis": {"paths": ["` + filepath.ToSlash(filepath.Join(root, "etl")) + `"], "output": {"aggregate": "macros", "format": "text"}, "options": {"jobs": 2}}}`
	s := testSettings()

	result, err := analyze(context.Background(), s, nil, inline, nil, discard())
	require.NoError(t, err)

	assert.Equal(t, "macros", s.Aggregate)
	assert.Equal(t, "text", s.Format)
	assert.Equal(t, 2, s.Jobs)
	require.NotNil(t, result.Aggregate)
	assert.Len(t, result.Project.Files, 2, "no project config below the analyzed path")
}

func TestAnalyzeConfigFlagsWin(t *testing.T) {
	root := setupProject(t)
	s := testSettings()
	s.Format = "yaml"

	_, err := analyze(context.Background(), s, []string{root}, `{"analysis": {"output": {"format": "text"}}}`,
		func(flag string) bool { return flag == "format" }, discard())
	require.NoError(t, err)
	assert.Equal(t, "yaml", s.Format)
}

func TestAnalyzeErrors(t *testing.T) {
	root := setupProject(t)

	tests := []struct {
		name    string
		modify  func(*config.Settings)
		args    []string
		config  string
		wantErr string
	}{
		{"missing path", nil, []string{filepath.Join(root, "nope")}, "", "source unavailable"},
		{"bad format", func(s *config.Settings) { s.Format = "xml" }, []string{root}, "", "invalid settings"},
		{"bad aggregate", func(s *config.Settings) { s.Aggregate = "owners" }, []string{root}, "", "invalid aggregate field"},
		{"bad config", nil, []string{root}, `{"scan": {}}`, "inline config"},
		{"missing rules dir", func(s *config.Settings) { s.RulesDir = filepath.Join(root, "tables") }, []string{root}, "", "rules directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			if tt.modify != nil {
				tt.modify(s)
			}
			_, err := analyze(context.Background(), s, tt.args, tt.config, nil, discard())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnalyzeRecordsRun(t *testing.T) {
	root := setupProject(t)
	statePath := filepath.Join(t.TempDir(), "runs.db")
	s := testSettings()
	s.StatePath = statePath

	first, err := analyze(context.Background(), s, []string{root}, "", nil, discard())
	require.NoError(t, err)
	require.NotEmpty(t, first.Project.Metadata.RunID)

	second, err := analyze(context.Background(), s, []string{root}, "", nil, discard())
	require.NoError(t, err)

	out, err := loadHistory(context.Background(), statePath, "", 10)
	require.NoError(t, err)
	runs := out.(*RunsResult).Runs
	require.Len(t, runs, 2)
	assert.Equal(t, second.Project.Metadata.RunID, runs[0].ID)
	assert.Equal(t, 1, runs[0].FileCount)
	assert.Equal(t, 6, runs[0].LineCount)
	assert.Equal(t, first.Project.Metadata.ProjectID, runs[1].ProjectID)

	out, err = loadHistory(context.Background(), statePath, filepath.Join(root, "etl", "load.sas"), 0)
	require.NoError(t, err)
	history := out.(*FileHistoryResult)
	require.Len(t, history.Records, 2)
	assert.Equal(t, 6, history.Records[0].TotalLines)
}

func TestAnalyzeDuplicateContentIsSkipped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.sas"), []byte(loadJob), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "copy.sas"), []byte(loadJob), 0o644))
	s := testSettings()
	s.StatePath = filepath.Join(t.TempDir(), "runs.db")

	result, err := analyze(context.Background(), s, []string{root}, "", nil, discard())
	require.NoError(t, err)
	assert.Len(t, result.Project.Files, 2, "the report keeps both files")

	out, err := loadHistory(context.Background(), s.StatePath, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*RunsResult).Runs[0].FileCount)
}

func TestLoadHistoryMissingDatabase(t *testing.T) {
	_, err := loadHistory(context.Background(), filepath.Join(t.TempDir(), "none.db"), "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no state database")
}
