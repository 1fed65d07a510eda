package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Exclude, "missing file is an empty config")

	writeFile(t, dir, ProjectConfigFile, `
properties:
  team: actuarial
exclude:
  - legacy
  - "*_bak.sas"
`)
	cfg, err = LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "actuarial", cfg.Properties["team"])
	assert.Equal(t, []string{"legacy", "*_bak.sas"}, cfg.Exclude)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ProjectConfigFile, "exclude:\n  - /etc\n")

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ProjectConfigFile)
	assert.Contains(t, err.Error(), "does not match pattern")
}

func TestMergeExcludes(t *testing.T) {
	cfg := &ProjectConfig{Exclude: []string{"legacy", "tmp"}}

	assert.Equal(t, []string{"archive", "legacy", "tmp"}, cfg.MergeExcludes([]string{"tmp", "archive"}))

	var none *ProjectConfig
	assert.Equal(t, []string{"x"}, none.MergeExcludes([]string{"x"}))
}

func TestLoadAnalysisConfig_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "analysis.yml", `
analysis:
  paths: [etl, reports]
  output:
    file: out.yaml
    format: yaml
    pretty: false
    aggregate: datasets,lineage
  properties:
    team: actuarial
  exclude: [legacy]
  options:
    verbose: true
    jobs: 2
    state: runs.db
`)

	cfg, err := LoadAnalysisConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"etl", "reports"}, cfg.GetPaths())
	assert.Equal(t, "yaml", cfg.Analysis.Output.Format)
	require.NotNil(t, cfg.Analysis.Output.Pretty)
	assert.False(t, *cfg.Analysis.Output.Pretty)
	assert.Equal(t, 2, cfg.Analysis.Options.Jobs)
}

func TestLoadAnalysisConfig_JSONFileAndInline(t *testing.T) {
	doc := `{"analysis": {"paths": ["jobs"], "options": {"no_code_stats": true}}}`

	fromFile, err := LoadAnalysisConfig(writeFile(t, t.TempDir(), "analysis.json", doc))
	require.NoError(t, err)
	inline, err := LoadAnalysisConfig("  " + doc)
	require.NoError(t, err)

	assert.Equal(t, fromFile, inline)
	assert.Equal(t, []string{"jobs"}, inline.GetPaths())
	assert.True(t, inline.Analysis.Options.NoCodeStats)
}

func TestLoadAnalysisConfig_Errors(t *testing.T) {
	cfg, err := LoadAnalysisConfig("")
	assert.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = LoadAnalysisConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadAnalysisConfig(`{"analysis": {"output": {"format": "xml"}}}`)
	assert.ErrorContains(t, err, "inline config")

	_, err = LoadAnalysisConfig(`{"analysis": `)
	assert.ErrorContains(t, err, "failed to parse inline JSON config")

	bad := writeFile(t, t.TempDir(), "bad.yml", "scan:\n  paths: [.]\n")
	_, err = LoadAnalysisConfig(bad)
	assert.ErrorContains(t, err, "scan")
}

func TestMergeWithSettings(t *testing.T) {
	pretty := false
	cfg := &AnalysisConfigFile{Analysis: AnalysisSection{
		Output: OutputConfig{File: "out.json", Format: "yaml", Pretty: &pretty, Aggregate: "all"},
		Options: AnalysisOptions{
			Verbose:     true,
			NoCodeStats: true,
			Jobs:        3,
			State:       "runs.db",
			RulesDir:    "tables",
		},
	}}

	settings := DefaultSettings()
	cfg.MergeWithSettings(settings, nil)

	assert.Equal(t, "out.json", settings.OutputFile)
	assert.Equal(t, "yaml", settings.Format)
	assert.False(t, settings.PrettyPrint)
	assert.Equal(t, "all", settings.Aggregate)
	assert.True(t, settings.Verbose)
	assert.True(t, settings.NoCodeStats)
	assert.Equal(t, 3, settings.Jobs)
	assert.Equal(t, "runs.db", settings.StatePath)
	assert.Equal(t, "tables", settings.RulesDir)
}

func TestMergeWithSettings_FlagsWin(t *testing.T) {
	cfg := &AnalysisConfigFile{Analysis: AnalysisSection{
		Output:  OutputConfig{File: "out.json", Format: "yaml"},
		Options: AnalysisOptions{Jobs: 3},
	}}

	settings := DefaultSettings()
	settings.OutputFile = "-"
	settings.Jobs = 1
	changed := map[string]bool{"output": true, "jobs": true}
	cfg.MergeWithSettings(settings, func(flag string) bool { return changed[flag] })

	assert.Equal(t, "-", settings.OutputFile)
	assert.Equal(t, 1, settings.Jobs)
	assert.Equal(t, "yaml", settings.Format, "unchanged flags take the config value")

	var none *AnalysisConfigFile
	none.MergeWithSettings(settings, nil)
	assert.Equal(t, "-", settings.OutputFile)
}

func TestGetMergedConfig(t *testing.T) {
	cfg := &AnalysisConfigFile{Analysis: AnalysisSection{
		Properties: map[string]interface{}{"team": "it", "env": "prod"},
		Exclude:    []string{"legacy"},
	}}
	project := &ProjectConfig{
		Properties: map[string]interface{}{"team": "actuarial"},
		Exclude:    []string{"scratch"},
	}

	merged := cfg.GetMergedConfig(project)
	assert.Equal(t, map[string]interface{}{"team": "actuarial", "env": "prod"}, merged.Properties)
	assert.Equal(t, []string{"legacy", "scratch"}, merged.Exclude)

	var none *AnalysisConfigFile
	assert.Same(t, project, none.GetMergedConfig(project))
	assert.Equal(t, []string{"."}, none.GetPaths())
}
