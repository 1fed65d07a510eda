package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petrarca/sas-analyzer/internal/validation"
)

// AnalysisConfigFile represents the external analysis configuration file
type AnalysisConfigFile struct {
	Analysis AnalysisSection `yaml:"analysis" json:"analysis"`
}

// AnalysisSection contains all analysis configuration options
type AnalysisSection struct {
	// What to analyze
	Paths []string `yaml:"paths,omitempty" json:"paths,omitempty"`

	Output OutputConfig `yaml:"output,omitempty" json:"output,omitempty"`

	// Same meaning as in .sas-analyzer.yml
	Properties map[string]interface{} `yaml:"properties,omitempty" json:"properties,omitempty"`
	Exclude    []string               `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	Options AnalysisOptions `yaml:"options,omitempty" json:"options,omitempty"`
}

// OutputConfig defines output settings
type OutputConfig struct {
	File      string `yaml:"file,omitempty" json:"file,omitempty"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty"`
	Pretty    *bool  `yaml:"pretty,omitempty" json:"pretty,omitempty"`
	Aggregate string `yaml:"aggregate,omitempty" json:"aggregate,omitempty"`
}

// AnalysisOptions defines analyzer behavior options
type AnalysisOptions struct {
	Verbose     bool   `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	NoCodeStats bool   `yaml:"no_code_stats,omitempty" json:"no_code_stats,omitempty"`
	Jobs        int    `yaml:"jobs,omitempty" json:"jobs,omitempty"`
	State       string `yaml:"state,omitempty" json:"state,omitempty"`
	RulesDir    string `yaml:"rules_dir,omitempty" json:"rules_dir,omitempty"`
}

// LoadAnalysisConfig loads analysis configuration from a file path or inline JSON
func LoadAnalysisConfig(configPath string) (*AnalysisConfigFile, error) {
	if configPath == "" {
		return nil, nil
	}

	if strings.HasPrefix(strings.TrimSpace(configPath), "{") {
		return loadAnalysisConfigFromJSON(configPath)
	}

	return loadAnalysisConfigFromFile(configPath)
}

// loadAnalysisConfigFromFile loads configuration from a YAML or JSON file
func loadAnalysisConfigFromFile(configPath string) (*AnalysisConfigFile, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAML is a superset of JSON, so one parse covers both for validation
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if err := validation.ValidateJSON(validation.AnalysisSchema, raw); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	var config AnalysisConfigFile

	// Try YAML first (most common)
	if err := yaml.Unmarshal(data, &config); err != nil {
		// Fallback to JSON
		if jsonErr := json.Unmarshal(data, &config); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse config as YAML (%v) or JSON (%v)", err, jsonErr)
		}
	}

	return &config, nil
}

// loadAnalysisConfigFromJSON loads configuration from an inline JSON string
func loadAnalysisConfigFromJSON(jsonStr string) (*AnalysisConfigFile, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse inline JSON config: %w", err)
	}
	if err := validation.ValidateJSON(validation.AnalysisSchema, raw); err != nil {
		return nil, fmt.Errorf("inline config: %w", err)
	}

	var config AnalysisConfigFile
	if err := json.Unmarshal([]byte(jsonStr), &config); err != nil {
		return nil, fmt.Errorf("failed to parse inline JSON config: %w", err)
	}
	return &config, nil
}

// MergeWithSettings copies config values into settings. changed reports
// whether a flag was set on the command line; those settings are kept.
// A nil changed treats every flag as unset.
func (c *AnalysisConfigFile) MergeWithSettings(settings *Settings, changed func(flag string) bool) {
	if c == nil || settings == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	out := c.Analysis.Output
	if out.File != "" && !changed("output") {
		settings.OutputFile = out.File
	}
	if out.Format != "" && !changed("format") {
		settings.Format = out.Format
	}
	if out.Pretty != nil && !changed("pretty") {
		settings.PrettyPrint = *out.Pretty
	}
	if out.Aggregate != "" && !changed("aggregate") {
		settings.Aggregate = out.Aggregate
	}

	opts := c.Analysis.Options
	if opts.Verbose && !changed("verbose") {
		settings.Verbose = true
	}
	if opts.NoCodeStats && !changed("no-code-stats") {
		settings.NoCodeStats = true
	}
	if opts.Jobs > 0 && !changed("jobs") {
		settings.Jobs = opts.Jobs
	}
	if opts.State != "" && !changed("state") {
		settings.StatePath = opts.State
	}
	if opts.RulesDir != "" && !changed("rules-dir") {
		settings.RulesDir = opts.RulesDir
	}

	// Exclude patterns are merged separately with the project config
}

// GetPaths returns the paths to analyze, defaulting to ["."] if not specified
func (c *AnalysisConfigFile) GetPaths() []string {
	if c == nil || len(c.Analysis.Paths) == 0 {
		return []string{"."}
	}
	return c.Analysis.Paths
}

// GetMergedConfig merges the analysis config with a project config.
// Project properties take precedence, excludes are combined.
func (c *AnalysisConfigFile) GetMergedConfig(projectConfig *ProjectConfig) *ProjectConfig {
	if c == nil {
		return projectConfig
	}

	merged := &ProjectConfig{
		Properties: make(map[string]interface{}),
		Exclude:    make([]string, 0),
	}

	for k, v := range c.Analysis.Properties {
		merged.Properties[k] = v
	}
	merged.Exclude = append(merged.Exclude, c.Analysis.Exclude...)

	if projectConfig != nil {
		for k, v := range projectConfig.Properties {
			merged.Properties[k] = v
		}
		merged.Exclude = append(merged.Exclude, projectConfig.Exclude...)
	}

	return merged
}
