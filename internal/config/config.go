package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/petrarca/sas-analyzer/internal/validation"
)

// ProjectConfigFile is the name of the per-project configuration file
const ProjectConfigFile = ".sas-analyzer.yml"

// ProjectConfig represents the .sas-analyzer.yml configuration file
type ProjectConfig struct {
	Properties map[string]interface{} `yaml:"properties,omitempty" json:"properties,omitempty"`
	Exclude    []string               `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// LoadConfig attempts to load .sas-analyzer.yml from the analysis root.
// A missing file yields an empty config, not an error.
func LoadConfig(root string) (*ProjectConfig, error) {
	configPath := filepath.Join(root, ProjectConfigFile)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &ProjectConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateYAML(validation.ProjectSchema, data); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	var config ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	return &config, nil
}

// MergeExcludes merges config excludes with CLI excludes, deduplicated and sorted
func (c *ProjectConfig) MergeExcludes(cliExcludes []string) []string {
	if c == nil {
		return cliExcludes
	}

	excludeMap := make(map[string]bool)
	for _, exclude := range c.Exclude {
		excludeMap[exclude] = true
	}
	for _, exclude := range cliExcludes {
		excludeMap[exclude] = true
	}

	result := make([]string, 0, len(excludeMap))
	for exclude := range excludeMap {
		result = append(result, exclude)
	}
	sort.Strings(result)

	return result
}
