package metadata

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/petrarca/sas-analyzer/internal/git"
	"github.com/petrarca/sas-analyzer/internal/license"
)

// Output formats recorded in RunMetadata.Format
const (
	FormatFull       = "full"
	FormatAggregated = "aggregated"
)

// RunMetadata describes one analysis run
type RunMetadata struct {
	Format      string                 `json:"format" yaml:"format"`
	RunID       string                 `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	ProjectID   string                 `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Timestamp   string                 `json:"timestamp" yaml:"timestamp"`
	Paths       []string               `json:"paths" yaml:"paths"`
	SpecVersion string                 `json:"spec_version" yaml:"spec_version"`
	DurationMs  int64                  `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	FileCount   int                    `json:"file_count" yaml:"file_count"`
	FailedCount int                    `json:"failed_count,omitempty" yaml:"failed_count,omitempty"`
	LineCount   int                    `json:"line_count" yaml:"line_count"`
	Git         *git.GitInfo           `json:"git,omitempty" yaml:"git,omitempty"`
	Licenses    []license.Match        `json:"licenses,omitempty" yaml:"licenses,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// New creates run metadata for the given paths. Local paths are resolved to
// absolute paths, URLs are kept as given.
func New(paths []string, version string) *RunMetadata {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.Contains(p, "://") {
			abs = append(abs, p)
		} else if a, err := filepath.Abs(p); err == nil {
			abs = append(abs, a)
		} else {
			abs = append(abs, p)
		}
	}

	return &RunMetadata{
		Format:      FormatFull,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Paths:       abs,
		SpecVersion: version,
	}
}

// SetDuration sets the run duration in milliseconds
func (m *RunMetadata) SetDuration(duration time.Duration) {
	m.DurationMs = duration.Milliseconds()
}

// SetCounts sets the analyzed file, failed file and total line counts
func (m *RunMetadata) SetCounts(files, failed, lines int) {
	m.FileCount = files
	m.FailedCount = failed
	m.LineCount = lines
}

// SetProperties sets custom properties from configuration
func (m *RunMetadata) SetProperties(properties map[string]interface{}) {
	if len(properties) > 0 {
		m.Properties = properties
	}
}

// SetFormat sets the output format type
func (m *RunMetadata) SetFormat(format string) {
	m.Format = format
}
