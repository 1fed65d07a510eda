// Package codestats provides physical line statistics (code, comments, blanks, complexity)
package codestats

import (
	"math"
	"sort"
	"sync"

	"github.com/go-enry/go-enry/v2"

	"github.com/petrarca/sas-analyzer/internal/types"
)

// round2 rounds a float to 2 decimal places
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Stats holds code statistics for a file, a language or the total
type Stats struct {
	Lines      int64 `json:"lines" yaml:"lines"`
	Code       int64 `json:"code" yaml:"code"`
	Comments   int64 `json:"comments" yaml:"comments"`
	Blanks     int64 `json:"blanks" yaml:"blanks"`
	Complexity int64 `json:"complexity" yaml:"complexity"`
	Files      int   `json:"files" yaml:"files"`
}

func (s *Stats) add(o Stats) {
	s.Lines += o.Lines
	s.Code += o.Code
	s.Comments += o.Comments
	s.Blanks += o.Blanks
	s.Complexity += o.Complexity
	s.Files += o.Files
}

// LanguageStats holds stats for a specific language
type LanguageStats struct {
	Language string `json:"language" yaml:"language"`
	Type     string `json:"type" yaml:"type"`
	Stats           `yaml:",inline"`
}

// Metrics holds derived code metrics
type Metrics struct {
	CommentRatio      float64 `json:"comment_ratio" yaml:"comment_ratio"`             // comments / code
	CodeDensity       float64 `json:"code_density" yaml:"code_density"`               // code / lines
	AvgFileSize       float64 `json:"avg_file_size" yaml:"avg_file_size"`             // lines / files
	ComplexityPerKLOC float64 `json:"complexity_per_kloc" yaml:"complexity_per_kloc"` // complexity / (code / 1000)
	AvgComplexity     float64 `json:"avg_complexity" yaml:"avg_complexity"`           // complexity / files
}

// CodeStats holds aggregated code statistics. Files scc has no counter for
// are only counted in Unanalyzed.
type CodeStats struct {
	Total      Stats           `json:"total" yaml:"total"`
	Metrics    Metrics         `json:"metrics" yaml:"metrics"`
	ByLanguage []LanguageStats `json:"by_language" yaml:"by_language"` // sorted by lines descending
	Unanalyzed Stats           `json:"unanalyzed" yaml:"unanalyzed"`
}

// Analyzer collects code statistics; safe for concurrent use
type Analyzer interface {
	// ProcessFile counts a file and adds it to the totals. language is the
	// go-enry language used for grouping. The file's own stats are returned;
	// ok is false when the file could not be counted.
	ProcessFile(filename string, language string, content []byte) (Stats, bool)

	// GetStats returns the aggregated statistics, nil when disabled
	GetStats() *CodeStats

	// IsEnabled returns whether code stats collection is enabled
	IsEnabled() bool
}

// NewAnalyzer creates an analyzer based on enabled flag
func NewAnalyzer(enabled bool) Analyzer {
	if enabled {
		return newSCCAnalyzer()
	}
	return &noopAnalyzer{}
}

type noopAnalyzer struct{}

func (n *noopAnalyzer) ProcessFile(filename string, language string, content []byte) (Stats, bool) {
	return Stats{}, false
}
func (n *noopAnalyzer) GetStats() *CodeStats { return nil }
func (n *noopAnalyzer) IsEnabled() bool      { return false }

// sccAnalyzer uses boyter/scc for code statistics
type sccAnalyzer struct {
	mu         sync.Mutex
	total      Stats
	byLanguage map[string]*Stats
	unanalyzed Stats
}

func newSCCAnalyzer() *sccAnalyzer {
	return &sccAnalyzer{
		byLanguage: make(map[string]*Stats),
	}
}

func (a *sccAnalyzer) IsEnabled() bool {
	return true
}

func (a *sccAnalyzer) GetStats() *CodeStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	byLanguage := make([]LanguageStats, 0, len(a.byLanguage))
	for lang, stats := range a.byLanguage {
		byLanguage = append(byLanguage, LanguageStats{
			Language: lang,
			Type:     types.LanguageTypeToString(enry.GetLanguageType(lang)),
			Stats:    *stats,
		})
	}
	sort.Slice(byLanguage, func(i, j int) bool {
		if byLanguage[i].Lines != byLanguage[j].Lines {
			return byLanguage[i].Lines > byLanguage[j].Lines
		}
		return byLanguage[i].Language < byLanguage[j].Language
	})

	return &CodeStats{
		Total:      a.total,
		Metrics:    calculateMetrics(a.total),
		ByLanguage: byLanguage,
		Unanalyzed: a.unanalyzed,
	}
}

func calculateMetrics(total Stats) Metrics {
	m := Metrics{}
	if total.Code > 0 {
		m.CommentRatio = round2(float64(total.Comments) / float64(total.Code))
		m.ComplexityPerKLOC = round2(float64(total.Complexity) / (float64(total.Code) / 1000))
	}
	if total.Lines > 0 {
		m.CodeDensity = round2(float64(total.Code) / float64(total.Lines))
	}
	if total.Files > 0 {
		m.AvgFileSize = round2(float64(total.Lines) / float64(total.Files))
		m.AvgComplexity = round2(float64(total.Complexity) / float64(total.Files))
	}
	return m
}
