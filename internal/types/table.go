package types

import (
	"fmt"
	"regexp"
	"strings"
)

// Table kinds
const (
	TableKindPatterns = "patterns" // explicit (tag, pattern) pairs
	TableKindKeywords = "keywords" // keyword list expanded through a template
	TableKindWordSet  = "wordset"  // plain membership set, never matched against lines
)

// Capture modes decide how a match is turned into fact keys
const (
	CaptureNone  = "none"  // key is prefix + tag
	CaptureName  = "name"  // key is prefix + tag + "_" + first group, once per match
	CaptureList  = "list"  // first group split on whitespace, one key per token
	CaptureWhole = "whole" // key is the whole matched text
)

// PatternTable is a named lookup table used by the feature extractors
type PatternTable struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        string        `yaml:"kind" json:"kind"`
	KeyPrefix   string        `yaml:"key_prefix,omitempty" json:"key_prefix,omitempty"`
	Capture     string        `yaml:"capture,omitempty" json:"capture,omitempty"`
	Template    string        `yaml:"template,omitempty" json:"template,omitempty"` // keywords only, %s is the escaped keyword
	Patterns    []PatternRule `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Keywords    []string      `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// PatternRule is a single tagged regular expression
type PatternRule struct {
	Tag     string `yaml:"tag" json:"tag"`
	Pattern string `yaml:"pattern" json:"pattern"`
	Capture string `yaml:"capture,omitempty" json:"capture,omitempty"` // overrides the table capture mode
}

// CaptureMode returns the effective capture mode of a rule within its table
func (t *PatternTable) CaptureMode(rule PatternRule) string {
	if rule.Capture != "" {
		return rule.Capture
	}
	if t.Capture != "" {
		return t.Capture
	}
	return CaptureNone
}

// Expand returns the table as (tag, pattern) pairs. Keyword tables are expanded
// through their template; internal spaces of a keyword match any whitespace run
// and become underscores in the tag.
func (t *PatternTable) Expand() []PatternRule {
	if t.Kind != TableKindKeywords {
		return t.Patterns
	}

	rules := make([]PatternRule, 0, len(t.Keywords))
	for _, kw := range t.Keywords {
		words := strings.Fields(kw)
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		rules = append(rules, PatternRule{
			Tag:     strings.Join(words, "_"),
			Pattern: fmt.Sprintf(t.Template, strings.Join(quoted, `\s+`)),
		})
	}
	return rules
}

// Validate checks the structural requirements of a table definition
func (t *PatternTable) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch t.Kind {
	case TableKindPatterns:
		if len(t.Patterns) == 0 {
			return fmt.Errorf("table %s: patterns are required", t.Name)
		}
		for i, p := range t.Patterns {
			if p.Tag == "" && t.CaptureMode(p) != CaptureWhole {
				return fmt.Errorf("table %s: pattern %d: tag is required", t.Name, i)
			}
			if p.Pattern == "" {
				return fmt.Errorf("table %s: pattern %d: pattern is required", t.Name, i)
			}
		}
	case TableKindKeywords:
		if len(t.Keywords) == 0 {
			return fmt.Errorf("table %s: keywords are required", t.Name)
		}
		if strings.Count(t.Template, "%s") != 1 {
			return fmt.Errorf("table %s: template must contain exactly one %%s", t.Name)
		}
	case TableKindWordSet:
		if len(t.Keywords) == 0 {
			return fmt.Errorf("table %s: keywords are required", t.Name)
		}
	default:
		return fmt.Errorf("table %s: unknown kind %q", t.Name, t.Kind)
	}

	switch t.Capture {
	case "", CaptureNone, CaptureName, CaptureList, CaptureWhole:
	default:
		return fmt.Errorf("table %s: unknown capture mode %q", t.Name, t.Capture)
	}
	return nil
}
