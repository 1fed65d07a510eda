package matchers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/types"
)

// Table is a compiled pattern table. It is immutable after compilation and safe
// for concurrent use.
type Table struct {
	name   string
	prefix string
	rules  []compiledRule
	words  map[string]struct{}
}

type compiledRule struct {
	tag     string
	capture string
	pattern *regexp.Regexp
}

// CompileTable compiles a single table definition
func CompileTable(def types.PatternTable) (*Table, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	t := &Table{name: def.Name, prefix: def.KeyPrefix}

	if def.Kind == types.TableKindWordSet {
		t.words = make(map[string]struct{}, len(def.Keywords))
		for _, w := range def.Keywords {
			t.words[strings.ToUpper(w)] = struct{}{}
		}
		return t, nil
	}

	for _, rule := range def.Expand() {
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("table %s: invalid regex pattern %q: %w", def.Name, rule.Pattern, err)
		}

		capture := def.CaptureMode(rule)
		if (capture == types.CaptureName || capture == types.CaptureList) && pattern.NumSubexp() < 1 {
			return nil, fmt.Errorf("table %s: pattern %q needs a capture group for %s capture", def.Name, rule.Pattern, capture)
		}

		t.rules = append(t.rules, compiledRule{tag: rule.Tag, capture: capture, pattern: pattern})
	}
	return t, nil
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Len returns the number of compiled rules, or the number of words of a word set
func (t *Table) Len() int {
	if t.words != nil {
		return len(t.words)
	}
	return len(t.rules)
}

// Contains reports whether word belongs to a word set table
func (t *Table) Contains(word string) bool {
	_, ok := t.words[strings.ToUpper(word)]
	return ok
}

// Apply runs every rule of the table against line in table order and calls emit
// once per produced key.
func (t *Table) Apply(line string, emit func(key string)) {
	for _, r := range t.rules {
		switch r.capture {
		case types.CaptureNone:
			if r.pattern.MatchString(line) {
				emit(t.prefix + r.tag)
			}

		case types.CaptureName:
			for _, m := range r.pattern.FindAllStringSubmatch(line, -1) {
				emit(t.prefix + r.tag + "_" + m[1])
			}

		case types.CaptureList:
			for _, loc := range r.pattern.FindAllStringSubmatchIndex(line, -1) {
				for _, token := range operandList(line, loc) {
					emit(t.prefix + r.tag + "_" + token)
				}
			}

		case types.CaptureWhole:
			for _, m := range r.pattern.FindAllString(line, -1) {
				emit(t.prefix + m)
			}
		}
	}
}

// Matches returns the tags of all rules matching line, without prefix or captures
func (t *Table) Matches(line string) []string {
	var tags []string
	for _, r := range t.rules {
		if r.pattern.MatchString(line) {
			tags = append(tags, r.tag)
		}
	}
	return tags
}

// operandList splits the first capture group of a match into tokens. A trailing
// token directly followed by "=" is an option name (SET A END=EOF) and is dropped.
func operandList(line string, loc []int) []string {
	tokens := strings.Fields(line[loc[2]:loc[3]])

	rest := strings.TrimLeft(line[loc[1]:], " \t")
	if strings.HasPrefix(rest, "=") && len(tokens) > 0 {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
