package git

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/petrarca/sas-analyzer/internal/progress"
	"github.com/petrarca/sas-analyzer/internal/types"
)

// IgnoreRule is one parsed line of a .gitignore file
type IgnoreRule struct {
	Pattern  string
	Negate   bool // "!pattern" re-includes a previously excluded entry
	DirOnly  bool // "pattern/" only matches directories
	Anchored bool // pattern contains a slash and is matched against the relative path
}

// ParseIgnoreRules parses .gitignore content, skipping blanks and comments
func ParseIgnoreRules(content []byte) ([]IgnoreRule, error) {
	var rules []IgnoreRule
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rule, ok := parseIgnoreRule(line); ok {
			rules = append(rules, rule)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ignore patterns: %w", err)
	}
	return rules, nil
}

// ExcludeRules turns plain glob excludes (CLI flags, config files) into rules
func ExcludeRules(patterns []string) []IgnoreRule {
	rules := make([]IgnoreRule, 0, len(patterns))
	for _, p := range patterns {
		if rule, ok := parseIgnoreRule(strings.TrimSpace(p)); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}

func parseIgnoreRule(line string) (IgnoreRule, bool) {
	var rule IgnoreRule
	if strings.HasPrefix(line, "!") {
		rule.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.DirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		line = strings.TrimLeft(line, "/")
		rule.Anchored = true
	}
	if strings.Contains(line, "/") {
		rule.Anchored = true
	}
	if line == "" {
		return rule, false
	}
	rule.Pattern = line
	return rule, true
}

// match reports whether the rule applies to an entry. relPath is relative to
// the directory holding the rule set.
func (r IgnoreRule) match(name, relPath string, isDir bool) bool {
	if r.DirOnly && !isDir {
		return false
	}
	if r.Anchored {
		matched, err := doublestar.Match(r.Pattern, relPath)
		return err == nil && matched
	}
	matched, err := doublestar.Match(r.Pattern, name)
	return err == nil && matched
}

// PatternSet holds the rules of a single ignore source
type PatternSet struct {
	Directory string // slash separated, relative to the scan root, "." for the root
	Source    string
	Rules     []IgnoreRule
}

// IgnoreStack is the stack of rule sets active while descending a tree
type IgnoreStack struct {
	stack []*PatternSet
}

// NewIgnoreStack creates a new empty stack
func NewIgnoreStack() *IgnoreStack {
	return &IgnoreStack{stack: make([]*PatternSet, 0)}
}

// Push adds a rule set; empty sets are ignored and reported as not pushed
func (s *IgnoreStack) Push(set *PatternSet) bool {
	if len(set.Rules) == 0 {
		return false
	}
	s.stack = append(s.stack, set)
	return true
}

// Pop removes the top rule set
func (s *IgnoreStack) Pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Depth returns the number of active rule sets
func (s *IgnoreStack) Depth() int {
	return len(s.stack)
}

// Match returns the rule deciding the entry at relPath (relative to the scan
// root, slash separated). The last matching rule wins, as in git.
func (s *IgnoreStack) Match(relPath string, isDir bool) (IgnoreRule, *PatternSet, bool) {
	relPath = path.Clean(relPath)
	name := path.Base(relPath)

	var (
		decided IgnoreRule
		from    *PatternSet
		found   bool
	)
	for _, set := range s.stack {
		local, ok := relativeTo(set.Directory, relPath)
		if !ok {
			continue
		}
		for _, rule := range set.Rules {
			if rule.match(name, local, isDir) {
				decided, from, found = rule, set, true
			}
		}
	}
	return decided, from, found
}

// ShouldExclude reports whether the entry at relPath is excluded
func (s *IgnoreStack) ShouldExclude(relPath string, isDir bool) bool {
	rule, _, found := s.Match(relPath, isDir)
	return found && !rule.Negate
}

func relativeTo(dir, relPath string) (string, bool) {
	if dir == "." || dir == "" {
		return relPath, true
	}
	if !strings.HasPrefix(relPath, dir+"/") {
		return "", false
	}
	return strings.TrimPrefix(relPath, dir+"/"), true
}

// StackBasedLoader loads ignore rules through a Provider while the scanner
// walks the tree, pushing a directory's .gitignore on entry and popping it on
// exit
type StackBasedLoader struct {
	provider types.Provider
	progress *progress.Progress
	logger   *slog.Logger
	stack    *IgnoreStack
}

// NewStackBasedLoader creates a loader reading through provider. prog and
// logger may be nil.
func NewStackBasedLoader(provider types.Provider, prog *progress.Progress, logger *slog.Logger) *StackBasedLoader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StackBasedLoader{
		provider: provider,
		progress: prog,
		logger:   logger,
		stack:    NewIgnoreStack(),
	}
}

// InitializeWithTopLevelExcludes pushes CLI and config excludes as a root
// level pseudo .gitignore, then the repository's .git/info/exclude
func (l *StackBasedLoader) InitializeWithTopLevelExcludes(excludePatterns []string, configExcludes []string) {
	all := make([]string, 0, len(excludePatterns)+len(configExcludes))
	all = append(all, excludePatterns...)
	all = append(all, configExcludes...)

	if l.stack.Push(&PatternSet{Directory: ".", Source: "excludes", Rules: ExcludeRules(all)}) {
		l.logger.Info("Added top-level excludes", "count", len(all), "patterns", all)
	}

	infoExclude := path.Join(".git", "info", "exclude")
	if ok, _ := l.provider.Exists(infoExclude); !ok {
		return
	}
	if l.loadAndPush(".", infoExclude) {
		l.logger.Info("Loaded .git/info/exclude patterns", "path", infoExclude)
	}
}

// LoadAndPushGitignore loads dir/.gitignore if present. Returns true when a
// rule set was pushed; callers pop exactly once per true.
func (l *StackBasedLoader) LoadAndPushGitignore(dir string) bool {
	gitignorePath := path.Join(dir, ".gitignore")
	if ok, _ := l.provider.Exists(gitignorePath); !ok {
		return false
	}
	if !l.loadAndPush(dir, gitignorePath) {
		return false
	}
	if l.progress != nil {
		l.progress.GitIgnoreEnter(dir)
	}
	return true
}

func (l *StackBasedLoader) loadAndPush(dir, file string) bool {
	content, err := l.provider.ReadFile(file)
	if err != nil {
		l.logger.Error("Failed to read ignore file", "path", file, "error", err)
		if l.progress != nil {
			l.progress.Info(fmt.Sprintf("Warning: Failed to read %s: %v", file, err))
		}
		return false
	}

	rules, err := ParseIgnoreRules(content)
	if err != nil {
		l.logger.Error("Failed to parse ignore file", "path", file, "error", err)
		return false
	}

	l.logger.Debug("Loaded patterns from file", "path", file, "count", len(rules))
	return l.stack.Push(&PatternSet{Directory: path.Clean(dir), Source: file, Rules: rules})
}

// PopGitignore removes the rules pushed for dir
func (l *StackBasedLoader) PopGitignore(dir string) {
	l.stack.Pop()
	if l.progress != nil {
		l.progress.GitIgnoreLeave(dir)
	}
}

// ShouldExclude reports whether the entry is excluded and, if so, why
func (l *StackBasedLoader) ShouldExclude(relPath string, isDir bool) (bool, string) {
	rule, set, found := l.stack.Match(relPath, isDir)
	if !found || rule.Negate {
		return false, ""
	}
	return true, fmt.Sprintf("excluded by %s: %s", set.Source, rule.Pattern)
}

// Stack returns the current rule stack
func (l *StackBasedLoader) Stack() *IgnoreStack {
	return l.stack
}
