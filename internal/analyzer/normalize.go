package analyzer

import (
	"regexp"
	"strings"
)

var (
	blockCommentRe = regexp.MustCompile(`/\*.*?\*/`)
	starCommentRe  = regexp.MustCompile(`^\s*\*.*$`)
	terminatorRe   = regexp.MustCompile(`\b(?:RUN|QUIT)\s*;`)
)

// Normalize strips comments from a raw line, upper-cases and trims it.
// Block comments are removed only when they open and close on the same line.
func Normalize(raw string) string {
	line := blockCommentRe.ReplaceAllString(raw, "")
	line = starCommentRe.ReplaceAllString(line, "")
	return strings.TrimSpace(strings.ToUpper(line))
}

var classifyRules = []struct {
	kind    LineKind
	pattern *regexp.Regexp
}{
	{KindInclude, regexp.MustCompile(`^\s*%INCLUDE\s+`)},
	{KindDataStep, regexp.MustCompile(`^\s*DATA\s+`)},
	{KindProcedure, regexp.MustCompile(`^\s*PROC\s+`)},
	{KindMacroDef, regexp.MustCompile(`^\s*%MACRO\s+`)},
	{KindMacroCall, regexp.MustCompile(`^\s*%`)},
	{KindLibrary, regexp.MustCompile(`^\s*LIBNAME\s+`)},
	{KindODS, regexp.MustCompile(`^\s*ODS\s+`)},
	{KindTerminator, terminatorRe},
}

// Classify returns the kind of a normalized line. The first matching rule wins.
func Classify(normalized string) LineKind {
	for _, r := range classifyRules {
		if r.pattern.MatchString(normalized) {
			return r.kind
		}
	}
	return KindStatement
}
