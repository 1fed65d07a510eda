package analyzer

import (
	"regexp"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/matchers"
)

var (
	macroDefRe  = regexp.MustCompile(`%MACRO\s+([A-Z_][A-Z0-9_]*)(?:\(([^)]*)\))?`)
	macroEndRe  = regexp.MustCompile(`%MEND\b\s*([A-Z_][A-Z0-9_]*)?`)
	macroCallRe = regexp.MustCompile(`%([A-Z_][A-Z0-9_]*)\b`)
)

// macroTracker follows macro definition nesting independently of the block
// stack so that parent names survive interleaved DATA/PROC blocks.
type macroTracker struct {
	stack      []string
	exclusions *matchers.Table
}

func (t *macroTracker) feed(num int, line string, res *Result) {
	if m := macroDefRe.FindStringSubmatch(line); m != nil {
		name := m[1]
		var parent string
		if len(t.stack) > 0 {
			parent = t.stack[len(t.stack)-1]
			Append(&res.NestedMacros, parent, name)
		}
		res.MacrosDefined.Set(name, &MacroDefinition{
			Name:       name,
			Line:       num,
			Parameters: strings.TrimSpace(m[2]),
			Parent:     parent,
		})
		t.stack = append(t.stack, name)
	}

	if m := macroEndRe.FindStringSubmatch(line); m != nil && len(t.stack) > 0 {
		name := m[1]
		if name == "" {
			name = t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
		} else {
			t.remove(name)
		}
		if def, ok := res.MacrosDefined.Get(name); ok && def.EndLine == 0 {
			def.EndLine = num
		}
	}

	for _, m := range macroCallRe.FindAllStringSubmatch(line, -1) {
		if !t.exclusions.Contains(m[1]) {
			Append(&res.MacrosCalled, m[1], num)
		}
	}
}

// remove drops the innermost occurrence of name from the stack
func (t *macroTracker) remove(name string) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i] == name {
			t.stack = append(t.stack[:i], t.stack[i+1:]...)
			return
		}
	}
}
