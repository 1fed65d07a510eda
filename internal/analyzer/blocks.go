package analyzer

import (
	"regexp"
	"strings"
)

var (
	dataStartRe  = regexp.MustCompile(`^\s*DATA\s+([A-Z_][A-Z0-9_.]*(?:\s+[A-Z_][A-Z0-9_.]*)*)`)
	procStartRe  = regexp.MustCompile(`^\s*PROC\s+([A-Z]+)(?:\s+DATA\s*=\s*([A-Z_][A-Z0-9_.]*))?`)
	macroStartRe = regexp.MustCompile(`^\s*%MACRO\s+([A-Z_][A-Z0-9_]*)(?:\(([^)]*)\))?`)
	blockEndRe   = regexp.MustCompile(`\b(?:RUN|QUIT)\s*;|%MEND\b`)
)

// blockTracker maintains the stack of open blocks
type blockTracker struct {
	stack  []Block
	closed []Block
}

// open pushes at most one block per line, trying DATA, PROC and MACRO in order
func (t *blockTracker) open(num int, line string) {
	if m := dataStartRe.FindStringSubmatch(line); m != nil {
		datasets := strings.Fields(m[1])
		t.stack = append(t.stack, Block{
			Kind:      BlockData,
			Name:      "DATA " + strings.Join(datasets, " "),
			StartLine: num,
			Datasets:  datasets,
		})
		return
	}

	if m := procStartRe.FindStringSubmatch(line); m != nil {
		dataset := m[2]
		if dataset == "" {
			dataset = UnknownDataset
		}
		t.stack = append(t.stack, Block{
			Kind:      BlockProc,
			Name:      "PROC " + m[1],
			StartLine: num,
			ProcName:  m[1],
			Dataset:   dataset,
		})
		return
	}

	if m := macroStartRe.FindStringSubmatch(line); m != nil {
		t.stack = append(t.stack, Block{
			Kind:       BlockMacro,
			Name:       "%MACRO " + m[1],
			StartLine:  num,
			MacroName:  m[1],
			Parameters: strings.TrimSpace(m[2]),
		})
	}
}

// close pops the innermost open block when line carries a terminator or %MEND
func (t *blockTracker) close(num int, line string) {
	if len(t.stack) == 0 || !blockEndRe.MatchString(line) {
		return
	}
	t.pop(num, false)
}

// finalize force-closes every block still open at end of input
func (t *blockTracker) finalize(total int) {
	for len(t.stack) > 0 {
		t.pop(total, true)
	}
}

func (t *blockTracker) pop(end int, unterminated bool) {
	b := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	b.EndLine = end
	b.Unterminated = unterminated
	t.closed = append(t.closed, b)
}
