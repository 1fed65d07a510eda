package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

var (
	optOutRe      = regexp.MustCompile(`\bOUT\s*=\s*([^\s;]+)`)
	optDataRe     = regexp.MustCompile(`\bDATA\s*=\s*([^\s;]+)`)
	optDBMSRe     = regexp.MustCompile(`\bDBMS\s*=\s*([^\s;]+)`)
	optDatafileRe = regexp.MustCompile(`\bDATAFILE\s*=\s*["']?([^"';\s]+)`)
	optOutfileRe  = regexp.MustCompile(`\bOUTFILE\s*=\s*["']?([^"';\s]+)`)
)

// blockDetails derives PROC IMPORT/EXPORT options and DATA step summaries from
// the closed blocks. It reads the raw text, so options inside comments count.
func (p *pass) blockDetails() {
	res := p.res
	for _, b := range res.Blocks {
		switch {
		case b.Kind == BlockProc && b.ProcName == "IMPORT":
			opts := p.blockOptions(b, map[string]*regexp.Regexp{
				"OUT": optOutRe, "DBMS": optDBMSRe, "DATAFILE": optDatafileRe,
			})
			res.ProcImports = append(res.ProcImports, ProcImportDetail{
				Line:     b.StartLine,
				Out:      opts["OUT"],
				DBMS:     opts["DBMS"],
				Datafile: opts["DATAFILE"],
			})

		case b.Kind == BlockProc && b.ProcName == "EXPORT":
			opts := p.blockOptions(b, map[string]*regexp.Regexp{
				"DATA": optDataRe, "DBMS": optDBMSRe, "OUTFILE": optOutfileRe,
			})
			res.ProcExports = append(res.ProcExports, ProcExportDetail{
				Line:    b.StartLine,
				Data:    opts["DATA"],
				DBMS:    opts["DBMS"],
				Outfile: opts["OUTFILE"],
			})

		case b.Kind == BlockData && len(b.Datasets) > 0:
			res.DataSteps = append(res.DataSteps, DataStepDetail{
				Name:       strings.Join(b.Datasets, " "),
				Type:       TypeOf(b.Datasets[0]),
				Line:       b.StartLine,
				Size:       b.Size(),
				Operations: p.dataStepOperations(b),
			})
		}
	}
}

// blockOptions returns the last value of each option inside the block span.
// Absent options are reported as NotSpecified.
func (p *pass) blockOptions(b Block, patterns map[string]*regexp.Regexp) map[string]string {
	opts := make(map[string]string, len(patterns))
	for name := range patterns {
		opts[name] = NotSpecified
	}

	for _, text := range p.blockText(b) {
		for name, re := range patterns {
			if m := re.FindStringSubmatch(text); m != nil {
				opts[name] = strings.TrimSpace(m[1])
			}
		}
	}
	return opts
}

func (p *pass) dataStepOperations(b Block) []string {
	seen := make(map[string]bool)
	for _, text := range p.blockText(b) {
		for _, tag := range p.tables.dataStepOps.Matches(text) {
			seen[tag] = true
		}
	}

	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// blockText returns the upper-cased raw lines of a block
func (p *pass) blockText(b Block) []string {
	lines := p.res.Lines
	var text []string
	for n := b.StartLine; n <= b.EndLine && n <= len(lines); n++ {
		text = append(text, strings.ToUpper(lines[n-1].Raw))
	}
	return text
}
