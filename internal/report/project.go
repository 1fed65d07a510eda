package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/petrarca/sas-analyzer/internal/aggregator"
	"github.com/petrarca/sas-analyzer/internal/analyzer"
	"github.com/petrarca/sas-analyzer/internal/codestats"
	"github.com/petrarca/sas-analyzer/internal/metadata"
	"github.com/petrarca/sas-analyzer/internal/scanner"
	"github.com/petrarca/sas-analyzer/internal/store"
)

// Project writes the summary, the file table and one detail section per file
func (r *Renderer) Project(p *scanner.Project) {
	r.Heading("SAS Analysis Report")
	r.metadata(p.Metadata)

	r.Section("Files")
	rows := make([][]any, 0, len(p.Files))
	var failed []scanner.FileReport
	for _, f := range p.Files {
		if f.Failed() {
			failed = append(failed, f)
			continue
		}
		m := f.Result.Metrics
		rows = append(rows, []any{f.Path, m.TotalLines, m.TotalBlocks, m.TotalDatasets,
			m.TotalProcedures, m.TotalMacros, m.ComplexityScore, len(f.Result.Warnings)})
	}
	r.Table([]string{"PATH", "LINES", "BLOCKS", "DATASETS", "PROCS", "MACROS", "SCORE", "WARNINGS"}, rows, "no SAS files found")

	if len(failed) > 0 {
		r.Section("Failed")
		for _, f := range failed {
			r.Printf("  %s %s\n", r.styles.Error.Render("✗"), f.Path)
			r.Println(r.styles.Muted.Render("    " + f.Error))
		}
		r.Println()
	}

	if p.CodeStats != nil {
		r.CodeStats(p.CodeStats)
	}

	for i := range p.Files {
		if !p.Files[i].Failed() {
			r.File(&p.Files[i])
		}
	}
}

func (r *Renderer) metadata(m *metadata.RunMetadata) {
	if m == nil {
		return
	}
	r.Field("Paths", strings.Join(m.Paths, ", "))
	status := fmt.Sprintf("%d analyzed, %d lines", m.FileCount-m.FailedCount, m.LineCount)
	if m.FailedCount > 0 {
		status += ", " + r.styles.Error.Render(fmt.Sprintf("%d failed", m.FailedCount))
	}
	r.Field("Files", status)
	r.Field("Duration", (time.Duration(m.DurationMs) * time.Millisecond).String())
	if m.RunID != "" {
		r.Field("Run", m.RunID)
	}
	if m.Git != nil {
		git := m.Git.Branch
		if len(m.Git.Commit) >= 7 {
			git += " @ " + m.Git.Commit[:7]
		}
		if m.Git.IsDirty {
			git += r.styles.Warning.Render(" (dirty)")
		}
		r.Field("Git", git)
	}
	r.Println()
}

// File writes the detail section of one analyzed file
func (r *Renderer) File(f *scanner.FileReport) {
	res := f.Result
	r.Section(f.Path)
	r.Printf("  %s, %s, detected by %s\n\n", f.Encoding, plural(res.Metrics.TotalLines, "line"), f.DetectedBy)

	blocks := make([][]any, 0, len(res.Blocks))
	for _, b := range res.Blocks {
		end := fmt.Sprint(b.EndLine)
		if b.Unterminated {
			end += r.styles.Warning.Render(" (unterminated)")
		}
		blocks = append(blocks, []any{b.Kind, b.Name, b.StartLine, end})
	}
	r.Table([]string{"KIND", "NAME", "START", "END"}, blocks, "")

	r.datasets(res)
	r.procedures(res)
	r.macros(res)
	r.sqlQueries(res)
	r.lineage(f)
	r.details(res)

	for _, ft := range []struct {
		title string
		table analyzer.FactTable
	}{
		{"Includes", res.Includes},
		{"Libraries", res.Libraries},
		{"External tables", res.ExternalTables},
		{"SQL statements", res.SQLStatements},
		{"Control structures", res.ControlStructures},
		{"File operations", res.FileOperations},
		{"Variable operations", res.VariableOperations},
		{"System functions", res.SystemFunctions},
		{"CALL routines", res.CallRoutines},
		{"Formats", res.Formats},
		{"Hash objects", res.HashObjects},
		{"ODS statements", res.ODSStatements},
	} {
		r.facts(ft.title, ft.table)
	}

	if res.TimeframeStart != nil {
		r.Printf("  %s %s (line %d) to %s (line %d)\n\n", r.styles.Bold.Render("Timeframe:"),
			res.TimeframeStart.Value, res.TimeframeStart.Line, res.TimeframeEnd.Value, res.TimeframeEnd.Line)
	}
	if res.UnterminatedSQLStart > 0 {
		r.Println(r.styles.Warning.Render(fmt.Sprintf("  PROC SQL at line %d is never terminated", res.UnterminatedSQLStart)))
		r.Println()
	}
	for _, w := range res.Warnings {
		r.Println(r.styles.Warning.Render(fmt.Sprintf("  line %d: %s", w.Line, w.Message)))
	}
	if len(res.Warnings) > 0 {
		r.Println()
	}
}

func (r *Renderer) datasets(res *analyzer.Result) {
	var rows [][]any
	for _, ct := range res.CreatedTables {
		rows = append(rows, []any{ct.Name, ct.Type, "created (" + ct.Origin + ")", ct.Line})
	}
	res.DatasetsUsed.Each(func(key string, lines []int) {
		rows = append(rows, []any{key, "", "used", joinLines(lines)})
	})
	if len(rows) > 0 {
		r.Println(r.styles.Bold.Render("  Datasets"))
	}
	r.Table([]string{"DATASET", "TYPE", "ROLE", "LINES"}, rows, "")
}

func (r *Renderer) procedures(res *analyzer.Result) {
	var rows [][]any
	res.Procedures.Each(func(name string, uses []analyzer.ProcedureUse) {
		for _, use := range uses {
			rows = append(rows, []any{name, use.Dataset, use.Line})
		}
	})
	if len(rows) > 0 {
		r.Println(r.styles.Bold.Render("  Procedures"))
	}
	r.Table([]string{"PROC", "DATA", "LINE"}, rows, "")
}

func (r *Renderer) macros(res *analyzer.Result) {
	var rows [][]any
	res.MacrosDefined.Each(func(name string, def *analyzer.MacroDefinition) {
		end := "-"
		if def.EndLine > 0 {
			end = fmt.Sprint(def.EndLine)
		}
		rows = append(rows, []any{name, "defined", fmt.Sprintf("%d-%s", def.Line, end), orDash(def.Parameters), orDash(def.Parent)})
	})
	res.MacrosCalled.Each(func(name string, lines []int) {
		rows = append(rows, []any{name, "called", joinLines(lines), "-", "-"})
	})
	if len(rows) > 0 {
		r.Println(r.styles.Bold.Render("  Macros"))
	}
	r.Table([]string{"MACRO", "ROLE", "LINES", "PARAMETERS", "PARENT"}, rows, "")
}

func (r *Renderer) sqlQueries(res *analyzer.Result) {
	rows := make([][]any, 0, len(res.SQLQueries))
	for _, q := range res.SQLQueries {
		rows = append(rows, []any{
			fmt.Sprintf("%d-%d", q.StartLine, q.EndLine),
			orDash(q.CreatedTableName),
			orDash(string(q.CreatedTableType)),
			strings.Join(q.TablesReferenced, ", "),
			truncate(q.Query, 60),
		})
	}
	if len(rows) > 0 {
		r.Println(r.styles.Bold.Render("  SQL queries"))
	}
	r.Table([]string{"LINES", "CREATES", "TYPE", "TABLES", "QUERY"}, rows, "")
}

func (r *Renderer) lineage(f *scanner.FileReport) {
	rows := make([][]any, 0, len(f.Lineage))
	for _, e := range f.Lineage {
		rows = append(rows, []any{orDash(e.Source), orDash(e.Target), e.Kind, e.Line, e.Step})
	}
	if len(rows) > 0 {
		r.Println(r.styles.Bold.Render("  Lineage"))
	}
	r.Table([]string{"SOURCE", "TARGET", "KIND", "LINE", "STEP"}, rows, "")
}

func (r *Renderer) details(res *analyzer.Result) {
	if len(res.ProcImports) > 0 {
		r.Println(r.styles.Bold.Render("  PROC IMPORT"))
		rows := make([][]any, 0, len(res.ProcImports))
		for _, d := range res.ProcImports {
			rows = append(rows, []any{d.Line, d.Out, d.DBMS, d.Datafile})
		}
		r.Table([]string{"LINE", "OUT", "DBMS", "DATAFILE"}, rows, "")
	}
	if len(res.ProcExports) > 0 {
		r.Println(r.styles.Bold.Render("  PROC EXPORT"))
		rows := make([][]any, 0, len(res.ProcExports))
		for _, d := range res.ProcExports {
			rows = append(rows, []any{d.Line, d.Data, d.DBMS, d.Outfile})
		}
		r.Table([]string{"LINE", "DATA", "DBMS", "OUTFILE"}, rows, "")
	}
	if len(res.DataSteps) > 0 {
		r.Println(r.styles.Bold.Render("  DATA steps"))
		rows := make([][]any, 0, len(res.DataSteps))
		for _, d := range res.DataSteps {
			rows = append(rows, []any{d.Name, d.Type, d.Line, d.Size, strings.Join(d.Operations, ", ")})
		}
		r.Table([]string{"NAME", "TYPE", "LINE", "SIZE", "OPERATIONS"}, rows, "")
	}
}

func (r *Renderer) facts(title string, ft analyzer.FactTable) {
	if ft.Len() == 0 {
		return
	}
	rows := make([][]any, 0, ft.Len())
	ft.Each(func(key string, lines []int) {
		rows = append(rows, []any{key, len(lines), joinLines(lines)})
	})
	r.Println(r.styles.Bold.Render("  " + title))
	r.Table([]string{"KEY", "COUNT", "LINES"}, rows, "")
}

// CodeStats writes the code statistics table
func (r *Renderer) CodeStats(cs *codestats.CodeStats) {
	r.Section("Code statistics")
	rows := make([][]any, 0, len(cs.ByLanguage)+1)
	for _, l := range cs.ByLanguage {
		rows = append(rows, []any{l.Language, l.Files, l.Lines, l.Code, l.Comments, l.Blanks, l.Complexity})
	}
	if cs.Unanalyzed.Files > 0 {
		rows = append(rows, []any{"(unanalyzed)", cs.Unanalyzed.Files, cs.Unanalyzed.Lines, "-", "-", "-", "-"})
	}
	r.Table([]string{"LANGUAGE", "FILES", "LINES", "CODE", "COMMENTS", "BLANKS", "COMPLEXITY"}, rows, "no statistics")
	r.Printf("  comment ratio %.2f, code density %.2f, complexity/KLOC %.2f\n\n",
		cs.Metrics.CommentRatio, cs.Metrics.CodeDensity, cs.Metrics.ComplexityPerKLOC)
}

// Aggregate writes a project rollup; only the selected fields are present
func (r *Renderer) Aggregate(out *aggregator.AggregateOutput) {
	r.Heading("SAS Project Summary")
	r.metadata(out.Metadata)

	if out.Metrics != nil {
		m := out.Metrics
		r.Section("Metrics")
		r.Table([]string{"FILES", "LINES", "BLOCKS", "PROCS", "MACROS", "INCLUDES", "SCORE", "MOST COMPLEX"},
			[][]any{{m.Files, m.TotalLines, m.TotalBlocks, m.TotalProcedures, m.TotalMacros, m.TotalIncludes,
				m.ComplexityScore, orDash(m.MostComplex)}}, "")
	}

	for _, g := range out.Git {
		r.Field("Repository", fmt.Sprintf("%s (%s)", orDash(g.RemoteURL), orDash(g.Branch)))
	}

	if out.Datasets != nil {
		r.Section("Datasets")
		rows := make([][]any, 0, len(out.Datasets))
		for _, d := range out.Datasets {
			rows = append(rows, []any{d.Name, d.Type, strings.Join(d.CreatedIn, ", "), strings.Join(d.UsedIn, ", ")})
		}
		r.Table([]string{"DATASET", "TYPE", "CREATED IN", "USED IN"}, rows, "none")
	}

	if out.Procedures != nil {
		r.Section("Procedures")
		names := make([]string, 0, len(out.Procedures))
		for name := range out.Procedures {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]any, 0, len(names))
		for _, name := range names {
			rows = append(rows, []any{name, out.Procedures[name]})
		}
		r.Table([]string{"PROC", "USES"}, rows, "none")
	}

	if out.Macros != nil {
		r.Section("Macros")
		rows := make([][]any, 0, len(out.Macros))
		for _, m := range out.Macros {
			rows = append(rows, []any{m.Name, orDash(strings.Join(m.DefinedIn, ", ")), m.Calls})
		}
		r.Table([]string{"MACRO", "DEFINED IN", "CALLS"}, rows, "none")
	}

	r.list("Includes", out.Includes)
	r.list("Libraries", out.Libraries)
	r.list("External tables", out.Tables)

	if out.Lineage != nil {
		r.Section("Lineage")
		rows := make([][]any, 0, len(out.Lineage))
		for _, n := range out.Lineage {
			rows = append(rows, []any{n.Name, orDash(strings.Join(n.Upstream, ", ")),
				orDash(strings.Join(n.Downstream, ", ")), orDash(strings.Join(n.ReadBy, ", "))})
		}
		r.Table([]string{"DATASET", "UPSTREAM", "DOWNSTREAM", "READ BY"}, rows, "none")
	}

	if cs, ok := out.CodeStats.(*codestats.CodeStats); ok {
		r.CodeStats(cs)
	}
}

func (r *Renderer) list(title string, items []string) {
	if items == nil {
		return
	}
	r.Section(title)
	if len(items) == 0 {
		r.Println(r.styles.Muted.Render("  none"))
	}
	for _, item := range items {
		r.Println("  " + item)
	}
	r.Println()
}

// Runs writes the stored runs table
func (r *Renderer) Runs(runs []*store.Run) {
	r.Heading("Analysis Runs")
	rows := make([][]any, 0, len(runs))
	for _, run := range runs {
		status := run.Status
		switch run.Status {
		case store.RunStatusCompleted:
			status = r.styles.Success.Render(status)
		case store.RunStatusFailed:
			status = r.styles.Error.Render(status)
		}
		rows = append(rows, []any{run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"), status,
			run.FileCount, run.FailedCount, run.LineCount, run.Root})
	}
	r.Table([]string{"RUN", "STARTED", "STATUS", "FILES", "FAILED", "LINES", "ROOT"}, rows, "no runs recorded")
}

// History writes the stored analyses of one file
func (r *Renderer) History(path string, records []store.FileRecord) {
	r.Heading("History of " + path)
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		status := r.styles.Success.Render("ok")
		if rec.Error != "" {
			status = r.styles.Error.Render(truncate(rec.Error, 40))
		}
		rows = append(rows, []any{rec.RunID, rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			orDash(rec.Fingerprint), rec.TotalLines, rec.ComplexityScore, rec.Warnings, status})
	}
	r.Table([]string{"RUN", "STARTED", "FINGERPRINT", "LINES", "SCORE", "WARNINGS", "STATUS"}, rows, "no analyses recorded")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
