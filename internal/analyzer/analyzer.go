// Package analyzer implements the line-oriented SAS source analysis: comment
// normalization, line classification, block nesting, feature extraction and
// PROC SQL collection in a single forward pass.
package analyzer

import (
	"fmt"
	"log/slog"

	"github.com/petrarca/sas-analyzer/internal/matchers"
)

// Option configures an analysis
type Option func(*options)

type options struct {
	source string
	logger *slog.Logger
	tables *matchers.Set
	hook   func(num int, raw string) // runs before each line; set only by tests to inject failures
}

// WithSource names the analysed source in the result
func WithSource(name string) Option {
	return func(o *options) { o.source = name }
}

// WithLogger sets the logger for per-line warnings and debug output
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTables replaces the embedded pattern tables
func WithTables(set *matchers.Set) Option {
	return func(o *options) { o.tables = set }
}

// tableSet holds the tables consulted on every line, resolved once per pass
type tableSet struct {
	control      *matchers.Table
	fileOps      *matchers.Table
	variables    *matchers.Table
	datasetUsage *matchers.Table
	sqlKeywords  *matchers.Table
	sysFunctions *matchers.Table
	callRoutines *matchers.Table
	formats      *matchers.Table
	hashObjects  *matchers.Table
	ods          *matchers.Table
	timestamps   *matchers.Table
	dataStepOps  *matchers.Table
}

func resolveTables(set *matchers.Set) tableSet {
	return tableSet{
		control:      set.Table("control_structures"),
		fileOps:      set.Table("file_operations"),
		variables:    set.Table("variable_operations"),
		datasetUsage: set.Table("dataset_usage"),
		sqlKeywords:  set.Table("sql_keywords"),
		sysFunctions: set.Table("system_functions"),
		callRoutines: set.Table("call_routines"),
		formats:      set.Table("formats"),
		hashObjects:  set.Table("hash_objects"),
		ods:          set.Table("ods_destinations"),
		timestamps:   set.Table("timestamps"),
		dataStepOps:  set.Table("data_step_operations"),
	}
}

// pass is the state of one analysis. Nothing in it outlives Analyze.
type pass struct {
	opts   options
	res    *Result
	tables tableSet
	blocks blockTracker
	macros macroTracker
	sql    sqlCollector
}

// Analyze runs the analysis over lines, numbered from 1. It never fails:
// anomalies in the input are reported as data and a line whose processing
// panics is recorded as a Warning.
func Analyze(lines []string, opts ...Option) *Result {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	res := newResult(o.source)

	if o.tables == nil {
		set, err := matchers.Default()
		if err != nil {
			o.logger.Error("Failed to compile pattern tables", "error", err)
			res.Warnings = append(res.Warnings, Warning{Message: err.Error()})
			set, _ = matchers.Compile(nil)
		}
		o.tables = set
	}

	p := &pass{
		opts:   o,
		res:    res,
		tables: resolveTables(o.tables),
		macros: macroTracker{exclusions: o.tables.Table("macro_exclusions")},
		sql:    sqlCollector{reserved: o.tables.Table("sql_reserved_words")},
	}

	for i, raw := range lines {
		p.line(i+1, raw)
	}
	p.finish(len(lines))

	o.logger.Debug("Analysis complete",
		"source", o.source,
		"lines", res.Metrics.TotalLines,
		"blocks", res.Metrics.TotalBlocks,
		"sql_queries", len(res.SQLQueries),
		"warnings", len(res.Warnings))
	return res
}

func (p *pass) line(num int, raw string) {
	normalized := Normalize(raw)
	p.res.Lines = append(p.res.Lines, SourceLine{
		Number:     num,
		Raw:        raw,
		Normalized: normalized,
		Kind:       Classify(normalized),
	})

	defer func() {
		if r := recover(); r != nil {
			p.res.Warnings = append(p.res.Warnings, Warning{
				Line:    num,
				Message: fmt.Sprintf("error analyzing line: %v", r),
			})
			p.opts.logger.Warn("Error analyzing line", "line", num, "error", r)
		}
	}()

	if p.opts.hook != nil {
		p.opts.hook(num, raw)
	}

	if normalized == "" {
		return
	}

	p.blocks.open(num, normalized)
	p.extract(num, normalized)
	p.extractTimestamps(num, raw)
	p.sql.feed(num, normalized, raw, p.res)
	p.blocks.close(num, normalized)
}

func (p *pass) finish(total int) {
	p.blocks.finalize(total)
	if p.blocks.closed != nil {
		p.res.Blocks = p.blocks.closed
	}

	if p.sql.open {
		p.res.UnterminatedSQLStart = p.sql.start
		p.opts.logger.Debug("Dropping unterminated PROC SQL block",
			"start_line", p.sql.start,
			"buffered_lines", len(p.sql.buffer))
	}

	p.blockDetails()
	p.res.Metrics = computeMetrics(p.res)
}
