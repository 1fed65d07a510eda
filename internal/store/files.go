package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/petrarca/sas-analyzer/internal/analyzer"
	"github.com/petrarca/sas-analyzer/internal/scanner"
)

// FileRecord is one stored file of a run, as returned by GetFileHistory
type FileRecord struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	Path            string    `json:"path" yaml:"path"`
	Fingerprint     string    `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	TotalLines      int       `json:"total_lines" yaml:"total_lines"`
	ComplexityScore int       `json:"complexity_score" yaml:"complexity_score"`
	Warnings        int       `json:"warnings" yaml:"warnings"`
	Error           string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// SaveFile stores a file report with its blocks, SQL queries, facts and
// lineage edges in one transaction. A second file with the same fingerprint
// in the same run is rejected with ErrDuplicateFile.
func (s *SQLiteStore) SaveFile(ctx context.Context, runID string, report *scanner.FileReport) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if report.Fingerprint != "" {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT path FROM files WHERE run_id = ? AND fingerprint = ?`, runID, report.Fingerprint,
		).Scan(&existing)
		if err == nil {
			return fmt.Errorf("%w: %s has the same content as %s", ErrDuplicateFile, report.Path, existing)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check fingerprint: %w", err)
		}
	}

	var lines, score, warnings int
	if report.Result != nil {
		lines = report.Result.Metrics.TotalLines
		score = report.Result.Metrics.ComplexityScore
		warnings = len(report.Result.Warnings)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO files (run_id, path, fingerprint, encoding, size, detected_by, total_lines, complexity_score, warnings, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, report.Path, nullString(report.Fingerprint), nullString(report.Encoding), report.Size,
		nullString(report.DetectedBy), lines, score, warnings, nullString(report.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to save file %s: %w", report.Path, err)
	}
	fileID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get file id: %w", err)
	}

	if report.Result != nil {
		if err := saveResult(ctx, tx, fileID, report); err != nil {
			return fmt.Errorf("failed to save analysis of %s: %w", report.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file %s: %w", report.Path, err)
	}
	s.logger.Debug("Saved file", "run", runID, "path", report.Path)
	return nil
}

func saveResult(ctx context.Context, tx *sql.Tx, fileID int64, report *scanner.FileReport) error {
	res := report.Result

	for _, b := range res.Blocks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blocks (file_id, kind, name, start_line, end_line, unterminated) VALUES (?, ?, ?, ?, ?, ?)`,
			fileID, string(b.Kind), b.Name, b.StartLine, b.EndLine, b.Unterminated,
		); err != nil {
			return fmt.Errorf("block %s: %w", b.Name, err)
		}
	}

	for _, q := range res.SQLQueries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sql_queries (file_id, start_line, end_line, query, tables_referenced, created_table, created_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, q.StartLine, q.EndLine, q.Query, strings.Join(q.TablesReferenced, ","),
			nullString(q.CreatedTableName), nullString(string(q.CreatedTableType)),
		); err != nil {
			return fmt.Errorf("sql query at line %d: %w", q.StartLine, err)
		}
	}

	insertFact, err := tx.PrepareContext(ctx, `INSERT INTO facts (file_id, category, key, line) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = insertFact.Close() }()

	for _, f := range factTables(res) {
		var ferr error
		f.table.Each(func(key string, lines []int) {
			for _, line := range lines {
				if ferr != nil {
					return
				}
				_, ferr = insertFact.ExecContext(ctx, fileID, f.category, key, line)
			}
		})
		if ferr != nil {
			return fmt.Errorf("fact %s: %w", f.category, ferr)
		}
	}

	var perr error
	res.Procedures.Each(func(name string, uses []analyzer.ProcedureUse) {
		for _, use := range uses {
			if perr == nil {
				_, perr = insertFact.ExecContext(ctx, fileID, "procedures", name, use.Line)
			}
		}
	})
	res.MacrosDefined.Each(func(name string, def *analyzer.MacroDefinition) {
		if perr == nil {
			_, perr = insertFact.ExecContext(ctx, fileID, "macros_defined", name, def.Line)
		}
	})
	if perr != nil {
		return fmt.Errorf("fact: %w", perr)
	}

	for _, e := range report.Lineage {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lineage_edges (file_id, source, target, kind, line, origin, step) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fileID, nullString(e.Source), nullString(e.Target), e.Kind, e.Line, e.Origin, e.Step,
		); err != nil {
			return fmt.Errorf("lineage edge at line %d: %w", e.Line, err)
		}
	}
	return nil
}

type namedTable struct {
	category string
	table    analyzer.FactTable
}

// factTables lists the fact tables stored in the facts table, keyed by their
// JSON field name
func factTables(res *analyzer.Result) []namedTable {
	return []namedTable{
		{"datasets_created", res.DatasetsCreated},
		{"datasets_used", res.DatasetsUsed},
		{"macros_called", res.MacrosCalled},
		{"sql_statements", res.SQLStatements},
		{"external_tables", res.ExternalTables},
		{"control_structures", res.ControlStructures},
		{"file_operations", res.FileOperations},
		{"libraries", res.Libraries},
		{"variable_operations", res.VariableOperations},
		{"includes", res.Includes},
		{"system_functions", res.SystemFunctions},
		{"call_routines", res.CallRoutines},
		{"formats", res.Formats},
		{"hash_objects", res.HashObjects},
		{"ods_statements", res.ODSStatements},
	}
}

// GetFileHistory returns every stored analysis of path, newest run first
func (s *SQLiteStore) GetFileHistory(ctx context.Context, path string) ([]FileRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.run_id, r.started_at, f.path, f.fingerprint, f.total_lines, f.complexity_score, f.warnings, f.error
		 FROM files f JOIN runs r ON r.id = f.run_id
		 WHERE f.path = ?
		 ORDER BY r.started_at DESC, f.id DESC`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []FileRecord{}
	for rows.Next() {
		var (
			rec         FileRecord
			startedAt   string
			fingerprint sql.NullString
			errMsg      sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &startedAt, &rec.Path, &fingerprint,
			&rec.TotalLines, &rec.ComplexityScore, &rec.Warnings, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		if rec.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
		}
		rec.Fingerprint = fingerprint.String
		rec.Error = errMsg.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountFacts returns the number of stored fact rows of a run per category
func (s *SQLiteStore) CountFacts(ctx context.Context, runID string) (map[string]int, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT fa.category, COUNT(*) FROM facts fa JOIN files f ON f.id = fa.file_id
		 WHERE f.run_id = ? GROUP BY fa.category`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
