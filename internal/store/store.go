// Package store persists analysis runs and per-file results in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so that stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ErrDuplicateFile is returned when a run already holds a file with the same
// fingerprint
var ErrDuplicateFile = errors.New("file already saved in run")

// Run is one stored analysis run
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Root        string     `json:"root" yaml:"root"`
	ProjectID   string     `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Status      string     `json:"status" yaml:"status"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	FileCount   int        `json:"file_count" yaml:"file_count"`
	FailedCount int        `json:"failed_count" yaml:"failed_count"`
	LineCount   int        `json:"line_count" yaml:"line_count"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// SQLiteStore stores runs in a SQLite database
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store. A nil logger discards output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database at path. Use ":memory:" for
// an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they do not exist
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// generateID creates a new UUID
func generateID() string {
	return uuid.New().String()
}

// CreateRun records the start of a run over root
func (s *SQLiteStore) CreateRun(ctx context.Context, root, projectID string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Root:      root,
		ProjectID: projectID,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("Creating run", "id", run.ID, "root", root)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, root, project_id, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Root, nullString(projectID), run.Status, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished. A non-empty errMsg marks it failed.
// File, failure and line counts are computed from the saved files.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	status := RunStatusCompleted
	if errMsg != "" {
		status = RunStatusFailed
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET
			status = ?,
			completed_at = ?,
			error = ?,
			file_count = (SELECT COUNT(*) FROM files WHERE run_id = runs.id),
			failed_count = (SELECT COUNT(*) FROM files WHERE run_id = runs.id AND error IS NOT NULL),
			line_count = (SELECT COALESCE(SUM(total_lines), 0) FROM files WHERE run_id = runs.id)
		 WHERE id = ?`,
		status, time.Now().UTC().Format(timeLayout), nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const runColumns = `id, root, project_id, status, started_at, completed_at, file_count, failed_count, line_count, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var (
		projectID   sql.NullString
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	err := row.Scan(&run.ID, &run.Root, &projectID, &run.Status, &startedAt, &completedAt,
		&run.FileCount, &run.FailedCount, &run.LineCount, &errMsg)
	if err != nil {
		return nil, err
	}

	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if completedAt.Valid {
		t, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at %q: %w", completedAt.String, err)
		}
		run.CompletedAt = &t
	}
	run.ProjectID = projectID.String
	run.Error = errMsg.String
	return run, nil
}

// nullString returns a sql.NullString for optional string fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
