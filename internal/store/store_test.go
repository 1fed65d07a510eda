package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrarca/sas-analyzer/internal/analyzer"
	"github.com/petrarca/sas-analyzer/internal/lineage"
	"github.com/petrarca/sas-analyzer/internal/scanner"
	"github.com/petrarca/sas-analyzer/internal/source"
)

const program = `LIBNAME RAW '/data/raw';
DATA WORK.T1;
  SET RAW.SRC;
RUN;
PROC SQL;
  CREATE TABLE MART.OUT AS SELECT * FROM WORK.T1;
QUIT;
PROC PRINT DATA=MART.OUT;
RUN;`

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(filepath.Join(t.TempDir(), "state.db")))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.InitSchema(context.Background()))
	return store
}

func fileReport(t *testing.T, path, text string) *scanner.FileReport {
	t.Helper()
	file, err := source.FromBytes(path, []byte(text))
	require.NoError(t, err)
	res := analyzer.Analyze(file.Lines, analyzer.WithSource(path))
	return &scanner.FileReport{
		Path:        path,
		Language:    scanner.SASLanguage,
		DetectedBy:  scanner.DetectedByExtension,
		Encoding:    file.Encoding,
		Fingerprint: file.Fingerprint,
		Size:        file.Size,
		Result:      res,
		Lineage:     lineage.Build(res),
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.Error(t, store.InitSchema(ctx))
	_, err := store.CreateRun(ctx, ".", "")
	assert.Error(t, err)
	_, err = store.ListRuns(ctx, 10)
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_InitSchemaIdempotent(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.InitSchema(context.Background()))

	for _, table := range []string{"runs", "files", "blocks", "sql_queries", "facts", "lineage_edges"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_RunRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "/projects/etl", "abc123")
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, RunStatusRunning, run.Status)

	require.NoError(t, store.SaveFile(ctx, run.ID, fileReport(t, "load.sas", program)))
	require.NoError(t, store.SaveFile(ctx, run.ID, &scanner.FileReport{
		Path:  "broken.sas",
		Error: "source unavailable: broken.sas: permission denied",
	}))
	require.NoError(t, store.CompleteRun(ctx, run.ID, ""))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "/projects/etl", got.Root)
	assert.Equal(t, "abc123", got.ProjectID)
	assert.Equal(t, RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 2, got.FileCount)
	assert.Equal(t, 1, got.FailedCount)
	assert.Equal(t, 9, got.LineCount)
	assert.True(t, got.StartedAt.Equal(run.StartedAt))

	counts, err := store.CountFacts(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["datasets_created"])
	assert.Equal(t, 1, counts["libraries"])
	assert.Equal(t, 2, counts["procedures"])

	var blocks, queries, edges int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM blocks`).Scan(&blocks))
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM sql_queries`).Scan(&queries))
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM lineage_edges`).Scan(&edges))
	assert.Equal(t, 3, blocks)
	assert.Equal(t, 1, queries)
	assert.Equal(t, 3, edges)
}

func TestSQLiteStore_DuplicateFingerprint(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, ".", "")
	require.NoError(t, err)

	require.NoError(t, store.SaveFile(ctx, run.ID, fileReport(t, "a.sas", program)))
	err = store.SaveFile(ctx, run.ID, fileReport(t, "copy_of_a.sas", program))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateFile))

	// nothing of the rejected file was written
	var files int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&files))
	assert.Equal(t, 1, files)

	// the same content is accepted in another run
	other, err := store.CreateRun(ctx, ".", "")
	require.NoError(t, err)
	assert.NoError(t, store.SaveFile(ctx, other.ID, fileReport(t, "a.sas", program)))
}

func TestSQLiteStore_ListRunsAndHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.CreateRun(ctx, ".", "")
		require.NoError(t, err)
		text := program + strings.Repeat("\n* pass;", i)
		require.NoError(t, store.SaveFile(ctx, run.ID, fileReport(t, "load.sas", text)))
		require.NoError(t, store.CompleteRun(ctx, run.ID, ""))
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	history, err := store.GetFileHistory(ctx, "load.sas")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, ids[2], history[0].RunID)
	assert.Equal(t, 11, history[0].TotalLines)
	assert.Equal(t, 9, history[2].TotalLines)

	none, err := store.GetFileHistory(ctx, "missing.sas")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_CompleteRunErrors(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.CompleteRun(ctx, "no-such-run", ""))

	run, err := store.CreateRun(ctx, ".", "")
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(ctx, run.ID, "interrupted"))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "interrupted", got.Error)

	_, err = store.GetRun(ctx, "no-such-run")
	assert.Error(t, err)
}
