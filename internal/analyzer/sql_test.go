package analyzer

import (
	"testing"

	"github.com/petrarca/sas-analyzer/internal/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reservedWords(t *testing.T) *matchers.Table {
	t.Helper()
	set, err := matchers.Default()
	require.NoError(t, err)
	return set.Table("sql_reserved_words")
}

func TestReferencedTables(t *testing.T) {
	reserved := reservedWords(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "join and subquery dedupe",
			query: "SELECT A.ID FROM LIB.A A INNER JOIN WORK.B B ON A.ID = B.ID WHERE X IN (SELECT ID FROM LIB.A)",
			want:  []string{"LIB.A", "WORK.B"},
		},
		{
			name:  "insert and update",
			query: "insert into lib.target select * from stage; update lib.target set x = 1",
			want:  []string{"STAGE", "LIB.TARGET"},
		},
		{
			name:  "create or replace view",
			query: "CREATE OR REPLACE VIEW V1 AS SELECT * FROM DB.SCHEMA.T",
			want:  []string{"DB.SCHEMA.T", "V1"},
		},
		{
			name:  "from targets come before join and create targets",
			query: "CREATE TABLE WORK.T1 AS SELECT * FROM RAW.SRC S JOIN RAW.DIM D ON S.ID = D.ID LEFT JOIN RAW.SRC X ON 1=1",
			want:  []string{"RAW.SRC", "RAW.DIM", "WORK.T1"},
		},
		{
			name:  "reserved word is not a table",
			query: "DELETE FROM WHERE",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReferencedTables(tt.query, reserved))
		})
	}
}

func TestCreatedTableNames(t *testing.T) {
	assert.Equal(t, []string{"LIB.X"}, CreatedTableNames("create or replace table lib.x as select 1"))
	assert.Equal(t, []string{"A", "B"}, CreatedTableNames("CREATE TABLE A AS SELECT 1; CREATE TABLE B (ID NUM);"))
	assert.Nil(t, CreatedTableNames("SELECT * FROM A"))
}

func TestTypeOf(t *testing.T) {
	tests := map[string]DatasetType{
		"CLAIMS":      Temporary,
		"WORK.CLAIMS": Temporary,
		"work.claims": Temporary,
		".CLAIMS":     Temporary,
		"LIB.CLAIMS":  Permanent,
		"DB.S.T":      Permanent,
	}
	for name, want := range tests {
		assert.Equal(t, want, TypeOf(name), name)
	}
}

func TestSQLQueryTextStaysInsideBlock(t *testing.T) {
	res := Analyze([]string{
		"SELECT OUTSIDE FROM BEFORE;",
		"PROC SQL NOPRINT;",
		"  SELECT COUNT(*) INTO :N",
		"",
		"  /* row count */",
		"  FROM LIB.FACTS;",
		"QUIT;",
		"SELECT OUTSIDE FROM AFTER;",
	})

	require.Len(t, res.SQLQueries, 1)
	q := res.SQLQueries[0]
	assert.Equal(t, 2, q.StartLine)
	assert.Equal(t, 7, q.EndLine)
	assert.Equal(t, "SELECT COUNT(*) INTO :N FROM LIB.FACTS;", q.Query)
	assert.NotContains(t, q.Query, "OUTSIDE")
	assert.Equal(t, []string{"LIB.FACTS"}, q.TablesReferenced)
	assert.Empty(t, q.CreatedTableName)
	assert.Empty(t, q.CreatedTableType)
}

func TestExternalTablesOnlyInsideSQL(t *testing.T) {
	res := Analyze([]string{
		"DATA MART.OUT;",                  // 1
		"  SET DB.STAGE.ORDERS;",          // 2
		"RUN;",                            // 3
		"PROC SQL;",                       // 4
		"  SELECT * FROM DB.STAGE.ORDERS", // 5
		"  JOIN CUSTOMERS USING (ID);",    // 6
		"QUIT;",                           // 7
	})

	assert.Equal(t, []string{"DB.STAGE.ORDERS"}, res.ExternalTables.Keys())
	lines, ok := res.ExternalTables.Get("DB.STAGE.ORDERS")
	require.True(t, ok)
	assert.Equal(t, []int{5}, lines)
	assert.False(t, res.ExternalTables.Has("CUSTOMERS"), "single-part names are not external")
}
