package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petrarca/sas-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedTables(t *testing.T) {
	tables, err := LoadEmbeddedTables()
	require.NoError(t, err)
	require.NotEmpty(t, tables)

	names := make(map[string]types.PatternTable)
	for _, table := range tables {
		names[table.Name] = table
	}

	for _, want := range []string{
		"control_structures", "file_operations", "variable_operations", "dataset_usage",
		"sql_keywords", "system_functions", "call_routines", "formats", "hash_objects",
		"ods_destinations", "timestamps", "data_step_operations", "macro_exclusions",
		"sql_reserved_words",
	} {
		assert.Contains(t, names, want)
	}

	calls := names["call_routines"]
	assert.Equal(t, "CALL_", calls.KeyPrefix)
	assert.Contains(t, calls.Keywords, "SYMPUTX")
}

func TestLoadTablesOverlay(t *testing.T) {
	dir := t.TempDir()
	overlay := `name: ods_destinations
kind: keywords
key_prefix: ODS_
template: '\bODS\s+%s\b'
keywords: [HTML]
`
	extra := `kind: patterns
patterns:
  - tag: DSN
    pattern: '\bDSN\s*='
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ods.yaml"), []byte(overlay), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "connections.yml"), []byte(extra), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	tables, err := LoadTables(dir)
	require.NoError(t, err)

	var ods, conn *types.PatternTable
	for i := range tables {
		switch tables[i].Name {
		case "ods_destinations":
			ods = &tables[i]
		case "connections":
			conn = &tables[i]
		}
	}

	require.NotNil(t, ods)
	assert.Equal(t, []string{"HTML"}, ods.Keywords)
	require.NotNil(t, conn, "name should be derived from the file name")
	assert.Equal(t, "DSN", conn.Patterns[0].Tag)

	for i := 1; i < len(tables); i++ {
		assert.Less(t, tables[i-1].Name, tables[i].Name)
	}
}

func TestLoadExternalTablesInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown kind", "name: x\nkind: regex\n", "unknown kind"},
		{"missing patterns", "name: x\nkind: patterns\n", "patterns are required"},
		{"bad template", "name: x\nkind: keywords\ntemplate: 'foo'\nkeywords: [A]\n", "template"},
		{"bad yaml", "name: [x\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "t.yaml"), []byte(tt.content), 0644))

			_, err := LoadExternalTables(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
