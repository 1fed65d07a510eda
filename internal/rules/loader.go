package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed all:tables
var coreTablesFS embed.FS

// LoadEmbeddedTables loads all pattern tables from the embedded filesystem
func LoadEmbeddedTables() ([]types.PatternTable, error) {
	var tables []types.PatternTable

	err := fs.WalkDir(coreTablesFS, "tables", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		content, err := coreTablesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read table file %s: %w", path, err)
		}

		table, err := parseTable(path, content)
		if err != nil {
			return err
		}
		tables = append(tables, table)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk embedded tables: %w", err)
	}

	return tables, nil
}

// LoadExternalTables loads pattern tables from an external directory
func LoadExternalTables(dir string) ([]types.PatternTable, error) {
	var tables []types.PatternTable

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read table file %s: %w", path, err)
		}

		table, err := parseTable(path, content)
		if err != nil {
			return err
		}
		tables = append(tables, table)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk external tables: %w", err)
	}

	return tables, nil
}

// LoadTables loads the embedded tables and, when dir is set, overlays the tables
// found there. An external table replaces the embedded table of the same name.
// The result is sorted by table name.
func LoadTables(dir string) ([]types.PatternTable, error) {
	tables, err := LoadEmbeddedTables()
	if err != nil {
		return nil, err
	}

	if dir != "" {
		external, err := LoadExternalTables(dir)
		if err != nil {
			return nil, err
		}
		tables = Merge(tables, external)
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

// Merge overlays tables on base by name
func Merge(base, overlay []types.PatternTable) []types.PatternTable {
	byName := make(map[string]int, len(base))
	merged := make([]types.PatternTable, len(base))
	copy(merged, base)
	for i, t := range merged {
		byName[t.Name] = i
	}

	for _, t := range overlay {
		if i, ok := byName[t.Name]; ok {
			merged[i] = t
			continue
		}
		byName[t.Name] = len(merged)
		merged = append(merged, t)
	}
	return merged
}

func parseTable(path string, content []byte) (types.PatternTable, error) {
	var table types.PatternTable
	if err := yaml.Unmarshal(content, &table); err != nil {
		return table, fmt.Errorf("failed to parse table file %s: %w", path, err)
	}

	// Derive name from file name if not specified
	if table.Name == "" {
		table.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := table.Validate(); err != nil {
		return table, fmt.Errorf("invalid table in %s: %w", path, err)
	}
	return table, nil
}

func isYAML(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
