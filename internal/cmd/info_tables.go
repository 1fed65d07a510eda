package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petrarca/sas-analyzer/internal/analyzer"
	"github.com/petrarca/sas-analyzer/internal/matchers"
	"github.com/petrarca/sas-analyzer/internal/report"
	"github.com/petrarca/sas-analyzer/internal/rules"
	"github.com/petrarca/sas-analyzer/internal/types"
)

var (
	tablesFormat   string
	tablesOutput   string
	tablesRulesDir string
	tableFormat    string
	tableRulesDir  string
	tableMatch     string
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the pattern tables",
	Long:  `List the built-in pattern tables, overlaid with those of --rules-dir.`,
	Args:  cobra.NoArgs,
	Run:   runTables,
}

var tableCmd = &cobra.Command{
	Use:   "table [name]",
	Short: "Show a pattern table",
	Long: `Display the definition of a pattern table. With --match the table is
applied to the given line and the fact keys it produces are shown.

Examples:
  sas-analyzer info table formats
  sas-analyzer info table file_operations --match "FILENAME IN '/data/in.csv';"`,
	Args: cobra.ExactArgs(1),
	Run:  runTable,
}

func init() {
	setupOutputFlags(tablesCmd, &tablesFormat, &tablesOutput, "text")
	tablesCmd.Flags().StringVar(&tablesRulesDir, "rules-dir", settings.RulesDir, "Directory with pattern tables overriding the built-in ones")

	setupFormatFlag(tableCmd, &tableFormat, "yaml")
	tableCmd.Flags().StringVar(&tableRulesDir, "rules-dir", settings.RulesDir, "Directory with pattern tables overriding the built-in ones")
	tableCmd.Flags().StringVar(&tableMatch, "match", "", "Apply the table to this line")
}

// TableInfo summarizes one pattern table
type TableInfo struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind" yaml:"kind"`
	Entries     int    `json:"entries" yaml:"entries"`
	KeyPrefix   string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// TablesResult is the output for the tables command
type TablesResult struct {
	Tables []TableInfo `json:"tables" yaml:"tables"`
}

func (r *TablesResult) ToJSON() interface{} {
	return r
}

func (r *TablesResult) ToText(rr *report.Renderer) {
	rr.Heading("Pattern Tables")
	rows := make([][]any, 0, len(r.Tables))
	for _, t := range r.Tables {
		rows = append(rows, []any{t.Name, t.Kind, t.Entries, t.KeyPrefix, t.Description})
	}
	rr.Table([]string{"NAME", "KIND", "ENTRIES", "PREFIX", "DESCRIPTION"}, rows, "no tables")
	rr.Printf("Total: %d tables\n", len(r.Tables))
}

// tableEntries counts the rules or words of a table
func tableEntries(t *types.PatternTable) int {
	if t.Kind == types.TableKindWordSet {
		return len(t.Keywords)
	}
	return len(t.Expand())
}

func buildTablesResult(rulesDir string) (*TablesResult, error) {
	defs, err := rules.LoadTables(rulesDir)
	if err != nil {
		return nil, err
	}

	infos := make([]TableInfo, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		infos = append(infos, TableInfo{
			Name:        def.Name,
			Kind:        def.Kind,
			Entries:     tableEntries(def),
			KeyPrefix:   def.KeyPrefix,
			Description: def.Description,
		})
	}
	return &TablesResult{Tables: infos}, nil
}

func runTables(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)
	result, err := buildTablesResult(tablesRulesDir)
	exitOnError(logger, "Failed to load pattern tables", err)
	exitOnError(logger, "Failed to write output", OutputToFile(result, tablesFormat, tablesOutput, true))
}

// TableResult is the output for the table command
type TableResult struct {
	Table   types.PatternTable `json:"table" yaml:"table"`
	Line    string             `json:"line,omitempty" yaml:"line,omitempty"`
	Matches []string           `json:"matches,omitempty" yaml:"matches,omitempty"`
}

func (r *TableResult) ToJSON() interface{} {
	return r
}

func (r *TableResult) ToText(rr *report.Renderer) {
	t := &r.Table
	rr.Heading("Table " + t.Name)
	rr.Field("Kind", t.Kind)
	if t.Description != "" {
		rr.Field("Description", t.Description)
	}
	if t.KeyPrefix != "" {
		rr.Field("Key prefix", t.KeyPrefix)
	}
	if t.Capture != "" {
		rr.Field("Capture", t.Capture)
	}
	rr.Println()

	if t.Kind == types.TableKindWordSet {
		rr.Section("Words")
		rr.Println("  " + strings.Join(t.Keywords, ", "))
		rr.Println()
	} else {
		rows := make([][]any, 0)
		for _, rule := range t.Expand() {
			rows = append(rows, []any{rule.Tag, t.CaptureMode(rule), rule.Pattern})
		}
		rr.Table([]string{"TAG", "CAPTURE", "PATTERN"}, rows, "")
	}

	if r.Line != "" {
		rr.Section("Matches for " + r.Line)
		if len(r.Matches) == 0 {
			rr.Println("  none")
		}
		for _, m := range r.Matches {
			rr.Println("  " + m)
		}
		rr.Println()
	}
}

func buildTableResult(name, rulesDir, line string) (*TableResult, error) {
	defs, err := rules.LoadTables(rulesDir)
	if err != nil {
		return nil, err
	}

	var def *types.PatternTable
	for i := range defs {
		if defs[i].Name == name {
			def = &defs[i]
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("table not found: %s", name)
	}

	result := &TableResult{Table: *def}
	if line == "" {
		return result, nil
	}

	compiled, err := matchers.CompileTable(*def)
	if err != nil {
		return nil, err
	}
	result.Line = line
	compiled.Apply(analyzer.Normalize(line), func(key string) {
		result.Matches = append(result.Matches, key)
	})
	return result, nil
}

func runTable(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)
	result, err := buildTableResult(args[0], tableRulesDir, tableMatch)
	exitOnError(logger, "Failed to show table", err)
	exitOnError(logger, "Failed to write output", Output(result, tableFormat))
}
