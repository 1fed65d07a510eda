package analyzer

// LineKind is the classification of a single source line
type LineKind string

const (
	KindInclude    LineKind = "INCLUDE"
	KindDataStep   LineKind = "DATA_STEP"
	KindProcedure  LineKind = "PROCEDURE"
	KindMacroDef   LineKind = "MACRO_DEF"
	KindMacroCall  LineKind = "MACRO_CALL"
	KindLibrary    LineKind = "LIBRARY"
	KindODS        LineKind = "ODS"
	KindTerminator LineKind = "TERMINATOR"
	KindStatement  LineKind = "STATEMENT"
)

// SourceLine is the immutable classification record of one input line
type SourceLine struct {
	Number     int      `json:"number" yaml:"number"`
	Raw        string   `json:"raw" yaml:"raw"`
	Normalized string   `json:"normalized" yaml:"normalized"`
	Kind       LineKind `json:"kind" yaml:"kind"`
}

// BlockKind identifies the structural unit a Block represents
type BlockKind string

const (
	BlockData  BlockKind = "DATA"
	BlockProc  BlockKind = "PROC"
	BlockMacro BlockKind = "MACRO"
)

// UnknownDataset is reported for a PROC step without a DATA= option
const UnknownDataset = "UNKNOWN"

// Block is a DATA step, PROC step or macro definition span. EndLine is 0 while
// the block is open.
type Block struct {
	Kind         BlockKind `json:"kind" yaml:"kind"`
	Name         string    `json:"name" yaml:"name"`
	StartLine    int       `json:"start_line" yaml:"start_line"`
	EndLine      int       `json:"end_line" yaml:"end_line"`
	Datasets     []string  `json:"datasets,omitempty" yaml:"datasets,omitempty"`
	ProcName     string    `json:"proc_name,omitempty" yaml:"proc_name,omitempty"`
	Dataset      string    `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	MacroName    string    `json:"macro_name,omitempty" yaml:"macro_name,omitempty"`
	Parameters   string    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Unterminated bool      `json:"unterminated,omitempty" yaml:"unterminated,omitempty"`
}

// Size returns the number of lines spanned by a closed block
func (b Block) Size() int {
	if b.EndLine == 0 {
		return 0
	}
	return b.EndLine - b.StartLine + 1
}

// MacroDefinition records a %MACRO definition. EndLine stays 0 when no
// matching %MEND was seen.
type MacroDefinition struct {
	Name       string `json:"name" yaml:"name"`
	Line       int    `json:"line" yaml:"line"`
	EndLine    int    `json:"end_line" yaml:"end_line"`
	Parameters string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Parent     string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// ProcedureUse is one occurrence of a PROC step
type ProcedureUse struct {
	Line    int    `json:"line" yaml:"line"`
	Dataset string `json:"dataset" yaml:"dataset"`
}

// DatasetType distinguishes WORK-library datasets from library-qualified ones
type DatasetType string

const (
	Temporary DatasetType = "Temporary"
	Permanent DatasetType = "Permanent"
)

// SQLQuery is the text of one terminated PROC SQL block
type SQLQuery struct {
	StartLine        int         `json:"start_line" yaml:"start_line"`
	EndLine          int         `json:"end_line" yaml:"end_line"`
	Query            string      `json:"query" yaml:"query"`
	TablesReferenced []string    `json:"tables_referenced" yaml:"tables_referenced"`
	CreatedTableName string      `json:"created_table_name,omitempty" yaml:"created_table_name,omitempty"`
	CreatedTableType DatasetType `json:"created_table_type,omitempty" yaml:"created_table_type,omitempty"`
}

// Table origins
const (
	OriginData = "DATA"
	OriginSQL  = "SQL"
)

// CreatedTable is a dataset written by a DATA statement or a CREATE TABLE
type CreatedTable struct {
	Name   string      `json:"name" yaml:"name"`
	Type   DatasetType `json:"type" yaml:"type"`
	Line   int         `json:"line" yaml:"line"`
	Origin string      `json:"origin" yaml:"origin"`
}

// Timestamp is a date-time literal found in the raw source
type Timestamp struct {
	Value string `json:"value" yaml:"value"`
	Line  int    `json:"line" yaml:"line"`
}

// ComplexityMetrics summarises a completed analysis
type ComplexityMetrics struct {
	TotalBlocks       int `json:"total_blocks" yaml:"total_blocks"`
	TotalDatasets     int `json:"total_datasets" yaml:"total_datasets"`
	TotalProcedures   int `json:"total_procedures" yaml:"total_procedures"`
	TotalMacros       int `json:"total_macros" yaml:"total_macros"`
	TotalIncludes     int `json:"total_includes" yaml:"total_includes"`
	TotalSysFunctions int `json:"total_sys_functions" yaml:"total_sys_functions"`
	TotalLines        int `json:"total_lines" yaml:"total_lines"`
	ComplexityScore   int `json:"complexity_score" yaml:"complexity_score"`
}

// NotSpecified is reported for a PROC IMPORT/EXPORT option that is absent
const NotSpecified = "Not specified"

// ProcImportDetail holds the options of a PROC IMPORT block
type ProcImportDetail struct {
	Line     int    `json:"line" yaml:"line"`
	Out      string `json:"out" yaml:"out"`
	DBMS     string `json:"dbms" yaml:"dbms"`
	Datafile string `json:"datafile" yaml:"datafile"`
}

// ProcExportDetail holds the options of a PROC EXPORT block
type ProcExportDetail struct {
	Line    int    `json:"line" yaml:"line"`
	Data    string `json:"data" yaml:"data"`
	DBMS    string `json:"dbms" yaml:"dbms"`
	Outfile string `json:"outfile" yaml:"outfile"`
}

// DataStepDetail summarises a closed DATA step block
type DataStepDetail struct {
	Name       string      `json:"name" yaml:"name"`
	Type       DatasetType `json:"type" yaml:"type"`
	Line       int         `json:"line" yaml:"line"`
	Size       int         `json:"size" yaml:"size"`
	Operations []string    `json:"operations" yaml:"operations"`
}

// Warning records a line whose processing failed. The pass continues after it.
type Warning struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

// Result is the complete output of one analysis. It is owned by the caller
// once Analyze returns.
type Result struct {
	Source string       `json:"source,omitempty" yaml:"source,omitempty"`
	Lines  []SourceLine `json:"lines,omitempty" yaml:"lines,omitempty"`
	Blocks []Block      `json:"blocks" yaml:"blocks"`

	DatasetsCreated FactTable                    `json:"datasets_created" yaml:"datasets_created"`
	DatasetsUsed    FactTable                    `json:"datasets_used" yaml:"datasets_used"`
	Procedures      OrderedMap[[]ProcedureUse]   `json:"procedures" yaml:"procedures"`
	MacrosDefined   OrderedMap[*MacroDefinition] `json:"macros_defined" yaml:"macros_defined"`
	MacrosCalled    FactTable                    `json:"macros_called" yaml:"macros_called"`
	NestedMacros    OrderedMap[[]string]         `json:"nested_macros" yaml:"nested_macros"`
	SQLStatements   FactTable                    `json:"sql_statements" yaml:"sql_statements"`
	SQLQueries      []SQLQuery                   `json:"sql_queries" yaml:"sql_queries"`
	CreatedTables   []CreatedTable               `json:"created_tables" yaml:"created_tables"`
	ExternalTables  FactTable                    `json:"external_tables" yaml:"external_tables"`

	ControlStructures  FactTable `json:"control_structures" yaml:"control_structures"`
	FileOperations     FactTable `json:"file_operations" yaml:"file_operations"`
	Libraries          FactTable `json:"libraries" yaml:"libraries"`
	VariableOperations FactTable `json:"variable_operations" yaml:"variable_operations"`
	Includes           FactTable `json:"includes" yaml:"includes"`
	SystemFunctions    FactTable `json:"system_functions" yaml:"system_functions"`
	CallRoutines       FactTable `json:"call_routines" yaml:"call_routines"`
	Formats            FactTable `json:"formats" yaml:"formats"`
	HashObjects        FactTable `json:"hash_objects" yaml:"hash_objects"`
	ODSStatements      FactTable `json:"ods_statements" yaml:"ods_statements"`

	Timestamps     []Timestamp `json:"timestamps" yaml:"timestamps"`
	TimeframeStart *Timestamp  `json:"timeframe_start,omitempty" yaml:"timeframe_start,omitempty"`
	TimeframeEnd   *Timestamp  `json:"timeframe_end,omitempty" yaml:"timeframe_end,omitempty"`

	ProcImports []ProcImportDetail `json:"proc_imports" yaml:"proc_imports"`
	ProcExports []ProcExportDetail `json:"proc_exports" yaml:"proc_exports"`
	DataSteps   []DataStepDetail   `json:"data_steps" yaml:"data_steps"`

	// UnterminatedSQLStart is the start line of a PROC SQL block still open at
	// end of input, 0 when none. Its buffered text is not emitted.
	UnterminatedSQLStart int `json:"unterminated_sql_start,omitempty" yaml:"unterminated_sql_start,omitempty"`

	Metrics  ComplexityMetrics `json:"metrics" yaml:"metrics"`
	Warnings []Warning         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// newResult returns a Result with all list fields non-nil so that empty input
// encodes as empty collections rather than null.
func newResult(source string) *Result {
	return &Result{
		Source:        source,
		Lines:         []SourceLine{},
		Blocks:        []Block{},
		SQLQueries:    []SQLQuery{},
		CreatedTables: []CreatedTable{},
		Timestamps:    []Timestamp{},
		ProcImports:   []ProcImportDetail{},
		ProcExports:   []ProcExportDetail{},
		DataSteps:     []DataStepDetail{},
	}
}
