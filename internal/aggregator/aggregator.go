package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/analyzer"
	"github.com/petrarca/sas-analyzer/internal/git"
	"github.com/petrarca/sas-analyzer/internal/lineage"
	"github.com/petrarca/sas-analyzer/internal/metadata"
	"github.com/petrarca/sas-analyzer/internal/scanner"
)

// ValidFields lists the fields accepted by --aggregate besides "all"
var ValidFields = []string{"datasets", "procedures", "macros", "includes", "libraries", "tables", "lineage", "metrics", "git"}

// AggregateOutput represents project-level data rolled up from all files
type AggregateOutput struct {
	Metadata   *metadata.RunMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Git        []*git.GitInfo        `json:"git,omitempty" yaml:"git,omitempty"`               // Git repositories (deduplicated)
	Datasets   []Dataset             `json:"datasets,omitempty" yaml:"datasets,omitempty"`     // Datasets created or read
	Procedures map[string]int        `json:"procedures,omitempty" yaml:"procedures,omitempty"` // PROC name to use count
	Macros     []Macro               `json:"macros,omitempty" yaml:"macros,omitempty"`         // Defined and called macros
	Includes   []string              `json:"includes,omitempty" yaml:"includes,omitempty"`     // %INCLUDE targets
	Libraries  []string              `json:"libraries,omitempty" yaml:"libraries,omitempty"`   // LIBNAME librefs
	Tables     []string              `json:"tables,omitempty" yaml:"tables,omitempty"`         // Dotted table names seen in SQL
	Lineage    []lineage.Node        `json:"lineage,omitempty" yaml:"lineage,omitempty"`       // Dataset graph across files
	Metrics    *Metrics              `json:"metrics,omitempty" yaml:"metrics,omitempty"`       // Summed complexity metrics
	CodeStats  interface{}           `json:"code_stats,omitempty" yaml:"code_stats,omitempty"` // Code statistics (if enabled)
}

// Dataset is a dataset with the files that create and read it
type Dataset struct {
	Name      string               `json:"name" yaml:"name"`
	Type      analyzer.DatasetType `json:"type" yaml:"type"`
	CreatedIn []string             `json:"created_in,omitempty" yaml:"created_in,omitempty"`
	UsedIn    []string             `json:"used_in,omitempty" yaml:"used_in,omitempty"`
}

// Macro is a macro with its definition sites and call count
type Macro struct {
	Name      string   `json:"name" yaml:"name"`
	DefinedIn []string `json:"defined_in,omitempty" yaml:"defined_in,omitempty"`
	Calls     int      `json:"calls" yaml:"calls"`
}

// Metrics sums the per-file complexity metrics
type Metrics struct {
	Files           int    `json:"files" yaml:"files"`
	TotalLines      int    `json:"total_lines" yaml:"total_lines"`
	TotalBlocks     int    `json:"total_blocks" yaml:"total_blocks"`
	TotalProcedures int    `json:"total_procedures" yaml:"total_procedures"`
	TotalMacros     int    `json:"total_macros" yaml:"total_macros"`
	TotalIncludes   int    `json:"total_includes" yaml:"total_includes"`
	ComplexityScore int    `json:"complexity_score" yaml:"complexity_score"`
	MaxComplexity   int    `json:"max_complexity" yaml:"max_complexity"`
	MostComplex     string `json:"most_complex,omitempty" yaml:"most_complex,omitempty"`
}

// Aggregator handles aggregation of scan results
type Aggregator struct {
	fields map[string]bool
}

// ParseFields splits a comma separated field list and expands "all"
func ParseFields(spec string) ([]string, error) {
	var fields []string
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if field == "all" {
			return append([]string{}, ValidFields...), nil
		}
		if !isValidField(field) {
			return nil, fmt.Errorf("invalid aggregate field: %s. Valid fields: %s, all", field, strings.Join(ValidFields, ", "))
		}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no aggregate fields given")
	}
	return fields, nil
}

func isValidField(field string) bool {
	for _, f := range ValidFields {
		if f == field {
			return true
		}
	}
	return false
}

// NewAggregator creates a new aggregator with specified fields
func NewAggregator(fields []string) *Aggregator {
	fieldMap := make(map[string]bool)
	for _, field := range fields {
		fieldMap[field] = true
	}
	return &Aggregator{
		fields: fieldMap,
	}
}

// Aggregate rolls a project up. Failed files contribute nothing.
func (a *Aggregator) Aggregate(project *scanner.Project) *AggregateOutput {
	output := &AggregateOutput{}

	output.Metadata = project.Metadata
	if project.Metadata != nil {
		project.Metadata.SetFormat(metadata.FormatAggregated)
	}

	files := make([]scanner.FileReport, 0, len(project.Files))
	for _, f := range project.Files {
		if !f.Failed() && f.Result != nil {
			files = append(files, f)
		}
	}

	if a.fields["git"] {
		output.Git = a.collectGit(project.Metadata)
	}
	if a.fields["datasets"] {
		output.Datasets = a.collectDatasets(files)
	}
	if a.fields["procedures"] {
		output.Procedures = a.collectProcedures(files)
	}
	if a.fields["macros"] {
		output.Macros = a.collectMacros(files)
	}
	if a.fields["includes"] {
		output.Includes = collectKeys(files, func(r *analyzer.Result) analyzer.FactTable { return r.Includes })
	}
	if a.fields["libraries"] {
		output.Libraries = collectKeys(files, func(r *analyzer.Result) analyzer.FactTable { return r.Libraries })
	}
	if a.fields["tables"] {
		output.Tables = collectKeys(files, func(r *analyzer.Result) analyzer.FactTable { return r.ExternalTables })
	}
	if a.fields["lineage"] {
		output.Lineage = a.collectLineage(files)
	}
	if a.fields["metrics"] {
		output.Metrics = a.collectMetrics(files)
	}

	// Include code stats if present
	if project.CodeStats != nil {
		output.CodeStats = project.CodeStats
	}

	return output
}

// collectDatasets merges created and used datasets across files. The type is
// taken from the name, so a dataset created in one file and read in another
// is reported once.
func (a *Aggregator) collectDatasets(files []scanner.FileReport) []Dataset {
	datasets := make(map[string]*Dataset)
	get := func(name string) *Dataset {
		d, ok := datasets[name]
		if !ok {
			d = &Dataset{Name: name, Type: analyzer.TypeOf(name)}
			datasets[name] = d
		}
		return d
	}

	for _, f := range files {
		f.Result.DatasetsCreated.Each(func(name string, _ []int) {
			d := get(name)
			d.CreatedIn = appendUnique(d.CreatedIn, f.Path)
		})
		f.Result.DatasetsUsed.Each(func(key string, _ []int) {
			if name := lineage.InputDataset(key); name != "" {
				d := get(name)
				d.UsedIn = appendUnique(d.UsedIn, f.Path)
			}
		})
		for _, ct := range f.Result.CreatedTables {
			if ct.Origin == analyzer.OriginSQL {
				d := get(ct.Name)
				d.CreatedIn = appendUnique(d.CreatedIn, f.Path)
			}
		}
	}

	result := make([]Dataset, 0, len(datasets))
	for _, d := range datasets {
		sort.Strings(d.CreatedIn)
		sort.Strings(d.UsedIn)
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (a *Aggregator) collectProcedures(files []scanner.FileReport) map[string]int {
	procedures := make(map[string]int)
	for _, f := range files {
		f.Result.Procedures.Each(func(name string, uses []analyzer.ProcedureUse) {
			procedures[name] += len(uses)
		})
	}
	return procedures
}

func (a *Aggregator) collectMacros(files []scanner.FileReport) []Macro {
	macros := make(map[string]*Macro)
	get := func(name string) *Macro {
		m, ok := macros[name]
		if !ok {
			m = &Macro{Name: name}
			macros[name] = m
		}
		return m
	}

	for _, f := range files {
		f.Result.MacrosDefined.Each(func(name string, _ *analyzer.MacroDefinition) {
			m := get(name)
			m.DefinedIn = appendUnique(m.DefinedIn, f.Path)
		})
		f.Result.MacrosCalled.Each(func(name string, lines []int) {
			get(name).Calls += len(lines)
		})
	}

	result := make([]Macro, 0, len(macros))
	for _, m := range macros {
		sort.Strings(m.DefinedIn)
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// collectLineage folds the edges of all files into one graph
func (a *Aggregator) collectLineage(files []scanner.FileReport) []lineage.Node {
	var edges []lineage.Edge
	for _, f := range files {
		edges = append(edges, f.Lineage...)
	}
	return lineage.Nodes(edges)
}

func (a *Aggregator) collectMetrics(files []scanner.FileReport) *Metrics {
	m := &Metrics{}
	for _, f := range files {
		cm := f.Result.Metrics
		m.Files++
		m.TotalLines += cm.TotalLines
		m.TotalBlocks += cm.TotalBlocks
		m.TotalProcedures += cm.TotalProcedures
		m.TotalMacros += cm.TotalMacros
		m.TotalIncludes += cm.TotalIncludes
		m.ComplexityScore += cm.ComplexityScore
		if cm.ComplexityScore > m.MaxComplexity {
			m.MaxComplexity = cm.ComplexityScore
			m.MostComplex = f.Path
		}
	}
	return m
}

// collectGit collects the unique git repositories of the scanned paths
func (a *Aggregator) collectGit(meta *metadata.RunMetadata) []*git.GitInfo {
	if meta == nil {
		return nil
	}

	// Key format: "remote_url|branch|commit"
	gitMap := make(map[string]*git.GitInfo)
	for _, p := range meta.Paths {
		info := git.GetGitInfo(p)
		if info == nil {
			continue
		}
		key := info.RemoteURL + "|" + info.Branch + "|" + info.Commit
		gitMap[key] = info
	}

	gitRepos := make([]*git.GitInfo, 0, len(gitMap))
	for _, gitInfo := range gitMap {
		gitRepos = append(gitRepos, gitInfo)
	}

	// Sort by remote URL, then branch, then commit
	sort.Slice(gitRepos, func(i, j int) bool {
		if gitRepos[i].RemoteURL != gitRepos[j].RemoteURL {
			return gitRepos[i].RemoteURL < gitRepos[j].RemoteURL
		}
		if gitRepos[i].Branch != gitRepos[j].Branch {
			return gitRepos[i].Branch < gitRepos[j].Branch
		}
		return gitRepos[i].Commit < gitRepos[j].Commit
	})

	return gitRepos
}

// collectKeys returns the sorted union of one fact table's keys
func collectKeys(files []scanner.FileReport, table func(*analyzer.Result) analyzer.FactTable) []string {
	set := make(map[string]bool)
	for _, f := range files {
		for _, key := range table(f.Result).Keys() {
			set[key] = true
		}
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	return sortStrings(keys)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// sortStrings sorts a slice of strings in place and returns it
func sortStrings(s []string) []string {
	sort.Strings(s)
	return s
}
