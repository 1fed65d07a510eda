// Package lineage derives dataset-level data flow from an analysis result.
//
// A WRITE edge means data flows from Source into Target; Source is empty for
// a step that writes without reading anything (DATA X; INPUT ...). A READ edge
// means Source is consumed without producing a dataset (PROC PRINT DATA=X,
// DATA _NULL_, a SELECT without CREATE TABLE); Target is empty.
package lineage

import (
	"sort"
	"strings"

	"github.com/petrarca/sas-analyzer/internal/analyzer"
)

// Edge kinds
const (
	KindRead  = "READ"
	KindWrite = "WRITE"
)

// Edge origins
const (
	OriginData = "DATA"
	OriginProc = "PROC"
	OriginSQL  = "SQL"
)

// nullDataset is the DATA step target that writes no dataset
const nullDataset = "_NULL_"

var inputPrefixes = []string{"SET_", "MERGE_", "UPDATE_"}

// Edge is one dataset flow
type Edge struct {
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	Kind   string `json:"kind" yaml:"kind"`
	Line   int    `json:"line" yaml:"line"`
	Origin string `json:"origin" yaml:"origin"`
	Step   string `json:"step" yaml:"step"`
}

// Build returns the edges of res ordered by line, origin, source and target.
// Identical edges are reported once.
func Build(res *analyzer.Result) []Edge {
	b := &builder{seen: make(map[Edge]bool), edges: []Edge{}}

	for _, block := range res.Blocks {
		if block.Kind == analyzer.BlockData {
			b.dataStep(block, inputsWithin(res, block))
		}
	}

	res.Procedures.Each(func(name string, uses []analyzer.ProcedureUse) {
		for _, use := range uses {
			if use.Dataset == analyzer.UnknownDataset {
				continue
			}
			b.add(Edge{Source: use.Dataset, Kind: KindRead, Line: use.Line, Origin: OriginProc, Step: "PROC " + name})
		}
	})

	for _, q := range res.SQLQueries {
		b.sqlQuery(q)
	}

	sort.SliceStable(b.edges, func(i, j int) bool {
		x, y := b.edges[i], b.edges[j]
		if x.Line != y.Line {
			return x.Line < y.Line
		}
		if x.Origin != y.Origin {
			return x.Origin < y.Origin
		}
		if x.Source != y.Source {
			return x.Source < y.Source
		}
		return x.Target < y.Target
	})
	return b.edges
}

type builder struct {
	seen  map[Edge]bool
	edges []Edge
}

func (b *builder) add(e Edge) {
	if b.seen[e] {
		return
	}
	b.seen[e] = true
	b.edges = append(b.edges, e)
}

func (b *builder) dataStep(block analyzer.Block, inputs []string) {
	var outputs []string
	for _, ds := range block.Datasets {
		if !strings.EqualFold(ds, nullDataset) {
			outputs = append(outputs, ds)
		}
	}

	for _, out := range outputs {
		if len(inputs) == 0 {
			b.add(Edge{Target: out, Kind: KindWrite, Line: block.StartLine, Origin: OriginData, Step: block.Name})
			continue
		}
		for _, in := range inputs {
			b.add(Edge{Source: in, Target: out, Kind: KindWrite, Line: block.StartLine, Origin: OriginData, Step: block.Name})
		}
	}

	if len(outputs) == 0 {
		for _, in := range inputs {
			b.add(Edge{Source: in, Kind: KindRead, Line: block.StartLine, Origin: OriginData, Step: block.Name})
		}
	}
}

func (b *builder) sqlQuery(q analyzer.SQLQuery) {
	created := strings.ToUpper(q.CreatedTableName)

	var sources []string
	for _, table := range q.TablesReferenced {
		if strings.ToUpper(table) != created {
			sources = append(sources, strings.ToUpper(table))
		}
	}

	if created == "" {
		for _, src := range sources {
			b.add(Edge{Source: src, Kind: KindRead, Line: q.StartLine, Origin: OriginSQL, Step: "PROC SQL"})
		}
		return
	}
	if len(sources) == 0 {
		b.add(Edge{Target: created, Kind: KindWrite, Line: q.StartLine, Origin: OriginSQL, Step: "PROC SQL"})
		return
	}
	for _, src := range sources {
		b.add(Edge{Source: src, Target: created, Kind: KindWrite, Line: q.StartLine, Origin: OriginSQL, Step: "PROC SQL"})
	}
}

// inputsWithin returns the datasets read by SET, MERGE or UPDATE inside a
// block, in first-seen order
func inputsWithin(res *analyzer.Result, block analyzer.Block) []string {
	type hit struct {
		name string
		line int
	}
	var hits []hit
	res.DatasetsUsed.Each(func(key string, lines []int) {
		name := InputDataset(key)
		if name == "" {
			return
		}
		for _, line := range lines {
			if line >= block.StartLine && line <= block.EndLine {
				hits = append(hits, hit{name: name, line: line})
				break
			}
		}
	})
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].line < hits[j].line })

	seen := make(map[string]bool)
	var inputs []string
	for _, h := range hits {
		if !seen[h.name] {
			seen[h.name] = true
			inputs = append(inputs, h.name)
		}
	}
	return inputs
}

// InputDataset returns the dataset named by a DatasetsUsed key such as
// SET_WORK.A, or "" when the key does not denote an input
func InputDataset(key string) string {
	for _, prefix := range inputPrefixes {
		if strings.HasPrefix(key, prefix) {
			return strings.TrimPrefix(key, prefix)
		}
	}
	return ""
}

// Node is a dataset with its direct neighbours in the lineage graph
type Node struct {
	Name       string   `json:"name" yaml:"name"`
	Upstream   []string `json:"upstream" yaml:"upstream"`
	Downstream []string `json:"downstream" yaml:"downstream"`
	ReadBy     []string `json:"read_by,omitempty" yaml:"read_by,omitempty"`
}

// Nodes folds edges into one node per dataset, sorted by name
func Nodes(edges []Edge) []Node {
	nodes := make(map[string]*Node)
	get := func(name string) *Node {
		n, ok := nodes[name]
		if !ok {
			n = &Node{Name: name, Upstream: []string{}, Downstream: []string{}}
			nodes[name] = n
		}
		return n
	}

	for _, e := range edges {
		switch {
		case e.Source != "" && e.Target != "":
			get(e.Source).Downstream = appendUnique(get(e.Source).Downstream, e.Target)
			get(e.Target).Upstream = appendUnique(get(e.Target).Upstream, e.Source)
		case e.Target != "":
			get(e.Target)
		case e.Source != "":
			get(e.Source).ReadBy = appendUnique(get(e.Source).ReadBy, e.Step)
		}
	}

	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		sort.Strings(n.Upstream)
		sort.Strings(n.Downstream)
		sort.Strings(n.ReadBy)
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
