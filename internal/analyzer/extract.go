package analyzer

import (
	"regexp"
	"strings"
)

var (
	dataCreatedRe = regexp.MustCompile(`\bDATA\s+([A-Z_][A-Z0-9_.]*(?:\s+[A-Z_][A-Z0-9_.]*)*)`)
	procUseRe     = regexp.MustCompile(`\bPROC\s+([A-Z]+)(?:\s+DATA\s*=\s*([A-Z_][A-Z0-9_.]*))?`)
	libnameRe     = regexp.MustCompile(`\bLIBNAME\s+([A-Z_][A-Z0-9_]*)`)
	includeRe     = regexp.MustCompile(`%INCLUDE\s*["']([^"']+)["']|%INCLUDE\s*([^;]+);?`)
)

// extract runs every feature extractor over one non-blank line
func (p *pass) extract(num int, line string) {
	res := p.res
	add := func(table *FactTable) func(string) {
		return func(key string) { Append(table, key, num) }
	}

	p.extractDatasets(num, line)

	if m := procUseRe.FindStringSubmatch(line); m != nil {
		dataset := m[2]
		if dataset == "" {
			dataset = UnknownDataset
		}
		Append(&res.Procedures, m[1], ProcedureUse{Line: num, Dataset: dataset})
	}

	p.macros.feed(num, line, res)

	p.tables.sqlKeywords.Apply(line, add(&res.SQLStatements))
	p.tables.control.Apply(line, add(&res.ControlStructures))
	p.tables.fileOps.Apply(line, add(&res.FileOperations))
	if m := libnameRe.FindStringSubmatch(line); m != nil {
		Append(&res.Libraries, m[1], num)
	}
	p.tables.variables.Apply(line, add(&res.VariableOperations))

	for _, m := range includeRe.FindAllStringSubmatch(line, -1) {
		target := m[1]
		if target == "" {
			target = strings.Trim(strings.TrimSpace(m[2]), `"'`)
		}
		if target != "" {
			Append(&res.Includes, target, num)
		}
	}

	p.tables.sysFunctions.Apply(line, add(&res.SystemFunctions))
	p.tables.callRoutines.Apply(line, add(&res.CallRoutines))
	p.tables.formats.Apply(line, add(&res.Formats))
	p.tables.hashObjects.Apply(line, add(&res.HashObjects))
	p.tables.ods.Apply(line, add(&res.ODSStatements))
}

// extractDatasets records DATA statement outputs and SET/MERGE/UPDATE inputs
func (p *pass) extractDatasets(num int, line string) {
	res := p.res

	if m := dataCreatedRe.FindStringSubmatch(line); m != nil {
		for _, ds := range strings.Fields(m[1]) {
			Append(&res.DatasetsCreated, ds, num)
			res.CreatedTables = append(res.CreatedTables, CreatedTable{
				Name:   ds,
				Type:   TypeOf(ds),
				Line:   num,
				Origin: OriginData,
			})
		}
	}

	p.tables.datasetUsage.Apply(line, func(key string) { Append(&res.DatasetsUsed, key, num) })
}

// extractTimestamps scans the raw text of a code line, comments included, for
// date-time literals and widens the timeframe. Values compare as strings.
func (p *pass) extractTimestamps(num int, raw string) {
	res := p.res
	p.tables.timestamps.Apply(raw, func(value string) {
		ts := Timestamp{Value: value, Line: num}
		res.Timestamps = append(res.Timestamps, ts)
		if res.TimeframeStart == nil || value < res.TimeframeStart.Value {
			start := ts
			res.TimeframeStart = &start
		}
		if res.TimeframeEnd == nil || value > res.TimeframeEnd.Value {
			end := ts
			res.TimeframeEnd = &end
		}
	})
}
