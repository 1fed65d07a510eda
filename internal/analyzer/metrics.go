package analyzer

// computeMetrics counts distinct keys of the fact tables and the closed blocks
func computeMetrics(res *Result) ComplexityMetrics {
	m := ComplexityMetrics{
		TotalBlocks:       len(res.Blocks),
		TotalDatasets:     res.DatasetsCreated.Len() + res.DatasetsUsed.Len(),
		TotalProcedures:   res.Procedures.Len(),
		TotalMacros:       res.MacrosDefined.Len() + res.MacrosCalled.Len(),
		TotalIncludes:     res.Includes.Len(),
		TotalSysFunctions: res.SystemFunctions.Len(),
		TotalLines:        len(res.Lines),
	}
	m.ComplexityScore = m.TotalBlocks + m.TotalProcedures + m.TotalMacros + m.TotalIncludes
	return m
}
