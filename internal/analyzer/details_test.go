package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcImportExportDetails(t *testing.T) {
	res := Analyze([]string{
		`PROC IMPORT DATAFILE="/data/in.csv" OUT=WORK.IN DBMS=CSV REPLACE;`,
		"RUN;",
		"PROC EXPORT DATA=WORK.IN",
		"  OUTFILE='/data/out.xlsx' DBMS=XLSX;",
		"RUN;",
		"PROC IMPORT DATAFILE='/data/other.txt';",
		"RUN;",
	})

	require.Len(t, res.ProcImports, 2)
	assert.Equal(t, ProcImportDetail{Line: 1, Out: "WORK.IN", DBMS: "CSV", Datafile: "/DATA/IN.CSV"}, res.ProcImports[0])
	assert.Equal(t, ProcImportDetail{Line: 6, Out: NotSpecified, DBMS: NotSpecified, Datafile: "/DATA/OTHER.TXT"}, res.ProcImports[1])

	require.Len(t, res.ProcExports, 1)
	assert.Equal(t, ProcExportDetail{Line: 3, Data: "WORK.IN", DBMS: "XLSX", Outfile: "/DATA/OUT.XLSX"}, res.ProcExports[0])
}

func TestDataStepDetails(t *testing.T) {
	res := Analyze([]string{
		"DATA WORK.A LIB.B;",
		"  SET X;",
		"  IF Y THEN OUTPUT;",
		"  ELSE DO I = 1 TO 3;",
		"  END;",
		"RUN;",
	})

	require.Len(t, res.DataSteps, 1)
	d := res.DataSteps[0]
	assert.Equal(t, "WORK.A LIB.B", d.Name)
	assert.Equal(t, Temporary, d.Type)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, 6, d.Size)
	assert.Equal(t, []string{"DO", "ELSE", "IF-THEN", "OUTPUT", "SET"}, d.Operations)

	assert.Equal(t, []CreatedTable{
		{Name: "WORK.A", Type: Temporary, Line: 1, Origin: OriginData},
		{Name: "LIB.B", Type: Permanent, Line: 1, Origin: OriginData},
	}, res.CreatedTables)
}
