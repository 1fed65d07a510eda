package main

import (
	"fmt"
	"time"

	"github.com/petrarca/sas-analyzer/internal/analyzer"
	"github.com/petrarca/sas-analyzer/internal/codestats"
	"github.com/petrarca/sas-analyzer/internal/matchers"
	"github.com/petrarca/sas-analyzer/internal/rules"
)

func main() {
	start := time.Now()

	t1 := time.Now()
	tables, err := rules.LoadEmbeddedTables()
	if err != nil {
		panic(err)
	}
	fmt.Printf("LoadEmbeddedTables: %v (%d tables)\n", time.Since(t1), len(tables))

	t2 := time.Now()
	set, err := matchers.Compile(tables)
	if err != nil {
		panic(err)
	}
	fmt.Printf("CompileTables: %v (%d compiled)\n", time.Since(t2), len(set.Names()))

	t3 := time.Now()
	codestats.NewAnalyzer(true)
	fmt.Printf("NewCodeStatsAnalyzer: %v\n", time.Since(t3))

	t4 := time.Now()
	analyzer.Analyze([]string{"DATA A; SET B; RUN;"}, analyzer.WithTables(set))
	fmt.Printf("FirstAnalyze: %v\n", time.Since(t4))

	fmt.Printf("\nTotal init: %v\n", time.Since(start))
}
