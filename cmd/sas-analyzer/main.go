package main

import "github.com/petrarca/sas-analyzer/internal/cmd"

func main() {
	cmd.Execute()
}
