package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petrarca/sas-analyzer/internal/report"
	"github.com/petrarca/sas-analyzer/internal/util"
)

// Outputter interface for commands with structured output
type Outputter interface {
	// ToJSON returns the data structure for JSON/YAML marshaling
	ToJSON() interface{}
	// ToText writes the human-readable report
	ToText(r *report.Renderer)
}

// Marshal encodes o in format. Text is rendered without colour.
func Marshal(o Outputter, format string, pretty bool) ([]byte, error) {
	switch util.NormalizeFormat(format) {
	case "json":
		if pretty {
			return json.MarshalIndent(o.ToJSON(), "", "  ")
		}
		return json.Marshal(o.ToJSON())
	case "yaml":
		return yaml.Marshal(o.ToJSON())
	case "text":
		var buf bytes.Buffer
		o.ToText(report.NewRenderer(&buf, false))
		return buf.Bytes(), nil
	default:
		return nil, util.ValidateOutputFormat(format)
	}
}

// Output writes o to stdout
func Output(o Outputter, format string) error {
	return OutputToFile(o, format, "", true)
}

// OutputToFile writes o to outputFile, or to stdout when it is empty or "-"
func OutputToFile(o Outputter, format string, outputFile string, pretty bool) error {
	outputFile = util.OutputPath(outputFile)

	if outputFile == "" {
		return write(os.Stdout, o, format, pretty)
	}

	data, err := Marshal(o, format, pretty)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Results written to %s\n", outputFile)
	return nil
}

// write renders directly to w so text output can be coloured on a terminal
func write(w io.Writer, o Outputter, format string, pretty bool) error {
	if util.NormalizeFormat(format) == "text" {
		o.ToText(report.NewRenderer(w, util.ColorEnabled(w)))
		return nil
	}

	data, err := Marshal(o, format, pretty)
	if err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

// setupFormatFlag configures format flag and validation for a command
func setupFormatFlag(cmd *cobra.Command, formatPtr *string, defaultFormat string) {
	cmd.Flags().StringVarP(formatPtr, "format", "f", defaultFormat, "Output format: json, yaml, or text")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		*formatPtr = util.NormalizeFormat(*formatPtr)
		return util.ValidateOutputFormat(*formatPtr)
	}
}

// setupOutputFlags configures both format and output flags for a command
func setupOutputFlags(cmd *cobra.Command, formatPtr *string, outputPtr *string, defaultFormat string) {
	setupFormatFlag(cmd, formatPtr, defaultFormat)
	cmd.Flags().StringVarP(outputPtr, "output", "o", "", "Output file path, - for stdout (default: stdout)")
}
