package util

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
)

// ValidOutputFormats defines the supported output formats
var ValidOutputFormats = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
}

// ValidateOutputFormat checks if the given format is valid
func ValidateOutputFormat(format string) error {
	if !ValidOutputFormats[strings.ToLower(format)] {
		return fmt.Errorf("invalid format: %s. Valid formats are: %s", format, strings.Join(GetValidFormats(), ", "))
	}
	return nil
}

// GetValidFormats returns the supported output formats in sorted order
func GetValidFormats() []string {
	formats := make([]string, 0, len(ValidOutputFormats))
	for format := range ValidOutputFormats {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// NormalizeFormat normalizes the format string to lowercase
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// OutputPath maps the output flag to a file path; "" and "-" mean stdout
func OutputPath(output string) string {
	if output == "-" {
		return ""
	}
	return output
}

// ColorEnabled reports whether styled output should be written to w: only
// terminals get colour, and NO_COLOR always disables it
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
