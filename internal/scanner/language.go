package scanner

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// SASLanguage is the go-enry name of the SAS language
const SASLanguage = "SAS"

// Detection reasons reported in FileReport.DetectedBy
const (
	DetectedByExtension = "extension"
	DetectedByContent   = "content"
	DetectedByPath      = "path" // named explicitly on the command line
)

// LanguageDetector decides which files are SAS programs using go-enry
// (GitHub Linguist)
type LanguageDetector struct{}

// NewLanguageDetector creates a new language detector
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{}
}

// ByName reports whether the file name alone identifies a SAS program
func (d *LanguageDetector) ByName(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".sas")
}

// NeedsContent reports whether a file must be read before deciding. Only
// files go-enry cannot place by extension or name are content-sniffed, so a
// known non-SAS extension never turns into SAS on a classifier guess.
func (d *LanguageDetector) NeedsContent(filename string) bool {
	if d.ByName(filename) || enry.IsVendor(filename) || enry.IsDotFile(filename) {
		return false
	}
	if lang, _ := enry.GetLanguageByExtension(filename); lang != "" {
		return false
	}
	if lang, _ := enry.GetLanguageByFilename(filename); lang != "" {
		return false
	}
	return filepath.Ext(filename) == ""
}

// ByContent reports whether go-enry identifies content as SAS
func (d *LanguageDetector) ByContent(filename string, content []byte) bool {
	if len(content) == 0 || enry.IsBinary(content) {
		return false
	}
	return enry.GetLanguage(filepath.Base(filename), content) == SASLanguage
}

// DetectLanguage returns the go-enry language of a file, used for grouping
// code statistics and by `info languages`
func (d *LanguageDetector) DetectLanguage(filename string, content []byte) string {
	if d.ByName(filename) {
		return SASLanguage
	}
	lang, safe := enry.GetLanguageByExtension(filename)
	if !safe && len(content) > 0 {
		lang = enry.GetLanguage(filepath.Base(filename), content)
	}
	if lang == "" {
		lang, _ = enry.GetLanguageByFilename(filename)
	}
	return lang
}
