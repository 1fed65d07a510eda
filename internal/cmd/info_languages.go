package cmd

import (
	"os"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"github.com/go-enry/go-enry/v2/data"
	"github.com/spf13/cobra"

	"github.com/petrarca/sas-analyzer/internal/report"
	"github.com/petrarca/sas-analyzer/internal/scanner"
	"github.com/petrarca/sas-analyzer/internal/types"
)

var (
	languagesFormat string
	languagesOutput string
	languagesType   string
)

var languagesCmd = &cobra.Command{
	Use:   "languages [file...]",
	Short: "List languages known to the file detector",
	Long: `List the languages go-enry (GitHub Linguist) knows, marking the ones the
analyzer accepts. Given files, show the language detected for each of them
and whether it would be analyzed.`,
	Run: runLanguages,
}

func init() {
	setupOutputFlags(languagesCmd, &languagesFormat, &languagesOutput, "text")
	languagesCmd.Flags().StringVar(&languagesType, "type", "", "Only list languages of this type: programming, data, markup, prose")
}

// LanguageInfo holds information about a language from go-enry
type LanguageInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	Analyzed   bool     `json:"analyzed,omitempty" yaml:"analyzed,omitempty"`
}

// LanguagesSummary holds summary statistics
type LanguagesSummary struct {
	Total  int            `json:"total" yaml:"total"`
	ByType map[string]int `json:"by_type" yaml:"by_type"`
}

// LanguagesResult is the output for the languages command
type LanguagesResult struct {
	Languages []LanguageInfo   `json:"languages" yaml:"languages"`
	Summary   LanguagesSummary `json:"summary" yaml:"summary"`
}

func (r *LanguagesResult) ToJSON() interface{} {
	return r
}

func (r *LanguagesResult) ToText(rr *report.Renderer) {
	rr.Heading("Languages")
	rows := make([][]any, 0, len(r.Languages))
	for _, lang := range r.Languages {
		analyzed := ""
		if lang.Analyzed {
			analyzed = rr.Styles().Success.Render("yes")
		}
		rows = append(rows, []any{lang.Name, lang.Type, joinExtensions(lang.Extensions), analyzed})
	}
	rr.Table([]string{"LANGUAGE", "TYPE", "EXTENSIONS", "ANALYZED"}, rows, "no languages")

	rr.Printf("Total: %d languages\n", r.Summary.Total)
	rr.Printf("By type: programming=%d, data=%d, markup=%d, prose=%d\n",
		r.Summary.ByType["programming"], r.Summary.ByType["data"],
		r.Summary.ByType["markup"], r.Summary.ByType["prose"])
}

// FileLanguage is the detection outcome for one file
type FileLanguage struct {
	Path     string `json:"path" yaml:"path"`
	Language string `json:"language" yaml:"language"`
	Analyzed bool   `json:"analyzed" yaml:"analyzed"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FileLanguagesResult is the output for the languages command given files
type FileLanguagesResult struct {
	Files []FileLanguage `json:"files" yaml:"files"`
}

func (r *FileLanguagesResult) ToJSON() interface{} {
	return r
}

func (r *FileLanguagesResult) ToText(rr *report.Renderer) {
	rows := make([][]any, 0, len(r.Files))
	for _, f := range r.Files {
		status := "no"
		switch {
		case f.Error != "":
			status = rr.Styles().Error.Render(f.Error)
		case f.Analyzed:
			status = rr.Styles().Success.Render("yes")
		}
		rows = append(rows, []any{f.Path, orDash(f.Language), status})
	}
	rr.Table([]string{"FILE", "LANGUAGE", "ANALYZED"}, rows, "no files")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runLanguages(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)

	var result Outputter
	if len(args) > 0 {
		result = detectFileLanguages(args)
	} else {
		result = buildLanguagesResult(languagesType)
	}
	exitOnError(logger, "Failed to write output", OutputToFile(result, languagesFormat, languagesOutput, true))
}

// detectFileLanguages applies the analyzer's detection rules to files
func detectFileLanguages(paths []string) *FileLanguagesResult {
	detector := scanner.NewLanguageDetector()
	files := make([]FileLanguage, 0, len(paths))

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			files = append(files, FileLanguage{Path: path, Error: err.Error()})
			continue
		}

		analyzed := detector.ByName(path) || (detector.NeedsContent(path) && detector.ByContent(path, content))
		files = append(files, FileLanguage{
			Path:     path,
			Language: detector.DetectLanguage(path, content),
			Analyzed: analyzed,
		})
	}
	return &FileLanguagesResult{Files: files}
}

func buildLanguagesResult(typeFilter string) *LanguagesResult {
	langSet := make(map[string]bool)
	for _, langs := range data.LanguagesByExtension {
		for _, lang := range langs {
			langSet[lang] = true
		}
	}

	languages := make([]LanguageInfo, 0, len(langSet))
	byType := make(map[string]int)

	for lang := range langSet {
		typeName := types.LanguageTypeToString(enry.GetLanguageType(lang))
		if typeFilter != "" && typeName != typeFilter {
			continue
		}

		languages = append(languages, LanguageInfo{
			Name:       lang,
			Type:       typeName,
			Extensions: getExtensionsForLanguage(lang),
			Analyzed:   lang == scanner.SASLanguage,
		})
		byType[typeName]++
	}

	sort.Slice(languages, func(i, j int) bool {
		return languages[i].Name < languages[j].Name
	})

	return &LanguagesResult{
		Languages: languages,
		Summary: LanguagesSummary{
			Total:  len(languages),
			ByType: byType,
		},
	}
}

// getExtensionsForLanguage returns file extensions for a language
func getExtensionsForLanguage(lang string) []string {
	var extensions []string
	for ext, langs := range data.LanguagesByExtension {
		for _, l := range langs {
			if l == lang {
				extensions = append(extensions, ext)
				break
			}
		}
	}
	sort.Strings(extensions)
	return extensions
}

// joinExtensions lists at most a handful of extensions
func joinExtensions(exts []string) string {
	const maxShown = 6
	if len(exts) <= maxShown {
		return strings.Join(exts, ", ")
	}
	return strings.Join(exts[:maxShown], ", ") + ", ..."
}
