// Package report renders analysis results as human-readable text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Styles holds the text styles of a renderer. Without colour every style
// renders its input unchanged.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(w io.Writer, color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain}
	}

	r := lipgloss.NewRenderer(w)
	return Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Underline(true),
		Header2: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Renderer writes text reports to a writer
type Renderer struct {
	w      io.Writer
	styles Styles
}

// NewRenderer creates a renderer. color is normally util.ColorEnabled(w).
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, styles: newStyles(w, color)}
}

// Writer returns the underlying writer
func (r *Renderer) Writer() io.Writer {
	return r.w
}

// Styles returns the renderer styles
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Println writes a line
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.w, a...)
}

// Printf writes formatted text
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.w, format, a...)
}

// Heading writes a top level heading followed by a blank line
func (r *Renderer) Heading(title string) {
	r.Println(r.styles.Header1.Render(title))
	r.Println()
}

// Section writes a second level heading
func (r *Renderer) Section(title string) {
	r.Println(r.styles.Header2.Render(title))
}

// Field writes an indented "label: value" line
func (r *Renderer) Field(label string, value any) {
	r.Printf("  %s: %v\n", r.styles.Bold.Render(label), value)
}

// Table renders rows under header. Nothing is written for an empty table
// unless empty is set, in which case it is printed instead.
func (r *Renderer) Table(header []string, rows [][]any, empty string) {
	if len(rows) == 0 {
		if empty != "" {
			r.Println(r.styles.Muted.Render("  " + empty))
			r.Println()
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
	r.Println()
}

// joinLines formats line numbers as "1, 4, 9", eliding long lists
func joinLines(lines []int) string {
	const maxShown = 8
	parts := make([]string, 0, min(len(lines), maxShown))
	for i, l := range lines {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("... (+%d)", len(lines)-maxShown))
			break
		}
		parts = append(parts, strconv.Itoa(l))
	}
	return strings.Join(parts, ", ")
}

// truncate shortens s to n runes on a single line
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
