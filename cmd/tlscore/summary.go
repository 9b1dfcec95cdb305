package main

import (
	"fmt"
	"io"
	"strings"

	"tlscore/internal/scoring"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Summary formats
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatNone     = "none"
)

var (
	accentColor = lipgloss.Color("#8BC34A")
	mutedColor  = lipgloss.Color("#6A737D")
)

func checkSummaryFormat(format string) error {
	switch format {
	case formatText, formatMarkdown, formatNone:
		return nil
	}
	return fmt.Errorf("unknown summary format %q (valid: %s, %s, %s)", format, formatText, formatMarkdown, formatNone)
}

// summaryRow is one sub-score line.
type summaryRow struct {
	label string
	value int
}

func summaryRows(res *scoring.Result) []summaryRow {
	return []summaryRow{
		{"Valid JSON", res.ValidJSON},
		{"Correct Rules", res.CorrectRules},
		{"Correct Facts", res.CorrectFacts},
		{"Correct Answer", res.CorrectAnswer},
		{"Explanation", res.Explanation},
	}
}

// renderSummary prints the human-readable score summary after the JSON.
func renderSummary(w io.Writer, res *scoring.Result, format string) error {
	switch format {
	case formatNone:
		return nil
	case formatMarkdown:
		return renderMarkdownSummary(w, res)
	default:
		renderTextSummary(w, res)
		return nil
	}
}

// renderTextSummary styles the summary for w. Non-terminal writers get plain
// text because the renderer detects their color profile.
func renderTextSummary(w io.Writer, res *scoring.Result) {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true).Foreground(accentColor)
	total := r.NewStyle().Bold(true)
	note := r.NewStyle().Foreground(mutedColor)

	fmt.Fprintln(w)
	fmt.Fprintln(w, header.Render("=== Score Summary ==="))
	fmt.Fprintf(w, "Task: %s\n", res.TaskID)
	fmt.Fprintln(w, total.Render(fmt.Sprintf("Total: %d / %d", res.Total, res.MaxTotal)))
	for _, row := range summaryRows(res) {
		fmt.Fprintf(w, "  %s: %d\n", row.label, row.value)
	}
	if msg, ok := res.Message(scoring.DetailMaxTotalNote); ok {
		fmt.Fprintln(w, note.Render("Note: "+msg))
	}
}

func summaryMarkdown(res *scoring.Result) string {
	var b strings.Builder
	b.WriteString("## Score Summary\n\n")
	fmt.Fprintf(&b, "**Task:** %s\n\n", res.TaskID)
	fmt.Fprintf(&b, "**Total:** %d / %d\n\n", res.Total, res.MaxTotal)
	b.WriteString("| Category | Score |\n|---|---|\n")
	for _, row := range summaryRows(res) {
		fmt.Fprintf(&b, "| %s | %d |\n", row.label, row.value)
	}
	if msg, ok := res.Message(scoring.DetailMaxTotalNote); ok {
		fmt.Fprintf(&b, "\n> %s\n", msg)
	}
	return b.String()
}

func renderMarkdownSummary(w io.Writer, res *scoring.Result) error {
	md := summaryMarkdown(res)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		// Raw markdown is still readable.
		fmt.Fprint(w, md)
		return nil
	}
	fmt.Fprint(w, out)
	return nil
}
