// Package render formats an assessment report for terminal display: a
// summary panel, a per-dimension table, and a gaps section, optionally
// expanded through glamour in verbose mode. Grounded on
// untoldecay/BeadsLog's internal/ui package (ColorAccent/ColorPass/
// ColorWarn/ColorMuted style names, lipgloss/table usage).
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/evo-hydra/seraph/internal/types"
)

var (
	ColorAccent = lipgloss.Color("39")
	ColorPass   = lipgloss.Color("42")
	ColorWarn   = lipgloss.Color("214")
	ColorFail   = lipgloss.Color("196")
	ColorMuted  = lipgloss.Color("245")
)

var (
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	gradeStyle = lipgloss.NewStyle().Bold(true)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	hintStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
)

func gradeColor(g types.Grade) lipgloss.Color {
	switch g {
	case types.GradeA, types.GradeB:
		return ColorPass
	case types.GradeC:
		return ColorWarn
	default:
		return ColorFail
	}
}

// Panel renders the summary box: overall score, grade, and file count.
func Panel(r *types.Report) string {
	style := gradeStyle
	if ShouldUseColor() {
		style = style.Foreground(gradeColor(r.OverallGrade))
	}
	grade := style.Render(string(r.OverallGrade))
	body := fmt.Sprintf(
		"%s\n\nOverall score: %.1f   Grade: %s\nFiles changed: %d   Sentinel warnings: %d   Baseline flaky: %d",
		titleStyle.Render("Assessment Report"),
		r.OverallScore, grade, len(r.FilesChanged), r.SentinelWarnings, r.BaselineFlaky,
	)
	return panelStyle.Render(body)
}

// DimensionTable renders the per-dimension score table, in canonical order.
func DimensionTable(r *types.Report) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("Dimension", "Score", "Weight", "Grade", "Evaluated", "Details")

	for _, d := range r.Dimensions {
		evaluated := "yes"
		if !d.Evaluated {
			evaluated = "no"
		}
		t.Row(
			string(d.Name),
			fmt.Sprintf("%.1f", d.RawScore),
			fmt.Sprintf("%.2f", d.Weight),
			string(d.Grade),
			evaluated,
			d.Details,
		)
	}
	return t.String()
}

// Gaps renders the gaps list, one bullet per line, or a hint when empty.
func Gaps(r *types.Report) string {
	if len(r.Gaps) == 0 {
		return hintStyle.Render("No gaps below grade B.")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Gaps"))
	b.WriteString("\n")
	for _, g := range r.Gaps {
		b.WriteString("  • " + g + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// VerboseGaps renders the gaps list as a markdown document through glamour,
// used only when --verbose is passed.
func VerboseGaps(r *types.Report) (string, error) {
	var md strings.Builder
	md.WriteString("# Gaps\n\n")
	if len(r.Gaps) == 0 {
		md.WriteString("No gaps below grade B.\n")
	}
	for _, g := range r.Gaps {
		md.WriteString("- " + g + "\n")
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(Width()),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md.String())
}

// Full renders panel + dimension table + gaps as one string, applying
// VerboseGaps instead of Gaps when verbose is true. lipgloss already
// degrades its own styling against a non-TTY/NO_COLOR stdout; ShouldUseColor
// additionally gates the grade label's color emphasis the same way
// BeadsLog's ShouldUseColor gates its own output.
func Full(r *types.Report, verbose bool) string {
	parts := []string{Panel(r), DimensionTable(r)}
	if verbose {
		if gaps, err := VerboseGaps(r); err == nil {
			parts = append(parts, gaps)
		} else {
			parts = append(parts, Gaps(r))
		}
	} else {
		parts = append(parts, Gaps(r))
	}
	return strings.Join(parts, "\n\n")
}
