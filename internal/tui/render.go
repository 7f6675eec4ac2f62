package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
)

const (
	barWidth   = 24
	labelWidth = 15
)

// RenderResult draws an analysis as a terminal dashboard. The CLI prints
// the same view that the TUI shows.
func RenderResult(r analysis.AnalysisResult, showFactors bool) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(r.Username))
	b.WriteString("  ")
	b.WriteString(styleOverall.Render(fmt.Sprintf("%.2f", r.Overall)))
	b.WriteString(styleDim.Render(" / 10"))
	if r.Partial {
		b.WriteString(styleWarning.Render("  (partial)"))
	}
	b.WriteString("\n")
	b.WriteString(styleValue.Render(r.Headline))
	b.WriteString("\n\n")

	for _, m := range r.Metrics {
		b.WriteString(renderMetric(m))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderList("Strengths", dimensionNames(r.Strengths), iconStrength, styleStrength))
	b.WriteString(renderList("Weaknesses", dimensionNames(r.Weaknesses), iconWeakness, styleWeakness))
	b.WriteString(renderList("Recommendations", r.Recommendations, iconBullet, styleValue))

	if len(r.Warnings) > 0 {
		b.WriteString(renderList("Warnings", r.Warnings, iconWarning, styleWarning))
	}

	if showFactors {
		b.WriteString(renderFactors(r.Metrics))
		b.WriteString("\n")
	}

	return b.String()
}

func renderMetric(m analysis.MetricScore) string {
	label := styleLabel.Render(fmt.Sprintf("%-*s", labelWidth, m.Dimension))
	if !m.Available {
		return label + styleBarEmpty.Render(strings.Repeat("░", barWidth)) + styleDim.Render("  n/a")
	}
	return label + Bar(m.Value, barWidth) + styleValue.Render(fmt.Sprintf("  %4.1f", m.Value))
}

// Bar renders value on a 0-10 scale as a fixed-width bar
func Bar(value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 10 {
		value = 10
	}
	filled := int(value/10*float64(width) + 0.5)
	return styleBarFill.Render(strings.Repeat("█", filled)) +
		styleBarEmpty.Render(strings.Repeat("░", width-filled))
}

func renderList(title string, items []string, icon string, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(styleDim.Render("  none"))
		b.WriteString("\n\n")
		return b.String()
	}
	for _, item := range items {
		b.WriteString(style.Render("  " + icon + " " + item))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func renderFactors(metrics []analysis.MetricScore) string {
	rows := [][]string{}
	for _, m := range metrics {
		for _, f := range m.Factors {
			rows = append(rows, []string{string(m.Dimension), f.Label, formatFactor(f.Value)})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Dimension", "Factor", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 2 {
				return styleValue
			}
			return styleLabel
		})

	return t.Render()
}

func formatFactor(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func dimensionNames(ds []analysis.Dimension) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}
