package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleValue    = lipgloss.NewStyle().Foreground(colorWhite)
	styleLabel    = lipgloss.NewStyle().Foreground(colorGray)
	styleStrength = lipgloss.NewStyle().Foreground(colorGreen)
	styleWeakness = lipgloss.NewStyle().Foreground(colorRed)
	styleWarning  = lipgloss.NewStyle().Foreground(colorYellow)
	styleError    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleBarFill  = lipgloss.NewStyle().Foreground(colorCyan)
	styleBarEmpty = lipgloss.NewStyle().Foreground(colorDim)
	styleOverall  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleInput    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

const (
	iconStrength = "✓"
	iconWeakness = "✗"
	iconWarning  = "!"
	iconBullet   = "›"
)
