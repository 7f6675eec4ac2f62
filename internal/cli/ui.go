package cli

import "github.com/charmbracelet/lipgloss"

var styleErr = lipgloss.NewStyle().Foreground(lipgloss.Color("167")).Bold(true)
