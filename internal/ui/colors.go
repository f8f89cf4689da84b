package ui

import "github.com/charmbracelet/lipgloss"

// styles is the package stylesheet. Kept as one struct so every view pulls
// from the same palette.
var styles = struct {
	title lipgloss.Style
	done  lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}{
	title: lipgloss.NewStyle().Foreground(lipgloss.Color("#5A56E0")).Bold(true).MarginBottom(1),
	done:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
	err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ED567A")).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E8B339")),
	help:  lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true),
}
