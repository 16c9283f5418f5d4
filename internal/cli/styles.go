// Package cli provides styled terminal output and input helpers for the purse commands.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Wallet palette.
const (
	gold  = lipgloss.Color("#E2B714")
	teal  = lipgloss.Color("#4ECDC4")
	amber = lipgloss.Color("#FFB347")
	coral = lipgloss.Color("#FF6B6B")
	mint  = lipgloss.Color("#95E1D3")
	slate = lipgloss.Color("#6C7A89")
)

var (
	// BoldStyle is used for table headers.
	BoldStyle = lipgloss.NewStyle().Bold(true)
	// InfoStyle is used for hints and empty states.
	InfoStyle = lipgloss.NewStyle().Foreground(mint)

	headingStyle = BoldStyle.Foreground(gold)
	okStyle      = lipgloss.NewStyle().Foreground(teal)
	alertStyle   = lipgloss.NewStyle().Foreground(amber)
	failStyle    = lipgloss.NewStyle().Foreground(coral)
	mutedStyle   = lipgloss.NewStyle().Foreground(slate)
	reportStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(slate).
			Padding(0, 1)
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return okStyle.Render("✓ " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return failStyle.Render("✗ " + message)
}

// FormatWarning is used for budget and balance alerts.
func FormatWarning(message string) string {
	return alertStyle.Render("! " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render(message)
}

func FormatTitle(title string) string {
	return headingStyle.Render(title)
}

// FormatPrompt formats the shell prompt for the given login, or a guest prompt.
func FormatPrompt(login string) string {
	if login == "" {
		login = "guest"
	}
	return headingStyle.Render(login + "> ")
}

// renderReportBox frames a plain-text report under a heading.
func renderReportBox(title, body string) string {
	return reportStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		headingStyle.Render(title),
		strings.TrimRight(body, "\n"),
	))
}
