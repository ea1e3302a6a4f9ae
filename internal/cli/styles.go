// Package cli renders packages, quotes and import reports for the terminal
// using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	AccentColor  = lipgloss.Color("#5B8DEF")
	GoodColor    = lipgloss.Color("#4ECDC4")
	CautionColor = lipgloss.Color("#FFE66D")
	BadColor     = lipgloss.Color("#FF6B6B")
	NoteColor    = lipgloss.Color("#95E1D3")
	MutedColor   = lipgloss.Color("#666666")
)

var (
	// TitleStyle heads a package, a sheet report or a history listing.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(GoodColor)
	WarningStyle = lipgloss.NewStyle().Foreground(CautionColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(BadColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(NoteColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(MutedColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	PromptStyle  = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)

	// TableHeaderStyle and TableCellStyle lay out the price matrix.
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)

	// OnRequestStyle marks cells and quotes that need a supplier price.
	OnRequestStyle = lipgloss.NewStyle().Italic(true).Foreground(CautionColor)
)

// Message prefixes.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "·"
	PackageIcon = "🧳"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle renders a package or sheet name as a heading.
func FormatTitle(title string) string {
	return TitleStyle.Render(PackageIcon + " " + title)
}

// FormatPrompt renders a question awaiting an answer on the same line.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " ")
}
