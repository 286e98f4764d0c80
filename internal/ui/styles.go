package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/framehello/internal/session"
)

// Color palette shared by the command output and the TUI
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // headers, borders
	SuccessColor = lipgloss.Color("#43BF6D")
	ErrorColor   = lipgloss.Color("#FF5555")
	WarningColor = lipgloss.Color("#FFA500") // warnings, busy states
	MutedColor   = lipgloss.Color("#626262") // secondary info
	TextColor    = lipgloss.Color("#FFFFFF")
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Header
var (
	HeaderTitleStyle      = fg(TextColor).Bold(true).PaddingLeft(2)
	HeaderCommandStyle    = fg(MutedColor).PaddingLeft(2)
	HeaderParamKeyStyle   = fg(MutedColor).PaddingLeft(2)
	HeaderParamValueStyle = fg(TextColor)
)

// Progress steps
var (
	ProgressLabelStyle = fg(TextColor).PaddingLeft(2)
	StepCompleteStyle  = fg(SuccessColor)
	StepRunningStyle   = fg(WarningColor)
	StepPendingStyle   = fg(MutedColor)
	StepNoteStyle      = fg(MutedColor).Italic(true)
)

// Result boxes
var (
	SuccessTitleStyle         = fg(SuccessColor).Bold(true)
	ErrorTitleStyle           = fg(ErrorColor).Bold(true)
	WarningTitleStyle         = fg(WarningColor).Bold(true)
	ErrorMessageStyle         = fg(ErrorColor)
	ResultKeyStyle            = fg(MutedColor).Width(15)
	ResultValueStyle          = fg(TextColor)
	TroubleshootingTitleStyle = fg(MutedColor).Bold(true)
	TroubleshootingItemStyle  = fg(MutedColor)
)

// Tables and the session log
var (
	TableHeaderStyle = fg(MutedColor).Bold(true)
	TableCellStyle   = fg(TextColor)
	LogTimeStyle     = fg(MutedColor)
	LogInfoStyle     = fg(TextColor)
	LogErrorStyle    = fg(ErrorColor)
)

// Status markers
const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	StepMarkerSkipped  = "⊘"
	SuccessMarker      = "✓"
	FailureMarker      = "✗"
	WarningMarker      = "⚠"
)

// GetTerminalWidth returns the stdout terminal width, held between
// MinTerminalWidth and MaxContentWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return min(clampWidth(width), MaxContentWidth)
}

func clampWidth(width int) int {
	return max(width, MinTerminalWidth)
}

// StateColor returns the color a session state is drawn in.
func StateColor(s session.State) lipgloss.Color {
	switch s {
	case session.StateReady:
		return SuccessColor
	case session.StateScanning, session.StateConnecting, session.StateRunning:
		return WarningColor
	default:
		return MutedColor
	}
}

// StateStyle renders a session state as a bold badge.
func StateStyle(s session.State) lipgloss.Style {
	return fg(StateColor(s)).Bold(true)
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2)
}

func resultBoxStyle(width int, color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2)
}

// PanelStyle returns the muted rounded border used for tables and logs
func PanelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width-4).
		Padding(0, 1)
}

// RenderHorizontalDivider draws a width-wide rule of char
func RenderHorizontalDivider(width int, char string) string {
	return fg(PrimaryColor).Render(strings.Repeat(char, width))
}
