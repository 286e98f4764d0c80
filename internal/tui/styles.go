package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/framehello/internal/ui"
	"github.com/muurk/framehello/internal/version"
)

// Application branding constants
const (
	AppName   = "FRAMEHELLO"
	GitHubURL = "github.com/muurk/framehello"
)

// Layout constants for responsive terminal width
const (
	MinTerminalWidth  = 60
	MinTerminalHeight = 16
)

// Colors come from the shared ui palette so command output and the TUI agree.
var (
	PrimaryColor = ui.PrimaryColor
	SubtleColor  = ui.MutedColor
	TextColor    = ui.TextColor
	BorderColor  = ui.PrimaryColor
	FocusColor   = ui.SuccessColor
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	StatusLabelStyle = lipgloss.NewStyle().
				Foreground(SubtleColor)

	StatusValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor)

	// ButtonStyle is an enabled button without focus
	ButtonStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 2).
			MarginRight(1)

	FocusedButtonStyle = ButtonStyle.
				BorderForeground(FocusColor).
				Foreground(FocusColor).
				Bold(true)

	DisabledButtonStyle = ButtonStyle.
				Foreground(SubtleColor).
				BorderForeground(SubtleColor)

	LogPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor)
)

// BuildHeaderContent creates header content with app name and GitHub URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + version.Version)

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// RenderApplicationContainer wraps the screen content with the header, the
// help footer and an outer border filling the terminal.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}
	if terminalHeight < MinTerminalHeight {
		terminalHeight = MinTerminalHeight
	}

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1).
		Render(BuildHeaderContent())

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1).
		Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText))

	body := lipgloss.NewStyle().
		Width(terminalWidth - 4).
		Render(content)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}
