package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType selects the banner and colour of a result box
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

type resultLook struct {
	label  string
	marker string
	color  lipgloss.Color
	title  lipgloss.Style
}

func (t ResultType) look() resultLook {
	switch t {
	case ResultFailure:
		return resultLook{"FAILED", FailureMarker, ErrorColor, ErrorTitleStyle}
	case ResultWarning:
		return resultLook{"WARNING", WarningMarker, WarningColor, WarningTitleStyle}
	default:
		return resultLook{"SUCCESS", SuccessMarker, SuccessColor, SuccessTitleStyle}
	}
}

// Result is the box printed when a command ends. Failures carry the error
// and troubleshooting tips instead of details.
type Result struct {
	Type            ResultType
	Title           string
	Details         []Field
	Error           error
	Troubleshooting []string
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Field) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, tips []string) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Troubleshooting: tips, Width: GetTerminalWidth()}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Field) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := clampWidth(r.Width)
	look := r.Type.look()

	body := []string{"", look.title.Render(fmt.Sprintf("   %s  %s  ─  %s", look.marker, look.label, r.Title)), ""}
	if r.Type == ResultFailure {
		if r.Error != nil {
			body = append(body, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
		}
		if len(r.Troubleshooting) > 0 {
			body = append(body, tipsBox(r.Troubleshooting, width), "")
		}
	} else {
		for _, d := range r.Details {
			body = append(body, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
		}
		body = append(body, "")
	}

	return resultBoxStyle(width, look.color).Render(strings.Join(body, "\n"))
}

// tipsBox nests the troubleshooting tips in their own muted box.
func tipsBox(tips []string, width int) string {
	lines := make([]string, 0, len(tips)+2)
	lines = append(lines, TroubleshootingTitleStyle.Render("Troubleshooting:"), "")
	for _, tip := range tips {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
