package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/framehello/internal/discovery"
	"github.com/muurk/framehello/internal/session"
)

// RenderDeviceTable renders discovered Frames, strongest signal first.
func RenderDeviceTable(devices []session.Discovered, width int) string {
	width = clampWidth(width)
	if len(devices) == 0 {
		return PanelStyle(width).Render(StepPendingStyle.Render("No Frames found"))
	}

	sorted := append([]session.Discovered(nil), devices...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RSSI > sorted[j].RSSI })

	idWidth := len("ADDRESS")
	for _, d := range sorted {
		if len(d.ID) > idWidth {
			idWidth = len(d.ID)
		}
	}

	row := func(style lipgloss.Style, id, name, rssi string) string {
		return style.Render(fmt.Sprintf("%-*s  %-20s  %6s", idWidth, id, name, rssi))
	}

	lines := []string{row(TableHeaderStyle, "ADDRESS", "NAME", "RSSI")}
	for _, d := range sorted {
		name := d.Name
		if name == "" {
			name = "(unnamed)"
		}
		lines = append(lines, row(TableCellStyle, d.ID, name, fmt.Sprintf("%d", d.RSSI)))
	}
	return PanelStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderBridgeTable renders bridges found over mDNS in the order they answered.
func RenderBridgeTable(bridges []*discovery.Bridge, width int) string {
	width = clampWidth(width)
	if len(bridges) == 0 {
		return PanelStyle(width).Render(StepPendingStyle.Render("No bridges found"))
	}

	nameWidth := len("INSTANCE")
	for _, b := range bridges {
		if len(b.Instance) > nameWidth {
			nameWidth = len(b.Instance)
		}
	}

	row := func(style lipgloss.Style, name, addr, version string) string {
		return style.Render(fmt.Sprintf("%-*s  %-22s  %s", nameWidth, name, addr, version))
	}

	lines := []string{row(TableHeaderStyle, "INSTANCE", "ADDRESS", "VERSION")}
	for _, b := range bridges {
		version := b.Version()
		if version == "" {
			version = "-"
		}
		lines = append(lines, row(TableCellStyle, b.Instance, b.Addr(), version))
	}
	return PanelStyle(width).Render(strings.Join(lines, "\n"))
}

// FormatLogEntry renders one session log line as "15:04:05  text".
func FormatLogEntry(e session.LogEntry) string {
	style := LogInfoStyle
	if e.Level == session.LevelError {
		style = LogErrorStyle
	}
	return LogTimeStyle.Render(e.Time.Format("15:04:05")) + "  " + style.Render(e.Text)
}

// RenderLogBox renders the session log in a titled panel.
func RenderLogBox(entries []session.LogEntry, width int) string {
	width = clampWidth(width)
	lines := []string{TroubleshootingTitleStyle.Render("Session Log")}
	for _, e := range entries {
		lines = append(lines, FormatLogEntry(e))
	}
	return PanelStyle(width).Render(strings.Join(lines, "\n"))
}
