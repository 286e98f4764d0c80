package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/framehello/internal/discovery"
	"github.com/muurk/framehello/internal/session"
)

// Printer writes styled components to a writer. Single-shot commands such as
// scan and forget use it instead of a Runner.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Field) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Field) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Field) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintFailure prints a failure box with tips for the error's kind
func (p *Printer) PrintFailure(title string, err error) {
	p.Println(NewFailureResult(title, err, Troubleshooting(err)).SetWidth(p.width).Render())
}

// PrintDevices prints the scan results table
func (p *Printer) PrintDevices(devices []session.Discovered) {
	p.Println(RenderDeviceTable(devices, p.width))
}

// PrintBridges prints the bridge discovery table
func (p *Printer) PrintBridges(bridges []*discovery.Bridge) {
	p.Println(RenderBridgeTable(bridges, p.width))
}

// PrintLog prints the session log panel
func (p *Printer) PrintLog(entries []session.LogEntry) {
	p.Println(RenderLogBox(entries, p.width))
}
