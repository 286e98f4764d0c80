package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muurk/framehello/internal/session"
)

// RunnerConfig describes a multi-step command.
type RunnerConfig struct {
	Title   string    // e.g., "Say Hello"
	Command string    // e.g., "framehello hello --count 3"
	Params  []Field   // Shown in the header
	Steps   []string  // One name per step
	Verbose bool      // Print the session log after the result
	Output  io.Writer // Default: os.Stdout
}

// Runner prints header, step progress and result for a command.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	log      []session.LogEntry
	width    int
}

// NewRunner creates a runner for the given command.
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	header := NewHeader(config.Title, config.Command, config.Params...)
	header.SetWidth(width)

	progress := NewProgress("", config.Steps...)
	progress.SetWidth(width)

	return &Runner{
		config:   config,
		header:   header,
		progress: progress,
		output:   config.Output,
		width:    width,
	}
}

// Operation does the work of a command, reporting each step through onStep.
// The details it returns are shown in the success box.
type Operation func(ctx context.Context, onStep StepCallback) ([]Field, error)

// Run prints the header, executes op and prints the outcome.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := op(ctx, r.onStep)
	duration := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		r.progress.SkipRemaining()
		result := NewFailureResult(r.config.Title+" failed", err, Troubleshooting(err))
		result.SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, result.Render())
	} else {
		details = append(details, Field{Key: "Duration", Value: duration.String()})
		result := NewSuccessResult(r.config.Title+" complete", details...)
		result.SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, result.Render())
	}

	if r.config.Verbose && len(r.log) > 0 {
		_, _ = fmt.Fprintln(r.output)
		_, _ = fmt.Fprintln(r.output, RenderLogBox(r.log, r.width))
	}
	return err
}

// SetLog stores the session log for verbose output.
func (r *Runner) SetLog(entries []session.LogEntry) {
	r.log = entries
}

// Progress exposes the step tracker.
func (r *Runner) Progress() *Progress {
	return r.progress
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	r.progress.UpdateStep(stepNumber, status, message)
	if stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}

	line := r.progress.renderStepLine(r.progress.Steps[stepNumber-1])
	switch {
	case status.Done():
		_, _ = fmt.Fprintln(r.output, line)
	case status == StepRunning:
		// Overwritten once the step finishes.
		_, _ = fmt.Fprint(r.output, line+"\r")
	}
}
