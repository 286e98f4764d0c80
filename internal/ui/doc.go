// Package ui renders the styled terminal output of the framehello commands.
//
// Commands that run once and exit (scan, hello, forget) use these components
// instead of the interactive TUI:
//
//   - Header: command banner with the parameters in effect
//   - Progress: bar and step list updated as the command advances
//   - Result: success, failure or warning box; failures carry
//     troubleshooting tips chosen by session error kind
//   - RenderDeviceTable and RenderLogBox: scan results and the session log
//
// Runner ties these together for multi-step commands:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Say Hello",
//	    Command: "framehello hello --count 3",
//	    Steps:   []string{"Connect", "Hello #1", "Finish"},
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Field, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, ui.StepComplete, "")
//	    return nil, nil
//	})
//
// # Logging Integration
//
// zap logging is controlled by FRAMEHELLO_LOG_LEVEL or --log-level. When
// unset the logger is silent so the curated output stays readable.
package ui
