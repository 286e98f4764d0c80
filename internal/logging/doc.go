// Package logging provides structured logging for framehello.
//
// This package wraps a zap logger with package-level helpers. Logging is
// silent unless a level is requested, so the terminal UI and the curated
// CLI output are never interleaved with log lines by accident.
//
// # Log Levels
//
//   - Debug: payload dumps, ignored timer firings, link-state notifications
//   - Info: state transitions, device discovery, connections
//   - Warn: failed transport operations that the session recovered from
//   - Error: startup failures
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the FRAMEHELLO_LOG_LEVEL environment
// variable. The interactive UI writes to a file instead of stdout:
//
//	logging.InitializeWithOutput("debug", "/tmp/framehello.log")
//
// # Domain Helpers
//
//	logging.LogTransition("scanning", "connecting", "device_found")
//	logging.LogPayload("sent", []byte("print('hi')"))
//	logging.LogDevice("discovered", id, name)
package logging
