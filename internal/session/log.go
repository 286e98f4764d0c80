package session

import "time"

// Level marks a log entry as routine or as a failure.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// LogEntry is one line of the session log.
type LogEntry struct {
	Seq   int       `json:"seq"`
	Time  time.Time `json:"time"`
	Level Level     `json:"level"`
	Text  string    `json:"text"`
}

// Snapshot is a consistent view of the session at one instant.
type Snapshot struct {
	State   State   `json:"-"`
	Bound   *Device `json:"bound,omitempty"`
	Counter int     `json:"counter"`
	Busy    bool    `json:"busy"`
	Actions Actions `json:"actions"`
	LogLen  int     `json:"log_len"`
}

// Update is published to subscribers after every state change or log line.
// Entry is set when the update was caused by a new log line.
type Update struct {
	Snapshot Snapshot
	Entry    *LogEntry
}
