package session

import (
	"context"
	"time"
)

// Timings names every wait the session performs. Only ScanTimeout is a
// deadline; the rest are fixed pauses that give the peer time to act.
type Timings struct {
	// ScanTimeout bounds discovery. When it fires while still scanning the
	// session reverts to Disconnected.
	ScanTimeout time.Duration `yaml:"scan_timeout"`

	// HandshakeSettle is the pause between link establishment and the break
	// signal, letting the peer finish its own connection bookkeeping.
	HandshakeSettle time.Duration `yaml:"handshake_settle"`

	// DisplaySettle separates the display command from the dependent echo
	// request; the peer queues commands and drops ones that arrive too fast.
	DisplaySettle time.Duration `yaml:"display_settle"`

	// Dwell keeps the greeting on screen long enough to be read.
	Dwell time.Duration `yaml:"dwell"`

	// ClearSettle follows the clear command before the session goes idle.
	ClearSettle time.Duration `yaml:"clear_settle"`

	// TeardownPause separates the break, reset and disconnect steps.
	TeardownPause time.Duration `yaml:"teardown_pause"`
}

// DefaultTimings returns the timings used against real hardware.
func DefaultTimings() Timings {
	return Timings{
		ScanTimeout:     5 * time.Second,
		HandshakeSettle: 500 * time.Millisecond,
		DisplaySettle:   100 * time.Millisecond,
		Dwell:           3 * time.Second,
		ClearSettle:     100 * time.Millisecond,
		TeardownPause:   100 * time.Millisecond,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
