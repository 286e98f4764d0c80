package frame

import (
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/logging"
)

// responder routes printed output to the send that is waiting for it.
type responder struct {
	mu      sync.Mutex
	pending chan string
}

// expect registers interest in the next printed line.
func (r *responder) expect() <-chan string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = make(chan string, 1)
	return r.pending
}

func (r *responder) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

// deliver hands text to the waiting send. Output nobody waits for is
// logged and discarded.
func (r *responder) deliver(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		logging.Debug("Unsolicited output from Frame", zap.String("text", text))
		return false
	}
	r.pending <- text
	r.pending = nil
	return true
}
