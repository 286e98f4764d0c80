package frame

import (
	"context"
	"sync"

	"github.com/muurk/framehello/internal/session"
)

// watchers fans link-state notifications out to States subscribers.
type watchers struct {
	mu     sync.Mutex
	subs   map[int]chan session.LinkState
	nextID int
	closed bool
}

// subscribe returns a channel that receives notifications until ctx is
// done. Subscribing after close yields an already closed channel.
func (w *watchers) subscribe(ctx context.Context) <-chan session.LinkState {
	out := make(chan session.LinkState, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		close(out)
		return out
	}
	if w.subs == nil {
		w.subs = make(map[int]chan session.LinkState)
	}
	id := w.nextID
	w.nextID++
	w.subs[id] = out
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		defer w.mu.Unlock()
		if ch, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(ch)
		}
	}()
	return out
}

func (w *watchers) notify(state session.LinkState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

// close stops accepting subscribers. Existing ones are released by their
// contexts.
func (w *watchers) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}
