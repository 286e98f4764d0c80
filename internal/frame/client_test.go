package frame

import (
	"context"
	"testing"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/muurk/framehello/internal/session"
)

func TestConnectEventRoutesToLink(t *testing.T) {
	tests := []struct {
		name       string
		connected  bool
		wantState  session.LinkState
		registered bool
	}{
		{name: "connected keeps the link", connected: true, wantState: session.LinkConnected, registered: true},
		{name: "drop releases the link", connected: false, wantState: session.LinkDisconnected, registered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(bluetooth.DefaultAdapter, Options{})
			addr := bluetooth.Address{}
			l := &link{client: c, key: addr.String()}
			c.register(l)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			states := l.States(ctx)

			c.onConnectEvent(bluetooth.Device{Address: addr}, tt.connected)

			select {
			case got := <-states:
				if got != tt.wantState {
					t.Errorf("state = %s, want %s", got, tt.wantState)
				}
			case <-time.After(time.Second):
				t.Fatal("no link state delivered")
			}

			c.mu.Lock()
			_, ok := c.links[l.key]
			c.mu.Unlock()
			if ok != tt.registered {
				t.Errorf("link registered = %v, want %v", ok, tt.registered)
			}
		})
	}
}

func TestConnectEventForUnknownDevice(t *testing.T) {
	c := NewClient(bluetooth.DefaultAdapter, Options{})
	// No link registered: the event is ignored.
	c.onConnectEvent(bluetooth.Device{}, false)
	if len(c.links) != 0 {
		t.Errorf("links = %v, want none", c.links)
	}
}
