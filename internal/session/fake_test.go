package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

var errFake = errors.New("fake failure")

// fakeTransport is an in-memory Transport whose failures are set up front.
type fakeTransport struct {
	device Discovered

	permErr      error
	scanErr      error
	scanNothing  bool // hold the scan open without results
	connectErr   error
	reconnectErr error
	linkSetup    func(*fakeLink)

	mu         sync.Mutex
	permCalls  int
	scans      int
	connects   int
	reconnects int
	links      []*fakeLink
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		device: Discovered{Device: Device{ID: "AA:BB:CC:DD:EE:FF", Name: "Frame 4F"}, RSSI: -60},
	}
}

func (f *fakeTransport) RequestPermission(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permCalls++
	return f.permErr
}

func (f *fakeTransport) Scan(ctx context.Context) (<-chan Discovered, error) {
	f.mu.Lock()
	f.scans++
	f.mu.Unlock()

	if f.scanErr != nil {
		return nil, f.scanErr
	}

	f.mu.Lock()
	nothing := f.scanNothing
	f.mu.Unlock()

	out := make(chan Discovered)
	go func() {
		defer close(out)
		if !nothing {
			select {
			case out <- f.device:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

func (f *fakeTransport) Connect(ctx context.Context, d Discovered) (Link, error) {
	f.mu.Lock()
	f.connects++
	f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return f.newLink(d.Device), nil
}

func (f *fakeTransport) Reconnect(ctx context.Context, id string) (Link, error) {
	f.mu.Lock()
	f.reconnects++
	f.mu.Unlock()
	if f.reconnectErr != nil {
		return nil, f.reconnectErr
	}
	return f.newLink(Device{ID: id, Name: f.device.Name}), nil
}

func (f *fakeTransport) newLink(d Device) *fakeLink {
	l := &fakeLink{device: d, drops: make(chan struct{})}
	if f.linkSetup != nil {
		f.linkSetup(l)
	}
	f.mu.Lock()
	f.links = append(f.links, l)
	f.mu.Unlock()
	return l
}

func (f *fakeTransport) lastLink() *fakeLink {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.links) == 0 {
		return nil
	}
	return f.links[len(f.links)-1]
}

func (f *fakeTransport) counts() (scans, connects, reconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans, f.connects, f.reconnects
}

type fakeLink struct {
	device Device

	breakErr      error
	resetErr      error
	disconnectErr error
	sendErr       map[string]error // keyed by a substring of the payload

	drops    chan struct{}
	dropOnce sync.Once

	mu          sync.Mutex
	calls       []string
	payloads    []string
	disconnects int
}

func (l *fakeLink) Device() Device { return l.device }

func (l *fakeLink) States(ctx context.Context) <-chan LinkState {
	out := make(chan LinkState, 1)
	select {
	case <-l.drops:
		// Already gone: report it before the caller can look.
		out <- LinkDisconnected
		close(out)
		return out
	default:
	}
	go func() {
		defer close(out)
		select {
		case <-l.drops:
			out <- LinkDisconnected
		case <-ctx.Done():
		}
	}()
	return out
}

func (l *fakeLink) record(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *fakeLink) SendBreak(ctx context.Context) error {
	l.record("break")
	return l.breakErr
}

func (l *fakeLink) SendReset(ctx context.Context) error {
	l.record("reset")
	return l.resetErr
}

func (l *fakeLink) SendCommand(ctx context.Context, script string, awaitResponse bool) (string, error) {
	l.mu.Lock()
	l.calls = append(l.calls, "command")
	l.payloads = append(l.payloads, script)
	l.mu.Unlock()

	for needle, err := range l.sendErr {
		if strings.Contains(script, needle) {
			return "", err
		}
	}
	if awaitResponse {
		return echoReply(script), nil
	}
	return "", nil
}

// echoReply answers an echo script the way the firmware prints it, so each
// hello gets its own reply line.
func echoReply(script string) string {
	const open = `print("`
	start := strings.Index(script, open)
	if start < 0 {
		return "Hello from firmware v25.080.0838"
	}
	greeting, _, _ := strings.Cut(script[start+len(open):], `"`)
	return greeting + "v25.080.0838"
}

func (l *fakeLink) Disconnect(ctx context.Context) error {
	l.mu.Lock()
	l.calls = append(l.calls, "disconnect")
	l.disconnects++
	l.mu.Unlock()
	return l.disconnectErr
}

// drop simulates the peer going away.
func (l *fakeLink) drop() {
	l.dropOnce.Do(func() { close(l.drops) })
}

func (l *fakeLink) sentPayloads() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.payloads...)
}

func (l *fakeLink) callLog() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func fastTimings() Timings {
	return Timings{
		ScanTimeout:     200 * time.Millisecond,
		HandshakeSettle: time.Millisecond,
		DisplaySettle:   time.Millisecond,
		Dwell:           time.Millisecond,
		ClearSettle:     time.Millisecond,
		TeardownPause:   time.Millisecond,
	}
}

func newTestSession(t *testing.T, tr Transport, opts Options) *Session {
	t.Helper()
	if opts.Timings == (Timings{}) {
		opts.Timings = fastTimings()
	}
	s := New(tr, opts)
	t.Cleanup(s.Close)
	return s
}

// waitIdle waits until the session settles in want with nothing in flight.
func waitIdle(t *testing.T, s *Session, want State) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.WaitFor(ctx, func(snap Snapshot) bool {
		return snap.State == want && !snap.Busy
	})
	if err != nil {
		t.Fatalf("waiting for idle %s: %v (state %s, busy %v)", want, err, s.State(), s.Snapshot().Busy)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func logContains(s *Session, level Level, substr string) bool {
	for _, e := range s.Log() {
		if e.Level == level && strings.Contains(e.Text, substr) {
			return true
		}
	}
	return false
}

func connectReady(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitIdle(t, s, StateReady)
}
