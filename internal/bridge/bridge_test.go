package bridge

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/framehello/internal/frame"
	"github.com/muurk/framehello/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	sim := frame.NewSimulator(frame.SimulatorOptions{
		Device:         session.Device{ID: "F3:8C:4A:22:01:9E", Name: "Frame 9E"},
		AdvertiseDelay: time.Millisecond,
		ConnectDelay:   time.Millisecond,
	})
	s := session.New(sim, session.Options{Timings: session.Timings{
		ScanTimeout:     2 * time.Second,
		HandshakeSettle: time.Millisecond,
		DisplaySettle:   time.Millisecond,
		Dwell:           time.Millisecond,
		ClearSettle:     time.Millisecond,
		TeardownPause:   time.Millisecond,
	}})
	t.Cleanup(s.Close)
	return s
}

func waitIdle(t *testing.T, s *session.Session, want session.State) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.WaitFor(ctx, func(snap session.Snapshot) bool {
		return snap.State == want && !snap.Busy
	})
	if err != nil {
		t.Fatalf("waiting for %s: %v (state %s)", want, err, s.State())
	}
}

func newTestBridge(t *testing.T) (*session.Session, *httptest.Server) {
	t.Helper()
	s := newTestSession(t)
	srv := httptest.NewServer(New(s, Config{}).Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func post(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, body
}

func TestGetState(t *testing.T) {
	_, srv := newTestBridge(t)

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var view StateView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "disconnected" {
		t.Errorf("state = %q, want disconnected", view.State)
	}
	if !view.Actions.Connect || view.Actions.SayHello || view.Actions.Finish {
		t.Errorf("actions = %+v, want only connect", view.Actions)
	}
}

func TestPostActions(t *testing.T) {
	s, srv := newTestBridge(t)

	tests := []struct {
		name       string
		action     string
		wantStatus int
		thenState  session.State
	}{
		{"hello before connect is rejected", "hello", http.StatusConflict, session.StateDisconnected},
		{"unknown action", "wave", http.StatusNotFound, session.StateDisconnected},
		{"connect", "connect", http.StatusAccepted, session.StateReady},
		{"connect while ready is rejected", "connect", http.StatusConflict, session.StateReady},
		{"hello", "hello", http.StatusAccepted, session.StateReady},
		{"finish", "finish", http.StatusAccepted, session.StateDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+"/actions/"+tt.action)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantStatus >= 400 {
				if _, ok := body["error"]; !ok {
					t.Errorf("error response has no error field: %v", body)
				}
			}
			waitIdle(t, s, tt.thenState)
		})
	}

	if got := s.Counter(); got != 1 {
		t.Errorf("counter = %d, want 1", got)
	}
}

func TestGetLog(t *testing.T) {
	s, srv := newTestBridge(t)

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitIdle(t, s, session.StateReady)

	tests := []struct {
		query      string
		wantStatus int
	}{
		{"", http.StatusOK},
		{"?since=1", http.StatusOK},
		{"?since=9999", http.StatusOK},
		{"?since=-1", http.StatusBadRequest},
		{"?since=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/log" + tt.query)
			if err != nil {
				t.Fatalf("GET /log: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var entries []session.LogEntry
			if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if tt.query == "?since=9999" && len(entries) != 0 {
				t.Errorf("entries past the end = %d, want 0", len(entries))
			}
			if tt.query == "" && len(entries) != len(s.Log()) {
				t.Errorf("entries = %d, want %d", len(entries), len(s.Log()))
			}
		})
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until pred matches one.
func readUntil(t *testing.T, conn *websocket.Conn, pred func(Message) bool) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if pred(msg) {
			return msg
		}
	}
}

func TestWebSocketSession(t *testing.T) {
	s, srv := newTestBridge(t)
	conn := dialWS(t, srv)

	first := readUntil(t, conn, func(Message) bool { return true })
	if first.Type != MessageSnapshot || first.State == nil || first.State.State != "disconnected" {
		t.Fatalf("first message = %+v, want disconnected snapshot", first)
	}

	// A gated action comes back as an error message.
	if err := conn.WriteJSON(Request{Action: "finish"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rejected := readUntil(t, conn, func(m Message) bool { return m.Type == MessageError })
	if rejected.Action != "finish" || !strings.Contains(rejected.Error, "not allowed") {
		t.Errorf("error message = %+v", rejected)
	}

	if err := conn.WriteJSON(Request{Action: "connect"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var logged []string
	readUntil(t, conn, func(m Message) bool {
		for _, e := range m.Entries {
			logged = append(logged, e.Text)
		}
		return m.Type == MessageUpdate && m.State != nil && m.State.State == "ready" && !m.State.Busy
	})

	if !strings.Contains(strings.Join(logged, "\n"), "Device connected: Frame 9E") {
		t.Errorf("log lines seen over the socket = %q", logged)
	}
	if s.State() != session.StateReady {
		t.Errorf("session state = %s, want ready", s.State())
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestSession(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	b := New(s, Config{Advertise: false})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/state"
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("bridge never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestActionStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrActionNotAllowed, http.StatusConflict},
		{session.ErrClosed, http.StatusServiceUnavailable},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := actionStatus(tt.err); got != tt.want {
			t.Errorf("actionStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
