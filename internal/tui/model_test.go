package tui

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/framehello/internal/session"
)

// stubController records actions and serves a fixed snapshot and log.
type stubController struct {
	mu      sync.Mutex
	snap    session.Snapshot
	log     []session.LogEntry
	actions []session.Action
	updates chan session.Update
}

func newStub(state session.State, busy bool) *stubController {
	return &stubController{
		snap:    session.Snapshot{State: state, Busy: busy, Actions: session.ActionsFor(state, busy)},
		updates: make(chan session.Update, 8),
	}
}

func (c *stubController) Do(a session.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, a)
	if !c.snap.Actions.Allows(a) {
		return fmt.Errorf("%w: %s while %s", session.ErrActionNotAllowed, a, c.snap.State)
	}
	return nil
}

func (c *stubController) Snapshot() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *stubController) LogSince(seq int) []session.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq >= len(c.log) {
		return nil
	}
	return append([]session.LogEntry(nil), c.log[seq:]...)
}

func (c *stubController) Subscribe() (<-chan session.Update, func()) {
	return c.updates, func() {}
}

func (c *stubController) recorded() []session.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]session.Action(nil), c.actions...)
}

// setState moves the stub and returns the update the session would publish.
func (c *stubController) setState(state session.State, busy bool, lines ...string) session.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, text := range lines {
		c.log = append(c.log, session.LogEntry{Seq: len(c.log), Time: time.Now(), Level: session.LevelInfo, Text: text})
	}
	c.snap = session.Snapshot{
		State:   state,
		Busy:    busy,
		Actions: session.ActionsFor(state, busy),
		LogLen:  len(c.log),
	}
	return session.Update{Snapshot: c.snap}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return next, cmd
}

// runCmd executes a command and feeds its message back into the model.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = send(t, m, cmd())
	return m
}

func TestShortcutGating(t *testing.T) {
	tests := []struct {
		name       string
		state      session.State
		busy       bool
		key        string
		wantAction session.Action
	}{
		{"connect while disconnected", session.StateDisconnected, false, "c", session.ActionConnect},
		{"hello while disconnected", session.StateDisconnected, false, "h", ""},
		{"finish while disconnected", session.StateDisconnected, false, "f", ""},
		{"hello while ready", session.StateReady, false, "h", session.ActionSayHello},
		{"finish while ready", session.StateReady, false, "f", session.ActionFinish},
		{"connect while ready", session.StateReady, false, "c", ""},
		{"hello while running", session.StateRunning, false, "h", ""},
		{"finish while ready and busy", session.StateReady, true, "f", ""},
		{"connect while scanning", session.StateScanning, false, "c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newStub(tt.state, tt.busy)
			m := New(ctl)

			m, cmd := send(t, m, runeKey(tt.key))
			if tt.wantAction == "" {
				if cmd != nil {
					t.Fatalf("disabled shortcut %q produced a command", tt.key)
				}
				return
			}

			runCmd(t, m, cmd)
			got := ctl.recorded()
			if len(got) != 1 || got[0] != tt.wantAction {
				t.Errorf("actions = %v, want [%s]", got, tt.wantAction)
			}
		})
	}
}

func TestButtonFocusFollowsState(t *testing.T) {
	ctl := newStub(session.StateDisconnected, false)
	m := New(ctl)
	if m.focus != buttonConnect {
		t.Fatalf("initial focus = %d, want Connect", m.focus)
	}

	m, _ = send(t, m, updateMsg(ctl.setState(session.StateReady, false, "Device connected: Frame 4F")))
	if m.focus != buttonHello {
		t.Fatalf("focus after connect = %d, want Say hello", m.focus)
	}

	// → moves to Finish, enter presses it
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.focus != buttonFinish {
		t.Fatalf("focus after → = %d, want Finish", m.focus)
	}
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, m, cmd)

	if got := ctl.recorded(); len(got) != 1 || got[0] != session.ActionFinish {
		t.Errorf("actions = %v, want [finish]", got)
	}
}

func TestPressWhileBusyShowsNotice(t *testing.T) {
	ctl := newStub(session.StateReady, true)
	m := New(ctl)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("press while busy produced a command")
	}
	if !strings.Contains(m.notice, "Busy") {
		t.Errorf("notice = %q, want busy notice", m.notice)
	}
}

func TestRejectedActionShowsNotice(t *testing.T) {
	ctl := newStub(session.StateDisconnected, false)
	m := New(ctl)

	// The session moved on before the press arrived.
	m, _ = send(t, m, actionMsg{
		action: session.ActionConnect,
		err:    fmt.Errorf("%w: connect while scanning", session.ErrActionNotAllowed),
	})
	if !strings.Contains(m.notice, "not allowed") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestUpdatesPullLogAndRender(t *testing.T) {
	ctl := newStub(session.StateDisconnected, false)
	m := New(ctl)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 90, Height: 30})

	// An update that skipped lines still pulls everything up to LogLen.
	ctl.setState(session.StateScanning, false, "Scanning for Frame (timeout 5s)")
	u := ctl.setState(session.StateReady, false, "Found Frame 4F, connecting", "Device connected: Frame 4F")
	u.Snapshot.Bound = &session.Device{ID: "AA:BB", Name: "Frame 4F"}
	u.Snapshot.Counter = 2

	m, cmd := send(t, m, updateMsg(u))
	if cmd == nil {
		t.Fatal("update should re-arm the subscription")
	}
	if len(m.entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(m.entries))
	}

	view := m.View()
	for _, want := range []string{"Ready", "Frame 4F", "Hellos: 2", "Device connected", "Say hello"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	ctl := newStub(session.StateDisconnected, false)
	m := New(ctl)

	m, cmd := send(t, m, runeKey("q"))
	if cmd == nil {
		t.Fatal("quit produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not return tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestClosedSubscriptionQuits(t *testing.T) {
	ctl := newStub(session.StateDisconnected, false)
	close(ctl.updates)
	m := New(ctl)

	msg := waitForUpdate(m.updates)()
	if _, ok := msg.(closedMsg); !ok {
		t.Fatalf("msg = %T, want closedMsg", msg)
	}
	_, cmd := send(t, m, msg)
	if cmd == nil {
		t.Fatal("closed subscription should quit")
	}
}
