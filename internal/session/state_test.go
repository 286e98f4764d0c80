package session

import (
	"testing"
	"time"
)

func TestActionsFor(t *testing.T) {
	tests := []struct {
		state State
		busy  bool
		want  Actions
	}{
		{StateDisconnected, false, Actions{Connect: true}},
		{StateScanning, false, Actions{}},
		{StateConnecting, false, Actions{}},
		{StateReady, false, Actions{SayHello: true, Finish: true}},
		{StateRunning, false, Actions{}},
		{StateDisconnected, true, Actions{}},
		{StateReady, true, Actions{}},
	}

	for _, tt := range tests {
		name := tt.state.String()
		if tt.busy {
			name += "/busy"
		}
		t.Run(name, func(t *testing.T) {
			if got := ActionsFor(tt.state, tt.busy); got != tt.want {
				t.Errorf("ActionsFor(%s, %v) = %+v, want %+v", tt.state, tt.busy, got, tt.want)
			}
		})
	}
}

func TestActionsAllows(t *testing.T) {
	a := Actions{SayHello: true}
	if !a.Allows(ActionSayHello) {
		t.Error("Allows(hello) = false, want true")
	}
	if a.Allows(ActionConnect) || a.Allows(ActionFinish) {
		t.Error("Allows returned true for a disabled action")
	}
	if a.Allows(Action("reboot")) {
		t.Error("Allows returned true for an unknown action")
	}
}

func TestParseAction(t *testing.T) {
	for _, name := range []string{"connect", "hello", "finish"} {
		a, err := ParseAction(name)
		if err != nil {
			t.Errorf("ParseAction(%q) error = %v", name, err)
		}
		if string(a) != name {
			t.Errorf("ParseAction(%q) = %q", name, a)
		}
	}
	if _, err := ParseAction("reboot"); err == nil {
		t.Error("ParseAction(reboot) expected error")
	}
}

func TestStateString(t *testing.T) {
	want := []string{"disconnected", "scanning", "connecting", "ready", "running"}
	for i, s := range States {
		if s.String() != want[i] {
			t.Errorf("States[%d].String() = %q, want %q", i, s.String(), want[i])
		}
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if State(99).Valid() {
		t.Error("State(99).Valid() = true")
	}
	if got := State(99).String(); got != "State(99)" {
		t.Errorf("State(99).String() = %q", got)
	}
}

func TestDefaultTimings(t *testing.T) {
	d := DefaultTimings()
	if d.ScanTimeout != 5*time.Second {
		t.Errorf("ScanTimeout = %s, want 5s", d.ScanTimeout)
	}
	if d.Dwell != 3*time.Second {
		t.Errorf("Dwell = %s, want 3s", d.Dwell)
	}
	if d.HandshakeSettle <= 0 || d.DisplaySettle <= 0 || d.ClearSettle <= 0 || d.TeardownPause <= 0 {
		t.Errorf("DefaultTimings() has a non-positive pause: %+v", d)
	}
}
