package main

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/framehello/internal/frame"
	"github.com/muurk/framehello/internal/session"
	"github.com/muurk/framehello/internal/ui"
)

func newTestSimulator() *frame.Simulator {
	return frame.NewSimulator(frame.SimulatorOptions{
		Device:         simulatedDevice,
		AdvertiseDelay: time.Millisecond,
		ConnectDelay:   time.Millisecond,
	})
}

func newTestSession(t *testing.T, sim *frame.Simulator, scan time.Duration) *session.Session {
	t.Helper()
	s := session.New(sim, session.Options{Timings: session.Timings{
		ScanTimeout:     scan,
		HandshakeSettle: time.Millisecond,
		DisplaySettle:   time.Millisecond,
		Dwell:           time.Millisecond,
		ClearSettle:     time.Millisecond,
		TeardownPause:   time.Millisecond,
	}})
	t.Cleanup(s.Close)
	return s
}

// stepRecorder keeps the last status reported for each step.
type stepRecorder struct {
	mu    sync.Mutex
	steps map[int]ui.StepStatus
}

func (r *stepRecorder) onStep(n int, status ui.StepStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.steps == nil {
		r.steps = make(map[int]ui.StepStatus)
	}
	r.steps[n] = status
}

func (r *stepRecorder) status(n int) ui.StepStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps[n]
}

func TestHelloSteps(t *testing.T) {
	got := helloSteps(2)
	want := []string{"Connect", "Say hello #1", "Say hello #2", "Finish"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("helloSteps(2) = %v, want %v", got, want)
	}
}

func TestHelloSequence(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{name: "single hello", count: 1},
		{name: "three hellos", count: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator()
			s := newTestSession(t, sim, 2*time.Second)
			rec := &stepRecorder{}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			details, err := helloSequence(ctx, s, tt.count, rec.onStep)
			if err != nil {
				t.Fatalf("helloSequence() error = %v", err)
			}

			for n := 1; n <= tt.count+2; n++ {
				if got := rec.status(n); got != ui.StepComplete {
					t.Errorf("step %d status = %v, want complete", n, got)
				}
			}
			if s.State() != session.StateDisconnected {
				t.Errorf("State() = %s, want disconnected", s.State())
			}
			if s.Counter() != tt.count {
				t.Errorf("Counter() = %d, want %d", s.Counter(), tt.count)
			}
			if !sim.Running() {
				t.Error("resident script not restarted")
			}

			var hellos string
			for _, d := range details {
				if d.Key == "Hellos" {
					hellos = d.Value
				}
			}
			if want := strconv.Itoa(tt.count); hellos != want {
				t.Errorf("Hellos detail = %q, want %q", hellos, want)
			}
		})
	}
}

func TestHelloSequenceDiscoveryTimeout(t *testing.T) {
	sim := newTestSimulator()
	sim.SetAdvertising(false)
	s := newTestSession(t, sim, 30*time.Millisecond)
	rec := &stepRecorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := helloSequence(ctx, s, 1, rec.onStep)
	if !session.IsKind(err, session.ErrDiscoveryTimeout) {
		t.Fatalf("helloSequence() error = %v, want discovery timeout", err)
	}
	if got := rec.status(1); got != ui.StepFailed {
		t.Errorf("connect step status = %v, want failed", got)
	}
	if got := rec.status(2); got != ui.StepPending {
		t.Errorf("hello step status = %v, want pending", got)
	}
	if tips := ui.Troubleshooting(err); len(tips) == 0 || !strings.Contains(strings.Join(tips, "\n"), "--timeout") {
		t.Errorf("Troubleshooting() = %v, want a --timeout tip", tips)
	}
}

func TestScanDevices(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		wantIDs []string
	}{
		{name: "no filter", wantIDs: []string{simulatedDevice.ID}},
		{name: "matching name", filter: "frame 9e", wantIDs: []string{simulatedDevice.ID}},
		{name: "other device", filter: "Frame 4F", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator()
			devices, err := scanDevices(context.Background(), sim, 50*time.Millisecond, matchDevice(tt.filter))
			if err != nil {
				t.Fatalf("scanDevices() error = %v", err)
			}
			if len(devices) != len(tt.wantIDs) {
				t.Fatalf("scanDevices() = %+v, want %v", devices, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if devices[i].ID != id {
					t.Errorf("devices[%d].ID = %s, want %s", i, devices[i].ID, id)
				}
			}
		})
	}
}
