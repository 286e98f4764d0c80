package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/muurk/framehello/internal/session"
	"github.com/muurk/framehello/internal/ui"
)

// helloSteps names the steps of a headless run: connect, count hellos,
// finish.
func helloSteps(count int) []string {
	steps := []string{"Connect"}
	for i := 1; i <= count; i++ {
		steps = append(steps, fmt.Sprintf("Say hello #%d", i))
	}
	return append(steps, "Finish")
}

// settle waits until no operation is in flight.
func settle(ctx context.Context, s *session.Session) (session.Snapshot, error) {
	err := s.WaitFor(ctx, func(snap session.Snapshot) bool { return !snap.Busy })
	return s.Snapshot(), err
}

// failedSince returns the failure the session reported after prev, if any.
func failedSince(s *session.Session, prev error) error {
	if err := s.LastError(); err != nil && err != prev {
		return err
	}
	return nil
}

// helloSequence drives s through connect, count hellos and finish. A failed
// hello stops the remaining ones but the session is still finished.
func helloSequence(ctx context.Context, s *session.Session, count int, onStep ui.StepCallback) ([]ui.Field, error) {
	step := 1
	fail := func(err error) error {
		onStep(step, ui.StepFailed, err.Error())
		return err
	}

	onStep(step, ui.StepRunning, "Scanning")
	prev := s.LastError()
	if err := s.Connect(); err != nil {
		return nil, fail(err)
	}
	snap, err := settle(ctx, s)
	if err != nil {
		return nil, fail(err)
	}
	if snap.State != session.StateReady {
		err := failedSince(s, prev)
		if err == nil {
			err = errors.New("connection was not established")
		}
		return nil, fail(err)
	}
	device := *snap.Bound
	onStep(step, ui.StepComplete, device.String())

	var helloErr error
	for i := 1; i <= count && helloErr == nil; i++ {
		step++
		onStep(step, ui.StepRunning, "")

		prev = s.LastError()
		if err := s.SayHello(); err != nil {
			helloErr = fail(err)
			break
		}
		if snap, err = settle(ctx, s); err != nil {
			return nil, fail(err)
		}
		if err := failedSince(s, prev); err != nil {
			helloErr = fail(err)
			break
		}
		onStep(step, ui.StepComplete, "Hello #"+strconv.Itoa(snap.Counter))
	}

	if snap.State != session.StateReady {
		// The link dropped; there is nothing left to finish.
		return nil, helloErr
	}

	step = count + 2
	onStep(step, ui.StepRunning, "")
	prev = s.LastError()
	if err := s.Finish(); err != nil {
		return nil, fail(err)
	}
	if _, err := settle(ctx, s); err != nil {
		return nil, fail(err)
	}
	if err := failedSince(s, prev); err != nil {
		return nil, fail(err)
	}
	onStep(step, ui.StepComplete, "Disconnected")

	if helloErr != nil {
		return nil, helloErr
	}
	return []ui.Field{
		{Key: "Device", Value: device.String()},
		{Key: "Hellos", Value: strconv.Itoa(s.Counter())},
	}, nil
}
