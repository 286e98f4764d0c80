package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/scripts"
)

// Connect: Disconnected -> (permission) -> Scanning | Connecting

func (s *Session) startConnect() {
	gen, ctx := s.beginOp()

	if s.permitted {
		s.proceedConnect(gen, ctx)
		return
	}

	s.logf("Requesting Bluetooth access")
	go func() {
		s.post(permissionEvent{gen: gen, err: s.transport.RequestPermission(ctx)})
	}()
}

func (s *Session) onPermission(gen uint64, err error) {
	if gen != s.gen {
		return
	}
	if err != nil {
		s.logError(newError(ErrPermissionDenied, "enable Bluetooth adapter", "", err))
		s.endOp()
		return
	}
	s.permitted = true
	s.proceedConnect(gen, s.opCtx)
}

func (s *Session) proceedConnect(gen uint64, ctx context.Context) {
	s.mu.RLock()
	bound := s.bound
	s.mu.RUnlock()

	if bound != nil {
		target := Discovered{Device: *bound}
		s.setState(StateConnecting, "reconnect")
		s.logf("Reconnecting to %s", target.Device)
		go s.handshake(ctx, gen, target, true)
		return
	}

	scanCtx, cancel := context.WithCancel(ctx)
	s.scanCancel = cancel
	s.setState(StateScanning, "connect")
	s.logf("Scanning for Frame (timeout %s)", s.opts.Timings.ScanTimeout)

	// The timer is never stopped: a late firing is recognized and ignored.
	time.AfterFunc(s.opts.Timings.ScanTimeout, func() {
		s.post(scanTimeoutEvent{gen: gen})
	})
	go s.discover(scanCtx, gen)
}

func (s *Session) discover(ctx context.Context, gen uint64) {
	results, err := s.transport.Scan(ctx)
	if err != nil {
		s.post(scanEndedEvent{gen: gen, err: err})
		return
	}

	for d := range results {
		logging.LogDevice("discovered", d.ID, d.Name)
		if s.opts.Match == nil || s.opts.Match(d) {
			s.post(discoveredEvent{gen: gen, device: d})
			return
		}
	}
	s.post(scanEndedEvent{gen: gen})
}

func (s *Session) onDiscovered(gen uint64, d Discovered) {
	if gen != s.gen || s.State() != StateScanning {
		logging.Debug("Ignoring late discovery", zap.String("device_id", d.ID))
		return
	}

	s.stopScan()
	s.setState(StateConnecting, "device_found")
	s.logf("Found %s, connecting", d.Device)
	go s.handshake(s.opCtx, gen, d, false)
}

func (s *Session) onScanEnded(gen uint64, err error) {
	if gen != s.gen || s.State() != StateScanning {
		return
	}
	if err == nil {
		// Discovery stopped on its own; the timeout still decides the outcome.
		logging.Debug("Scan stream ended without a match")
		return
	}

	s.stopScan()
	s.logError(newError(ErrConnectionFailure, "start discovery", "", err))
	s.endOpIn(StateDisconnected, "scan_failed")
}

func (s *Session) onScanTimeout(gen uint64) {
	if gen != s.gen || s.State() != StateScanning {
		logging.Debug("Ignoring discovery timeout",
			zap.Uint64("timer_gen", gen),
			zap.Uint64("current_gen", s.gen),
			zap.String("state", s.State().String()),
		)
		return
	}

	s.stopScan()
	s.logError(newError(ErrDiscoveryTimeout,
		fmt.Sprintf("scan timed out after %s", s.opts.Timings.ScanTimeout), "", nil))
	s.endOpIn(StateDisconnected, "scan_timeout")
}

// handshake runs on a worker goroutine: link, subscribe, settle, break.
func (s *Session) handshake(ctx context.Context, gen uint64, target Discovered, reconnect bool) {
	var (
		link Link
		err  error
	)
	if reconnect {
		link, err = s.transport.Reconnect(ctx, target.ID)
	} else {
		link, err = s.transport.Connect(ctx, target)
	}
	if err != nil {
		op := "connect"
		if reconnect {
			op = "reconnect"
		}
		s.post(handshakeEvent{
			gen:       gen,
			reconnect: reconnect,
			err:       newError(ErrConnectionFailure, op, target.Device.String(), err),
		})
		return
	}

	linkCtx, linkCancel := context.WithCancel(s.ctx)
	states := link.States(linkCtx)

	fail := func(err error) {
		linkCancel()
		releaseCtx, cancel := context.WithTimeout(context.Background(), disconnectOnCloseTimeout)
		defer cancel()
		if derr := link.Disconnect(releaseCtx); derr != nil {
			logging.Debug("Releasing partial link failed", zap.Error(derr))
		}
		s.post(handshakeEvent{gen: gen, reconnect: reconnect, err: err})
	}

	if err := sleep(ctx, s.opts.Timings.HandshakeSettle); err != nil {
		fail(newError(ErrConnectionFailure, "handshake", link.Device().String(), err))
		return
	}

	if err := link.SendBreak(ctx); err != nil {
		fail(newError(ErrInterruptSignalFailure, "halt running script", link.Device().String(), err))
		return
	}

	s.post(handshakeEvent{
		gen:        gen,
		reconnect:  reconnect,
		link:       link,
		states:     states,
		linkCancel: linkCancel,
	})
}

func (s *Session) onHandshake(e handshakeEvent) {
	if e.gen != s.gen {
		if e.link != nil {
			e.linkCancel()
			go func() { _ = e.link.Disconnect(context.Background()) }()
		}
		return
	}

	if e.err != nil {
		s.logError(e.err)
		s.endOpIn(StateDisconnected, "handshake_failed")
		return
	}

	device := e.link.Device()
	if droppedDuringHandshake(e.states) {
		e.linkCancel()
		logging.LogDevice("dropped", device.ID, device.Name)
		s.logError(newError(ErrUnexpectedLinkDrop, "link lost during handshake", device.String(), nil))
		s.endOpIn(StateDisconnected, "link_drop")
		return
	}
	if bound := s.BoundDevice(); device.Name == "" && bound != nil && bound.ID == device.ID {
		// Reconnects address the peer directly and learn no name.
		device.Name = bound.Name
	}
	s.link = e.link
	s.linkCancel = e.linkCancel
	s.setBound(device)
	logging.LogDevice("connected", device.ID, device.Name)

	go s.watch(e.link, e.states)

	s.endOpIn(StateReady, "handshake_complete")
	s.logf("Device connected: %s", device)
}

// droppedDuringHandshake reports whether states already holds a disconnect.
// It never blocks; notifications it consumes before the disconnect are
// only informational.
func droppedDuringHandshake(states <-chan LinkState) bool {
	for {
		select {
		case st, ok := <-states:
			if !ok {
				return false
			}
			if st == LinkDisconnected {
				return true
			}
		default:
			return false
		}
	}
}

// watch forwards link-state notifications for one link.
func (s *Session) watch(link Link, states <-chan LinkState) {
	for st := range states {
		s.post(linkStateEvent{link: link, state: st})
	}
}

func (s *Session) onLinkState(link Link, state LinkState) {
	if s.link == nil || link != s.link {
		return
	}
	if state != LinkDisconnected {
		logging.Debug("Link state", zap.String("state", state.String()))
		return
	}

	device := link.Device()
	logging.LogDevice("dropped", device.ID, device.Name)

	s.linkCancel()
	s.link = nil
	s.linkCancel = nil

	// Invalidate whatever was in flight against the dead link.
	s.gen++

	s.logError(newError(ErrUnexpectedLinkDrop, "link lost", device.String(), nil))
	s.endOpIn(StateDisconnected, "link_drop")
}

// Say hello: Ready -> Running -> Ready

func (s *Session) startExchange() {
	gen, ctx := s.beginOp()

	s.mu.Lock()
	s.counter++
	n := s.counter
	s.mu.Unlock()

	s.setState(StateRunning, "say_hello")
	go s.exchange(ctx, gen, s.link, n)
}

// exchange runs the fixed hello sequence. Any failing step ends it early.
func (s *Session) exchange(ctx context.Context, gen uint64, link Link, n int) {
	defer s.post(exchangeDoneEvent{gen: gen})

	device := link.Device().String()
	t := s.opts.Timings

	abandoned := func(err error) bool {
		if ctx.Err() == nil {
			return false
		}
		logging.Debug("Exchange abandoned", zap.Int("counter", n), zap.Error(err))
		return true
	}
	send := func(script scripts.Script) (string, bool) {
		payload, err := scripts.Render(script)
		if err == nil {
			var reply string
			reply, err = link.SendCommand(ctx, payload, script.AwaitsResponse())
			if err == nil {
				return reply, true
			}
		}
		if !abandoned(err) {
			s.postError(newError(ErrSendFailure, "send "+script.Name(), device, err))
		}
		return "", false
	}
	pause := func(d time.Duration) bool {
		if err := sleep(ctx, d); err != nil {
			abandoned(err)
			return false
		}
		return true
	}

	if _, ok := send(scripts.NewDisplay(n)); !ok {
		return
	}
	s.post(logEvent{level: LevelInfo, text: fmt.Sprintf("Hello #%d displayed in %s", n, scripts.ColorFor(n))})

	if !pause(t.DisplaySettle) {
		return
	}

	reply, ok := send(scripts.NewEcho(n))
	if !ok {
		return
	}
	s.post(logEvent{level: LevelInfo, text: fmt.Sprintf("Frame replied: %s", reply)})

	if !pause(t.Dwell) {
		return
	}

	if _, ok := send(scripts.NewClear()); !ok {
		return
	}
	pause(t.ClearSettle)
}

func (s *Session) onExchangeDone(gen uint64) {
	if gen != s.gen || s.State() != StateRunning {
		return
	}
	s.endOpIn(StateReady, "exchange_complete")
}

// Finish: Ready -> Disconnected

func (s *Session) startTeardown() {
	gen, ctx := s.beginOp()

	link := s.link
	// Stop watching first so our own disconnect is not reported as a drop.
	s.linkCancel()
	s.link = nil
	s.linkCancel = nil

	s.logf("Finishing session with %s", link.Device())
	go s.teardown(ctx, gen, link)
}

// teardown attempts every step regardless of earlier failures.
func (s *Session) teardown(ctx context.Context, gen uint64, link Link) {
	defer s.post(teardownDoneEvent{gen: gen})

	device := link.Device().String()
	report := func(kind ErrorKind, op string, err error) {
		if err != nil {
			s.postError(newError(kind, op, device, err))
		}
	}

	report(ErrInterruptSignalFailure, "halt running script", link.SendBreak(ctx))
	_ = sleep(ctx, s.opts.Timings.TeardownPause)

	report(ErrResetSignalFailure, "restart resident script", link.SendReset(ctx))
	_ = sleep(ctx, s.opts.Timings.TeardownPause)

	report(ErrDisconnectFailure, "disconnect", link.Disconnect(ctx))
}

func (s *Session) onTeardownDone(gen uint64) {
	if gen != s.gen {
		return
	}
	s.endOpIn(StateDisconnected, "finish")
	s.logf("Disconnected")
}

// postError reports a failure from a worker goroutine.
func (s *Session) postError(err error) {
	s.post(logEvent{level: LevelError, err: err})
}
