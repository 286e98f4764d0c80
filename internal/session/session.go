package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/logging"
)

// disconnectOnCloseTimeout bounds the best-effort disconnect performed by Close
const disconnectOnCloseTimeout = 2 * time.Second

// subscriberBuffer is the per-subscriber channel size. Updates are dropped
// for slow subscribers; they recover by re-reading Snapshot and LogSince.
const subscriberBuffer = 64

// Options configures a Session.
type Options struct {
	Timings Timings

	// Bound seeds the bound device so the first Connect reconnects directly.
	Bound *Device

	// Match selects the peer to connect to among scan results. Nil accepts
	// the first result.
	Match func(Discovered) bool

	// OnBound is called on the session goroutine whenever a handshake
	// succeeds. It must not call back into the Session.
	OnBound func(Device)
}

// Session owns the lifecycle of one host-to-peer session.
type Session struct {
	transport Transport
	opts      Options

	ctx     context.Context
	cancel  context.CancelFunc
	events  chan event
	stopped chan struct{}

	// Snapshot fields. Written only by the run goroutine, under mu.
	mu      sync.RWMutex
	state   State
	bound   *Device
	counter int
	busy    bool
	log     []LogEntry
	lastErr error

	// Owned by the run goroutine.
	gen        uint64
	permitted  bool
	link       Link
	linkCancel context.CancelFunc
	scanCancel context.CancelFunc
	opCtx      context.Context
	opCancel   context.CancelFunc

	subsMu  sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

// New creates a Session in the Disconnected state and starts its goroutine.
func New(transport Transport, opts Options) *Session {
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		transport: transport,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan event),
		stopped:   make(chan struct{}),
		state:     StateDisconnected,
		subs:      make(map[int]chan Update),
	}
	if opts.Bound != nil {
		bound := *opts.Bound
		s.bound = &bound
	}

	go s.run()
	return s
}

// Close stops the session goroutine, disconnecting any live link.
func (s *Session) Close() {
	s.cancel()
	<-s.stopped
}

// Connect starts discovery, or reconnects to the bound device.
func (s *Session) Connect() error {
	return s.do(ActionConnect)
}

// SayHello runs one message exchange with the peer.
func (s *Session) SayHello() error {
	return s.do(ActionSayHello)
}

// Finish hands the peer back to its resident script and disconnects.
func (s *Session) Finish() error {
	return s.do(ActionFinish)
}

// Do invokes an action by value.
func (s *Session) Do(a Action) error {
	return s.do(a)
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// BoundDevice returns the bound device, or nil before the first handshake
func (s *Session) BoundDevice() *Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bound == nil {
		return nil
	}
	d := *s.bound
	return &d
}

// Counter returns the number of say-hello exchanges started so far
func (s *Session) Counter() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter
}

// Actions returns the currently enabled actions
func (s *Session) Actions() Actions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ActionsFor(s.state, s.busy)
}

// Snapshot returns a consistent view of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   s.state,
		Counter: s.counter,
		Busy:    s.busy,
		Actions: ActionsFor(s.state, s.busy),
		LogLen:  len(s.log),
	}
	if s.bound != nil {
		d := *s.bound
		snap.Bound = &d
	}
	return snap
}

// LastError returns the most recent failure the session reported, or nil.
// It is a *Error for every failure the session classifies.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Log returns a copy of the full session log
func (s *Session) Log() []LogEntry {
	return s.LogSince(0)
}

// LogSince returns a copy of the entries with Seq >= seq
func (s *Session) LogSince(seq int) []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(s.log) {
		return nil
	}
	out := make([]LogEntry, len(s.log)-seq)
	copy(out, s.log[seq:])
	return out
}

// Subscribe returns a channel of updates and a function that releases it.
func (s *Session) Subscribe() (<-chan Update, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Update, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// WaitFor blocks until pred holds for the current snapshot or ctx is done.
func (s *Session) WaitFor(ctx context.Context, pred func(Snapshot) bool) error {
	updates, release := s.Subscribe()
	defer release()

	if pred(s.Snapshot()) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopped:
			return ErrClosed
		case _, ok := <-updates:
			if !ok {
				return ErrClosed
			}
			if pred(s.Snapshot()) {
				return nil
			}
		}
	}
}

func (s *Session) publish(u Update) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

func (s *Session) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// do hands an action to the run goroutine and waits for the gate decision.
func (s *Session) do(a Action) error {
	reply := make(chan error, 1)
	select {
	case s.events <- actionEvent{action: a, reply: reply}:
	case <-s.ctx.Done():
		return ErrClosed
	}

	select {
	case err := <-reply:
		return err
	case <-s.ctx.Done():
		return ErrClosed
	}
}

// post delivers an event from a worker goroutine.
func (s *Session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

func (s *Session) run() {
	defer close(s.stopped)
	defer s.closeSubscribers()

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return
		case ev := <-s.events:
			ev.apply(s)
		}
	}
}

func (s *Session) shutdown() {
	s.stopScan()
	if s.opCancel != nil {
		s.opCancel()
		s.opCancel = nil
	}
	if s.link != nil {
		s.linkCancel()
		ctx, cancel := context.WithTimeout(context.Background(), disconnectOnCloseTimeout)
		defer cancel()
		if err := s.link.Disconnect(ctx); err != nil {
			logging.Warn("Disconnect on close failed", zap.Error(err))
		}
		s.link = nil
	}
}

// The helpers below run on the session goroutine only.

func (s *Session) setState(to State, reason string) {
	s.mu.Lock()
	from := s.state
	s.state = to
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if from != to {
		logging.LogTransition(from.String(), to.String(), reason)
	}
	s.publish(Update{Snapshot: snap})
}

func (s *Session) setBusy(busy bool) {
	s.mu.Lock()
	s.busy = busy
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(Update{Snapshot: snap})
}

func (s *Session) setBound(d Device) {
	s.mu.Lock()
	s.bound = &d
	s.mu.Unlock()
	if s.opts.OnBound != nil {
		s.opts.OnBound(d)
	}
}

func (s *Session) appendLog(level Level, text string) {
	s.mu.Lock()
	entry := LogEntry{
		Seq:   len(s.log),
		Time:  time.Now(),
		Level: level,
		Text:  text,
	}
	s.log = append(s.log, entry)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(Update{Snapshot: snap, Entry: &entry})
}

func (s *Session) logf(format string, args ...interface{}) {
	s.appendLog(LevelInfo, fmt.Sprintf(format, args...))
}

func (s *Session) logError(err error) {
	logging.Warn("Session failure", zap.Error(err))
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.appendLog(LevelError, err.Error())
}

// beginOp starts a new operation generation and returns its context.
func (s *Session) beginOp() (uint64, context.Context) {
	s.gen++
	ctx, cancel := context.WithCancel(s.ctx)
	s.opCtx = ctx
	s.opCancel = cancel
	s.setBusy(true)
	return s.gen, ctx
}

func (s *Session) endOp() {
	s.cancelOp()
	s.setBusy(false)
}

// endOpIn ends the operation and enters to in a single update, so no
// observer sees the session idle in the state it is leaving.
func (s *Session) endOpIn(to State, reason string) {
	s.cancelOp()

	s.mu.Lock()
	from := s.state
	s.state = to
	s.busy = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if from != to {
		logging.LogTransition(from.String(), to.String(), reason)
	}
	s.publish(Update{Snapshot: snap})
}

func (s *Session) cancelOp() {
	if s.opCancel != nil {
		s.opCancel()
		s.opCancel = nil
		s.opCtx = nil
	}
}

func (s *Session) stopScan() {
	if s.scanCancel != nil {
		s.scanCancel()
		s.scanCancel = nil
	}
}

func (s *Session) isBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *Session) handleAction(a Action) error {
	state := s.State()
	if !ActionsFor(state, s.isBusy()).Allows(a) {
		return fmt.Errorf("%w: %s while %s", ErrActionNotAllowed, a, state)
	}

	switch a {
	case ActionConnect:
		s.startConnect()
	case ActionSayHello:
		s.startExchange()
	case ActionFinish:
		s.startTeardown()
	}
	return nil
}
