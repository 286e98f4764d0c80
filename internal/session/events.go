package session

import "context"

// event is anything the run goroutine applies to the session.
type event interface {
	apply(s *Session)
}

type actionEvent struct {
	action Action
	reply  chan<- error
}

func (e actionEvent) apply(s *Session) {
	e.reply <- s.handleAction(e.action)
}

// logEvent carries either a plain line or a failure from a worker.
type logEvent struct {
	level Level
	text  string
	err   error
}

func (e logEvent) apply(s *Session) {
	if e.err != nil {
		s.logError(e.err)
		return
	}
	s.appendLog(e.level, e.text)
}

type permissionEvent struct {
	gen uint64
	err error
}

func (e permissionEvent) apply(s *Session) {
	s.onPermission(e.gen, e.err)
}

type discoveredEvent struct {
	gen    uint64
	device Discovered
}

func (e discoveredEvent) apply(s *Session) {
	s.onDiscovered(e.gen, e.device)
}

type scanEndedEvent struct {
	gen uint64
	err error
}

func (e scanEndedEvent) apply(s *Session) {
	s.onScanEnded(e.gen, e.err)
}

type scanTimeoutEvent struct {
	gen uint64
}

func (e scanTimeoutEvent) apply(s *Session) {
	s.onScanTimeout(e.gen)
}

type handshakeEvent struct {
	gen        uint64
	reconnect  bool
	link       Link
	states     <-chan LinkState
	linkCancel context.CancelFunc
	err        error
}

func (e handshakeEvent) apply(s *Session) {
	s.onHandshake(e)
}

type exchangeDoneEvent struct {
	gen uint64
}

func (e exchangeDoneEvent) apply(s *Session) {
	s.onExchangeDone(e.gen)
}

type teardownDoneEvent struct {
	gen uint64
}

func (e teardownDoneEvent) apply(s *Session) {
	s.onTeardownDone(e.gen)
}

type linkStateEvent struct {
	link  Link
	state LinkState
}

func (e linkStateEvent) apply(s *Session) {
	s.onLinkState(e.link, e.state)
}
