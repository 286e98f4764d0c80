package session

import (
	"errors"
	"fmt"
)

// ErrActionNotAllowed is returned by an action that is not enabled in the
// current state.
var ErrActionNotAllowed = errors.New("action not allowed")

// ErrClosed is returned by actions on a closed Session.
var ErrClosed = errors.New("session closed")

// ErrorKind classifies failures reported by a Session.
type ErrorKind int

const (
	// ErrPermissionDenied means the Bluetooth adapter could not be enabled
	ErrPermissionDenied ErrorKind = iota
	// ErrDiscoveryTimeout means no Frame was found before the scan deadline
	ErrDiscoveryTimeout
	// ErrConnectionFailure covers scan start, connect and reconnect failures
	ErrConnectionFailure
	// ErrInterruptSignalFailure means the break signal could not be delivered
	ErrInterruptSignalFailure
	// ErrSendFailure means a Lua payload could not be sent or answered
	ErrSendFailure
	// ErrResetSignalFailure means the reset signal could not be delivered
	ErrResetSignalFailure
	// ErrDisconnectFailure means the transport disconnect reported an error
	ErrDisconnectFailure
	// ErrUnexpectedLinkDrop means the peer went away on its own
	ErrUnexpectedLinkDrop
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrPermissionDenied:
		return "Permission denied"
	case ErrDiscoveryTimeout:
		return "Discovery timeout"
	case ErrConnectionFailure:
		return "Connection failure"
	case ErrInterruptSignalFailure:
		return "Interrupt signal failure"
	case ErrSendFailure:
		return "Send failure"
	case ErrResetSignalFailure:
		return "Reset signal failure"
	case ErrDisconnectFailure:
		return "Disconnect failure"
	case ErrUnexpectedLinkDrop:
		return "Unexpected link drop"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a classified session failure.
type Error struct {
	Kind   ErrorKind // Category of failure
	Op     string    // What was being attempted, e.g. "send display"
	Device string    // Device name or identifier, if known
	Err    error     // Underlying transport error, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Device != "" {
		msg += " (" + e.Device + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, device string, err error) *Error {
	return &Error{Kind: kind, Op: op, Device: device, Err: err}
}

// IsKind reports whether err is, or wraps, a session Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
