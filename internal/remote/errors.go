package remote

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeRejected indicates the session refused the action in its current state
	ErrTypeRejected
	// ErrTypeUnavailable indicates the bridge's session has shut down
	ErrTypeUnavailable
	// ErrTypeHTTP indicates any other non-success status
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeRejected:
		return "Action Rejected"
	case ErrTypeUnavailable:
		return "Session Unavailable"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents a failure talking to a bridge
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the request may be repeated
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed error
func ClassifyNetworkError(err error) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &Error{Type: ErrTypeConnectionRefused, Message: "Bridge refused connection", Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &Error{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *Error {
	classified := ClassifyNetworkError(err)
	classified.Message = message
	return classified
}

// NewHTTPError creates an error for a non-success response. message is the
// bridge's own error text when it sent one.
func NewHTTPError(statusCode int, message string) *Error {
	e := &Error{Type: ErrTypeHTTP, Message: message, StatusCode: statusCode}
	switch {
	case statusCode == http.StatusConflict:
		e.Type = ErrTypeRejected
	case statusCode == http.StatusServiceUnavailable:
		e.Type = ErrTypeUnavailable
	case statusCode >= 500:
		e.Retryable = true
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	return e
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *Error {
	return &Error{Type: ErrTypeParse, Message: message, Err: err}
}

// IsRejected reports whether the session refused the action
func IsRejected(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Type == ErrTypeRejected
}

// IsNetworkError reports whether err is a transport-level failure
func IsNetworkError(err error) bool {
	var rerr *Error
	if !errors.As(err, &rerr) {
		return false
	}
	switch rerr.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}
