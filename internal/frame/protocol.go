package frame

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tinygo.org/x/bluetooth"
)

// GATT identifiers of the Frame Lua service.
const (
	ServiceUUID = "7A230001-5475-A6A4-654C-8431F6AD49C4"
	TXUUID      = "7A230002-5475-A6A4-654C-8431F6AD49C4" // host to Frame
	RXUUID      = "7A230003-5475-A6A4-654C-8431F6AD49C4" // Frame to host, notify
)

// Control signals understood by the Frame firmware.
const (
	// BreakSignal halts the running Lua script (Ctrl-C).
	BreakSignal byte = 0x03
	// ResetSignal restarts the resident main.lua (Ctrl-D).
	ResetSignal byte = 0x04
	// DataPrefix marks a binary data notification rather than printed text.
	DataPrefix byte = 0x01
)

var (
	serviceUUID = mustParseUUID(ServiceUUID)
	txUUID      = mustParseUUID(TXUUID)
	rxUUID      = mustParseUUID(RXUUID)
)

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return uuid
}

// Defaults for Options.
const (
	DefaultNamePrefix      = "Frame"
	DefaultResponseTimeout = 10 * time.Second
	// DefaultMaxPayload is the ATT payload left by the 247 byte MTU Frame
	// negotiates.
	DefaultMaxPayload = 244
)

var (
	// ErrPayloadTooLarge is returned for Lua source that does not fit in one write.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum write size")
	// ErrResponseTimeout is returned when the Frame prints nothing in time.
	ErrResponseTimeout = errors.New("timed out waiting for response")
	// ErrNotEnabled is returned when the adapter has not been enabled yet.
	ErrNotEnabled = errors.New("bluetooth adapter not enabled")
	// ErrLinkClosed is returned by operations on a disconnected link.
	ErrLinkClosed = errors.New("link closed")
)

// Options tunes a Client or Simulator.
type Options struct {
	// NamePrefix matches advertised local names during discovery.
	NamePrefix string
	// ResponseTimeout bounds the wait for printed output after an awaiting send.
	ResponseTimeout time.Duration
	// MaxPayload is the largest Lua payload sent in one write.
	MaxPayload int
}

// DefaultOptions returns Options for real hardware.
func DefaultOptions() Options {
	return Options{
		NamePrefix:      DefaultNamePrefix,
		ResponseTimeout: DefaultResponseTimeout,
		MaxPayload:      DefaultMaxPayload,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NamePrefix == "" {
		o.NamePrefix = d.NamePrefix
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = d.ResponseTimeout
	}
	if o.MaxPayload <= 0 {
		o.MaxPayload = d.MaxPayload
	}
	return o
}

// EncodeCommand converts Lua source into the bytes written to TX.
func EncodeCommand(script string, maxPayload int) ([]byte, error) {
	if !utf8.ValidString(script) {
		return nil, fmt.Errorf("payload is not valid UTF-8")
	}
	payload := []byte(script)
	if maxPayload > 0 && len(payload) > maxPayload {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(payload), maxPayload)
	}
	return payload, nil
}

// DecodeNotification extracts printed text from an RX notification.
// It reports false for empty and binary data notifications.
func DecodeNotification(data []byte) (string, bool) {
	if len(data) == 0 || data[0] == DataPrefix {
		return "", false
	}
	return strings.TrimRight(string(data), "\r\n"), true
}

// MatchesAdvertisement reports whether an advertisement looks like a Frame.
func MatchesAdvertisement(localName string, hasService bool, prefix string) bool {
	if hasService {
		return true
	}
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return localName != "" && strings.HasPrefix(localName, prefix)
}
