package session

import (
	"context"
	"fmt"
)

// Device identifies a peer. ID is the transport address (MAC on Linux,
// CoreBluetooth UUID on macOS) and is what reconnect targets.
type Device struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// String returns "name (id)" or just the id when the name is unknown
func (d Device) String() string {
	if d.Name == "" {
		return d.ID
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.ID)
}

// Discovered is a device seen during a scan.
type Discovered struct {
	Device
	RSSI int16 `json:"rssi"`
}

// LinkState is a notification from the link-state stream.
type LinkState int

const (
	LinkConnected LinkState = iota
	LinkDisconnected
)

func (s LinkState) String() string {
	switch s {
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("LinkState(%d)", int(s))
	}
}

// Transport is the BLE collaborator a Session drives.
type Transport interface {
	// RequestPermission enables the local adapter.
	RequestPermission(ctx context.Context) error

	// Scan streams discovered peers until ctx is cancelled. The channel is
	// closed when discovery stops.
	Scan(ctx context.Context) (<-chan Discovered, error)

	// Connect establishes a link to a discovered peer, including service
	// discovery.
	Connect(ctx context.Context, d Discovered) (Link, error)

	// Reconnect establishes a link to a previously bound peer without scanning.
	Reconnect(ctx context.Context, id string) (Link, error)
}

// Link is a live connection to a peer.
type Link interface {
	Device() Device

	// States streams link-state notifications until ctx is cancelled.
	States(ctx context.Context) <-chan LinkState

	// SendBreak halts whatever script the peer is running.
	SendBreak(ctx context.Context) error

	// SendReset asks the peer to resume its resident script.
	SendReset(ctx context.Context) error

	// SendCommand writes a Lua payload. With awaitResponse the first line
	// the peer prints is returned.
	SendCommand(ctx context.Context, script string, awaitResponse bool) (string, error)

	Disconnect(ctx context.Context) error
}
