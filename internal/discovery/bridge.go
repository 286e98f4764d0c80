package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Bridge is a framehello bridge found on the network
type Bridge struct {
	// Instance is the advertised instance name (e.g., "framehello on studio")
	Instance string

	// Hostname is the mDNS hostname (e.g., "studio.local.")
	Hostname string

	// IP is the resolved address, IPv4 preferred
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record data ("version", "path")
	Metadata map[string]string

	// DiscoveredAt is when the bridge answered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("%s at %s", b.Instance, b.Addr())
}

// Addr returns host:port for the bridge
func (b *Bridge) Addr() string {
	return net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}

// BaseURL returns the HTTP base URL for the bridge
func (b *Bridge) BaseURL() string {
	return "http://" + b.Addr()
}

// WebSocketURL returns the live update endpoint
func (b *Bridge) WebSocketURL() string {
	path := b.GetMetadata("path")
	if path == "" {
		path = DefaultPath
	}
	return "ws://" + b.Addr() + path
}

// Version returns the advertised framehello version, if any
func (b *Bridge) Version() string {
	return b.GetMetadata("version")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
