package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/logging"
)

const (
	// ServiceType is the mDNS service type bridges register
	ServiceType = "_framehello._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for bridge discovery
	DefaultScanTimeout = 3 * time.Second

	// DefaultPath is the WebSocket path when the TXT record has none
	DefaultPath = "/ws"
)

// Scanner handles mDNS bridge discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for bridges until the timeout and returns every one that
// answered, in the order they answered.
func (s *Scanner) Scan(ctx context.Context) ([]*Bridge, error) {
	var bridges []*Bridge
	err := s.browse(ctx, func(b *Bridge) bool {
		bridges = append(bridges, b)
		return true
	})
	if err != nil {
		return nil, err
	}
	return bridges, nil
}

// WaitForBridge returns the first bridge whose instance name contains
// instance, ignoring case. An empty instance accepts the first answer.
func (s *Scanner) WaitForBridge(ctx context.Context, instance string) (*Bridge, error) {
	var found *Bridge
	err := s.browse(ctx, func(b *Bridge) bool {
		if instance != "" && !strings.Contains(strings.ToLower(b.Instance), strings.ToLower(instance)) {
			return true
		}
		found = b
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		if instance == "" {
			return nil, fmt.Errorf("no bridge found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("bridge %q not found within %s", instance, s.Timeout)
	}
	return found, nil
}

// browse feeds each resolved bridge to visit until visit returns false or
// the timeout passes. visit runs on the calling goroutine.
func (s *Scanner) browse(ctx context.Context, visit func(*Bridge) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// The resolver closes entries once ctx ends.
	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	seen := make(map[string]bool)
	for entry := range entries {
		b := parseServiceEntry(entry)
		if b == nil || seen[b.Instance] {
			continue
		}
		seen[b.Instance] = true
		logging.Debug("Bridge discovered",
			zap.String("instance", b.Instance),
			zap.String("addr", b.Addr()),
			zap.String("version", b.Version()),
		)
		if !visit(b) {
			cancel()
			break
		}
	}
	// Drain so the resolver can finish
	for range entries {
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Bridge.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Bridge {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		if key != "" {
			metadata[key] = value
		}
	}

	instance := entry.Instance
	if instance == "" {
		instance = entry.HostName
	}

	return &Bridge{
		Instance:     instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
