package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func newEntry(instance, host string, port int, v4 string, txt ...string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = host
	entry.Port = port
	entry.Text = txt
	if v4 != "" {
		entry.AddrIPv4 = []net.IP{net.ParseIP(v4)}
	}
	return entry
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
		wantVersion  string
	}{
		{
			name:         "bridge with IPv4 and TXT",
			entry:        newEntry("framehello on studio", "studio.local.", 8787, "192.168.1.20", "version=v0.3.0", "path=/ws"),
			wantInstance: "framehello on studio",
			wantIP:       "192.168.1.20",
			wantPort:     8787,
			wantVersion:  "v0.3.0",
		},
		{
			name: "IPv6 only",
			entry: func() *zeroconf.ServiceEntry {
				e := newEntry("framehello on lab", "lab.local.", 9000, "")
				e.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}
				return e
			}(),
			wantInstance: "framehello on lab",
			wantIP:       "fe80::1",
			wantPort:     9000,
		},
		{
			name:         "missing instance falls back to hostname",
			entry:        newEntry("", "desk.local.", 8787, "10.0.0.5"),
			wantInstance: "desk.local.",
			wantIP:       "10.0.0.5",
			wantPort:     8787,
		},
		{
			name:    "no address",
			entry:   newEntry("framehello on ghost", "ghost.local.", 8787, ""),
			wantNil: true,
		},
		{
			name:    "no port",
			entry:   newEntry("framehello on ghost", "ghost.local.", 0, "10.0.0.9"),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if b != nil {
					t.Errorf("parseServiceEntry() = %+v, want nil", b)
				}
				return
			}
			if b == nil {
				t.Fatal("parseServiceEntry() = nil, want bridge")
			}
			if b.Instance != tt.wantInstance {
				t.Errorf("Instance = %q, want %q", b.Instance, tt.wantInstance)
			}
			if b.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", b.IP, tt.wantIP)
			}
			if b.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", b.Port, tt.wantPort)
			}
			if b.Version() != tt.wantVersion {
				t.Errorf("Version() = %q, want %q", b.Version(), tt.wantVersion)
			}
			if b.DiscoveredAt.IsZero() {
				t.Error("DiscoveredAt should be set")
			}
		})
	}
}

func TestNewScanner(t *testing.T) {
	if got := NewScanner().Timeout; got != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultScanTimeout)
	}
}
