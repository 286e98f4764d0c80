// Package discovery finds framehello bridges on the local network.
//
// A bridge started with "framehello serve" registers itself over multicast
// DNS as a "_framehello._tcp" service. The Scanner browses for that service
// type and resolves each answer to an address, port and the TXT metadata the
// bridge publishes:
//
//	version=v0.3.0   framehello version of the bridge
//	path=/ws         WebSocket endpoint
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 3 * time.Second
//
//	bridges, err := scanner.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, b := range bridges {
//	    fmt.Printf("%s at %s\n", b.Instance, b.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
