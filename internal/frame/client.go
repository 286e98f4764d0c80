package frame

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
)

// Client drives Frames through a host Bluetooth adapter.
type Client struct {
	adapter *bluetooth.Adapter
	opts    Options

	mu      sync.Mutex
	enabled bool
	links   map[string]*link
}

var _ session.Transport = (*Client)(nil)

// NewClient returns a Client for adapter, usually bluetooth.DefaultAdapter.
// The adapter is not touched until RequestPermission.
func NewClient(adapter *bluetooth.Adapter, opts Options) *Client {
	return &Client{
		adapter: adapter,
		opts:    opts.withDefaults(),
		links:   make(map[string]*link),
	}
}

// RequestPermission enables the adapter. On macOS this triggers the
// system Bluetooth permission prompt on first use.
func (c *Client) RequestPermission(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		return nil
	}

	c.adapter.SetConnectHandler(c.onConnectEvent)
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	c.enabled = true
	logging.Debug("Bluetooth adapter enabled")
	return nil
}

func (c *Client) isEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Scan streams Frames as they are first seen. Each address is reported once.
func (c *Client) Scan(ctx context.Context) (<-chan session.Discovered, error) {
	if !c.isEnabled() {
		return nil, ErrNotEnabled
	}

	out := make(chan session.Discovered)
	go func() {
		defer close(out)

		stop := context.AfterFunc(ctx, func() {
			if err := c.adapter.StopScan(); err != nil {
				logging.Debug("StopScan failed", zap.Error(err))
			}
		})
		defer stop()

		seen := make(map[string]bool)
		err := c.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if ctx.Err() != nil {
				_ = adapter.StopScan()
				return
			}

			name := result.LocalName()
			hasService := result.AdvertisementPayload.HasServiceUUID(serviceUUID)
			if !MatchesAdvertisement(name, hasService, c.opts.NamePrefix) {
				return
			}

			id := result.Address.String()
			if seen[id] {
				return
			}
			seen[id] = true

			d := session.Discovered{
				Device: session.Device{ID: id, Name: name},
				RSSI:   result.RSSI,
			}
			select {
			case out <- d:
			case <-ctx.Done():
				_ = adapter.StopScan()
			}
		})
		if err != nil && ctx.Err() == nil {
			logging.Warn("Scan stopped with error", zap.Error(err))
		}
	}()
	return out, nil
}

// Connect links to a discovered Frame.
func (c *Client) Connect(ctx context.Context, d session.Discovered) (session.Link, error) {
	return c.connect(ctx, d.Device)
}

// Reconnect links to a Frame by address without scanning.
func (c *Client) Reconnect(ctx context.Context, id string) (session.Link, error) {
	return c.connect(ctx, session.Device{ID: id})
}

type connectResult struct {
	link *link
	err  error
}

func (c *Client) connect(ctx context.Context, d session.Device) (session.Link, error) {
	if !c.isEnabled() {
		return nil, ErrNotEnabled
	}
	addr, err := parseAddress(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", d.ID, err)
	}

	// adapter.Connect cannot be cancelled, so it runs on its own goroutine
	// and a link that arrives after ctx is done is released.
	done := make(chan connectResult, 1)
	go func() {
		l, err := c.dial(addr, d)
		done <- connectResult{link: l, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return r.link, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.link != nil {
				_ = r.link.Disconnect(context.Background())
			}
		}()
		return nil, ctx.Err()
	}
}

func (c *Client) dial(addr bluetooth.Address, d session.Device) (*link, error) {
	dev, err := c.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", d, err)
	}

	tx, rx, err := discoverCharacteristics(dev)
	if err != nil {
		_ = dev.Disconnect()
		return nil, err
	}

	l := &link{
		client: c,
		key:    addr.String(),
		device: d,
		dev:    dev,
		tx:     tx,
		opts:   c.opts,
	}
	if err := rx.EnableNotifications(l.onNotify); err != nil {
		_ = dev.Disconnect()
		return nil, fmt.Errorf("enable notifications: %w", err)
	}

	c.register(l)
	logging.LogDevice("linked", d.ID, d.Name)
	return l, nil
}

func discoverCharacteristics(dev bluetooth.Device) (tx, rx bluetooth.DeviceCharacteristic, err error) {
	services, err := dev.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		return tx, rx, fmt.Errorf("discover services: %w", err)
	}
	if len(services) != 1 {
		return tx, rx, fmt.Errorf("expected 1 Frame service, got %d", len(services))
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{txUUID, rxUUID})
	if err != nil {
		return tx, rx, fmt.Errorf("discover characteristics: %w", err)
	}

	var foundTX, foundRX bool
	for _, ch := range chars {
		switch ch.UUID() {
		case txUUID:
			tx, foundTX = ch, true
		case rxUUID:
			rx, foundRX = ch, true
		}
	}
	if !foundTX || !foundRX {
		return tx, rx, fmt.Errorf("frame service is missing TX or RX characteristic (found %d)", len(chars))
	}
	return tx, rx, nil
}

func (c *Client) register(l *link) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[l.key] = l
}

func (c *Client) unregister(l *link) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.links[l.key] == l {
		delete(c.links, l.key)
	}
}

// onConnectEvent fans adapter-wide connect events out to the owning link.
func (c *Client) onConnectEvent(device bluetooth.Device, connected bool) {
	key := device.Address.String()

	c.mu.Lock()
	l := c.links[key]
	c.mu.Unlock()

	if l == nil {
		return
	}

	state := session.LinkConnected
	if !connected {
		state = session.LinkDisconnected
	}
	logging.Debug("Link event", zap.String("device", key), zap.String("state", state.String()))
	if !connected {
		c.unregister(l)
	}
	l.states.notify(state)
}
