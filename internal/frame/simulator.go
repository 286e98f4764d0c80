package frame

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
)

// SimulatorOptions configures a Simulator. Zero values pick defaults.
type SimulatorOptions struct {
	Options

	// Device is the advertised peer. The ID defaults to a random UUID.
	Device session.Device
	// Firmware is reported as frame.FIRMWARE_VERSION.
	Firmware string
	// Battery is reported by frame.battery_level().
	Battery int
	// AdvertiseDelay is how long a scan runs before the peer is seen.
	AdvertiseDelay time.Duration
	// ConnectDelay is how long link establishment takes.
	ConnectDelay time.Duration
}

// Screen is what the simulated display shows.
type Screen struct {
	Text    string
	Color   string
	X, Y    int
	Visible bool
}

// Simulator is an in-memory Frame. It implements session.Transport.
type Simulator struct {
	opts SimulatorOptions

	mu       sync.Mutex
	enabled  bool
	hidden   bool
	running  bool // the resident script is running
	link     *simLink
	payloads []string
	screen   Screen
	pending  Screen
}

var _ session.Transport = (*Simulator)(nil)

// NewSimulator returns a Simulator with its resident script running.
func NewSimulator(opts SimulatorOptions) *Simulator {
	opts.Options = opts.Options.withDefaults()
	if opts.Device.ID == "" {
		opts.Device.ID = strings.ToUpper(uuid.NewString())
	}
	if opts.Device.Name == "" {
		opts.Device.Name = "Frame SIM"
	}
	if opts.Firmware == "" {
		opts.Firmware = "v25.080.0838"
	}
	if opts.Battery == 0 {
		opts.Battery = 87
	}
	if opts.AdvertiseDelay == 0 {
		opts.AdvertiseDelay = 400 * time.Millisecond
	}
	if opts.ConnectDelay == 0 {
		opts.ConnectDelay = 250 * time.Millisecond
	}
	return &Simulator{opts: opts, running: true}
}

// Device returns the simulated peer's identity.
func (s *Simulator) Device() session.Device {
	return s.opts.Device
}

// SetAdvertising controls whether scans find the peer.
func (s *Simulator) SetAdvertising(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = !on
}

// Payloads returns every Lua payload received, oldest first.
func (s *Simulator) Payloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.payloads...)
}

// Screen returns the current display contents.
func (s *Simulator) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Running reports whether the resident script is running.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Connected reports whether a link is live.
func (s *Simulator) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link != nil
}

// Drop severs the live link as if the peer walked out of range.
func (s *Simulator) Drop() bool {
	s.mu.Lock()
	l := s.link
	s.link = nil
	s.mu.Unlock()

	if l == nil {
		return false
	}
	logging.LogDevice("simulated drop", s.opts.Device.ID, s.opts.Device.Name)
	l.close()
	l.states.notify(session.LinkDisconnected)
	return true
}

func (s *Simulator) RequestPermission(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	return nil
}

func (s *Simulator) Scan(ctx context.Context) (<-chan session.Discovered, error) {
	s.mu.Lock()
	enabled := s.enabled
	s.mu.Unlock()
	if !enabled {
		return nil, ErrNotEnabled
	}

	out := make(chan session.Discovered)
	go func() {
		defer close(out)
		if err := wait(ctx, s.opts.AdvertiseDelay); err != nil {
			return
		}

		s.mu.Lock()
		visible := !s.hidden && s.link == nil
		s.mu.Unlock()

		if visible && MatchesAdvertisement(s.opts.Device.Name, true, s.opts.NamePrefix) {
			select {
			case out <- session.Discovered{Device: s.opts.Device, RSSI: -48}:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

func (s *Simulator) Connect(ctx context.Context, d session.Discovered) (session.Link, error) {
	return s.connect(ctx, d.ID)
}

func (s *Simulator) Reconnect(ctx context.Context, id string) (session.Link, error) {
	return s.connect(ctx, id)
}

func (s *Simulator) connect(ctx context.Context, id string) (session.Link, error) {
	if err := wait(ctx, s.opts.ConnectDelay); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return nil, ErrNotEnabled
	}
	if !strings.EqualFold(id, s.opts.Device.ID) {
		return nil, fmt.Errorf("connect to %s: device not found", id)
	}
	if s.hidden {
		return nil, fmt.Errorf("connect to %s: device out of range", id)
	}
	if s.link != nil {
		return nil, fmt.Errorf("connect to %s: already connected", id)
	}

	s.link = &simLink{sim: s}
	logging.LogDevice("simulated link", s.opts.Device.ID, s.opts.Device.Name)
	return s.link, nil
}

// release is called by a link on a clean disconnect.
func (s *Simulator) release(l *simLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.link == l {
		s.link = nil
	}
}

// exec runs one payload and returns what it printed.
func (s *Simulator) exec(payload string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payloads = append(s.payloads, payload)

	var printed []string
	env := &luaEnv{
		firmware: s.opts.Firmware,
		battery:  s.opts.Battery,
		draw: func(text string, x, y int, color string) {
			s.pending = Screen{Text: text, Color: color, X: x, Y: y}
		},
		show: func() {
			s.screen = s.pending
			s.screen.Visible = strings.TrimSpace(s.screen.Text) != ""
		},
		print: func(line string) {
			printed = append(printed, line)
		},
	}
	if err := env.run(payload); err != nil {
		logging.Debug("Simulated Lua error", zap.Error(err))
		printed = append(printed, err.Error())
	}
	return printed
}

func (s *Simulator) signal(b byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch b {
	case BreakSignal:
		s.running = false
	case ResetSignal:
		s.running = true
		s.screen = Screen{}
	}
}

// simLink is a live link to a Simulator.
type simLink struct {
	sim    *Simulator
	states watchers

	mu     sync.Mutex
	closed bool
}

var _ session.Link = (*simLink)(nil)

func (l *simLink) Device() session.Device { return l.sim.opts.Device }

func (l *simLink) States(ctx context.Context) <-chan session.LinkState {
	return l.states.subscribe(ctx)
}

func (l *simLink) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *simLink) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLinkClosed
	}
	return nil
}

func (l *simLink) SendBreak(ctx context.Context) error {
	if err := l.check(ctx); err != nil {
		return err
	}
	logging.LogPayload("tx", []byte{BreakSignal})
	l.sim.signal(BreakSignal)
	return nil
}

func (l *simLink) SendReset(ctx context.Context) error {
	if err := l.check(ctx); err != nil {
		return err
	}
	logging.LogPayload("tx", []byte{ResetSignal})
	l.sim.signal(ResetSignal)
	return nil
}

func (l *simLink) SendCommand(ctx context.Context, script string, awaitResponse bool) (string, error) {
	if err := l.check(ctx); err != nil {
		return "", err
	}
	payload, err := EncodeCommand(script, l.sim.opts.MaxPayload)
	if err != nil {
		return "", err
	}
	logging.LogPayload("tx", payload)

	printed := l.sim.exec(script)
	if !awaitResponse {
		return "", nil
	}
	if len(printed) > 0 {
		logging.LogPayload("rx", []byte(printed[0]))
		return printed[0], nil
	}

	if err := wait(ctx, l.sim.opts.ResponseTimeout); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w after %s", ErrResponseTimeout, l.sim.opts.ResponseTimeout)
}

func (l *simLink) Disconnect(ctx context.Context) error {
	l.mu.Lock()
	wasClosed := l.closed
	l.closed = true
	l.mu.Unlock()

	l.states.close()
	l.sim.release(l)
	if wasClosed {
		return ErrLinkClosed
	}
	return nil
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
