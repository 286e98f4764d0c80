package config

import "time"

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int           `yaml:"version"`
	LastDevice  *DeviceRecord `yaml:"last_device,omitempty"`
	Preferences *Preferences  `yaml:"preferences,omitempty"`
}

// DeviceRecord remembers a Frame the application has connected to.
type DeviceRecord struct {
	ID       string    `yaml:"id"`                  // MAC address, or CoreBluetooth UUID on macOS
	Name     string    `yaml:"name,omitempty"`      // Advertised name, e.g. "Frame 4F"
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful handshake
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	ScanTimeout     time.Duration `yaml:"scan_timeout"`     // Discovery deadline
	NamePrefix      string        `yaml:"name_prefix"`      // Advertised name prefix that marks a Frame
	ReconnectLast   bool          `yaml:"reconnect_last"`   // Reconnect to last_device instead of scanning
	ResponseTimeout time.Duration `yaml:"response_timeout"` // Wait for printed output from the device
	MaxPayload      int           `yaml:"max_payload"`      // Largest Lua payload sent in one write
	Timings         *TimingPrefs  `yaml:"timings,omitempty"`
}

// TimingPrefs overrides the pauses between steps of a session. Zero
// values keep the built-in defaults.
type TimingPrefs struct {
	HandshakeSettle time.Duration `yaml:"handshake_settle,omitempty"`
	DisplaySettle   time.Duration `yaml:"display_settle,omitempty"`
	Dwell           time.Duration `yaml:"dwell,omitempty"`
	ClearSettle     time.Duration `yaml:"clear_settle,omitempty"`
	TeardownPause   time.Duration `yaml:"teardown_pause,omitempty"`
}

// DefaultPreferences returns the preferences used when none are stored.
func DefaultPreferences() *Preferences {
	return &Preferences{
		ScanTimeout:     5 * time.Second,
		NamePrefix:      "Frame",
		ReconnectLast:   false,
		ResponseTimeout: 10 * time.Second,
		MaxPayload:      244,
		Timings:         &TimingPrefs{},
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Preferences: DefaultPreferences(),
	}
}

// SetLastDevice records the device a session bound to.
func (r *Registry) SetLastDevice(id, name string) {
	r.LastDevice = &DeviceRecord{
		ID:       id,
		Name:     name,
		LastSeen: time.Now(),
	}
}

// ForgetDevice clears the remembered device. It reports whether one was set.
func (r *Registry) ForgetDevice() bool {
	had := r.LastDevice != nil
	r.LastDevice = nil
	return had
}

// normalize fills in anything a hand-edited file left out.
func (r *Registry) normalize() {
	// A device without an ID cannot be reconnected to.
	if r.LastDevice != nil && r.LastDevice.ID == "" {
		r.LastDevice = nil
	}

	defaults := DefaultPreferences()
	if r.Preferences == nil {
		r.Preferences = defaults
		return
	}
	p := r.Preferences
	if p.ScanTimeout <= 0 {
		p.ScanTimeout = defaults.ScanTimeout
	}
	if p.NamePrefix == "" {
		p.NamePrefix = defaults.NamePrefix
	}
	if p.ResponseTimeout <= 0 {
		p.ResponseTimeout = defaults.ResponseTimeout
	}
	if p.MaxPayload <= 0 {
		p.MaxPayload = defaults.MaxPayload
	}
	if p.Timings == nil {
		p.Timings = &TimingPrefs{}
	}
}
