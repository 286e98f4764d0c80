package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/muurk/framehello/internal/config"
	"github.com/muurk/framehello/internal/frame"
	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
)

// Global flags shared by every command that drives a session
var (
	simulate     bool
	logLevel     string
	logFile      string
	scanTimeout  time.Duration
	deviceFilter string
	configPath   string
)

// simulatedDevice is the peer --simulate advertises. Its ID is fixed so
// reconnect_last works across simulated runs.
var simulatedDevice = session.Device{ID: "F7:3C:29:5A:11:9E", Name: "Frame 9E"}

func init() {
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Use an in-memory Frame instead of Bluetooth hardware")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default $"+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")
	rootCmd.PersistentFlags().DurationVar(&scanTimeout, "timeout", 0, "Discovery timeout (e.g. 5s, 15s); default from config")
	rootCmd.PersistentFlags().StringVar(&deviceFilter, "device", "", "Only connect to a Frame whose address or name matches")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default $"+config.ConfigPathEnvVar+" or the platform location)")
}

// initLogging sets up the global logger. The interactive screen owns the
// terminal, so its logs always go to a file.
func initLogging(interactive bool) error {
	output := logFile
	if output == "" && interactive {
		output = filepath.Join(os.TempDir(), "framehello.log")
	}
	if err := logging.InitializeWithOutput(logLevel, output); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// runtime is what a command needs to build a session.
type runtime struct {
	registry   *config.Registry
	configPath string
	transport  session.Transport
}

func newRuntime() (*runtime, error) {
	registry, path, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	return &runtime{
		registry:   registry,
		configPath: path,
		transport:  newTransport(registry.Preferences),
	}, nil
}

func loadRegistry() (*config.Registry, string, error) {
	if configPath != "" {
		registry, err := config.LoadRegistryFrom(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return registry, configPath, nil
	}

	path, err := config.GetConfigPath()
	if err != nil {
		return nil, "", err
	}
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return registry, path, nil
}

func newTransport(prefs *config.Preferences) session.Transport {
	opts := frameOptions(prefs)
	if simulate {
		return frame.NewSimulator(frame.SimulatorOptions{Options: opts, Device: simulatedDevice})
	}
	return frame.NewClient(bluetooth.DefaultAdapter, opts)
}

// transportName is shown in command headers.
func (rt *runtime) transportName() string {
	if _, ok := rt.transport.(*frame.Simulator); ok {
		return "Simulated Frame"
	}
	return "Bluetooth LE"
}

func (rt *runtime) timings() session.Timings {
	return sessionTimings(rt.registry.Preferences, scanTimeout)
}

// newSession builds a session that remembers every device it binds to.
func (rt *runtime) newSession() *session.Session {
	return session.New(rt.transport, session.Options{
		Timings: rt.timings(),
		Bound:   lastDevice(rt.registry, deviceFilter),
		Match:   matchDevice(deviceFilter),
		OnBound: rt.remember,
	})
}

func (rt *runtime) remember(d session.Device) {
	rt.registry.SetLastDevice(d.ID, d.Name)
	if err := rt.registry.SaveTo(rt.configPath); err != nil {
		logging.Warn("Failed to remember device",
			zap.String("device_id", d.ID),
			zap.String("path", rt.configPath),
			zap.Error(err),
		)
	}
}

func frameOptions(prefs *config.Preferences) frame.Options {
	return frame.Options{
		NamePrefix:      prefs.NamePrefix,
		ResponseTimeout: prefs.ResponseTimeout,
		MaxPayload:      prefs.MaxPayload,
	}
}

// sessionTimings overlays stored preferences and the --timeout flag on the
// built-in defaults. Zero values keep the default.
func sessionTimings(prefs *config.Preferences, scanOverride time.Duration) session.Timings {
	t := session.DefaultTimings()
	override(&t.ScanTimeout, prefs.ScanTimeout)
	override(&t.ScanTimeout, scanOverride)
	if tp := prefs.Timings; tp != nil {
		override(&t.HandshakeSettle, tp.HandshakeSettle)
		override(&t.DisplaySettle, tp.DisplaySettle)
		override(&t.Dwell, tp.Dwell)
		override(&t.ClearSettle, tp.ClearSettle)
		override(&t.TeardownPause, tp.TeardownPause)
	}
	return t
}

func override(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// matchDevice accepts a device whose address equals filter or whose name
// contains it, ignoring case. An empty filter accepts anything.
func matchDevice(filter string) func(session.Discovered) bool {
	if filter == "" {
		return nil
	}
	needle := strings.ToLower(filter)
	return func(d session.Discovered) bool {
		return strings.EqualFold(d.ID, filter) || strings.Contains(strings.ToLower(d.Name), needle)
	}
}

// lastDevice returns the remembered device to reconnect to, if the user
// opted in and it satisfies --device.
func lastDevice(registry *config.Registry, filter string) *session.Device {
	rec := registry.LastDevice
	if rec == nil || !registry.Preferences.ReconnectLast {
		return nil
	}
	d := session.Device{ID: rec.ID, Name: rec.Name}
	if match := matchDevice(filter); match != nil && !match(session.Discovered{Device: d}) {
		return nil
	}
	return &d
}
