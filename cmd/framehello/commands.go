package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/framehello/internal/bridge"
	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
	"github.com/muurk/framehello/internal/tui"
	"github.com/muurk/framehello/internal/ui"
)

// Command flags
var (
	helloCount  int
	verbose     bool
	serveHost   string
	servePort   int
	noAdvertise bool
	assumeYes   bool
)

func init() {
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(helloCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(forgetCmd)
}

// uiCmd launches the interactive screen
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the interactive screen",
	Long: `Launch the interactive screen.

The screen shows the session state, the bound device, the number of hellos
said so far and the session log. Connect, Say hello and Finish are only
enabled when the session can act on them.

Logs are written to a file while the screen is open (see --log-file).`,
	Example: `  # Launch the screen
  framehello ui
  # Or simply (ui is default):
  framehello

  # Try it without hardware
  framehello --simulate`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := initLogging(true); err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	s := rt.newSession()
	defer s.Close()

	logging.Info("Starting interactive session")
	return tui.Run(s)
}

// scanCmd lists nearby Frames
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List nearby Frames without connecting",
	Long: `Scan for Frames advertising over Bluetooth LE.

This command scans for the discovery timeout and prints every Frame it saw
with its address and signal strength. It never connects.`,
	Example: `  # Scan for the configured timeout (5s by default)
  framehello scan

  # Longer scan
  framehello scan --timeout 15s`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := initLogging(false); err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	timeout := rt.timings().ScanTimeout
	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Scan", "framehello scan",
		ui.Field{Key: "Transport", Value: rt.transportName()},
		ui.Field{Key: "Timeout", Value: timeout.String()},
	)

	devices, err := scanDevices(cmd.Context(), rt.transport, timeout, matchDevice(deviceFilter))
	if err != nil {
		printer.PrintFailure("Scan failed", err)
		return err
	}
	printer.PrintDevices(devices)
	return nil
}

// scanDevices collects discovery results until timeout. A device seen
// twice keeps its latest signal strength.
func scanDevices(ctx context.Context, t session.Transport, timeout time.Duration, match func(session.Discovered) bool) ([]session.Discovered, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := t.RequestPermission(ctx); err != nil {
		return nil, &session.Error{Kind: session.ErrPermissionDenied, Op: "enable Bluetooth adapter", Err: err}
	}
	results, err := t.Scan(ctx)
	if err != nil {
		return nil, &session.Error{Kind: session.ErrConnectionFailure, Op: "start discovery", Err: err}
	}

	var devices []session.Discovered
	seen := make(map[string]int)
	for d := range results {
		if match != nil && !match(d) {
			continue
		}
		if i, ok := seen[d.ID]; ok {
			devices[i] = d
			continue
		}
		seen[d.ID] = len(devices)
		devices = append(devices, d)
	}
	return devices, nil
}

// helloCmd runs a whole session without the interactive screen
var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Connect, say hello and finish",
	Long: `Run one session without the interactive screen.

This command will:
  1. Find a Frame (or reconnect to the remembered one)
  2. Say hello --count times
  3. Restart the resident script and disconnect

The exit status is non-zero when any step fails.`,
	Example: `  # One hello
  framehello hello

  # Three hellos, printing the session log afterwards
  framehello hello --count 3 --verbose

  # A specific Frame
  framehello hello --device "Frame 4F"`,
	RunE: runHello,
}

func init() {
	helloCmd.Flags().IntVarP(&helloCount, "count", "n", 1, "Number of hellos to say")
	helloCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the session log when done")
}

func runHello(cmd *cobra.Command, args []string) error {
	if helloCount < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", helloCount)
	}
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	if err := initLogging(false); err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	s := rt.newSession()
	defer s.Close()

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Say Hello",
		Command: "framehello hello --count " + strconv.Itoa(helloCount),
		Params: []ui.Field{
			{Key: "Transport", Value: rt.transportName()},
			{Key: "Scan timeout", Value: rt.timings().ScanTimeout.String()},
		},
		Steps:   helloSteps(helloCount),
		Verbose: verbose,
		Output:  cmd.OutOrStdout(),
	})

	return runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) ([]ui.Field, error) {
		defer func() { runner.SetLog(s.Log()) }()
		return helloSequence(ctx, s, helloCount, onStep)
	})
}

// serveCmd exposes a session over HTTP and WebSocket
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Drive a session over HTTP and WebSocket",
	Long: `Serve one session to remote clients.

Endpoints:
  GET  /state            Current state, bound device, hello count and enabled actions
  GET  /log?since=N      Session log entries from sequence N
  POST /actions/{name}   Run connect, hello or finish
  GET  /ws               Live updates; send {"action":"hello"} to act

The service is advertised over mDNS as ` + bridge.ServiceType + ` unless
--no-advertise is given.`,
	Example: `  # Serve on the default port
  framehello serve

  # Local only, no mDNS
  framehello serve --host 127.0.0.1 --no-advertise

  # Try it without hardware
  framehello serve --simulate --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&servePort, "port", bridge.DefaultPort, "Listen port")
	serveCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not advertise the service over mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if logLevel == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
		logLevel = "info"
	}
	if err := initLogging(false); err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	s := rt.newSession()
	defer s.Close()

	srv := bridge.New(s, bridge.Config{
		Host:      serveHost,
		Port:      servePort,
		Advertise: !noAdvertise,
	})

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Bridge", "framehello serve",
		ui.Field{Key: "Listen", Value: srv.Addr()},
		ui.Field{Key: "Transport", Value: rt.transportName()},
		ui.Field{Key: "mDNS", Value: advertiseLabel(!noAdvertise)},
	)

	if err := srv.ListenAndServe(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		printer.PrintFailure("Bridge stopped", err)
		return err
	}
	return nil
}

func advertiseLabel(on bool) string {
	if on {
		return bridge.ServiceType + " on " + bridge.ServiceDomain
	}
	return "disabled"
}

// forgetCmd clears the remembered device
var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Forget the remembered Frame",
	Long: `Clear the Frame remembered from the last successful connection.

With reconnect_last enabled in the config file, the next connect goes
straight to the remembered Frame without scanning. Forgetting it makes the
next connect scan again.`,
	Example: `  # Ask before forgetting
  framehello forget

  # No prompt
  framehello forget --yes`,
	RunE: runForget,
}

func init() {
	forgetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runForget(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	registry, path, err := loadRegistry()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	rec := registry.LastDevice
	if rec == nil {
		printer.PrintWarning("No Frame is remembered", ui.Field{Key: "Config", Value: path})
		return nil
	}

	device := session.Device{ID: rec.ID, Name: rec.Name}
	if !assumeYes {
		notes := []string{
			"Remembered: " + device.String(),
			"Last seen: " + rec.LastSeen.Format("2006-01-02 15:04"),
		}
		if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Forget Frame", notes, "Forget this Frame?") {
			return nil
		}
	}

	registry.ForgetDevice()
	if err := registry.SaveTo(path); err != nil {
		printer.PrintFailure("Could not update config", err)
		return err
	}
	printer.PrintSuccess("Frame forgotten",
		ui.Field{Key: "Device", Value: device.String()},
		ui.Field{Key: "Config", Value: path},
	)
	return nil
}
