package main

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/framehello/internal/bridge"
	"github.com/muurk/framehello/internal/discovery"
	"github.com/muurk/framehello/internal/remote"
	"github.com/muurk/framehello/internal/session"
	"github.com/muurk/framehello/internal/ui"
)

// remoteWaitTimeout bounds how long a remote action may take end to end.
const remoteWaitTimeout = 2 * time.Minute

// Remote flags
var (
	bridgeAddr     string
	bridgeInstance string
	remoteVerbose  bool
)

func init() {
	rootCmd.AddCommand(bridgesCmd)
	rootCmd.AddCommand(remoteCmd)

	remoteCmd.Flags().StringVar(&bridgeAddr, "addr", "", "Bridge address as host:port (skips mDNS discovery)")
	remoteCmd.Flags().StringVar(&bridgeInstance, "bridge", "", "Only use a bridge whose instance name contains this")
	remoteCmd.Flags().BoolVarP(&remoteVerbose, "verbose", "v", false, "Print the log lines the action produced")
}

// bridgesCmd lists bridges on the local network
var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "List framehello bridges on the local network",
	Long: `Browse mDNS for bridges started with 'framehello serve'.

Each bridge is listed with its instance name, address and version.`,
	Example: `  # Browse for the default 3 seconds
  framehello bridges

  # Browse longer
  framehello bridges --timeout 10s`,
	RunE: runBridges,
}

func runBridges(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := initLogging(false); err != nil {
		return err
	}

	scanner := newBridgeScanner()
	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Bridges", "framehello bridges",
		ui.Field{Key: "Service", Value: discovery.ServiceType},
		ui.Field{Key: "Timeout", Value: scanner.Timeout.String()},
	)

	bridges, err := scanner.Scan(cmd.Context())
	if err != nil {
		printer.PrintFailure("Browse failed", err)
		return err
	}
	printer.PrintBridges(bridges)
	return nil
}

// remoteCmd drives a session served by another framehello
var remoteCmd = &cobra.Command{
	Use:   "remote <state|connect|hello|finish>",
	Short: "Drive a session served by 'framehello serve'",
	Long: `Send one action to a bridge and wait for it to finish.

The bridge is found over mDNS unless --addr is given. 'state' prints the
bridge's session without acting on it.`,
	Example: `  # Connect the bridge's session, then say hello
  framehello remote connect
  framehello remote hello --verbose

  # A bridge at a known address
  framehello remote state --addr 192.168.1.20:8787`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"state", string(session.ActionConnect), string(session.ActionSayHello), string(session.ActionFinish)},
	RunE:      runRemote,
}

func runRemote(cmd *cobra.Command, args []string) error {
	var action session.Action
	if args[0] != "state" {
		a, err := session.ParseAction(args[0])
		if err != nil {
			return err
		}
		action = a
	}
	cmd.SilenceUsage = true

	if err := initLogging(false); err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	client, target, err := remoteClient(cmd.Context())
	if err != nil {
		printer.PrintFailure("No bridge", err)
		return err
	}

	if action == "" {
		view, err := client.State(cmd.Context())
		if err != nil {
			printer.PrintFailure("Could not read state", err)
			return err
		}
		printer.PrintSuccess("Bridge "+target, stateFields(view)...)
		return nil
	}

	printer.PrintHeader("Remote", "framehello remote "+args[0],
		ui.Field{Key: "Bridge", Value: target},
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), remoteWaitTimeout)
	defer cancel()

	entries, view, err := remoteAction(ctx, client, action)
	if remoteVerbose && len(entries) > 0 {
		printer.PrintLog(entries)
	}
	if err != nil {
		printer.PrintFailure("Remote "+args[0]+" failed", err)
		return err
	}
	printer.PrintSuccess("Remote "+args[0]+" done", stateFields(view)...)
	return nil
}

// remoteAction runs a on the bridge and returns the log lines it produced.
// An error line in those makes the action fail.
func remoteAction(ctx context.Context, client *remote.Client, a session.Action) ([]session.LogEntry, *bridge.StateView, error) {
	before, err := client.State(ctx)
	if err != nil {
		return nil, nil, err
	}
	view, err := client.Run(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	entries, err := client.Log(ctx, before.LogLen)
	if err != nil {
		return nil, view, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Level == session.LevelError {
			return entries, view, errors.New(entries[i].Text)
		}
	}
	return entries, view, nil
}

// remoteClient connects to --addr, or to the first bridge mDNS turns up.
func remoteClient(ctx context.Context) (*remote.Client, string, error) {
	if bridgeAddr != "" {
		host, portStr, err := net.SplitHostPort(bridgeAddr)
		if err != nil {
			return nil, "", err
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, "", errors.New("invalid port in --addr: " + portStr)
		}
		return remote.NewClient(host, port), bridgeAddr, nil
	}

	b, err := newBridgeScanner().WaitForBridge(ctx, bridgeInstance)
	if err != nil {
		return nil, "", err
	}
	return remote.NewClientForBridge(b), b.String(), nil
}

func newBridgeScanner() *discovery.Scanner {
	scanner := discovery.NewScanner()
	if scanTimeout > 0 {
		scanner.Timeout = scanTimeout
	}
	return scanner
}

func stateFields(view *bridge.StateView) []ui.Field {
	device := "-"
	if view.Bound != nil {
		device = view.Bound.String()
	}
	fields := []ui.Field{
		{Key: "State", Value: view.State},
		{Key: "Device", Value: device},
		{Key: "Hellos", Value: strconv.Itoa(view.Counter)},
	}
	if view.Busy {
		fields = append(fields, ui.Field{Key: "Busy", Value: "yes"})
	}
	return fields
}
