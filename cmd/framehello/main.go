// Framehello connects to a Brilliant Labs Frame over Bluetooth LE and says
// hello.
//
// It scans for a nearby Frame, binds to it, halts the resident script,
// draws a numbered greeting, reads back a reply from the device and, on
// finish, restarts the resident script and disconnects. The same session
// can be driven from an interactive terminal screen, headlessly, or
// remotely over HTTP and WebSocket.
//
// Usage:
//
//	framehello [command] [flags]
//
// Running without arguments launches the interactive screen.
// See 'framehello --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "framehello",
	Short: "Say hello to a Brilliant Labs Frame",
	Long: `A small Bluetooth LE client for Brilliant Labs Frame glasses.

Connect finds a nearby Frame and pauses its resident script. Each hello
draws a numbered greeting on the display and asks the Frame for its
firmware version. Finish restarts the resident script and disconnects.

If no command is specified, the interactive screen will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: interactive screen when no subcommand provided
		return runUI(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "framehello %s\n", version.Full())
	},
}
