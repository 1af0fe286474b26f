// Wsecho-probe checks that a WebSocket echo server behaves correctly.
//
// It connects to a server, sends a fixed set of messages plus a batch of
// random ones, verifies every echo is byte-identical and in order, then runs
// the closing handshake. It can also browse the local network for servers
// that advertise themselves over mDNS.
//
// Usage:
//
//	wsecho-probe [command] [flags]
//
// See 'wsecho-probe --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wsecho-probe",
	Short: "WebSocket echo server probe",
	Long: `A client for checking WebSocket echo servers.

Use 'probe' to run the echo checks against a server and 'scan' to find
servers advertised on the local network.`,
	Version:      version.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless WSECHO_LOG_LEVEL is set
		return logging.Initialize("")
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wsecho-probe %s\n", version.Full())
	},
}
