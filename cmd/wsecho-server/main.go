// Wsecho-server is a WebSocket echo server.
//
// It accepts WebSocket connections on a single TCP address and sends every
// text or binary message back to its sender unchanged. Each connection is
// served by its own goroutine; the opening handshake and framing are handled
// by a codec library (gobwas/ws by default, gorilla/websocket optionally).
//
// Usage:
//
//	wsecho-server [serve] [flags]
//
// See 'wsecho-server serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wsecho/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wsecho-server",
	Short: "WebSocket echo server",
	Long: `A minimal WebSocket echo server.

Every text or binary message a client sends is echoed back on the same
connection, byte for byte and in order. Pings are answered with pongs and
a close frame is answered with a close frame.

If no command is specified, the server starts with the flags given to the
root command (the same flags as 'serve').`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wsecho-server %s\n", version.Full())
	},
}
