package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/muurk/wsecho/internal/config"
	"github.com/muurk/wsecho/internal/echo"
	"github.com/muurk/wsecho/internal/server"
)

// Serve flags. They override the config file only when set explicitly.
var (
	configPath       string
	host             string
	port             int
	codecName        string
	logLevel         string
	handshakeTimeout time.Duration
	idleTimeout      time.Duration
	writeTimeout     time.Duration
	maxMessageSize   int64
	captureDir       string
	advertise        bool
	instance         string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the echo server",
	Long: `Start the WebSocket echo server.

Settings are read from the config file (see 'wsecho-server config init'),
then overridden by any flag given on the command line. A failure to bind
the listen address is fatal.

To record echoed traffic for later inspection, use --capture-dir to name a
directory where a JSON Lines capture file will be written.`,
	Example: `  # Listen on the default address (127.0.0.1:8080)
  wsecho-server serve

  # Listen on all interfaces with debug logging
  wsecho-server serve --host 0.0.0.0 --port 9000 --log-level debug

  # Use the gorilla codec and cap messages at 1 MiB
  wsecho-server serve --codec gorilla --max-message-size 1048576

  # Drop clients that stay silent for a minute and advertise over mDNS
  wsecho-server serve --idle-timeout 1m --advertise --instance lab-echo`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	for _, flags := range []*pflag.FlagSet{serveCmd.Flags(), rootCmd.Flags()} {
		defaults := config.Default()
		flags.StringVar(&configPath, "config", "", "Path to config file (default: OS config dir)")
		flags.StringVar(&host, "host", defaults.Listen.Host, "Listen host (empty = all interfaces)")
		flags.IntVar(&port, "port", defaults.Listen.Port, "Listen port")
		flags.StringVar(&codecName, "codec", defaults.Codec, "WebSocket codec ("+strings.Join(echo.CodecNames(), ", ")+")")
		flags.StringVar(&logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
		flags.DurationVar(&handshakeTimeout, "handshake-timeout", defaults.Timeouts.Handshake, "Opening handshake timeout (0 = none)")
		flags.DurationVar(&idleTimeout, "idle-timeout", defaults.Timeouts.Idle, "Close connections idle for this long (0 = never)")
		flags.DurationVar(&writeTimeout, "write-timeout", defaults.Timeouts.Write, "Per-message write timeout (0 = none)")
		flags.Int64Var(&maxMessageSize, "max-message-size", defaults.MaxMessageSize, "Maximum message size in bytes (0 = unlimited)")
		flags.StringVar(&captureDir, "capture-dir", "", "Directory to write message capture files (disabled if not specified)")
		flags.BoolVar(&advertise, "advertise", defaults.Advertise.Enabled, "Advertise the server over mDNS")
		flags.StringVar(&instance, "instance", defaults.Advertise.Instance, "mDNS instance name")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	file, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), file)
	if err := file.Validate(); err != nil {
		return err
	}

	srv, err := server.New(serverConfig(file))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Listen(); err != nil {
		return err
	}
	fmt.Printf("wsecho-server listening on ws://%s/ (codec: %s)\n", srv.Addr(), file.Codec)

	return srv.Run()
}

// applyFlags copies explicitly set flags over the file values
func applyFlags(flags *pflag.FlagSet, f *config.File) {
	if flags.Changed("host") {
		f.Listen.Host = host
	}
	if flags.Changed("port") {
		f.Listen.Port = port
	}
	if flags.Changed("codec") {
		f.Codec = codecName
	}
	if flags.Changed("log-level") {
		f.LogLevel = logLevel
	}
	if flags.Changed("handshake-timeout") {
		f.Timeouts.Handshake = handshakeTimeout
	}
	if flags.Changed("idle-timeout") {
		f.Timeouts.Idle = idleTimeout
	}
	if flags.Changed("write-timeout") {
		f.Timeouts.Write = writeTimeout
	}
	if flags.Changed("max-message-size") {
		f.MaxMessageSize = maxMessageSize
	}
	if flags.Changed("capture-dir") {
		f.CaptureDir = captureDir
	}
	if flags.Changed("advertise") {
		f.Advertise.Enabled = advertise
	}
	if flags.Changed("instance") {
		f.Advertise.Instance = instance
	}
}

func serverConfig(f *config.File) *server.Config {
	return &server.Config{
		Host:             f.Listen.Host,
		Port:             f.Listen.Port,
		Codec:            f.Codec,
		LogLevel:         f.LogLevel,
		HandshakeTimeout: f.Timeouts.Handshake,
		IdleTimeout:      f.Timeouts.Idle,
		WriteTimeout:     f.Timeouts.Write,
		MaxMessageSize:   f.MaxMessageSize,
		CaptureDir:       f.CaptureDir,
		Advertise:        f.Advertise.Enabled,
		Instance:         f.Advertise.Instance,
	}
}
