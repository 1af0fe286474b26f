package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wsecho/internal/client"
	"github.com/muurk/wsecho/internal/echo"
	"github.com/muurk/wsecho/internal/logging"
	"github.com/muurk/wsecho/internal/ui"
)

const defaultURL = "ws://127.0.0.1:8080/"

var (
	probeCount   int
	probeSize    int
	probeTimeout time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Run the echo checks against a server",
	Long: `Connect to an echo server and verify its behaviour.

The probe sends the text message "ping" and the binary message 0xDEADBEEF,
then --count random messages alternating between text and binary. Every
echo must match the sent message exactly and arrive in order. Finally the
probe sends a normal-closure frame and expects a close frame in reply.`,
	Example: `  # Probe a local server on the default port
  wsecho-probe probe

  # Probe a remote server with 100 messages of 4 KiB
  wsecho-probe probe ws://10.0.0.5:9000/ --count 100 --size 4096`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().IntVar(&probeCount, "count", 10, "Number of random messages to send")
	probeCmd.Flags().IntVar(&probeSize, "size", 256, "Size of each random message in bytes")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", client.DefaultTimeout, "Timeout for dialing and each round trip")
}

// Checklist positions
const (
	checkConnect = iota
	checkText
	checkBinary
	checkRandom
	checkClose
)

func runProbe(cmd *cobra.Command, args []string) error {
	if probeCount < 0 || probeSize < 0 {
		return errors.New("--count and --size must not be negative")
	}

	url := defaultURL
	if len(args) == 1 {
		url = args[0]
	}

	fmt.Println(ui.NewHeader("WebSocket Echo Probe", "wsecho-probe probe",
		ui.Param{Key: "Target", Value: url},
		ui.Param{Key: "Messages", Value: strconv.Itoa(probeCount + 2)},
		ui.Param{Key: "Size", Value: fmt.Sprintf("%d bytes", probeSize)},
	))
	fmt.Println()

	checks := ui.NewChecklist(
		"Connect",
		`Text echo ("ping")`,
		"Binary echo (0xDEADBEEF)",
		fmt.Sprintf("%d random messages", probeCount),
		"Close handshake",
	)

	stats, err := probe(cmd.Context(), url, checks)
	fmt.Println(checks)
	fmt.Println()

	if err != nil {
		logging.Debug("Probe failed", zap.String("url", url), zap.Error(err))
		fmt.Println(ui.NewFail("Echo server misbehaved", err,
			"Check that the server is running and the URL is correct",
			"Use ws:// URLs; the probe does not speak TLS",
			"Run the server with --log-level debug to see each frame",
		))
		return fmt.Errorf("probe failed")
	}

	fmt.Println(ui.NewPass("Echo server OK",
		ui.Param{Key: "Echoed", Value: strconv.Itoa(stats.echoed)},
		ui.Param{Key: "Bytes", Value: strconv.FormatInt(stats.bytes, 10)},
		ui.Param{Key: "Avg RTT", Value: stats.avg().String()},
		ui.Param{Key: "Close code", Value: strconv.Itoa(stats.closeCode)},
	))
	return nil
}

type probeStats struct {
	echoed    int
	bytes     int64
	rtt       time.Duration
	closeCode int
}

func (s probeStats) avg() time.Duration {
	if s.echoed == 0 {
		return 0
	}
	return (s.rtt / time.Duration(s.echoed)).Round(time.Microsecond)
}

func probe(ctx context.Context, url string, checks *ui.Checklist) (probeStats, error) {
	var stats probeStats
	if ctx == nil {
		ctx = context.Background()
	}

	checks.Start(checkConnect)
	start := time.Now()
	c, err := client.Dial(ctx, url, probeTimeout)
	if err != nil {
		checks.Fail(checkConnect, "")
		return stats, err
	}
	checks.Pass(checkConnect, time.Since(start).Round(time.Microsecond).String())

	verify := func(msg echo.Message) error {
		rtt, err := c.Verify(msg)
		if err != nil {
			return err
		}
		stats.echoed++
		stats.bytes += int64(len(msg.Payload))
		stats.rtt += rtt
		return nil
	}

	fixed := []struct {
		check int
		msg   echo.Message
	}{
		{checkText, echo.Text("ping")},
		{checkBinary, echo.Binary([]byte{0xDE, 0xAD, 0xBE, 0xEF})},
	}
	for _, f := range fixed {
		checks.Start(f.check)
		if err := verify(f.msg); err != nil {
			checks.Fail(f.check, "")
			_ = c.Abort()
			return stats, err
		}
		checks.Pass(f.check, fmt.Sprintf("%d bytes", len(f.msg.Payload)))
	}

	checks.Start(checkRandom)
	for i := 0; i < probeCount; i++ {
		msg, err := randomMessage(i, probeSize)
		if err != nil {
			checks.Fail(checkRandom, "")
			_ = c.Abort()
			return stats, err
		}
		if err := verify(msg); err != nil {
			checks.Fail(checkRandom, fmt.Sprintf("message %d", i+1))
			_ = c.Abort()
			return stats, fmt.Errorf("message %d: %w", i+1, err)
		}
	}
	checks.Pass(checkRandom, fmt.Sprintf("avg %s", stats.avg()))

	checks.Start(checkClose)
	code, err := c.Close()
	if err != nil {
		checks.Fail(checkClose, "")
		return stats, err
	}
	stats.closeCode = code
	if code != echo.StatusNormalClosure {
		checks.Fail(checkClose, fmt.Sprintf("code %d", code))
		return stats, fmt.Errorf("close reply code = %d, want %d", code, echo.StatusNormalClosure)
	}
	checks.Pass(checkClose, fmt.Sprintf("code %d", code))

	return stats, nil
}

// randomMessage alternates text and binary. Text payloads stay printable
// ASCII so they are valid UTF-8.
func randomMessage(i, size int) (echo.Message, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return echo.Message{}, fmt.Errorf("failed to generate payload: %w", err)
	}
	if i%2 == 1 {
		return echo.Binary(buf), nil
	}
	for j, b := range buf {
		buf[j] = ' ' + b%95
	}
	return echo.Message{Kind: echo.KindText, Payload: buf}, nil
}
