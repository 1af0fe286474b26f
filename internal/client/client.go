// Package client is a WebSocket client for talking to echo servers.
//
// It is used by the wsecho-probe CLI and by the server tests, and is built on
// github.com/gorilla/websocket so it exercises the server independently of
// the server-side codec.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/wsecho/internal/echo"
	"github.com/muurk/wsecho/internal/version"
)

// DefaultTimeout bounds dialing and each echo round trip
const DefaultTimeout = 10 * time.Second

// ErrMismatch is returned by Verify when the echo differs from what was sent
var ErrMismatch = errors.New("echo mismatch")

// Client is a connected WebSocket client
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Dial connects to a ws:// URL and completes the handshake
func Dial(ctx context.Context, url string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent("wsecho-probe"))

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake rejected with HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	return &Client{conn: conn, timeout: timeout}, nil
}

// Send writes one message
func (c *Client) Send(msg echo.Message) error {
	var msgType int
	switch msg.Kind {
	case echo.KindText:
		msgType = websocket.TextMessage
	case echo.KindBinary:
		msgType = websocket.BinaryMessage
	default:
		return fmt.Errorf("cannot send %s message", msg.Kind)
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteMessage(msgType, msg.Payload)
}

// Receive reads the next data message
func (c *Client) Receive() (echo.Message, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	msgType, payload, err := c.conn.ReadMessage()
	if err != nil {
		return echo.Message{}, err
	}
	switch msgType {
	case websocket.TextMessage:
		return echo.Message{Kind: echo.KindText, Payload: payload}, nil
	default:
		return echo.Message{Kind: echo.KindBinary, Payload: payload}, nil
	}
}

// Echo sends msg and returns the next message received
func (c *Client) Echo(msg echo.Message) (echo.Message, error) {
	if err := c.Send(msg); err != nil {
		return echo.Message{}, fmt.Errorf("send failed: %w", err)
	}
	got, err := c.Receive()
	if err != nil {
		return echo.Message{}, fmt.Errorf("receive failed: %w", err)
	}
	return got, nil
}

// Verify sends msg and checks that the reply is kind-equal and byte-equal
func (c *Client) Verify(msg echo.Message) (time.Duration, error) {
	start := time.Now()
	got, err := c.Echo(msg)
	rtt := time.Since(start)
	if err != nil {
		return rtt, err
	}
	if got.Kind != msg.Kind {
		return rtt, fmt.Errorf("%w: sent %s, received %s", ErrMismatch, msg.Kind, got.Kind)
	}
	if !bytes.Equal(got.Payload, msg.Payload) {
		return rtt, fmt.Errorf("%w: payload differs (sent %d bytes, received %d)", ErrMismatch, len(msg.Payload), len(got.Payload))
	}
	return rtt, nil
}

// Close performs the closing handshake: it sends a normal-closure frame and
// waits for the server's close reply. It returns the code the server replied
// with.
func (c *Client) Close() (int, error) {
	defer c.conn.Close()

	deadline := time.Now().Add(c.timeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		return 0, fmt.Errorf("failed to send close frame: %w", err)
	}

	_ = c.conn.SetReadDeadline(deadline)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				if ce.Code == websocket.CloseAbnormalClosure {
					return 0, fmt.Errorf("connection dropped without close reply: %w", err)
				}
				return ce.Code, nil
			}
			return 0, fmt.Errorf("no close reply: %w", err)
		}
	}
}

// Abort drops the TCP connection without a closing handshake
func (c *Client) Abort() error {
	return c.conn.NetConn().Close()
}
