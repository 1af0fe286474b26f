package echo

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/wsecho/internal/capture"
	"github.com/muurk/wsecho/internal/logging"
)

const (
	// DefaultHandshakeTimeout bounds the opening handshake
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds each echo write
	DefaultWriteTimeout = 10 * time.Second
)

// Close reasons reported in Result.Reason
const (
	ReasonPeerClosed      = "peer_closed"
	ReasonEOF             = "eof"
	ReasonTimeout         = "timeout"
	ReasonHandshakeFailed = "handshake_failed"
	ReasonReadError       = "read_error"
	ReasonWriteError      = "write_error"
	ReasonTooLarge        = "message_too_large"
	ReasonShutdown        = "shutdown"
)

// Result summarizes one connection after Handle returns
type Result struct {
	ID         string
	RemoteAddr string
	Handshaked bool
	Echoed     int
	BytesIn    int64
	BytesOut   int64
	Reason     string
	Err        error
}

// Handler runs the echo loop for individual connections. A Handler holds no
// per-connection state and is safe for concurrent use.
type Handler struct {
	codec            Codec
	handshakeTimeout time.Duration
	idleTimeout      time.Duration
	writeTimeout     time.Duration
	recorder         *capture.Recorder
}

// Option configures a Handler
type Option func(*Handler)

// WithHandshakeTimeout bounds the opening handshake. 0 disables the deadline.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(h *Handler) { h.handshakeTimeout = d }
}

// WithIdleTimeout closes connections that send nothing for d. 0 disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Handler) { h.idleTimeout = d }
}

// WithWriteTimeout bounds each echo write. 0 disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) { h.writeTimeout = d }
}

// WithRecorder captures every echoed message. A nil recorder disables capture.
func WithRecorder(r *capture.Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

// NewHandler creates a Handler that negotiates connections with codec
func NewHandler(codec Codec, opts ...Option) *Handler {
	h := &Handler{
		codec:            codec,
		handshakeTimeout: DefaultHandshakeTimeout,
		writeTimeout:     DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Codec returns the codec the handler negotiates with
func (h *Handler) Codec() Codec {
	return h.codec
}

// Handle owns conn until it returns: it performs the handshake, echoes every
// data message back to the peer in order, and closes conn when the peer goes
// away, an I/O error occurs or ctx is cancelled.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) Result {
	res := Result{
		ID:         uuid.NewString(),
		RemoteAddr: conn.RemoteAddr().String(),
	}

	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() { _ = conn.Close() })
	}
	defer closeConn()

	// Unblock pending reads when the server shuts down
	stop := context.AfterFunc(ctx, closeConn)
	defer stop()

	log := logging.GetLogger().With(
		zap.String("remote_addr", res.RemoteAddr),
		zap.String("conn_id", res.ID),
		zap.String("codec", h.codec.Name()),
	)

	if h.handshakeTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(h.handshakeTimeout))
	}
	session, err := h.codec.Upgrade(conn)
	if err != nil {
		res.Reason = ReasonHandshakeFailed
		res.Err = err
		log.Warn("WebSocket handshake failed", zap.Error(err))
		return res
	}
	_ = conn.SetDeadline(time.Time{})
	res.Handshaked = true
	logging.LogConnection(res.RemoteAddr, "websocket_upgraded", zap.String("conn_id", res.ID))

	for {
		if h.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
		}

		msg, err := session.ReadMessage()
		if err != nil {
			res.Reason, res.Err = classify(ctx, err)
			break
		}
		res.BytesIn += int64(len(msg.Payload))
		logging.LogMessage(res.RemoteAddr, "received", msg.Kind.String(), msg.Payload)
		h.record(log, &res, capture.DirectionIn, msg)

		if h.writeTimeout > 0 {
			_ = session.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		err = session.WriteMessage(msg)
		if h.writeTimeout > 0 {
			// Control replies written while reading must not inherit it
			_ = session.SetWriteDeadline(time.Time{})
		}
		if err != nil {
			res.Reason, res.Err = ReasonWriteError, err
			if ctx.Err() != nil {
				res.Reason = ReasonShutdown
			}
			break
		}
		res.Echoed++
		res.BytesOut += int64(len(msg.Payload))
		logging.LogMessage(res.RemoteAddr, "sent", msg.Kind.String(), msg.Payload)
		h.record(log, &res, capture.DirectionOut, msg)
	}

	fields := []zap.Field{
		zap.String("reason", res.Reason),
		zap.Int("echoed", res.Echoed),
		zap.Int64("bytes_in", res.BytesIn),
		zap.Int64("bytes_out", res.BytesOut),
	}
	var ce *CloseError
	switch {
	case errors.As(res.Err, &ce):
		log.Info("Connection closed by peer", append(fields, zap.Int("close_code", ce.Code), zap.String("close_reason", ce.Reason))...)
	case res.Reason == ReasonEOF || res.Reason == ReasonShutdown:
		log.Info("Connection ended", fields...)
	default:
		log.Warn("Connection terminated", append(fields, zap.Error(res.Err))...)
	}
	return res
}

func (h *Handler) record(log *zap.Logger, res *Result, direction string, msg Message) {
	if h.recorder == nil {
		return
	}
	e := capture.NewEntry(res.ID, res.RemoteAddr, direction, msg.Kind.String(), msg.Payload)
	if err := h.recorder.Record(e); err != nil {
		log.Error("Failed to write capture entry", zap.Error(err))
	}
}

// classify maps a read error onto a close reason
func classify(ctx context.Context, err error) (string, error) {
	switch {
	case ctx.Err() != nil:
		return ReasonShutdown, err
	case IsCloseError(err):
		return ReasonPeerClosed, err
	case errors.Is(err, ErrMessageTooLarge):
		return ReasonTooLarge, err
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ReasonEOF, err
	case isTimeout(err):
		return ReasonTimeout, err
	default:
		return ReasonReadError, err
	}
}

// isTimeout reports a deadline expiry. gorilla hides the original error
// behind its own net.Error, so the check goes through the interface.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
