package echo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/wsecho/internal/logging"
)

// gorillaCodec drives github.com/gorilla/websocket's Upgrader directly on a raw
// stream: the request is parsed here and the upgrader is given a response
// writer that hijacks to the same connection.
type gorillaCodec struct {
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewGorillaCodec returns the gorilla-backed codec. maxMessageSize limits the
// size of a whole message; 0 means unlimited.
func NewGorillaCodec(maxMessageSize int64) Codec {
	return &gorillaCodec{
		upgrader: websocket.Upgrader{
			// Echo has no notion of allowed origins
			CheckOrigin:       func(r *http.Request) bool { return true },
			EnableCompression: false,
		},
		maxMessageSize: maxMessageSize,
	}
}

func (c *gorillaCodec) Name() string { return "gorilla" }

func (c *gorillaCodec) Upgrade(conn net.Conn) (Session, error) {
	br := bufio.NewReader(conn)
	req, err := http.ReadRequest(br)
	if err != nil {
		writeBadRequest(conn)
		return nil, fmt.Errorf("failed to read HTTP request: %w", err)
	}

	w := newHijackWriter(conn, br)
	wsConn, err := c.upgrader.Upgrade(w, req, nil)
	if err != nil {
		_ = w.flush()
		return nil, fmt.Errorf("websocket handshake failed: %w", err)
	}

	if c.maxMessageSize > 0 {
		wsConn.SetReadLimit(c.maxMessageSize)
	}
	return &gorillaSession{conn: wsConn}, nil
}

type gorillaSession struct {
	conn *websocket.Conn
}

func (s *gorillaSession) ReadMessage() (Message, error) {
	for {
		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				// gorilla reports a dropped stream as close code 1006
				if ce.Code == websocket.CloseAbnormalClosure {
					return Message{}, io.ErrUnexpectedEOF
				}
				return Message{}, &CloseError{Code: ce.Code, Reason: ce.Text}
			}
			if errors.Is(err, websocket.ErrReadLimit) {
				return Message{}, fmt.Errorf("%w: %v", ErrMessageTooLarge, err)
			}
			return Message{}, err
		}

		switch msgType {
		case websocket.TextMessage:
			return Message{Kind: KindText, Payload: payload}, nil
		case websocket.BinaryMessage:
			return Message{Kind: KindBinary, Payload: payload}, nil
		}
	}
}

func (s *gorillaSession) WriteMessage(msg Message) error {
	switch msg.Kind {
	case KindText:
		return s.conn.WriteMessage(websocket.TextMessage, msg.Payload)
	case KindBinary:
		return s.conn.WriteMessage(websocket.BinaryMessage, msg.Payload)
	default:
		return fmt.Errorf("cannot write %s message", msg.Kind)
	}
}

// SetWriteDeadline goes through gorilla, which resets the raw conn deadline
// on every frame it writes.
func (s *gorillaSession) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

// hijackWriter is the http.ResponseWriter handed to the gorilla upgrader.
// Successful upgrades hijack the connection; rejections are buffered and
// written out as a plain HTTP/1.1 response by flush.
type hijackWriter struct {
	conn     net.Conn
	br       *bufio.Reader
	header   http.Header
	status   int
	body     bytes.Buffer
	hijacked bool
}

func newHijackWriter(conn net.Conn, br *bufio.Reader) *hijackWriter {
	return &hijackWriter{conn: conn, br: br, header: make(http.Header)}
}

func (w *hijackWriter) Header() http.Header { return w.header }

func (w *hijackWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *hijackWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *hijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if w.hijacked {
		return nil, nil, errors.New("connection already hijacked")
	}
	w.hijacked = true
	return w.conn, bufio.NewReadWriter(w.br, bufio.NewWriter(w.conn)), nil
}

func (w *hijackWriter) flush() error {
	if w.hijacked || w.status == 0 {
		return nil
	}
	resp := &http.Response{
		StatusCode:    w.status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        w.header,
		Body:          io.NopCloser(&w.body),
		ContentLength: int64(w.body.Len()),
		Close:         true,
	}
	var raw bytes.Buffer
	if err := resp.Write(&raw); err != nil {
		return err
	}
	logging.LogRawBytes("Handshake rejection", raw.Bytes())
	_, err := w.conn.Write(raw.Bytes())
	return err
}

const badRequestResponse = "HTTP/1.1 400 Bad Request\r\nConnection: close\r\nContent-Length: 0\r\n\r\n"

func writeBadRequest(conn net.Conn) {
	logging.LogRawBytes("Handshake rejection", []byte(badRequestResponse))
	_, _ = io.WriteString(conn, badRequestResponse)
}
