package echo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// gobwasCodec upgrades the raw stream in place with github.com/gobwas/ws.
type gobwasCodec struct {
	maxMessageSize int64
}

// NewGobwasCodec returns the gobwas-backed codec. maxMessageSize limits the
// size of a whole message, fragments included; 0 means unlimited.
func NewGobwasCodec(maxMessageSize int64) Codec {
	return &gobwasCodec{maxMessageSize: maxMessageSize}
}

func (c *gobwasCodec) Name() string { return "gobwas" }

func (c *gobwasCodec) Upgrade(conn net.Conn) (Session, error) {
	if _, err := ws.Upgrade(conn); err != nil {
		return nil, fmt.Errorf("websocket handshake failed: %w", err)
	}
	return &gobwasSession{
		conn:           conn,
		br:             bufio.NewReader(conn),
		control:        wsutil.ControlFrameHandler(conn, ws.StateServerSide),
		maxMessageSize: c.maxMessageSize,
	}, nil
}

type gobwasSession struct {
	conn           net.Conn
	br             *bufio.Reader
	control        wsutil.FrameHandlerFunc
	maxMessageSize int64
}

func (s *gobwasSession) ReadMessage() (Message, error) {
	rd := &wsutil.Reader{
		Source:         s.br,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		MaxFrameSize:   s.maxMessageSize,
		OnIntermediate: s.control,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return Message{}, s.readError(err)
		}

		if hdr.OpCode.IsControl() {
			if err := s.control(hdr, rd); err != nil {
				return Message{}, s.readError(err)
			}
			continue
		}

		var kind Kind
		switch hdr.OpCode {
		case ws.OpText:
			kind = KindText
		case ws.OpBinary:
			kind = KindBinary
		case ws.OpContinuation:
			return Message{}, s.fail(ws.ErrProtocolContinuationUnexpected)
		default:
			return Message{}, s.fail(ws.ErrProtocolOpCodeReserved)
		}

		var src io.Reader = rd
		if s.maxMessageSize > 0 {
			src = io.LimitReader(rd, s.maxMessageSize+1)
		}
		payload, err := io.ReadAll(src)
		if err != nil {
			return Message{}, s.readError(err)
		}
		if s.maxMessageSize > 0 && int64(len(payload)) > s.maxMessageSize {
			return Message{}, s.readError(wsutil.ErrFrameTooLarge)
		}
		return Message{Kind: kind, Payload: payload}, nil
	}
}

func (s *gobwasSession) WriteMessage(msg Message) error {
	var op ws.OpCode
	switch msg.Kind {
	case KindText:
		op = ws.OpText
	case KindBinary:
		op = ws.OpBinary
	default:
		return fmt.Errorf("cannot write %s message", msg.Kind)
	}
	return wsutil.WriteServerMessage(s.conn, op, msg.Payload)
}

func (s *gobwasSession) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

// fail answers a protocol violation with a 1002 close frame
func (s *gobwasSession) fail(err error) error {
	body := ws.NewCloseFrameBody(ws.StatusProtocolError, err.Error())
	_ = ws.WriteFrame(s.conn, ws.NewCloseFrame(body))
	return fmt.Errorf("websocket protocol error: %w", err)
}

// readError maps gobwas errors onto the package's error types. A protocol
// violation is answered with a 1002 close frame and an oversized message
// with a 1009 close frame before returning.
func (s *gobwasSession) readError(err error) error {
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		return &CloseError{Code: int(closed.Code), Reason: closed.Reason}
	}
	var protoErr ws.ProtocolError
	if errors.As(err, &protoErr) {
		return s.fail(protoErr)
	}
	if errors.Is(err, wsutil.ErrFrameTooLarge) {
		body := ws.NewCloseFrameBody(ws.StatusMessageTooBig, "")
		_ = ws.WriteFrame(s.conn, ws.NewCloseFrame(body))
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, s.maxMessageSize)
	}
	return err
}
