package echo

import (
	"errors"
	"fmt"
)

// Kind identifies the type of a WebSocket message
type Kind int

const (
	KindText Kind = iota + 1
	KindBinary
	KindPing
	KindPong
	KindClose
)

// String returns the lowercase name used in logs and capture files
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindClose:
		return "close"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// IsData reports whether the kind carries an application payload (text or binary).
func (k Kind) IsData() bool {
	return k == KindText || k == KindBinary
}

// Message is one complete application-level message
type Message struct {
	Kind    Kind
	Payload []byte
}

// Text builds a text message
func Text(s string) Message {
	return Message{Kind: KindText, Payload: []byte(s)}
}

// Binary builds a binary message
func Binary(p []byte) Message {
	return Message{Kind: KindBinary, Payload: p}
}

// Close status codes used by the handler (RFC 6455 section 7.4.1)
const (
	StatusNormalClosure   = 1000
	StatusGoingAway       = 1001
	StatusNoStatus        = 1005
	StatusMessageTooBig   = 1009
	StatusInternalFailure = 1011
)

var (
	// ErrUnknownCodec is returned by CodecByName for unsupported codec names.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrMessageTooLarge is returned when a peer exceeds the configured message size limit.
	ErrMessageTooLarge = errors.New("message exceeds size limit")
)

// CloseError is returned by Session.ReadMessage when the peer sent a close frame.
// The codec has already answered it by the time the error is returned.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("websocket closed by peer (code %d)", e.Code)
	}
	return fmt.Sprintf("websocket closed by peer (code %d): %s", e.Code, e.Reason)
}

// IsCloseError reports whether err wraps a *CloseError.
func IsCloseError(err error) bool {
	var ce *CloseError
	return errors.As(err, &ce)
}
