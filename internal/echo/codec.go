package echo

import (
	"fmt"
	"net"
	"sort"
	"strings"
	"time"
)

// Codec performs the WebSocket opening handshake on a raw stream and returns a
// Session that reads and writes whole messages on it.
type Codec interface {
	// Name is the identifier used in configuration ("gobwas", "gorilla").
	Name() string

	// Upgrade runs the server side of the handshake on conn. On failure the
	// codec has written whatever HTTP error response the protocol allows;
	// the caller still owns conn and must close it.
	Upgrade(conn net.Conn) (Session, error)
}

// Session is an upgraded connection.
//
// ReadMessage only returns data messages. Control frames are answered by the
// codec: pings get a pong, and a close frame gets a close reply before
// ReadMessage returns a *CloseError.
//
// SetWriteDeadline bounds the data writes that follow it. The zero time
// clears the deadline.
type Session interface {
	ReadMessage() (Message, error)
	WriteMessage(msg Message) error
	SetWriteDeadline(t time.Time) error
}

// DefaultCodec is used when no codec is configured
const DefaultCodec = "gobwas"

var codecs = map[string]func(maxMessageSize int64) Codec{
	"gobwas":  NewGobwasCodec,
	"gorilla": NewGorillaCodec,
}

// CodecByName returns the codec registered under name.
// An empty name selects DefaultCodec.
func CodecByName(name string, maxMessageSize int64) (Codec, error) {
	if name == "" {
		name = DefaultCodec
	}
	ctor, ok := codecs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownCodec, name, strings.Join(CodecNames(), ", "))
	}
	return ctor(maxMessageSize), nil
}

// CodecNames returns the registered codec names in sorted order
func CodecNames() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
