// Package echo implements the per-connection WebSocket echo loop.
//
// A Handler takes ownership of one raw net.Conn, performs the opening
// handshake through a Codec and then echoes every text or binary message back
// to the peer, byte for byte and with the same kind, until the connection
// ends. Message N is always written back before message N+1 is read.
//
// # Codecs
//
// Wire-format work is delegated to a WebSocket library behind the Codec
// interface:
//
//   - gobwas (default): github.com/gobwas/ws upgrades the stream in place and
//     wsutil answers control frames.
//   - gorilla: the HTTP request is parsed from the stream and handed to
//     github.com/gorilla/websocket's Upgrader through a hijacking response writer.
//
// Both codecs answer pings with pongs and reply to a close frame before the
// session reports a *CloseError, so the handler never sees control frames.
//
// # Connection Lifecycle
//
//	Handshaking --ok--> Open --read/write error, close, ctx done--> Closed
//	     |
//	     +--failure--> Closed
//
// Handle returns a Result describing why the connection ended (peer_closed,
// eof, timeout, handshake_failed, read_error, write_error, message_too_large,
// shutdown). Errors never leave the connection they happened on.
//
// # Usage Example
//
//	codec, err := echo.CodecByName("gobwas", 0)
//	if err != nil {
//	    return err
//	}
//	h := echo.NewHandler(codec, echo.WithIdleTimeout(time.Minute))
//	for {
//	    conn, err := ln.Accept()
//	    if err != nil {
//	        return err
//	    }
//	    go h.Handle(ctx, conn)
//	}
package echo
