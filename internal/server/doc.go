// Package server implements the listener side of the WebSocket echo service.
//
// The server binds a single TCP address, accepts connections in a loop and
// hands every accepted connection to an echo.Handler running in its own
// goroutine, so a slow or idle client never holds up the accept loop. The
// only state shared between connections is the bookkeeping needed for
// graceful shutdown.
//
// # Usage Example
//
//	config := &server.Config{
//	    Host:     "127.0.0.1",
//	    Port:     8080,
//	    Codec:    "gobwas",
//	    LogLevel: "info",
//	}
//
//	srv, err := server.New(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start binds the address and blocks until SIGINT/SIGTERM
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Callers that need to report the bound address before blocking (the CLI
// prints a listening confirmation) call Listen, then Addr, then Run.
//
// # Errors
//
// A bind failure is returned from Listen and is fatal for the process; there
// is no retry and no fallback port. Accept errors other than a closed
// listener are logged and retried with a capped backoff. Everything that goes
// wrong inside a connection stays inside that connection.
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server:
//  1. Stops the mDNS advertisement
//  2. Closes the listener
//  3. Cancels the handler context and closes active connections
//  4. Waits up to 10 seconds for connection goroutines
//  5. Closes the capture file and flushes the logger
//
// # Optional Features
//
//   - CaptureDir writes a JSONL transcript of echoed traffic (see package capture)
//   - Advertise announces the server as _wsecho._tcp over mDNS (see package discovery)
package server
