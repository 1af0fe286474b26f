// Package logging provides structured logging for the wsecho server and probe.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used throughout the server.
//
// # Log Levels
//
//   - Debug: per-message details (hex dumps, text content, raw handshake bytes)
//   - Info: connection lifecycle (accepted, upgraded, closed by peer)
//   - Warn: failed handshakes, connections torn down by errors
//   - Error: listener and capture failures
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the WSECHO_LOG_LEVEL environment variable.
// When neither is set the logger is a no-op, which keeps the probe CLI quiet
// by default.
//
// # Specialized Logging
//
//	logging.LogConnection(remoteAddr, "connection_accepted")
//	logging.LogMessage(remoteAddr, "received", "binary", payload)
//	logging.LogRawBytes("Handshake rejection", response)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
