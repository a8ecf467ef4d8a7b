// Package logging provides structured logging for the tinyhttp server.
//
// This package wraps a package-level zap logger with convenience functions for
// the logging patterns used by the server loop: connection events, decoded
// request lines, sent responses and raw wire dumps.
//
// # Log Levels
//
//   - Debug: connection open/close events, raw request bytes (hex + ascii)
//   - Info: start/stop, request lines, response status lines
//   - Warn: transport faults while the server is running
//   - Error: handler panics, failures to acquire the listening socket
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
// An empty level falls back to the TINYHTTP_LOG_LEVEL environment variable.
// When neither is set the logger is silent.
//
// Tests can capture output with SetLogger and zaptest/observer:
//
//	core, logs := observer.New(zapcore.DebugLevel)
//	logging.SetLogger(zap.New(core))
//	defer logging.SetLogger(nil)
package logging
