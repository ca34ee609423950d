// Package logging provides structured logging for chirp.
//
// Logging is silent by default so that CLI output stays clean. It is
// enabled either explicitly via Initialize("debug") or through the
// CHIRP_LOG_LEVEL environment variable:
//
//	CHIRP_LOG_LEVEL=debug chirp listen
//
// Valid levels are "debug", "info", "warn" and "error". All log output
// goes to stderr, keeping stdout available for command results.
//
// The package wraps a global zap logger; use the package-level Info,
// Debug, Warn, Error and Fatal functions with zap fields:
//
//	logging.Info("Broadcast sent",
//	    zap.String("type", "OFFER"),
//	    zap.Uint16("port", 5555),
//	)
//
// LogBroadcast and LogDatagram provide uniform shapes for the two events
// everything in chirp ends up logging.
package logging
