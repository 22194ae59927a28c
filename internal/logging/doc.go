// Package logging provides structured logging for watchdesk.
//
// It wraps log/slog with a JSON handler and writes to debug.log in the state
// directory through a size-based [RotatingWriter]. When no directory is
// configured, logs go to stderr.
//
// Child loggers carry persistent attributes:
//
//	logger, err := logging.NewLogger(stateDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithComponent("monitor")
//	log.Warn("endpoint failed", "endpoint", "/api/dashboard/traffic/stats", "error", err)
//
// All types in this package are safe for concurrent use.
package logging
