// Package logging provides structured logging for the maintenance tracker.
//
// It wraps Go's log/slog to write JSON lines, either to stderr or to
// maintenance.log in a configured directory through a size-based
// [RotatingWriter]. Child loggers carry persistent attributes such as the
// component, the task id and the acting owner, which [ReadLogs] and
// [FilterLogs] later use to answer "what happened to this task".
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithComponent("tracker").WithTask("mop_floor")
//	log.Info("task started", "owner", "alice")
//
// # Reading Logs Back
//
//	entries, err := logging.ReadLogs(dir)
//	entries = logging.FilterLogs(entries, logging.LogFilter{TaskID: "mop_floor", Level: "INFO"})
//	err = logging.WriteLogs(os.Stdout, entries, "text")
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// share the underlying writer.
package logging
