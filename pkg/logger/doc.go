// Package logger provides a structured logging interface for the scraper.
//
// It wraps zerolog with a small API: leveled methods, child loggers carrying
// fields, and *WithFields variants for one-off structured events. Console
// output is human-readable with coloured level tags; when a log file is
// configured, events are written to both.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", logger.NewRunID())
//	log.InfoWithFields("Feed batch extracted", map[string]interface{}{
//	    "items": 12,
//	})
//
// TestLogger and NewNopLogger are provided for tests.
package logger
