package logger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewRunID returns an identifier used to correlate all log lines of one scrape run
func NewRunID() string {
	return uuid.NewString()
}

// LogDownload logs the outcome of one download task
func LogDownload(log Logger, author, filename, outcome string, size int64, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"author":   author,
		"file":     filename,
		"outcome":  outcome,
		"bytes":    size,
		"duration": duration,
	}

	l := log.WithFields(fields)
	switch {
	case err != nil:
		l.WithError(err).Error("Download failed")
	case outcome == "skipped":
		l.Info("Already downloaded")
	default:
		l.Info("Download completed")
	}
}

// LogBatch logs a summary of one response batch
func LogBatch(log Logger, source string, url string, items, dropped int) {
	log.InfoWithFields("Feed batch extracted", map[string]interface{}{
		"source":  source,
		"url":     url,
		"items":   items,
		"dropped": dropped,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(log Logger, component string, reason string) {
	log.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
