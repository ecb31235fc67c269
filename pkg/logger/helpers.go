package logger

import (
	"fmt"
)

// LogRequest logs a single REST request against the site
func LogRequest(log Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		log.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		log.WarnWithFields("HTTP request client error", fields)
	default:
		log.ErrorWithFields("HTTP request failed", fields)
	}
}

// LogStore logs the outcome of storing one file
func LogStore(log Logger, locator, path, status string, err error) {
	l := log.WithFields(map[string]interface{}{
		"url":    locator,
		"path":   path,
		"status": status,
	})

	switch {
	case err != nil:
		l.WithError(err).Error("Download failed")
	case status == "already_exists":
		l.Debug("File already exists, skipping")
	default:
		l.Info("Download completed")
	}
}

// LogPhaseProgress logs progress through the work list of a phase
func LogPhaseProgress(log Logger, phase string, done, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(done) / float64(total) * 100
	}

	log.WithFields(map[string]interface{}{
		"phase":      phase,
		"done":       done,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Mirror progress")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
