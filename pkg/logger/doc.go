// Package logger provides the structured logging interface used by wpmirror.
//
// It wraps zerolog. Output is either a colored console stream or JSON lines,
// chosen by LoggingConfig.Format ("console", "json", or "auto", which picks
// console output only when stdout is a terminal). When LoggingConfig.File is
// set every event is additionally appended to that file as JSON.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info", Format: "auto"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "mirror")
//	log.InfoWithFields("Media phase finished", map[string]interface{}{
//	    "items": 200,
//	    "pages": 3,
//	})
//
// Tests use NewTestLogger to capture and inspect messages, or NewNopLogger
// to discard them.
package logger
