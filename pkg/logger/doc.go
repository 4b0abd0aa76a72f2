// Package logger wraps zerolog behind a small interface used by every
// tweetkit component.
//
// Components take a Logger in their constructor and fall back to the global
// logger when given nil:
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "upload")
//	log.InfoWithFields("media uploaded", map[string]interface{}{
//	    "media_id": id,
//	    "bytes":    size,
//	})
//
// Tests use NewTestLogger, which records every message for assertions
// instead of writing anywhere.
package logger
