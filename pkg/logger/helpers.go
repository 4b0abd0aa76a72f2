package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// OrGlobal returns l, or the global logger when l is nil.
func OrGlobal(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// LogRequest logs one HTTP exchange at a level chosen by its status.
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	l = OrGlobal(l)
	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogUploadPhase logs a transition of the upload state machine.
func LogUploadPhase(l Logger, phase, mediaID string, fields map[string]interface{}) {
	merged := map[string]interface{}{
		"phase":    phase,
		"media_id": mediaID,
	}
	for k, v := range fields {
		merged[k] = v
	}
	OrGlobal(l).DebugWithFields("upload phase", merged)
}

// LogRateLimit logs a rate limit response and how long the caller will wait.
func LogRateLimit(l Logger, op string, wait time.Duration) {
	OrGlobal(l).WarnWithFields("Rate limit hit", map[string]interface{}{
		"op":      op,
		"wait_ms": wait.Milliseconds(),
	})
}

// LogPage logs a fetched timeline page.
func LogPage(l Logger, listing string, page int, entities int, nextCursor string) {
	OrGlobal(l).InfoWithFields("Page fetched", map[string]interface{}{
		"listing":  listing,
		"page":     page,
		"entities": entities,
		"has_next": nextCursor != "",
	})
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
