package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeTransport   ErrorType = "transport"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeProtocol    ErrorType = "protocol"
	ErrorTypeProcessing  ErrorType = "processing"
	ErrorTypeFormat      ErrorType = "format"
)

// Error represents an API or client error with type information
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	// Code is the HTTP status for transport-level errors, 0 otherwise.
	Code int
	// ResetAt is set on rate limit errors when the server reported a reset time.
	ResetAt time.Time
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s error (code %d): %s", e.Op, e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on the error type alone, e.g.
// errors.Is(err, &Error{Type: ErrorTypeProcessing}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Code == 0 || t.Code == e.Code)
}

// IsTransport reports whether the error came from a non-2xx response. Auth,
// rate limit and server errors are all transport errors with a finer category.
func (e *Error) IsTransport() bool {
	switch e.Type {
	case ErrorTypeTransport, ErrorTypeAuth, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	}
	return e.Type == ErrorTypeValidation && e.Code != 0
}

// RetryAfter returns how long to wait before the rate limit resets.
func (e *Error) RetryAfter(now time.Time) time.Duration {
	if e.ResetAt.IsZero() {
		return 0
	}
	d := e.ResetAt.Sub(now) + time.Second
	if d < 0 {
		return 0
	}
	return d
}

func newError(t ErrorType, op, format string, args ...interface{}) *Error {
	return &Error{Type: t, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Validation reports bad input. Validation errors never reach the wire.
func Validation(op, format string, args ...interface{}) *Error {
	return newError(ErrorTypeValidation, op, format, args...)
}

// NotFound reports a missing local resource.
func NotFound(op, format string, args ...interface{}) *Error {
	return newError(ErrorTypeNotFound, op, format, args...)
}

// Protocol reports a 2xx response that lacks a field the protocol requires.
func Protocol(op, format string, args ...interface{}) *Error {
	return newError(ErrorTypeProtocol, op, format, args...)
}

// Processing reports that the backend failed to process uploaded media.
func Processing(op, format string, args ...interface{}) *Error {
	return newError(ErrorTypeProcessing, op, format, args...)
}

// Format reports a response document whose shape cannot be walked.
func Format(op, format string, args ...interface{}) *Error {
	return newError(ErrorTypeFormat, op, format, args...)
}

// Network wraps a failure to get any response at all.
func Network(op string, err error) *Error {
	return &Error{Type: ErrorTypeNetwork, Op: op, Message: "network error", Err: err}
}

// Is reports whether err is an *Error of the given type.
func Is(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// As is a shortcut for errors.As with *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

// FromStatus maps a non-2xx response onto the error taxonomy. The message is
// taken from the body's errors[0].message when present.
func FromStatus(op string, status int, body []byte, headers http.Header) *Error {
	msg := bodyMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	e := &Error{Op: op, Code: status, Message: fmt.Sprintf("%d %s", status, msg)}
	switch {
	case status == http.StatusBadRequest || status == http.StatusNotFound:
		e.Type = ErrorTypeValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Type = ErrorTypeAuth
	case status == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
		if headers != nil {
			if reset := headers.Get("x-rate-limit-reset"); reset != "" {
				if secs, err := strconv.ParseInt(reset, 10, 64); err == nil {
					e.ResetAt = time.Unix(secs, 0).UTC()
				}
			}
		}
	case status >= 500:
		e.Type = ErrorTypeServerError
	default:
		e.Type = ErrorTypeTransport
	}
	return e
}

func bodyMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Errors) == 0 {
		return ""
	}
	return payload.Errors[0].Message
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 400, 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
