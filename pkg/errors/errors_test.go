package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorType
	}{
		{"bad request", http.StatusBadRequest, ErrorTypeValidation},
		{"not found", http.StatusNotFound, ErrorTypeValidation},
		{"unauthorized", http.StatusUnauthorized, ErrorTypeAuth},
		{"forbidden", http.StatusForbidden, ErrorTypeAuth},
		{"too many requests", http.StatusTooManyRequests, ErrorTypeRateLimit},
		{"internal", http.StatusInternalServerError, ErrorTypeServerError},
		{"unavailable", http.StatusServiceUnavailable, ErrorTypeServerError},
		{"conflict", http.StatusConflict, ErrorTypeTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus("test", tt.status, nil, nil)
			assert.Equal(t, tt.expected, err.Type)
			assert.Equal(t, tt.status, err.Code)
			assert.True(t, err.IsTransport())
		})
	}
}

func TestFromStatusBodyMessage(t *testing.T) {
	body := []byte(`{"errors":[{"message":"Could not authenticate you","code":32}]}`)
	err := FromStatus("UserTweets", http.StatusUnauthorized, body, nil)
	assert.Contains(t, err.Error(), "Could not authenticate you")
	assert.Contains(t, err.Error(), "UserTweets")
}

func TestFromStatusRateLimitReset(t *testing.T) {
	reset := time.Now().Add(90 * time.Second).Unix()
	headers := http.Header{}
	headers.Set("x-rate-limit-reset", fmt.Sprintf("%d", reset))

	err := FromStatus("search", http.StatusTooManyRequests, nil, headers)
	require.Equal(t, ErrorTypeRateLimit, err.Type)
	assert.Equal(t, reset, err.ResetAt.Unix())

	wait := err.RetryAfter(time.Unix(reset-30, 0))
	assert.Equal(t, 31*time.Second, wait)
	assert.Zero(t, err.RetryAfter(time.Unix(reset+60, 0)))
}

func TestErrorsIsAndAs(t *testing.T) {
	cause := Processing("upload", "state indicates failure")
	wrapped := fmt.Errorf("posting media: %w", cause)

	assert.True(t, Is(wrapped, ErrorTypeProcessing))
	assert.False(t, Is(wrapped, ErrorTypeProtocol))
	assert.True(t, stderrors.Is(wrapped, &Error{Type: ErrorTypeProcessing}))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "upload", e.Op)
}

func TestNetworkUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Network("send", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeValidation))
	assert.False(t, IsRetryable(ErrorTypeProcessing))

	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(502))
	assert.False(t, IsRetryableStatusCode(404))
}
