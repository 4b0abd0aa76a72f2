package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tweetkit/pkg/config"
	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/logger"
)

func fastConfig(max int) *Config {
	return &Config{
		MaxAttempts: max,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Logger:      logger.NewTestLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, want := range expected {
		assert.Equal(t, want, backoff.NextDelay(i+1, nil), "attempt %d", i+1)
	}
	assert.Zero(t, backoff.NextDelay(0, nil))
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}
	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2, nil)
		assert.GreaterOrEqual(t, d, 140*time.Millisecond)
		assert.LessOrEqual(t, d, 260*time.Millisecond)
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := &LinearBackoff{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  300 * time.Millisecond,
		Increment: 100 * time.Millisecond,
	}
	assert.Equal(t, 100*time.Millisecond, backoff.NextDelay(1, nil))
	assert.Equal(t, 300*time.Millisecond, backoff.NextDelay(3, nil))
	assert.Equal(t, 300*time.Millisecond, backoff.NextDelay(7, nil))
}

func TestServerHinted(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	hinted := NewServerHinted(&ConstantBackoff{Delay: 3 * time.Second}, 10*time.Minute)
	hinted.Now = func() time.Time { return now }

	limited := &errs.Error{Type: errs.ErrorTypeRateLimit, ResetAt: now.Add(2 * time.Minute)}
	assert.Equal(t, 2*time.Minute+time.Second, hinted.NextDelay(1, limited))

	tooFar := &errs.Error{Type: errs.ErrorTypeRateLimit, ResetAt: now.Add(time.Hour)}
	assert.Equal(t, 3*time.Second, hinted.NextDelay(1, tooFar))

	noHint := &errs.Error{Type: errs.ErrorTypeRateLimit}
	assert.Equal(t, 3*time.Second, hinted.NextDelay(1, noHint))

	assert.Equal(t, 3*time.Second, hinted.NextDelay(1, errors.New("other")))
}

func TestByErrorType(t *testing.T) {
	b := &ByErrorType{
		Network:   &ConstantBackoff{Delay: 1},
		RateLimit: &ConstantBackoff{Delay: 2},
		Server:    &ConstantBackoff{Delay: 3},
		Default:   &ConstantBackoff{Delay: 4},
	}
	assert.Equal(t, time.Duration(1), b.NextDelay(1, errs.Network("send", errors.New("reset"))))
	assert.Equal(t, time.Duration(2), b.NextDelay(1, &errs.Error{Type: errs.ErrorTypeRateLimit}))
	assert.Equal(t, time.Duration(3), b.NextDelay(1, &errs.Error{Type: errs.ErrorTypeServerError}))
	assert.Equal(t, time.Duration(4), b.NextDelay(1, errors.New("plain")))

	assert.NotNil(t, NewByErrorType().RateLimit)
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	cause := &errs.Error{Type: errs.ErrorTypeServerError, Code: 503}
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		attempts++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestDoNonRetryable(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = DefaultRetryIf

	authErr := &errs.Error{Type: errs.ErrorTypeAuth, Message: "authentication required", Code: 401}
	attempts := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return authErr
	})
	assert.Same(t, authErr, err)
	assert.Equal(t, 1, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.Backoff = &ConstantBackoff{Delay: time.Minute}

	attempts := 0
	err := Do(ctx, cfg, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("error")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDoOnRetryAndRateLimitLogging(t *testing.T) {
	tl := logger.NewTestLogger()
	cfg := fastConfig(2)
	cfg.Logger = tl
	var seen []int
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) { seen = append(seen, attempt) }

	_ = Do(context.Background(), cfg, func(ctx context.Context) error {
		return &errs.Error{Type: errs.ErrorTypeRateLimit, Op: "Search", Code: 429}
	})
	assert.Equal(t, []int{1}, seen)
	assert.True(t, tl.HasMessage("Rate limit hit"))
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(3), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(errors.New("unknown")))
	assert.True(t, DefaultRetryIf(errs.Network("send", errors.New("eof"))))
	assert.False(t, DefaultRetryIf(errs.Processing("upload", "failed")))
}

func TestFromConfig(t *testing.T) {
	tl := logger.NewTestLogger()
	cfg := FromConfig(config.RetryConfig{Enabled: false}, tl)
	assert.Equal(t, 1, cfg.MaxAttempts)

	cfg = FromConfig(config.RetryConfig{Enabled: true, MaxAttempts: 4, BaseDelay: time.Millisecond}, tl)
	assert.Equal(t, 4, cfg.MaxAttempts)
	hinted, ok := cfg.Backoff.(*ServerHinted)
	require.True(t, ok)
	assert.Equal(t, time.Millisecond, hinted.Fallback.(*ExponentialBackoff).BaseDelay)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Wait(ctx, 0), context.Canceled)
}
