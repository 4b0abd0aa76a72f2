package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tweetkit/pkg/config"
	errs "tweetkit/pkg/errors"
	"tweetkit/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     NewServerHinted(DefaultExponentialBackoff(), 15*time.Minute),
		RetryIf:     DefaultRetryIf,
		Logger:      logger.GetLogger(),
	}
}

// FromConfig builds a retry configuration from the retry config section.
// A disabled section yields a single attempt.
func FromConfig(rc config.RetryConfig, log logger.Logger) *Config {
	cfg := DefaultConfig()
	cfg.Logger = logger.OrGlobal(log)
	if !rc.Enabled {
		cfg.MaxAttempts = 1
		return cfg
	}
	cfg.MaxAttempts = rc.MaxAttempts
	exp := DefaultExponentialBackoff()
	if rc.BaseDelay > 0 {
		exp.BaseDelay = rc.BaseDelay
	}
	if rc.MaxDelay > 0 {
		exp.MaxDelay = rc.MaxDelay
	}
	cfg.Backoff = NewServerHinted(exp, 15*time.Minute)
	return cfg
}

// DefaultRetryIf retries network, rate limit and server errors
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if apiErr, ok := errs.As(err); ok {
		return errs.IsRetryable(apiErr.Type)
	}

	return false
}

// Do executes an operation with retry logic
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	log := logger.OrGlobal(cfg.Logger)

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt - 1,
				"last_error": lastErr.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		// No point sleeping when the next attempt is not allowed.
		if cfg.MaxAttempts > 0 && attempt == cfg.MaxAttempts {
			continue
		}

		delay := time.Second
		if cfg.Backoff != nil {
			delay = cfg.Backoff.NextDelay(attempt, err)
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if errs.Is(err, errs.ErrorTypeRateLimit) {
			logger.LogRateLimit(log, opName(err), delay)
		} else {
			log.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func opName(err error) string {
	if e, ok := errs.As(err); ok {
		return e.Op
	}
	return ""
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, cfg *Config, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}
