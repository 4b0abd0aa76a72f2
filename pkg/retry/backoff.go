package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "tweetkit/pkg/errors"
)

// BackoffStrategy computes the delay before the next attempt. err is the
// error that failed the current attempt.
type BackoffStrategy interface {
	NextDelay(attempt int, err error) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor adds randomness to avoid thundering herd (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}
	return jitter(delay, eb.JitterFactor)
}

// LinearBackoff grows the delay by Increment per attempt
type LinearBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Increment    time.Duration
	JitterFactor float64
}

func (lb *LinearBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(lb.BaseDelay + lb.Increment*time.Duration(attempt-1))
	if delay > float64(lb.MaxDelay) {
		delay = float64(lb.MaxDelay)
	}
	return jitter(delay, lb.JitterFactor)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int, _ error) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

func jitter(delay, factor float64) time.Duration {
	if factor > 0 {
		j := delay * factor
		delay += (rand.Float64() * 2 * j) - j
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ServerHinted waits until the reset time a rate limit response reported and
// defers to Fallback for everything else.
type ServerHinted struct {
	Fallback BackoffStrategy
	// Max caps a server hint; a larger hint falls back to Fallback.
	Max time.Duration
	Now func() time.Time
}

// NewServerHinted wraps fallback with rate limit reset handling
func NewServerHinted(fallback BackoffStrategy, max time.Duration) *ServerHinted {
	return &ServerHinted{Fallback: fallback, Max: max, Now: time.Now}
}

func (s *ServerHinted) NextDelay(attempt int, err error) time.Duration {
	if e, ok := errs.As(err); ok && e.Type == errs.ErrorTypeRateLimit && !e.ResetAt.IsZero() {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		if d := e.RetryAfter(now()); d > 0 && (s.Max <= 0 || d <= s.Max) {
			return d
		}
	}
	if s.Fallback == nil {
		return 0
	}
	return s.Fallback.NextDelay(attempt, err)
}

// ByErrorType picks a strategy per error category
type ByErrorType struct {
	Network   BackoffStrategy
	RateLimit BackoffStrategy
	Server    BackoffStrategy
	Default   BackoffStrategy
}

// NewByErrorType returns per-category strategies with rate limits waiting longest
func NewByErrorType() *ByErrorType {
	return &ByErrorType{
		Network: &ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2, JitterFactor: 0.2},
		RateLimit: NewServerHinted(&ExponentialBackoff{
			BaseDelay: 30 * time.Second, MaxDelay: 5 * time.Minute, Multiplier: 1.5, JitterFactor: 0.3,
		}, 15*time.Minute),
		Server:  &ExponentialBackoff{BaseDelay: 5 * time.Second, MaxDelay: time.Minute, Multiplier: 2, JitterFactor: 0.1},
		Default: DefaultExponentialBackoff(),
	}
}

func (b *ByErrorType) NextDelay(attempt int, err error) time.Duration {
	pick := b.Default
	if e, ok := errs.As(err); ok {
		switch e.Type {
		case errs.ErrorTypeNetwork:
			pick = b.Network
		case errs.ErrorTypeRateLimit:
			pick = b.RateLimit
		case errs.ErrorTypeServerError:
			pick = b.Server
		}
	}
	if pick == nil {
		return 0
	}
	return pick.NextDelay(attempt, err)
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
