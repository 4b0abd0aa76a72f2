package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests on the client side
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its burst size
	Reset()
}

// Pacer is a token bucket over golang.org/x/time/rate. It is safe for
// concurrent use and is shared by every request of a transport.
type Pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	every   time.Duration
	burst   int
}

// NewPacer allows requestsPerMinute on average with bursts of up to burst
// requests. A non-positive rate returns an unlimited limiter.
func NewPacer(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited()
	}
	if burst <= 0 {
		burst = 1
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(every), burst),
		every:   every,
		burst:   burst,
	}
}

func (p *Pacer) current() *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limiter
}

func (p *Pacer) Allow() bool {
	return p.current().Allow()
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.current().Wait(ctx)
}

func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiter = rate.NewLimiter(rate.Every(p.every), p.burst)
}

// Interval is the average spacing between requests
func (p *Pacer) Interval() time.Duration {
	return p.every
}

type unlimited struct{}

// Unlimited returns a limiter that never blocks
func Unlimited() Limiter {
	return unlimited{}
}

func (unlimited) Allow() bool                  { return true }
func (unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (unlimited) Reset()                       {}
