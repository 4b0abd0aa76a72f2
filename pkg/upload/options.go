package upload

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"tweetkit/pkg/logger"
	"tweetkit/pkg/retry"
)

// DefaultEndpoint is the media upload endpoint
const DefaultEndpoint = "https://upload.twitter.com/i/media/upload.json"

// Sleeper waits between STATUS polls
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// ContextSleeper sleeps on a timer and wakes early when ctx is done
var ContextSleeper Sleeper = SleeperFunc(retry.Wait)

// Option configures a Pipeline
type Option func(*Pipeline)

func WithEndpoint(endpoint string) Option {
	return func(p *Pipeline) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

func WithChunkSize(size int64) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sleeper = s
		}
	}
}

// WithPollDeadline bounds the time spent polling STATUS, measured from the
// first poll. Zero means no bound.
func WithPollDeadline(d time.Duration) Option {
	return func(p *Pipeline) { p.pollDeadline = d }
}

// WithClock replaces time.Now for the poll deadline
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func WithSizeLimits(l SizeLimits) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.limits = l
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.logger = logger.OrGlobal(l) }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

func WithProgress(f ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = f }
}
