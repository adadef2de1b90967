// Package ratelimit spaces outbound calls to a single upstream API.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum delay between consecutive Acquire calls on top
// of a token bucket with a burst of one. Callers are released in the order
// they reserved; a caller whose context ends gives its slot back.
type Limiter struct {
	delay  time.Duration
	bucket *rate.Limiter

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(delay time.Duration) *Limiter {
	if delay < 0 {
		delay = 0
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Limiter{
		delay:  delay,
		bucket: rate.NewLimiter(limit, 1),
		now:    time.Now,
		after:  time.After,
	}
}

func (l *Limiter) Delay() time.Duration {
	return l.delay
}

// Acquire blocks until the caller's slot arrives. It only fails when ctx is
// done before that.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := l.now()
	r := l.bucket.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		r.CancelAt(l.now())
		return ctx.Err()
	case <-l.after(wait):
		return nil
	}
}

func (l *Limiter) reserve() time.Duration {
	now := l.now()
	return l.bucket.ReserveN(now, 1).DelayFrom(now)
}
