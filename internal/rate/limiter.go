package rate

import (
	"context"
	"time"

	"github.com/MrEthical07/authkeep/cache"
)

const keyPrefix = "ratelimit:"

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
	// Err is set when the cache failed and the request was let through.
	Err error
}

// Limiter admits requests against fixed-window counters in the cache.
type Limiter struct {
	cache cache.Client
	now   func() time.Time
}

// New creates a [Limiter] backed by client.
func New(client cache.Client) *Limiter {
	return &Limiter{cache: client, now: time.Now}
}

// Admit counts one request against key. At most max requests are allowed per window.
func (l *Limiter) Admit(ctx context.Context, key string, window time.Duration, max int64) Decision {
	now := l.now()
	window = cache.CeilSeconds(window)

	if key == "" {
		return l.failOpen(now, window, max, ErrEmptyKey)
	}
	if window <= 0 || max <= 0 {
		return l.failOpen(now, window, max, ErrInvalidPolicy)
	}

	bucket := keyPrefix + key
	count, err := l.cache.Incr(ctx, bucket)
	if err != nil {
		return l.failOpen(now, window, max, err)
	}

	resetAt := now.Add(window)
	if count == 1 {
		if err := l.cache.Expire(ctx, bucket, window); err != nil {
			d := l.decide(count, max, window, resetAt)
			d.Err = err
			return d
		}
	} else if ttl, err := l.cache.TTL(ctx, bucket); err == nil {
		if ttl < 0 {
			// The first-hit EXPIRE was lost; without a TTL the bucket would never reset.
			_ = l.cache.Expire(ctx, bucket, window)
		} else {
			resetAt = now.Add(ttl)
		}
	}

	return l.decide(count, max, window, resetAt)
}

func (l *Limiter) decide(count, max int64, window time.Duration, resetAt time.Time) Decision {
	d := Decision{
		Allowed: count <= max,
		Count:   count,
		Limit:   max,
		ResetAt: resetAt,
	}
	if d.Allowed {
		d.Remaining = max - count
	} else {
		d.RetryAfter = window
	}
	return d
}

func (l *Limiter) failOpen(now time.Time, window time.Duration, max int64, err error) Decision {
	remaining := max
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   true,
		Limit:     max,
		Remaining: remaining,
		ResetAt:   now.Add(window),
		Err:       err,
	}
}
