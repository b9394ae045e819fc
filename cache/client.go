package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss is returned by Get and TTL when the key does not exist.
	ErrMiss = errors.New("cache miss")
	// ErrUnavailable wraps every transport, timeout or server error.
	ErrUnavailable = errors.New("cache unavailable")
)

// Client is the key/value capability injected into every cache-backed component.
//
// Implementations must be safe for concurrent use.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int64, error)
	ScanByPattern(ctx context.Context, pattern string) ([]string, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) error
}

// IsMiss reports whether err signals an absent key.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// CeilSeconds rounds d up to whole seconds. TTLs handed to the cache are expressed in
// seconds, so a window of 1500ms becomes 2s rather than 1s.
func CeilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}
