package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultOpTimeout bounds a single cache command when no timeout is configured.
const DefaultOpTimeout = 250 * time.Millisecond

// Options configures [NewRedisClient].
type Options struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	OpTimeout    time.Duration
}

// Redis implements [Client] on top of a go-redis client.
type Redis struct {
	redis     redis.UniversalClient
	opTimeout time.Duration
}

var _ Client = (*Redis)(nil)

// NewRedis wraps an existing go-redis client. opTimeout <= 0 selects [DefaultOpTimeout].
func NewRedis(client redis.UniversalClient, opTimeout time.Duration) *Redis {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Redis{redis: client, opTimeout: opTimeout}
}

// NewRedisClient dials a standalone Redis server. The connection is lazy; use Ping to
// check reachability.
func NewRedisClient(opts Options) (*Redis, *redis.Client) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	return NewRedis(rdb, opts.OpTimeout), rdb
}

func (r *Redis) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Get returns the string value stored at key.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	val, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", unavailable(err)
	}
	return val, nil
}

// Set stores value without expiration.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.redis.Set(ctx, key, value, 0).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// SetWithTTL stores value with an expiration (SETEX semantics).
func (r *Redis) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache: non-positive ttl for key %q", key)
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Incr atomically increments the integer at key and returns the new value.
func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	n, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Expire sets a TTL on an existing key.
func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.redis.Expire(ctx, key, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete removes keys and returns how many existed. Deleting nothing is not an error.
func (r *Redis) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()

	n, err := r.redis.Del(ctx, keys...).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// ScanByPattern enumerates keys matching a glob pattern. Cost is linear in the size of
// the keyspace; keep it off request hot paths.
func (r *Redis) ScanByPattern(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	keys, err := r.redis.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	return keys, nil
}

// TTL returns the remaining time to live of key.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	ttl, err := r.redis.TTL(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	// -2: key does not exist, -1: key has no expiry.
	if ttl == -2 {
		return 0, ErrMiss
	}
	return ttl, nil
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.redis.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}
