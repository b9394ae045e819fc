// Package cachetest provides cache fixtures for tests: a miniredis-backed client and a
// client whose every command fails.
package cachetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewRedis starts a miniredis server and returns a cache client bound to it. The server
// and client are closed when the test finishes.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *cache.Redis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return mr, cache.NewRedis(rdb, time.Second)
}

// Failing is a cache.Client whose commands all fail with cache.ErrUnavailable.
type Failing struct {
	calls atomic.Int64
}

var _ cache.Client = (*Failing)(nil)

// Calls returns how many commands were attempted.
func (f *Failing) Calls() int64 {
	return f.calls.Load()
}

func (f *Failing) fail(op string) error {
	f.calls.Add(1)
	return fmt.Errorf("%w: %s: connection refused", cache.ErrUnavailable, op)
}

func (f *Failing) Get(context.Context, string) (string, error) {
	return "", f.fail("get")
}

func (f *Failing) Set(context.Context, string, string) error {
	return f.fail("set")
}

func (f *Failing) SetWithTTL(context.Context, string, string, time.Duration) error {
	return f.fail("setex")
}

func (f *Failing) Incr(context.Context, string) (int64, error) {
	return 0, f.fail("incr")
}

func (f *Failing) Expire(context.Context, string, time.Duration) error {
	return f.fail("expire")
}

func (f *Failing) Delete(context.Context, ...string) (int64, error) {
	return 0, f.fail("del")
}

func (f *Failing) ScanByPattern(context.Context, string) ([]string, error) {
	return nil, f.fail("keys")
}

func (f *Failing) TTL(context.Context, string) (time.Duration, error) {
	return 0, f.fail("ttl")
}

func (f *Failing) Ping(context.Context) error {
	return f.fail("ping")
}
