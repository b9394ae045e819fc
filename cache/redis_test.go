package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCacheTest(t *testing.T) (*Redis, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(rdb, time.Second), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisGetMiss(t *testing.T) {
	c, _, done := newRedisCacheTest(t)
	defer done()

	_, err := c.Get(context.Background(), "absent")
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if _, err := c.TTL(context.Background(), "absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss from TTL, got %v", err)
	}
}

func TestRedisSetWithTTLExpires(t *testing.T) {
	c, mr, done := newRedisCacheTest(t)
	defer done()
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("setex: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("expected v, got %q err=%v", got, err)
	}
	ttl, err := c.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != 10*time.Second {
		t.Fatalf("expected 10s ttl, got %v", ttl)
	}

	mr.FastForward(11 * time.Second)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestRedisSetWithTTLRejectsNonPositive(t *testing.T) {
	c, _, done := newRedisCacheTest(t)
	defer done()

	if err := c.SetWithTTL(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestRedisIncrExpireDelete(t *testing.T) {
	c, mr, done := newRedisCacheTest(t)
	defer done()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "counter")
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != want {
			t.Fatalf("expected %d, got %d", want, n)
		}
	}
	if err := c.Expire(ctx, "counter", 5*time.Second); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if mr.TTL("counter") != 5*time.Second {
		t.Fatalf("expected ttl 5s, got %v", mr.TTL("counter"))
	}

	n, err := c.Delete(ctx, "counter", "never-existed")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted key, got %d", n)
	}
	if n, err := c.Delete(ctx); err != nil || n != 0 {
		t.Fatalf("empty delete should be a no-op, got n=%d err=%v", n, err)
	}
}

func TestRedisScanByPattern(t *testing.T) {
	c, _, done := newRedisCacheTest(t)
	defer done()
	ctx := context.Background()

	for _, k := range []string{"user:1", "user:2", "session:1"} {
		if err := c.Set(ctx, k, "x"); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := c.ScanByPattern(ctx, "user:*")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}

func TestRedisUnavailableIsWrapped(t *testing.T) {
	c, mr, done := newRedisCacheTest(t)
	defer done()

	mr.Close()
	_, err := c.Get(context.Background(), "k")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if errors.Is(err, ErrMiss) {
		t.Fatal("transport failure must not look like a miss")
	}
}

func TestCeilSeconds(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		0:                       0,
		time.Second:             time.Second,
		1500 * time.Millisecond: 2 * time.Second,
		15 * time.Minute:        15 * time.Minute,
		time.Millisecond:        time.Second,
	}
	for in, want := range cases {
		if got := CeilSeconds(in); got != want {
			t.Fatalf("CeilSeconds(%v) = %v, want %v", in, got, want)
		}
	}
}
