package invalidation

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authkeep/internal/cachetest"
	"github.com/rs/zerolog"
)

type profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func TestProfileCacheThenInvalidate(t *testing.T) {
	mr, client := cachetest.NewRedis(t)
	ctx := context.Background()
	pc := NewProfileCache(client, 0, zerolog.Nop())
	co := NewCoordinator(client, zerolog.Nop())

	pc.Put(ctx, "u-1", profile{ID: "u-1", Username: "alice"})
	if got := mr.TTL("user:u-1"); got != time.Hour {
		t.Fatalf("ttl = %v", got)
	}

	var got profile
	if !pc.Get(ctx, "u-1", &got) || got.Username != "alice" {
		t.Fatalf("unexpected cache read %+v", got)
	}

	co.InvalidateUser(ctx, "u-1")
	if pc.Get(ctx, "u-1", &got) {
		t.Fatal("expected entry invalidated")
	}
	co.InvalidateUser(ctx, "u-1")
}

func TestProfileEntryExpires(t *testing.T) {
	mr, client := cachetest.NewRedis(t)
	pc := NewProfileCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	pc.Put(ctx, "u-1", profile{ID: "u-1"})
	mr.FastForward(time.Minute)

	var got profile
	if pc.Get(ctx, "u-1", &got) {
		t.Fatal("expected expiry")
	}
}

func TestInvalidatePattern(t *testing.T) {
	mr, client := cachetest.NewRedis(t)
	co := NewCoordinator(client, zerolog.Nop())

	for _, k := range []string{"user:1", "user:2", "user:3", "session:1"} {
		if err := mr.Set(k, "x"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if n := co.InvalidatePattern(context.Background(), "user:*"); n != 3 {
		t.Fatalf("expected 3 deletions, got %d", n)
	}
	if !mr.Exists("session:1") {
		t.Fatal("non-matching key must survive")
	}
	if n := co.InvalidatePattern(context.Background(), "user:*"); n != 0 {
		t.Fatalf("expected nothing left, got %d", n)
	}
}

func TestInvalidationFailuresAreSwallowed(t *testing.T) {
	failing := &cachetest.Failing{}
	co := NewCoordinator(failing, zerolog.Nop())
	pc := NewProfileCache(failing, 0, zerolog.Nop())
	ctx := context.Background()

	co.InvalidateUser(ctx, "u-1")
	if n := co.InvalidatePattern(ctx, "user:*"); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
	pc.Put(ctx, "u-1", profile{})
	var got profile
	if pc.Get(ctx, "u-1", &got) {
		t.Fatal("expected miss")
	}
	if failing.Calls() != 4 {
		t.Fatalf("expected 4 cache calls, got %d", failing.Calls())
	}
}
