package authkeep_test

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/authtest"
	"github.com/MrEthical07/authkeep/internal/cachetest"
)

func TestAdmitFixedWindow(t *testing.T) {
	env := authtest.New(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		d := env.Engine.Admit(ctx, "auth", "192.0.2.1", time.Minute, 3)
		if !d.Allowed || d.Remaining != 3-i {
			t.Fatalf("request %d: unexpected decision %+v", i, d)
		}
	}
	d := env.Engine.Admit(ctx, "auth", "192.0.2.1", time.Minute, 3)
	if d.Allowed || d.RetryAfter != time.Minute {
		t.Fatalf("expected denial with full-window retry, got %+v", d)
	}
	if ttl := env.Redis.TTL("ratelimit:auth:192.0.2.1"); ttl != time.Minute {
		t.Fatalf("expected bucket ttl 1m, got %v", ttl)
	}

	// Policies and clients have separate buckets.
	if d := env.Engine.Admit(ctx, "general", "192.0.2.1", time.Minute, 3); !d.Allowed {
		t.Fatal("expected separate bucket per policy")
	}
	if d := env.Engine.Admit(ctx, "auth", "192.0.2.2", time.Minute, 3); !d.Allowed {
		t.Fatal("expected separate bucket per client")
	}

	env.Redis.FastForward(time.Minute + time.Second)
	if d := env.Engine.Admit(ctx, "auth", "192.0.2.1", time.Minute, 3); !d.Allowed || d.Count != 1 {
		t.Fatalf("expected a fresh window, got %+v", d)
	}

	snap := env.Engine.MetricsSnapshot()
	if snap.Counters[authkeep.MetricRateLimitDenied] != 1 || snap.Counters[authkeep.MetricRateLimitAllowed] != 6 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestAdmitFailsOpen(t *testing.T) {
	env := authtest.New(t, authtest.WithCache(&cachetest.Failing{}))
	for i := 0; i < 5; i++ {
		d := env.Engine.Admit(context.Background(), "auth", "192.0.2.1", time.Minute, 1)
		if !d.Allowed || d.Err == nil {
			t.Fatalf("expected fail-open decision, got %+v", d)
		}
	}
	if got := env.Engine.MetricsSnapshot().Counters[authkeep.MetricRateLimitFailOpen]; got != 5 {
		t.Fatalf("expected 5 fail-open events, got %d", got)
	}
}
