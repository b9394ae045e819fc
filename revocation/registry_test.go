package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/authkeep/internal/cachetest"
	"github.com/MrEthical07/authkeep/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

type countingObserver struct {
	revoked int
	failed  int
}

func (o *countingObserver) TokenRevoked()           { o.revoked++ }
func (o *countingObserver) RevocationLookupFailed() { o.failed++ }

var testNow = time.Unix(1_750_000_000, 0)

func newTestToken(t *testing.T, issuedAt time.Time) string {
	t.Helper()
	issuer, err := jwt.NewIssuer(jwt.Config{
		AccessSecret:  []byte("a-secret"),
		RefreshSecret: []byte("r-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		Now:           func() time.Time { return issuedAt },
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	pair, err := issuer.IssuePair("u-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return pair.AccessToken
}

func newRegistryTest(t *testing.T) (*Registry, *miniredis.Miniredis, *countingObserver) {
	t.Helper()
	mr, client := cachetest.NewRedis(t)
	obs := &countingObserver{}
	reg := NewRegistry(client, Config{FailClosed: true, Now: func() time.Time { return testNow }}, zerolog.Nop(), obs)
	return reg, mr, obs
}

func TestRevokedUntilNaturalExpiry(t *testing.T) {
	reg, mr, obs := newRegistryTest(t)
	ctx := context.Background()
	token := newTestToken(t, testNow)

	if reg.IsRevoked(ctx, token) {
		t.Fatal("fresh token must not be revoked")
	}
	if err := reg.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !reg.IsRevoked(ctx, token) {
		t.Fatal("expected revoked")
	}
	if got := mr.TTL("blacklist:" + token); got != 15*time.Minute {
		t.Fatalf("expected entry ttl 15m, got %v", got)
	}

	mr.FastForward(15*time.Minute - time.Second)
	if !reg.IsRevoked(ctx, token) {
		t.Fatal("expected revoked until expiry")
	}

	mr.FastForward(time.Second)
	if reg.IsRevoked(ctx, token) {
		t.Fatal("entry should have expired with the token")
	}
	if mr.Exists("blacklist:" + token) {
		t.Fatal("no leftover key expected")
	}
	if obs.revoked != 1 {
		t.Fatalf("expected 1 revocation observed, got %d", obs.revoked)
	}
}

func TestRevokeSkipsExpiredAndUndecodableTokens(t *testing.T) {
	reg, mr, _ := newRegistryTest(t)
	ctx := context.Background()

	expired := newTestToken(t, testNow.Add(-time.Hour))
	if err := reg.Revoke(ctx, expired); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}
	if err := reg.Revoke(ctx, "not-a-token"); err != nil {
		t.Fatalf("revoke garbage: %v", err)
	}
	if err := reg.Revoke(ctx, ""); err != ErrEmptyToken {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected no registry entries, got %v", keys)
	}
}

func TestLookupFailurePolicy(t *testing.T) {
	token := newTestToken(t, testNow)
	ctx := context.Background()

	closed := NewRegistry(&cachetest.Failing{}, Config{FailClosed: true}, zerolog.Nop(), nil)
	if !closed.IsRevoked(ctx, token) {
		t.Fatal("fail-closed registry must treat lookup failure as revoked")
	}

	obs := &countingObserver{}
	open := NewRegistry(&cachetest.Failing{}, Config{FailClosed: false, Now: func() time.Time { return testNow }}, zerolog.Nop(), obs)
	if open.IsRevoked(ctx, token) {
		t.Fatal("fail-open registry must treat lookup failure as not revoked")
	}
	if obs.failed != 1 {
		t.Fatalf("expected lookup failure observed, got %d", obs.failed)
	}

	if err := open.Revoke(ctx, token); err == nil {
		t.Fatal("revoke should report the cache failure")
	}
}
