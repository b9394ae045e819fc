package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/MrEthical07/authkeep/jwt"
	"github.com/rs/zerolog"
)

const (
	keyPrefix   = "blacklist:"
	markerValue = "revoked"
)

// ErrEmptyToken is returned by Revoke for an empty token.
var ErrEmptyToken = errors.New("revocation: empty token")

// Config controls the registry.
type Config struct {
	// FailClosed makes IsRevoked report true when the cache cannot be reached.
	FailClosed bool
	Now        func() time.Time
}

// Observer receives lookup outcomes. It may be nil.
type Observer interface {
	TokenRevoked()
	RevocationLookupFailed()
}

// Registry records revoked access tokens.
type Registry struct {
	cache    cache.Client
	cfg      Config
	logger   zerolog.Logger
	observer Observer
}

// NewRegistry builds a Registry over client.
func NewRegistry(client cache.Client, cfg Config, logger zerolog.Logger, observer Observer) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		cache:    client,
		cfg:      cfg,
		logger:   logger.With().Str("component", "revocation").Logger(),
		observer: observer,
	}
}

func (r *Registry) key(token string) string {
	return keyPrefix + token
}

// Revoke blacklists token until its exp claim. The signature is not checked; a token
// that does not decode, has no exp, or is already expired is ignored.
func (r *Registry) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	claims, err := jwt.Decode(token)
	if err != nil {
		r.logger.Debug().Err(err).Msg("revoke: token does not decode, skipping")
		return nil
	}
	exp := claims.Expiry()
	if exp.IsZero() {
		return nil
	}

	// exp has whole-second precision; compare at the same resolution.
	ttl := time.Duration(exp.Unix()-r.cfg.Now().Unix()) * time.Second
	if ttl <= 0 {
		return nil
	}

	if err := r.cache.SetWithTTL(ctx, r.key(token), markerValue, ttl); err != nil {
		r.logger.Warn().Err(err).Str("op", "revoke").Msg("revocation cache write failed")
		return err
	}
	if r.observer != nil {
		r.observer.TokenRevoked()
	}
	return nil
}

// IsRevoked reports whether token is in the registry. A lookup failure yields
// Config.FailClosed.
func (r *Registry) IsRevoked(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, err := r.cache.Get(ctx, r.key(token))
	switch {
	case err == nil:
		return true
	case cache.IsMiss(err):
		return false
	default:
		r.logger.Warn().Err(err).Str("op", "is_revoked").Bool("fail_closed", r.cfg.FailClosed).Msg("revocation lookup failed")
		if r.observer != nil {
			r.observer.RevocationLookupFailed()
		}
		return r.cfg.FailClosed
	}
}
