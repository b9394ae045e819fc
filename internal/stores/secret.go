package stores

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/rs/zerolog"
)

const (
	// OTPPrefix namespaces password reset codes.
	OTPPrefix = "otp:"
	// VerificationPrefix namespaces email verification tokens.
	VerificationPrefix = "temp:verify:"
)

var (
	// ErrSecretUnavailable wraps cache failures on critical secret operations.
	ErrSecretUnavailable = errors.New("secret store unavailable")
	// ErrEmptySecret is returned when issuing an empty subject or value.
	ErrEmptySecret = errors.New("secret store: empty subject or value")
)

// SecretStore keeps one live secret per subject.
type SecretStore struct {
	cache  cache.Client
	prefix string
	logger zerolog.Logger
}

// NewSecretStore builds a store writing under prefix.
func NewSecretStore(client cache.Client, prefix string, logger zerolog.Logger) *SecretStore {
	return &SecretStore{
		cache:  client,
		prefix: prefix,
		logger: logger.With().Str("component", "secrets").Str("prefix", prefix).Logger(),
	}
}

func (s *SecretStore) key(subject string) string {
	return s.prefix + subject
}

func digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Issue stores secret for subject, replacing any previous one.
func (s *SecretStore) Issue(ctx context.Context, subject, secret string, ttl time.Duration) error {
	if subject == "" || secret == "" {
		return ErrEmptySecret
	}
	if err := s.cache.SetWithTTL(ctx, s.key(subject), digest(secret), cache.CeilSeconds(ttl)); err != nil {
		return fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
	}
	return nil
}

// Match reports whether provided equals the live secret for subject. An absent secret
// is a mismatch, not an error.
func (s *SecretStore) Match(ctx context.Context, subject, provided string) (bool, error) {
	if subject == "" || provided == "" {
		return false, nil
	}
	stored, err := s.cache.Get(ctx, s.key(subject))
	if err != nil {
		if cache.IsMiss(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
	}
	want := digest(provided)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(want)) == 1, nil
}

// Consume deletes the secret for subject.
func (s *SecretStore) Consume(ctx context.Context, subject string) {
	if _, err := s.cache.Delete(ctx, s.key(subject)); err != nil {
		s.logger.Warn().Err(err).Str("op", "consume").Msg("secret delete failed")
	}
}
