package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/MrEthical07/authkeep/internal"
	"github.com/rs/zerolog"
)

// DefaultTTL is the session lifetime used when the store is built with ttl <= 0.
const DefaultTTL = 24 * time.Hour

const (
	sessionPrefix = "session:"
	pointerPrefix = "user_session:"
)

// ErrInvalidUserID is returned by Create for an empty owner.
var ErrInvalidUserID = errors.New("session: empty user id")

// Store manages session:<id> records and user_session:<userId> pointers.
type Store struct {
	cache  cache.Client
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore builds a Store. ttl is both the default creation TTL and the TTL restored on
// every successful Get.
func NewStore(client cache.Client, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// TTL returns the sliding lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(sessionID string) string {
	return sessionPrefix + sessionID
}

func (s *Store) pointerKey(userID string) string {
	return pointerPrefix + userID
}

func (s *Store) warn(op string, err error) {
	s.logger.Warn().Err(err).Str("op", op).Msg("session cache operation failed")
}

// Create writes a new session and points the user at it. Both keys share ttl
// (ttl <= 0 selects the store TTL). A previous session of the same user is left to
// expire on its own.
func (s *Store) Create(ctx context.Context, userID string, metadata map[string]string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	sessionID, err := internal.NewOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}

	now := s.now().UTC()
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	blob, err := Encode(&Session{
		UserID:         userID,
		Metadata:       meta,
		CreatedAt:      now,
		LastAccessedAt: now,
	})
	if err != nil {
		return "", err
	}

	if err := s.cache.SetWithTTL(ctx, s.key(sessionID), string(blob), ttl); err != nil {
		s.warn("create", err)
		return "", err
	}
	if err := s.cache.SetWithTTL(ctx, s.pointerKey(userID), sessionID, ttl); err != nil {
		s.warn("create_pointer", err)
		return "", err
	}
	return sessionID, nil
}

// Get returns the session and renews it to the full store TTL. The second result is
// false when the session is absent, unreadable, or the cache failed.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, bool) {
	sess, ok := s.load(ctx, sessionID)
	if !ok {
		return nil, false
	}

	sess.LastAccessedAt = s.now().UTC()
	blob, err := Encode(sess)
	if err != nil {
		s.warn("get_encode", err)
		return sess, true
	}
	if err := s.cache.SetWithTTL(ctx, s.key(sessionID), string(blob), s.ttl); err != nil {
		s.warn("get_renew", err)
	}
	sess.SchemaVersion = CurrentSchemaVersion
	return sess, true
}

// Peek returns the session without renewing it.
func (s *Store) Peek(ctx context.Context, sessionID string) (*Session, bool) {
	return s.load(ctx, sessionID)
}

func (s *Store) load(ctx context.Context, sessionID string) (*Session, bool) {
	if sessionID == "" {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.key(sessionID))
	if err != nil {
		if !cache.IsMiss(err) {
			s.warn("get", err)
		}
		return nil, false
	}
	sess, err := Decode([]byte(raw))
	if err != nil {
		s.warn("decode", err)
		return nil, false
	}
	sess.SessionID = sessionID
	return sess, true
}

// CurrentID resolves the user's pointer.
func (s *Store) CurrentID(ctx context.Context, userID string) (string, bool) {
	id, err := s.cache.Get(ctx, s.pointerKey(userID))
	if err != nil {
		if !cache.IsMiss(err) {
			s.warn("pointer_get", err)
		}
		return "", false
	}
	return id, id != ""
}

// Destroy removes the record and, when the owner's pointer still targets it, the
// pointer. Destroying an absent session is a no-op.
func (s *Store) Destroy(ctx context.Context, sessionID string) {
	sess, ok := s.load(ctx, sessionID)
	if !ok {
		return
	}
	if _, err := s.cache.Delete(ctx, s.key(sessionID)); err != nil {
		s.warn("destroy", err)
		return
	}

	current, ok := s.CurrentID(ctx, sess.UserID)
	if !ok || current != sessionID {
		return
	}
	if _, err := s.cache.Delete(ctx, s.pointerKey(sess.UserID)); err != nil {
		s.warn("destroy_pointer", err)
	}
}

// DestroyAllForUser deletes the session the user's pointer resolves to and the pointer
// itself. No-op without a pointer.
func (s *Store) DestroyAllForUser(ctx context.Context, userID string) {
	sessionID, ok := s.CurrentID(ctx, userID)
	if !ok {
		return
	}
	if _, err := s.cache.Delete(ctx, s.key(sessionID), s.pointerKey(userID)); err != nil {
		s.warn("destroy_all", err)
	}
}

// Extend resets the record TTL without touching its content.
func (s *Store) Extend(ctx context.Context, sessionID string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.cache.Expire(ctx, s.key(sessionID), cache.CeilSeconds(ttl)); err != nil {
		s.warn("extend", err)
	}
}
