package stores

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/rs/zerolog"
)

// TempPrefix is the root of every parked payload key.
const TempPrefix = "temp:"

// TempStore parks JSON payloads for a short time. All failures are logged and swallowed.
type TempStore struct {
	cache     cache.Client
	namespace string
	logger    zerolog.Logger
}

// NewTempStore builds a store writing under temp:<namespace>:.
func NewTempStore(client cache.Client, namespace string, logger zerolog.Logger) *TempStore {
	return &TempStore{
		cache:     client,
		namespace: TempPrefix + namespace + ":",
		logger:    logger.With().Str("component", "temp").Str("namespace", namespace).Logger(),
	}
}

func (s *TempStore) key(id string) string {
	return s.namespace + id
}

// Put stores v as JSON under id.
func (s *TempStore) Put(ctx context.Context, id string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn().Err(err).Str("op", "put").Msg("temp payload encode failed")
		return
	}
	if err := s.cache.SetWithTTL(ctx, s.key(id), string(raw), cache.CeilSeconds(ttl)); err != nil {
		s.logger.Warn().Err(err).Str("op", "put").Msg("temp payload write failed")
	}
}

// Get decodes the payload under id into dst. It reports false when the payload is
// absent, unreadable, or the cache failed.
func (s *TempStore) Get(ctx context.Context, id string, dst any) bool {
	raw, err := s.cache.Get(ctx, s.key(id))
	if err != nil {
		if !cache.IsMiss(err) {
			s.logger.Warn().Err(err).Str("op", "get").Msg("temp payload read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn().Err(err).Str("op", "get").Msg("temp payload decode failed")
		return false
	}
	return true
}

// Remove deletes the payload under id.
func (s *TempStore) Remove(ctx context.Context, id string) {
	if _, err := s.cache.Delete(ctx, s.key(id)); err != nil {
		s.logger.Warn().Err(err).Str("op", "remove").Msg("temp payload delete failed")
	}
}
