package invalidation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/rs/zerolog"
)

// DefaultProfileTTL bounds how long a stale profile can be served.
const DefaultProfileTTL = time.Hour

// ProfileCache reads and writes user:<id> entries. Entries are removed through the
// Coordinator.
type ProfileCache struct {
	cache  cache.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewProfileCache builds a ProfileCache. ttl <= 0 selects DefaultProfileTTL.
func NewProfileCache(client cache.Client, ttl time.Duration, logger zerolog.Logger) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{
		cache:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "profile_cache").Logger(),
	}
}

// Get decodes the cached profile of userID into dst.
func (p *ProfileCache) Get(ctx context.Context, userID string, dst any) bool {
	raw, err := p.cache.Get(ctx, ProfilePrefix+userID)
	if err != nil {
		if !cache.IsMiss(err) {
			p.logger.Warn().Err(err).Str("op", "get").Msg("profile cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		p.logger.Warn().Err(err).Str("op", "get").Msg("profile cache entry unreadable")
		return false
	}
	return true
}

// Put caches profile for userID.
func (p *ProfileCache) Put(ctx context.Context, userID string, profile any) {
	raw, err := json.Marshal(profile)
	if err != nil {
		p.logger.Warn().Err(err).Str("op", "put").Msg("profile encode failed")
		return
	}
	if err := p.cache.SetWithTTL(ctx, ProfilePrefix+userID, string(raw), p.ttl); err != nil {
		p.logger.Warn().Err(err).Str("op", "put").Msg("profile cache write failed")
	}
}
