package invalidation

import (
	"context"

	"github.com/MrEthical07/authkeep/cache"
	"github.com/rs/zerolog"
)

// ProfilePrefix namespaces cached user profiles.
const ProfilePrefix = "user:"

// Coordinator deletes cached entries after writes.
type Coordinator struct {
	cache  cache.Client
	logger zerolog.Logger
}

// NewCoordinator builds a Coordinator over client.
func NewCoordinator(client cache.Client, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cache:  client,
		logger: logger.With().Str("component", "invalidation").Logger(),
	}
}

// InvalidateUser drops the cached profile for userID.
func (c *Coordinator) InvalidateUser(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if _, err := c.cache.Delete(ctx, ProfilePrefix+userID); err != nil {
		c.logger.Warn().Err(err).Str("op", "invalidate_user").Str("user_id", userID).Msg("profile invalidation failed")
	}
}

// InvalidatePattern deletes every key matching a glob pattern and returns how many were
// removed. Enumeration walks the whole keyspace; keep it off request paths.
func (c *Coordinator) InvalidatePattern(ctx context.Context, pattern string) int64 {
	keys, err := c.cache.ScanByPattern(ctx, pattern)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", "invalidate_pattern").Str("pattern", pattern).Msg("pattern scan failed")
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	n, err := c.cache.Delete(ctx, keys...)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", "invalidate_pattern").Str("pattern", pattern).Msg("pattern delete failed")
		return 0
	}
	return n
}
