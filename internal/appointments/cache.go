package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

const defaultAvailabilityTTL = 30 * time.Second

// AvailabilityCache is a read-through cache of free slots per (branch, date).
// The record store stays the source of truth: entries carry a short TTL and
// are dropped after every booking or cancellation. Cache failures degrade to
// direct store reads.
type AvailabilityCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewAvailabilityCache creates a cache with the given TTL (default 30s when
// non-positive).
func NewAvailabilityCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *AvailabilityCache {
	if client == nil {
		panic("appointments: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultAvailabilityTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityCache{redis: client, ttl: ttl, logger: logger}
}

func availabilityKey(branch, date string) string {
	return fmt.Sprintf("availability:%s:%s", branch, date)
}

// Get returns the cached free slots and whether the entry was present.
// A nil cache always misses.
func (c *AvailabilityCache) Get(ctx context.Context, branch, date string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, availabilityKey(branch, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", "error", err, "branch", branch, "date", date)
		}
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		c.logger.Warn("availability cache entry corrupt", "error", err, "branch", branch, "date", date)
		return nil, false
	}
	return slots, true
}

// Set stores the free slots for a (branch, date) pair.
func (c *AvailabilityCache) Set(ctx context.Context, branch, date string, slots []string) {
	if c == nil {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, availabilityKey(branch, date), data, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", "error", err, "branch", branch, "date", date)
	}
}

// Invalidate drops the entry after a mutation so the next read refreshes from
// the store.
func (c *AvailabilityCache) Invalidate(ctx context.Context, branch, date string) {
	if c == nil {
		return
	}
	if err := c.redis.Del(ctx, availabilityKey(branch, date)).Err(); err != nil {
		c.logger.Warn("availability cache invalidate failed", "error", err, "branch", branch, "date", date)
	}
}
