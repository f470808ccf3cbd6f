package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/dto"
)

const keyPrefix = "availability:"

// AvailabilityCache holds short-lived slot availability projections in Redis.
// It only serves the read path; admission decisions always read committed
// database state inside their own transaction. A nil cache is a no-op, so the
// service runs unchanged when Redis is not configured.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAvailability(addr string, ttl time.Duration) *AvailabilityCache {
	if addr == "" {
		return nil
	}
	return NewAvailabilityWithClient(redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

func NewAvailabilityWithClient(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func (c *AvailabilityCache) Get(ctx context.Context, partition string) (*dto.SlotAvailabilityResponse, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, keyPrefix+partition).Bytes()
	if err != nil {
		return nil, false
	}
	var resp dto.SlotAvailabilityResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *AvailabilityCache) Set(ctx context.Context, partition string, resp dto.SlotAvailabilityResponse) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, keyPrefix+partition, raw, c.ttl)
}

// Invalidate drops the cached projection after an admission or cancellation
// changed the slot's counts.
func (c *AvailabilityCache) Invalidate(ctx context.Context, partition string) {
	if c == nil {
		return
	}
	c.rdb.Del(ctx, keyPrefix+partition)
}
