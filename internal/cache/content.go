package cache

import (
	"context"
	"encoding/json"
	"time"

	"tamatar-api/pkg/logging"

	"go.uber.org/zap"
)

// DefaultBaseTTL is the freshness window for preview and caption entries.
const DefaultBaseTTL = 24 * time.Hour

// imageTTLFactor stretches the base TTL for generated images, which are
// stable and expensive to regenerate.
const imageTTLFactor = 7

// ContentCache memoizes expensive generated artifacts per (dish, kind).
//
// It owns key normalization and the JSON payload codec, and absorbs every
// storage failure: Get degrades to a miss, Put to a false return,
// Invalidate and SweepExpired to 0. Callers must never fail because the
// cache did. There is no per-dish lock; two concurrent misses for the same
// dish may both regenerate, and the last write wins.
type ContentCache struct {
	store   Store
	baseTTL time.Duration
}

// New wraps a Store. A non-positive baseTTL falls back to DefaultBaseTTL.
func New(store Store, baseTTL time.Duration) *ContentCache {
	if baseTTL <= 0 {
		baseTTL = DefaultBaseTTL
	}
	return &ContentCache{store: store, baseTTL: baseTTL}
}

// TTLFor returns the freshness window policy for a content kind:
// images keep 7x the base TTL, everything else the base TTL.
func (c *ContentCache) TTLFor(kind Kind) time.Duration {
	if kind == KindImage {
		return c.baseTTL * imageTTLFactor
	}
	return c.baseTTL
}

// Get looks up the live entry for (dish, kind) and unmarshals it into out.
// Absent, expired, storage failure and corrupt payload all report a miss;
// a corrupt entry is opportunistically removed.
func (c *ContentCache) Get(ctx context.Context, dishName string, kind Kind, out any) bool {
	key := NewKey(dishName, kind).String()

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logging.L(ctx).Warn("cache get failed, treating as miss",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return false
	}
	if !ok {
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		logging.L(ctx).Warn("corrupt cache entry, removing",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		_, _ = c.store.Delete(ctx, key)
		return false
	}

	return true
}

// Put serializes payload and upserts it under (dish, kind) with the given
// TTL. A write always resets freshness; it never merges with the previous
// expiry. A non-positive TTL removes any existing entry. Returns false on
// failure instead of an error so the caller's primary flow is unaffected.
func (c *ContentCache) Put(ctx context.Context, dishName string, kind Kind, payload any, ttl time.Duration) bool {
	key := NewKey(dishName, kind).String()

	data, err := json.Marshal(payload)
	if err != nil {
		logging.L(ctx).Warn("cache payload marshal failed",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return false
	}

	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		logging.L(ctx).Warn("cache put failed",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return false
	}

	return true
}

// Invalidate removes live entries for the dish. With KindAny it clears all
// kinds; otherwise just the one. Returns the number removed, 0 on failure.
func (c *ContentCache) Invalidate(ctx context.Context, dishName string, kind Kind) int {
	k := NewKey(dishName, kind)

	var (
		n   int
		err error
	)
	if kind == KindAny {
		n, err = c.store.DeletePrefix(ctx, k.DishPrefix())
	} else {
		n, err = c.store.Delete(ctx, k.String())
	}
	if err != nil {
		logging.L(ctx).Warn("cache invalidate failed",
			zap.String("dish", k.Dish),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return 0
	}
	return n
}

// SweepExpired removes every expired entry across all dishes and kinds.
// Get already does lazy expiry, so this is maintenance, not correctness.
func (c *ContentCache) SweepExpired(ctx context.Context) int {
	n, err := c.store.SweepExpired(ctx)
	if err != nil {
		logging.L(ctx).Warn("cache sweep failed", zap.Error(err))
		return 0
	}
	return n
}
