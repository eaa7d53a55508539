package cache

import (
	"context"
	"time"

	"github.com/skyward-labs/aerodata/internal/types"
)

// DisabledLocalCache is a no-op small durable tier.
type DisabledLocalCache struct{}

// NewDisabledLocalCache creates a new disabled local cache.
func NewDisabledLocalCache() *DisabledLocalCache {
	return &DisabledLocalCache{}
}

// Name returns the tier name.
func (c *DisabledLocalCache) Name() string { return "local-disabled" }

// IsAvailable returns false as this tier is disabled.
func (c *DisabledLocalCache) IsAvailable() bool { return false }

// Close does nothing as this tier is disabled.
func (c *DisabledLocalCache) Close() error { return nil }

// EntryCount returns 0 as this tier is disabled.
func (c *DisabledLocalCache) EntryCount() int { return 0 }

// SizeBytes returns 0 as this tier is disabled.
func (c *DisabledLocalCache) SizeBytes() int64 { return 0 }

// MaxSizeBytes returns 0 as this tier is disabled.
func (c *DisabledLocalCache) MaxSizeBytes() int64 { return 0 }

// Stats returns empty statistics as this tier is disabled.
func (c *DisabledLocalCache) Stats() types.TierStats { return types.TierStats{} }

// Clear does nothing as this tier is disabled.
func (c *DisabledLocalCache) Clear(ctx context.Context) error { return nil }

// Keys returns nil as this tier is disabled.
func (c *DisabledLocalCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

// InvalidateByTags does nothing as this tier is disabled.
func (c *DisabledLocalCache) InvalidateByTags(ctx context.Context, tags []string) error { return nil }

// Cleanup does nothing as this tier is disabled.
func (c *DisabledLocalCache) Cleanup(ctx context.Context) error { return nil }

// Get returns ErrCacheMiss as this tier is disabled.
func (c *DisabledLocalCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrCacheMiss
}

// GetWithExpiry returns ErrCacheMiss as this tier is disabled.
func (c *DisabledLocalCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, error) {
	return nil, time.Time{}, types.ErrCacheMiss
}

// Set does nothing as this tier is disabled.
func (c *DisabledLocalCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	return nil
}

// Delete does nothing as this tier is disabled.
func (c *DisabledLocalCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Contains returns false as this tier is disabled.
func (c *DisabledLocalCache) Contains(ctx context.Context, key string) (bool, error) {
	return false, nil
}

// DisabledIndexedCache is a no-op large durable tier.
type DisabledIndexedCache struct{}

// NewDisabledIndexedCache creates a new disabled indexed cache.
func NewDisabledIndexedCache() *DisabledIndexedCache {
	return &DisabledIndexedCache{}
}

// Name returns the tier name.
func (c *DisabledIndexedCache) Name() string { return "indexed-disabled" }

// IsAvailable returns false as this tier is disabled.
func (c *DisabledIndexedCache) IsAvailable() bool { return false }

// Close does nothing as this tier is disabled.
func (c *DisabledIndexedCache) Close() error { return nil }

// PendingWrites returns 0 as this tier is disabled.
func (c *DisabledIndexedCache) PendingWrites() int { return 0 }

// DroppedWrites returns 0 as this tier is disabled.
func (c *DisabledIndexedCache) DroppedWrites() int64 { return 0 }

// Clear does nothing as this tier is disabled.
func (c *DisabledIndexedCache) Clear(ctx context.Context) error { return nil }

// Keys returns nil as this tier is disabled.
func (c *DisabledIndexedCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

// InvalidateByTags does nothing as this tier is disabled.
func (c *DisabledIndexedCache) InvalidateByTags(ctx context.Context, tags []string) error { return nil }

// Cleanup does nothing as this tier is disabled.
func (c *DisabledIndexedCache) Cleanup(ctx context.Context) error { return nil }

// Get returns ErrStoreUnavailable as this tier is disabled.
func (c *DisabledIndexedCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrStoreUnavailable
}

// GetWithExpiry returns ErrStoreUnavailable as this tier is disabled.
func (c *DisabledIndexedCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, error) {
	return nil, time.Time{}, types.ErrStoreUnavailable
}

// Set does nothing as this tier is disabled.
func (c *DisabledIndexedCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	return nil
}

// Delete does nothing as this tier is disabled.
func (c *DisabledIndexedCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Contains returns false as this tier is disabled.
func (c *DisabledIndexedCache) Contains(ctx context.Context, key string) (bool, error) {
	return false, nil
}

// GetMany returns an empty map as this tier is disabled.
func (c *DisabledIndexedCache) GetMany(ctx context.Context, keys []string) (map[string]types.CacheEntry, error) {
	return make(map[string]types.CacheEntry), nil
}

// SetMany does nothing as this tier is disabled.
func (c *DisabledIndexedCache) SetMany(ctx context.Context, items map[string][]byte, opts *types.CacheOptions) error {
	return nil
}

var _ types.LocalTier = (*DisabledLocalCache)(nil)
var _ types.IndexedTier = (*DisabledIndexedCache)(nil)
