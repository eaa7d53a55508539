package cache

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/types"
)

// memoryEntry pairs a cache entry with its insertion sequence so Cleanup can
// trim oldest-first. Re-setting a key counts as a new insertion.
type memoryEntry struct {
	entry types.CacheEntry
	seq   uint64
}

// MemoryCache is the volatile tier: a process-lifetime map guarded by a
// mutex. It is the only tier mutated without I/O, so every read probes it
// first.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	seq     uint64

	config config.MemoryConfig
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64

	closed atomic.Bool
}

// NewMemoryCache creates the volatile tier with the given configuration.
func NewMemoryCache(cfg config.MemoryConfig, logger *slog.Logger) *MemoryCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryCache{
		entries: make(map[string]*memoryEntry),
		config:  cfg,
		logger:  logger.With("component", "memory-tier"),
	}
}

// Name returns the tier name.
func (c *MemoryCache) Name() string {
	return "memory"
}

// IsAvailable returns true if the tier is not closed.
func (c *MemoryCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get retrieves a value. An expired entry is removed eagerly and reported
// as a miss so callers never observe a stale value.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	c.mu.RLock()
	me, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	if me.entry.IsExpired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry since the read.
		if cur, ok := c.entries[key]; ok && cur == me {
			delete(c.entries, key)
			c.evictions.Add(1)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	c.hits.Add(1)
	return me.entry.Value, nil
}

// Set stores a value with the TTL and tags carried in opts.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if opts == nil {
		opts = types.DefaultOptions()
	}

	now := time.Now()
	entry := types.CacheEntry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		Tags:      opts.Tags,
	}
	if opts.TTL > 0 {
		entry.ExpiresAt = now.Add(opts.TTL)
	}

	c.mu.Lock()
	c.seq++
	c.entries[key] = &memoryEntry{entry: entry, seq: c.seq}
	c.mu.Unlock()

	c.sets.Add(1)
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.deletes.Add(1)
	return nil
}

// Contains reports whether a live entry exists for key. Like Get, it
// removes an expired entry before answering.
func (c *MemoryCache) Contains(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	c.mu.RLock()
	me, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if me.entry.IsExpired(time.Now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur == me {
			delete(c.entries, key)
			c.evictions.Add(1)
		}
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	c.entries = make(map[string]*memoryEntry)
	c.mu.Unlock()
	return nil
}

// Keys returns live keys with the given prefix, or all keys when prefix is
// empty.
func (c *MemoryCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	now := time.Now()
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k, me := range c.entries {
		if me.entry.IsExpired(now) {
			continue
		}
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

// InvalidateByTags removes every entry carrying at least one of the given
// tags. The volatile tier keeps no tag index; a linear scan is cheap at this
// tier's size.
func (c *MemoryCache) InvalidateByTags(ctx context.Context, tags []string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if len(tags) == 0 {
		return nil
	}

	c.mu.Lock()
	removed := 0
	for k, me := range c.entries {
		if me.entry.HasAnyTag(tags) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.deletes.Add(int64(removed))
		c.logger.Debug("invalidated entries by tags", "tags", tags, "removed", removed)
	}
	return nil
}

// Cleanup evicts all expired entries, then trims the oldest entries (by
// insertion order, not expiry) beyond the configured item cap.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	now := time.Now()
	evicted := 0

	c.mu.Lock()
	for k, me := range c.entries {
		if me.entry.IsExpired(now) {
			delete(c.entries, k)
			evicted++
		}
	}

	if limit := c.config.MaxItems; limit > 0 && len(c.entries) > limit {
		type aged struct {
			key string
			seq uint64
		}
		byAge := make([]aged, 0, len(c.entries))
		for k, me := range c.entries {
			byAge = append(byAge, aged{key: k, seq: me.seq})
		}
		sort.Slice(byAge, func(i, j int) bool { return byAge[i].seq < byAge[j].seq })
		for _, a := range byAge[:len(c.entries)-limit] {
			delete(c.entries, a.key)
			evicted++
		}
	}
	c.mu.Unlock()

	if evicted > 0 {
		c.evictions.Add(int64(evicted))
		c.logger.Debug("cleanup evicted entries", "evicted", evicted)
	}
	return nil
}

// Close marks the tier closed. There are no handles to release.
func (c *MemoryCache) Close() error {
	c.closed.Store(true)
	return nil
}

// Stats returns tier operation counters.
func (c *MemoryCache) Stats() types.TierStats {
	return types.TierStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
	}
}

// EntryCount returns the number of stored entries, expired or not.
func (c *MemoryCache) EntryCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ types.MemoryTier = (*MemoryCache)(nil)
