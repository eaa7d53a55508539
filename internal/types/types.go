// Package types provides shared types for the aerodata data-access layer.
// This package breaks import cycles between pkg/aerodata and internal/cache.
package types

import (
	"sync/atomic"
	"time"
)

// CacheLevel specifies which storage tiers a write reaches. Reads always
// probe every configured tier, fastest first.
type CacheLevel int

const (
	// LevelMemory writes only to the volatile in-process tier.
	LevelMemory CacheLevel = iota + 1
	// LevelLocal writes to the volatile tier and the small durable tier.
	LevelLocal
	// LevelIndexed writes to all three tiers, including the tag-indexed
	// large durable tier.
	LevelIndexed
)

func (l CacheLevel) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelLocal:
		return "local"
	case LevelIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// IncludesLocal reports whether writes at this level reach the small durable tier.
func (l CacheLevel) IncludesLocal() bool {
	return l == LevelLocal || l == LevelIndexed
}

// IncludesIndexed reports whether writes at this level reach the large durable tier.
func (l CacheLevel) IncludesIndexed() bool {
	return l == LevelIndexed
}

// CacheOptions contains per-operation options.
type CacheOptions struct {
	// TTL is the entry lifetime. Zero means the configured default.
	TTL time.Duration
	// Level selects the deepest tier a Set reaches.
	Level CacheLevel
	// Tags label the entry for bulk invalidation. Tags are never used for
	// lookup.
	Tags []string
}

// DefaultOptions returns a CacheOptions with library defaults applied.
func DefaultOptions() *CacheOptions {
	return &CacheOptions{
		TTL: 5 * time.Minute,
	}
}

// CacheEntry is the record a tier stores for one key.
type CacheEntry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	// ExpiresAt is always CreatedAt+TTL at write time. Zero means the entry
	// never expires.
	ExpiresAt time.Time
	Tags      []string
}

// IsExpired reports whether the entry's lifetime has passed.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.After(e.ExpiresAt)
}

// HasAnyTag reports whether the entry carries at least one of the given tags.
func (e *CacheEntry) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range e.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// CacheStats is a per-orchestrator hit/miss counter. A full miss counts
// once, not once per tier probed. Reset only by Clear.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	// Size is the number of live entries in the volatile tier.
	Size uint64
}

// HitRate returns hits/(hits+misses), or 0 when no requests have occurred.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// StatsCounter accumulates CacheStats without locking.
type StatsCounter struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Hit records one cache hit.
func (c *StatsCounter) Hit() { c.hits.Add(1) }

// Miss records one full cache miss.
func (c *StatsCounter) Miss() { c.misses.Add(1) }

// Reset zeroes both counters.
func (c *StatsCounter) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// Snapshot returns the current counts with the given live-entry size.
func (c *StatsCounter) Snapshot(size int) CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   uint64(size),
	}
}

// TierStats contains per-tier operation counters.
type TierStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
}
