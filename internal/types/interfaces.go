package types

import (
	"context"
	"time"
)

type TierInfo interface {
	Name() string
	IsAvailable() bool
}

type TierReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Contains(ctx context.Context, key string) (bool, error)
}

type TierWriter interface {
	Set(ctx context.Context, key string, value []byte, opts *CacheOptions) error
	Delete(ctx context.Context, key string) error
}

type TierClearer interface {
	Clear(ctx context.Context) error
}

type TierEnumerator interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

type TierInvalidator interface {
	InvalidateByTags(ctx context.Context, tags []string) error
}

// TierJanitor evicts expired entries. Tiers with an item or byte cap also
// trim the oldest entries beyond it, oldest by insertion order.
type TierJanitor interface {
	Cleanup(ctx context.Context) error
}

type TierCloser interface {
	Close() error
}

// TierStore is the full contract every storage tier implements. All
// operations are idempotent with respect to repeated identical calls, and
// Get on an expired entry removes it before reporting a miss.
type TierStore interface {
	TierInfo
	TierReader
	TierWriter
	TierClearer
	TierEnumerator
	TierInvalidator
	TierJanitor
	TierCloser
}

// ExpiryReader exposes a live entry together with its absolute expiry, zero
// when the entry does not expire. Readers that copy entries between tiers
// use it to preserve the remaining lifetime instead of assigning a new one.
type ExpiryReader interface {
	GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, error)
}

// BatchReader returns the found entries keyed by cache key, each carrying
// its absolute expiry the same way ExpiryReader does.
type BatchReader interface {
	GetMany(ctx context.Context, keys []string) (map[string]CacheEntry, error)
}

type BatchWriter interface {
	SetMany(ctx context.Context, items map[string][]byte, opts *CacheOptions) error
}

type TierStatsProvider interface {
	Stats() TierStats
	EntryCount() int
}

// MemoryTier is the volatile tier surface used by the orchestrator.
type MemoryTier interface {
	TierStore
	TierStatsProvider
}

// LocalTier is the small durable tier surface.
type LocalTier interface {
	TierStore
	ExpiryReader
	TierStatsProvider
	SizeBytes() int64
	MaxSizeBytes() int64
}

// IndexedTier is the large durable tier surface.
type IndexedTier interface {
	TierStore
	ExpiryReader
	BatchReader
	BatchWriter
	PendingWrites() int
	DroppedWrites() int64
}

type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// Recorder receives telemetry for cache operations and executor attempts.
// Recording is a side effect, never part of a return contract.
type Recorder interface {
	RecordHit(tier string, key string, latency time.Duration)
	RecordMiss(tier string, key string, latency time.Duration)
	RecordSet(level string, key string, size int, latency time.Duration)
	RecordDelete(level string, key string, latency time.Duration)
	RecordError(tier string, operation string, err error)
	// RecordAttempt is emitted once per executor attempt, success or failure.
	// statusOrError is the HTTP status code text or an error class.
	RecordAttempt(endpoint, method, statusOrError string, duration time.Duration)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
