package aerodata

import (
	"context"
	"time"
)

// CacheManager is the tiered cache orchestrator surface.
type CacheManager interface {
	Get(ctx context.Context, key string, dest any, opts ...Option) error
	Set(ctx context.Context, key string, value any, opts ...Option) error
	GetOrCreate(ctx context.Context, key string, dest any, factory func() (any, error), opts ...Option) error
	Delete(ctx context.Context, key string, opts ...Option) error
	DeleteMany(ctx context.Context, keys []string, opts ...Option) error
	Contains(ctx context.Context, key string, opts ...Option) (bool, error)
	GetMany(ctx context.Context, keys []string, opts ...Option) (map[string][]byte, error)
	SetMany(ctx context.Context, items map[string]any, opts ...Option) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	InvalidateByTags(ctx context.Context, tags []string) error
	Clear(ctx context.Context) error
	Cleanup(ctx context.Context) error
	Stats() CacheStats
	Health(ctx context.Context) (*HealthMetrics, error)
	IsHealthy(ctx context.Context) bool
	IsLocalAvailable() bool
	IsIndexedAvailable() bool
	Close() error
	CloseWithTimeout(timeout time.Duration) error
}

// Publisher ships metrics to an external sink.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text string, alertType string, tags ...string)
	PublishHealthMetrics(metrics *PublisherHealthMetrics)
	Close() error
}

// PublisherHealthMetrics is the batch a Publisher ships on each interval.
type PublisherHealthMetrics struct {
	MemoryEntries        int64
	LocalSizeBytes       int64
	LocalMaxBytes        int64
	HitRatio             float64
	AverageLatencyMs     float64
	AttemptCount         int64
	IndexedPendingWrites int
	IndexedDroppedWrites int64
	IndexedConnected     bool
}
