package types

import "time"

// HealthStatus represents the overall health state.
type HealthStatus int

const (
	// HealthStatusHealthy indicates all tiers operating normally.
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded indicates partial functionality (e.g. a durable
	// tier is down; reads still work against the remaining tiers).
	HealthStatusDegraded
	// HealthStatusUnhealthy indicates the volatile tier itself failed.
	HealthStatusUnhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthMetrics contains a point-in-time view of cache health.
type HealthMetrics struct {
	Timestamp time.Time
	Memory    MemoryHealthMetrics
	Local     LocalHealthMetrics
	Indexed   IndexedHealthMetrics
	Stats     CacheStats
	Status    HealthStatus
}

// MemoryHealthMetrics covers the volatile tier.
type MemoryHealthMetrics struct {
	Available     bool
	EntryCount    int
	HitCount      int64
	MissCount     int64
	EvictionCount int64
}

// LocalHealthMetrics covers the small durable tier.
type LocalHealthMetrics struct {
	Available    bool
	EntryCount   int
	SizeBytes    int64
	MaxSizeBytes int64
}

// IndexedHealthMetrics covers the large durable tier.
type IndexedHealthMetrics struct {
	Available     bool
	Connected     bool
	PendingWrites int
	DroppedWrites int64
}

// MetricsSnapshot is the tracker's aggregated view, published on an interval.
type MetricsSnapshot struct {
	Timestamp time.Time

	// Hit/miss counters per tier.
	MemoryHits    int64
	MemoryMisses  int64
	LocalHits     int64
	LocalMisses   int64
	IndexedHits   int64
	IndexedMisses int64

	// Operation counters.
	GetCount    int64
	SetCount    int64
	DeleteCount int64
	ErrorCount  int64

	// Request executor counters.
	AttemptCount int64

	// Latency metrics (milliseconds).
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64

	// Tier gauges.
	MemoryEntries    int64
	MemoryEvictions  int64
	LocalSizeBytes   int64
	LocalMaxBytes    int64
	IndexedPending   int
	IndexedDropped   int64
	IndexedConnected bool
}

// TotalHitRatio calculates the overall cache hit ratio across tiers.
func (s *MetricsSnapshot) TotalHitRatio() float64 {
	hits := s.MemoryHits + s.LocalHits + s.IndexedHits
	misses := s.MemoryMisses + s.LocalMisses + s.IndexedMisses
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
