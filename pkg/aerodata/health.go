package aerodata

import (
	"github.com/skyward-labs/aerodata/internal/types"
)

// Re-export health types from internal/types.
type (
	// HealthStatus represents the overall health state.
	HealthStatus = types.HealthStatus

	// HealthMetrics contains overall cache health information.
	HealthMetrics = types.HealthMetrics

	// MemoryHealthMetrics contains volatile tier health details.
	MemoryHealthMetrics = types.MemoryHealthMetrics

	// LocalHealthMetrics contains small durable tier health details.
	LocalHealthMetrics = types.LocalHealthMetrics

	// IndexedHealthMetrics contains large durable tier health details.
	IndexedHealthMetrics = types.IndexedHealthMetrics

	// MetricsSnapshot contains a point-in-time view of cache metrics.
	MetricsSnapshot = types.MetricsSnapshot
)

// Re-export health status constants.
const (
	HealthStatusHealthy   = types.HealthStatusHealthy
	HealthStatusDegraded  = types.HealthStatusDegraded
	HealthStatusUnhealthy = types.HealthStatusUnhealthy
)
