package aerodata

import (
	"github.com/skyward-labs/aerodata/internal/types"
)

type (
	// CacheLevel selects the deepest storage tier a write reaches.
	CacheLevel = types.CacheLevel
	// CacheEntry represents a cached value with metadata.
	CacheEntry = types.CacheEntry
	// CacheOptions contains options for cache operations.
	CacheOptions = types.CacheOptions
	// CacheStats contains orchestrator-level hit/miss counters.
	CacheStats = types.CacheStats
	// TierStats contains per-tier operation counters.
	TierStats = types.TierStats
	// Serializer provides serialization and deserialization operations.
	Serializer = types.Serializer
	// Recorder provides operations for recording cache and executor telemetry.
	Recorder = types.Recorder
	// Logger provides logging operations.
	Logger = types.Logger
)

const (
	// LevelMemory writes only to the volatile in-process tier.
	LevelMemory = types.LevelMemory
	// LevelLocal writes to the volatile tier and the small durable tier.
	LevelLocal = types.LevelLocal
	// LevelIndexed writes to all three tiers, including the tag-indexed
	// large durable tier.
	LevelIndexed = types.LevelIndexed
)

// DefaultOptions returns a default CacheOptions configuration.
func DefaultOptions() *CacheOptions {
	return types.DefaultOptions()
}
