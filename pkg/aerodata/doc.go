// Package aerodata provides a resilient data-access layer for aviation data
// clients.
//
// It combines a retrying HTTP request executor with a three-tier read-through
// cache so that weather reports, NOTAMs, route archives and similar records
// survive flaky upstreams and process restarts.
//
// # Features
//
//   - Request executor: per-attempt timeouts, exponential backoff, Retry-After
//     handling, and a strict error taxonomy (timeouts are never retried)
//   - In-flight deduplication: concurrent identical requests share one fetch
//   - Three storage tiers: in-process memory, a capacity-bounded SQLite file,
//     and a tag-indexed Redis store for bulky slow-changing records
//   - Read-through promotion: a hit in a slower tier is copied into every
//     faster tier before the read returns
//   - Tag invalidation: entries labeled with tags can be evicted as a group
//     across all tiers
//   - Graceful degradation: a durable tier outage never fails reads that the
//     remaining tiers can serve
//   - Observability: pluggable metrics recorder with a DataDog StatsD publisher
//
// # Quick Start
//
// Create a cache manager with default configuration:
//
//	manager, err := aerodata.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Close()
//
// # Cache Operations
//
// Basic set and get operations:
//
//	ctx := context.Background()
//	metar := Metar{Station: "RKPU", Raw: "RKPU 261300Z 14008KT 9999 FEW030 28/22 Q1009"}
//
//	// Cache a METAR for a minute
//	err := manager.Set(ctx, "weather:metar:RKPU", metar, aerodata.WithTTL(time.Minute))
//
//	// Read it back
//	var cached Metar
//	err = manager.Get(ctx, "weather:metar:RKPU", &cached)
//
// Cache-aside pattern with GetOrCreate:
//
//	var notams []Notam
//	err := manager.GetOrCreate(ctx, "notam:RKPU", &notams, func() (any, error) {
//	    // This function only runs on cache miss; concurrent callers share it.
//	    return fetchNotams("RKPU")
//	})
//
// # Cache Levels
//
// A write's level selects the deepest tier it reaches:
//
//   - LevelMemory: volatile only — short-TTL observations (default)
//   - LevelLocal: plus the SQLite file — survives restarts, a few MB budget
//   - LevelIndexed: plus Redis — bulky archives, tag-indexed
//
//	manager.Set(ctx, "route:RKPU-RKSS:archive", archive,
//	    aerodata.WithIndexed(),
//	    aerodata.WithTags("route-data", "RKPU"),
//	    aerodata.WithTTL(24*time.Hour))
//
// Reads always probe every configured tier, fastest first.
//
// # Tag Invalidation
//
// Entries labeled with tags can be dropped as a group:
//
//	manager.InvalidateByTags(ctx, []string{"route-data"})
//
// # Fetching
//
// The executor retries transient failures and rate limits, never timeouts:
//
//	fetcher := aerodata.NewFetcher(cfg, logger, tracker)
//	resp, err := fetcher.Execute(ctx, "https://avdata.example.com/metar/RKPU",
//	    aerodata.FetchOptions{})
//	if aerodata.IsRateLimited(err) {
//	    // server pushed back; the executor already honored Retry-After
//	}
//
// # Configuration
//
// Load configuration from a JSON file with AERODATA_* environment overrides:
//
//	manager, err := aerodata.NewFromFile("config.json")
//
// Or start from defaults:
//
//	cfg := aerodata.Config()
//	cfg.Redis.Enabled = true
//	cfg.Redis.Address = "localhost:6379"
//	manager, err := aerodata.NewFromConfig(cfg)
//
// For testing, use the test configuration:
//
//	cfg := aerodata.TestConfig()
//
// # Thread Safety
//
// All operations are safe for concurrent use from multiple goroutines.
package aerodata
