package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/types"
)

// DefaultShutdownTimeout is the default timeout for shutting down the cache manager.
const DefaultShutdownTimeout = 30 * time.Second

// DefaultBackgroundOpTimeout is the default timeout for background operations.
const DefaultBackgroundOpTimeout = 5 * time.Second

// Manager orchestrates the three storage tiers. Reads probe fastest-first
// (memory, then local, then indexed) and promote a deeper hit into every
// faster tier before returning. Writes fan out to the tiers the requested
// level includes; durable-tier write failures degrade to warnings as long
// as the volatile write succeeded.
type Manager struct {
	memory         types.MemoryTier
	local          types.LocalTier
	indexed        types.IndexedTier
	serializer     types.Serializer
	config         *config.Config
	metrics        types.Recorder
	logger         *slog.Logger
	keyValidator   *types.KeyValidator
	stats          types.StatsCounter
	shutdownCancel context.CancelFunc
	shutdownCtx    context.Context
	sfGroup        singleflight.Group
	bgWg           sync.WaitGroup
	bgMu           sync.Mutex
	closed         atomic.Bool
}

// NewManager creates a new cache manager with the given configuration and options.
//
//nolint:gocyclo // Configuration initialization requires multiple conditional checks
func NewManager(cfg *config.Config, opts *types.ManagerOptions) (*Manager, error) {
	logger := slog.Default()
	if opts != nil && opts.Logger != nil {
		logger = slog.New(slogAdapter{logger: opts.Logger})
	}
	logger = logger.With("component", "cache-manager")

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	m := &Manager{
		config:         cfg,
		logger:         logger,
		serializer:     NewJSONSerializer(),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	if opts != nil {
		if opts.Serializer != nil {
			m.serializer = opts.Serializer
		}
		if opts.Metrics != nil {
			m.metrics = opts.Metrics
		}
		if opts.RedisAddress != "" {
			cfg.Redis.Address = opts.RedisAddress
		}
		if !opts.RedisPassword.IsEmpty() {
			cfg.Redis.Password = opts.RedisPassword
		}
		if opts.RedisDB != 0 {
			cfg.Redis.DB = opts.RedisDB
		}
		if opts.SQLitePath != "" {
			cfg.SQLite.Path = opts.SQLitePath
		}
		if opts.DisableIndexed {
			cfg.Redis.Enabled = false
		}
		if opts.DisableLocal {
			cfg.SQLite.Enabled = false
		}
	}

	if cfg.KeyValidation.Enabled {
		m.keyValidator = types.NewKeyValidator(cfg.KeyValidation.ToTypesConfig())
	}

	m.memory = NewMemoryCache(cfg.Memory, logger)

	if cfg.SQLite.Enabled {
		localCache, err := NewSQLiteCache(cfg.SQLite, logger)
		if err != nil {
			logger.Warn("Failed to open local tier, continuing without it", "error", err)
			m.local = NewDisabledLocalCache()
		} else {
			m.local = localCache
		}
	} else {
		m.local = NewDisabledLocalCache()
	}

	if cfg.Redis.Enabled {
		indexedCache, err := NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Failed to create indexed tier, continuing without it", "error", err)
			m.indexed = NewDisabledIndexedCache()
		} else {
			m.indexed = indexedCache
		}
	} else {
		m.indexed = NewDisabledIndexedCache()
	}

	if cfg.CleanupInterval > 0 {
		m.bgWg.Add(1)
		go m.cleanupWorker(cfg.CleanupInterval)
	}

	return m, nil
}

// Get retrieves a value from the cache, probing memory, then local, then
// indexed. A hit in a deeper tier is promoted into every faster tier before
// returning. A full miss (every tier missed) counts once against stats. A
// record that cannot be decoded is purged from every tier and reported as a
// miss.
func (m *Manager) Get(ctx context.Context, key string, dest any, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	options := m.applyDefaults(opts...)

	data, tier, err := m.getRaw(ctx, key, options)
	latency := time.Since(start)

	if err != nil {
		if types.IsCacheMiss(err) {
			m.stats.Miss()
			if m.metrics != nil {
				m.metrics.RecordMiss(tier, key, latency)
			}
		}
		return err
	}

	if err := m.serializer.Unmarshal(data, dest); err != nil {
		// A record we cannot decode is as good as absent. Remove it from
		// every tier so the key recovers on the next write instead of
		// failing each read until the TTL runs out.
		m.logger.Warn("Dropping corrupt cache record", "key", key, "tier", tier, "error", err)
		if m.metrics != nil {
			m.metrics.RecordError(tier, "Get", errors.Join(types.ErrCorruptRecord, err))
		}
		m.removeFromAllTiers(ctx, key)
		m.stats.Miss()
		if m.metrics != nil {
			m.metrics.RecordMiss(tier, key, latency)
		}
		return types.ErrCacheMiss
	}

	m.stats.Hit()
	if m.metrics != nil {
		m.metrics.RecordHit(tier, key, latency)
	}

	return nil
}

// getRaw probes the tiers fastest-first and promotes a deeper hit. The
// returned tier names where the value was found, or the deepest tier probed
// on a miss.
func (m *Manager) getRaw(ctx context.Context, key string, options *types.CacheOptions) ([]byte, string, error) {
	data, err := m.memory.Get(ctx, key)
	if err == nil {
		return data, "memory", nil
	}
	if !types.IsCacheMiss(err) && !errors.Is(err, types.ErrClosed) {
		m.logger.Debug("Memory tier error", "key", key, "error", err)
	}
	tier := "memory"

	if m.local.IsAvailable() {
		tier = "local"
		value, expiresAt, lerr := m.local.GetWithExpiry(ctx, key)
		if lerr == nil {
			m.promote(ctx, key, value, options, expiresAt, types.LevelMemory)
			return value, "local", nil
		}
		if !types.IsCacheMiss(lerr) {
			m.logger.Debug("Local tier error", "key", key, "error", lerr)
		}
	}

	if m.indexed.IsAvailable() {
		tier = "indexed"
		value, expiresAt, ierr := m.indexed.GetWithExpiry(ctx, key)
		if ierr == nil {
			m.promote(ctx, key, value, options, expiresAt, types.LevelLocal)
			return value, "indexed", nil
		}
		if !types.IsCacheMiss(ierr) && !types.IsStoreUnavailable(ierr) {
			m.logger.Debug("Indexed tier error", "key", key, "error", ierr)
		}
	}

	return nil, tier, types.ErrCacheMiss
}

// promote writes a value read from a deeper tier into the faster tiers, up
// to and including upTo. The write carries the source entry's remaining
// lifetime, never a fresh TTL, so promotion cannot extend the original
// expiry. Promotion is synchronous so a subsequent read is guaranteed to hit
// the faster tier.
func (m *Manager) promote(ctx context.Context, key string, data []byte, options *types.CacheOptions, expiresAt time.Time, upTo types.CacheLevel) {
	promoteOpts := *options
	promoteOpts.TTL = 0
	if !expiresAt.IsZero() {
		remaining := time.Until(expiresAt)
		if remaining <= 0 {
			return
		}
		promoteOpts.TTL = remaining
	}
	if err := m.memory.Set(ctx, key, data, &promoteOpts); err != nil {
		m.logger.Debug("Promotion to memory failed", "key", key, "error", err)
	}
	if upTo.IncludesLocal() && m.local.IsAvailable() {
		if err := m.local.Set(ctx, key, data, &promoteOpts); err != nil {
			m.logger.Debug("Promotion to local failed", "key", key, "error", err)
		}
	}
}

// Set stores a value in every tier the requested level includes. The write
// fails only if the volatile tier rejects it; durable tiers are best-effort.
func (m *Manager) Set(ctx context.Context, key string, value any, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	options := m.applyDefaults(opts...)

	data, err := m.serializer.Marshal(value)
	if err != nil {
		return err
	}

	setErr := m.setRaw(ctx, key, data, options)

	if m.metrics != nil {
		m.metrics.RecordSet(options.Level.String(), key, len(data), time.Since(start))
	}

	return setErr
}

func (m *Manager) setRaw(ctx context.Context, key string, data []byte, options *types.CacheOptions) error {
	memErr := m.memory.Set(ctx, key, data, options)

	if options.Level.IncludesLocal() && m.local.IsAvailable() {
		if err := m.local.Set(ctx, key, data, options); err != nil {
			m.logger.Warn("Local tier SET failed", "key", key, "error", err)
			if m.metrics != nil {
				m.metrics.RecordError("local", "Set", err)
			}
		}
	}

	if options.Level.IncludesIndexed() && m.indexed.IsAvailable() {
		if err := m.indexed.Set(ctx, key, data, options); err != nil {
			m.logger.Warn("Indexed tier SET failed", "key", key, "error", err)
			if m.metrics != nil {
				m.metrics.RecordError("indexed", "Set", err)
			}
		}
	}

	return memErr
}

// GetOrCreate retrieves a value or creates it using the factory function.
// It uses singleflight to prevent thundering herd: concurrent requests for
// the same key share a single factory invocation.
func (m *Manager) GetOrCreate(ctx context.Context, key string, dest any, factory func() (any, error), opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	err := m.Get(ctx, key, dest, opts...)
	if err == nil {
		return nil
	}

	if !types.IsCacheMiss(err) {
		return err
	}

	result, err, _ := m.sfGroup.Do(key, func() (any, error) {
		options := m.applyDefaults(opts...)
		if data, _, checkErr := m.getRaw(ctx, key, options); checkErr == nil {
			return data, nil
		}

		value, factoryErr := factory()
		if factoryErr != nil {
			return nil, factoryErr
		}

		data, marshalErr := m.serializer.Marshal(value)
		if marshalErr != nil {
			return nil, marshalErr
		}

		if setErr := m.setRaw(ctx, key, data, options); setErr != nil {
			m.logger.Debug("Failed to cache factory result", "key", key, "error", setErr)
		}

		return data, nil
	})

	if err != nil {
		return err
	}

	data, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("unexpected result type: %T", result)
	}

	return m.serializer.Unmarshal(data, dest)
}

// Delete removes a value from every tier the requested level includes.
func (m *Manager) Delete(ctx context.Context, key string, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	options := m.applyDefaults(opts...)

	var errs []error
	if err := m.memory.Delete(ctx, key); err != nil {
		errs = append(errs, err)
	}
	if options.Level.IncludesLocal() && m.local.IsAvailable() {
		if err := m.local.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if options.Level.IncludesIndexed() && m.indexed.IsAvailable() {
		if err := m.indexed.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	if m.metrics != nil {
		m.metrics.RecordDelete(options.Level.String(), key, time.Since(start))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// removeFromAllTiers best-effort deletes a key from every configured tier,
// regardless of the requested level. Used to purge entries that can no
// longer be served.
func (m *Manager) removeFromAllTiers(ctx context.Context, key string) {
	if err := m.memory.Delete(ctx, key); err != nil {
		m.logger.Debug("Memory delete failed", "key", key, "error", err)
	}
	if m.local.IsAvailable() {
		if err := m.local.Delete(ctx, key); err != nil {
			m.logger.Debug("Local delete failed", "key", key, "error", err)
		}
	}
	if m.indexed.IsAvailable() {
		if err := m.indexed.Delete(ctx, key); err != nil {
			m.logger.Debug("Indexed delete failed", "key", key, "error", err)
		}
	}
}

// DeleteMany attempts to delete all keys and returns a combined error if
// any deletions fail.
func (m *Manager) DeleteMany(ctx context.Context, keys []string, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKeys(keys); err != nil {
		return err
	}

	var errs []error
	for _, key := range keys {
		if err := m.Delete(ctx, key, opts...); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Contains checks whether any configured tier holds a live entry for key.
func (m *Manager) Contains(ctx context.Context, key string, opts ...types.Option) (bool, error) {
	if m.closed.Load() {
		return false, types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return false, err
	}

	exists, err := m.memory.Contains(ctx, key)
	if err != nil {
		m.logger.Debug("Memory contains check failed", "key", key, "error", err)
	} else if exists {
		return true, nil
	}

	if m.local.IsAvailable() {
		exists, err := m.local.Contains(ctx, key)
		if err != nil {
			m.logger.Debug("Local contains check failed", "key", key, "error", err)
		} else if exists {
			return true, nil
		}
	}

	if m.indexed.IsAvailable() {
		return m.indexed.Contains(ctx, key)
	}

	return false, nil
}

// GetMany retrieves multiple raw values. Keys found in a deeper tier are
// promoted the same way single reads are.
func (m *Manager) GetMany(ctx context.Context, keys []string, opts ...types.Option) (map[string][]byte, error) {
	if m.closed.Load() {
		return nil, types.ErrClosed
	}

	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	if err := m.validateKeys(keys); err != nil {
		return nil, err
	}

	options := m.applyDefaults(opts...)
	results := make(map[string][]byte)
	var missingKeys []string

	for _, key := range keys {
		data, err := m.memory.Get(ctx, key)
		if err == nil {
			results[key] = data
			m.stats.Hit()
		} else {
			missingKeys = append(missingKeys, key)
		}
	}

	if len(missingKeys) > 0 && m.local.IsAvailable() {
		still := missingKeys[:0]
		for _, key := range missingKeys {
			data, expiresAt, err := m.local.GetWithExpiry(ctx, key)
			if err == nil {
				results[key] = data
				m.promote(ctx, key, data, options, expiresAt, types.LevelMemory)
				m.stats.Hit()
			} else {
				still = append(still, key)
			}
		}
		missingKeys = still
	}

	if len(missingKeys) > 0 && m.indexed.IsAvailable() {
		indexedResults, err := m.indexed.GetMany(ctx, missingKeys)
		if err == nil {
			for k, entry := range indexedResults {
				results[k] = entry.Value
				m.promote(ctx, k, entry.Value, options, entry.ExpiresAt, types.LevelLocal)
				m.stats.Hit()
			}
			for _, key := range missingKeys {
				if _, ok := indexedResults[key]; !ok {
					m.stats.Miss()
				}
			}
		} else {
			for range missingKeys {
				m.stats.Miss()
			}
		}
	} else {
		for range missingKeys {
			m.stats.Miss()
		}
	}

	return results, nil
}

// SetMany stores multiple values at the requested level.
func (m *Manager) SetMany(ctx context.Context, items map[string]any, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if len(items) == 0 {
		return nil
	}

	if m.keyValidator != nil {
		for key := range items {
			if err := m.keyValidator.Validate(key); err != nil {
				return err
			}
		}
	}

	options := m.applyDefaults(opts...)

	serializedItems := make(map[string][]byte, len(items))
	for key, value := range items {
		data, err := m.serializer.Marshal(value)
		if err != nil {
			return err
		}
		serializedItems[key] = data
	}

	var memoryErrors []string

	for key, data := range serializedItems {
		if err := m.memory.Set(ctx, key, data, options); err != nil {
			memoryErrors = append(memoryErrors, key)
			m.logger.Warn("Memory SetMany failed for key", "key", key, "error", err)
		}
	}

	if options.Level.IncludesLocal() && m.local.IsAvailable() {
		for key, data := range serializedItems {
			if err := m.local.Set(ctx, key, data, options); err != nil {
				m.logger.Warn("Local SetMany failed for key", "key", key, "error", err)
			}
		}
	}

	if options.Level.IncludesIndexed() && m.indexed.IsAvailable() {
		if err := m.indexed.SetMany(ctx, serializedItems, options); err != nil {
			// Log at WARN for visibility, but don't fail since memory may have succeeded
			m.logger.Warn("Indexed SetMany failed", "error", err, "keys_count", len(serializedItems))
		}
	}

	if len(memoryErrors) > 0 {
		return types.NewCacheError("SetMany", "", "memory",
			fmt.Errorf("failed to set %d/%d keys", len(memoryErrors), len(items)))
	}

	return nil
}

// Keys returns the union of live keys under prefix across all tiers.
func (m *Manager) Keys(ctx context.Context, prefix string) ([]string, error) {
	if m.closed.Load() {
		return nil, types.ErrClosed
	}

	seen := make(map[string]struct{})
	var keys []string

	collect := func(ks []string) {
		for _, k := range ks {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	memKeys, err := m.memory.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	collect(memKeys)

	if m.local.IsAvailable() {
		localKeys, err := m.local.Keys(ctx, prefix)
		if err != nil {
			m.logger.Debug("Local keys enumeration failed", "error", err)
		} else {
			collect(localKeys)
		}
	}

	if m.indexed.IsAvailable() {
		indexedKeys, err := m.indexed.Keys(ctx, prefix)
		if err != nil {
			m.logger.Debug("Indexed keys enumeration failed", "error", err)
		} else {
			collect(indexedKeys)
		}
	}

	return keys, nil
}

// InvalidateByTags removes every entry carrying any of the given tags from
// all tiers. Tags never affect lookup, only grouped eviction.
func (m *Manager) InvalidateByTags(ctx context.Context, tags []string) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	if len(tags) == 0 {
		return nil
	}

	var errs []error
	if err := m.memory.InvalidateByTags(ctx, tags); err != nil {
		errs = append(errs, err)
	}
	if m.local.IsAvailable() {
		if err := m.local.InvalidateByTags(ctx, tags); err != nil {
			errs = append(errs, err)
		}
	}
	if m.indexed.IsAvailable() {
		if err := m.indexed.InvalidateByTags(ctx, tags); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Clear removes all entries from every tier and resets hit/miss statistics.
func (m *Manager) Clear(ctx context.Context) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	var errs []error
	if err := m.memory.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if m.local.IsAvailable() {
		if err := m.local.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.indexed.IsAvailable() {
		if err := m.indexed.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	m.stats.Reset()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Cleanup evicts expired entries from every tier immediately, independent
// of the background sweep. Safe to call repeatedly.
func (m *Manager) Cleanup(ctx context.Context) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	var errs []error
	if err := m.memory.Cleanup(ctx); err != nil {
		errs = append(errs, err)
	}
	if m.local.IsAvailable() {
		if err := m.local.Cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.indexed.IsAvailable() {
		if err := m.indexed.Cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// cleanupWorker sweeps all tiers on a fixed interval until shutdown.
func (m *Manager) cleanupWorker(interval time.Duration) {
	defer m.bgWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdownCtx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(m.shutdownCtx, DefaultBackgroundOpTimeout)
			if err := m.Cleanup(ctx); err != nil && !errors.Is(err, types.ErrClosed) {
				m.logger.Debug("Background cleanup failed", "error", err)
			}
			cancel()
		}
	}
}

// Stats returns orchestrator-level hit/miss counters. A full miss counts
// once regardless of how many tiers were probed.
func (m *Manager) Stats() types.CacheStats {
	return m.stats.Snapshot(m.memory.EntryCount())
}

// Health returns comprehensive health metrics for the cache.
func (m *Manager) Health(ctx context.Context) (*types.HealthMetrics, error) {
	memStats := m.memory.Stats()

	metrics := &types.HealthMetrics{
		Timestamp: time.Now(),
		Memory: types.MemoryHealthMetrics{
			Available:     m.memory.IsAvailable(),
			EntryCount:    m.memory.EntryCount(),
			HitCount:      memStats.Hits,
			MissCount:     memStats.Misses,
			EvictionCount: memStats.Evictions,
		},
		Local: types.LocalHealthMetrics{
			Available:    m.local.IsAvailable(),
			EntryCount:   m.local.EntryCount(),
			SizeBytes:    m.local.SizeBytes(),
			MaxSizeBytes: m.local.MaxSizeBytes(),
		},
		Indexed: types.IndexedHealthMetrics{
			Available:     m.indexed.IsAvailable(),
			Connected:     m.indexed.IsAvailable(),
			PendingWrites: m.indexed.PendingWrites(),
			DroppedWrites: m.indexed.DroppedWrites(),
		},
		Stats: m.Stats(),
	}

	durableConfigured := m.config.SQLite.Enabled || m.config.Redis.Enabled
	durableDown := (m.config.SQLite.Enabled && !metrics.Local.Available) ||
		(m.config.Redis.Enabled && !metrics.Indexed.Available)

	switch {
	case !metrics.Memory.Available:
		metrics.Status = types.HealthStatusUnhealthy
	case durableConfigured && durableDown:
		metrics.Status = types.HealthStatusDegraded
	default:
		metrics.Status = types.HealthStatusHealthy
	}

	return metrics, nil
}

// IsHealthy returns true if the cache is functioning normally.
func (m *Manager) IsHealthy(ctx context.Context) bool {
	return m.memory.IsAvailable()
}

// IsIndexedAvailable returns true if the large durable tier is connected.
func (m *Manager) IsIndexedAvailable() bool {
	return m.indexed.IsAvailable()
}

// IsLocalAvailable returns true if the small durable tier is open.
func (m *Manager) IsLocalAvailable() bool {
	return m.local.IsAvailable()
}

// Close releases all resources using the default shutdown timeout.
// It waits for all in-flight background operations to complete before
// closing the underlying tiers.
func (m *Manager) Close() error {
	return m.CloseWithTimeout(DefaultShutdownTimeout)
}

// CloseWithTimeout releases all resources with a configurable timeout.
// If background operations don't complete within the timeout, it returns
// ErrShutdownTimeout but still proceeds to close the tiers.
func (m *Manager) CloseWithTimeout(timeout time.Duration) error {
	m.bgMu.Lock()
	if m.closed.Swap(true) {
		m.bgMu.Unlock()
		return nil
	}
	m.shutdownCancel()
	m.bgMu.Unlock()

	m.logger.Info("Closing cache manager, waiting for background operations", "timeout", timeout)

	done := make(chan struct{})
	go func() {
		m.bgWg.Wait()
		close(done)
	}()

	var timedOut bool
	select {
	case <-done:
		m.logger.Info("Background operations complete, closing tiers")
	case <-time.After(timeout):
		m.logger.Warn("Shutdown timeout exceeded, proceeding with close", "timeout", timeout)
		timedOut = true
	}

	var errs []error

	if timedOut {
		errs = append(errs, types.ErrShutdownTimeout)
	}

	if err := m.memory.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := m.local.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := m.indexed.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (m *Manager) validateKey(key string) error {
	if m.keyValidator == nil {
		return nil
	}
	return m.keyValidator.Validate(key)
}

func (m *Manager) validateKeys(keys []string) error {
	if m.keyValidator == nil {
		return nil
	}
	for _, key := range keys {
		if err := m.keyValidator.Validate(key); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) applyDefaults(opts ...types.Option) *types.CacheOptions {
	options := types.ApplyOptions(opts...)

	if options.TTL == 0 {
		options.TTL = m.config.Defaults.TTL
	}

	if options.Level == 0 {
		options.Level = ParseCacheLevel(m.config.Defaults.Level)
	}

	return options
}

// ParseCacheLevel maps a configuration string to a CacheLevel. Unknown
// values default to the volatile tier only.
func ParseCacheLevel(s string) types.CacheLevel {
	switch s {
	case "memory":
		return types.LevelMemory
	case "local":
		return types.LevelLocal
	case "indexed":
		return types.LevelIndexed
	default:
		return types.LevelMemory
	}
}

//nolint:govet // Simple adapter struct - alignment optimization minimal
type slogAdapter struct {
	attrs  []slog.Attr
	logger types.Logger
	group  string // current group prefix from WithGroup calls
}

// Enabled implements slog.Handler.
func (a slogAdapter) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires passing Record by value
func (a slogAdapter) Handle(ctx context.Context, r slog.Record) error {
	args := make([]any, 0, (len(a.attrs)+r.NumAttrs())*2)

	for _, attr := range a.attrs {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
	}

	r.Attrs(func(attr slog.Attr) bool {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
		return true
	})

	switch r.Level {
	case slog.LevelDebug:
		a.logger.Debug(r.Message, args...)
	case slog.LevelInfo:
		a.logger.Info(r.Message, args...)
	case slog.LevelWarn:
		a.logger.Warn(r.Message, args...)
	case slog.LevelError:
		a.logger.Error(r.Message, args...)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(a.attrs), len(a.attrs)+len(attrs))
	copy(newAttrs, a.attrs)
	newAttrs = append(newAttrs, attrs...)
	return slogAdapter{
		logger: a.logger,
		attrs:  newAttrs,
		group:  a.group,
	}
}

// WithGroup implements slog.Handler.
func (a slogAdapter) WithGroup(name string) slog.Handler {
	newGroup := name
	if a.group != "" {
		newGroup = a.group + "." + name
	}
	return slogAdapter{
		logger: a.logger,
		attrs:  a.attrs,
		group:  newGroup,
	}
}
