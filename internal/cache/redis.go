package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/types"
)

const (
	disconnectErrorThreshold = 5
	tagKeySegment            = "tag:"
)

// RedisCache is the large durable tier: bulky, slow-changing records
// (route archives, chart bundles, historical traces) indexed by tag for
// group invalidation. Writes are asynchronous; the tier absorbs outages by
// degrading to unavailable rather than failing reads at the call site.
type RedisCache struct {
	client *redis.Client
	config config.RedisConfig
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	writeQueue    chan writeOp
	pendingWrites atomic.Int32
	droppedWrites atomic.Int64
	stopCh        chan struct{}
	wg            sync.WaitGroup

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

type writeOp struct {
	key   string
	value []byte
	ttl   time.Duration
	tags  []string
}

func NewRedisCache(cfg config.RedisConfig, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	client := redis.NewClient(opts)

	rc := &RedisCache{
		client:            client,
		config:            cfg,
		logger:            logger.With("component", "indexed-tier"),
		writeQueue:        make(chan writeOp, cfg.MaxPendingWrites),
		stopCh:            make(chan struct{}),
		healthCheckStopCh: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rc.logger.Warn("Redis initial connection failed", "error", err)
		rc.setError(err)
		// Don't return error - allow graceful degradation
	} else {
		rc.connected.Store(true)
		rc.logger.Info("Redis connected", "address", cfg.Address)
	}

	rc.wg.Add(1)
	go rc.asyncWriteWorker()

	if cfg.HealthCheckInterval > 0 {
		rc.healthCheckWg.Add(1)
		go rc.healthCheckWorker()
	}

	return rc, nil
}

func (c *RedisCache) Name() string {
	return "indexed"
}

func (c *RedisCache) IsAvailable() bool {
	return c.connected.Load()
}

func (c *RedisCache) prefixKey(key string) string {
	return c.config.KeyPrefix + key
}

func (c *RedisCache) tagKey(tag string) string {
	return c.config.KeyPrefix + tagKeySegment + tag
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.connected.Load() {
		return nil, types.ErrStoreUnavailable
	}

	prefixedKey := c.prefixKey(key)

	data, err := c.client.Get(ctx, prefixedKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return nil, types.ErrCacheMiss
		}
		c.handleError(err)
		return nil, types.NewCacheError("Get", key, "indexed", err)
	}

	c.hits.Add(1)
	c.clearError()

	return data, nil
}

// GetWithExpiry retrieves a value and the absolute expiry derived from the
// key's remaining Redis TTL. Keys stored without expiration report the zero
// time.
func (c *RedisCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, error) {
	if !c.connected.Load() {
		return nil, time.Time{}, types.ErrStoreUnavailable
	}

	prefixedKey := c.prefixKey(key)

	pipe := c.client.Pipeline()
	getCmd := pipe.Get(ctx, prefixedKey)
	ttlCmd := pipe.PTTL(ctx, prefixedKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.handleError(err)
		return nil, time.Time{}, types.NewCacheError("GetWithExpiry", key, "indexed", err)
	}

	data, err := getCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return nil, time.Time{}, types.ErrCacheMiss
		}
		c.handleError(err)
		return nil, time.Time{}, types.NewCacheError("GetWithExpiry", key, "indexed", err)
	}

	var expiresAt time.Time
	if ttl := ttlCmd.Val(); ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.hits.Add(1)
	c.clearError()

	return data, expiresAt, nil
}

// Set enqueues an asynchronous write. The value and its tag-index entries
// are committed together by the write worker; a full queue counts the write
// as dropped rather than blocking the caller.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	if !c.connected.Load() {
		return types.ErrStoreUnavailable
	}

	if opts == nil {
		opts = types.DefaultOptions()
	}

	ttl := c.config.DefaultTTL
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	op := writeOp{key: c.prefixKey(key), value: value, ttl: ttl, tags: opts.Tags}
	select {
	case c.writeQueue <- op:
		c.pendingWrites.Add(1)
		return nil
	default:
		c.droppedWrites.Add(1)
		c.logger.Warn("write queue full, dropping SET",
			"key", key,
			"dropped_total", c.droppedWrites.Load(),
		)
		return types.ErrCapacityExceeded
	}
}

func (c *RedisCache) asyncWriteWorker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			for {
				select {
				case op := <-c.writeQueue:
					c.executeWrite(op)
				default:
					return
				}
			}
		case op := <-c.writeQueue:
			c.executeWrite(op)
		}
	}
}

func (c *RedisCache) executeWrite(op writeOp) {
	defer c.pendingWrites.Add(-1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, op.key, op.value, op.ttl)
	for _, tag := range op.tags {
		pipe.SAdd(ctx, c.tagKey(tag), op.key)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.handleError(err)
		c.logger.Debug("Async SET failed", "key", op.key, "error", err)
	} else {
		c.sets.Add(1)
		c.clearError()
	}
}

func (c *RedisCache) healthCheckWorker() {
	defer c.healthCheckWg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.healthCheckStopCh:
			return
		case <-ticker.C:
			c.performHealthCheck()
		}
	}
}

func (c *RedisCache) performHealthCheck() {
	wasConnected := c.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
	defer cancel()

	err := c.client.Ping(ctx).Err()
	if err != nil {
		if wasConnected {
			c.logger.Warn("Redis health check failed", "error", err)
			c.setError(err)
		}
		return
	}

	if !wasConnected {
		c.connected.Store(true)
		c.errorCount.Store(0)
		c.logger.Info("Redis connection restored via health check")
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if !c.connected.Load() {
		return types.ErrStoreUnavailable
	}

	prefixedKey := c.prefixKey(key)

	if err := c.client.Del(ctx, prefixedKey).Err(); err != nil {
		c.handleError(err)
		return types.NewCacheError("Delete", key, "indexed", err)
	}

	// Stale tag-set members for this key are pruned by Cleanup.
	c.deletes.Add(1)
	c.clearError()

	return nil
}

func (c *RedisCache) Contains(ctx context.Context, key string) (bool, error) {
	if !c.connected.Load() {
		return false, types.ErrStoreUnavailable
	}

	prefixedKey := c.prefixKey(key)

	exists, err := c.client.Exists(ctx, prefixedKey).Result()
	if err != nil {
		c.handleError(err)
		return false, types.NewCacheError("Contains", key, "indexed", err)
	}

	c.clearError()
	return exists > 0, nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	if !c.connected.Load() {
		return types.ErrStoreUnavailable
	}

	pattern := c.prefixKey("*")
	return c.clearByPatternInternal(ctx, pattern)
}

// Keys returns keys under the given prefix, excluding the tag index.
func (c *RedisCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	if !c.connected.Load() {
		return nil, types.ErrStoreUnavailable
	}

	pattern := c.prefixKey(prefix) + "*"
	tagPrefix := c.config.KeyPrefix + tagKeySegment

	var keys []string
	var cursor uint64
	for {
		batch, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err)
			return nil, types.NewCacheError("Keys", prefix, "indexed", err)
		}
		for _, k := range batch {
			if strings.HasPrefix(k, tagPrefix) {
				continue
			}
			keys = append(keys, strings.TrimPrefix(k, c.config.KeyPrefix))
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	c.clearError()
	return keys, nil
}

// InvalidateByTags deletes every entry indexed under any of the given tags,
// then discards the tag sets themselves.
func (c *RedisCache) InvalidateByTags(ctx context.Context, tags []string) error {
	if !c.connected.Load() {
		return types.ErrStoreUnavailable
	}
	if len(tags) == 0 {
		return nil
	}

	var deleted int64
	for _, tag := range tags {
		tk := c.tagKey(tag)
		members, err := c.client.SMembers(ctx, tk).Result()
		if err != nil {
			c.handleError(err)
			return types.NewCacheError("InvalidateByTags", tag, "indexed", err)
		}

		pipe := c.client.TxPipeline()
		if len(members) > 0 {
			pipe.Del(ctx, members...)
		}
		pipe.Del(ctx, tk)
		if _, err := pipe.Exec(ctx); err != nil {
			c.handleError(err)
			return types.NewCacheError("InvalidateByTags", tag, "indexed", err)
		}
		deleted += int64(len(members))
	}

	if deleted > 0 {
		c.deletes.Add(deleted)
		c.logger.Debug("invalidated entries by tags", "tags", tags, "deleted", deleted)
	}
	c.clearError()
	return nil
}

// Cleanup prunes tag-set members whose entries have expired or been
// deleted, and drops tag sets that end up empty. Entry expiry itself is
// handled by the server's TTLs.
func (c *RedisCache) Cleanup(ctx context.Context) error {
	if !c.connected.Load() {
		return types.ErrStoreUnavailable
	}

	pattern := c.config.KeyPrefix + tagKeySegment + "*"
	var cursor uint64
	for {
		tagKeys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err)
			return types.NewCacheError("Cleanup", "", "indexed", err)
		}

		for _, tk := range tagKeys {
			members, err := c.client.SMembers(ctx, tk).Result()
			if err != nil {
				c.handleError(err)
				return types.NewCacheError("Cleanup", tk, "indexed", err)
			}

			var stale []any
			for _, m := range members {
				exists, err := c.client.Exists(ctx, m).Result()
				if err != nil {
					c.handleError(err)
					return types.NewCacheError("Cleanup", tk, "indexed", err)
				}
				if exists == 0 {
					stale = append(stale, m)
				}
			}

			if len(stale) > 0 {
				if err := c.client.SRem(ctx, tk, stale...).Err(); err != nil {
					c.handleError(err)
					return types.NewCacheError("Cleanup", tk, "indexed", err)
				}
			}
			if len(stale) == len(members) && len(members) > 0 {
				c.client.Del(ctx, tk)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	c.clearError()
	return nil
}

// GetMany fetches the keys in one MGET, then resolves expiries for the
// found keys with a pipelined PTTL pass so callers can carry the remaining
// lifetimes forward.
func (c *RedisCache) GetMany(ctx context.Context, keys []string) (map[string]types.CacheEntry, error) {
	if !c.connected.Load() {
		return nil, types.ErrStoreUnavailable
	}

	if len(keys) == 0 {
		return make(map[string]types.CacheEntry), nil
	}

	prefixedKeys := make([]string, len(keys))
	for i, key := range keys {
		prefixedKeys[i] = c.prefixKey(key)
	}

	results, err := c.client.MGet(ctx, prefixedKeys...).Result()
	if err != nil {
		c.handleError(err)
		return nil, types.NewCacheError("GetMany", "", "indexed", err)
	}

	resultMap := make(map[string]types.CacheEntry, len(keys))
	var found []string
	for i, result := range results {
		if result != nil {
			if str, ok := result.(string); ok {
				resultMap[keys[i]] = types.CacheEntry{Key: keys[i], Value: []byte(str)}
				found = append(found, keys[i])
				c.hits.Add(1)
			}
		} else {
			c.misses.Add(1)
		}
	}

	if len(found) > 0 {
		pipe := c.client.Pipeline()
		ttlCmds := make(map[string]*redis.DurationCmd, len(found))
		for _, key := range found {
			ttlCmds[key] = pipe.PTTL(ctx, c.prefixKey(key))
		}
		if _, err := pipe.Exec(ctx); err == nil {
			now := time.Now()
			for key, cmd := range ttlCmds {
				if ttl := cmd.Val(); ttl > 0 {
					entry := resultMap[key]
					entry.ExpiresAt = now.Add(ttl)
					resultMap[key] = entry
				}
			}
		}
	}

	c.clearError()
	return resultMap, nil
}

func (c *RedisCache) SetMany(ctx context.Context, items map[string][]byte, opts *types.CacheOptions) error {
	if !c.connected.Load() {
		return types.ErrStoreUnavailable
	}

	if len(items) == 0 {
		return nil
	}

	if opts == nil {
		opts = types.DefaultOptions()
	}

	ttl := c.config.DefaultTTL
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	pipe := c.client.TxPipeline()

	for key, value := range items {
		prefixedKey := c.prefixKey(key)
		pipe.Set(ctx, prefixedKey, value, ttl)
		for _, tag := range opts.Tags {
			pipe.SAdd(ctx, c.tagKey(tag), prefixedKey)
		}
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		c.handleError(err)
		return types.NewCacheError("SetMany", "", "indexed", err)
	}

	c.sets.Add(int64(len(items)))
	c.clearError()

	return nil
}

func (c *RedisCache) clearByPatternInternal(ctx context.Context, pattern string) error {
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err)
			return types.NewCacheError("Clear", pattern, "indexed", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err)
				return types.NewCacheError("Clear", pattern, "indexed", err)
			}
			deleted += int64(len(keys))
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Cleared keys by pattern", "pattern", pattern, "deleted", deleted)
	c.clearError()
	return nil
}

func (c *RedisCache) Close() error {
	c.connected.Store(false)

	close(c.healthCheckStopCh)
	c.healthCheckWg.Wait()

	close(c.stopCh)
	c.wg.Wait()

	return c.client.Close()
}

func (c *RedisCache) PendingWrites() int {
	return int(c.pendingWrites.Load())
}

func (c *RedisCache) DroppedWrites() int64 {
	return c.droppedWrites.Load()
}

func (c *RedisCache) Stats() types.TierStats {
	return types.TierStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
	}
}

func (c *RedisCache) handleError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = err
	c.lastErrorTime = time.Now()
	count := c.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if c.connected.CompareAndSwap(true, false) {
			c.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (c *RedisCache) clearError() {
	if c.errorCount.Swap(0) > 0 {
		if c.connected.CompareAndSwap(false, true) {
			c.logger.Info("Redis connection restored")
		}
	}
}

func (c *RedisCache) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = err
	c.lastErrorTime = time.Now()
	c.connected.Store(false)
}

func (c *RedisCache) LastError() (error, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError, c.lastErrorTime
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var _ types.IndexedTier = (*RedisCache)(nil)
