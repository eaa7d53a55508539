package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER
);
CREATE TABLE IF NOT EXISTS entry_tags (
	tag TEXT NOT NULL,
	key TEXT NOT NULL,
	PRIMARY KEY (tag, key)
);
CREATE INDEX IF NOT EXISTS idx_entries_expires ON entries(expires_at);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
CREATE INDEX IF NOT EXISTS idx_entry_tags_key ON entry_tags(key);
`

// SQLiteCache is the small durable tier: a capacity-bounded file-backed
// store that survives process restarts. It is an optimization, not a source
// of truth, so a write that cannot fit is dropped silently after one
// cleanup-and-retry.
type SQLiteCache struct {
	db     *sql.DB
	config config.SQLiteConfig
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
	dropped   atomic.Int64

	closed atomic.Bool
}

// NewSQLiteCache opens (or creates) the database file and prepares the
// schema.
func NewSQLiteCache(cfg config.SQLiteConfig, logger *slog.Logger) (*SQLiteCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// A single connection sidesteps SQLITE_BUSY between the write paths.
	db.SetMaxOpenConns(1)

	busyMs := cfg.BusyTimeout.Milliseconds()
	if busyMs <= 0 {
		busyMs = 5000
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyMs),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteCache{
		db:     db,
		config: cfg,
		logger: logger.With("component", "sqlite-tier"),
	}, nil
}

// Name returns the tier name.
func (c *SQLiteCache) Name() string {
	return "local"
}

// IsAvailable returns true if the tier is not closed.
func (c *SQLiteCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get retrieves a value. Expired entries are deleted and reported as a
// miss; unreadable rows degrade to a miss as well.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, _, err := c.GetWithExpiry(ctx, key)
	return value, err
}

// GetWithExpiry retrieves a value together with its absolute expiry. The
// expiry is the zero time for entries that never expire.
func (c *SQLiteCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, error) {
	if c.closed.Load() {
		return nil, time.Time{}, types.ErrClosed
	}

	var value []byte
	var expiresAt sql.NullInt64
	row := c.db.QueryRowContext(ctx, `SELECT value, expires_at FROM entries WHERE key = ?`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.misses.Add(1)
			return nil, time.Time{}, types.ErrCacheMiss
		}
		// A row we cannot read is as good as absent. Remove it so the
		// corruption does not persist.
		c.logger.Warn("dropping unreadable cache record", "key", key, "error", err)
		c.removeRow(ctx, key)
		c.misses.Add(1)
		return nil, time.Time{}, types.ErrCacheMiss
	}

	var expiry time.Time
	if expiresAt.Valid {
		if time.Now().UnixMilli() > expiresAt.Int64 {
			c.removeRow(ctx, key)
			c.evictions.Add(1)
			c.misses.Add(1)
			return nil, time.Time{}, types.ErrCacheMiss
		}
		expiry = time.UnixMilli(expiresAt.Int64)
	}

	c.hits.Add(1)
	return value, expiry, nil
}

// Set stores a value unless it would exceed the capacity budget, in which
// case it runs one cleanup pass and retries exactly once, then gives up
// silently.
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if opts == nil {
		opts = types.DefaultOptions()
	}

	if !c.fits(ctx, key, value) {
		if err := c.Cleanup(ctx); err != nil {
			c.logger.Debug("cleanup before retry failed", "error", err)
		}
		if !c.fits(ctx, key, value) {
			c.dropped.Add(1)
			c.logger.Debug("write dropped, capacity exceeded", "key", key, "size", len(value))
			return nil
		}
	}

	now := time.Now()
	var expiresAt sql.NullInt64
	if opts.TTL > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(opts.TTL).UnixMilli(), Valid: true}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return types.NewCacheError("Set", key, "local", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		key, value, now.UnixMilli(), expiresAt,
	); err != nil {
		return types.NewCacheError("Set", key, "local", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE key = ?`, key); err != nil {
		return types.NewCacheError("Set", key, "local", err)
	}
	for _, tag := range opts.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entry_tags (tag, key) VALUES (?, ?)`, tag, key,
		); err != nil {
			return types.NewCacheError("Set", key, "local", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.NewCacheError("Set", key, "local", err)
	}

	c.sets.Add(1)
	return nil
}

// fits reports whether writing value at key would stay within the capacity
// budget, accounting for the bytes the key currently occupies.
func (c *SQLiteCache) fits(ctx context.Context, key string, value []byte) bool {
	if int64(len(value)) > c.config.MaxSizeBytes {
		return false
	}

	var total, current int64
	_ = c.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(value)), 0) FROM entries`).Scan(&total)
	_ = c.db.QueryRowContext(ctx,
		`SELECT COALESCE(LENGTH(value), 0) FROM entries WHERE key = ?`, key).Scan(&current)

	return total-current+int64(len(value)) <= c.config.MaxSizeBytes
}

// Delete removes a key and its tag rows.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if err := c.removeRow(ctx, key); err != nil {
		return types.NewCacheError("Delete", key, "local", err)
	}
	c.deletes.Add(1)
	return nil
}

func (c *SQLiteCache) removeRow(ctx context.Context, key string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE key = ?`, key); err != nil {
		return err
	}
	return tx.Commit()
}

// Contains reports whether a live entry exists for key.
func (c *SQLiteCache) Contains(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	var expiresAt sql.NullInt64
	row := c.db.QueryRowContext(ctx, `SELECT expires_at FROM entries WHERE key = ?`, key)
	if err := row.Scan(&expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, types.NewCacheError("Contains", key, "local", err)
	}

	if expiresAt.Valid && time.Now().UnixMilli() > expiresAt.Int64 {
		c.removeRow(ctx, key)
		c.evictions.Add(1)
		return false, nil
	}
	return true, nil
}

// Clear removes all entries and tag rows.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return types.NewCacheError("Clear", "", "local", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return types.NewCacheError("Clear", "", "local", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags`); err != nil {
		return types.NewCacheError("Clear", "", "local", err)
	}
	if err := tx.Commit(); err != nil {
		return types.NewCacheError("Clear", "", "local", err)
	}
	return nil
}

// Keys returns live keys with the given prefix, or all keys when prefix is
// empty.
func (c *SQLiteCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	now := time.Now().UnixMilli()
	rows, err := c.db.QueryContext(ctx,
		`SELECT key FROM entries
		 WHERE (expires_at IS NULL OR expires_at > ?)
		 ORDER BY key`, now)
	if err != nil {
		return nil, types.NewCacheError("Keys", prefix, "local", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, types.NewCacheError("Keys", prefix, "local", err)
		}
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

// InvalidateByTags removes every entry carrying at least one of the given
// tags, using the tag index maintained transactionally with each write.
func (c *SQLiteCache) InvalidateByTags(ctx context.Context, tags []string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if len(tags) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(tags))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(tags))
	for i, t := range tags {
		args[i] = t
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return types.NewCacheError("InvalidateByTags", "", "local", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE key IN
		 (SELECT DISTINCT key FROM entry_tags WHERE tag IN (`+placeholders+`))`, args...)
	if err != nil {
		return types.NewCacheError("InvalidateByTags", "", "local", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entry_tags WHERE key NOT IN (SELECT key FROM entries)`); err != nil {
		return types.NewCacheError("InvalidateByTags", "", "local", err)
	}
	if err := tx.Commit(); err != nil {
		return types.NewCacheError("InvalidateByTags", "", "local", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.deletes.Add(n)
		c.logger.Debug("invalidated entries by tags", "tags", tags, "removed", n)
	}
	return nil
}

// Cleanup deletes expired entries, then trims oldest entries until the
// capacity budget is respected.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	now := time.Now().UnixMilli()
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM entries WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return types.NewCacheError("Cleanup", "", "local", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.evictions.Add(n)
	}

	// Trim oldest-first while over budget. Small batches keep each
	// statement cheap; the loop is bounded by the entry count.
	for {
		var total int64
		if err := c.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(value)), 0) FROM entries`).Scan(&total); err != nil {
			return types.NewCacheError("Cleanup", "", "local", err)
		}
		if total <= c.config.MaxSizeBytes {
			break
		}
		res, err := c.db.ExecContext(ctx,
			`DELETE FROM entries WHERE key IN
			 (SELECT key FROM entries ORDER BY created_at ASC LIMIT 16)`)
		if err != nil {
			return types.NewCacheError("Cleanup", "", "local", err)
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			break
		}
		c.evictions.Add(n)
	}

	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM entry_tags WHERE key NOT IN (SELECT key FROM entries)`); err != nil {
		return types.NewCacheError("Cleanup", "", "local", err)
	}
	return nil
}

// Close closes the database handle.
func (c *SQLiteCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.db.Close()
}

// Stats returns tier operation counters.
func (c *SQLiteCache) Stats() types.TierStats {
	return types.TierStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
	}
}

// EntryCount returns the number of stored rows.
func (c *SQLiteCache) EntryCount() int {
	var n int
	_ = c.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n
}

// SizeBytes returns the bytes of stored values.
func (c *SQLiteCache) SizeBytes() int64 {
	var total int64
	_ = c.db.QueryRow(`SELECT COALESCE(SUM(LENGTH(value)), 0) FROM entries`).Scan(&total)
	return total
}

// MaxSizeBytes returns the capacity budget.
func (c *SQLiteCache) MaxSizeBytes() int64 {
	return c.config.MaxSizeBytes
}

// DroppedWrites returns how many writes were abandoned for capacity.
func (c *SQLiteCache) DroppedWrites() int64 {
	return c.dropped.Load()
}

var _ types.LocalTier = (*SQLiteCache)(nil)
