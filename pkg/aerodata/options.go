package aerodata

import (
	"time"

	"github.com/skyward-labs/aerodata/internal/types"
)

type (
	Option         = types.Option
	ManagerOptions = types.ManagerOptions
)

func ApplyOptions(opts ...Option) *CacheOptions {
	return types.ApplyOptions(opts...)
}

func WithTTL(ttl time.Duration) Option {
	return func(o *CacheOptions) {
		o.TTL = ttl
	}
}

func WithLevel(level CacheLevel) Option {
	return func(o *CacheOptions) {
		o.Level = level
	}
}

// WithTags labels the entry for grouped invalidation. Tags never affect
// lookup.
func WithTags(tags ...string) Option {
	return func(o *CacheOptions) {
		o.Tags = append(o.Tags, tags...)
	}
}

func WithMemoryOnly() Option {
	return func(o *CacheOptions) {
		o.Level = LevelMemory
	}
}

// WithLocal writes through to the small durable tier as well.
func WithLocal() Option {
	return func(o *CacheOptions) {
		o.Level = LevelLocal
	}
}

// WithIndexed writes through to every tier, including the tag-indexed one.
func WithIndexed() Option {
	return func(o *CacheOptions) {
		o.Level = LevelIndexed
	}
}

type ManagerOption func(*ManagerOptions)

func WithLogger(logger Logger) ManagerOption {
	return func(o *ManagerOptions) {
		o.Logger = logger
	}
}

func WithMetrics(metrics Recorder) ManagerOption {
	return func(o *ManagerOptions) {
		o.Metrics = metrics
	}
}

func WithSerializer(serializer Serializer) ManagerOption {
	return func(o *ManagerOptions) {
		o.Serializer = serializer
	}
}

func WithRedisAddress(addr string) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisAddress = addr
	}
}

func WithRedisPassword(password string) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisPassword = types.NewSecretString(password)
	}
}

func WithRedisDB(db int) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisDB = db
	}
}

func WithSQLitePath(path string) ManagerOption {
	return func(o *ManagerOptions) {
		o.SQLitePath = path
	}
}

func WithoutIndexed() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisableIndexed = true
	}
}

func WithoutLocal() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisableLocal = true
	}
}
