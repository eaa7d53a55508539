// Package config provides configuration management for aerodata.
package config

import (
	"time"

	"github.com/skyward-labs/aerodata/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for the aerodata cache manager and
// request executor.
type Config struct {
	Fetch         FetchConfig         `json:"fetch"`
	Memory        MemoryConfig        `json:"memory"`
	SQLite        SQLiteConfig        `json:"sqlite"`
	Redis         RedisConfig         `json:"redis"`
	Defaults      DefaultsConfig      `json:"defaults"`
	Metrics       MetricsConfig       `json:"metrics"`
	KeyValidation KeyValidationConfig `json:"keyValidation"`

	// CleanupInterval is the period of the background sweep that evicts
	// expired entries across all tiers, independent of read/write traffic.
	CleanupInterval time.Duration `json:"cleanupInterval"`
}

// FetchConfig contains configuration for the request executor.
type FetchConfig struct {
	// Timeout is the hard per-attempt network timeout.
	Timeout time.Duration `json:"timeout"`
	// Retries is the maximum number of retry attempts after the first.
	Retries int `json:"retries"`
	// RetryBaseDelay is the base exponential backoff delay.
	RetryBaseDelay time.Duration `json:"retryBaseDelay"`
	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `json:"retryMaxDelay"`
}

// MemoryConfig contains configuration for the volatile tier.
type MemoryConfig struct {
	// MaxItems is the eviction threshold; Cleanup trims the oldest entries
	// (by insertion order) beyond it. Zero means unbounded.
	MaxItems int  `json:"maxItems"`
	Enabled  bool `json:"enabled"`
}

// SQLiteConfig contains configuration for the small durable tier.
type SQLiteConfig struct {
	// Path is the database file. Empty with Enabled=true means an on-disk
	// default is required at construction.
	Path string `json:"path"`
	// MaxSizeBytes caps the total stored value bytes. A write over the cap
	// triggers one cleanup-and-retry, then is silently dropped.
	MaxSizeBytes int64         `json:"maxSizeBytes"`
	BusyTimeout  time.Duration `json:"busyTimeout"`
	Enabled      bool          `json:"enabled"`
}

// RedisConfig contains configuration for the large durable tier.
type RedisConfig struct {
	DefaultTTL          time.Duration `json:"defaultTTL"`
	DialTimeout         time.Duration `json:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval"`
	Password            SecretString  `json:"password"`
	Address             string        `json:"address"`
	KeyPrefix           string        `json:"keyPrefix"`
	DB                  int           `json:"db"`
	PoolSize            int           `json:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns"`
	// MaxPendingWrites bounds the async write queue; writes beyond it are
	// dropped and counted.
	MaxPendingWrites int  `json:"maxPendingWrites"`
	EnableTLS        bool `json:"enableTLS"`
	TLSSkipVerify    bool `json:"tlsSkipVerify"`
	Enabled          bool `json:"enabled"`
}

// DefaultsConfig contains default values for cache operations.
type DefaultsConfig struct {
	TTL   time.Duration `json:"ttl"`
	Level string        `json:"level"`
}

// MetricsConfig contains configuration for metrics publishing.
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog"`
	Enabled         bool          `json:"enabled"`
}

// DataDogConfig contains configuration for DataDog StatsD publishing.
type DataDogConfig struct {
	Tags      []string `json:"tags"`
	AgentHost string   `json:"agentHost"`
	Prefix    string   `json:"prefix"`
	Port      int      `json:"port"`
	Enabled   bool     `json:"enabled"`
}

// KeyValidationConfig contains configuration for cache key validation.
type KeyValidationConfig struct {
	ReservedPatterns  []string `json:"reservedPatterns"`
	MaxKeyLength      int      `json:"maxKeyLength"`
	Enabled           bool     `json:"enabled"`
	AllowEmpty        bool     `json:"allowEmpty"`
	AllowControlChars bool     `json:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		AllowEmpty:        c.AllowEmpty,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPatterns:  c.ReservedPatterns,
	}
}
