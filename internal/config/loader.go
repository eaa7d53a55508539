package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load loads configuration from a JSON file.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AERODATA_FETCH_TIMEOUT"); v != "" {
		cfg.Fetch.Timeout = parseDuration(v, cfg.Fetch.Timeout)
	}
	if v := os.Getenv("AERODATA_FETCH_RETRIES"); v != "" {
		cfg.Fetch.Retries = parseInt(v, cfg.Fetch.Retries)
	}
	if v := os.Getenv("AERODATA_FETCH_RETRY_BASE_DELAY"); v != "" {
		cfg.Fetch.RetryBaseDelay = parseDuration(v, cfg.Fetch.RetryBaseDelay)
	}
	if v := os.Getenv("AERODATA_FETCH_RETRY_MAX_DELAY"); v != "" {
		cfg.Fetch.RetryMaxDelay = parseDuration(v, cfg.Fetch.RetryMaxDelay)
	}

	if v := os.Getenv("AERODATA_MEMORY_ENABLED"); v != "" {
		cfg.Memory.Enabled = parseBool(v)
	}
	if v := os.Getenv("AERODATA_MEMORY_MAX_ITEMS"); v != "" {
		cfg.Memory.MaxItems = parseInt(v, cfg.Memory.MaxItems)
	}

	if v := os.Getenv("AERODATA_SQLITE_ENABLED"); v != "" {
		cfg.SQLite.Enabled = parseBool(v)
	}
	if v := os.Getenv("AERODATA_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("AERODATA_SQLITE_MAX_SIZE_BYTES"); v != "" {
		cfg.SQLite.MaxSizeBytes = int64(parseInt(v, int(cfg.SQLite.MaxSizeBytes)))
	}

	if v := os.Getenv("AERODATA_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("AERODATA_REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("AERODATA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("AERODATA_REDIS_DB"); v != "" {
		cfg.Redis.DB = parseInt(v, cfg.Redis.DB)
	}
	if v := os.Getenv("AERODATA_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
	if v := os.Getenv("AERODATA_REDIS_POOL_SIZE"); v != "" {
		cfg.Redis.PoolSize = parseInt(v, cfg.Redis.PoolSize)
	}

	if v := os.Getenv("AERODATA_DEFAULTS_TTL"); v != "" {
		cfg.Defaults.TTL = parseDuration(v, cfg.Defaults.TTL)
	}
	if v := os.Getenv("AERODATA_DEFAULTS_LEVEL"); v != "" {
		cfg.Defaults.Level = v
	}
	if v := os.Getenv("AERODATA_CLEANUP_INTERVAL"); v != "" {
		cfg.CleanupInterval = parseDuration(v, cfg.CleanupInterval)
	}

	if v := os.Getenv("AERODATA_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must not be negative")
	}
	if c.Fetch.RetryBaseDelay <= 0 {
		return fmt.Errorf("fetch.retryBaseDelay must be positive")
	}
	if c.Fetch.RetryMaxDelay < c.Fetch.RetryBaseDelay {
		return fmt.Errorf("fetch.retryMaxDelay must be >= fetch.retryBaseDelay")
	}

	if c.Memory.Enabled && c.Memory.MaxItems < 0 {
		return fmt.Errorf("memory.maxItems must not be negative")
	}

	if c.SQLite.Enabled {
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required when sqlite is enabled")
		}
		if c.SQLite.MaxSizeBytes <= 0 {
			return fmt.Errorf("sqlite.maxSizeBytes must be positive")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required when redis is enabled")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.poolSize must be positive")
		}
	}

	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanupInterval must be positive")
	}

	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	// Bare integers are read as milliseconds, matching the timeoutMs-style
	// settings this layer is configured with elsewhere.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultVal
}
