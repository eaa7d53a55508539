package config

import "time"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			Timeout:        10 * time.Second,
			Retries:        3,
			RetryBaseDelay: 1 * time.Second,
			RetryMaxDelay:  30 * time.Second,
		},
		Memory: MemoryConfig{
			Enabled:  true,
			MaxItems: 2048,
		},
		SQLite: SQLiteConfig{
			Enabled:      true,
			Path:         "aerodata.db",
			MaxSizeBytes: 5 * 1024 * 1024,
			BusyTimeout:  5 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:             false,
			Address:             "localhost:6379",
			Password:            SecretString{},
			DB:                  0,
			KeyPrefix:           "aerodata:",
			DefaultTTL:          15 * time.Minute,
			PoolSize:            100,
			MinIdleConns:        10,
			DialTimeout:         5 * time.Second,
			ReadTimeout:         3 * time.Second,
			WriteTimeout:        3 * time.Second,
			PoolTimeout:         4 * time.Second,
			HealthCheckInterval: 5 * time.Second,
			MaxPendingWrites:    1000,
		},
		Defaults: DefaultsConfig{
			TTL:   5 * time.Minute,
			Level: "memory",
		},
		CleanupInterval: 60 * time.Second,
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "aerodata",
				Tags:      []string{},
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      1024,
			AllowEmpty:        false,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
// Durable tiers are disabled so tests run without external state.
func ForTesting() *Config {
	return &Config{
		Fetch: FetchConfig{
			Timeout:        1 * time.Second,
			Retries:        2,
			RetryBaseDelay: 10 * time.Millisecond,
			RetryMaxDelay:  100 * time.Millisecond,
		},
		Memory: MemoryConfig{
			Enabled:  true,
			MaxItems: 128,
		},
		SQLite: SQLiteConfig{
			Enabled: false,
		},
		Redis: RedisConfig{
			Enabled:             false,
			Address:             "localhost:6379",
			KeyPrefix:           "test:",
			DefaultTTL:          1 * time.Minute,
			PoolSize:            10,
			MinIdleConns:        1,
			DialTimeout:         1 * time.Second,
			ReadTimeout:         1 * time.Second,
			WriteTimeout:        1 * time.Second,
			PoolTimeout:         1 * time.Second,
			HealthCheckInterval: 0,
			MaxPendingWrites:    100,
		},
		Defaults: DefaultsConfig{
			TTL:   1 * time.Minute,
			Level: "memory",
		},
		CleanupInterval: 1 * time.Second,
		Metrics: MetricsConfig{
			Enabled:         false,
			PublishInterval: 1 * time.Second,
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      1024,
			AllowEmpty:        false,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
	}
}

// ForTestingWithSQLite returns a test config with the small durable tier
// enabled at the given path.
func ForTestingWithSQLite(path string) *Config {
	cfg := ForTesting()
	cfg.SQLite.Enabled = true
	cfg.SQLite.Path = path
	cfg.SQLite.MaxSizeBytes = 1024 * 1024
	cfg.SQLite.BusyTimeout = 1 * time.Second
	cfg.Defaults.Level = "local"
	return cfg
}

// ForTestingWithRedis returns a test config with the large durable tier
// enabled at the given address.
func ForTestingWithRedis(addr string) *Config {
	cfg := ForTesting()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = addr
	cfg.Defaults.Level = "indexed"
	return cfg
}
