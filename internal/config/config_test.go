package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("fetch defaults", func(t *testing.T) {
		if cfg.Fetch.Timeout != 10*time.Second {
			t.Errorf("Fetch.Timeout = %v, want 10s", cfg.Fetch.Timeout)
		}
		if cfg.Fetch.Retries != 3 {
			t.Errorf("Fetch.Retries = %d, want 3", cfg.Fetch.Retries)
		}
		if cfg.Fetch.RetryBaseDelay != time.Second {
			t.Errorf("Fetch.RetryBaseDelay = %v, want 1s", cfg.Fetch.RetryBaseDelay)
		}
		if cfg.Fetch.RetryMaxDelay != 30*time.Second {
			t.Errorf("Fetch.RetryMaxDelay = %v, want 30s", cfg.Fetch.RetryMaxDelay)
		}
	})

	t.Run("memory defaults", func(t *testing.T) {
		if !cfg.Memory.Enabled {
			t.Error("Memory.Enabled = false, want true")
		}
		if cfg.Memory.MaxItems != 2048 {
			t.Errorf("Memory.MaxItems = %d, want 2048", cfg.Memory.MaxItems)
		}
	})

	t.Run("sqlite defaults", func(t *testing.T) {
		if !cfg.SQLite.Enabled {
			t.Error("SQLite.Enabled = false, want true")
		}
		if cfg.SQLite.MaxSizeBytes != 5*1024*1024 {
			t.Errorf("SQLite.MaxSizeBytes = %d, want 5MiB", cfg.SQLite.MaxSizeBytes)
		}
	})

	t.Run("redis defaults", func(t *testing.T) {
		if cfg.Redis.Enabled {
			t.Error("Redis.Enabled = true, want false")
		}
		if cfg.Redis.Address != "localhost:6379" {
			t.Errorf("Redis.Address = %s, want localhost:6379", cfg.Redis.Address)
		}
		if cfg.Redis.KeyPrefix != "aerodata:" {
			t.Errorf("Redis.KeyPrefix = %s, want aerodata:", cfg.Redis.KeyPrefix)
		}
	})

	t.Run("default config validates", func(t *testing.T) {
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate failed: %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.Fetch.Retries = -1 }},
		{"max delay below base", func(c *Config) { c.Fetch.RetryMaxDelay = c.Fetch.RetryBaseDelay / 2 }},
		{"sqlite enabled without path", func(c *Config) { c.SQLite.Enabled = true; c.SQLite.Path = "" }},
		{"sqlite zero capacity", func(c *Config) { c.SQLite.Enabled = true; c.SQLite.MaxSizeBytes = 0 }},
		{"redis enabled without address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" }},
		{"zero cleanup interval", func(c *Config) { c.CleanupInterval = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Fetch.Retries != 3 {
			t.Errorf("Fetch.Retries = %d, want default 3", cfg.Fetch.Retries)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		saved := DefaultConfig()
		saved.Fetch.Retries = 5
		saved.Defaults.Level = "local"
		raw, err := json.Marshal(saved)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Fetch.Retries != 5 {
			t.Errorf("Fetch.Retries = %d, want 5", cfg.Fetch.Retries)
		}
		if cfg.Defaults.Level != "local" {
			t.Errorf("Defaults.Level = %s, want local", cfg.Defaults.Level)
		}
		// Untouched sections keep their defaults.
		if cfg.Memory.MaxItems != 2048 {
			t.Errorf("Memory.MaxItems = %d, want 2048", cfg.Memory.MaxItems)
		}
	})

	t.Run("malformed file fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load accepted malformed JSON")
		}
	})
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("AERODATA_FETCH_RETRIES", "7")
	t.Setenv("AERODATA_REDIS_ADDRESS", "redis.internal:6380")
	t.Setenv("AERODATA_DEFAULTS_TTL", "90s")
	t.Setenv("AERODATA_MEMORY_MAX_ITEMS", "notanumber")

	cfg, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg.Fetch.Retries != 7 {
		t.Errorf("Fetch.Retries = %d, want 7", cfg.Fetch.Retries)
	}
	if cfg.Redis.Address != "redis.internal:6380" {
		t.Errorf("Redis.Address = %s", cfg.Redis.Address)
	}
	if cfg.Defaults.TTL != 90*time.Second {
		t.Errorf("Defaults.TTL = %v, want 90s", cfg.Defaults.TTL)
	}
	// Unparseable values keep the default.
	if cfg.Memory.MaxItems != 2048 {
		t.Errorf("Memory.MaxItems = %d, want default 2048", cfg.Memory.MaxItems)
	}
}

func TestParseDuration(t *testing.T) {
	if got := parseDuration("250", time.Second); got != 250*time.Millisecond {
		t.Errorf("bare integer = %v, want 250ms", got)
	}
	if got := parseDuration("2m", time.Second); got != 2*time.Minute {
		t.Errorf("duration string = %v, want 2m", got)
	}
	if got := parseDuration("junk", time.Second); got != time.Second {
		t.Errorf("invalid input = %v, want fallback 1s", got)
	}
}
