package types

import (
	"testing"
	"time"
)

func TestCacheEntryIsExpired(t *testing.T) {
	now := time.Now()

	t.Run("entry without expiry never expires", func(t *testing.T) {
		e := &CacheEntry{Key: "weather:metar:RKPU", CreatedAt: now}
		if e.IsExpired(now.Add(1000 * time.Hour)) {
			t.Error("Expected zero ExpiresAt to never expire")
		}
	})

	t.Run("entry before expiry is live", func(t *testing.T) {
		e := &CacheEntry{Key: "k", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
		if e.IsExpired(now.Add(59 * time.Second)) {
			t.Error("Expected entry to be live before ExpiresAt")
		}
	})

	t.Run("entry after expiry is expired", func(t *testing.T) {
		e := &CacheEntry{Key: "k", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
		if !e.IsExpired(now.Add(61 * time.Second)) {
			t.Error("Expected entry to be expired after ExpiresAt")
		}
	})
}

func TestCacheEntryHasAnyTag(t *testing.T) {
	e := &CacheEntry{Key: "route:RKPU-RKSS", Tags: []string{"route-data", "RKPU"}}

	t.Run("matches one of several tags", func(t *testing.T) {
		if !e.HasAnyTag([]string{"weather", "RKPU"}) {
			t.Error("Expected tag match on RKPU")
		}
	})

	t.Run("no match on disjoint tags", func(t *testing.T) {
		if e.HasAnyTag([]string{"weather", "notam"}) {
			t.Error("Expected no tag match")
		}
	})

	t.Run("empty query matches nothing", func(t *testing.T) {
		if e.HasAnyTag(nil) {
			t.Error("Expected no match for empty tag list")
		}
	})
}

func TestCacheStatsHitRate(t *testing.T) {
	t.Run("zero requests yields zero rate", func(t *testing.T) {
		s := CacheStats{}
		if got := s.HitRate(); got != 0 {
			t.Errorf("Expected 0, got %v", got)
		}
	})

	t.Run("computes hits over total", func(t *testing.T) {
		s := CacheStats{Hits: 3, Misses: 1}
		if got := s.HitRate(); got != 0.75 {
			t.Errorf("Expected 0.75, got %v", got)
		}
	})
}

func TestStatsCounter(t *testing.T) {
	var c StatsCounter

	c.Hit()
	c.Hit()
	c.Miss()

	snap := c.Snapshot(7)
	if snap.Hits != 2 || snap.Misses != 1 || snap.Size != 7 {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}

	c.Reset()
	snap = c.Snapshot(0)
	if snap.Hits != 0 || snap.Misses != 0 {
		t.Errorf("Expected zeroed counters after reset, got %+v", snap)
	}
}

func TestCacheLevel(t *testing.T) {
	cases := []struct {
		level   CacheLevel
		name    string
		local   bool
		indexed bool
	}{
		{LevelMemory, "memory", false, false},
		{LevelLocal, "local", true, false},
		{LevelIndexed, "indexed", true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.level.String(); got != tc.name {
				t.Errorf("String() = %q, want %q", got, tc.name)
			}
			if got := tc.level.IncludesLocal(); got != tc.local {
				t.Errorf("IncludesLocal() = %v, want %v", got, tc.local)
			}
			if got := tc.level.IncludesIndexed(); got != tc.indexed {
				t.Errorf("IncludesIndexed() = %v, want %v", got, tc.indexed)
			}
		})
	}

	t.Run("unknown level", func(t *testing.T) {
		if got := CacheLevel(0).String(); got != "unknown" {
			t.Errorf("String() = %q, want unknown", got)
		}
	})
}

func TestSecretString(t *testing.T) {
	t.Run("String redacts the value", func(t *testing.T) {
		s := NewSecretString("hunter2")
		if s.String() == "hunter2" {
			t.Error("Expected String() to redact the secret")
		}
		if s.Value() != "hunter2" {
			t.Error("Expected Value() to return the secret")
		}
	})

	t.Run("MarshalJSON redacts the value", func(t *testing.T) {
		s := NewSecretString("hunter2")
		data, err := s.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON failed: %v", err)
		}
		if string(data) == `"hunter2"` {
			t.Error("Expected marshaled form to redact the secret")
		}
	})

	t.Run("IsEmpty", func(t *testing.T) {
		if !(SecretString{}).IsEmpty() {
			t.Error("Expected zero SecretString to be empty")
		}
		if NewSecretString("x").IsEmpty() {
			t.Error("Expected non-empty SecretString")
		}
	})
}
