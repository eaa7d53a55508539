package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/types"
)

func newTestMemoryCache(maxItems int) *MemoryCache {
	return NewMemoryCache(config.MemoryConfig{MaxItems: maxItems}, nil)
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := newTestMemoryCache(0)
	ctx := context.Background()

	if err := c.Set(ctx, "weather:metar:RKPU", []byte("METAR RKPU 261200Z"), nil); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "weather:metar:RKPU")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "METAR RKPU 261200Z" {
		t.Errorf("Get = %q", got)
	}

	if _, err := c.Get(ctx, "weather:metar:ZZZZ"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get on absent key = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestMemoryCache(0)
	ctx := context.Background()

	opts := &types.CacheOptions{TTL: 10 * time.Millisecond}
	if err := c.Set(ctx, "short-lived", []byte("v"), opts); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	// An expired entry is a miss, and the miss removes it.
	if _, err := c.Get(ctx, "short-lived"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get on expired key = %v, want ErrCacheMiss", err)
	}
	if n := c.EntryCount(); n != 0 {
		t.Errorf("EntryCount after expired Get = %d, want 0", n)
	}

	// Repeating the lookup is safe.
	if _, err := c.Get(ctx, "short-lived"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("repeated Get = %v, want ErrCacheMiss", err)
	}
	if ok, _ := c.Contains(ctx, "short-lived"); ok {
		t.Error("Contains reported an expired entry")
	}
}

func TestMemoryCacheCleanupTrimsOldest(t *testing.T) {
	c := newTestMemoryCache(2)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), nil); err != nil {
			t.Fatalf("Set(%s) failed: %v", k, err)
		}
	}

	// Re-setting "a" makes it the newest insertion, so "b" is trimmed.
	if err := c.Set(ctx, "a", []byte("a2"), nil); err != nil {
		t.Fatalf("re-Set failed: %v", err)
	}
	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	if _, err := c.Get(ctx, "b"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("oldest entry survived cleanup: %v", err)
	}
	for _, k := range []string{"a", "c"} {
		if _, err := c.Get(ctx, k); err != nil {
			t.Errorf("Get(%s) after cleanup = %v", k, err)
		}
	}
}

func TestMemoryCacheKeys(t *testing.T) {
	c := newTestMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "weather:metar:RKPU", []byte("1"), nil)
	c.Set(ctx, "weather:metar:RKSS", []byte("2"), nil)
	c.Set(ctx, "traces:abc", []byte("3"), nil)
	c.Set(ctx, "weather:taf:RKPU", []byte("4"), &types.CacheOptions{TTL: time.Nanosecond})

	time.Sleep(time.Millisecond)

	keys, err := c.Keys(ctx, "weather:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	want := []string{"weather:metar:RKPU", "weather:metar:RKSS"}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestMemoryCacheInvalidateByTags(t *testing.T) {
	c := newTestMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "weather:metar:RKPU", []byte("1"), &types.CacheOptions{Tags: []string{"weather", "RKPU"}})
	c.Set(ctx, "weather:metar:RKSS", []byte("2"), &types.CacheOptions{Tags: []string{"weather", "RKSS"}})
	c.Set(ctx, "airport:RKPU", []byte("3"), &types.CacheOptions{Tags: []string{"airport", "RKPU"}})

	if err := c.InvalidateByTags(ctx, []string{"RKPU"}); err != nil {
		t.Fatalf("InvalidateByTags failed: %v", err)
	}

	for _, k := range []string{"weather:metar:RKPU", "airport:RKPU"} {
		if _, err := c.Get(ctx, k); !errors.Is(err, types.ErrCacheMiss) {
			t.Errorf("tagged entry %q survived invalidation", k)
		}
	}
	if _, err := c.Get(ctx, "weather:metar:RKSS"); err != nil {
		t.Errorf("untagged entry removed: %v", err)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := newTestMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "k1", []byte("1"), nil)
	c.Set(ctx, "k2", []byte("2"), nil)

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n := c.EntryCount(); n != 0 {
		t.Errorf("EntryCount after Clear = %d", n)
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	c := newTestMemoryCache(0)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := c.Get(ctx, "k"); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), nil); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
	if c.IsAvailable() {
		t.Error("IsAvailable true after Close")
	}
}

func TestMemoryCacheStats(t *testing.T) {
	c := newTestMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), nil)
	c.Get(ctx, "k")
	c.Get(ctx, "absent")
	c.Delete(ctx, "k")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Sets != 1 || s.Deletes != 1 {
		t.Errorf("Stats = %+v", s)
	}
}
