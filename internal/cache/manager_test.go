package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/types"
)

// Option helpers so internal tests do not import the public facade.

func withTTL(ttl time.Duration) types.Option {
	return func(o *types.CacheOptions) { o.TTL = ttl }
}

func withLevel(level types.CacheLevel) types.Option {
	return func(o *types.CacheOptions) { o.Level = level }
}

func withTags(tags ...string) types.Option {
	return func(o *types.CacheOptions) { o.Tags = tags }
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.ForTesting()
	cfg.CleanupInterval = 0
	m, err := NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func newLocalTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.ForTestingWithSQLite(filepath.Join(t.TempDir(), "cache.db"))
	cfg.CleanupInterval = 0
	m, err := NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

type metar struct {
	Station string `json:"station"`
	Raw     string `json:"raw"`
}

func TestManagerSetGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	in := metar{Station: "RKPU", Raw: "METAR RKPU 261200Z 27008KT"}
	if err := m.Set(ctx, "weather:metar:RKPU", in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out metar
	if err := m.Get(ctx, "weather:metar:RKPU", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Errorf("Get = %+v, want %+v", out, in)
	}

	var missing metar
	if err := m.Get(ctx, "weather:metar:ZZZZ", &missing); !types.IsCacheMiss(err) {
		t.Errorf("Get on absent key = %v, want cache miss", err)
	}
}

func TestManagerPromotesLocalHitToMemory(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	in := metar{Station: "RKPU", Raw: "METAR RKPU 261200Z"}
	if err := m.Set(ctx, "weather:metar:RKPU", in, withLevel(types.LevelLocal)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Drop the volatile copy so the next read must come from the durable tier.
	if err := m.memory.Clear(ctx); err != nil {
		t.Fatalf("memory Clear failed: %v", err)
	}

	var out metar
	if err := m.Get(ctx, "weather:metar:RKPU", &out); err != nil {
		t.Fatalf("Get after memory clear failed: %v", err)
	}
	if out != in {
		t.Errorf("Get = %+v, want %+v", out, in)
	}

	// The hit was promoted, so the volatile tier serves it now.
	if ok, _ := m.memory.Contains(ctx, "weather:metar:RKPU"); !ok {
		t.Error("value was not promoted to the volatile tier")
	}
}

func TestManagerMetarExpiry(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	in := metar{Station: "RKSS", Raw: "METAR RKSS 261230Z"}
	if err := m.Set(ctx, "weather:metar:RKSS", in, withTTL(20*time.Millisecond)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out metar
	if err := m.Get(ctx, "weather:metar:RKSS", &out); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if err := m.Get(ctx, "weather:metar:RKSS", &out); !types.IsCacheMiss(err) {
		t.Fatalf("Get after expiry = %v, want cache miss", err)
	}

	// The next GetOrCreate re-fetches.
	var fetched int32
	err := m.GetOrCreate(ctx, "weather:metar:RKSS", &out, func() (any, error) {
		atomic.AddInt32(&fetched, 1)
		return metar{Station: "RKSS", Raw: "METAR RKSS 261300Z"}, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if fetched != 1 {
		t.Errorf("factory ran %d times, want 1", fetched)
	}
	if out.Raw != "METAR RKSS 261300Z" {
		t.Errorf("GetOrCreate returned %+v", out)
	}
}

func TestManagerGetOrCreateSingleflight(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})

	const n = 16
	var wg sync.WaitGroup
	results := make([]metar, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.GetOrCreate(ctx, "traces:abc123", &results[i], func() (any, error) {
				calls.Add(1)
				<-release
				return metar{Station: "trace", Raw: "points"}, nil
			})
			if err != nil {
				t.Errorf("goroutine %d: %v", i, err)
			}
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("factory ran %d times, want 1", got)
	}
	for i, r := range results {
		if r.Station != "trace" {
			t.Errorf("goroutine %d got %+v", i, r)
		}
	}
}

func TestManagerGetOrCreateFactoryError(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	wantErr := errors.New("upstream down")
	var out metar
	err := m.GetOrCreate(ctx, "weather:metar:RKPU", &out, func() (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrCreate = %v, want %v", err, wantErr)
	}

	// The failure was not cached.
	if ok, _ := m.Contains(ctx, "weather:metar:RKPU"); ok {
		t.Error("failed factory result was cached")
	}
}

func TestManagerStatsCountOncePerGet(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	if err := m.Set(ctx, "k", metar{Station: "RKPU"}, withLevel(types.LevelLocal)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out metar
	m.Get(ctx, "k", &out)     // memory hit
	m.Get(ctx, "gone", &out)  // probes memory and local, one miss
	m.Get(ctx, "gone2", &out) // another single miss

	s := m.Stats()
	if s.Hits != 1 {
		t.Errorf("Hits = %d, want 1", s.Hits)
	}
	if s.Misses != 2 {
		t.Errorf("Misses = %d, want 2 (one per logical get)", s.Misses)
	}
}

func TestManagerCorruptRecord(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	// Plant undecodable bytes directly in the tiers, bypassing the
	// serializer, the way a partial write or on-disk damage would.
	raw := []byte("\x00not-json")
	opts := &types.CacheOptions{TTL: time.Minute}
	if err := m.memory.Set(ctx, "weather:metar:RKPU", raw, opts); err != nil {
		t.Fatalf("memory Set failed: %v", err)
	}
	if err := m.local.Set(ctx, "weather:metar:RKPU", raw, opts); err != nil {
		t.Fatalf("local Set failed: %v", err)
	}

	var out metar
	if err := m.Get(ctx, "weather:metar:RKPU", &out); !types.IsCacheMiss(err) {
		t.Fatalf("Get on corrupt record = %v, want cache miss", err)
	}

	// The damaged entry must be purged, not left to fail every read.
	if ok, _ := m.memory.Contains(ctx, "weather:metar:RKPU"); ok {
		t.Error("corrupt entry still present in the volatile tier")
	}
	if ok, _ := m.local.Contains(ctx, "weather:metar:RKPU"); ok {
		t.Error("corrupt entry still present in the local tier")
	}

	// The key recovers on the next write.
	in := metar{Station: "RKPU", Raw: "METAR RKPU 261200Z"}
	if err := m.Set(ctx, "weather:metar:RKPU", in, withLevel(types.LevelLocal)); err != nil {
		t.Fatalf("Set after purge failed: %v", err)
	}
	if err := m.Get(ctx, "weather:metar:RKPU", &out); err != nil || out != in {
		t.Errorf("Get after rewrite = %+v, %v, want %+v", out, err, in)
	}
}

func TestManagerPromotionPreservesExpiry(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	in := metar{Station: "RKPU", Raw: "METAR RKPU 261200Z"}
	if err := m.Set(ctx, "weather:metar:RKPU", in, withLevel(types.LevelLocal), withTTL(100*time.Millisecond)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Drop the volatile copy so the next read comes from the durable tier
	// and promotes back into memory.
	if err := m.memory.Clear(ctx); err != nil {
		t.Fatalf("memory Clear failed: %v", err)
	}
	var out metar
	if err := m.Get(ctx, "weather:metar:RKPU", &out); err != nil {
		t.Fatalf("read-through Get failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	// The promoted copy inherits the original expiry; it must not be
	// served past the lifetime the writer asked for.
	if err := m.Get(ctx, "weather:metar:RKPU", &out); !types.IsCacheMiss(err) {
		t.Errorf("Get past original expiry = %v, want cache miss", err)
	}
}

func TestManagerInvalidateByTags(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	m.Set(ctx, "weather:metar:RKPU", metar{Station: "RKPU"}, withLevel(types.LevelLocal), withTags("weather", "RKPU"))
	m.Set(ctx, "weather:metar:RKSS", metar{Station: "RKSS"}, withLevel(types.LevelLocal), withTags("weather", "RKSS"))
	m.Set(ctx, "airport:RKPU", metar{Station: "RKPU"}, withLevel(types.LevelLocal), withTags("airport", "RKPU"))

	if err := m.InvalidateByTags(ctx, []string{"RKPU"}); err != nil {
		t.Fatalf("InvalidateByTags failed: %v", err)
	}

	var out metar
	for _, k := range []string{"weather:metar:RKPU", "airport:RKPU"} {
		if err := m.Get(ctx, k, &out); !types.IsCacheMiss(err) {
			t.Errorf("tagged entry %q survived invalidation in some tier: %v", k, err)
		}
	}
	if err := m.Get(ctx, "weather:metar:RKSS", &out); err != nil {
		t.Errorf("untagged entry removed: %v", err)
	}
}

func TestManagerKeyValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.Set(ctx, "", metar{}); !errors.Is(err, types.ErrInvalidKey) {
		t.Errorf("Set with empty key = %v, want ErrInvalidKey", err)
	}
	var out metar
	if err := m.Get(ctx, "bad\x00key", &out); !errors.Is(err, types.ErrInvalidKey) {
		t.Errorf("Get with control chars = %v, want ErrInvalidKey", err)
	}
}

func TestManagerBatchOperations(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	items := map[string]any{
		"weather:metar:RKPU": metar{Station: "RKPU"},
		"weather:metar:RKSS": metar{Station: "RKSS"},
		"weather:metar:RKTU": metar{Station: "RKTU"},
	}
	if err := m.SetMany(ctx, items); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}

	got, err := m.GetMany(ctx, []string{"weather:metar:RKPU", "weather:metar:RKSS", "weather:metar:ZZZZ"})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("GetMany returned %d values, want 2", len(got))
	}
	if _, ok := got["weather:metar:ZZZZ"]; ok {
		t.Error("GetMany returned a value for an absent key")
	}

	if err := m.DeleteMany(ctx, []string{"weather:metar:RKPU", "weather:metar:RKSS"}); err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	keys, err := m.Keys(ctx, "weather:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "weather:metar:RKTU" {
		t.Errorf("Keys after DeleteMany = %v", keys)
	}
}

func TestManagerClearResetsStats(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	m.Set(ctx, "k", metar{Station: "RKPU"})
	var out metar
	m.Get(ctx, "k", &out)

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	s := m.Stats()
	if s.Hits != 0 || s.Misses != 0 {
		t.Errorf("Stats after Clear = %+v, want zeroed", s)
	}
	if err := m.Get(ctx, "k", &out); !types.IsCacheMiss(err) {
		t.Errorf("Get after Clear = %v, want cache miss", err)
	}
}

func TestManagerHealth(t *testing.T) {
	t.Run("memory only is healthy", func(t *testing.T) {
		m := newTestManager(t)
		h, err := m.Health(context.Background())
		if err != nil {
			t.Fatalf("Health failed: %v", err)
		}
		if h.Status != types.HealthStatusHealthy {
			t.Errorf("Status = %v, want healthy", h.Status)
		}
		if !m.IsHealthy(context.Background()) {
			t.Error("IsHealthy = false")
		}
	})

	t.Run("configured durable tier down degrades", func(t *testing.T) {
		m := newLocalTestManager(t)
		if err := m.local.Close(); err != nil {
			t.Fatalf("local Close failed: %v", err)
		}
		h, err := m.Health(context.Background())
		if err != nil {
			t.Fatalf("Health failed: %v", err)
		}
		if h.Status != types.HealthStatusDegraded {
			t.Errorf("Status = %v, want degraded", h.Status)
		}
	})
}

func TestManagerClosed(t *testing.T) {
	cfg := config.ForTesting()
	m, err := NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ctx := context.Background()
	var out metar
	if err := m.Get(ctx, "k", &out); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if err := m.Set(ctx, "k", out); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}

	// Closing twice is safe.
	if err := m.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestManagerBackgroundCleanup(t *testing.T) {
	cfg := config.ForTesting()
	cfg.CleanupInterval = 20 * time.Millisecond
	m, err := NewManager(cfg, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	ctx := context.Background()
	if err := m.Set(ctx, "short-lived", metar{Station: "RKPU"}, withTTL(10*time.Millisecond)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.memory.EntryCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("background cleanup did not evict the expired entry")
}

func TestParseCacheLevelValues(t *testing.T) {
	cases := map[string]types.CacheLevel{
		"memory":  types.LevelMemory,
		"local":   types.LevelLocal,
		"indexed": types.LevelIndexed,
		"bogus":   types.LevelMemory,
	}
	for in, want := range cases {
		if got := ParseCacheLevel(in); got != want {
			t.Errorf("ParseCacheLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
