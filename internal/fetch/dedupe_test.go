package fetch

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	t.Run("method and endpoint form the key", func(t *testing.T) {
		a := Fingerprint("GET", "https://avdata.example.com/metar/RKPU", nil)
		b := Fingerprint("GET", "https://avdata.example.com/metar/RKPU", nil)
		if a != b {
			t.Error("Identical requests must share a fingerprint")
		}
	})

	t.Run("query parameters distinguish requests", func(t *testing.T) {
		a := Fingerprint("GET", "https://avdata.example.com/traces?icao24=abc", nil)
		b := Fingerprint("GET", "https://avdata.example.com/traces?icao24=def", nil)
		if a == b {
			t.Error("Different query parameters must not collide")
		}
	})

	t.Run("method distinguishes requests", func(t *testing.T) {
		a := Fingerprint("GET", "https://avdata.example.com/notam", nil)
		b := Fingerprint("POST", "https://avdata.example.com/notam", nil)
		if a == b {
			t.Error("Different methods must not collide")
		}
	})

	t.Run("body is folded in by hash", func(t *testing.T) {
		a := Fingerprint("POST", "https://avdata.example.com/q", []byte(`{"icao":"RKPU"}`))
		b := Fingerprint("POST", "https://avdata.example.com/q", []byte(`{"icao":"RKSS"}`))
		if a == b {
			t.Error("Different bodies must not collide")
		}
	})
}

func TestDeduperCollapsesConcurrentRequests(t *testing.T) {
	d := NewDeduper()

	var calls atomic.Int32
	release := make(chan struct{})

	fn := func() (*Response, error) {
		calls.Add(1)
		<-release
		return &Response{StatusCode: 200, Body: []byte("shared")}, nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]*Response, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i], _ = d.Do("GET https://avdata.example.com/traces/abc123", fn)
		}(i)
	}

	// Let every goroutine attach to the pending handle before completing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fn called %d times, want 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if string(results[i].Body) != "shared" {
			t.Errorf("caller %d got %q, want shared result", i, results[i].Body)
		}
	}
}

func TestDeduperSharesFailures(t *testing.T) {
	d := NewDeduper()
	wantErr := errors.New("upstream unreachable")

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() (*Response, error) {
		calls.Add(1)
		<-release
		return nil, wantErr
	}

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i], _ = d.Do("GET https://avdata.example.com/metar/RKPU", fn)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fn called %d times, want 1", got)
	}
	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("caller %d: error = %v, want shared failure", i, err)
		}
	}
}

func TestDeduperRemovesCompletedEntries(t *testing.T) {
	d := NewDeduper()

	var calls atomic.Int32
	fn := func() (*Response, error) {
		calls.Add(1)
		return &Response{StatusCode: 200}, nil
	}

	fp := Fingerprint("GET", "https://avdata.example.com/metar/RKPU", nil)
	if _, err, _ := d.Do(fp, fn); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err, _ := d.Do(fp, fn); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	// Sequential calls must each run: the deduper is not a cache.
	if got := calls.Load(); got != 2 {
		t.Errorf("fn called %d times, want 2", got)
	}
}
