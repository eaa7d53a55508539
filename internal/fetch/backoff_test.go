package fetch

import (
	"testing"
	"time"
)

func TestNextDelay(t *testing.T) {
	t.Run("doubles until the cap", func(t *testing.T) {
		state := NewBackoffState(time.Second, 30*time.Second)
		want := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			30 * time.Second,
			30 * time.Second,
		}
		for i, w := range want {
			var d time.Duration
			d, state = NextDelay(state, 0)
			if d != w {
				t.Errorf("attempt %d: delay = %v, want %v", i, d, w)
			}
		}
	})

	t.Run("delay is monotone non-decreasing", func(t *testing.T) {
		state := NewBackoffState(250*time.Millisecond, time.Minute)
		var prev time.Duration
		for i := 0; i < 40; i++ {
			var d time.Duration
			d, state = NextDelay(state, 0)
			if d < prev {
				t.Fatalf("attempt %d: delay %v decreased from %v", i, d, prev)
			}
			prev = d
		}
	})

	t.Run("server hint wins without consuming an attempt", func(t *testing.T) {
		state := NewBackoffState(time.Second, 30*time.Second)
		_, state = NextDelay(state, 0) // attempt 0 consumed

		hint := 5 * time.Second
		d, after := NextDelay(state, hint)
		if d < hint {
			t.Errorf("delay = %v, want at least the server hint %v", d, hint)
		}
		if after.Attempt != state.Attempt {
			t.Errorf("hint consumed an attempt: %d -> %d", state.Attempt, after.Attempt)
		}

		// The schedule resumes where it left off.
		d, _ = NextDelay(after, 0)
		if d != 2*time.Second {
			t.Errorf("delay after hint = %v, want 2s", d)
		}
	})

	t.Run("large attempt counts do not overflow", func(t *testing.T) {
		state := BackoffState{Attempt: 200, BaseDelay: time.Second, Cap: 30 * time.Second}
		d, _ := NextDelay(state, 0)
		if d != 30*time.Second {
			t.Errorf("delay = %v, want cap", d)
		}
	})

	t.Run("reset returns to attempt zero", func(t *testing.T) {
		state := NewBackoffState(time.Second, 30*time.Second)
		for i := 0; i < 5; i++ {
			_, state = NextDelay(state, 0)
		}
		state = state.Reset()
		d, _ := NextDelay(state, 0)
		if d != time.Second {
			t.Errorf("delay after reset = %v, want base", d)
		}
	})

	t.Run("zero base falls back to a sane default", func(t *testing.T) {
		state := NewBackoffState(0, 0)
		d, _ := NextDelay(state, 0)
		if d <= 0 {
			t.Errorf("delay = %v, want > 0", d)
		}
	})
}
