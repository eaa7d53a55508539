// Package fetch provides the resilient request execution engine: a backoff
// clock, an HTTP executor with retry and error classification, and an
// in-flight request deduplicator.
package fetch

import "time"

// maxBackoffShift clamps the attempt count before exponentiation so the
// shift below cannot overflow.
const maxBackoffShift = 20

// BackoffState tracks exponential backoff progress for one logical poller
// (e.g. "aircraft polling for region X"). States are never shared across
// pollers. The clock itself is stateless; callers hold the state and reset
// it to attempt zero on any success.
type BackoffState struct {
	Attempt   uint
	BaseDelay time.Duration
	Cap       time.Duration
}

// NewBackoffState returns a fresh state at attempt zero.
func NewBackoffState(base, cap time.Duration) BackoffState {
	if base <= 0 {
		base = time.Second
	}
	if cap < base {
		cap = base
	}
	return BackoffState{BaseDelay: base, Cap: cap}
}

// Reset returns the state to attempt zero, keeping its delays.
func (s BackoffState) Reset() BackoffState {
	s.Attempt = 0
	return s
}

// NextDelay computes the wait before the next attempt.
//
// A valid server hint (e.g. a Retry-After directive) wins outright and does
// not consume an exponential step: the returned state carries the same
// attempt count. Otherwise the delay is min(cap, base*2^attempt) and the
// attempt count advances.
func NextDelay(state BackoffState, serverHint time.Duration) (time.Duration, BackoffState) {
	if serverHint > 0 {
		return serverHint, state
	}

	shift := state.Attempt
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}

	delay := state.BaseDelay << shift
	if delay > state.Cap || delay <= 0 {
		delay = state.Cap
	}

	state.Attempt++
	return delay, state
}
