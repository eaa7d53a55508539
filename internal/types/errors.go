package types

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss        = errors.New("aerodata: key not found")
	ErrStoreUnavailable = errors.New("aerodata: durable store unavailable")
	ErrClosed           = errors.New("aerodata: cache closed")
	ErrInvalidKey       = errors.New("aerodata: invalid key")
	ErrCorruptRecord    = errors.New("aerodata: corrupt cache record")
	ErrCapacityExceeded = errors.New("aerodata: tier capacity exceeded")
	ErrShutdownTimeout  = errors.New("aerodata: shutdown timeout waiting for background operations")
)

// CacheError wraps a tier failure with the operation and key it occurred on.
// These errors stop at the orchestrator: a broken tier degrades to a miss,
// never to an application-visible failure.
type CacheError struct {
	Op   string
	Key  string
	Tier string
	Err  error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Tier, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Tier, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, tier string, err error) *CacheError {
	return &CacheError{
		Op:   op,
		Key:  key,
		Tier: tier,
		Err:  err,
	}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func IsCorruptRecord(err error) bool {
	return errors.Is(err, ErrCorruptRecord)
}
