package aerodata

import (
	"github.com/skyward-labs/aerodata/internal/fetch"
	"github.com/skyward-labs/aerodata/internal/types"
)

// CacheError represents a cache operation error.
type CacheError = types.CacheError

// RequestError represents a classified request executor error.
type RequestError = fetch.RequestError

var (
	// ErrCacheMiss indicates that a requested key was not found in the cache.
	ErrCacheMiss = types.ErrCacheMiss
	// ErrStoreUnavailable indicates that a durable tier is not reachable.
	ErrStoreUnavailable = types.ErrStoreUnavailable
	// ErrClosed indicates that the cache manager has been closed.
	ErrClosed = types.ErrClosed
	// ErrInvalidKey indicates that a cache key is invalid.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrCorruptRecord indicates a stored record could not be read back.
	ErrCorruptRecord = types.ErrCorruptRecord
	// ErrCapacityExceeded indicates a tier rejected a write for capacity.
	ErrCapacityExceeded = types.ErrCapacityExceeded
	// ErrShutdownTimeout indicates shutdown exceeded its deadline.
	ErrShutdownTimeout = types.ErrShutdownTimeout
	// ErrRetriesExhausted indicates the executor gave up after its retry budget.
	ErrRetriesExhausted = fetch.ErrRetriesExhausted
)

// NewCacheError creates a new cache error with operation, key, tier, and underlying error.
func NewCacheError(op, key, tier string, err error) *CacheError {
	return types.NewCacheError(op, key, tier, err)
}

// IsCacheMiss returns true if the error is a cache miss.
func IsCacheMiss(err error) bool {
	return types.IsCacheMiss(err)
}

// IsStoreUnavailable returns true if the error indicates a durable tier is unreachable.
func IsStoreUnavailable(err error) bool {
	return types.IsStoreUnavailable(err)
}

// IsCorruptRecord returns true if the error indicates an unreadable stored record.
func IsCorruptRecord(err error) bool {
	return types.IsCorruptRecord(err)
}

// IsTimeout returns true if the error is a request timeout. Timeouts are
// never retried by the executor.
func IsTimeout(err error) bool {
	return fetch.IsTimeout(err)
}

// IsRateLimited returns true if the error is a server rate-limit rejection.
func IsRateLimited(err error) bool {
	return fetch.IsRateLimited(err)
}

// IsClientError returns true if the error is a non-retryable caller mistake.
func IsClientError(err error) bool {
	return fetch.IsClientError(err)
}

// IsTransient returns true if the error is a retryable network or server failure.
func IsTransient(err error) bool {
	return fetch.IsTransient(err)
}
