package fetch

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/sync/singleflight"
)

// Deduper collapses concurrent identical requests into one execution. It is
// strictly a concurrency optimization, never a cache: a pending handle lives
// only while its request is in flight, and is removed unconditionally on
// completion so subsequent calls start fresh work.
type Deduper struct {
	group singleflight.Group
}

// NewDeduper creates an empty deduplicator.
func NewDeduper() *Deduper {
	return &Deduper{}
}

// Do executes fn at most once per concurrently-active fingerprint. Callers
// that arrive while an identical request is in flight attach to the pending
// handle and observe the same outcome, success or failure. shared reports
// whether the result was given to more than one caller.
func (d *Deduper) Do(fingerprint string, fn func() (*Response, error)) (*Response, error, bool) {
	v, err, shared := d.group.Do(fingerprint, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err, shared
	}
	return v.(*Response), nil, shared
}

// Fingerprint derives the deduplication key for a request. It is a
// deterministic function of method and full endpoint (including query
// parameters); a body, when present, is folded in by hash so requests that
// differ only in payload never collide.
func Fingerprint(method, endpoint string, body []byte) string {
	if len(body) == 0 {
		return method + " " + endpoint
	}
	sum := sha256.Sum256(body)
	return method + " " + endpoint + "#" + hex.EncodeToString(sum[:])
}
