package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned when all retry attempts are used up.
var ErrRetriesExhausted = errors.New("fetch: retry attempts exhausted")

// ErrorClass categorizes a failed attempt and decides whether it is retried.
type ErrorClass string

const (
	// ClassTimeout marks a per-attempt timeout. Never retried: repeated
	// timeouts against a slow upstream should surface immediately rather
	// than compound load.
	ClassTimeout ErrorClass = "timeout"

	// ClassRateLimited marks an HTTP 429. Retried with the server-directed
	// delay when a Retry-After header is present, exponential otherwise.
	ClassRateLimited ErrorClass = "rate_limited"

	// ClassTransient marks 5xx responses and network-level failures
	// (connection refused, DNS). Retried with exponential backoff.
	ClassTransient ErrorClass = "transient"

	// ClassClient marks 4xx responses other than 429. Never retried.
	ClassClient ErrorClass = "client"
)

// Retryable reports whether attempts in this class may be retried.
func (c ErrorClass) Retryable() bool {
	return c == ClassRateLimited || c == ClassTransient
}

// RequestError is the executor's final error: the last classified failure,
// annotated with the attempt count and total elapsed time. Intermediate
// attempts are observable only through telemetry events.
type RequestError struct {
	Endpoint   string
	Method     string
	Class      ErrorClass
	StatusCode int
	// RetryAfter carries the server's Retry-After directive for 429s.
	RetryAfter time.Duration
	Attempts   int
	Elapsed    time.Duration
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("fetch %s %s: %s", e.Method, e.Endpoint, e.Class)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts in %s", e.Attempts, e.Elapsed)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a per-attempt timeout.
func IsTimeout(err error) bool {
	return classOf(err) == ClassTimeout
}

// IsRateLimited reports whether err is an upstream 429.
func IsRateLimited(err error) bool {
	return classOf(err) == ClassRateLimited
}

// IsClientError reports whether err is a non-retryable 4xx.
func IsClientError(err error) bool {
	return classOf(err) == ClassClient
}

// IsTransient reports whether err is a retryable network or 5xx failure.
func IsTransient(err error) bool {
	return classOf(err) == ClassTransient
}

func classOf(err error) ErrorClass {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Class
	}
	return ""
}
