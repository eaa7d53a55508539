package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/types"
)

// Options controls one logical call. Zero fields fall back to the
// executor's configured defaults.
type Options struct {
	Method         string
	Headers        http.Header
	Body           []byte
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// NoDedupe bypasses the in-flight deduplicator. Set it for requests
	// whose bodies vary per call without being part of the fingerprint.
	NoDedupe bool
}

// Response is a fully buffered HTTP response. Buffering lets deduplicated
// callers share one response safely.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	// Attempts is how many attempts the logical call took.
	Attempts int
	// Elapsed is the total wall time including backoff waits.
	Elapsed time.Duration
}

// Executor performs one logical HTTP call with per-attempt timeout, retry
// and error classification. Concurrent identical calls are collapsed by the
// deduplicator before any network I/O happens.
type Executor struct {
	client  *http.Client
	deduper *Deduper
	cfg     config.FetchConfig
	logger  *slog.Logger
	metrics types.Recorder
}

// NewExecutor creates an executor with the given defaults. logger and
// metrics may be nil.
func NewExecutor(cfg config.FetchConfig, logger *slog.Logger, metrics types.Recorder) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		// Per-attempt timeouts come from the request context, not the
		// client, so one client is shared across all calls.
		client:  &http.Client{},
		deduper: NewDeduper(),
		cfg:     cfg,
		logger:  logger.With("component", "executor"),
		metrics: metrics,
	}
}

// SetHTTPClient swaps the underlying HTTP client (for testing).
func (e *Executor) SetHTTPClient(client *http.Client) {
	e.client = client
}

// Execute performs the logical call described by endpoint and opts. It
// returns the buffered response on success, or the final classified
// *RequestError once retries are exhausted or a non-retryable failure is
// observed.
//
// Cancellation: the per-attempt timeout is the only cancellation primitive
// below this point. A caller abandoning a deduplicated wait does not stop
// the underlying fetch, since other waiters may still need the result.
func (e *Executor) Execute(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	e.applyDefaults(&opts)

	if opts.NoDedupe {
		return e.run(ctx, endpoint, opts)
	}

	fp := Fingerprint(opts.Method, endpoint, opts.Body)
	resp, err, shared := e.deduper.Do(fp, func() (*Response, error) {
		// The shared fetch is detached from the initiating caller's
		// context. Waiters coalesced onto the same fingerprint must still
		// receive the result if that caller abandons it; per-attempt
		// timeouts keep the fetch bounded.
		return e.run(context.WithoutCancel(ctx), endpoint, opts)
	})
	if shared {
		e.logger.Debug("request coalesced", "endpoint", endpoint, "method", opts.Method)
	}
	return resp, err
}

func (e *Executor) applyDefaults(opts *Options) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if opts.Timeout <= 0 {
		opts.Timeout = e.cfg.Timeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = e.cfg.Retries
	} else if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = e.cfg.RetryBaseDelay
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = e.cfg.RetryMaxDelay
	}
}

// run is the retry loop: Idle -> Attempting -> {Success, RetryWait, Failed}.
func (e *Executor) run(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	start := time.Now()
	state := NewBackoffState(opts.RetryBaseDelay, opts.RetryMaxDelay)
	maxAttempts := opts.MaxRetries + 1

	var lastErr *RequestError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, reqErr := e.attempt(ctx, endpoint, opts)
		if reqErr == nil {
			resp.Attempts = attempt
			resp.Elapsed = time.Since(start)
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = reqErr
		lastErr.Attempts = attempt
		lastErr.Elapsed = time.Since(start)

		if !lastErr.Class.Retryable() {
			return nil, lastErr
		}

		if attempt == maxAttempts {
			break
		}

		var hint time.Duration
		if lastErr.Class == ClassRateLimited {
			hint = lastErr.RetryAfter
		}
		var delay time.Duration
		delay, state = NextDelay(state, hint)

		e.logger.Debug("retrying after backoff",
			"endpoint", endpoint,
			"method", opts.Method,
			"class", string(lastErr.Class),
			"attempt", attempt,
			"delay", delay,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	lastErr.Err = errors.Join(ErrRetriesExhausted, lastErr.Err)
	e.logger.Warn("retry attempts exhausted",
		"endpoint", endpoint,
		"method", opts.Method,
		"class", string(lastErr.Class),
		"attempts", lastErr.Attempts,
		"elapsed", lastErr.Elapsed,
	)
	return nil, lastErr
}

// attempt performs a single HTTP attempt under the hard per-attempt timeout
// and classifies the outcome. Every attempt, success or failure, is reported
// to the metrics recorder.
func (e *Executor) attempt(ctx context.Context, endpoint string, opts Options) (*Response, *RequestError) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	started := time.Now()

	var bodyReader io.Reader
	if len(opts.Body) > 0 {
		bodyReader = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, opts.Method, endpoint, bodyReader)
	if err != nil {
		reqErr := e.newError(endpoint, opts.Method, ClassClient, 0, err)
		e.recordAttempt(endpoint, opts.Method, string(ClassClient), time.Since(started))
		return nil, reqErr
	}
	for k, vs := range opts.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	httpResp, err := e.client.Do(req)
	if err != nil {
		class := classifyNetworkError(attemptCtx, ctx, err)
		e.recordAttempt(endpoint, opts.Method, string(class), time.Since(started))
		return nil, e.newError(endpoint, opts.Method, class, 0, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	duration := time.Since(started)
	if err != nil {
		class := classifyNetworkError(attemptCtx, ctx, err)
		e.recordAttempt(endpoint, opts.Method, string(class), duration)
		return nil, e.newError(endpoint, opts.Method, class, httpResp.StatusCode, err)
	}

	e.recordAttempt(endpoint, opts.Method, strconv.Itoa(httpResp.StatusCode), duration)

	switch {
	case httpResp.StatusCode >= 200 && httpResp.StatusCode < 300:
		return &Response{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Header:     httpResp.Header,
			Body:       body,
		}, nil

	case httpResp.StatusCode == http.StatusTooManyRequests:
		reqErr := e.newError(endpoint, opts.Method, ClassRateLimited, httpResp.StatusCode, nil)
		reqErr.RetryAfter = parseRetryAfter(httpResp.Header.Get("Retry-After"))
		return nil, reqErr

	case httpResp.StatusCode >= 500:
		return nil, e.newError(endpoint, opts.Method, ClassTransient, httpResp.StatusCode, nil)

	default:
		return nil, e.newError(endpoint, opts.Method, ClassClient, httpResp.StatusCode, nil)
	}
}

func (e *Executor) newError(endpoint, method string, class ErrorClass, status int, err error) *RequestError {
	return &RequestError{
		Endpoint:   endpoint,
		Method:     method,
		Class:      class,
		StatusCode: status,
		Err:        err,
	}
}

func (e *Executor) recordAttempt(endpoint, method, statusOrError string, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordAttempt(endpoint, method, statusOrError, duration)
	}
}

// classifyNetworkError separates per-attempt timeouts (never retried) from
// transient failures (connection refused, DNS, resets). A timeout is only
// attributed to the attempt when the parent context is still live.
func classifyNetworkError(attemptCtx, parentCtx context.Context, err error) ErrorClass {
	if parentCtx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	return ClassTransient
}

// parseRetryAfter reads a Retry-After header as delay seconds or an HTTP
// date. Invalid values yield zero, letting exponential backoff take over.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
