package aerodata

import (
	"log/slog"

	"github.com/skyward-labs/aerodata/internal/config"
	"github.com/skyward-labs/aerodata/internal/fetch"
)

type (
	// Fetcher executes HTTP requests with per-attempt timeouts, retry with
	// exponential backoff, and in-flight deduplication of identical requests.
	Fetcher = fetch.Executor

	// FetchOptions contains per-request executor options.
	FetchOptions = fetch.Options

	// FetchResponse is a fully buffered response shared by deduplicated callers.
	FetchResponse = fetch.Response

	// ErrorClass classifies a request failure for retry decisions.
	ErrorClass = fetch.ErrorClass

	// BackoffState carries the deterministic exponential backoff schedule.
	BackoffState = fetch.BackoffState
)

const (
	// ClassTimeout marks a request that exceeded its attempt deadline. Never retried.
	ClassTimeout = fetch.ClassTimeout
	// ClassRateLimited marks a server rate-limit rejection. Retried after the
	// server's hint when one is given.
	ClassRateLimited = fetch.ClassRateLimited
	// ClassTransient marks a retryable network or server failure.
	ClassTransient = fetch.ClassTransient
	// ClassClient marks a non-retryable caller mistake.
	ClassClient = fetch.ClassClient
)

// NewFetcher creates a request executor from configuration. The metrics
// recorder receives one attempt event per network attempt; pass nil to
// disable telemetry.
func NewFetcher(cfg *config.Config, logger *slog.Logger, metrics Recorder) *Fetcher {
	return fetch.NewExecutor(cfg.Fetch, logger, metrics)
}
