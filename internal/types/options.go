package types

// Option is a functional option for configuring cache operations.
type Option func(*CacheOptions)

// ApplyOptions applies functional options to a zero CacheOptions. Unset
// fields are filled from configured defaults by the manager.
func ApplyOptions(opts ...Option) *CacheOptions {
	options := &CacheOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// ManagerOptions holds construction-time overrides for the cache manager.
type ManagerOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics is the telemetry recorder.
	Metrics Recorder

	// Serializer is the value serializer. Defaults to JSON.
	Serializer Serializer

	// RedisAddress overrides the indexed-tier address from config.
	RedisAddress string

	// RedisPassword overrides the indexed-tier password from config.
	// Uses SecretString to prevent accidental logging of sensitive values.
	RedisPassword SecretString

	// RedisDB overrides the indexed-tier database from config.
	RedisDB int

	// SQLitePath overrides the local-tier database file from config.
	SQLitePath string

	// DisableIndexed disables the large durable tier entirely.
	DisableIndexed bool

	// DisableLocal disables the small durable tier entirely.
	DisableLocal bool
}
