package metrics

import "fmt"

// Tag creates a formatted DataDog tag string in "key:value" format.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

// LevelTag creates a cache level tag.
func LevelTag(level string) string {
	return Tag("level", level)
}

// OperationTag creates an operation tag.
func OperationTag(op string) string {
	return Tag("operation", op)
}

// StatusTag creates a status tag (hit/miss/error).
func StatusTag(status string) string {
	return Tag("status", status)
}

// TierTag creates a storage tier tag (memory/local/indexed).
func TierTag(tier string) string {
	return Tag("tier", tier)
}

// EndpointTag creates a request endpoint tag.
func EndpointTag(endpoint string) string {
	return Tag("endpoint", endpoint)
}
