// Package cache abstracts the shared state behind webhook deduplication.
// Production multi-instance deployments use the Redis backend; the
// in-process backend is only correct for a single instance and is an
// explicit configuration choice, not a hidden assumption.
package cache

import (
	"context"
	"time"
)

// Store is a minimal key/value surface with TTLs.
type Store interface {
	// SetNX stores value under key only if the key does not exist yet.
	// Returns true when this call created the key.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the value for key, or ok=false when absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}
