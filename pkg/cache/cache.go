// Package cache stores pipeline results between runs.
//
// The [Cache] interface has three implementations: [NullCache] disables
// caching, [FileCache] keeps entries under a local directory for the CLI,
// and [RedisCache] shares entries between server instances.
//
// Keys are produced by a [Keyer] so that key layout stays in one place.
// [ScopedKeyer] prefixes every key, which keeps tenants or environments
// apart in a shared backend.
package cache

import (
	"context"
	"time"
)

// TTLs for cached artifacts.
const (
	// TTLDiagram applies to built diagrams keyed by their input rows.
	TTLDiagram = 7 * 24 * time.Hour

	// TTLPreview applies to rendered previews keyed by diagram content.
	TTLPreview = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
