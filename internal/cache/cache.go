package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with per-key TTLs. Values are arbitrary
// JSON-serializable documents; Get reports ok=false on a miss or an
// expired entry. Entries are disposable projections of persistence
// state and may be dropped at any time.
type Cache interface {
	// Get unmarshals the cached value into dest and reports whether the
	// key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
