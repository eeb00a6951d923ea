package cache

import (
	"context"
	"time"
)

// Cache is a read-mostly result cache. Writes are idempotent upserts, so
// concurrent identical queries may race harmlessly to the same slot.
type Cache interface {
	// Get unmarshals the cached value for key into dest. The second return
	// is false on a miss or an expired entry.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set upserts value under key for the given time-to-live.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
