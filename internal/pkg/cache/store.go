package cache

import (
	"context"
	"time"
)

// Store is a keyed TTL store. The tolerance resolver uses it both for
// short-lived resolution caching and as the backing store for day-scoped
// admin overrides, so the interface stays deliberately small.
//
// Get reports found=false for a missing or expired key; an error means
// the store itself failed, which callers treat as a miss.
type Store interface {
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
	Forget(ctx context.Context, key string) error
}
