package cache

import (
	"context"
	"time"
)

// Cache is a small read-through cache for serialized payloads. A miss is
// (value="", ok=false, err=nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
