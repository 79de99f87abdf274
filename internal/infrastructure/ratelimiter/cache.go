package ratelimiter

import (
	"errors"
	"time"
)

// ErrCacheMiss marks a key that was never set or has expired. Callers
// treat a miss as a fresh, full bucket.
var ErrCacheMiss = errors.New("cache miss")

// GetterSetter is the bucket-state cache. The in-memory implementation
// is the default; a shared cache (e.g. Redis) can be swapped in to rate
// limit across instances.
type GetterSetter interface {
	Get(key string) (int, error)
	Set(key string, value int) error
	SetWithExpiration(key string, value int, expiration time.Duration) error
	Close() error
}
