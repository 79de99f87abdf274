package ratelimiter

import (
	"sync"
	"time"
)

const sweepInterval = time.Minute

type memoryEntry struct {
	value     int
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemory is a TTL'd counter cache backing the limiter when no shared
// cache is configured. Expired entries are dropped lazily on Get and by
// a background sweep.
type InMemory struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	stop      chan struct{}
	closeOnce sync.Once
}

func NewInMemory() GetterSetter {
	im := &InMemory{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}

	go im.sweep()

	return im
}

func (im *InMemory) Get(key string) (int, error) {
	im.mu.RLock()
	entry, ok := im.entries[key]
	im.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		return 0, ErrCacheMiss
	}

	return entry.value, nil
}

func (im *InMemory) Set(key string, value int) error {
	return im.SetWithExpiration(key, value, 0)
}

func (im *InMemory) SetWithExpiration(key string, value int, expiration time.Duration) error {
	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	im.mu.Lock()
	im.entries[key] = entry
	im.mu.Unlock()

	return nil
}

func (im *InMemory) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()

			im.mu.Lock()
			for key, entry := range im.entries {
				if entry.expired(now) {
					delete(im.entries, key)
				}
			}
			im.mu.Unlock()
		case <-im.stop:
			return
		}
	}
}

func (im *InMemory) Close() error {
	im.closeOnce.Do(func() {
		close(im.stop)
	})
	return nil
}
