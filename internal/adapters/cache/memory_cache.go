package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
)

// MemoryCache is an in-memory implementation of the ResultCache port.
// Entries are keyed by exact URL string (no normalization, so two
// differently formatted equivalent URLs are cache-independent) and become
// stale once older than the TTL. The map is bounded: once maxEntries is
// exceeded, the oldest entry is evicted, keeping a long-lived process
// from growing without limit.
type MemoryCache struct {
	entries    map[string]*core.CacheEntry
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its background
// cleanup task.
func NewMemoryCache(ttl time.Duration, maxEntries int, cleanupFreq time.Duration, logger *zap.Logger) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]*core.CacheEntry),
		ttl:         ttl,
		maxEntries:  maxEntries,
		now:         time.Now,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache
}

// SetClock replaces the cache's time source. Tests use this to step
// through the TTL window without sleeping.
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the entry for a URL. Expired entries are treated as misses
// but not removed here; the cleanup task reclaims them.
func (c *MemoryCache) Get(url string) (*core.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.Timestamp) >= c.ttl {
		return nil, false
	}
	return entry, true
}

// Set stores a fresh entry for a URL, evicting the oldest entry when the
// bound is exceeded.
func (c *MemoryCache) Set(url string, result *core.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = &core.CacheEntry{
		URL:       url,
		Result:    result,
		Timestamp: c.now(),
	}

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictOldestLocked()
	}
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := 0
	for key, entry := range c.entries {
		if now.Sub(entry.Timestamp) >= c.ttl {
			delete(c.entries, key)
			expired++
		}
	}

	if expired > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expired))
	}
	return nil
}

// Len returns the current number of entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.Timestamp.Before(oldest) {
			oldestKey = key
			oldest = entry.Timestamp
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
