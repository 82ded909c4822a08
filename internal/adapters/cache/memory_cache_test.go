package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/core"
)

func result(classification core.Classification) *core.ClassificationResult {
	return &core.ClassificationResult{Classification: classification, RiskScore: 10}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache(5*time.Minute, 0, 0, zap.NewNop())
	defer c.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	c.Set("https://example.com/a", result(core.ClassificationSafe))

	entry, ok := c.Get("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, core.ClassificationSafe, entry.Result.Classification)

	// One second short of the TTL is still a hit.
	now = now.Add(5*time.Minute - time.Second)
	_, ok = c.Get("https://example.com/a")
	assert.True(t, ok)

	// Exactly at the TTL the entry is stale.
	now = now.Add(time.Second)
	_, ok = c.Get("https://example.com/a")
	assert.False(t, ok)
}

func TestMemoryCacheExactURLKeying(t *testing.T) {
	c := NewMemoryCache(5*time.Minute, 0, 0, zap.NewNop())
	defer c.Stop()

	c.Set("https://example.com/a", result(core.ClassificationSafe))

	_, ok := c.Get("https://example.com/a/")
	assert.False(t, ok, "trailing slash is a different key")
}

func TestMemoryCacheEvictsOldestWhenBounded(t *testing.T) {
	c := NewMemoryCache(time.Hour, 3, 0, zap.NewNop())
	defer c.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("https://example.com/%d", i), result(core.ClassificationSafe))
		now = now.Add(time.Second)
	}

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("https://example.com/0")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("https://example.com/3")
	assert.True(t, ok)
}

func TestMemoryCacheCleanupRemovesExpired(t *testing.T) {
	c := NewMemoryCache(5*time.Minute, 0, 0, zap.NewNop())
	defer c.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	c.Set("https://example.com/old", result(core.ClassificationMalicious))
	now = now.Add(10 * time.Minute)
	c.Set("https://example.com/new", result(core.ClassificationSafe))

	require.NoError(t, c.Cleanup(context.Background()))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("https://example.com/new")
	assert.True(t, ok)
}

func TestMemoryCacheStopIsIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0, time.Minute, zap.NewNop())
	c.Stop()
	c.Stop()
}
