package history

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

func openTestHistory(t *testing.T, dir string, maxEntries int) *BadgerHistory {
	t.Helper()
	h, err := NewBadgerHistory(dir, maxEntries, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func item(i int, c core.Classification) core.ScanHistoryItem {
	return core.ScanHistoryItem{
		ID:             fmt.Sprintf("id-%d", i),
		Type:           core.ScanTypeURL,
		Classification: c,
		Score:          float64(i),
		Timestamp:      time.Now(),
	}
}

func TestBadgerHistoryAppendAndRecent(t *testing.T) {
	h := openTestHistory(t, t.TempDir(), 20)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Append(ctx, item(i, core.ClassificationSafe)))
	}

	items, err := h.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "id-4", items[0].ID, "newest first")
	assert.Equal(t, "id-0", items[4].ID)

	limited, err := h.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "id-4", limited[0].ID)
}

func TestBadgerHistoryEnforcesCap(t *testing.T) {
	h := openTestHistory(t, t.TempDir(), 20)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, h.Append(ctx, item(i, core.ClassificationSafe)))
	}

	items, err := h.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 20)
	assert.Equal(t, "id-24", items[0].ID)
	assert.Equal(t, "id-5", items[19].ID, "oldest five evicted")
}

func TestBadgerHistorySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	h, err := NewBadgerHistory(dir, 20, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, h.Append(ctx, item(1, core.ClassificationMalicious)))
	require.NoError(t, h.Close())

	reopened := openTestHistory(t, dir, 20)
	items, err := reopened.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.ClassificationMalicious, items[0].Classification)
}

func TestBadgerLastResultWindow(t *testing.T) {
	h := openTestHistory(t, t.TempDir(), 20)
	ctx := context.Background()

	_, ok, err := h.LastResult(ctx, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "nothing stored yet")

	stored := &core.ClassificationResult{
		Classification: core.ClassificationSuspicious,
		RiskScore:      70,
		AnalysisID:     "an-9",
	}
	require.NoError(t, h.SetLastResult(ctx, stored))

	fresh, ok, err := h.LastResult(ctx, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored.AnalysisID, fresh.AnalysisID)
	assert.Equal(t, stored.Classification, fresh.Classification)

	_, ok, err = h.LastResult(ctx, time.Nanosecond)
	require.NoError(t, err)
	assert.False(t, ok, "stale handoff must not be served")
}

func TestMemoryHistoryMatchesBadgerSemantics(t *testing.T) {
	h := NewMemoryHistory(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Append(ctx, item(i, core.ClassificationSafe)))
	}

	items, err := h.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "id-4", items[0].ID)

	require.NoError(t, h.SetLastResult(ctx, &core.ClassificationResult{AnalysisID: "an-1"}))
	got, ok, err := h.LastResult(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "an-1", got.AnalysisID)
}
