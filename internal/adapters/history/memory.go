package history

import (
	"context"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/core"
)

// MemoryHistory is an in-memory HistoryRepository for the one-shot CLI
// and for tests. Items are held newest first and capped.
type MemoryHistory struct {
	mu         sync.Mutex
	items      []core.ScanHistoryItem
	maxEntries int

	lastResult   *core.ClassificationResult
	lastStoredAt time.Time
}

// NewMemoryHistory creates a new in-memory history.
func NewMemoryHistory(maxEntries int) *MemoryHistory {
	return &MemoryHistory{maxEntries: maxEntries}
}

// Append prepends an item and evicts anything beyond the cap.
func (h *MemoryHistory) Append(ctx context.Context, item core.ScanHistoryItem) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append([]core.ScanHistoryItem{item}, h.items...)
	if h.maxEntries > 0 && len(h.items) > h.maxEntries {
		h.items = h.items[:h.maxEntries]
	}
	return nil
}

// Recent returns up to limit items, newest first.
func (h *MemoryHistory) Recent(ctx context.Context, limit int) ([]core.ScanHistoryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.ScanHistoryItem, n)
	copy(out, h.items[:n])
	return out, nil
}

// SetLastResult stores a transient result for cross-context handoff.
func (h *MemoryHistory) SetLastResult(ctx context.Context, result *core.ClassificationResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastResult = result
	h.lastStoredAt = time.Now()
	return nil
}

// LastResult returns the handoff result if it is younger than maxAge.
func (h *MemoryHistory) LastResult(ctx context.Context, maxAge time.Duration) (*core.ClassificationResult, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lastResult == nil || time.Since(h.lastStoredAt) >= maxAge {
		return nil, false, nil
	}
	return h.lastResult, true, nil
}
