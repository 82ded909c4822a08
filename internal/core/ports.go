package core

import (
	"context"
	"time"
)

// Classifier defines the interface for turning URLs and text into
// classification verdicts. The REST backend is the primary implementation;
// a direct LLM client can stand in where no backend is deployed.
type Classifier interface {
	// CheckURL classifies a single URL.
	CheckURL(ctx context.Context, url string) (*ClassificationResult, error)

	// CheckURLs classifies a batch of URLs in one call.
	CheckURLs(ctx context.Context, urls []string) (*BatchResult, error)

	// AnalyzeText classifies a free-text blob, with optional subject and
	// sender metadata.
	AnalyzeText(ctx context.Context, content, subject, sender string) (*ClassificationResult, error)
}

// ResultCache defines the interface for memoizing single-URL verdicts.
type ResultCache interface {
	// Get returns the entry for a URL, or false if absent or expired.
	Get(url string) (*CacheEntry, bool)

	// Set stores a fresh entry for a URL.
	Set(url string, result *ClassificationResult)

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}

// HistoryRepository defines the interface for the rolling scan log.
type HistoryRepository interface {
	// Append prepends an item and evicts anything beyond the cap.
	Append(ctx context.Context, item ScanHistoryItem) error

	// Recent returns up to limit items, newest first.
	Recent(ctx context.Context, limit int) ([]ScanHistoryItem, error)

	// SetLastResult stores a transient result for cross-context handoff.
	SetLastResult(ctx context.Context, result *ClassificationResult) error

	// LastResult returns the handoff result if it is younger than maxAge.
	LastResult(ctx context.Context, maxAge time.Duration) (*ClassificationResult, bool, error)
}

// Notifier delivers user-facing alerts for risky verdicts.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}
