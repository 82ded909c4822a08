package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/history"
	"github.com/phishguard/phishguard/internal/core"
)

// fakeClassifier returns canned verdicts keyed by URL, or a fixed error.
type fakeClassifier struct {
	verdicts map[string]core.Classification
	batch    *core.BatchResult
	err      error
}

func (f *fakeClassifier) CheckURL(_ context.Context, url string) (*core.ClassificationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.verdicts[url]
	if !ok {
		c = core.ClassificationSafe
	}
	return &core.ClassificationResult{Classification: c, RiskScore: 42}, nil
}

func (f *fakeClassifier) CheckURLs(_ context.Context, urls []string) (*core.BatchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

func (f *fakeClassifier) AnalyzeText(_ context.Context, content, subject, sender string) (*core.ClassificationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.ClassificationResult{Classification: core.ClassificationSuspicious, RiskScore: 61}, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, _, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func newService(classifier core.Classifier, notifier core.Notifier, notify bool) *core.ScanService {
	return core.NewScanService(classifier, history.NewMemoryHistory(20), notifier, zap.NewNop(), notify)
}

func TestScanURLRecordsHistory(t *testing.T) {
	svc := newService(&fakeClassifier{verdicts: map[string]core.Classification{
		"https://evil.example.org": core.ClassificationMalicious,
	}}, nil, false)

	result, err := svc.ScanURL(context.Background(), "https://evil.example.org")
	require.NoError(t, err)
	assert.Equal(t, core.ClassificationMalicious, result.Classification)

	items, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.ScanTypeURL, items[0].Type)
	assert.Equal(t, core.ClassificationMalicious, items[0].Classification)
	assert.NotEmpty(t, items[0].ID)
}

func TestHistoryCappedNewestFirst(t *testing.T) {
	svc := newService(&fakeClassifier{verdicts: map[string]core.Classification{}}, nil, false)

	for i := 0; i < 25; i++ {
		_, err := svc.ScanURL(context.Background(), fmt.Sprintf("https://example.com/%d", i))
		require.NoError(t, err)
	}

	items, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 20)

	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].Timestamp.After(items[i-1].Timestamp), "history must be newest first")
	}
}

func TestHistoryLimit(t *testing.T) {
	svc := newService(&fakeClassifier{}, nil, false)
	for i := 0; i < 10; i++ {
		_, err := svc.ScanURL(context.Background(), "https://example.com/")
		require.NoError(t, err)
	}

	items, err := svc.History(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestScanFailureLeavesHistoryUntouched(t *testing.T) {
	svc := newService(&fakeClassifier{err: errors.New("backend down")}, nil, false)

	_, err := svc.ScanURL(context.Background(), "https://example.com/")
	require.Error(t, err)

	items, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestScanPageAggregatesWorstVerdict(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newService(&fakeClassifier{batch: &core.BatchResult{
		Summary: core.BatchSummary{Safe: 1, Malicious: 1, Total: 2},
		Results: []core.URLResult{
			{URL: "https://ok.example.com", Classification: core.ClassificationSafe, RiskScore: 3},
			{URL: "https://evil.example.org", Classification: core.ClassificationMalicious, RiskScore: 97},
		},
	}}, notifier, true)

	links := []core.ExtractedLink{
		{URL: "https://ok.example.com"},
		{URL: "https://evil.example.org"},
	}
	batch, err := svc.ScanPage(context.Background(), "https://page.example.com", links)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Summary.Total)

	items, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.ScanTypePage, items[0].Type)
	assert.Equal(t, core.ClassificationMalicious, items[0].Classification)
	assert.Equal(t, 97.0, items[0].Score)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "1 risky link")
}

func TestNotificationsGated(t *testing.T) {
	classifier := &fakeClassifier{verdicts: map[string]core.Classification{
		"https://evil.example.org": core.ClassificationMalicious,
		"https://ok.example.com":   core.ClassificationSafe,
	}}

	t.Run("disabled", func(t *testing.T) {
		notifier := &fakeNotifier{}
		svc := newService(classifier, notifier, false)
		_, err := svc.ScanURL(context.Background(), "https://evil.example.org")
		require.NoError(t, err)
		assert.Empty(t, notifier.messages)
	})

	t.Run("safe verdicts stay quiet", func(t *testing.T) {
		notifier := &fakeNotifier{}
		svc := newService(classifier, notifier, true)
		_, err := svc.ScanURL(context.Background(), "https://ok.example.com")
		require.NoError(t, err)
		assert.Empty(t, notifier.messages)
	})

	t.Run("risky verdicts notify", func(t *testing.T) {
		notifier := &fakeNotifier{}
		svc := newService(classifier, notifier, true)
		_, err := svc.ScanURL(context.Background(), "https://evil.example.org")
		require.NoError(t, err)
		require.Len(t, notifier.messages, 1)
		assert.Contains(t, notifier.messages[0], "malicious")
	})
}

func TestBadgeMapping(t *testing.T) {
	tests := []struct {
		name   string
		result *core.ClassificationResult
		err    error
		state  core.BadgeState
		text   string
	}{
		{"error wins", &core.ClassificationResult{}, errors.New("boom"), core.BadgeError, "ERR"},
		{"no result yet", nil, nil, core.BadgeIdle, ""},
		{"safe clears badge", &core.ClassificationResult{Classification: core.ClassificationSafe}, nil, core.BadgeSafe, ""},
		{"suspicious", &core.ClassificationResult{Classification: core.ClassificationSuspicious}, nil, core.BadgeSuspicious, "!"},
		{"malicious", &core.ClassificationResult{Classification: core.ClassificationMalicious}, nil, core.BadgeMalicious, "!!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := core.BadgeFor(tc.result, tc.err)
			assert.Equal(t, tc.state, state)
			assert.Equal(t, tc.text, state.Text())
		})
	}

	assert.Equal(t, "...", core.BadgeLoading.Text())
}
