package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScanService is the core orchestrator: it routes extracted content to the
// classifier, keeps the rolling history, and fires notifications for risky
// verdicts. Caching of single-URL verdicts is the classifier's concern.
type ScanService struct {
	classifier    Classifier
	history       HistoryRepository
	notifier      Notifier
	logger        *zap.Logger
	notifyEnabled bool
}

// NewScanService creates a new scan service.
func NewScanService(
	classifier Classifier,
	history HistoryRepository,
	notifier Notifier,
	logger *zap.Logger,
	notifyEnabled bool,
) *ScanService {
	return &ScanService{
		classifier:    classifier,
		history:       history,
		notifier:      notifier,
		logger:        logger,
		notifyEnabled: notifyEnabled,
	}
}

// ScanURL classifies a single URL and records the verdict.
func (s *ScanService) ScanURL(ctx context.Context, url string) (*ClassificationResult, error) {
	result, err := s.classifier.CheckURL(ctx, url)
	if err != nil {
		return nil, err
	}

	s.record(ctx, ScanTypeURL, result.Classification, result.RiskScore)
	s.maybeNotify(ctx, result, fmt.Sprintf("Link flagged as %s", result.Classification))
	return result, nil
}

// ScanPage batch-classifies the external links found on a page. The
// overall verdict is the worst per-link verdict in the batch.
func (s *ScanService) ScanPage(ctx context.Context, pageURL string, links []ExtractedLink) (*BatchResult, error) {
	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}

	batch, err := s.classifier.CheckURLs(ctx, urls)
	if err != nil {
		return nil, err
	}

	worst := ClassificationSafe
	score := 0.0
	for _, r := range batch.Results {
		if rank(r.Classification) > rank(worst) {
			worst = r.Classification
		}
		if r.RiskScore > score {
			score = r.RiskScore
		}
	}

	s.logger.Info("Page scan complete",
		zap.String("page", pageURL),
		zap.Int("links", len(urls)),
		zap.Int("suspicious", batch.Summary.Suspicious),
		zap.Int("malicious", batch.Summary.Malicious))

	s.record(ctx, ScanTypePage, worst, score)
	if worst != ClassificationSafe {
		s.maybeNotify(ctx, &ClassificationResult{Classification: worst, RiskScore: score},
			fmt.Sprintf("Page contains %d risky link(s)", batch.Summary.Suspicious+batch.Summary.Malicious))
	}
	return batch, nil
}

// ScanEmail classifies an extracted email via text analysis, carrying the
// subject and sender address as metadata for the classifier.
func (s *ScanService) ScanEmail(ctx context.Context, email *ExtractedEmail) (*ClassificationResult, error) {
	result, err := s.classifier.AnalyzeText(ctx, email.Body, email.Subject, email.SenderEmail)
	if err != nil {
		return nil, err
	}

	s.record(ctx, ScanTypeEmail, result.Classification, result.RiskScore)
	s.maybeNotify(ctx, result, fmt.Sprintf("Email flagged as %s", result.Classification))
	return result, nil
}

// ScanText classifies a raw text blob, the fallback path when structured
// email extraction finds nothing usable.
func (s *ScanService) ScanText(ctx context.Context, content, subject, sender string) (*ClassificationResult, error) {
	result, err := s.classifier.AnalyzeText(ctx, content, subject, sender)
	if err != nil {
		return nil, err
	}

	s.record(ctx, ScanTypeContent, result.Classification, result.RiskScore)
	s.maybeNotify(ctx, result, fmt.Sprintf("Content flagged as %s", result.Classification))
	return result, nil
}

// History returns the rolling scan log, newest first.
func (s *ScanService) History(ctx context.Context, limit int) ([]ScanHistoryItem, error) {
	return s.history.Recent(ctx, limit)
}

// HandoffResult stores a verdict for a short-lived cross-context pickup.
func (s *ScanService) HandoffResult(ctx context.Context, result *ClassificationResult) error {
	return s.history.SetLastResult(ctx, result)
}

// PickupResult returns the handed-off verdict if it is still fresh.
func (s *ScanService) PickupResult(ctx context.Context, maxAge time.Duration) (*ClassificationResult, bool, error) {
	return s.history.LastResult(ctx, maxAge)
}

func (s *ScanService) record(ctx context.Context, typ ScanType, c Classification, score float64) {
	item := ScanHistoryItem{
		ID:             uuid.NewString(),
		Type:           typ,
		Classification: c,
		Score:          score,
		Timestamp:      time.Now(),
	}
	if err := s.history.Append(ctx, item); err != nil {
		s.logger.Error("Failed to append scan history", zap.Error(err))
	}
}

func (s *ScanService) maybeNotify(ctx context.Context, result *ClassificationResult, message string) {
	if !s.notifyEnabled || s.notifier == nil {
		return
	}
	if result.Classification != ClassificationSuspicious && result.Classification != ClassificationMalicious {
		return
	}
	if err := s.notifier.Notify(ctx, "PhishGuard alert", message); err != nil {
		s.logger.Error("Failed to deliver notification", zap.Error(err))
	}
}

func rank(c Classification) int {
	switch c {
	case ClassificationMalicious:
		return 2
	case ClassificationSuspicious:
		return 1
	default:
		return 0
	}
}
