package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/phishguard/phishguard/internal/core"
)

// maxBatchSize bounds the number of URLs sent in one batch request.
const maxBatchSize = 50

// Client talks to the PhishGuard classification backend over its REST API.
// All calls ride a cookie-based session. Single-URL lookups consult the
// injected result cache before touching the network; batch and text
// analysis always go to the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      core.ResultCache
	logger     *zap.Logger
}

// NewClient creates a backend client with its own cookie jar.
func NewClient(baseURL string, timeout time.Duration, cache core.ResultCache, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		cache:  cache,
		logger: logger,
	}, nil
}

// CheckURL classifies a single URL, serving cached verdicts while they
// are within their TTL window.
func (c *Client) CheckURL(ctx context.Context, url string) (*core.ClassificationResult, error) {
	if c.cache != nil {
		if entry, ok := c.cache.Get(url); ok {
			c.logger.Debug("Cache hit for URL", zap.String("url", url))
			return entry.Result, nil
		}
	}

	var result core.ClassificationResult
	if err := c.post(ctx, "/api/extension/check-url", map[string]string{"url": url}, &result); err != nil {
		return nil, err
	}
	result.AnalyzedAt = time.Now()
	result.Source = "backend"

	if c.cache != nil {
		c.cache.Set(url, &result)
	}
	return &result, nil
}

// CheckURLs classifies a batch of URLs. The outbound payload is truncated
// to the first 50 entries to bound request size; there is no batch-level
// caching.
func (c *Client) CheckURLs(ctx context.Context, urls []string) (*core.BatchResult, error) {
	if len(urls) > maxBatchSize {
		c.logger.Debug("Truncating URL batch",
			zap.Int("requested", len(urls)),
			zap.Int("sent", maxBatchSize))
		urls = urls[:maxBatchSize]
	}

	var result core.BatchResult
	if err := c.post(ctx, "/api/extension/check-urls", map[string][]string{"urls": urls}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeText classifies a free-text blob with optional subject and
// sender metadata. Content is typically unique per call, so no caching.
func (c *Client) AnalyzeText(ctx context.Context, content, subject, sender string) (*core.ClassificationResult, error) {
	payload := map[string]string{"content": content}
	if subject != "" {
		payload["subject"] = subject
	}
	if sender != "" {
		payload["sender"] = sender
	}

	var result core.ClassificationResult
	if err := c.post(ctx, "/api/extension/analyze-quick", payload, &result); err != nil {
		return nil, err
	}
	result.AnalyzedAt = time.Now()
	result.Source = "backend"
	return &result, nil
}

// Status probes backend connectivity and session validity.
func (c *Client) Status(ctx context.Context) (bool, error) {
	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := c.get(ctx, "/api/extension/status", &resp); err != nil {
		return false, err
	}
	return resp.Authenticated, nil
}

// Login establishes a cookie session for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*core.SessionUser, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp struct {
		User core.SessionUser `json:"user"`
	}
	if err := c.post(ctx, "/api/auth/login", payload, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout tears down the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/auth/logout", struct{}{}, nil)
}

// Me returns the account behind the current session.
func (c *Client) Me(ctx context.Context) (*core.SessionUser, error) {
	var user core.SessionUser
	if err := c.get(ctx, "/api/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SubmitFeedback reports a user's corrected classification for a prior
// analysis back to the backend.
func (c *Client) SubmitFeedback(ctx context.Context, analysisID string, userClassification core.Classification) (*core.FeedbackAck, error) {
	payload := map[string]string{
		"analysis_id":         analysisID,
		"user_classification": string(userClassification),
	}
	var ack core.FeedbackAck
	if err := c.post(ctx, "/api/feedback/submit", payload, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
