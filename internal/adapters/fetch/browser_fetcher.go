package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// BrowserFetcher retrieves pages through a headless browser so that
// JavaScript-rendered DOMs (all three webmail clients) come back fully
// populated. A browser is launched per fetch and torn down afterwards.
type BrowserFetcher struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewBrowserFetcher creates a new headless-browser fetcher.
func NewBrowserFetcher(timeout time.Duration, logger *zap.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		timeout: timeout,
		logger:  logger,
	}
}

// Fetch renders pageURL in a headless browser and parses the resulting DOM.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (doc *goquery.Document, err error) {
	path, exists := launcher.LookPath()
	if !exists {
		return nil, errors.New("browser executable not found")
	}

	controlURL, err := launcher.New().Bin(path).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing browser: %w", closeErr)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	pageCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	page = page.Context(pageCtx)

	if err := page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("page load timed out for %s: %w", pageURL, pageCtx.Err())
		}
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered DOM: %w", err)
	}

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered DOM: %w", err)
	}

	f.logger.Debug("Rendered page", zap.String("url", pageURL))
	return doc, nil
}
