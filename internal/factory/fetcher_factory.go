package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/fetch"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/ports"
)

// FetcherFactory creates page fetchers based on configuration
type FetcherFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFetcherFactory creates a new fetcher factory
func NewFetcherFactory(cfg *config.Config, logger *zap.Logger) *FetcherFactory {
	return &FetcherFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFetcher creates a page fetcher based on the configuration
func (f *FetcherFactory) CreateFetcher() (ports.PageFetcher, error) {
	timeout, err := f.cfg.GetDuration("fetch.timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid fetch timeout: %w", err)
	}

	switch mode := f.cfg.GetString("fetch.mode"); mode {
	case "http":
		return fetch.NewHTTPFetcher(timeout, f.logger), nil
	case "browser":
		return fetch.NewBrowserFetcher(timeout, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported fetch mode: %s", mode)
	}
}
