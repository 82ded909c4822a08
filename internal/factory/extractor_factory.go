package factory

import (
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/extract"
	"github.com/phishguard/phishguard/internal/utils"
	"github.com/phishguard/phishguard/internal/whitelist"
)

// ExtractorFactory creates the DOM extractors
type ExtractorFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractorFactory creates a new extractor factory
func NewExtractorFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ExtractorFactory {
	return &ExtractorFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLinkExtractor creates the page link extractor with its safe-domain
// allow-list. An empty configured list falls back to the built-in one.
func (f *ExtractorFactory) CreateLinkExtractor() *extract.LinkExtractor {
	domains := f.cfg.GetScanner().SafeDomains
	if len(domains) == 0 {
		domains = whitelist.DefaultSafeDomains
	}
	return extract.NewLinkExtractor(whitelist.NewChecker(domains, f.logger), f.logger)
}

// CreateEmailExtractor creates the webmail email extractor.
func (f *ExtractorFactory) CreateEmailExtractor() *extract.EmailExtractor {
	scanner := f.cfg.GetScanner()
	return extract.NewEmailExtractor(
		f.textProcessor,
		scanner.MaxBodySize,
		scanner.MaxLinks,
		scanner.MaxLinkText,
		f.logger,
	)
}
