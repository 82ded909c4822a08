package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/frontend"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/extract"
	"github.com/phishguard/phishguard/internal/factory"
	"github.com/phishguard/phishguard/internal/logging"
	"github.com/phishguard/phishguard/internal/ports"
	"github.com/phishguard/phishguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFetcherFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewExtractorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register result cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ResultCache, error) {
		return f.CreateResultCache()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register page fetcher
	if err := container.Provide(func(f *factory.FetcherFactory) (ports.PageFetcher, error) {
		return f.CreateFetcher()
	}); err != nil {
		return nil, err
	}

	// Register extractors
	if err := container.Provide(func(f *factory.ExtractorFactory) *extract.LinkExtractor {
		return f.CreateLinkExtractor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ExtractorFactory) *extract.EmailExtractor {
		return f.CreateEmailExtractor()
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(logger *zap.Logger) core.Notifier {
		return frontend.NewLogNotifier(logger)
	}); err != nil {
		return nil, err
	}

	// Register scan service
	if err := container.Provide(func(
		classifier core.Classifier,
		history core.HistoryRepository,
		notifier core.Notifier,
		logger *zap.Logger,
		cfg *config.Config,
	) *core.ScanService {
		return core.NewScanService(classifier, history, notifier, logger,
			cfg.GetBool("notifications.enabled"))
	}); err != nil {
		return nil, err
	}

	// Register SMTP frontend
	if err := container.Provide(func(f *factory.FrontendFactory) ports.Frontend {
		return f.CreateSMTPFrontend()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
