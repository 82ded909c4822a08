package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/backend"
	"github.com/phishguard/phishguard/internal/adapters/openai"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
)

// ClassifierFactory creates classifiers
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	cache         core.ResultCache
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(
	cfg *config.Config,
	logger *zap.Logger,
	cache core.ResultCache,
	textProcessor *utils.TextProcessor,
) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		cache:         cache,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a classifier based on the configuration. The
// REST backend is the default; the direct LLM mode exists for deployments
// with no backend of their own.
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	classifierConfig := f.cfg.GetClassifier()

	switch classifierConfig.Provider {
	case "backend":
		timeout, err := f.cfg.GetDuration("backend.timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid backend timeout: %w", err)
		}
		return backend.NewClient(f.cfg.GetBackend().URL, timeout, f.cache, f.logger)
	case "openai":
		openaiConfig := f.cfg.GetOpenAI()
		return openai.NewClassifier(
			openaiConfig.APIKey,
			openaiConfig.ModelName,
			openaiConfig.MaxTokens,
			openaiConfig.Temperature,
			openaiConfig.TopP,
			f.cfg.GetScanner().MaxBodySize,
			f.textProcessor,
			f.logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", classifierConfig.Provider)
	}
}
