package factory

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/history"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
)

// HistoryFactory creates scan history repositories based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryRepository creates a history repository based on the
// configuration
func (f *HistoryFactory) CreateHistoryRepository() (core.HistoryRepository, error) {
	maxEntries := f.cfg.GetInt("history.max_entries")

	switch historyType := f.cfg.GetString("history.type"); historyType {
	case "memory":
		return history.NewMemoryHistory(maxEntries), nil
	case "badger":
		path := f.cfg.GetString("history.path")
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		return history.NewBadgerHistory(path, maxEntries, f.logger)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyType)
	}
}
