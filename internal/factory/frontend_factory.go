package factory

import (
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/frontend"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/ports"
)

// FrontendFactory creates the daemon's user-facing surfaces
type FrontendFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ScanService
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, service *core.ScanService) *FrontendFactory {
	return &FrontendFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateSMTPFrontend creates the SMTP content-filter frontend.
func (f *FrontendFactory) CreateSMTPFrontend() ports.Frontend {
	return frontend.NewSMTPFrontend(
		f.service,
		f.logger,
		f.cfg.GetString("smtp.listen_address"),
		f.cfg.GetBool("smtp.block_malicious"),
		f.cfg.GetString("smtp.headers.status"),
		f.cfg.GetString("smtp.headers.score"),
		f.cfg.GetString("smtp.headers.reason"),
		f.cfg.GetString("smtp.relay_address"),
		f.cfg.GetInt("smtp.relay_port"),
		f.cfg.GetBool("smtp.relay_enabled"),
	)
}
