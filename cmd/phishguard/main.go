package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/di"
	"github.com/phishguard/phishguard/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	smtpFrontend ports.Frontend,
	cacheRepo core.ResultCache,
	historyRepo core.HistoryRepository,
) error {
	defer logger.Sync()

	if cfg.GetBool("monitoring.passive") {
		if err := smtpFrontend.Start(); err != nil {
			logger.Fatal("Failed to start SMTP frontend", zap.Error(err))
			return err
		}
	} else {
		logger.Info("Passive monitoring disabled; no SMTP frontend started")
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if cfg.GetBool("monitoring.passive") {
		if err := smtpFrontend.Stop(); err != nil {
			logger.Error("Failed to stop SMTP frontend", zap.Error(err))
		}
	}

	// Stop the cache if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	// Close the history store if needed
	if closer, ok := historyRepo.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close history store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
