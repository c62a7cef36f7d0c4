// Package cli provides the bootstrap shared by cmd/hotelpro,
// cmd/hotelpro-worker and cmd/hotelpro-report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hotelpro/internal/config"
	"hotelpro/internal/ledger"
	applog "hotelpro/internal/log"
	"hotelpro/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads .env and the environment config, installs the default
// logger for component, and exits the process when the config is invalid.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenLedger loads the snapshot file over the demo data (SEED_DEMO) or an
// empty ledger, and returns a store that saves back to the same file.
func OpenLedger(cfg *config.Config, now time.Time, logger *applog.Logger) (*ledger.Store, error) {
	file := ledger.NewSnapshotFile(cfg.SnapshotPath)
	defaults := ledger.Snapshot{}
	if cfg.SeedDemo {
		defaults = ledger.DemoSnapshot(now)
	}
	snap, err := file.Load(defaults)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", file.Path(), err)
	}
	logger.Info("Ledger loaded",
		"path", file.Path(),
		"income", len(snap.Income),
		"expenses", len(snap.Expenses),
		"staff", len(snap.Staff),
		"seed_demo", cfg.SeedDemo,
	)
	return ledger.New(snap, ledger.WithPersister(file), ledger.WithLogger(logger.Logger)), nil
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when cleanup has finished.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
