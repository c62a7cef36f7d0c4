package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"hotelpro/internal/auth"
	"hotelpro/internal/backend"
	"hotelpro/internal/cli"
	apphttp "hotelpro/internal/http"
	applog "hotelpro/internal/log"
	"hotelpro/internal/services"
	"hotelpro/internal/sheets"
	gsheet "hotelpro/internal/sheets/google"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	store, err := cli.OpenLedger(cfg, time.Now(), logger)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	remote, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize remote store", applog.FieldError, err, "backend", cfg.RemoteBackend)
		os.Exit(1)
	}

	syncSvc := services.NewSyncService(remote.Store, store, cfg.SyncTimeout)
	ledgerSvc := services.NewLedgerService(store, syncSvc)

	retry := services.NewRetryProcessor(syncSvc, services.RetryProcessorConfig{Interval: cfg.SyncRetryInterval})

	var (
		verifier *auth.Verifier
		monitor  *auth.Monitor
	)
	if cfg.AuthJWTSecret != "" {
		verifier = auth.NewVerifier(cfg.AuthJWTSecret)
		monitor = auth.NewMonitor()
		// a fresh sign-in is the cue to push what failed while signed out
		monitor.Subscribe(func(s auth.Session, ok bool) {
			if !ok {
				logger.Info("Session ended")
				return
			}
			go func() {
				rep := retry.RunOnce(context.Background())
				logger.Info("Retried failed syncs after sign-in", "user_id", s.UserID,
					"attempted", rep.Attempted, "succeeded", rep.Succeeded)
			}()
		})
	}

	var reports sheets.ReportWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		reports = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Ledger:        ledgerSvc,
		Reports:       reports,
		Verifier:      verifier,
		Monitor:       monitor,
		AuthRequired:  cfg.AuthRequired,
		SummaryWindow: cfg.SummaryWindow,
		Logger:        logger.WithComponent(applog.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := retry.Stop(shutdownCtx); err != nil {
			logger.Warn("Retry processor stop error", applog.FieldError, err)
		}
		if err := store.Flush(); err != nil {
			logger.Error("Failed to save ledger snapshot", applog.FieldError, err)
		}
		if err := remote.Close(); err != nil {
			logger.Warn("Remote store close error", applog.FieldError, err)
		}
	})

	if err := retry.Start(ctx); err != nil {
		logger.Error("Failed to start retry processor", applog.FieldError, err)
	}

	logger.Info("Starting hotelpro server",
		"port", cfg.Port,
		"backend", cfg.RemoteBackend,
		"auth_required", cfg.AuthRequired,
		"sheets_export", reports != nil,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
