package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"hotelpro/internal/amqp"
	"hotelpro/internal/cli"
	applog "hotelpro/internal/log"
	"hotelpro/internal/worker"
)

const pruneInterval = 24 * time.Hour

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting hotelpro-worker", "queue", cfg.AMQPQueue, "db_path", cfg.SQLiteDBPath)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(repo, 0)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// drop mutation ids past retention once at startup, then daily
	if err := syncWorker.Prune(ctx, time.Now()); err != nil {
		logger.Warn("Startup prune failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeWithReconnect(gctx, syncWorker.HandleMutation)
	})
	g.Go(func() error {
		syncWorker.RunPruner(gctx, pruneInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
