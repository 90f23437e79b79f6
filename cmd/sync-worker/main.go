// The sync-worker drains the calendar outbox on its own, for deployments that
// keep calendar mirroring out of the API process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Waleed-coder079/clinic-receptionist/internal/appointments"
	"github.com/Waleed-coder079/clinic-receptionist/internal/calendar"
	appconfig "github.com/Waleed-coder079/clinic-receptionist/internal/config"
	"github.com/Waleed-coder079/clinic-receptionist/internal/events"
	"github.com/Waleed-coder079/clinic-receptionist/internal/observability/metrics"
	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting calendar sync worker", "env", cfg.Env)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required for the sync worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	schedMetrics := metrics.NewSchedulingMetrics(prometheus.NewRegistry())
	repo := appointments.NewPostgresRepository(pool)
	calClient := calendar.NewClient(cfg.CalendarBridgeURL, logger,
		calendar.WithTimeout(cfg.CalendarTimeout),
		calendar.WithDryRun(cfg.CalendarDryRun),
	)
	syncer := calendar.NewSyncer(calClient, repo, logger, schedMetrics)

	deliverer := events.NewDeliverer(events.NewOutboxStore(pool), syncer, logger).
		WithBatchSize(int32(cfg.SyncBatchSize)).
		WithInterval(cfg.SyncInterval)

	deliverer.Start(ctx)
	logger.Info("sync worker stopped")
}
