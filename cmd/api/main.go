package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Waleed-coder079/clinic-receptionist/internal/api/router"
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
	logger.Info("starting clinic-receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	schedMetrics := metrics.NewSchedulingMetrics(registry)

	var repo appointments.Repository
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = appointments.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory appointment store")
		repo = appointments.NewInMemoryRepository()
	}

	opts := []appointments.Option{appointments.WithMetrics(schedMetrics)}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
		cache := appointments.NewAvailabilityCache(redisClient, cfg.AvailabilityCacheTTL, logger)
		opts = append(opts, appointments.WithCache(cache))
	}

	// Calendar sync runs off the outbox, which needs the database. Without
	// one, bookings simply never gain calendar fields.
	if pool != nil {
		outbox := events.NewOutboxStore(pool)
		opts = append(opts, appointments.WithEvents(outbox))

		if cfg.RunSyncInProcess {
			calClient := calendar.NewClient(cfg.CalendarBridgeURL, logger,
				calendar.WithTimeout(cfg.CalendarTimeout),
				calendar.WithDryRun(cfg.CalendarDryRun),
			)
			syncer := calendar.NewSyncer(calClient, repo, logger, schedMetrics)
			deliverer := events.NewDeliverer(outbox, syncer, logger).
				WithBatchSize(int32(cfg.SyncBatchSize)).
				WithInterval(cfg.SyncInterval)
			go deliverer.Start(ctx)
		}
	} else {
		logger.Warn("calendar sync disabled without a database-backed outbox")
	}

	service := appointments.NewService(repo, logger, opts...)
	handler := appointments.NewHandler(service, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: handler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
