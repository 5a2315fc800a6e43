package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ABCMilioli/api-control/internal/api"
	"github.com/ABCMilioli/api-control/internal/config"
	"github.com/ABCMilioli/api-control/internal/core"
	"github.com/ABCMilioli/api-control/internal/db"
	"github.com/ABCMilioli/api-control/internal/logging"
	"github.com/ABCMilioli/api-control/internal/metrics"
	"github.com/ABCMilioli/api-control/internal/webhook"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPoolMetrics(pool)

	deliverer := webhook.NewDeliverer(logger)
	dispatcher := webhook.NewDispatcher(core.NewSubscriptionService(pool), deliverer, logger,
		cfg.DispatchQueueSize, cfg.DispatchMaxInflight)
	dispatcher.Start(ctx)

	services := core.NewServices(pool, dispatcher, logger)
	srv := api.NewServer(logger, pool, services, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting api-control server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	// Let queued webhook deliveries finish before exiting.
	dispatcher.Close()
}
