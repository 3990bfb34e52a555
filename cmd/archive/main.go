package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/flightmanagement/flight-archive/internal/archiver"
	"github.com/flightmanagement/flight-archive/internal/cache"
	"github.com/flightmanagement/flight-archive/internal/config"
	"github.com/flightmanagement/flight-archive/internal/consumer"
	"github.com/flightmanagement/flight-archive/internal/handlers"
	"github.com/flightmanagement/flight-archive/internal/kpi"
	"github.com/flightmanagement/flight-archive/internal/logging"
	natsclient "github.com/flightmanagement/flight-archive/internal/messaging/nats"
	"github.com/flightmanagement/flight-archive/internal/notifier"
	"github.com/flightmanagement/flight-archive/internal/repository"
	"github.com/flightmanagement/flight-archive/internal/scheduler"
	"github.com/flightmanagement/flight-archive/internal/server"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to config file")
	migrationsPath := flag.String("migrations", "file://migrations", "migrations source URL")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	if err := run(cfg, *migrationsPath, logger); err != nil {
		logger.Error("service exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, migrationsPath string, logger *slog.Logger) error {
	connString := cfg.Database.Postgres.ConnString()

	// Run database migrations
	logger.Info("running database migrations")
	m, err := migrate.New(migrationsPath, connString)
	if err != nil {
		return fmt.Errorf("initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize repository
	repo, err := repository.NewPostgresRepository(context.Background(), connString)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer repo.Close()

	// Connect to the event bus
	js, err := natsclient.NewJetStreamClient(natsclient.Config{
		URL:           cfg.NATS.URL,
		Name:          cfg.NATS.Name,
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWait,
		Timeout:       cfg.NATS.Timeout,
	})
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer js.Close()

	n := notifier.New(js)

	// Archive service
	archiveSvc := archiver.NewService(repo, n)

	// KPI derivation with optional Redis snapshot cache
	var kpiCache *cache.KpiCache
	if cfg.Redis.Enabled {
		kpiCache = cache.New(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		defer kpiCache.Close()
	}
	kpiSvc := kpi.NewService(archiveSvc, kpiCache, n)

	// Ingestion consumer
	consumeCtx, cancelConsume := context.WithCancel(context.Background())
	defer cancelConsume()

	cons := consumer.New(js, archiveSvc, consumer.Config{
		GroupBase:   cfg.Consumer.GroupBase,
		Concurrency: cfg.Consumer.Concurrency,
		AckWait:     cfg.Consumer.AckWait,
		MaxDeliver:  cfg.Consumer.MaxDeliver,
		NakDelay:    cfg.Consumer.NakDelay,
	})
	if err := cons.Start(consumeCtx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer cons.Stop()

	// Scheduled KPI recompute and retention sweep
	sched := scheduler.New(kpiSvc, archiveSvc, scheduler.Config{
		Enabled:       cfg.Kpi.Enabled,
		Interval:      cfg.Kpi.Interval,
		RetentionDays: cfg.Retention.Days,
	})
	sched.Start()
	defer sched.Stop()

	// HTTP query API
	handler := handlers.NewHandler(archiveSvc, kpiSvc)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("archive service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	// Stop taking new messages, then let in-flight work finish
	cons.Stop()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := js.Drain(); err != nil {
		logger.Warn("event bus drain failed", slog.String("error", err.Error()))
	}

	logger.Info("service stopped gracefully")
	return nil
}
