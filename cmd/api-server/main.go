package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/civisched/appointment-scheduling/internal/api"
	"github.com/civisched/appointment-scheduling/internal/auth"
	"github.com/civisched/appointment-scheduling/internal/config"
	"github.com/civisched/appointment-scheduling/internal/db"
	"github.com/civisched/appointment-scheduling/internal/directory"
	redisclient "github.com/civisched/appointment-scheduling/internal/redis"
	"github.com/civisched/appointment-scheduling/internal/scheduling"
)

const version = "0.3.0"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	logger.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PGMaxConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.Connect(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	// Reference data snapshot
	dirCtx, cancelDir := context.WithTimeout(rootCtx, 10*time.Second)
	dir, err := directory.NewPgDirectory(dirCtx, pgPool)
	cancelDir()
	if err != nil {
		logger.Fatal().Err(err).Msg("directory snapshot load error")
	}

	repo := scheduling.NewPgRepository(pgPool)
	notifier := redisclient.NewStreamNotifier(rdb, cfg.NotifyStream)

	availability := scheduling.NewAvailabilityService(repo, dir)
	booking := scheduling.NewBookingService(repo, dir, notifier, logger)
	query := scheduling.NewQueryService(repo)

	metrics := api.NewMetrics(prometheus.DefaultRegisterer)
	handlers := api.NewHandlers(availability, booking, query, dir, metrics, logger)

	router := api.NewRouter(api.RouterConfig{
		Handlers: handlers,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Metrics:  metrics,
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutting down api-server")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
