package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"podcast-discovery/internal/app"
	"podcast-discovery/internal/config"
	"podcast-discovery/internal/handlers"
	"podcast-discovery/internal/logging"
	"podcast-discovery/internal/middleware"
	"podcast-discovery/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise discovery")
	}
	defer a.Close()

	if cfg.Cache.Driver == "redis" && len(cfg.Warm.Limits) > 0 {
		client := asynq.NewClient(app.RedisOpt(cfg))
		if _, err := tasks.EnqueueWarmTrending(client, cfg.Warm.Limits, asynq.Unique(cfg.Warm.Interval)); err != nil {
			logger.Warn().Err(err).Msg("could not enqueue initial trending warm-up")
		}
		client.Close()
	}

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, logger)
	if cfg.Auth.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET is not set, all requests are anonymous")
	}
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst, logger)

	h := handlers.New(a.Discovery, a.Store, logger)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Router(auth, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("commit", CommitSHA).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server stopped")
		return
	}
	logger.Info().Msg("server stopped")
}
