// Package app assembles the discovery engine from configuration. It is shared
// by the server and worker binaries.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"podcast-discovery/internal/cache"
	"podcast-discovery/internal/config"
	"podcast-discovery/internal/db"
	"podcast-discovery/internal/discovery"
)

// App holds the engine and the resources it owns.
type App struct {
	Store     *db.Store
	Discovery *discovery.Service

	closers []func() error
	logger  zerolog.Logger
}

// New connects to Postgres, opens the configured trending cache and builds
// the discovery service.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{logger: logger}

	conn, err := db.Connect(ctx, cfg.Database.URL, db.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)
	a.Store = db.NewStore(conn)

	store, err := a.openCache(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	trending := cache.NewIDLists("trending", store, cache.BreakerSettings{
		FailureThreshold: cfg.Cache.BreakerFailures,
		OpenTimeout:      cfg.Cache.BreakerTimeout,
	}, logger)

	svc, err := discovery.New(a.Store, a.Store, a.Store, trending, discovery.Config{
		TrendingTTL:      cfg.Cache.TTL,
		TrendingWindow:   cfg.Discovery.TrendingWindow,
		PopularityWindow: cfg.Discovery.PopularityWindow,
		Sources:          cfg.Discovery.Sources,
		BaseURL:          cfg.Server.BaseURL,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Discovery = svc
	return a, nil
}

func (a *App) openCache(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "redis":
		client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, client.Close)
		a.logger.Info().Str("addr", cfg.Redis.Addr).Msg("trending cache: redis")
		return cache.NewRedisStore(client), nil
	case "badger", "memory":
		path := cfg.Cache.BadgerPath
		if cfg.Cache.Driver == "memory" {
			path = ""
		}
		store, err := cache.OpenBadger(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger cache: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.logger.Info().Str("driver", cfg.Cache.Driver).Str("path", path).Msg("trending cache: badger")
		return store, nil
	default:
		a.logger.Info().Msg("trending cache disabled")
		return cache.Noop{}, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close resource")
		}
	}
	a.closers = nil
}

// RedisOpt is the asynq connection for cfg.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
}
