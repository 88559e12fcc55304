package main

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"podcast-discovery/internal/app"
	"podcast-discovery/internal/config"
	"podcast-discovery/internal/logging"
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

	scheduler := asynq.NewScheduler(
		app.RedisOpt(cfg),
		&asynq.SchedulerOpts{},
	)

	schedule, _, err := tasks.RegisterWarmTrending(scheduler, cfg.Warm.Interval, cfg.Warm.Limits)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not register task")
	}

	logger.Info().Str("schedule", schedule).Ints("limits", cfg.Warm.Limits).Str("commit", CommitSHA).Msg("scheduler starting")
	if err := scheduler.Run(); err != nil {
		logger.Fatal().Err(err).Msg("could not run scheduler")
	}
}
