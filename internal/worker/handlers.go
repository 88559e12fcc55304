package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"podcast-discovery/internal/discovery"
	"podcast-discovery/pkg/tasks"
)

// TrendingRefresher recomputes and caches one trending list.
type TrendingRefresher interface {
	RefreshTrending(ctx context.Context, limit int) (int, error)
}

type TaskHandler struct {
	trending TrendingRefresher
	logger   zerolog.Logger
}

func NewTaskHandler(trending TrendingRefresher, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		trending: trending,
		logger:   logger.With().Str("component", "worker").Logger(),
	}
}

// HandleWarmTrendingTask refreshes every requested trending size. Each size
// is attempted; the task fails if any of them failed so asynq retries it.
func (h *TaskHandler) HandleWarmTrendingTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.WarmTrendingPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	limits := p.Limits
	if len(limits) == 0 {
		limits = []int{discovery.DefaultTrendingSize}
	}

	var errs []error
	for _, limit := range limits {
		n, err := h.trending.RefreshTrending(ctx, limit)
		if err != nil {
			h.logger.Error().Err(err).Int("limit", limit).Msg("failed to warm trending cache")
			errs = append(errs, fmt.Errorf("limit %d: %w", limit, err))
			continue
		}
		h.logger.Info().Int("limit", limit).Int("podcasts", n).Msg("warmed trending cache")
	}
	return errors.Join(errs...)
}
