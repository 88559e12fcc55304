package tasks

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const (
	TypeWarmTrending = "trending:warm"
)

// WarmTrendingPayload lists the trending list sizes to recompute.
type WarmTrendingPayload struct {
	Limits []int
}

func NewWarmTrendingTask(limits []int) (*asynq.Task, error) {
	payload, err := json.Marshal(WarmTrendingPayload{Limits: limits})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWarmTrending, payload), nil
}

// EnqueueWarmTrending schedules an immediate warm of the given trending sizes.
func EnqueueWarmTrending(client TaskEnqueuer, limits []int, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	task, err := NewWarmTrendingTask(limits)
	if err != nil {
		return nil, fmt.Errorf("failed to create warm task: %w", err)
	}
	info, err := client.Enqueue(task, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue warm task: %w", err)
	}
	return info, nil
}

// RegisterWarmTrending registers a periodic warm of the given trending sizes
// every interval. It returns the schedule and the asynq entry id.
func RegisterWarmTrending(scheduler TaskRegistrar, interval time.Duration, limits []int) (string, string, error) {
	task, err := NewWarmTrendingTask(limits)
	if err != nil {
		return "", "", fmt.Errorf("failed to create warm task: %w", err)
	}
	schedule := fmt.Sprintf("@every %s", interval)
	id, err := scheduler.Register(schedule, task, asynq.Unique(interval))
	if err != nil {
		return "", "", fmt.Errorf("failed to register warm task: %w", err)
	}
	return schedule, id, nil
}
