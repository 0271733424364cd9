package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/winnow/internal/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const statusKeyPrefix = "winnow_run_status:"

// ErrUnknownRun is returned when no status was recorded for a run
var ErrUnknownRun = errors.New("unknown run")

// StatusTracker records the progress of a comparison run
type StatusTracker interface {
	Update(ctx context.Context, runID string, step models.Step) error
	Get(ctx context.Context, runID string) (models.Step, error)
}

// NopTracker discards status updates
type NopTracker struct{}

func (NopTracker) Update(context.Context, string, models.Step) error { return nil }

func (NopTracker) Get(context.Context, string) (models.Step, error) {
	return models.StepIdle, ErrUnknownRun
}

// RedisStatusTracker stores the latest step of each run under a TTL key
type RedisStatusTracker struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func NewRedisStatusTracker(client goredis.UniversalClient, ttl time.Duration) *RedisStatusTracker {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStatusTracker{client: client, ttl: ttl}
}

func (t *RedisStatusTracker) Update(ctx context.Context, runID string, step models.Step) error {
	if !step.Valid() {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKeyPrefix + runID

	err := t.client.Set(ctx, rkey, string(step), t.ttl).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("runId", runID).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("runId", runID).
		Msg("Status updated in Redis")

	return nil
}

func (t *RedisStatusTracker) Get(ctx context.Context, runID string) (models.Step, error) {
	val, err := t.client.Get(ctx, statusKeyPrefix+runID).Result()
	if errors.Is(err, goredis.Nil) {
		return models.StepIdle, ErrUnknownRun
	}
	if err != nil {
		return models.StepIdle, fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(val), nil
}
