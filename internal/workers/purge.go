package workers

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/carepoint-health/carepoint/internal/tasks"
)

// Purger removes revocations for tokens that expired before a point in time
type Purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Enqueuer is the subset of the Asynq client the scheduler needs
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// HandlePurgeRevokedTokens deletes revocation rows whose tokens have expired
func HandlePurgeRevokedTokens(ctx context.Context, t *asynq.Task, purger Purger, logger zerolog.Logger) error {
	deleted, err := purger.Purge(ctx, time.Now())
	if err != nil {
		return err
	}

	logger.Info().Int64("deleted", deleted).Msg("Purged expired token revocations")
	return nil
}

// StartPurgeScheduler enqueues a purge task on the given cron schedule.
// The returned cron is already running; call Stop on shutdown.
func StartPurgeScheduler(spec string, client Enqueuer, logger zerolog.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		info, err := client.Enqueue(tasks.NewPurgeRevokedTokensTask(), asynq.Unique(time.Hour))
		if err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) {
				logger.Debug().Msg("Purge task already queued")
				return
			}
			logger.Error().Err(err).Msg("Failed to enqueue purge task")
			return
		}
		logger.Debug().Str("task_id", info.ID).Msg("Enqueued purge task")
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
