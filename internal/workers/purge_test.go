package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-health/carepoint/internal/tasks"
)

type fakePurger struct {
	before  time.Time
	deleted int64
	err     error
}

func (p *fakePurger) Purge(ctx context.Context, before time.Time) (int64, error) {
	p.before = before
	return p.deleted, p.err
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (e *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, task.Type())
	if e.err != nil {
		return nil, e.err
	}
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

func (e *fakeEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.types)
}

func TestHandlePurgeRevokedTokens(t *testing.T) {
	purger := &fakePurger{deleted: 3}
	start := time.Now()

	require.NoError(t, HandlePurgeRevokedTokens(context.Background(), tasks.NewPurgeRevokedTokensTask(), purger, zerolog.Nop()))
	assert.False(t, purger.before.Before(start))
}

func TestHandlePurgeRevokedTokens_Error(t *testing.T) {
	purger := &fakePurger{err: errors.New("db locked")}

	err := HandlePurgeRevokedTokens(context.Background(), tasks.NewPurgeRevokedTokensTask(), purger, zerolog.Nop())
	assert.ErrorContains(t, err, "db locked")
}

func TestStartPurgeScheduler_InvalidSpec(t *testing.T) {
	_, err := StartPurgeScheduler("every now and then", &fakeEnqueuer{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestStartPurgeScheduler_Enqueues(t *testing.T) {
	enqueuer := &fakeEnqueuer{}

	c, err := StartPurgeScheduler("@every 1s", enqueuer, zerolog.Nop())
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return enqueuer.count() > 0 }, 3*time.Second, 50*time.Millisecond)

	enqueuer.mu.Lock()
	defer enqueuer.mu.Unlock()
	assert.Equal(t, tasks.TypePurgeRevokedTokens, enqueuer.types[0])
}

func TestStartPurgeScheduler_DuplicateIsQuiet(t *testing.T) {
	enqueuer := &fakeEnqueuer{err: asynq.ErrDuplicateTask}

	c, err := StartPurgeScheduler("@every 1s", enqueuer, zerolog.Nop())
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return enqueuer.count() > 0 }, 3*time.Second, 50*time.Millisecond)
}
