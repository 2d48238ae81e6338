package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

const defaultClaimInterval = 2 * time.Second

// Worker pulls PENDING tasks from the repository and executes them. Claiming
// is atomic at the database level, so multiple workers and multiple worker
// processes can run against the same queue.
type Worker struct {
	orchestrator  *Orchestrator
	tasks         domain.TaskRepository
	concurrency   int
	claimInterval time.Duration
	logger        zerolog.Logger
}

// NewWorker builds a worker pool with the given concurrency. Zero or
// negative concurrency gets a single loop.
func NewWorker(orch *Orchestrator, tasks domain.TaskRepository, concurrency int, logger zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		orchestrator:  orch,
		tasks:         tasks,
		concurrency:   concurrency,
		claimInterval: defaultClaimInterval,
		logger:        logger,
	}
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("worker: started")

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}
	wg.Wait()

	w.logger.Info().Msg("worker: stopped")
	return ctx.Err()
}

func (w *Worker) loop(ctx context.Context, slot int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.tasks.ClaimPending(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, context.Canceled) {
				w.logger.Error().Err(err).Int("slot", slot).Msg("worker: claim failed")
			}
			w.idle(ctx)
			continue
		}

		w.logger.Info().
			Str("task_id", task.TaskID).
			Str("content_type", string(task.ContentType)).
			Int("slot", slot).
			Msg("worker: picked task")
		w.orchestrator.Execute(ctx, task)
	}
}

func (w *Worker) idle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.claimInterval):
	}
}
