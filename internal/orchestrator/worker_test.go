package orchestrator

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// claimQueue hands out tasks one at a time and reports emptiness afterwards.
type claimQueue struct {
	fakeTaskRepo
	mu      sync.Mutex
	pending []*domain.GenerationTask
	claimed chan string
}

func (q *claimQueue) ClaimPending(ctx context.Context) (*domain.GenerationTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, domain.ErrNotFound
	}
	task := q.pending[0]
	q.pending = q.pending[1:]
	task.Status = domain.TaskStatusProcessing
	task.Progress = 10
	q.claimed <- task.TaskID
	return task, nil
}

func TestWorkerExecutesClaimedTasks(t *testing.T) {
	queue := &claimQueue{
		pending: []*domain.GenerationTask{
			{TaskID: "w1", ContentType: domain.ContentTypeImage, Status: domain.TaskStatusPending},
			{TaskID: "w2", ContentType: domain.ContentTypeImage, Status: domain.TaskStatusPending},
		},
		claimed: make(chan string, 2),
	}
	genProvider := &fakeGenProvider{result: &domain.GenerationResult{
		Success:     true,
		ContentType: domain.ContentTypeImage,
		URL:         "http://localhost/static/x.png",
	}}
	orch := newTestOrchestrator(&fakeExtractor{}, &fakeRegistry{provider: genProvider}, &queue.fakeTaskRepo, &fakeAssetRepo{}, true)

	worker := NewWorker(orch, queue, 1, zerolog.New(io.Discard))
	worker.claimInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-queue.claimed:
		case <-time.After(time.Second):
			t.Fatal("worker never claimed all tasks")
		}
	}
	// Allow the in-flight execution to finish before stopping.
	deadline := time.Now().Add(time.Second)
	for genProvider.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	if got := genProvider.calls.Load(); got != 2 {
		t.Fatalf("expected 2 executions, got %d", got)
	}
}

func TestWorkerStopsWhenQueueEmpty(t *testing.T) {
	queue := &claimQueue{claimed: make(chan string, 1)}
	orch := newTestOrchestrator(&fakeExtractor{}, &fakeRegistry{}, &queue.fakeTaskRepo, &fakeAssetRepo{}, true)

	worker := NewWorker(orch, queue, 2, zerolog.New(io.Discard))
	worker.claimInterval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := worker.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Run returned %v", err)
	}
}
