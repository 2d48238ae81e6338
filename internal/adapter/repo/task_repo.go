package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// TaskRepositoryPG implements domain.TaskRepository.
type TaskRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new task repository backed by PostgreSQL.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepositoryPG {
	return &TaskRepositoryPG{pool: pool}
}

// Create inserts a new generation task record.
func (r *TaskRepositoryPG) Create(ctx context.Context, task *domain.GenerationTask) error {
	query := `
INSERT INTO generation_tasks (
    task_id, user_id, original_prompt, optimized_prompt, reference_media,
    content_type, intent_scene, selected_model, aspect_ratio, image_size,
    resolution, duration_seconds, status, progress, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
`
	_, err := r.pool.Exec(ctx, query,
		task.TaskID,
		task.UserID,
		task.OriginalPrompt,
		task.OptimizedPrompt,
		task.ReferenceMedia,
		task.ContentType,
		task.IntentScene,
		task.SelectedModel,
		task.AspectRatio,
		task.ImageSize,
		task.Resolution,
		task.DurationSeconds,
		task.Status,
		task.Progress,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

// Update persists the mutable lifecycle fields of a task.
func (r *TaskRepositoryPG) Update(ctx context.Context, task *domain.GenerationTask) error {
	query := `
UPDATE generation_tasks
SET status = $2,
    progress = $3,
    result_asset_id = $4,
    result_url = $5,
    thumbnail_url = $6,
    error_message = $7,
    duration_ms = $8,
    updated_at = NOW()
WHERE task_id = $1;
`
	_, err := r.pool.Exec(ctx, query,
		task.TaskID,
		task.Status,
		task.Progress,
		task.ResultAssetID,
		task.ResultURL,
		task.ThumbnailURL,
		task.ErrorMessage,
		task.DurationMs,
	)
	return err
}

// GetByID fetches a task by its identifier.
func (r *TaskRepositoryPG) GetByID(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	query := taskSelectColumns + `
WHERE task_id = $1;
`
	return scanTask(r.pool.QueryRow(ctx, query, taskID))
}

// ClaimPending atomically moves the oldest PENDING task to PROCESSING and
// returns it. SKIP LOCKED keeps concurrent workers from claiming the same
// row.
func (r *TaskRepositoryPG) ClaimPending(ctx context.Context) (*domain.GenerationTask, error) {
	query := `
UPDATE generation_tasks
SET status = 'PROCESSING',
    progress = 10,
    updated_at = NOW()
WHERE task_id = (
    SELECT task_id FROM generation_tasks
    WHERE status = 'PENDING'
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING task_id, user_id, original_prompt, optimized_prompt, reference_media,
    content_type, intent_scene, selected_model, aspect_ratio, image_size,
    resolution, duration_seconds, status, progress,
    result_asset_id, result_url, thumbnail_url, error_message, duration_ms,
    created_at, updated_at;
`
	return scanTask(r.pool.QueryRow(ctx, query))
}

const taskSelectColumns = `
SELECT task_id, user_id, original_prompt, optimized_prompt, reference_media,
    content_type, intent_scene, selected_model, aspect_ratio, image_size,
    resolution, duration_seconds, status, progress,
    result_asset_id, result_url, thumbnail_url, error_message, duration_ms,
    created_at, updated_at
FROM generation_tasks`

func scanTask(row pgx.Row) (*domain.GenerationTask, error) {
	var task domain.GenerationTask
	if err := row.Scan(
		&task.TaskID,
		&task.UserID,
		&task.OriginalPrompt,
		&task.OptimizedPrompt,
		&task.ReferenceMedia,
		&task.ContentType,
		&task.IntentScene,
		&task.SelectedModel,
		&task.AspectRatio,
		&task.ImageSize,
		&task.Resolution,
		&task.DurationSeconds,
		&task.Status,
		&task.Progress,
		&task.ResultAssetID,
		&task.ResultURL,
		&task.ThumbnailURL,
		&task.ErrorMessage,
		&task.DurationMs,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}
