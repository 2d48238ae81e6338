package domain

import "context"

// TaskRepository defines persistence for generation tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *GenerationTask) error
	Update(ctx context.Context, task *GenerationTask) error
	GetByID(ctx context.Context, taskID string) (*GenerationTask, error)
	// ClaimPending atomically moves the oldest PENDING task to PROCESSING
	// and returns it, or ErrNotFound when the queue is empty.
	ClaimPending(ctx context.Context) (*GenerationTask, error)
}

// AssetRepository handles persistence for generated assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, assetID string) (*Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]Asset, int, error)
	SetPublished(ctx context.Context, assetID string, published bool) error
	Delete(ctx context.Context, assetID string) error
}

// AssetFilter narrows asset listings. Zero values mean "no constraint".
type AssetFilter struct {
	ContentType   ContentType
	PublishedOnly bool
	Page          int
	Size          int
}

// StatsRepository updates and reads daily generation counters.
type StatsRepository interface {
	IncrementCounters(ctx context.Context, day string, counters map[string]int) error
	GetSummary(ctx context.Context) (map[string]int, error)
}
