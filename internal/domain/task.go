package domain

import "time"

// ContentType enumerates the kinds of media the engine can produce.
// Plain text generation is deliberately unsupported.
type ContentType string

const (
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeVideo ContentType = "VIDEO"
	ContentTypeAudio ContentType = "AUDIO"
	ContentTypeText  ContentType = "TEXT"
)

// Valid reports whether the content type is one the engine supports.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeImage, ContentTypeVideo, ContentTypeAudio:
		return true
	}
	return false
}

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// GenerationTask is the unit of orchestration work. It is created PENDING at
// submission and mutated only by the orchestrator; providers receive it
// read-only and hand back a GenerationResult.
type GenerationTask struct {
	TaskID          string
	UserID          string
	OriginalPrompt  string
	OptimizedPrompt string
	ReferenceMedia  []string
	ContentType     ContentType
	IntentScene     string
	SelectedModel   string
	AspectRatio     string
	ImageSize       string
	Resolution      string
	DurationSeconds int
	Status          TaskStatus
	Progress        int
	ResultAssetID   *string
	ResultURL       *string
	ThumbnailURL    *string
	ErrorMessage    *string
	DurationMs      int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasReferenceMedia reports whether the task carries at least one reference
// image or clip.
func (t *GenerationTask) HasReferenceMedia() bool {
	return len(t.ReferenceMedia) > 0
}
