package domain

import "time"

// Asset is a persisted, successfully generated artifact linked to its
// originating task. Assets are only ever created from successful results.
type Asset struct {
	AssetID      string
	TaskID       string
	ContentType  ContentType
	URL          string
	ThumbnailURL string
	Prompt       string
	Model        string
	Published    bool
	CreatedAt    time.Time
}
