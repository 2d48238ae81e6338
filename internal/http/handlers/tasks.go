package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

// TaskStatus returns the lifecycle state of a task, including the result
// asset fields once the task completes.
func (a *App) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "task id required")
		return
	}

	task, err := a.Orch.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		a.Logger.Error().Err(err).Str("task_id", taskID).Msg("http: load task failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load task")
		return
	}

	payload := map[string]any{
		"task_id":        task.TaskID,
		"status":         task.Status,
		"progress":       task.Progress,
		"content_type":   task.ContentType,
		"intent":         task.IntentScene,
		"selected_model": task.SelectedModel,
		"prompt":         task.OptimizedPrompt,
		"created_at":     task.CreatedAt,
		"updated_at":     task.UpdatedAt,
	}
	if task.ResultAssetID != nil {
		payload["asset_id"] = *task.ResultAssetID
	}
	if task.ResultURL != nil {
		payload["url"] = *task.ResultURL
	}
	if task.ThumbnailURL != nil {
		payload["thumbnail_url"] = *task.ThumbnailURL
	}
	if task.ErrorMessage != nil {
		payload["error_message"] = *task.ErrorMessage
	}
	if task.DurationMs > 0 {
		payload["duration_ms"] = task.DurationMs
	}
	a.json(w, http.StatusOK, payload)
}
