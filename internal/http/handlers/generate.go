package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/orchestrator"
)

type generateRequest struct {
	UserID         string   `json:"user_id"`
	Prompt         string   `json:"prompt"`
	ReferenceMedia []string `json:"reference_media,omitempty"`
}

type generateResponse struct {
	TaskID        string             `json:"task_id"`
	Status        domain.TaskStatus  `json:"status"`
	ContentType   domain.ContentType `json:"content_type"`
	IntentScene   string             `json:"intent"`
	SelectedModel string             `json:"selected_model"`
	Prompt        string             `json:"prompt"`
	UsedFallback  bool               `json:"used_fallback"`
	Confidence    float64            `json:"confidence"`
}

// Generate accepts a free-text generation request, runs intent analysis and
// routing synchronously and queues the task for asynchronous execution.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	task, analysis, err := a.Orch.Submit(r.Context(), orchestrator.SubmitRequest{
		UserID:         strings.TrimSpace(req.UserID),
		Prompt:         req.Prompt,
		ReferenceMedia: req.ReferenceMedia,
		ClientIP:       clientIP(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPrompt):
			a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		case errors.Is(err, domain.ErrUnsupportedContent):
			a.error(w, http.StatusUnprocessableEntity, "unsupported_content", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("http: submit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to queue generation")
		}
		return
	}

	a.json(w, http.StatusAccepted, generateResponse{
		TaskID:        task.TaskID,
		Status:        task.Status,
		ContentType:   task.ContentType,
		IntentScene:   task.IntentScene,
		SelectedModel: task.SelectedModel,
		Prompt:        task.OptimizedPrompt,
		UsedFallback:  analysis.UsedFallback,
		Confidence:    analysis.Intent.Confidence,
	})
}

// clientIP prefers proxy headers and falls back to the connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
