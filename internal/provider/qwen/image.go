package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/provider"
	"server/internal/storage"
)

// ImageProvider generates images through DashScope's Qwen multimodal
// generation API. It serves as the alternate image route when the active
// provider setting names it.
type ImageProvider struct {
	cfg        infra.QwenConfig
	store      *storage.FileStore
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewImageProvider wires the Qwen image provider. A nil HTTP client gets one
// with a 45s timeout, matching the synchronous API's latency profile.
func NewImageProvider(cfg infra.QwenConfig, store *storage.FileStore, publicBaseURL string, httpClient *http.Client, logger zerolog.Logger) *ImageProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}
	return &ImageProvider{
		cfg:        cfg,
		store:      store,
		baseURL:    strings.TrimRight(publicBaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *ImageProvider) Name() string { return "Qwen Image" }

func (p *ImageProvider) Type() provider.Type { return provider.TypeQwen }

func (p *ImageProvider) ContentType() domain.ContentType { return domain.ContentTypeImage }

func (p *ImageProvider) Available() bool {
	return p.cfg.Configured()
}

// Capabilities is empty: the DashScope text-to-image route takes no
// reference media.
func (p *ImageProvider) Capabilities() provider.Capabilities {
	return provider.NewCapabilities()
}

// DashScope wire types.

type generationRequest struct {
	Model      string           `json:"model"`
	Input      generationInput  `json:"input"`
	Parameters generationParams `json:"parameters"`
}

type generationInput struct {
	Messages []generationMessage `json:"messages"`
}

type generationMessage struct {
	Role    string              `json:"role"`
	Content []generationContent `json:"content"`
}

type generationContent struct {
	Text string `json:"text,omitempty"`
}

type generationParams struct {
	Size      string `json:"size,omitempty"`
	Watermark *bool  `json:"watermark,omitempty"`
}

type generationResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content []struct {
					Image string `json:"image"`
				} `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (p *ImageProvider) Generate(ctx context.Context, task *domain.GenerationTask) *domain.GenerationResult {
	start := time.Now()
	model := task.SelectedModel
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = p.cfg.Model
	}

	p.logger.Info().
		Str("task_id", task.TaskID).
		Str("model", model).
		Msg("qwen: generating image")

	imageURL, err := p.invoke(ctx, model, task.OptimizedPrompt)
	if err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeImage, "API_ERROR", err.Error())
	}

	data, mime, err := p.download(ctx, imageURL)
	if err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeImage, "DOWNLOAD_ERROR", err.Error())
	}

	ext := ".png"
	if strings.Contains(mime, "jpeg") || strings.Contains(mime, "jpg") {
		ext = ".jpg"
	}
	key := fmt.Sprintf("generated/images/%s/image-01%s", task.TaskID, ext)
	savedKey, err := p.store.Write(ctx, key, data)
	if err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeImage, "STORAGE_ERROR", err.Error())
	}

	elapsed := time.Since(start)
	p.logger.Info().
		Str("task_id", task.TaskID).
		Dur("elapsed", elapsed).
		Msg("qwen: image generation complete")

	return &domain.GenerationResult{
		Success:          true,
		TaskID:           task.TaskID,
		ContentType:      domain.ContentTypeImage,
		URL:              p.baseURL + "/" + savedKey,
		ModelUsed:        model,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Metadata:         map[string]any{"mime": mime},
	}
}

func (p *ImageProvider) invoke(ctx context.Context, model, prompt string) (string, error) {
	watermark := false
	payload := generationRequest{
		Model: model,
		Input: generationInput{
			Messages: []generationMessage{{
				Role:    "user",
				Content: []generationContent{{Text: prompt}},
			}},
		},
		Parameters: generationParams{Watermark: &watermark},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("qwen: encode request: %w", err)
	}
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/services/aigc/multimodal-generation/generation"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("qwen: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qwen: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("qwen: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail generationResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			return "", fmt.Errorf("qwen: %s (%s)", detail.Message, detail.Code)
		}
		return "", fmt.Errorf("qwen: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("qwen: decode response: %w", err)
	}
	if decoded.Code != "" {
		return "", fmt.Errorf("qwen: %s (%s)", decoded.Message, decoded.Code)
	}
	for _, choice := range decoded.Output.Choices {
		for _, content := range choice.Message.Content {
			if url := strings.TrimSpace(content.Image); url != "" {
				return url, nil
			}
		}
	}
	return "", fmt.Errorf("qwen: empty image url")
}

func (p *ImageProvider) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: build download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("qwen: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: read image: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}
