package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/provider"
	"server/internal/storage"
)

// ImageProvider generates images through the Gemini image models.
type ImageProvider struct {
	client  *Client
	google  infra.GoogleConfig
	cfg     infra.ImageConfig
	store   *storage.FileStore
	baseURL string
	logger  zerolog.Logger
}

// NewImageProvider wires the image provider against the shared client, the
// image sub-config and the asset store.
func NewImageProvider(client *Client, google infra.GoogleConfig, cfg infra.ImageConfig, store *storage.FileStore, publicBaseURL string, logger zerolog.Logger) *ImageProvider {
	return &ImageProvider{
		client:  client,
		google:  google,
		cfg:     cfg,
		store:   store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
	}
}

func (p *ImageProvider) Name() string { return "Google Gemini Image" }

func (p *ImageProvider) Type() provider.Type { return provider.TypeGoogle }

func (p *ImageProvider) ContentType() domain.ContentType { return domain.ContentTypeImage }

// Available requires real credentials and the image route to be enabled.
func (p *ImageProvider) Available() bool {
	return p.google.Configured() && p.cfg.Enabled
}

func (p *ImageProvider) Capabilities() provider.Capabilities {
	return provider.NewCapabilities(provider.CapImageToImage)
}

// Generate calls the generateContent endpoint and persists the first
// returned image. Empty candidates usually mean the safety filter fired;
// that is a generation failure, not a transport error.
func (p *ImageProvider) Generate(ctx context.Context, task *domain.GenerationTask) *domain.GenerationResult {
	start := time.Now()
	model := task.SelectedModel
	if model == "" {
		model = p.cfg.Model
	}

	p.logger.Info().
		Str("task_id", task.TaskID).
		Str("model", model).
		Bool("image_to_image", task.HasReferenceMedia()).
		Msg("google: generating image")

	payload := p.buildRequest(task)
	var response generateContentResponse
	path := fmt.Sprintf("models/%s:generateContent", url.PathEscape(model))
	if err := p.client.Post(ctx, path, payload, &response); err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeImage, "API_ERROR", err.Error())
	}

	data, mime := firstInlineImage(response)
	if len(data) == 0 {
		return domain.FailureResult(task.TaskID, domain.ContentTypeImage, "NO_IMAGE_GENERATED",
			"api returned no image content, possibly blocked by the safety filter")
	}

	key := fmt.Sprintf("generated/images/%s/image-01%s", task.TaskID, extensionForMIME(mime))
	savedKey, err := p.store.Write(ctx, key, data)
	if err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeImage, "STORAGE_ERROR", err.Error())
	}

	elapsed := time.Since(start)
	p.logger.Info().
		Str("task_id", task.TaskID).
		Dur("elapsed", elapsed).
		Msg("google: image generation complete")

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

func (p *ImageProvider) buildRequest(task *domain.GenerationTask) generateContentRequest {
	parts := []part{{Text: task.OptimizedPrompt}}
	for _, entry := range task.ReferenceMedia {
		if ref, ok := referencePart(entry); ok {
			parts = append(parts, *ref)
		}
	}
	aspect := task.AspectRatio
	if aspect == "" {
		aspect = p.cfg.DefaultAspectRatio
	}
	imgCfg := &imageConfig{AspectRatio: aspect}
	// 1K is the API default and must not be sent explicitly.
	if task.ImageSize == "2K" || task.ImageSize == "4K" {
		imgCfg.ImageSize = task.ImageSize
	}
	return generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        imgCfg,
		},
	}
}

func firstInlineImage(response generateContentResponse) ([]byte, string) {
	for _, cand := range response.Candidates {
		for _, pt := range cand.Content.Parts {
			if pt.InlineData == nil || pt.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(pt.InlineData.Data)
			if err != nil || len(data) == 0 {
				continue
			}
			mime := pt.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return data, mime
		}
	}
	return nil, ""
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".png"
	}
}
