package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
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

// VideoProvider generates videos through the Veo models. Veo calls return a
// long-running operation handle instead of an immediate result, so the
// provider blocks on the operation poller until the remote job finishes.
type VideoProvider struct {
	client  *Client
	google  infra.GoogleConfig
	cfg     infra.VideoConfig
	store   *storage.FileStore
	poller  *provider.Poller
	baseURL string
	logger  zerolog.Logger
}

// NewVideoProvider wires the video provider against the shared client, the
// video sub-config, the asset store and the poller.
func NewVideoProvider(client *Client, google infra.GoogleConfig, cfg infra.VideoConfig, store *storage.FileStore, poller *provider.Poller, publicBaseURL string, logger zerolog.Logger) *VideoProvider {
	return &VideoProvider{
		client:  client,
		google:  google,
		cfg:     cfg,
		store:   store,
		poller:  poller,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
	}
}

func (p *VideoProvider) Name() string { return "Google Veo" }

func (p *VideoProvider) Type() provider.Type { return provider.TypeGoogle }

func (p *VideoProvider) ContentType() domain.ContentType { return domain.ContentTypeVideo }

func (p *VideoProvider) Available() bool {
	return p.google.Configured() && p.cfg.Enabled
}

func (p *VideoProvider) Capabilities() provider.Capabilities {
	caps := provider.NewCapabilities(provider.CapImageToVideo)
	// Audio tracks arrived with the veo-3 generation.
	if strings.Contains(p.cfg.Model, "veo-3") {
		caps[provider.CapAudioGeneration] = struct{}{}
	}
	return caps
}

// predictLongRunning wire types.

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string        `json:"prompt"`
	Image  *predictImage `json:"image,omitempty"`
}

type predictImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
}

type operationResponse struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *operationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type videoResponsePayload struct {
	GenerateVideoResponse *struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse,omitempty"`
	GeneratedVideos []struct {
		URI   string `json:"uri,omitempty"`
		Video *struct {
			VideoBytes string `json:"videoBytes,omitempty"`
		} `json:"video,omitempty"`
	} `json:"generatedVideos,omitempty"`
}

// Generate starts a Veo operation and polls it to completion. The poller
// owns the time budget; exhausting it fails the task with OPERATION_TIMEOUT
// and a remote terminal error fails it with OPERATION_FAILED.
func (p *VideoProvider) Generate(ctx context.Context, task *domain.GenerationTask) *domain.GenerationResult {
	start := time.Now()
	model := task.SelectedModel
	if model == "" {
		model = p.cfg.Model
	}

	p.logger.Info().
		Str("task_id", task.TaskID).
		Str("model", model).
		Bool("image_to_video", task.HasReferenceMedia()).
		Msg("google: generating video")

	var op operationResponse
	path := fmt.Sprintf("models/%s:predictLongRunning", url.PathEscape(model))
	if err := p.client.Post(ctx, path, p.buildRequest(task), &op); err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeVideo, "API_ERROR", err.Error())
	}
	if op.Name == "" {
		return domain.FailureResult(task.TaskID, domain.ContentTypeVideo, "NO_OPERATION",
			"api did not return an operation handle")
	}

	final, err := p.poller.PollUntilDone(ctx, op.Name, p.pollOperation)
	if err != nil {
		code := "OPERATION_FAILED"
		if errors.Is(err, provider.ErrOperationTimeout) {
			code = "OPERATION_TIMEOUT"
		}
		return domain.FailureResult(task.TaskID, domain.ContentTypeVideo, code, err.Error())
	}

	videoURL, err := p.resolveVideo(ctx, task.TaskID, final.Response)
	if err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeVideo, "NO_VIDEO_GENERATED", err.Error())
	}

	elapsed := time.Since(start)
	p.logger.Info().
		Str("task_id", task.TaskID).
		Dur("elapsed", elapsed).
		Msg("google: video generation complete")

	return &domain.GenerationResult{
		Success:          true,
		TaskID:           task.TaskID,
		ContentType:      domain.ContentTypeVideo,
		URL:              videoURL,
		ModelUsed:        model,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Metadata:         map[string]any{"operation": op.Name},
	}
}

func (p *VideoProvider) buildRequest(task *domain.GenerationTask) predictRequest {
	instance := predictInstance{Prompt: task.OptimizedPrompt}
	if task.HasReferenceMedia() {
		if ref, ok := referencePart(task.ReferenceMedia[0]); ok && ref.InlineData != nil {
			instance.Image = &predictImage{
				BytesBase64Encoded: ref.InlineData.Data,
				MimeType:           ref.InlineData.MimeType,
			}
		}
	}
	aspect := task.AspectRatio
	if aspect == "" {
		aspect = p.cfg.DefaultAspectRatio
	}
	resolution := task.Resolution
	if resolution == "" {
		resolution = p.cfg.DefaultResolution
	}
	duration := task.DurationSeconds
	if duration == 0 {
		duration = p.cfg.DefaultDuration
	}
	return predictRequest{
		Instances: []predictInstance{instance},
		Parameters: predictParameters{
			AspectRatio:     aspect,
			DurationSeconds: duration,
			Resolution:      resolution,
		},
	}
}

// pollOperation is the PollFunc handed to the operation poller.
func (p *VideoProvider) pollOperation(ctx context.Context, name string) (provider.OperationState, error) {
	var op operationResponse
	if err := p.client.Get(ctx, name, &op); err != nil {
		return provider.OperationState{}, err
	}
	state := provider.OperationState{Done: op.Done, Response: op.Response}
	if op.Error != nil {
		state.Error = op.Error.Message
		if state.Error == "" {
			state.Error = fmt.Sprintf("remote error code %d", op.Error.Code)
		}
	}
	return state, nil
}

// resolveVideo extracts the generated video from the operation payload,
// downloads it and persists it to the asset store.
func (p *VideoProvider) resolveVideo(ctx context.Context, taskID string, payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("operation finished without a response payload")
	}
	var parsed videoResponsePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decode video payload: %w", err)
	}

	if parsed.GenerateVideoResponse != nil && len(parsed.GenerateVideoResponse.GeneratedSamples) > 0 {
		uri := parsed.GenerateVideoResponse.GeneratedSamples[0].Video.URI
		if uri != "" {
			return p.downloadAndStore(ctx, taskID, uri)
		}
	}

	// Legacy payload shape.
	for _, video := range parsed.GeneratedVideos {
		if video.URI != "" {
			return p.downloadAndStore(ctx, taskID, video.URI)
		}
		if video.Video != nil && video.Video.VideoBytes != "" {
			data, err := base64.StdEncoding.DecodeString(video.Video.VideoBytes)
			if err != nil {
				return "", fmt.Errorf("decode video bytes: %w", err)
			}
			return p.storeVideo(ctx, taskID, data)
		}
	}

	return "", fmt.Errorf("no video in operation payload")
}

func (p *VideoProvider) downloadAndStore(ctx context.Context, taskID, uri string) (string, error) {
	data, _, err := p.client.Download(ctx, uri)
	if err != nil {
		return "", err
	}
	return p.storeVideo(ctx, taskID, data)
}

func (p *VideoProvider) storeVideo(ctx context.Context, taskID string, data []byte) (string, error) {
	key := fmt.Sprintf("generated/videos/%s/video.mp4", taskID)
	savedKey, err := p.store.Write(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("persist video: %w", err)
	}
	return p.baseURL + "/" + savedKey, nil
}
