package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

var (
	// ErrUnavailable signals that the NLU service is not configured. The
	// extractor never degrades silently; the orchestrator decides whether
	// the rule-based fallback engages.
	ErrUnavailable = errors.New("intent: nlu service not configured")

	// ErrMalformedResponse signals that the NLU output could not be parsed
	// into the expected structure.
	ErrMalformedResponse = errors.New("intent: malformed nlu response")
)

const extractorDefaultTimeout = 20 * time.Second

// systemPrompt instructs the auxiliary model to emit a strict JSON intent
// record. Enumerating every legal value keeps low-temperature output stable.
const systemPrompt = `You are an intent parser for a generative media platform. Analyze the user's natural-language request and extract structured information.

Content type (contentType), one of:
- IMAGE: image generation, image editing, style transfer
- VIDEO: video generation, animating an image
- AUDIO: music generation, speech synthesis
Plain text generation is not supported; never return contentType TEXT.

Intent scene (intent), one of:
- text_to_image, image_to_image (user supplied a reference image)
- text_to_video, image_to_video
- text_to_audio

imageParams (only when contentType=IMAGE):
- aspectRatio: one of "1:1", "16:9", "9:16", "4:3", "3:4", "2:3", "3:2", "4:5", "5:4", "21:9"
- imageSize: "1K" (default), "2K", "4K"
- style: artistic style if mentioned (photorealistic, anime, oil_painting, watercolor, sketch, 3d_render, pixel_art, or the user's own words), else null
- transparentBackground: true only for stickers/icons/cutouts

videoParams (only when contentType=VIDEO):
- aspectRatio: "16:9" (default) or "9:16" (portrait / short-form)
- resolution: "720p" (default) or "1080p"
- duration: seconds; "short" means 4, otherwise the closest of 4/6/8, default 8
- quality: "fast" (quick preview) or "standard" (high quality, smooth)
- withAudio: true by default, false when the user asks for silence

audioParams (only when contentType=AUDIO):
- type: "tts" (narration, voice-over; default) or "music" (songs, melodies)
- voice: for tts one of "Kore" (default), "Aoede", "Fenrir", "Puck", "Charon"
- bpm: 60-200, music only; fast tempo 120+, slow tempo 80-
- mood: happy, sad, energetic, calm, epic, romantic, ...

cleanPrompt: the original request with every technical parameter phrase removed, keeping only the creative content.

Respond with a single JSON object and nothing else:
{"contentType":"IMAGE|VIDEO|AUDIO","intent":"...","cleanPrompt":"...","hasReferenceImage":false,"imageParams":{...}|null,"videoParams":{...}|null,"audioParams":{...}|null,"confidence":0.95}

Rules: use null or defaults for unmentioned parameters; confidence is your 0-1 certainty; when the request is ambiguous prefer IMAGE.`

// ExtractorOptions configures the LLM-backed extractor.
type ExtractorOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
	Logger      zerolog.Logger
}

// Extractor turns free text into a structured AnalyzedIntent by calling an
// OpenAI-compatible chat completions endpoint.
type Extractor struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	logger      zerolog.Logger
}

// NewExtractor constructs an Extractor. A missing API key or base URL is not
// an error here; Extract reports ErrUnavailable so callers can decide on the
// fallback policy.
func NewExtractor(opts ExtractorOptions) *Extractor {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: extractorDefaultTimeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.1
	}
	return &Extractor{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		model:       model,
		temperature: temperature,
		client:      client,
		logger:      opts.Logger,
	}
}

// Available reports whether the NLU service is configured.
func (e *Extractor) Available() bool {
	return e.apiKey != "" && e.baseURL != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Extract analyzes the raw text and returns a structured intent. The model's
// self-reported originalPrompt and hasReferenceImage values are not trusted;
// both are overwritten with the caller's own arguments after parsing.
func (e *Extractor) Extract(ctx context.Context, rawText string, hasReferenceMedia bool) (*domain.AnalyzedIntent, error) {
	if !e.Available() {
		return nil, ErrUnavailable
	}

	start := time.Now()
	payload := chatRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(rawText, hasReferenceMedia)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("intent: marshal request: %w", err)
	}

	endpoint := e.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("intent: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("intent: invoke nlu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("intent: nlu status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}

	parsed, err := parseIntentJSON(out.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	parsed.OriginalPrompt = rawText
	parsed.HasReferenceMedia = hasReferenceMedia
	if hasReferenceMedia {
		adjustSceneForReferenceMedia(parsed)
	}

	e.logger.Info().
		Str("content_type", string(parsed.ContentType)).
		Str("scene", parsed.IntentScene).
		Float64("confidence", parsed.Confidence).
		Dur("elapsed", time.Since(start)).
		Msg("intent: extraction complete")

	return parsed, nil
}

func buildUserMessage(rawText string, hasReferenceMedia bool) string {
	sb := &strings.Builder{}
	sb.WriteString("User request: ")
	sb.WriteString(rawText)
	if hasReferenceMedia {
		sb.WriteString("\n\n[context: the user uploaded reference media]")
	}
	return sb.String()
}

// parseIntentJSON strips any Markdown code fence and decodes the body into an
// AnalyzedIntent, tolerating unknown fields.
func parseIntentJSON(raw string) (*domain.AnalyzedIntent, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no json payload", ErrMalformedResponse)
	}
	var parsed domain.AnalyzedIntent
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.ContentType == "" {
		return nil, fmt.Errorf("%w: missing content type", ErrMalformedResponse)
	}
	return &parsed, nil
}

// adjustSceneForReferenceMedia forces the image-to-X scene variants when the
// caller supplied reference media, overriding whatever the model returned.
func adjustSceneForReferenceMedia(parsed *domain.AnalyzedIntent) {
	switch parsed.ContentType {
	case domain.ContentTypeImage:
		parsed.IntentScene = domain.SceneImageToImage
	case domain.ContentTypeVideo:
		parsed.IntentScene = domain.SceneImageToVideo
	}
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
