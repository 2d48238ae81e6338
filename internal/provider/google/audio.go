package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/provider"
	"server/internal/storage"
)

const defaultVoice = "Kore"

// The five TTS voice presets. Prompts mentioning one by name select it.
var voicePresets = []string{"Kore", "Aoede", "Fenrir", "Puck", "Charon"}

var musicKeywords = []string{"音乐", "music", "歌曲", "song", "旋律", "melody", "节拍", "beat"}

// AudioProvider generates speech through the Gemini TTS models. Music
// generation (Lyria) is a realtime streaming API and is reported as a
// structured failure rather than attempted.
type AudioProvider struct {
	client  *Client
	google  infra.GoogleConfig
	cfg     infra.AudioConfig
	store   *storage.FileStore
	baseURL string
	logger  zerolog.Logger
}

// NewAudioProvider wires the audio provider against the shared client, the
// audio sub-config and the asset store.
func NewAudioProvider(client *Client, google infra.GoogleConfig, cfg infra.AudioConfig, store *storage.FileStore, publicBaseURL string, logger zerolog.Logger) *AudioProvider {
	return &AudioProvider{
		client:  client,
		google:  google,
		cfg:     cfg,
		store:   store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
	}
}

func (p *AudioProvider) Name() string { return "Google TTS" }

func (p *AudioProvider) Type() provider.Type { return provider.TypeGoogle }

func (p *AudioProvider) ContentType() domain.ContentType { return domain.ContentTypeAudio }

func (p *AudioProvider) Available() bool {
	return p.google.Configured() && p.cfg.Enabled
}

func (p *AudioProvider) Capabilities() provider.Capabilities {
	return provider.NewCapabilities(provider.CapTTS)
}

func (p *AudioProvider) Generate(ctx context.Context, task *domain.GenerationTask) *domain.GenerationResult {
	start := time.Now()

	if isMusicRequest(task.OptimizedPrompt) {
		return &domain.GenerationResult{
			TaskID:       task.TaskID,
			ContentType:  domain.ContentTypeAudio,
			ModelUsed:    p.cfg.Model,
			ErrorCode:    "MUSIC_NOT_SUPPORTED",
			ErrorMessage: "music generation requires the realtime streaming api; use tts instead",
		}
	}

	model := task.SelectedModel
	if model == "" {
		model = "gemini-2.5-flash-preview-tts"
	}
	voice := extractVoice(task.OptimizedPrompt)

	p.logger.Info().
		Str("task_id", task.TaskID).
		Str("model", model).
		Str("voice", voice).
		Msg("google: generating speech")

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: task.OptimizedPrompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	}

	var response generateContentResponse
	path := fmt.Sprintf("models/%s:generateContent", url.PathEscape(model))
	if err := p.client.Post(ctx, path, payload, &response); err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeAudio, "API_ERROR", err.Error())
	}

	data, mime := firstInlineAudio(response)
	if len(data) == 0 {
		return domain.FailureResult(task.TaskID, domain.ContentTypeAudio, "NO_AUDIO_GENERATED",
			"api returned no audio content")
	}

	// The TTS endpoint streams raw PCM; wrap it so browsers can play it.
	if strings.HasPrefix(mime, "audio/L16") || strings.HasPrefix(mime, "audio/pcm") {
		data = pcmToWAV(data, 24000, 1)
		mime = "audio/wav"
	}

	key := fmt.Sprintf("generated/audio/%s/speech%s", task.TaskID, extensionForMIME(mime))
	savedKey, err := p.store.Write(ctx, key, data)
	if err != nil {
		return domain.FailureResult(task.TaskID, domain.ContentTypeAudio, "STORAGE_ERROR", err.Error())
	}

	elapsed := time.Since(start)
	p.logger.Info().
		Str("task_id", task.TaskID).
		Str("voice", voice).
		Dur("elapsed", elapsed).
		Msg("google: speech generation complete")

	return &domain.GenerationResult{
		Success:          true,
		TaskID:           task.TaskID,
		ContentType:      domain.ContentTypeAudio,
		URL:              p.baseURL + "/" + savedKey,
		ModelUsed:        model,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Metadata:         map[string]any{"type": "tts", "voice": voice},
	}
}

func isMusicRequest(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, keyword := range musicKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// extractVoice picks the preset the prompt mentions by name, defaulting to
// Kore. Matching is case-insensitive; the canonical casing is restored via
// cases.Title so the API always receives the exact preset name.
func extractVoice(prompt string) string {
	lower := strings.ToLower(prompt)
	titler := cases.Title(language.Und)
	for _, preset := range voicePresets {
		if strings.Contains(lower, strings.ToLower(preset)) {
			return titler.String(strings.ToLower(preset))
		}
	}
	return defaultVoice
}

func firstInlineAudio(response generateContentResponse) ([]byte, string) {
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
				mime = "audio/wav"
			}
			return data, mime
		}
	}
	return nil, ""
}

// pcmToWAV wraps 16-bit little-endian PCM samples in a minimal RIFF header.
func pcmToWAV(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * 2
	dataLen := len(pcm)

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	putUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	putUint32(header[16:20], 16)
	putUint16(header[20:22], 1) // PCM
	putUint16(header[22:24], uint16(channels))
	putUint32(header[24:28], uint32(sampleRate))
	putUint32(header[28:32], uint32(byteRate))
	putUint16(header[32:34], uint16(channels*2))
	putUint16(header[34:36], 16)
	copy(header[36:40], "data")
	putUint32(header[40:44], uint32(dataLen))

	return append(header, pcm...)
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
