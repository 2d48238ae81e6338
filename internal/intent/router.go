package intent

import (
	"fmt"

	"server/internal/domain"
)

// Fixed model identifiers the router may escalate to regardless of
// configuration.
const (
	highTierImageModel = "gemini-3-pro-image-preview"
	ttsModel           = "gemini-2.5-flash-preview-tts"
)

// ModelDefaults carries the configured base model per content type.
type ModelDefaults struct {
	ImageModel string
	VideoModel string
	AudioModel string
}

// SelectModel maps an analyzed intent onto a concrete downstream model
// identifier. It is a pure function of content type and parameters and fails
// only for unsupported content types.
func SelectModel(analyzed *domain.AnalyzedIntent, defaults ModelDefaults) (string, error) {
	switch analyzed.ContentType {
	case domain.ContentTypeImage:
		return selectImageModel(analyzed, defaults.ImageModel), nil
	case domain.ContentTypeVideo:
		return selectVideoModel(analyzed, defaults.VideoModel), nil
	case domain.ContentTypeAudio:
		return selectAudioModel(analyzed, defaults.AudioModel), nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedContent, analyzed.ContentType)
	}
}

// selectImageModel escalates 2K/4K requests to the high-tier model family;
// everything else uses the configured default.
func selectImageModel(analyzed *domain.AnalyzedIntent, base string) string {
	params := analyzed.EffectiveImageParams()
	if params.ImageSize == "2K" || params.ImageSize == "4K" {
		return highTierImageModel
	}
	return base
}

// selectVideoModel swaps the fast token in or out of the configured base
// model according to the quality preference.
func selectVideoModel(analyzed *domain.AnalyzedIntent, base string) string {
	params := analyzed.EffectiveVideoParams()
	switch params.Quality {
	case "fast":
		return FastVariant(base)
	case "standard":
		return StandardVariant(base)
	default:
		return base
	}
}

func selectAudioModel(analyzed *domain.AnalyzedIntent, base string) string {
	if analyzed.EffectiveAudioParams().IsTTS() {
		return ttsModel
	}
	return base
}
