package intent

import (
	"strings"

	"server/internal/domain"
)

// fallbackConfidence marks rule-based classifications as degraded so that
// downstream consumers can tell them apart from real extractions.
const fallbackConfidence = 0.5

var (
	videoKeywords = []string{"video", "视频", "动起来", "动画", "animate", "animation", "clip", "footage"}
	audioKeywords = []string{"music", "音乐", "歌曲", "配乐", "朗读", "语音", "song", "voice", "speech", "narration", "读一下"}
)

// Classify is the keyword-rule fallback used when the LLM extractor is
// unavailable or fails. It checks vocabularies in priority order
// VIDEO -> AUDIO -> IMAGE, defaults to IMAGE, and does not attempt prompt
// cleaning.
func Classify(rawText string, hasReferenceMedia bool) *domain.AnalyzedIntent {
	result := &domain.AnalyzedIntent{
		OriginalPrompt:    rawText,
		CleanPrompt:       rawText,
		HasReferenceMedia: hasReferenceMedia,
		Confidence:        fallbackConfidence,
	}

	lower := strings.ToLower(rawText)
	switch {
	case containsAny(lower, videoKeywords):
		result.ContentType = domain.ContentTypeVideo
		result.IntentScene = domain.SceneTextToVideo
		if hasReferenceMedia {
			result.IntentScene = domain.SceneImageToVideo
		}
		result.VideoParams = domain.DefaultVideoParams()
	case containsAny(lower, audioKeywords):
		result.ContentType = domain.ContentTypeAudio
		result.IntentScene = domain.SceneTextToAudio
		result.AudioParams = domain.DefaultAudioParams()
	default:
		result.ContentType = domain.ContentTypeImage
		result.IntentScene = domain.SceneTextToImage
		if hasReferenceMedia {
			result.IntentScene = domain.SceneImageToImage
		}
		result.ImageParams = domain.DefaultImageParams()
	}

	return result
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
