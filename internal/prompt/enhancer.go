package prompt

import (
	"strings"

	"server/internal/domain"
)

// Keyword sets guarding each modifier clause. Running Enhance on its own
// output is safe because the appended clauses contain these keywords and
// trip the guards on the next pass.
var (
	imageQualityKeywords = []string{"高质量", "high quality", "detailed", "精细", "8k", "4k", "hd", "高清"}
	keepCompositionWords = []string{"保持", "maintain", "keep", "原始", "original"}
	motionKeywords       = []string{"流畅", "smooth", "自然", "natural", "motion", "运动", "动作"}
	cinematicKeywords    = []string{"电影", "cinematic", "film", "影视", "大片"}
	animateKeywords      = []string{"动起来", "animate", "animation", "动画化", "活起来"}
	audioQualityKeywords = []string{"高音质", "high quality", "清晰", "clear", "professional"}
)

// Enhance appends fixed quality/style modifier clauses to a clean prompt
// without altering the creative intent. Blank input is returned unchanged.
func Enhance(cleanPrompt string, contentType domain.ContentType, hasReferenceMedia bool) string {
	if strings.TrimSpace(cleanPrompt) == "" {
		return cleanPrompt
	}

	switch contentType {
	case domain.ContentTypeImage:
		return enhanceImagePrompt(cleanPrompt, hasReferenceMedia)
	case domain.ContentTypeVideo:
		return enhanceVideoPrompt(cleanPrompt, hasReferenceMedia)
	case domain.ContentTypeAudio:
		return enhanceAudioPrompt(cleanPrompt)
	default:
		return cleanPrompt
	}
}

func enhanceImagePrompt(prompt string, hasReferenceMedia bool) string {
	enhanced := strings.Builder{}
	enhanced.WriteString(strings.TrimSpace(prompt))
	lower := strings.ToLower(prompt)

	if !containsAny(lower, imageQualityKeywords) {
		enhanced.WriteString(", high quality, detailed")
	}
	// Image-to-image: keep the source composition intact.
	if hasReferenceMedia && !containsAny(lower, keepCompositionWords) {
		enhanced.WriteString(", maintain the original composition and style")
	}

	return enhanced.String()
}

func enhanceVideoPrompt(prompt string, hasReferenceMedia bool) string {
	enhanced := strings.Builder{}
	enhanced.WriteString(strings.TrimSpace(prompt))
	lower := strings.ToLower(prompt)

	hasMotion := containsAny(lower, motionKeywords)
	if !hasMotion {
		enhanced.WriteString(", smooth motion")
	}
	if !hasMotion && !containsAny(lower, cinematicKeywords) {
		enhanced.WriteString(", cinematic quality")
	}
	if hasReferenceMedia && !containsAny(lower, animateKeywords) {
		enhanced.WriteString(", natural and seamless animation")
	}

	return enhanced.String()
}

func enhanceAudioPrompt(prompt string) string {
	enhanced := strings.Builder{}
	enhanced.WriteString(strings.TrimSpace(prompt))

	if !containsAny(strings.ToLower(prompt), audioQualityKeywords) {
		enhanced.WriteString(", high quality audio")
	}

	return enhanced.String()
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
