package intent

import (
	"testing"

	"server/internal/domain"
)

func TestClassifyVideoKeywords(t *testing.T) {
	for _, text := range []string{
		"make a video of a sunset",
		"让这张图动起来",
		"animate this scene",
	} {
		result := Classify(text, false)
		if result.ContentType != domain.ContentTypeVideo {
			t.Fatalf("%q: expected VIDEO, got %s", text, result.ContentType)
		}
		if result.IntentScene != domain.SceneTextToVideo {
			t.Fatalf("%q: expected text_to_video, got %s", text, result.IntentScene)
		}
		if result.VideoParams == nil {
			t.Fatalf("%q: expected default video params", text)
		}
	}
}

func TestClassifyVideoBeatsAudio(t *testing.T) {
	// Both vocabularies match; video wins by priority.
	result := Classify("a music video with dancing robots", false)
	if result.ContentType != domain.ContentTypeVideo {
		t.Fatalf("expected VIDEO, got %s", result.ContentType)
	}
}

func TestClassifyAudioKeywords(t *testing.T) {
	result := Classify("compose epic background music", false)
	if result.ContentType != domain.ContentTypeAudio {
		t.Fatalf("expected AUDIO, got %s", result.ContentType)
	}
	if result.IntentScene != domain.SceneTextToAudio {
		t.Fatalf("expected text_to_audio, got %s", result.IntentScene)
	}
}

func TestClassifyDefaultsToImage(t *testing.T) {
	result := Classify("a cat wearing a hat", false)
	if result.ContentType != domain.ContentTypeImage {
		t.Fatalf("expected IMAGE, got %s", result.ContentType)
	}
	if result.IntentScene != domain.SceneTextToImage {
		t.Fatalf("expected text_to_image, got %s", result.IntentScene)
	}
}

func TestClassifyReferenceMediaScenes(t *testing.T) {
	image := Classify("a cat wearing a hat", true)
	if image.IntentScene != domain.SceneImageToImage {
		t.Fatalf("expected image_to_image, got %s", image.IntentScene)
	}
	video := Classify("animate this photo", true)
	if video.IntentScene != domain.SceneImageToVideo {
		t.Fatalf("expected image_to_video, got %s", video.IntentScene)
	}
}

func TestClassifyDoesNotCleanPrompt(t *testing.T) {
	raw := "a 16:9 4K video of waves, 6 seconds"
	result := Classify(raw, false)
	if result.CleanPrompt != raw {
		t.Fatalf("fallback must not rewrite the prompt, got %q", result.CleanPrompt)
	}
	if result.OriginalPrompt != raw {
		t.Fatalf("original prompt changed: %q", result.OriginalPrompt)
	}
}

func TestClassifyConfidence(t *testing.T) {
	if got := Classify("anything", false).Confidence; got != 0.5 {
		t.Fatalf("expected degraded confidence 0.5, got %v", got)
	}
}
