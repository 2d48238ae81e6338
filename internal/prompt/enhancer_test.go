package prompt

import (
	"strings"
	"testing"

	"server/internal/domain"
)

func TestEnhanceImage(t *testing.T) {
	got := Enhance("a red fox in the snow", domain.ContentTypeImage, false)
	if !strings.HasSuffix(got, ", high quality, detailed") {
		t.Fatalf("missing quality clause: %q", got)
	}
	if !strings.HasPrefix(got, "a red fox in the snow") {
		t.Fatalf("creative content altered: %q", got)
	}
}

func TestEnhanceImageSkipsWhenQualityPresent(t *testing.T) {
	got := Enhance("a detailed portrait of a queen", domain.ContentTypeImage, false)
	if got != "a detailed portrait of a queen" {
		t.Fatalf("quality clause appended despite keyword: %q", got)
	}
}

func TestEnhanceImageWithReferenceMedia(t *testing.T) {
	got := Enhance("put a hat on the dog", domain.ContentTypeImage, true)
	if !strings.Contains(got, "maintain the original composition and style") {
		t.Fatalf("missing composition clause: %q", got)
	}
}

func TestEnhanceVideo(t *testing.T) {
	got := Enhance("waves crashing at dusk", domain.ContentTypeVideo, false)
	if !strings.Contains(got, ", smooth motion") || !strings.Contains(got, ", cinematic quality") {
		t.Fatalf("missing video clauses: %q", got)
	}
}

func TestEnhanceVideoMotionKeywordSuppressesBoth(t *testing.T) {
	got := Enhance("smooth camera pan over the valley", domain.ContentTypeVideo, false)
	if strings.Contains(got, ", cinematic quality") {
		t.Fatalf("cinematic clause appended despite motion keyword: %q", got)
	}
	if strings.Contains(got, ", smooth motion") {
		t.Fatalf("motion clause appended despite motion keyword: %q", got)
	}
}

func TestEnhanceVideoWithReferenceMedia(t *testing.T) {
	got := Enhance("make the water flow", domain.ContentTypeVideo, true)
	if !strings.Contains(got, "natural and seamless animation") {
		t.Fatalf("missing animation clause: %q", got)
	}
}

func TestEnhanceAudio(t *testing.T) {
	got := Enhance("narrate this story in a calm voice", domain.ContentTypeAudio, false)
	if !strings.HasSuffix(got, ", high quality audio") {
		t.Fatalf("missing audio clause: %q", got)
	}
}

func TestEnhanceBlankUnchanged(t *testing.T) {
	for _, blank := range []string{"", "   "} {
		if got := Enhance(blank, domain.ContentTypeImage, false); got != blank {
			t.Fatalf("blank input changed: %q", got)
		}
	}
}

func TestEnhanceIdempotent(t *testing.T) {
	// Appended clauses carry guard keywords, so a second pass is a no-op.
	contentTypes := []domain.ContentType{
		domain.ContentTypeImage,
		domain.ContentTypeVideo,
		domain.ContentTypeAudio,
	}
	for _, contentType := range contentTypes {
		for _, hasRef := range []bool{false, true} {
			once := Enhance("a quiet mountain village", contentType, hasRef)
			twice := Enhance(once, contentType, hasRef)
			if once != twice {
				t.Fatalf("%s ref=%v: not idempotent:\n once=%q\ntwice=%q", contentType, hasRef, once, twice)
			}
		}
	}
}

func TestEnhanceUnsupportedTypeUnchanged(t *testing.T) {
	if got := Enhance("hello", domain.ContentTypeText, false); got != "hello" {
		t.Fatalf("text prompt changed: %q", got)
	}
}
