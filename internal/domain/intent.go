package domain

// Intent scene tags produced by the extractor.
const (
	SceneTextToImage  = "text_to_image"
	SceneImageToImage = "image_to_image"
	SceneTextToVideo  = "text_to_video"
	SceneImageToVideo = "image_to_video"
	SceneTextToAudio  = "text_to_audio"
)

// AnalyzedIntent is the structured output of intent extraction. At most one
// of the three parameter blocks is populated, matching ContentType; callers
// must use the Effective* accessors instead of touching the pointers so that
// a missing block degrades to type-specific defaults.
type AnalyzedIntent struct {
	ContentType       ContentType  `json:"contentType"`
	IntentScene       string       `json:"intent"`
	OriginalPrompt    string       `json:"-"`
	CleanPrompt       string       `json:"cleanPrompt"`
	HasReferenceMedia bool         `json:"hasReferenceImage"`
	ImageParams       *ImageParams `json:"imageParams,omitempty"`
	VideoParams       *VideoParams `json:"videoParams,omitempty"`
	AudioParams       *AudioParams `json:"audioParams,omitempty"`
	Confidence        float64      `json:"confidence"`
}

// ImageParams captures technical parameters for image generation.
type ImageParams struct {
	AspectRatio           string `json:"aspectRatio"`
	ImageSize             string `json:"imageSize"`
	Style                 string `json:"style,omitempty"`
	TransparentBackground *bool  `json:"transparentBackground,omitempty"`
}

// VideoParams captures technical parameters for video generation. Duration is
// the raw requested value in seconds; use intent.NormalizeDuration before
// handing it to a provider.
type VideoParams struct {
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution"`
	Duration    int    `json:"duration"`
	Quality     string `json:"quality"`
	WithAudio   bool   `json:"withAudio"`
}

// AudioParams captures technical parameters for audio generation.
type AudioParams struct {
	Type     string `json:"type"`
	Voice    string `json:"voice,omitempty"`
	BPM      int    `json:"bpm,omitempty"`
	Mood     string `json:"mood,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// IsTTS reports whether the audio request is text-to-speech.
func (a *AudioParams) IsTTS() bool { return a.Type == "tts" }

// IsMusic reports whether the audio request is music generation.
func (a *AudioParams) IsMusic() bool { return a.Type == "music" }

// DefaultImageParams returns the parameters applied when the extractor did
// not produce an image block.
func DefaultImageParams() *ImageParams {
	return &ImageParams{AspectRatio: "16:9", ImageSize: "1K"}
}

// DefaultVideoParams returns the parameters applied when the extractor did
// not produce a video block.
func DefaultVideoParams() *VideoParams {
	return &VideoParams{
		AspectRatio: "16:9",
		Resolution:  "720p",
		Duration:    8,
		Quality:     "standard",
		WithAudio:   true,
	}
}

// DefaultAudioParams returns the parameters applied when the extractor did
// not produce an audio block.
func DefaultAudioParams() *AudioParams {
	return &AudioParams{Type: "tts", Voice: "Kore"}
}

// EffectiveImageParams never returns nil.
func (i *AnalyzedIntent) EffectiveImageParams() *ImageParams {
	if i.ImageParams != nil {
		return i.ImageParams
	}
	return DefaultImageParams()
}

// EffectiveVideoParams never returns nil.
func (i *AnalyzedIntent) EffectiveVideoParams() *VideoParams {
	if i.VideoParams != nil {
		return i.VideoParams
	}
	return DefaultVideoParams()
}

// EffectiveAudioParams never returns nil.
func (i *AnalyzedIntent) EffectiveAudioParams() *AudioParams {
	if i.AudioParams != nil {
		return i.AudioParams
	}
	return DefaultAudioParams()
}

// RequiresReferenceMedia reports whether the resolved scene needs an input
// image to make sense.
func (i *AnalyzedIntent) RequiresReferenceMedia() bool {
	return i.IntentScene == SceneImageToImage || i.IntentScene == SceneImageToVideo
}
