package provider

import (
	"context"

	"server/internal/domain"
)

// Type identifies the vendor behind a provider implementation.
type Type string

const (
	TypeGoogle    Type = "google"
	TypeOpenAI    Type = "openai"
	TypeQwen      Type = "qwen"
	TypeStability Type = "stability"
	TypeOther     Type = "other"
)

// Capability is an optional feature a provider variant supports. Providers
// advertise a set instead of overriding interface defaults.
type Capability string

const (
	CapImageToImage    Capability = "image_to_image"
	CapImageToVideo    Capability = "image_to_video"
	CapAudioGeneration Capability = "audio_generation"
	CapTTS             Capability = "tts"
)

// Capabilities is a set of supported features.
type Capabilities map[Capability]struct{}

// NewCapabilities builds a set from the listed capabilities.
func NewCapabilities(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether the capability is in the set.
func (c Capabilities) Has(feature Capability) bool {
	_, ok := c[feature]
	return ok
}

// Provider is a pluggable backend that performs content generation against
// one external generative model. Generate never mutates the task; it returns
// a result object that the orchestrator persists.
type Provider interface {
	Name() string
	Type() Type
	ContentType() domain.ContentType
	Available() bool
	Capabilities() Capabilities
	Generate(ctx context.Context, task *domain.GenerationTask) *domain.GenerationResult
}
