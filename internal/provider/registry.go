package provider

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// ActiveProviders names the configured active provider per content type.
// Empty values are permissive: the first available implementation wins.
type ActiveProviders struct {
	Image string
	Video string
	Audio string
}

// Registry holds the registered provider implementations per content type
// and selects the active one according to configuration.
type Registry struct {
	active    ActiveProviders
	providers map[domain.ContentType][]Provider
	logger    zerolog.Logger
}

// NewRegistry builds a registry from the given providers, preserving
// registration order for first-available fallback.
func NewRegistry(active ActiveProviders, logger zerolog.Logger, providers ...Provider) *Registry {
	r := &Registry{
		active:    active,
		providers: make(map[domain.ContentType][]Provider),
		logger:    logger,
	}
	for _, p := range providers {
		r.providers[p.ContentType()] = append(r.providers[p.ContentType()], p)
	}
	for contentType, list := range r.providers {
		for _, p := range list {
			logger.Info().
				Str("content_type", string(contentType)).
				Str("provider", p.Name()).
				Str("type", string(p.Type())).
				Bool("available", p.Available()).
				Msg("provider: registered")
		}
	}
	return r
}

// Select returns the active, available provider for the content type, or
// domain.ErrNoProvider when nothing matches.
func (r *Registry) Select(contentType domain.ContentType) (Provider, error) {
	name := r.activeName(contentType)
	for _, p := range r.providers[contentType] {
		if !matchesProvider(p, name) {
			continue
		}
		if !p.Available() {
			continue
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s (active=%q)", domain.ErrNoProvider, contentType, name)
}

// All returns every available provider for the content type, for catalog
// endpoints.
func (r *Registry) All(contentType domain.ContentType) []Provider {
	var available []Provider
	for _, p := range r.providers[contentType] {
		if p.Available() {
			available = append(available, p)
		}
	}
	return available
}

func (r *Registry) activeName(contentType domain.ContentType) string {
	switch contentType {
	case domain.ContentTypeImage:
		return r.active.Image
	case domain.ContentTypeVideo:
		return r.active.Video
	case domain.ContentTypeAudio:
		return r.active.Audio
	}
	return ""
}

// matchesProvider checks the configured logical name against the provider:
// exact type-enum match first, then a case-insensitive substring match on
// the display name. An empty name matches anything.
func matchesProvider(p Provider, active string) bool {
	active = strings.TrimSpace(strings.ToLower(active))
	if active == "" {
		return true
	}
	switch Type(active) {
	case TypeGoogle, TypeOpenAI, TypeQwen, TypeStability:
		return p.Type() == Type(active)
	}
	return strings.Contains(strings.ToLower(p.Name()), active)
}
