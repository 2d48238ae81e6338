package handlers

import (
	"net/http"

	"server/internal/domain"
	"server/internal/provider"
)

// Models lists the available providers per content type, with their declared
// capabilities.
func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	catalog := map[string]any{}
	for _, contentType := range []domain.ContentType{
		domain.ContentTypeImage,
		domain.ContentTypeVideo,
		domain.ContentTypeAudio,
	} {
		var entries []map[string]any
		for _, p := range a.Registry.All(contentType) {
			entries = append(entries, map[string]any{
				"name":         p.Name(),
				"type":         p.Type(),
				"capabilities": capabilityNames(p.Capabilities()),
			})
		}
		catalog[string(contentType)] = entries
	}
	a.json(w, http.StatusOK, catalog)
}

func capabilityNames(caps provider.Capabilities) []string {
	names := make([]string, 0, len(caps))
	for _, capability := range []provider.Capability{
		provider.CapImageToImage,
		provider.CapImageToVideo,
		provider.CapAudioGeneration,
		provider.CapTTS,
	} {
		if caps.Has(capability) {
			names = append(names, string(capability))
		}
	}
	return names
}
