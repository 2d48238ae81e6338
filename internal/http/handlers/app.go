package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/orchestrator"
	"server/internal/provider"
	"server/internal/storage"
)

// App bundles the dependencies shared by the HTTP handlers.
type App struct {
	Orch           *orchestrator.Orchestrator
	Assets         domain.AssetRepository
	Stats          domain.StatsRepository
	Registry       *provider.Registry
	Store          *storage.FileStore
	StorageBaseURL string
	Logger         zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{
		"error":   slug,
		"message": message,
	})
}
