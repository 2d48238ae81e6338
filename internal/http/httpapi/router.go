package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options configures the router beyond the handler set.
type Options struct {
	RateLimitPerMin int
	AllowedOrigins  []string
	StaticDir       string
}

// NewRouter wires the HTTP surface.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Post("/generate", app.Generate)
		r.Get("/tasks/{id}", app.TaskStatus)

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", app.ListAssets)
			r.Get("/export", app.ExportAssets)
			r.Delete("/{id}", app.DeleteAsset)
			r.Post("/{id}/publish", app.PublishAsset)
		})

		r.Get("/gallery", app.Gallery)
		r.Get("/models", app.Models)
		r.Get("/stats", app.StatsSummary)
	})

	if opts.StaticDir != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
