package handlers

import "net/http"

// StatsSummary returns aggregated daily generation counters.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Stats.GetSummary(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: stats summary failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"counters": summary})
}
