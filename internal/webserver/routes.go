package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/qforge/qforge/internal/webapi"
)

// registerRoutes sets up the JSON API routes on the given mux.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	store := webapi.NewFileStore(cfg.OutcomesDir)
	webapi.RegisterRoutes(mux, store)

	// POST /api/reload picks up outcome files written after startup.
	mux.HandleFunc("POST /api/reload", func(w http.ResponseWriter, _ *http.Request) {
		if err := store.Reload(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}) //nolint:errcheck
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "reloaded"}) //nolint:errcheck
	})

	mux.HandleFunc("/", handleIndex)
}

// handleIndex points API consumers at the available endpoints.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"service": "qforge",
		"endpoints": []string{
			"/api/health",
			"/api/summary",
			"/api/runs",
			"/api/runs/{id}",
		},
	})
}
