package routes

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/coah80/mediaconv/internal/config"
)

func CoreRoutes(r chi.Router, cfg *config.Config) {
	r.Get("/", handleIndex(cfg.IndexFile))
	r.Get("/health", handleHealth)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleIndex(indexFile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := os.Stat(indexFile)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexFile)
	}
}
