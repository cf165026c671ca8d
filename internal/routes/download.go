package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coah80/mediaconv/internal/config"
)

func DownloadRoutes(r chi.Router, cfg *config.Config) {
	r.Get("/download/{filename}", handleDownload(cfg.OutputFolder))
}

func handleDownload(outputRoot string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
			http.NotFound(w, r)
			return
		}

		f, err := os.Open(filepath.Join(outputRoot, filename))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil || stat.IsDir() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
			toASCIIFilename(filename), url.PathEscape(filename)))
		http.ServeContent(w, r, filename, stat.ModTime(), f)
	}
}

func toASCIIFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r <= 0x7E && r != '"' && r != '\\' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
