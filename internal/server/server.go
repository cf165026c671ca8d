package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/middleware"
	"github.com/coah80/mediaconv/internal/routes"
)

type Deps struct {
	Convert     *routes.ConvertHandler
	RateLimiter *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(securityHeaders)
	r.Use(middleware.LoadCORS(cfg))

	routes.CoreRoutes(r, cfg)
	routes.DownloadRoutes(r, cfg)
	if deps.RateLimiter != nil {
		routes.ConvertRoutes(r, deps.Convert, deps.RateLimiter.Handler)
	} else {
		routes.ConvertRoutes(r, deps.Convert)
	}

	return r
}

func New(cfg *config.Config, deps Deps) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       0,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func PrintBanner(cfg *config.Config) {
	fmt.Printf(`
  ┌──────────────────────────────────┐
  │        mediaconv %s          │
  │   media conversion web server    │
  └──────────────────────────────────┘
  port %s · uploads %s · outputs %s
`, padVersion(config.Version), cfg.Port, cfg.UploadFolder, cfg.OutputFolder)
}

func padVersion(v string) string {
	for len(v) < 10 {
		v += " "
	}
	return v
}
