package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
)

var corsLogger = logger.Get("CORS")

func LoadCORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.CORSOrigins

	if len(origins) > 0 && !config.Contains(origins, "*") {
		corsLogger.Emit(logger.SUCCESS, "Restricting CORS to %d origins\n", len(origins))
		return cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           86400,
		})
	}

	corsLogger.Emit(logger.WARNING, "CORS_ORIGINS not restricted, allowing all origins (credentials disabled)\n")
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}
