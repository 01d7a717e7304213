package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSConfig lists the admin UI origins allowed to call the API.
type CORSConfig struct {
	// "*" allows any origin and is only meant for local development.
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:4200"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"600"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`

	// Environment "development" allows any origin.
	Environment string `env:"-"`
}

// DefaultCORSConfig allows any origin, as in local development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		MaxAge:         600,
		Environment:    "development",
	}
}

// CORS answers preflight requests itself, with 200 and no body, and decorates actual requests
// from allowed origins. The admin UI reads the correlation id and the export
// file name, so both are exposed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if cfg.Environment == "development" {
		origins = []string{"*"}
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 600
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CorrelationHeader},
		ExposedHeaders:   []string{CorrelationHeader, "Content-Disposition"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           maxAge,
	})
}
