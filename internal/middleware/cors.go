package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// DefaultCORSConfig returns the CORS policy for the JSON API. Origins come
// from configuration; an empty list admits no cross-origin callers.
func DefaultCORSConfig(allowedOrigins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: allowedOrigins,
		MaxAge:         3600,
	}
}

// CORS returns a CORS middleware handler. Bearer tokens travel in the
// Authorization header, so credentials (cookies) are never allowed.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           config.MaxAge,
	})
}
