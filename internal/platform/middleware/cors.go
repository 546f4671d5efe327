package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the marketplace web client call the API from its own origin.
// With no origins configured every origin is allowed without credentials.
func CORS(allowedOrigins ...string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link", "Location", "Retry-After", "X-Request-Id"},
		MaxAge:         300,
	})
}
