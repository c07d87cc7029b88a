package server

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"github.com/gokatarajesh/classquiz/internal/config"
)

func newCORS(cfg config.CORS) *cors.Cors {
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

// corsMiddleware applies the configured CORS policy and answers preflight requests.
func corsMiddleware(cfg config.CORS) func(http.Handler) http.Handler {
	return newCORS(cfg).Handler
}

// OriginChecker reports whether a WebSocket upgrade origin is allowed by the CORS policy.
// Requests without an Origin header come from non-browser clients and are accepted.
func OriginChecker(cfg config.CORS) func(*http.Request) bool {
	c := newCORS(cfg)
	return func(r *http.Request) bool {
		if r.Header.Get("Origin") == "" {
			return true
		}
		return c.OriginAllowed(r)
	}
}
