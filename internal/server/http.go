package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/gokatarajesh/classquiz/internal/auth"
	"github.com/gokatarajesh/classquiz/internal/config"
	"github.com/gokatarajesh/classquiz/internal/domain"
	"github.com/gokatarajesh/classquiz/internal/leaderboard"
	"github.com/gokatarajesh/classquiz/internal/logging"
	"github.com/gokatarajesh/classquiz/internal/quiz"
	"github.com/gokatarajesh/classquiz/internal/session"
)

// Handlers groups the feature handlers mounted on the API mux.
type Handlers struct {
	Auth        *auth.HTTPHandlers
	Quiz        *quiz.HTTPHandlers
	Session     *session.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandler
}

// Check probes one upstream dependency.
type Check func(ctx context.Context) error

// NewHandler builds the routed, middleware-wrapped API handler.
func NewHandler(cfg *config.App, logger zerolog.Logger, tokens auth.TokenValidator, gatherer prometheus.Gatherer, checks map[string]Check, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		if err := pingDependencies(r.Context(), checks); err != nil {
			log.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	teacher := auth.RequireRole(domain.RoleTeacher)
	student := auth.RequireRole(domain.RoleStudent)

	if h.Auth != nil {
		mux.HandleFunc("POST /v1/auth/register", h.Auth.Register)
		mux.HandleFunc("POST /v1/auth/login", h.Auth.Login)
		mux.HandleFunc("POST /v1/auth/refresh", h.Auth.RefreshToken)
		mux.Handle("GET /v1/users/me", auth.RequireAuth(http.HandlerFunc(h.Auth.GetMe)))
	}

	if h.Quiz != nil {
		mux.Handle("POST /v1/quizzes", teacher(http.HandlerFunc(h.Quiz.Create)))
		mux.Handle("GET /v1/quizzes/code/{code}", auth.RequireAuth(http.HandlerFunc(h.Quiz.GetByCode)))
		mux.Handle("GET /v1/quizzes/teacher", teacher(http.HandlerFunc(h.Quiz.ListMine)))
		mux.Handle("DELETE /v1/quizzes/{id}", teacher(http.HandlerFunc(h.Quiz.Delete)))
	}

	if h.Session != nil {
		mux.Handle("POST /v1/sessions/start", student(http.HandlerFunc(h.Session.Start)))
		mux.Handle("POST /v1/results/submit", student(http.HandlerFunc(h.Session.Submit)))
		mux.Handle("GET /v1/results/student", student(http.HandlerFunc(h.Session.MyResults)))
	}

	if h.Leaderboard != nil {
		mux.Handle("GET /v1/results/leaderboard/{quizId}", teacher(http.HandlerFunc(h.Leaderboard.HandleGet)))
		// Browsers cannot set headers on WebSocket upgrades; the handler reads ?token= itself.
		mux.HandleFunc("GET /ws/leaderboards/{quizId}", h.Leaderboard.HandleStream)
	}

	var handler http.Handler = mux
	handler = auth.AuthMiddleware(tokens, logger)(handler)
	handler = corsMiddleware(cfg.CORS)(handler)
	handler = hlog.AccessHandler(accessLog)(handler)
	handler = hlog.RequestIDHandler("request_id", "X-Request-ID")(handler)
	handler = hlog.NewHandler(logger)(handler)
	return handler
}

// NewHTTPServer wraps the API handler in an http.Server.
func NewHTTPServer(cfg *config.App, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

func pingDependencies(ctx context.Context, checks map[string]Check) error {
	for name, check := range checks {
		if err := check(ctx); err != nil {
			return &dependencyError{name: name, err: err}
		}
	}
	return nil
}

type dependencyError struct {
	name string
	err  error
}

func (e *dependencyError) Error() string { return e.name + ": " + e.err.Error() }
func (e *dependencyError) Unwrap() error { return e.err }
