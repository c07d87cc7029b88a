package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/classquiz/internal/accesscode"
	"github.com/gokatarajesh/classquiz/internal/auth"
	"github.com/gokatarajesh/classquiz/internal/auth/jwt"
	"github.com/gokatarajesh/classquiz/internal/config"
	"github.com/gokatarajesh/classquiz/internal/db/memory"
	"github.com/gokatarajesh/classquiz/internal/db/repository"
	"github.com/gokatarajesh/classquiz/internal/leaderboard"
	"github.com/gokatarajesh/classquiz/internal/logging"
	"github.com/gokatarajesh/classquiz/internal/metrics"
	"github.com/gokatarajesh/classquiz/internal/quiz"
	"github.com/gokatarajesh/classquiz/internal/server"
	"github.com/gokatarajesh/classquiz/internal/session"
	ws "github.com/gokatarajesh/classquiz/pkg/http/ws"
)

// store is every persistence contract the services need. Both the Postgres repositories
// and the in-memory store satisfy it.
type store interface {
	auth.UserStore
	quiz.Store
	session.Store
	leaderboard.Store
}

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool    *pgxpool.Pool
	redis   *redis.Client
	hub     *ws.Hub
	handler http.Handler
	http    *http.Server

	lbBroadcaster *leaderboard.Broadcaster
	bgCancels     []context.CancelFunc
}

// Options lets callers replace the default logger.
type Options struct {
	Logger *zerolog.Logger
}

// New bootstraps logger, store, optional Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App, opts ...Options) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	for _, o := range opts {
		if o.Logger != nil {
			logger = *o.Logger
		}
	}
	logger.Info().Str("store", cfg.StoreDriver).Msg("starting application bootstrap")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	checks := make(map[string]server.Check)

	var (
		st   store
		pool *pgxpool.Pool
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		st = memory.NewStore()
		logger.Warn().Msg("using in-memory store; data is lost on restart")
	default:
		var err error
		pool, err = pgxpool.New(ctx, cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.AutoMigrate {
			if err := repository.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Info().Msg("database migrations applied")
		}
		st = repository.NewStore(pool)
		checks["postgres"] = pool.Ping
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; caching and cross-instance leaderboard updates disabled")
	}

	authSvc := auth.NewService(st, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
			AccessTTL:     cfg.Security.AccessTTL,
			RefreshTTL:    cfg.Security.RefreshTTL,
			Issuer:        cfg.Name,
		},
		BcryptCost: cfg.Security.BcryptCost,
	}, logger)

	quizOpts := quiz.ServiceOptions{
		Codes: accesscode.NewGenerator(accesscode.Options{
			MaxAttempts: cfg.AccessCode.MaxAttempts,
			Observer:    recorder.AccessCodeAttempts,
		}),
		Metrics: recorder,
	}
	if redisClient != nil {
		quizOpts.Cache = quiz.NewRedisCache(redisClient, cfg.QuizCache.TTL)
	}
	quizSvc := quiz.NewService(st, quizOpts, logger)

	leaderboardSvc := leaderboard.NewService(st, redisClient, logger, leaderboard.ServiceOptions{
		PubSubChannel: cfg.Leaderboard.PubSubChannel,
		CacheTTL:      cfg.Leaderboard.CacheTTL,
		Metrics:       recorder,
	})
	wsHub := ws.NewHub(logger)
	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, leaderboardSvc, logger)
	if redisClient == nil {
		leaderboardSvc.SetListener(lbBroadcaster)
	}

	sessionSvc := session.NewService(st, quizSvc, session.ServiceOptions{
		Duration: session.DurationPolicy{Mode: cfg.Session.DurationMode, Grace: cfg.Session.Grace},
		Notifier: leaderboardSvc,
		Metrics:  recorder,
	}, logger)

	handler := server.NewHandler(cfg, logger, authSvc, registry, checks, server.Handlers{
		Auth:        auth.NewHTTPHandlers(authSvc, logger),
		Quiz:        quiz.NewHTTPHandlers(quizSvc, logger),
		Session:     session.NewHTTPHandlers(sessionSvc, logger),
		Leaderboard: leaderboard.NewHTTPHandler(leaderboardSvc, wsHub, authSvc, server.OriginChecker(cfg.CORS), logger),
	})

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		hub:           wsHub,
		handler:       handler,
		http:          server.NewHTTPServer(cfg, handler),
		lbBroadcaster: lbBroadcaster,
		bgCancels:     make([]context.CancelFunc, 0, 1),
	}, nil
}

// Handler exposes the routed API, mainly for in-process tests.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	a.Close()

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

// Close stops background work and releases connections.
func (a *Application) Close() {
	for _, cancel := range a.bgCancels {
		cancel()
	}
	a.bgCancels = nil

	a.hub.Close()
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.redis == nil {
		return
	}
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.lbBroadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
		}
	}()
}

// StartBackground runs background workers without the HTTP listener. Tests that serve
// Handler() themselves use it.
func (a *Application) StartBackground(ctx context.Context) {
	a.startBackgroundWorkers(ctx)
}
