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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/auth"
	"github.com/gokatarajesh/question-bank/internal/auth/jwt"
	"github.com/gokatarajesh/question-bank/internal/category"
	"github.com/gokatarajesh/question-bank/internal/config"
	"github.com/gokatarajesh/question-bank/internal/db/postgres"
	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/logging"
	"github.com/gokatarajesh/question-bank/internal/question"
	"github.com/gokatarajesh/question-bank/internal/server"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps the logger, Postgres, the optional Redis cache, the
// question and label services and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN(), postgres.PoolConfig{MaxConns: cfg.Postgres.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	queries := repository.New(pool)
	transactor := postgres.NewTransactor(pool)
	metrics := question.NewMetrics(prometheus.DefaultRegisterer)

	deps := map[string]server.Pinger{"postgres": pool}

	var (
		redisClient *redis.Client
		cache       question.AggregateCache
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		cache = question.NewCache(redisClient, cfg.Cache.TTL)
		deps["redis"] = server.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Cache.TTL).Msg("question cache enabled")
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; question cache disabled")
	}

	questionSvc := question.NewService(queries, question.NewTransactor(transactor, queries), question.ServiceOptions{
		Cache:   cache,
		Metrics: metrics,
	}, logger)
	evaluator := question.NewEvaluator(questionSvc, question.EvaluatorOptions{
		StrictMatching: cfg.Evaluation.StrictMatching,
		Metrics:        metrics,
	}, logger)

	labelTx := category.NewTransactor(transactor, queries)
	categorySvc := category.NewService(repository.Categories, queries, labelTx, logger)
	tagSvc := category.NewService(repository.Tags, queries, labelTx, logger)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.TokenTTL,
		Issuer: cfg.Security.TokenIssuer,
	})

	apiServer := server.NewHTTPServer(server.Options{
		Addr:     cfg.HTTPAddr,
		Auth:     auth.Middleware(tokens, cfg.Security.OwnerRole, logger),
		Gatherer: prometheus.DefaultGatherer,
		Deps:     deps,
		Routes: server.Routes{
			Questions:  question.NewHTTPHandler(questionSvc, evaluator, logger).Routes,
			Categories: category.NewHTTPHandler(categorySvc, httperrors.ErrCodeCategoryNotFound, logger).Routes,
			Tags:       category.NewHTTPHandler(tagSvc, httperrors.ErrCodeTagNotFound, logger).Routes,
		},
	}, logger)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.pool.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
