package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-basket/internal/catalog"
	"github.com/noah-isme/backend-basket/internal/config"
	"github.com/noah-isme/backend-basket/internal/obs"
	"github.com/noah-isme/backend-basket/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	taskOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis uri")
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Repo:   store.New(pool),
		Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	mux := asynq.NewServeMux()
	mux.Use(logTasks(logger))
	mux.Handle(catalog.TaskRefresh, catalog.RefreshHandler(catalogService))

	srv := asynq.NewServer(taskOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      taskLogger{l: logger},
	})
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	scheduler := asynq.NewScheduler(taskOpt, &asynq.SchedulerOpts{Logger: taskLogger{l: logger}})
	refreshSpec := "@every " + cfg.CatalogCacheTTL.String()
	if _, err := scheduler.Register(refreshSpec, catalog.NewRefreshTask()); err != nil {
		logger.Fatal().Err(err).Msg("register catalog refresh schedule")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Str("refresh", refreshSpec).Msg("worker starting")
	<-ctx.Done()

	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func logTasks(logger zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, t)
			event := logger.Info()
			if err != nil {
				event = logger.Error().Err(err)
			}
			event.Str("task", t.Type()).Dur("duration", time.Since(start)).Msg("task processed")
			return err
		})
	}
}

// taskLogger adapts zerolog to the asynq.Logger interface.
type taskLogger struct {
	l zerolog.Logger
}

func (t taskLogger) Debug(args ...interface{}) { t.l.Debug().Msg(fmt.Sprint(args...)) }
func (t taskLogger) Info(args ...interface{})  { t.l.Info().Msg(fmt.Sprint(args...)) }
func (t taskLogger) Warn(args ...interface{})  { t.l.Warn().Msg(fmt.Sprint(args...)) }
func (t taskLogger) Error(args ...interface{}) { t.l.Error().Msg(fmt.Sprint(args...)) }
func (t taskLogger) Fatal(args ...interface{}) { t.l.Fatal().Msg(fmt.Sprint(args...)) }

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
