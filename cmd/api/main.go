package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"example.com/fittrack/internal/api"
	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/leaderboard"
	"example.com/fittrack/internal/logging"
	"example.com/fittrack/internal/outbox"
	"example.com/fittrack/internal/persistence/memory"
	"example.com/fittrack/internal/persistence/postgres"
	"example.com/fittrack/internal/progression"
	httptransport "example.com/fittrack/internal/transport/http"
)

func main() {
	if err := config.LoadDotEnv(config.EnvFile()); err != nil {
		logrus.WithError(err).Fatal("load env file")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo       domain.Repository
		dispatcher *outbox.Dispatcher
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on exit and no events are published")
		repo = memory.NewStore()
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.WithError(err).Fatal("connect to postgres")
		}
		defer pool.Close()
		repo = postgres.NewRepository(pool)

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers, 0)
		defer producer.Close()
		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
	}

	if err := repo.SeedAchievements(ctx, progression.DefaultAchievements()); err != nil {
		logger.WithError(err).Fatal("seed achievements")
	}

	service := domain.NewService(repo, domain.WithServiceLocation(cfg.Location))
	engine := progression.NewEngine(repo,
		progression.WithLocation(cfg.Location),
		progression.WithLogger(logger),
	)

	var board api.LeaderboardReader
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		board = leaderboard.New(rdb, cfg.LeaderboardKey)
	}

	mux := http.NewServeMux()
	api.NewHandler(service, engine, board, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := httptransport.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunEviction(ctx, time.Minute, 10*time.Minute)

	handler := httptransport.Chain(mux,
		httptransport.CORS(cfg.CORSAllowedOrigins),
		httptransport.RequestLogger(logger.WithField("component", "http"), mux),
		auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}).Wrap,
		limiter.Middleware,
	)
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), handler)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.HTTPAddress,
			"storage": cfg.StorageDriver,
		}).Info("fittrack api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
}
