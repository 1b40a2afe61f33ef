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
	"github.com/sirupsen/logrus"

	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/logging"
	"example.com/fittrack/internal/outbox"
	"example.com/fittrack/internal/persistence/postgres"
	"example.com/fittrack/internal/scheduler"
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

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.WithError(err).Fatal("connect to postgres")
	}
	defer pool.Close()

	repo := postgres.NewRepository(pool)
	manager := outbox.NewDLQManager(pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay)

	sched := scheduler.New(cfg.Location, logger)
	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.StreakWarningSchedule, scheduler.NewStreakWarningJob(repo, cfg.Location, time.Now, logger)},
		{cfg.SupplementReminderSpec(), scheduler.NewSupplementReminderJob(repo, cfg.SupplementReminderWindow, cfg.Location, time.Now, logger)},
		{cfg.DLQRetrySpec(), scheduler.NewDLQRetryJob(manager, cfg.DLQBatchSize, logger)},
	}
	for _, j := range jobs {
		if err := sched.Add(j.spec, j.job); err != nil {
			logger.WithError(err).Fatal("register job")
		}
	}

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.WithField("address", cfg.MetricsAddress).Info("worker metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server error")
		}
	}()

	sched.Start()
	logger.WithFields(logrus.Fields{
		"timezone":        cfg.Timezone,
		"dlq_interval":    cfg.DLQPollInterval.String(),
		"dlq_max_retries": cfg.DLQMaxRetries,
	}).Info("worker started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("worker received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("jobs still running at shutdown")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("metrics server shutdown error")
	}
}
