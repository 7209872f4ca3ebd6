package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/bootstrap"
	"github.com/kirillkom/hirenet-interview/internal/config"
	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/workerpool"
	"github.com/kirillkom/hirenet-interview/internal/observability/logging"
	"github.com/kirillkom/hirenet-interview/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.New("interview-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := workerpool.PolicyBlock
	if cfg.WorkerQueuePolicy == string(workerpool.PolicyReject) {
		policy = workerpool.PolicyReject
	}
	pool := workerpool.New(cfg.WorkerPoolSize, cfg.WorkerQueueSize, policy, logger)

	workerMetrics := metrics.NewWorkerMetrics("interview-worker", pool.QueueDepth)

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:        logger,
		StageObserver: workerMetrics,
	})
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	pool.Start(ctx)

	logger.Info("worker subscribed", "subject", cfg.NATSSubject,
		"pool_size", cfg.WorkerPoolSize, "queue_policy", string(policy))

	err = app.Queue.SubscribeAnswerSubmitted(ctx, func(handlerCtx context.Context, job domain.ProcessingJob) error {
		return pool.Submit(handlerCtx, func(taskCtx context.Context) {
			workerMetrics.ObserveQueueLag(time.Since(job.SubmittedAt))
			workerMetrics.StartAnswer()

			processCtx, cancel := context.WithTimeout(taskCtx, cfg.AnswerTimeout)
			defer cancel()

			start := time.Now()
			err := app.ProcessUC.Process(processCtx, job)
			workerMetrics.FinishAnswer(time.Since(start), err)
			if err != nil {
				logger.Error("answer processing contained failure",
					"session_id", job.SessionID,
					"question_id", job.QuestionID,
					"error", err)
			}
		})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker subscribe failed", "error", err)
	}

	pool.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
