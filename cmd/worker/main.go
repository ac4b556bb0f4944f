package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rivetpay/gateway/internal/application/services"
	"github.com/rivetpay/gateway/internal/config"
	"github.com/rivetpay/gateway/internal/infrastructure/persistence/postgres"
	"github.com/rivetpay/gateway/internal/ledger"
	"github.com/rivetpay/gateway/internal/queue"
	"github.com/rivetpay/gateway/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	if cfg.Queue.Driver != "redis" {
		logger.Error("the worker process requires the redis queue driver",
			"queue_driver", cfg.Queue.Driver)
		os.Exit(1)
	}

	logger.Info("starting worker service",
		"concurrency", cfg.Worker.Concurrency,
		"scheduler_interval", cfg.Worker.SchedulerInterval,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rq := queue.NewRedisQueue(cfg.Redis, cfg.Queue.VisibilityTimeout, logger)
	if err := rq.Ping(ctx); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rq.Close()

	paymentRepo := postgres.NewPaymentRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	webhookRepo := postgres.NewWebhookRepository(db)
	merchantRepo := postgres.NewMerchantRepository(db)

	ldg := ledger.New(refundRepo)
	webhookService := services.NewWebhookService(webhookRepo, merchantRepo, rq, logger)

	schedule := worker.RetrySchedule
	if cfg.Webhook.TestRetrySchedule {
		schedule = worker.TestRetrySchedule
	}

	pool := worker.NewPool(rq, cfg.Worker.Concurrency, logger)
	pool.Register(queue.JobProcessPayment,
		worker.NewSettlementProcessor(paymentRepo, webhookService, cfg.Settlement, logger).Process)
	pool.Register(queue.JobProcessRefund,
		worker.NewRefundProcessor(paymentRepo, refundRepo, ldg, webhookService, logger).Process)
	pool.Register(queue.JobDeliverWebhook,
		worker.NewDeliveryProcessor(webhookRepo, webhookService, cfg.Webhook.DeliveryTimeout, schedule, logger).Process)

	scheduler := worker.NewScheduler(webhookRepo, webhookService, cfg.Worker.SchedulerInterval, cfg.Worker.SchedulerBatch, logger)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Run(runCtx)

	// Expose worker metrics on the configured port.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Server.Port,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		pool.Run(runCtx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	cancel()
	<-done
	metricsServer.Close()

	logger.Info("worker exited")
}
