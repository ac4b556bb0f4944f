package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rivetpay/gateway/internal/application/services"
	"github.com/rivetpay/gateway/internal/config"
	"github.com/rivetpay/gateway/internal/idempotency"
	"github.com/rivetpay/gateway/internal/infrastructure/persistence/postgres"
	"github.com/rivetpay/gateway/internal/interfaces/rest/handlers"
	"github.com/rivetpay/gateway/internal/interfaces/rest/middleware"
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

	logger.Info("starting gateway service",
		"port", cfg.Server.Port,
		"queue_driver", cfg.Queue.Driver,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	orderRepo := postgres.NewOrderRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	webhookRepo := postgres.NewWebhookRepository(db)
	merchantRepo := postgres.NewMerchantRepository(db)
	idempotencyRepo := postgres.NewIdempotencyRepository(db)

	var dispatcher queue.Dispatcher
	var consumer queue.Consumer
	switch cfg.Queue.Driver {
	case "redis":
		rq := queue.NewRedisQueue(cfg.Redis, cfg.Queue.VisibilityTimeout, logger)
		if err := rq.Ping(ctx); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rq.Close()
		dispatcher = rq
	case "memory":
		mq := queue.NewMemoryQueue(0)
		defer mq.Close()
		dispatcher, consumer = mq, mq
	}

	ldg := ledger.New(refundRepo)
	cache := idempotency.NewCache(idempotencyRepo, logger)

	webhookService := services.NewWebhookService(webhookRepo, merchantRepo, dispatcher, logger)
	orderService := services.NewOrderService(orderRepo, logger)
	paymentService := services.NewPaymentService(orderRepo, paymentRepo, dispatcher, webhookService, logger)
	refundService := services.NewRefundService(paymentRepo, refundRepo, ldg, dispatcher, webhookService, logger)

	h := handlers.NewHandlers(orderService, paymentService, refundService, webhookService, logger)

	apiMux := http.NewServeMux()
	h.Register(apiMux)

	api := http.Handler(apiMux)
	api = middleware.Idempotency(cache)(api)
	api = middleware.Auth(merchantRepo, logger)(api)

	root := http.NewServeMux()
	root.Handle("/v1/", api)
	root.Handle("GET /metrics", promhttp.Handler())
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handler := middleware.Recovery(logger)(http.Handler(root))
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// With the memory driver there is no separate worker process, so the
	// pool and scheduler run in-process.
	if consumer != nil {
		schedule := worker.RetrySchedule
		if cfg.Webhook.TestRetrySchedule {
			schedule = worker.TestRetrySchedule
		}

		pool := worker.NewPool(consumer, cfg.Worker.Concurrency, logger)
		pool.Register(queue.JobProcessPayment,
			worker.NewSettlementProcessor(paymentRepo, webhookService, cfg.Settlement, logger).Process)
		pool.Register(queue.JobProcessRefund,
			worker.NewRefundProcessor(paymentRepo, refundRepo, ldg, webhookService, logger).Process)
		pool.Register(queue.JobDeliverWebhook,
			worker.NewDeliveryProcessor(webhookRepo, webhookService, cfg.Webhook.DeliveryTimeout, schedule, logger).Process)

		scheduler := worker.NewScheduler(webhookRepo, webhookService, cfg.Worker.SchedulerInterval, cfg.Worker.SchedulerBatch, logger)

		go pool.Run(workerCtx)
		go scheduler.Run(workerCtx)
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
