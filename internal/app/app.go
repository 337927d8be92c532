package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	pricingv1 "github.com/vladislavdragonenkov/order-pricing/api/pricing/v1"
	healthcheck "github.com/vladislavdragonenkov/order-pricing/internal/health"
	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/order-pricing/internal/metrics"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/catalogue"
	grpcsvc "github.com/vladislavdragonenkov/order-pricing/internal/service/grpc"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/idempotency"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/orders"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/outbox"
	"github.com/vladislavdragonenkov/order-pricing/internal/version"
)

const gracefulStopTimeout = 5 * time.Second

// Run поднимает gRPC API, HTTP метрики и фоновые воркеры и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return err
	}
	defer deps.close(logger)

	locks, err := initLocker(ctx, cfg, logger.WithField("layer", "lock"))
	if err != nil {
		return err
	}
	defer locks.close(logger)

	pricingMetrics := metrics.NewPricingMetrics()
	workerMetrics := metrics.NewWorkerMetrics()

	ordersSvc := orders.NewService(orders.Repositories{
		Orders:     deps.repo,
		Catalogue:  deps.catalogueRepo,
		Promotions: deps.promotionRepo,
		Vouchers:   deps.voucherRepo,
		Taxes:      deps.taxRepo,
		Outbox:     deps.outboxRepo,
		Timeline:   deps.timelineRepo,
	},
		orders.WithLogger(logger.WithField("layer", "orders")),
		orders.WithMetrics(pricingMetrics),
		orders.WithLocker(locks.locker),
		orders.WithPricesTTL(cfg.PricesTTL),
		orders.WithLockTimeouts(cfg.LockTTL, cfg.LockWait),
	)
	catalogueSvc := catalogue.NewService(catalogue.Repositories{
		Orders:     deps.repo,
		Catalogue:  deps.catalogueRepo,
		Promotions: deps.promotionRepo,
		Vouchers:   deps.voucherRepo,
		Taxes:      deps.taxRepo,
		Outbox:     deps.outboxRepo,
	},
		catalogue.WithLogger(logger.WithField("layer", "catalogue")),
		catalogue.WithMetrics(pricingMetrics),
	)

	serviceLogger := logger.WithField("layer", "grpc")
	guard := grpcsvc.NewIdempotencyGuard(deps.idempotencyRepo, serviceLogger,
		idempotency.WithKeyTTL(cfg.IdempotencyKeyTTL))
	pricingService := grpcsvc.NewPricingService(ordersSvc, catalogueSvc, guard, serviceLogger)

	grpcMetrics := promgrpc.NewServerMetrics()
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	pricingv1.RegisterOrderPricingServiceServer(grpcServer, pricingService)
	grpcMetrics.InitializeMetrics(grpcServer)
	reflection.Register(grpcServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(pricingv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if locks.checker != nil {
		healthHandler.RegisterChecker("redis", locks.checker)
	}

	kafkaLogger := logger.WithField("layer", "kafka")
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, kafkaLogger)
	defer closeKafkaProducer(kafkaProducer, kafkaLogger)

	var (
		outboxCancel context.CancelFunc
		outboxDone   chan struct{}
	)
	if kafkaProducer != nil {
		worker := outbox.NewWorker(deps.outboxRepo, kafka.NewOutboxPublisher(kafkaProducer, ""),
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithMetrics(workerMetrics),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		outboxCancel, outboxDone = startBackground(ctx, worker.Run)
		healthHandler.RegisterChecker("outbox",
			healthcheck.NewOutboxChecker(deps.outboxRepo, cfg.OutboxMaxAge).WithMaxPending(cfg.OutboxMaxPending))
	} else {
		logger.Warn("kafka is not configured, outbox events stay pending")
	}
	defer shutdownWorker(outboxCancel, outboxDone, logger)

	consumer, err := initCatalogueConsumer(cfg, catalogueSvc, kafkaProducer, pricingMetrics, kafkaLogger)
	if err != nil {
		logger.WithError(err).Warn("failed to create catalogue consumer, continuing without it")
		consumer = nil
	}
	if consumer != nil {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Warn("failed to start catalogue consumer")
		}
	}
	defer stopKafkaConsumer(consumer, kafkaLogger)

	cleanupWorker := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("layer", "idempotency-cleanup")),
		idempotency.WithMetrics(workerMetrics),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	cleanupCancel, cleanupDone := startBackground(ctx, cleanupWorker.Run)
	defer shutdownWorker(cleanupCancel, cleanupDone, logger)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.Shutdown()
		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(gracefulStopTimeout):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// startBackground запускает run в отдельной горутине с собственной отменой.
func startBackground(ctx context.Context, run func(context.Context)) (context.CancelFunc, chan struct{}) {
	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(workerCtx)
	}()
	return cancel, done
}

// shutdownWorker отменяет фоновый воркер и ждёт его завершения не дольше gracefulStopTimeout.
func shutdownWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(gracefulStopTimeout):
		logger.Warn("background worker did not stop in time")
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics и health-пробы.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulStopTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
