package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/order-pricing/internal/health"
	"github.com/vladislavdragonenkov/order-pricing/internal/lock"
	"github.com/vladislavdragonenkov/order-pricing/internal/storage/memory"
	"github.com/vladislavdragonenkov/order-pricing/internal/storage/postgres"
)

const redisDialTimeout = 3 * time.Second

// runtimeDependencies собирает хранилища выбранного драйвера и функцию их закрытия.
type runtimeDependencies struct {
	repo            domain.OrderRepository
	catalogueRepo   domain.CatalogueRepository
	promotionRepo   domain.PromotionRepository
	voucherRepo     domain.VoucherRepository
	taxRepo         domain.TaxRepository
	outboxRepo      domain.OutboxRepository
	timelineRepo    domain.TimelineRepository
	idempotencyRepo domain.IdempotencyRepository

	closeFn        func() error
	storageChecker healthcheck.Checker
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// initRuntimeDependencies создаёт репозитории для cfg.StorageDriver.
// Для postgres подключение проверяется сразу, миграции применяются при PostgresAutoMigrate.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if driver == "" {
		driver = StorageDriverMemory
	}

	switch driver {
	case StorageDriverMemory:
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			repo:            memory.NewOrderRepository(),
			catalogueRepo:   memory.NewCatalogueRepository(),
			promotionRepo:   memory.NewPromotionRepository(),
			voucherRepo:     memory.NewVoucherRepository(),
			taxRepo:         memory.NewTaxRepository(),
			outboxRepo:      memory.NewOutboxRepository(),
			timelineRepo:    memory.NewTimelineRepository(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
			storageChecker: healthcheck.NewSimpleChecker("storage", func() error {
				return nil
			}),
		}, nil
	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("postgres dsn is required for postgres storage driver")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		logger.Info("using postgres storage")
		return &runtimeDependencies{
			repo:            postgres.NewOrderRepository(store),
			catalogueRepo:   postgres.NewCatalogueRepository(store),
			promotionRepo:   postgres.NewPromotionRepository(store),
			voucherRepo:     postgres.NewVoucherRepository(store),
			taxRepo:         postgres.NewTaxRepository(store),
			outboxRepo:      postgres.NewOutboxRepository(store),
			timelineRepo:    postgres.NewTimelineRepository(store),
			idempotencyRepo: postgres.NewIdempotencyRepository(store),
			closeFn:         store.Close,
			storageChecker:  healthcheck.NewPingChecker("storage", healthcheck.PingerFunc(store.Ping), 0),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// lockDependencies содержит блокировку пересчёта и её health-проверку.
type lockDependencies struct {
	locker  domain.Locker
	checker healthcheck.Checker
	closeFn func() error
}

// initLocker выбирает Redis при заданном адресе, иначе in-memory блокировку одного процесса.
func initLocker(ctx context.Context, cfg Config, logger *log.Entry) (*lockDependencies, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		logger.Info("redis is not configured, using in-process recalculation lock")
		return &lockDependencies{locker: lock.NewMemoryLocker()}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: redisDialTimeout,
	})
	locker := lock.NewRedisLocker(client, cfg.RedisLockPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := locker.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	logger.WithField("redis_addr", addr).Info("redis recalculation lock initialized")
	return &lockDependencies{
		locker:  locker,
		checker: healthcheck.NewPingChecker("redis", healthcheck.PingerFunc(locker.Ping), 0),
		closeFn: client.Close,
	}, nil
}

func (d *lockDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close redis client")
	}
}
