package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/app"
	"github.com/vladislavdragonenkov/order-pricing/internal/version"
)

const (
	envGRPCAddr                    = "PRICING_GRPC_ADDR"
	envMetricsAddr                 = "PRICING_METRICS_ADDR"
	envStorageDriver               = "PRICING_STORAGE_DRIVER"
	envPostgresDSN                 = "PRICING_POSTGRES_DSN"
	envPostgresAutoMigrate         = "PRICING_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers                = "KAFKA_BROKERS"
	envKafkaConsumerGroup          = "PRICING_KAFKA_CONSUMER_GROUP"
	envKafkaCatalogueTopic         = "PRICING_KAFKA_CATALOGUE_TOPIC"
	envRedisAddr                   = "PRICING_REDIS_ADDR"
	envPricesTTL                   = "PRICING_PRICES_TTL"
	envLockTTL                     = "PRICING_LOCK_TTL"
	envLockWait                    = "PRICING_LOCK_WAIT"
	envOutboxPollInterval          = "PRICING_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "PRICING_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "PRICING_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay            = "PRICING_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending            = "PRICING_OUTBOX_MAX_PENDING"
	envIdempotencyKeyTTL           = "PRICING_IDEMPOTENCY_KEY_TTL"
	envIdempotencyCleanupInterval  = "PRICING_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "PRICING_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envLogLevel                    = "PRICING_LOG_LEVEL"
)

// envLookup совместим с os.LookupEnv.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if raw, ok := lookup(envLogLevel); ok {
		level, err := log.ParseLevel(strings.TrimSpace(raw))
		if err != nil {
			log.WithError(err).Warnf("invalid %s, using info", envLogLevel)
			return
		}
		log.SetLevel(level)
	}
}

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию, а ошибка возвращается в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []error) {
	cfg := app.DefaultConfig()
	var warnings []error

	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setBool := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	setInt := func(key string, dst *int, valid func(int) bool, rule string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseInt(v, valid, rule)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	setDuration := func(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}

	positiveInt := func(v int) bool { return v > 0 }
	nonNegativeInt := func(v int) bool { return v >= 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }
	nonNegativeDuration := func(v time.Duration) bool { return v >= 0 }

	setString(envGRPCAddr, &cfg.GRPCAddr)
	setString(envMetricsAddr, &cfg.MetricsAddr)
	setString(envStorageDriver, &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	setString(envPostgresDSN, &cfg.PostgresDSN)
	setBool(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	setString(envKafkaBrokers, &cfg.KafkaBrokers)
	setString(envKafkaConsumerGroup, &cfg.KafkaConsumerGroup)
	setString(envKafkaCatalogueTopic, &cfg.KafkaCatalogueTopic)
	setString(envRedisAddr, &cfg.RedisAddr)
	setDuration(envPricesTTL, &cfg.PricesTTL, nonNegativeDuration, "must be >= 0")
	setDuration(envLockTTL, &cfg.LockTTL, positiveDuration, "must be > 0")
	setDuration(envLockWait, &cfg.LockWait, positiveDuration, "must be > 0")
	setDuration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	setInt(envOutboxBatchSize, &cfg.OutboxBatchSize, positiveInt, "must be > 0")
	setInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positiveInt, "must be > 0")
	setDuration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegativeDuration, "must be >= 0")
	setInt(envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegativeInt, "must be >= 0")
	setDuration(envIdempotencyKeyTTL, &cfg.IdempotencyKeyTTL, positiveDuration, "must be > 0")
	setDuration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0")
	setInt(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positiveInt, "must be > 0")

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if valid != nil && !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", raw, err)
	}
	if valid != nil && !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}

func main() {
	setupLogger(os.LookupEnv)
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.WithError(warning).Warn("invalid environment value, using default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(version.Fields()).WithFields(log.Fields{
		"grpc_addr":      cfg.GRPCAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"kafka_enabled":  cfg.KafkaBrokers != "",
		"redis_enabled":  cfg.RedisAddr != "",
		"prices_ttl":     cfg.PricesTTL,
	}).Info("запускаем OrderPricingService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("OrderPricingService остановлен")
}
