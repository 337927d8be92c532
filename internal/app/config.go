package app

import (
	"time"

	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
)

// Поддерживаемые хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса ценообразования.
// Список Kafka-брокеров хранится строкой через запятую, чтобы Config оставался сравнимым.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers        string
	KafkaConsumerGroup  string
	KafkaCatalogueTopic string
	KafkaMaxRetries     int

	RedisAddr       string
	RedisLockPrefix string

	PricesTTL time.Duration
	LockTTL   time.Duration
	LockWait  time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	OutboxMaxPending   int
	OutboxMaxAge       time.Duration

	IdempotencyKeyTTL           time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int
}

// DefaultConfig возвращает конфигурацию для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:                    ":50051",
		MetricsAddr:                 ":9090",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		KafkaConsumerGroup:          "pricing-service",
		KafkaCatalogueTopic:         kafka.TopicCatalogueEvents,
		KafkaMaxRetries:             3,
		RedisLockPrefix:             "pricing:lock:",
		PricesTTL:                   time.Hour,
		LockTTL:                     10 * time.Second,
		LockWait:                    5 * time.Second,
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            100 * time.Millisecond,
		OutboxMaxPending:            1000,
		OutboxMaxAge:                5 * time.Minute,
		IdempotencyKeyTTL:           24 * time.Hour,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
	}
}
