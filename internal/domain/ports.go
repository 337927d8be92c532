package domain

import (
	"context"
	"time"
)

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, responseCode int) error
	MarkFailed(key string, responseBody []byte, responseCode int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// Lock — удерживаемая распределённая или локальная блокировка.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker сериализует пересчёт цен одного заказа между горутинами и репликами.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Типы событий, публикуемых через outbox.
const (
	EventOrderPricesRecalculated = "order.prices_recalculated"
	EventOrderStatusChanged      = "order.status_changed"
	EventPromotionDeleted        = "promotion.deleted"
	EventListingsRepriced        = "catalogue.listings_repriced"
)

// Типы агрегатов outbox.
const (
	AggregateOrder     = "order"
	AggregatePromotion = "promotion"
	AggregateVariant   = "variant"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
