package kafka

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// HeaderEventType дублирует тип события в заголовке, чтобы потребители фильтровали без разбора JSON.
const HeaderEventType = "x-event-type"

var errPublisherNotInitialized = errors.New("kafka outbox publisher is not initialized")

// OutboxTopicPublisher публикует outbox-сообщения в Kafka.
// События заказов уходят в topic заказов, события промо-акций и листингов в topic каталога.
type OutboxTopicPublisher struct {
	producer EventPublisher
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
// Непустой topic отправляет все события в него.
func NewOutboxPublisher(producer EventPublisher, topic string) domain.OutboxPublisher {
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// OutboxEnvelope — формат сообщения в topic.
type OutboxEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := OutboxEnvelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}

	return p.producer.PublishEvent(p.topicFor(event), key, envelope,
		sarama.RecordHeader{Key: []byte(HeaderEventType), Value: []byte(event.EventType)})
}

func (p *OutboxTopicPublisher) topicFor(event domain.OutboxMessage) string {
	if p.topic != "" {
		return p.topic
	}
	return TopicForAggregate(event.AggregateType)
}

// TopicForAggregate возвращает topic по умолчанию для типа агрегата outbox-события.
func TopicForAggregate(aggregateType string) string {
	switch aggregateType {
	case domain.AggregatePromotion, domain.AggregateVariant:
		return TopicCatalogueEvents
	default:
		return TopicOrderEvents
	}
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
