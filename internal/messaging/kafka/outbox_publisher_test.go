package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

func expectTopic(topic string) mocks.MessageChecker {
	return func(msg *sarama.ProducerMessage) error {
		if msg.Topic != topic {
			return fmt.Errorf("expected topic %s, got %s", topic, msg.Topic)
		}
		return nil
	}
}

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicOrderEvents {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var envelope OutboxEnvelope
		if err := json.Unmarshal(value, &envelope); err != nil {
			return err
		}
		if envelope.EventType != domain.EventOrderStatusChanged || string(envelope.Payload) != `{"status":"unconfirmed"}` {
			return fmt.Errorf("unexpected envelope %+v", envelope)
		}
		return nil
	})

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-outbox-publisher-test"),
	}
	publisher := NewOutboxPublisher(producer, "")

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-123",
		EventType:     domain.EventOrderStatusChanged,
		Payload:       []byte(`{"status":"unconfirmed"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_RoutesCatalogueEvents(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic(TopicCatalogueEvents))
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic(TopicCatalogueEvents))
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic("custom"))

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), "")
	for _, msg := range []domain.OutboxMessage{
		{ID: "outbox-1", AggregateType: domain.AggregatePromotion, AggregateID: "promo-1", EventType: domain.EventPromotionDeleted, Payload: []byte(`{}`)},
		{ID: "outbox-2", AggregateType: domain.AggregateVariant, AggregateID: "variant-1", EventType: domain.EventListingsRepriced, Payload: []byte(`{}`)},
	} {
		if err := publisher.Publish(msg); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	fixed := NewOutboxPublisher(NewProducerFromSync(mockProducer), "custom")
	if err := fixed.Publish(domain.OutboxMessage{ID: "outbox-3", AggregateType: domain.AggregatePromotion, Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-234",
		EventType:     domain.EventOrderPricesRecalculated,
		Payload:       []byte(`{"total_gross":"10.00"}`),
	})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-3"}); !errors.Is(err, errPublisherNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestTopicForAggregate(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		domain.AggregateOrder:     TopicOrderEvents,
		domain.AggregatePromotion: TopicCatalogueEvents,
		domain.AggregateVariant:   TopicCatalogueEvents,
		"":                        TopicOrderEvents,
	}
	for aggregate, want := range cases {
		if got := TopicForAggregate(aggregate); got != want {
			t.Errorf("TopicForAggregate(%q) = %s, want %s", aggregate, got, want)
		}
	}
}
