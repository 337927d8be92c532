package main

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/outbox"
)

func marshalMessage(t *testing.T, value any) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Value: raw}
}

func outboxLetterMessage(t *testing.T, aggregateType string) *sarama.ConsumerMessage {
	t.Helper()
	letter, err := json.Marshal(outbox.DeadLetter{
		OutboxID:       "outbox-1",
		AggregateType:  aggregateType,
		AggregateID:    "order-1",
		EventType:      "order.prices_recalculated",
		Payload:        json.RawMessage(`{"order_id":"order-1","total":"65.00"}`),
		PublishError:   "kafka: broker not available",
		DLQPublishedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	return marshalMessage(t, kafka.OutboxEnvelope{
		ID:            "outbox-1",
		AggregateType: aggregateType,
		AggregateID:   "order-1",
		EventType:     "order.prices_recalculated",
		Payload:       letter,
		PublishedAt:   time.Now().UTC(),
	})
}

func TestDecodeDeadLetter_ConsumerLetter(t *testing.T) {
	msg := marshalMessage(t, kafka.DeadLetter{
		OriginalTopic: kafka.TopicCatalogueEvents,
		OriginalKey:   "variant-1",
		OriginalValue: `{"variant_id":"variant-1","price":"12.00"}`,
		ErrorMessage:  "listing not found",
		RetryCount:    3,
	})

	got, err := decodeDeadLetter(msg, config{skipMalformed: true})
	require.NoError(t, err)
	assert.Equal(t, "consumer", got.source)
	assert.Equal(t, kafka.TopicCatalogueEvents, got.topic)
	assert.Equal(t, "variant-1", got.key)
	assert.JSONEq(t, `{"variant_id":"variant-1","price":"12.00"}`, string(got.value))
	assert.Empty(t, got.headers)
}

func TestDecodeDeadLetter_ConsumerLetterTargetOverride(t *testing.T) {
	msg := marshalMessage(t, kafka.DeadLetter{
		OriginalTopic: kafka.TopicCatalogueEvents,
		OriginalValue: `{}`,
	})

	got, err := decodeDeadLetter(msg, config{targetTopic: "custom.topic"})
	require.NoError(t, err)
	assert.Equal(t, "custom.topic", got.topic)
}

func TestDecodeDeadLetter_MalformedConsumerLetter(t *testing.T) {
	msg := marshalMessage(t, kafka.DeadLetter{
		OriginalTopic: kafka.TopicCatalogueEvents,
		OriginalValue: `{`,
		ErrorMessage:  "malformed event: unmarshal catalogue event: unexpected end of JSON input",
	})

	_, err := decodeDeadLetter(msg, config{skipMalformed: true})
	assert.ErrorIs(t, err, errMalformedLetter)

	got, err := decodeDeadLetter(msg, config{skipMalformed: false})
	require.NoError(t, err)
	assert.Equal(t, kafka.TopicCatalogueEvents, got.topic)
}

func TestDecodeDeadLetter_OutboxLetterRoutesByAggregate(t *testing.T) {
	tests := []struct {
		aggregate string
		want      string
	}{
		{aggregate: domain.AggregateOrder, want: kafka.TopicOrderEvents},
		{aggregate: domain.AggregatePromotion, want: kafka.TopicCatalogueEvents},
		{aggregate: domain.AggregateVariant, want: kafka.TopicCatalogueEvents},
	}

	for _, tc := range tests {
		t.Run(tc.aggregate, func(t *testing.T) {
			got, err := decodeDeadLetter(outboxLetterMessage(t, tc.aggregate), config{})
			require.NoError(t, err)
			assert.Equal(t, "outbox", got.source)
			assert.Equal(t, tc.want, got.topic)
			assert.Equal(t, "order-1", got.key)

			var envelope kafka.OutboxEnvelope
			require.NoError(t, json.Unmarshal(got.value, &envelope))
			assert.Equal(t, "outbox-1", envelope.ID)
			assert.Equal(t, "order.prices_recalculated", envelope.EventType)
			assert.JSONEq(t, `{"order_id":"order-1","total":"65.00"}`, string(envelope.Payload))

			require.Len(t, got.headers, 1)
			assert.Equal(t, kafka.HeaderEventType, string(got.headers[0].Key))
			assert.Equal(t, "order.prices_recalculated", string(got.headers[0].Value))
		})
	}
}

func TestDecodeDeadLetter_OutboxLetterTargetOverride(t *testing.T) {
	got, err := decodeDeadLetter(outboxLetterMessage(t, domain.AggregatePromotion), config{targetTopic: kafka.TopicOrderEvents})
	require.NoError(t, err)
	assert.Equal(t, kafka.TopicOrderEvents, got.topic)
}

func TestDecodeDeadLetter_Unsupported(t *testing.T) {
	cases := map[string]*sarama.ConsumerMessage{
		"nil":            nil,
		"empty":          {},
		"not json":       {Value: []byte("not-json")},
		"unknown object": {Value: []byte(`{"foo":"bar"}`)},
		"payload string": {Value: []byte(`{"id":"x","payload":"not-an-object"}`)},
		"regular outbox": {Value: []byte(`{"id":"x","payload":{"order_id":"order-1"}}`)},
	}

	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeDeadLetter(msg, config{})
			assert.True(t, errors.Is(err, errUnsupportedLetter), "got %v", err)
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", " ", "b", "c"))
	assert.Empty(t, firstNonEmpty("", " "))
}
