package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/outbox"
)

var (
	errUnsupportedLetter = errors.New("unsupported dead letter")
	errMalformedLetter   = errors.New("dead letter holds a malformed event")
)

// replayMessage содержит письмо, готовое к повторной публикации.
type replayMessage struct {
	source  string
	topic   string
	key     string
	value   []byte
	headers []sarama.RecordHeader
}

// decodeDeadLetter распознаёт оба формата pricing.dlq:
// письма consumer-а каталога (kafka.DeadLetter) и письма outbox worker-а
// (kafka.OutboxEnvelope с outbox.DeadLetter в payload).
func decodeDeadLetter(msg *sarama.ConsumerMessage, cfg config) (replayMessage, error) {
	if msg == nil || len(msg.Value) == 0 {
		return replayMessage{}, errUnsupportedLetter
	}

	var envelope kafka.OutboxEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err == nil && envelope.ID != "" && len(envelope.Payload) > 0 {
		var letter outbox.DeadLetter
		if err := json.Unmarshal(envelope.Payload, &letter); err != nil {
			return replayMessage{}, fmt.Errorf("%w: outbox payload: %w", errUnsupportedLetter, err)
		}
		if letter.OutboxID != "" {
			return fromOutboxLetter(letter, cfg.targetTopic)
		}
	}

	var letter kafka.DeadLetter
	if err := json.Unmarshal(msg.Value, &letter); err != nil {
		return replayMessage{}, fmt.Errorf("%w: %w", errUnsupportedLetter, err)
	}
	if letter.OriginalTopic == "" && letter.OriginalValue == "" {
		return replayMessage{}, errUnsupportedLetter
	}
	if cfg.skipMalformed && strings.Contains(letter.ErrorMessage, kafka.ErrMalformedEvent.Error()) {
		return replayMessage{}, errMalformedLetter
	}
	return fromConsumerLetter(letter, cfg.targetTopic), nil
}

func fromConsumerLetter(letter kafka.DeadLetter, targetTopic string) replayMessage {
	topic := firstNonEmpty(targetTopic, letter.OriginalTopic, kafka.TopicCatalogueEvents)
	return replayMessage{
		source: "consumer",
		topic:  topic,
		key:    letter.OriginalKey,
		value:  []byte(letter.OriginalValue),
	}
}

func fromOutboxLetter(letter outbox.DeadLetter, targetTopic string) (replayMessage, error) {
	value, err := json.Marshal(kafka.OutboxEnvelope{
		ID:            letter.OutboxID,
		AggregateType: letter.AggregateType,
		AggregateID:   letter.AggregateID,
		EventType:     letter.EventType,
		Payload:       letter.Payload,
		PublishedAt:   time.Now().UTC(),
	})
	if err != nil {
		return replayMessage{}, fmt.Errorf("marshal outbox envelope: %w", err)
	}

	return replayMessage{
		source: "outbox",
		topic:  firstNonEmpty(targetTopic, kafka.TopicForAggregate(letter.AggregateType)),
		key:    firstNonEmpty(letter.AggregateID, letter.OutboxID),
		value:  value,
		headers: []sarama.RecordHeader{
			{Key: []byte(kafka.HeaderEventType), Value: []byte(letter.EventType)},
		},
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
