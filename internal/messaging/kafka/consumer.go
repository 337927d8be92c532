package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// ErrMalformedEvent помечает сообщения, которые бессмысленно обрабатывать повторно.
var ErrMalformedEvent = errors.New("malformed event")

// MessageHandler обрабатывает сообщение из Kafka
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

// EventPublisher отправляет событие в topic; реализуется Producer.
type EventPublisher interface {
	PublishEvent(topic string, key string, event any, headers ...sarama.RecordHeader) error
}

// Consumer читает события каталога из consumer group, повторяет неудачную
// обработку и отправляет исчерпавшие попытки сообщения в DLQ.
type Consumer struct {
	consumer    sarama.ConsumerGroup
	topics      []string
	handler     MessageHandler
	logger      *log.Entry
	wg          sync.WaitGroup
	dlqProducer EventPublisher
	maxRetries  int
	retryDelay  time.Duration
}

// NewConsumer создает новый Kafka consumer без DLQ
func NewConsumer(brokers []string, groupID string, topics []string, handler MessageHandler) (*Consumer, error) {
	return NewConsumerWithDLQ(brokers, groupID, topics, handler, nil, 3)
}

// NewConsumerWithDLQ создает consumer с поддержкой Dead Letter Queue
func NewConsumerWithDLQ(brokers []string, groupID string, topics []string, handler MessageHandler, dlqProducer EventPublisher, maxRetries int) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Consumer{
		consumer:    group,
		topics:      topics,
		handler:     handler,
		logger:      log.WithField("component", "kafka-consumer"),
		dlqProducer: dlqProducer,
		maxRetries:  maxRetries,
		retryDelay:  100 * time.Millisecond,
	}, nil
}

// Start запускает чтение в фоне; Consume перезапускается после каждого rebalance.
func (c *Consumer) Start(ctx context.Context) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.consumer.Consume(ctx, c.topics, c); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.WithError(err).Error("error from consumer")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.consumer.Errors() {
			c.logger.WithError(err).Error("consumer error")
		}
	}()

	c.logger.WithField("topics", c.topics).Info("kafka consumer started")
	return nil
}

// Stop закрывает consumer group и ждёт фоновые горутины
func (c *Consumer) Stop() error {
	if err := c.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	c.wg.Wait()
	c.logger.Info("kafka consumer stopped")
	return nil
}

// Setup вызывается при старте consumer session
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup вызывается при завершении consumer session
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim обрабатывает сообщения partition по одному.
// Offset фиксируется только после успешной обработки или отправки в DLQ.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			fields := log.Fields{
				"topic":     message.Topic,
				"partition": message.Partition,
				"offset":    message.Offset,
			}
			c.logger.WithFields(fields).Debug("received message")

			if err := c.handleMessageWithRetry(session.Context(), message); err != nil {
				c.logger.WithError(err).WithFields(fields).Error("message processing failed after all retries")
				continue
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// handleMessageWithRetry повторяет обработку, пока общее число попыток с учётом
// заголовка x-retry-count не достигнет maxRetries. Затем сообщение уходит в DLQ.
func (c *Consumer) handleMessageWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	attempt := c.getRetryCount(message)

	var err error
	for {
		err = c.handler(ctx, message)
		if err == nil {
			return nil
		}
		attempt++
		if errors.Is(err, ErrMalformedEvent) || attempt >= c.maxRetries {
			break
		}

		c.logger.WithError(err).WithFields(log.Fields{
			"topic":       message.Topic,
			"retry_count": attempt,
			"max_retries": c.maxRetries,
		}).Warn("message processing failed, will retry")
		if c.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}

	if c.dlqProducer == nil {
		return err
	}
	if dlqErr := c.sendToDLQ(message, err); dlqErr != nil {
		c.logger.WithError(dlqErr).Error("failed to send message to DLQ")
		return fmt.Errorf("failed to send to DLQ: %w", dlqErr)
	}
	c.logger.WithFields(log.Fields{
		"topic":       message.Topic,
		"retry_count": attempt,
	}).Info("message sent to DLQ")
	return nil
}

// getRetryCount извлекает retry count из headers сообщения
func (c *Consumer) getRetryCount(message *sarama.ConsumerMessage) int {
	for _, header := range message.Headers {
		if header == nil || string(header.Key) != HeaderRetryCount {
			continue
		}
		if count, err := strconv.Atoi(string(header.Value)); err == nil {
			return count
		}
	}
	return 0
}

// DeadLetter — содержимое сообщения в DLQ.
type DeadLetter struct {
	OriginalTopic     string    `json:"original_topic"`
	OriginalPartition int32     `json:"original_partition"`
	OriginalOffset    int64     `json:"original_offset"`
	OriginalKey       string    `json:"original_key"`
	OriginalValue     string    `json:"original_value"`
	ErrorMessage      string    `json:"error_message"`
	FailedAt          time.Time `json:"failed_at"`
	RetryCount        int       `json:"retry_count"`
}

// sendToDLQ отправляет сообщение в Dead Letter Queue вместе с причиной отказа
func (c *Consumer) sendToDLQ(message *sarama.ConsumerMessage, processingErr error) error {
	failedAt := time.Now().UTC()
	letter := DeadLetter{
		OriginalTopic:     message.Topic,
		OriginalPartition: message.Partition,
		OriginalOffset:    message.Offset,
		OriginalKey:       string(message.Key),
		OriginalValue:     string(message.Value),
		ErrorMessage:      processingErr.Error(),
		FailedAt:          failedAt,
		RetryCount:        c.getRetryCount(message),
	}
	return c.dlqProducer.PublishEvent(TopicDeadLetterQueue, string(message.Key), letter,
		sarama.RecordHeader{Key: []byte(HeaderOriginalTopic), Value: []byte(message.Topic)},
		sarama.RecordHeader{Key: []byte(HeaderErrorMessage), Value: []byte(processingErr.Error())},
		sarama.RecordHeader{Key: []byte(HeaderFailedAt), Value: []byte(failedAt.Format(time.RFC3339))},
	)
}

// ParseVariantPriceChangedEvent парсит событие изменения цены варианта
func ParseVariantPriceChangedEvent(message *sarama.ConsumerMessage) (*VariantPriceChangedEvent, error) {
	var event VariantPriceChangedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("%w: unmarshal variant price event: %w", ErrMalformedEvent, err)
	}
	return &event, nil
}

// ParseCatalogueEvent парсит событие промо-акций и перерасчёта листингов
func ParseCatalogueEvent(message *sarama.ConsumerMessage) (*CatalogueEvent, error) {
	var event CatalogueEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("%w: unmarshal catalogue event: %w", ErrMalformedEvent, err)
	}
	return &event, nil
}
