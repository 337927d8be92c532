package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/order-pricing/internal/metrics"
)

// splitBrokers разбирает список брокеров через запятую, пропуская пустые элементы.
func splitBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	brokerList := splitBrokers(brokers)
	if len(brokerList) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// initCatalogueConsumer подписывает сервис на события каталога.
// Сообщения, исчерпавшие попытки, уходят в DLQ через producer.
func initCatalogueConsumer(
	cfg Config,
	updater kafka.ListingUpdater,
	producer *kafka.Producer,
	m *metrics.PricingMetrics,
	logger *log.Entry,
) (*kafka.Consumer, error) {
	brokerList := splitBrokers(cfg.KafkaBrokers)
	if len(brokerList) == 0 || producer == nil {
		return nil, nil
	}

	handler := kafka.NewCatalogueEventsHandler(updater, m, logger.WithField("layer", "catalogue-events"))
	consumer, err := kafka.NewConsumerWithDLQ(
		brokerList,
		cfg.KafkaConsumerGroup,
		[]string{cfg.KafkaCatalogueTopic},
		handler,
		producer,
		cfg.KafkaMaxRetries,
	)
	if err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"topic": cfg.KafkaCatalogueTopic,
		"group": cfg.KafkaConsumerGroup,
	}).Info("catalogue events consumer initialized")
	return consumer, nil
}

// closeKafkaProducer закрывает Kafka producer если он не nil.
func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// stopKafkaConsumer останавливает consumer group если она запущена.
func stopKafkaConsumer(consumer *kafka.Consumer, logger *log.Entry) {
	if consumer == nil {
		return
	}

	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop kafka consumer")
	}
}
