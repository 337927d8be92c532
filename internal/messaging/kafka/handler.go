package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/metrics"
)

// Результаты обработки событий каталога для метрик.
const (
	catalogueResultApplied = "applied"
	catalogueResultSkipped = "skipped"
	catalogueResultFailed  = "failed"
)

// ListingUpdater сохраняет листинг варианта и помечает затронутые заказы.
type ListingUpdater interface {
	UpsertVariantListing(ctx context.Context, listing domain.VariantChannelListing) (domain.VariantChannelListing, error)
}

// Listing преобразует событие в листинг варианта.
func (e *VariantPriceChangedEvent) Listing() (domain.VariantChannelListing, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(e.Price))
	if err != nil {
		return domain.VariantChannelListing{}, fmt.Errorf("%w: price %q: %w", ErrMalformedEvent, e.Price, err)
	}
	currency := strings.ToUpper(strings.TrimSpace(e.Currency))
	return domain.VariantChannelListing{
		VariantID:   e.VariantID,
		ProductID:   e.ProductID,
		ChannelID:   e.ChannelID,
		Currency:    currency,
		ProductName: e.ProductName,
		VariantName: e.VariantName,
		Price:       domain.Money{Amount: price, Currency: currency},
		TaxClassID:  e.TaxClassID,
	}, nil
}

// NewCatalogueEventsHandler возвращает обработчик topic каталога.
// Применяются только события variant.price_changed, остальные пропускаются.
func NewCatalogueEventsHandler(updater ListingUpdater, m *metrics.PricingMetrics, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.New().WithField("component", "catalogue-events")
	}
	record := func(result string) {
		if m != nil {
			m.RecordCatalogueEvent(result)
		}
	}

	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		eventType, err := messageEventType(message)
		if err != nil {
			record(catalogueResultFailed)
			return err
		}
		if eventType != EventTypeVariantPriceChanged {
			record(catalogueResultSkipped)
			logger.WithField("event_type", eventType).Debug("catalogue event skipped")
			return nil
		}

		event, err := ParseVariantPriceChangedEvent(message)
		if err != nil {
			record(catalogueResultFailed)
			return err
		}
		listing, err := event.Listing()
		if err != nil {
			record(catalogueResultFailed)
			return err
		}

		if _, err := updater.UpsertVariantListing(ctx, listing); err != nil {
			record(catalogueResultFailed)
			if domain.IsValidationError(err) {
				return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
			}
			return fmt.Errorf("apply variant price: %w", err)
		}

		record(catalogueResultApplied)
		logger.WithFields(log.Fields{
			"variant_id": listing.VariantID,
			"channel_id": listing.ChannelID,
			"price":      listing.Price.String(),
		}).Info("variant price applied")
		return nil
	}
}

// messageEventType читает тип события из заголовка, а при его отсутствии из JSON.
func messageEventType(message *sarama.ConsumerMessage) (EventType, error) {
	for _, header := range message.Headers {
		if header != nil && string(header.Key) == HeaderEventType {
			return EventType(header.Value), nil
		}
	}
	var head struct {
		EventType EventType `json:"event_type"`
	}
	if err := json.Unmarshal(message.Value, &head); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return head.EventType, nil
}
