package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	// События заказа
	EventTypeOrderPricesRecalculated EventType = "order.prices_recalculated"
	EventTypeOrderStatusChanged      EventType = "order.status_changed"

	// События каталога
	EventTypeVariantPriceChanged EventType = "variant.price_changed"
	EventTypePromotionDeleted    EventType = "promotion.deleted"
	EventTypeListingsRepriced    EventType = "catalogue.listings_repriced"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "pricing.order.events"
	TopicCatalogueEvents = "pricing.catalogue.events"
	TopicDeadLetterQueue = "pricing.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// DiscountSummary — скидка в событии пересчёта.
type DiscountSummary struct {
	Type      string `json:"type"`
	LineID    string `json:"line_id,omitempty"`
	ValueType string `json:"value_type"`
	Value     string `json:"value"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason,omitempty"`
}

// OrderPricesEvent публикуется после сохранения пересчитанного заказа.
type OrderPricesEvent struct {
	EventType     EventType         `json:"event_type"`
	OrderID       string            `json:"order_id"`
	ChannelID     string            `json:"channel_id"`
	Status        string            `json:"status"`
	Currency      string            `json:"currency"`
	SubtotalNet   string            `json:"subtotal_net"`
	SubtotalGross string            `json:"subtotal_gross"`
	ShippingNet   string            `json:"shipping_net"`
	ShippingGross string            `json:"shipping_gross"`
	TotalNet      string            `json:"total_net"`
	TotalGross    string            `json:"total_gross"`
	Version       int64             `json:"version"`
	Discounts     []DiscountSummary `json:"discounts,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// OrderStatusEvent публикуется при смене статуса заказа.
type OrderStatusEvent struct {
	EventType      EventType `json:"event_type"`
	OrderID        string    `json:"order_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// VariantPriceChangedEvent приходит из каталога при изменении цены варианта в канале.
type VariantPriceChangedEvent struct {
	EventType   EventType `json:"event_type"`
	VariantID   string    `json:"variant_id"`
	ProductID   string    `json:"product_id"`
	ChannelID   string    `json:"channel_id"`
	Currency    string    `json:"currency"`
	Price       string    `json:"price"`
	ProductName string    `json:"product_name,omitempty"`
	VariantName string    `json:"variant_name,omitempty"`
	TaxClassID  *string   `json:"tax_class_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// CatalogueEvent описывает изменения промо-акций и пересчёт листингов.
type CatalogueEvent struct {
	EventType   EventType `json:"event_type"`
	PromotionID string    `json:"promotion_id,omitempty"`
	RuleIDs     []string  `json:"rule_ids,omitempty"`
	VariantIDs  []string  `json:"variant_ids,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderStatusEvent создает событие смены статуса
func NewOrderStatusEvent(orderID, previous, status string) *OrderStatusEvent {
	return &OrderStatusEvent{
		EventType:      EventTypeOrderStatusChanged,
		OrderID:        orderID,
		PreviousStatus: previous,
		Status:         status,
		Timestamp:      time.Now().UTC(),
	}
}

// NewCatalogueEvent создает событие каталога
func NewCatalogueEvent(eventType EventType, promotionID string, ruleIDs, variantIDs []string) *CatalogueEvent {
	return &CatalogueEvent{
		EventType:   eventType,
		PromotionID: promotionID,
		RuleIDs:     ruleIDs,
		VariantIDs:  variantIDs,
		Timestamp:   time.Now().UTC(),
	}
}

// NewOrderPricesEvent собирает событие пересчёта из сохранённого заказа.
func NewOrderPricesEvent(order domain.Order) *OrderPricesEvent {
	event := &OrderPricesEvent{
		EventType:     EventTypeOrderPricesRecalculated,
		OrderID:       order.ID,
		ChannelID:     order.ChannelID,
		Status:        string(order.Status),
		Currency:      order.Currency,
		SubtotalNet:   amount(order.Subtotal.Net),
		SubtotalGross: amount(order.Subtotal.Gross),
		ShippingNet:   amount(order.ShippingPrice.Net),
		ShippingGross: amount(order.ShippingPrice.Gross),
		TotalNet:      amount(order.Total.Net),
		TotalGross:    amount(order.Total.Gross),
		Version:       order.Version,
		Timestamp:     time.Now().UTC(),
	}
	for _, d := range order.Discounts {
		event.Discounts = append(event.Discounts, DiscountSummary{
			Type:      string(d.Type),
			ValueType: string(d.ValueType),
			Value:     d.Value.String(),
			Amount:    amount(d.Amount),
			Reason:    d.Reason,
		})
	}
	for _, line := range order.Lines {
		for _, d := range line.Discounts {
			event.Discounts = append(event.Discounts, DiscountSummary{
				Type:      string(d.Type),
				LineID:    line.ID,
				ValueType: string(d.ValueType),
				Value:     d.Value.String(),
				Amount:    amount(d.Amount),
				Reason:    d.Reason,
			})
		}
	}
	return event
}

func amount(m domain.Money) string {
	return m.Amount.StringFixed(domain.CurrencyPrecision(m.Currency))
}
