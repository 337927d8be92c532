package domain

import "time"

// VariantChannelListing — цена варианта товара в канале продаж.
type VariantChannelListing struct {
	VariantID   string
	ProductID   string
	ChannelID   string
	Currency    string
	ProductName string
	VariantName string
	Price       Money
	// DiscountedPrice учитывает лучшую каталожную промо-акцию.
	DiscountedPrice Money
	// PriorPrice — прежняя цена для отображения "было/стало".
	PriorPrice      *Money
	TaxClassID      *string
	PromotionRuleID *string
	UpdatedAt       time.Time
}

// Validate проверяет цену и валюту листинга.
func (l *VariantChannelListing) Validate() error {
	if l.ChannelID == "" {
		return ErrChannelRequired
	}
	if l.Currency == "" {
		return ErrCurrencyRequired
	}
	if l.Price.IsNegative() {
		return ErrLinePriceInvalid
	}
	if l.Price.Currency != l.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// ListingKey — ключ листинга (variant, channel) для map-хранилищ.
type ListingKey struct {
	VariantID string
	ChannelID string
}

// Key возвращает ключ листинга.
func (l *VariantChannelListing) Key() ListingKey {
	return ListingKey{VariantID: l.VariantID, ChannelID: l.ChannelID}
}
