package domain

import "github.com/shopspring/decimal"

// TaxClass — налоговый класс товара или доставки.
type TaxClass struct {
	ID              string
	Name            string
	Metadata        map[string]string
	PrivateMetadata map[string]string
}

// TaxConfiguration — налоговые настройки канала с плоскими ставками.
type TaxConfiguration struct {
	ChannelID            string
	ChargeTaxes          bool
	PricesEnteredWithTax bool
	// DefaultRate и ClassRates задаются в процентах (23 = 23%).
	DefaultRate decimal.Decimal
	ClassRates  map[string]decimal.Decimal
	Classes     map[string]TaxClass
	// ShippingTaxClassID — класс, применяемый к доставке.
	ShippingTaxClassID *string
}

// RateFor возвращает ставку в процентах для налогового класса.
func (c *TaxConfiguration) RateFor(taxClassID *string) decimal.Decimal {
	if taxClassID != nil {
		if rate, ok := c.ClassRates[*taxClassID]; ok {
			return rate
		}
	}
	return c.DefaultRate
}

// Snapshot возвращает снимок класса для сохранения в позиции.
func (c *TaxConfiguration) Snapshot(taxClassID *string) TaxClassSnapshot {
	if taxClassID == nil {
		return TaxClassSnapshot{}
	}
	id := *taxClassID
	class, ok := c.Classes[id]
	if !ok {
		return TaxClassSnapshot{ID: &id}
	}
	return TaxClassSnapshot{
		ID:              &id,
		Name:            class.Name,
		Metadata:        class.Metadata,
		PrivateMetadata: class.PrivateMetadata,
	}.Clone()
}

// DefaultTaxConfiguration — конфигурация без налогов для каналов, где она не задана.
func DefaultTaxConfiguration(channelID string) TaxConfiguration {
	return TaxConfiguration{
		ChannelID:   channelID,
		ChargeTaxes: false,
		DefaultRate: decimal.Zero,
	}
}
