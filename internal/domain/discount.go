package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DiscountType определяет источник скидки.
type DiscountType string

const (
	// DiscountTypeManual — скидка, выставленная оператором вручную.
	DiscountTypeManual DiscountType = "manual"
	// DiscountTypePromotion — каталожная промо-акция на вариант товара.
	DiscountTypePromotion DiscountType = "promotion"
	// DiscountTypeOrderPromotion — промо-акция уровня заказа (subtotal или подарок).
	DiscountTypeOrderPromotion DiscountType = "order_promotion"
	// DiscountTypeVoucher — скидка по коду ваучера.
	DiscountTypeVoucher DiscountType = "voucher"
)

// Valid проверяет, что тип скидки поддерживается.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountTypeManual, DiscountTypePromotion, DiscountTypeOrderPromotion, DiscountTypeVoucher:
		return true
	default:
		return false
	}
}

// DiscountValueType описывает, как трактуется значение скидки.
type DiscountValueType string

const (
	// DiscountValueTypeFixed — фиксированная сумма в валюте заказа.
	DiscountValueTypeFixed DiscountValueType = "fixed"
	// DiscountValueTypePercentage — процент от базы.
	DiscountValueTypePercentage DiscountValueType = "percentage"
)

// Valid проверяет, что тип значения поддерживается.
func (t DiscountValueType) Valid() bool {
	return t == DiscountValueTypeFixed || t == DiscountValueTypePercentage
}

// ValidateDiscountValue проверяет пару (тип значения, значение).
func ValidateDiscountValue(valueType DiscountValueType, value decimal.Decimal) error {
	if !valueType.Valid() {
		return fmt.Errorf("%w: %q", ErrDiscountTypeInvalid, valueType)
	}
	if !value.IsPositive() {
		return ErrDiscountValueInvalid
	}
	if valueType == DiscountValueTypePercentage && value.GreaterThan(hundred) {
		return ErrDiscountPercentageInvalid
	}
	return nil
}

// OrderDiscount — скидка уровня заказа (subtotal и/или доставка).
type OrderDiscount struct {
	ID              string
	OrderID         string
	Type            DiscountType
	ValueType       DiscountValueType
	Value           decimal.Decimal
	Amount          Money
	Name            string
	Reason          string
	PromotionRuleID *string
	VoucherID       string
	VoucherCode     string
	// UniqueKey ограничивает количество строк: одна скидка каждого типа на заказ.
	UniqueKey string
}

// OrderLineDiscount — скидка на конкретную позицию заказа.
type OrderLineDiscount struct {
	ID              string
	LineID          string
	Type            DiscountType
	ValueType       DiscountValueType
	Value           decimal.Decimal
	Amount          Money
	Name            string
	Reason          string
	PromotionRuleID *string
	VoucherID       string
	VoucherCode     string
	UniqueKey       string
}

// DiscountUniqueKey возвращает ключ уникальности строки скидки для владельца.
func DiscountUniqueKey(t DiscountType) string {
	return string(t)
}

// PromotionReason формирует текст причины для скидки по промо-акции.
func PromotionReason(promotionID string) string {
	return "Promotion: " + promotionID
}

// VoucherReason формирует текст причины для скидки по ваучеру.
func VoucherReason(code string) string {
	return "Voucher code: " + code
}

// ManualDiscountInput описывает ручную скидку, задаваемую оператором.
type ManualDiscountInput struct {
	ValueType DiscountValueType
	Value     decimal.Decimal
	Reason    string
	Name      string
}

// Validate проверяет параметры ручной скидки.
func (in ManualDiscountInput) Validate() error {
	return ValidateDiscountValue(in.ValueType, in.Value)
}

// DiscountByType находит скидку заказа по типу.
func (o *Order) DiscountByType(t DiscountType) (OrderDiscount, bool) {
	for _, d := range o.Discounts {
		if d.Type == t {
			return d, true
		}
	}
	return OrderDiscount{}, false
}

// DiscountByType находит скидку позиции по типу.
func (l *OrderLine) DiscountByType(t DiscountType) (OrderLineDiscount, bool) {
	for _, d := range l.Discounts {
		if d.Type == t {
			return d, true
		}
	}
	return OrderLineDiscount{}, false
}

func cloneRuleID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
