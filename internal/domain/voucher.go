package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VoucherType определяет, к чему применяется ваучер.
type VoucherType string

const (
	VoucherTypeEntireOrder     VoucherType = "entire_order"
	VoucherTypeSpecificProduct VoucherType = "specific_product"
	VoucherTypeShipping        VoucherType = "shipping"
)

// Voucher — скидка, активируемая кодом.
type Voucher struct {
	ID                string
	Name              string
	Type              VoucherType
	Codes             []string
	DiscountValueType DiscountValueType
	Value             decimal.Decimal
	// ApplyOncePerOrder ограничивает скидку одной единицей самой дешёвой подходящей позиции.
	ApplyOncePerOrder bool
	VariantIDs        []string
	MinSpent          *decimal.Decimal
	ChannelIDs        []string
	StartDate         *time.Time
	EndDate           *time.Time
}

// Validate проверяет конфигурацию ваучера.
func (v *Voucher) Validate() error {
	switch v.Type {
	case VoucherTypeEntireOrder, VoucherTypeShipping:
	case VoucherTypeSpecificProduct:
		if len(v.VariantIDs) == 0 {
			return fmt.Errorf("%w: specific product voucher without variants", ErrVoucherInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrVoucherInvalid, v.Type)
	}
	if len(v.Codes) == 0 {
		return fmt.Errorf("%w: at least one code is required", ErrVoucherInvalid)
	}
	if err := ValidateDiscountValue(v.DiscountValueType, v.Value); err != nil {
		return fmt.Errorf("%w: %w", ErrVoucherInvalid, err)
	}
	return nil
}

// HasCode проверяет код без учёта регистра.
func (v *Voucher) HasCode(code string) bool {
	for _, c := range v.Codes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// ActiveAt проверяет срок действия ваучера.
func (v *Voucher) ActiveAt(t time.Time) bool {
	if v.StartDate != nil && t.Before(*v.StartDate) {
		return false
	}
	if v.EndDate != nil && !t.Before(*v.EndDate) {
		return false
	}
	return true
}

// AppliesToChannel проверяет, доступен ли ваучер в канале. Пустой список — во всех каналах.
func (v *Voucher) AppliesToChannel(channelID string) bool {
	return len(v.ChannelIDs) == 0 || containsString(v.ChannelIDs, channelID)
}

// AppliesToVariant проверяет, подпадает ли вариант под specific_product ваучер.
func (v *Voucher) AppliesToVariant(variantID string) bool {
	return containsString(v.VariantIDs, variantID)
}

// CheckApplicable проверяет канал, срок действия и минимальную сумму заказа.
func (v *Voucher) CheckApplicable(channelID string, subtotal decimal.Decimal, now time.Time) error {
	if !v.AppliesToChannel(channelID) {
		return fmt.Errorf("%w: channel %s", ErrVoucherNotApplicable, channelID)
	}
	if !v.ActiveAt(now) {
		return fmt.Errorf("%w: voucher is not active", ErrVoucherNotApplicable)
	}
	if v.MinSpent != nil && subtotal.LessThan(*v.MinSpent) {
		return fmt.Errorf("%w: minimum spent %s not reached", ErrVoucherNotApplicable, v.MinSpent.String())
	}
	return nil
}
