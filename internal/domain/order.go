package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusDraft — черновик, цены всегда берутся из каталога.
	OrderStatusDraft OrderStatus = "draft"
	// OrderStatusUnconfirmed — заказ оформлен, но не подтверждён; цены позиций зафиксированы.
	OrderStatusUnconfirmed OrderStatus = "unconfirmed"
	// OrderStatusUnfulfilled — заказ подтверждён, цены больше не пересчитываются.
	OrderStatusUnfulfilled OrderStatus = "unfulfilled"
	// OrderStatusCanceled — заказ отменён.
	OrderStatusCanceled OrderStatus = "canceled"
)

// Editable сообщает, допускает ли статус пересчёт цен и изменение состава.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusDraft || s == OrderStatusUnconfirmed
}

// TaxClassSnapshot фиксирует налоговый класс на момент расчёта.
type TaxClassSnapshot struct {
	ID              *string
	Name            string
	Metadata        map[string]string
	PrivateMetadata map[string]string
}

// OrderLine — позиция заказа со всеми ценовыми полями.
type OrderLine struct {
	ID          string
	OrderID     string
	VariantID   string
	ProductID   string
	ProductName string
	VariantName string
	Quantity    int
	// IsGift отмечает позицию, добавленную промо-акцией с подарком.
	IsGift bool

	// UndiscountedBaseUnitPrice — цена из каталога без скидок и налогов.
	UndiscountedBaseUnitPrice Money
	// BaseUnitPrice — цена за единицу после скидок позиции, до налогов.
	BaseUnitPrice Money

	UndiscountedUnitPrice  TaxedMoney
	UndiscountedTotalPrice TaxedMoney
	UnitPrice              TaxedMoney
	TotalPrice             TaxedMoney

	UnitDiscountAmount Money
	UnitDiscountType   DiscountValueType
	UnitDiscountValue  decimal.Decimal
	UnitDiscountReason string

	// TaxRate хранится долей (0.23), а не процентами.
	TaxRate  decimal.Decimal
	TaxClass TaxClassSnapshot

	Discounts []OrderLineDiscount
	CreatedAt time.Time
}

// Order агрегирует состояние заказа, позиции и скидки уровня заказа.
type Order struct {
	ID           string
	ChannelID    string
	Status       OrderStatus
	Currency     string
	Lines        []OrderLine
	Discounts    []OrderDiscount
	VoucherID    string
	VoucherCode  string
	TaxExemption bool

	UndiscountedBaseShippingPrice Money
	BaseShippingPrice             Money
	ShippingPrice                 TaxedMoney
	ShippingTaxRate               decimal.Decimal
	ShippingTaxClass              TaxClassSnapshot

	UndiscountedTotal TaxedMoney
	Subtotal          TaxedMoney
	Total             TaxedMoney

	ShouldRefreshPrices bool
	PricesRefreshedAt   *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDraftOrder создаёт пустой черновик с нулевыми суммами.
func NewDraftOrder(id, channelID, currency string, now time.Time) Order {
	zero := ZeroMoney(currency)
	zeroTaxed := ZeroTaxedMoney(currency)
	return Order{
		ID:                            id,
		ChannelID:                     channelID,
		Status:                        OrderStatusDraft,
		Currency:                      currency,
		UndiscountedBaseShippingPrice: zero,
		BaseShippingPrice:             zero,
		ShippingPrice:                 zeroTaxed,
		ShippingTaxRate:               decimal.Zero,
		UndiscountedTotal:             zeroTaxed,
		Subtotal:                      zeroTaxed,
		Total:                         zeroTaxed,
		ShouldRefreshPrices:           true,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ChannelID == "" {
		errs = append(errs, ErrChannelRequired)
	}
	if o.Currency == "" {
		errs = append(errs, ErrCurrencyRequired)
	}
	if o.UndiscountedBaseShippingPrice.IsNegative() {
		errs = append(errs, ErrShippingPriceInvalid)
	}

	for _, line := range o.Lines {
		if line.Quantity <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.UndiscountedBaseUnitPrice.IsNegative() || line.BaseUnitPrice.IsNegative() {
			errs = append(errs, ErrLinePriceInvalid)
		}
		if line.IsGift && line.Quantity != 1 {
			errs = append(errs, ErrGiftLineQtyInvalid)
		}
		if line.UndiscountedBaseUnitPrice.Currency != "" && line.UndiscountedBaseUnitPrice.Currency != o.Currency {
			errs = append(errs, ErrCurrencyMismatch)
		}
	}

	return errs
}

// PricesExpired сообщает, нужно ли пересчитать цены заказа.
func (o *Order) PricesExpired(now time.Time, ttl time.Duration) bool {
	if o.ShouldRefreshPrices || o.PricesRefreshedAt == nil {
		return true
	}
	if ttl <= 0 {
		return false
	}
	return !o.PricesRefreshedAt.Add(ttl).After(now)
}

// MarkPricesExpired помечает заказ для пересчёта при следующем чтении.
func (o *Order) MarkPricesExpired() {
	o.ShouldRefreshPrices = true
}

// LineByID возвращает указатель на позицию заказа.
func (o *Order) LineByID(id string) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// RemoveLine удаляет позицию; возвращает false, если её не было.
func (o *Order) RemoveLine(id string) bool {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveDiscount удаляет скидку уровня заказа указанного типа.
func (o *Order) RemoveDiscount(t DiscountType) bool {
	for i := range o.Discounts {
		if o.Discounts[i].Type == t {
			o.Discounts = append(o.Discounts[:i], o.Discounts[i+1:]...)
			return true
		}
	}
	return false
}

// VariantIDs возвращает варианты товаров, присутствующие в заказе.
func (o *Order) VariantIDs() []string {
	ids := make([]string, 0, len(o.Lines))
	seen := make(map[string]struct{}, len(o.Lines))
	for _, line := range o.Lines {
		if _, ok := seen[line.VariantID]; ok {
			continue
		}
		seen[line.VariantID] = struct{}{}
		ids = append(ids, line.VariantID)
	}
	return ids
}

// Clone делает глубокую копию заказа, чтобы хранилища не делили срезы с вызывающим кодом.
func (o Order) Clone() Order {
	out := o
	if o.Lines != nil {
		out.Lines = make([]OrderLine, len(o.Lines))
		for i, line := range o.Lines {
			out.Lines[i] = line.Clone()
		}
	}
	if o.Discounts != nil {
		out.Discounts = make([]OrderDiscount, len(o.Discounts))
		for i, d := range o.Discounts {
			d.PromotionRuleID = cloneRuleID(d.PromotionRuleID)
			out.Discounts[i] = d
		}
	}
	out.ShippingTaxClass = o.ShippingTaxClass.Clone()
	if o.PricesRefreshedAt != nil {
		t := *o.PricesRefreshedAt
		out.PricesRefreshedAt = &t
	}
	return out
}

// Clone делает глубокую копию позиции.
func (l OrderLine) Clone() OrderLine {
	out := l
	if l.Discounts != nil {
		out.Discounts = make([]OrderLineDiscount, len(l.Discounts))
		for i, d := range l.Discounts {
			d.PromotionRuleID = cloneRuleID(d.PromotionRuleID)
			out.Discounts[i] = d
		}
	}
	out.TaxClass = l.TaxClass.Clone()
	return out
}

// Clone копирует снимок налогового класса вместе с метаданными.
func (s TaxClassSnapshot) Clone() TaxClassSnapshot {
	out := TaxClassSnapshot{Name: s.Name, ID: cloneRuleID(s.ID)}
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	if s.PrivateMetadata != nil {
		out.PrivateMetadata = make(map[string]string, len(s.PrivateMetadata))
		for k, v := range s.PrivateMetadata {
			out.PrivateMetadata[k] = v
		}
	}
	return out
}
