// Package pricing пересчитывает цены, скидки и налоги редактируемого заказа.
//
// Расчёт детерминирован и не обращается к хранилищам: все промо-акции,
// листинги, ваучер и налоговая конфигурация передаются во Input.
package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// Input содержит всё, что нужно для пересчёта одного заказа.
type Input struct {
	Order domain.Order
	// Listings — листинги канала заказа по variant ID, включая варианты-подарки.
	Listings   map[string]domain.VariantChannelListing
	Promotions []domain.Promotion
	// Voucher — ваучер заказа; nil, если код не задан или ваучер удалён.
	Voucher *domain.Voucher
	Tax     domain.TaxConfiguration
	Now     time.Time
}

// Option настраивает Calculator.
type Option func(*Calculator)

// WithIDGenerator подменяет генератор идентификаторов новых скидок и подарочных позиций.
func WithIDGenerator(fn func() string) Option {
	return func(c *Calculator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Calculator применяет правила скидок и налогов к заказу.
type Calculator struct {
	newID func() string
}

// NewCalculator создаёт калькулятор с генератором UUID по умолчанию.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{newID: uuid.NewString}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// lineState хранит промежуточные суммы позиции во время расчёта.
type lineState struct {
	line *domain.OrderLine
	// сумма позиции после скидок уровня позиции
	baseTotal decimal.Decimal
	// доля скидок уровня заказа, распределённая на позицию
	orderShare decimal.Decimal
	manual     bool
}

func (s *lineState) unitBase(currency string) decimal.Decimal {
	if s.line.Quantity <= 0 {
		return decimal.Zero
	}
	return domain.QuantizePrice(s.baseTotal.Div(decimal.NewFromInt(int64(s.line.Quantity))), currency)
}

// Recalculate возвращает копию заказа с пересчитанными скидками, ценами позиций и итогами.
func (c *Calculator) Recalculate(in Input) (domain.Order, error) {
	order := in.Order.Clone()
	if !order.Status.Editable() {
		return order, fmt.Errorf("%w: status %s", domain.ErrOrderNotEditable, order.Status)
	}
	if order.Currency == "" {
		return order, domain.ErrCurrencyRequired
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if order.Status == domain.OrderStatusDraft {
		refreshBasePrices(&order, in)
	}

	regular, gifts := splitGiftLines(order.Lines)
	order.Lines = regular
	previous := in.Order.Clone()

	states := make([]*lineState, 0, len(order.Lines))
	for i := range order.Lines {
		states = append(states, c.applyLineLevelDiscounts(&order, &order.Lines[i], in, now))
	}

	voucher := applicableVoucher(&order, in.Voucher, states, now)
	if voucher != nil {
		c.applyVoucherLineDiscounts(&order, voucher, states)
	}

	newDiscounts := make([]domain.OrderDiscount, 0, 2)
	order.BaseShippingPrice = order.UndiscountedBaseShippingPrice
	if voucher != nil && voucher.Type == domain.VoucherTypeShipping {
		if d, ok := shippingVoucherDiscount(&order, voucher); ok {
			newDiscounts = append(newDiscounts, d)
		}
	}

	giftLine, subtotalDiscount := c.applySubtotalDiscount(&order, voucher, states, gifts, in, now)
	if subtotalDiscount != nil {
		newDiscounts = append(newDiscounts, *subtotalDiscount)
	}

	shippingShare := decimal.Zero
	if manual, ok := in.Order.DiscountByType(domain.DiscountTypeManual); ok {
		d, share := applyManualOrderDiscount(&order, manual, states)
		newDiscounts = append(newDiscounts, d)
		shippingShare = share
	}

	lines := make([]domain.OrderLine, 0, len(states)+1)
	for _, st := range states {
		lines = append(lines, *st.line)
	}
	if giftLine != nil {
		lines = append(lines, *giftLine)
	}
	order.Lines = lines
	// states ссылаются на старый срез, поэтому суммы переносим по индексу.
	for i, st := range states {
		st.line = &order.Lines[i]
	}

	order.Discounts = c.reconcileOrderDiscounts(previous.Discounts, newDiscounts, order.ID)
	for i := range order.Lines {
		c.reconcileLineDiscounts(&order.Lines[i], previous)
		summarizeLineDiscounts(&order.Lines[i], order.Currency)
	}

	tax := newTaxer(in.Tax, order.TaxExemption, order.Currency)
	applyLineTaxes(&order, states, tax, in.Tax)
	applyShippingTaxes(&order, shippingShare, tax, in.Tax)
	if err := computeTotals(&order, tax); err != nil {
		return order, err
	}

	order.ShouldRefreshPrices = false
	refreshed := now
	order.PricesRefreshedAt = &refreshed
	return order, nil
}

// refreshBasePrices подтягивает каталожные цены и названия в позиции черновика.
func refreshBasePrices(order *domain.Order, in Input) {
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.IsGift {
			continue
		}
		listing, ok := in.Listings[line.VariantID]
		if !ok {
			continue
		}
		line.UndiscountedBaseUnitPrice = domain.Money{Amount: listing.Price.Amount, Currency: order.Currency}
		line.ProductID = listing.ProductID
		if listing.ProductName != "" {
			line.ProductName = listing.ProductName
		}
		if listing.VariantName != "" {
			line.VariantName = listing.VariantName
		}
		line.TaxClass = in.Tax.Snapshot(listing.TaxClassID)
	}
	order.ShippingTaxClass = in.Tax.Snapshot(in.Tax.ShippingTaxClassID)
}

func splitGiftLines(lines []domain.OrderLine) (regular, gifts []domain.OrderLine) {
	for _, line := range lines {
		if line.IsGift {
			gifts = append(gifts, line)
			continue
		}
		regular = append(regular, line)
	}
	return regular, gifts
}

// discountAmount считает скидку на базу: фиксированная не превышает базу, процентная округляется.
func discountAmount(valueType domain.DiscountValueType, value, base decimal.Decimal, currency string) decimal.Decimal {
	if !base.IsPositive() || !value.IsPositive() {
		return decimal.Zero
	}
	if valueType == domain.DiscountValueTypePercentage {
		return decimal.Min(base, domain.QuantizePrice(domain.PercentOf(base, value), currency))
	}
	return decimal.Min(base, value)
}

func money(amount decimal.Decimal, currency string) domain.Money {
	return domain.Money{Amount: amount, Currency: currency}
}

func subtotalOf(states []*lineState) decimal.Decimal {
	total := decimal.Zero
	for _, st := range states {
		total = total.Add(st.baseTotal)
	}
	return total
}

// reconcileOrderDiscounts сохраняет идентификаторы существующих скидок с тем же unique key.
func (c *Calculator) reconcileOrderDiscounts(existing, fresh []domain.OrderDiscount, orderID string) []domain.OrderDiscount {
	byKey := make(map[string]domain.OrderDiscount, len(existing))
	for _, d := range existing {
		byKey[d.UniqueKey] = d
	}
	out := make([]domain.OrderDiscount, 0, len(fresh))
	for _, d := range fresh {
		d.OrderID = orderID
		if d.UniqueKey == "" {
			d.UniqueKey = domain.DiscountUniqueKey(d.Type)
		}
		if prev, ok := byKey[d.UniqueKey]; ok && prev.ID != "" {
			d.ID = prev.ID
		} else if d.ID == "" {
			d.ID = c.newID()
		}
		out = append(out, d)
	}
	return out
}

func (c *Calculator) reconcileLineDiscounts(line *domain.OrderLine, previous domain.Order) {
	byKey := map[string]domain.OrderLineDiscount{}
	if prevLine, ok := previous.LineByID(line.ID); ok {
		for _, d := range prevLine.Discounts {
			byKey[d.UniqueKey] = d
		}
	}
	for i := range line.Discounts {
		d := &line.Discounts[i]
		d.LineID = line.ID
		if d.UniqueKey == "" {
			d.UniqueKey = domain.DiscountUniqueKey(d.Type)
		}
		if prev, ok := byKey[d.UniqueKey]; ok && prev.ID != "" {
			d.ID = prev.ID
		} else if d.ID == "" {
			d.ID = c.newID()
		}
	}
}
