package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// taxer применяет плоские ставки канала к суммам заказа.
type taxer struct {
	charge   bool
	withTax  bool
	currency string
}

func newTaxer(cfg domain.TaxConfiguration, exempt bool, currency string) taxer {
	return taxer{
		charge:   cfg.ChargeTaxes && !exempt,
		withTax:  cfg.PricesEnteredWithTax,
		currency: currency,
	}
}

// rate переводит ставку из процентов в долю; без начисления налогов ставка нулевая.
func (t taxer) rate(percent decimal.Decimal) decimal.Decimal {
	if !t.charge {
		return decimal.Zero
	}
	return percent.Div(hundred)
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// apply строит пару net/gross из суммы, введённой с налогом или без него.
func (t taxer) apply(amount, rate decimal.Decimal) domain.TaxedMoney {
	entered := domain.QuantizePrice(amount, t.currency)
	if rate.IsZero() {
		return domain.TaxedMoney{Net: money(entered, t.currency), Gross: money(entered, t.currency)}
	}
	multiplier := one.Add(rate)
	if t.withTax {
		net := domain.QuantizePrice(entered.Div(multiplier), t.currency)
		return domain.TaxedMoney{Net: money(net, t.currency), Gross: money(entered, t.currency)}
	}
	gross := domain.QuantizePrice(entered.Mul(multiplier), t.currency)
	return domain.TaxedMoney{Net: money(entered, t.currency), Gross: money(gross, t.currency)}
}

func applyLineTaxes(order *domain.Order, states []*lineState, tax taxer, cfg domain.TaxConfiguration) {
	currency := order.Currency
	for i := range order.Lines {
		line := &order.Lines[i]
		rate := tax.rate(cfg.RateFor(line.TaxClass.ID))
		line.TaxRate = rate
		if line.IsGift || i >= len(states) {
			zeroTaxed := domain.ZeroTaxedMoney(currency)
			line.BaseUnitPrice = domain.ZeroMoney(currency)
			line.UndiscountedUnitPrice = zeroTaxed
			line.UndiscountedTotalPrice = zeroTaxed
			line.UnitPrice = zeroTaxed
			line.TotalPrice = zeroTaxed
			continue
		}

		st := states[i]
		qty := decimal.NewFromInt(int64(line.Quantity))
		undiscountedUnit := line.UndiscountedBaseUnitPrice.Amount
		line.UndiscountedBaseUnitPrice = money(undiscountedUnit, currency)
		line.UndiscountedUnitPrice = tax.apply(undiscountedUnit, rate)
		line.UndiscountedTotalPrice = tax.apply(undiscountedUnit.Mul(qty), rate)
		line.BaseUnitPrice = money(st.unitBase(currency), currency)

		total := decimal.Max(decimal.Zero, st.baseTotal.Sub(st.orderShare))
		line.TotalPrice = tax.apply(total, rate)
		line.UnitPrice = tax.apply(total.Div(qty), rate)
	}
}

func applyShippingTaxes(order *domain.Order, discountShare decimal.Decimal, tax taxer, cfg domain.TaxConfiguration) {
	rate := tax.rate(cfg.RateFor(order.ShippingTaxClass.ID))
	order.ShippingTaxRate = rate
	shipping := decimal.Max(decimal.Zero, order.BaseShippingPrice.Amount.Sub(discountShare))
	order.ShippingPrice = tax.apply(shipping, rate)
}

func computeTotals(order *domain.Order, tax taxer) error {
	currency := order.Currency
	subtotal := domain.ZeroTaxedMoney(currency)
	undiscounted := domain.ZeroTaxedMoney(currency)
	var err error
	for _, line := range order.Lines {
		if subtotal, err = subtotal.Add(line.TotalPrice); err != nil {
			return err
		}
		if undiscounted, err = undiscounted.Add(line.UndiscountedTotalPrice); err != nil {
			return err
		}
	}
	undiscountedShipping := tax.apply(order.UndiscountedBaseShippingPrice.Amount, order.ShippingTaxRate)
	if undiscounted, err = undiscounted.Add(undiscountedShipping); err != nil {
		return err
	}
	total, err := subtotal.Add(order.ShippingPrice)
	if err != nil {
		return err
	}
	order.Subtotal = subtotal
	order.UndiscountedTotal = undiscounted
	order.Total = total
	return nil
}
