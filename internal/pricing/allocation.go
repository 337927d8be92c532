package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// Allocate распределяет amount пропорционально весам.
// Все доли, кроме последней положительной, округляются до точности валюты,
// последняя получает остаток, поэтому сумма долей всегда равна amount.
func Allocate(amount decimal.Decimal, weights []decimal.Decimal, currency string) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	for i := range shares {
		shares[i] = decimal.Zero
	}

	total := decimal.Zero
	last := -1
	for i, w := range weights {
		if w.IsPositive() {
			total = total.Add(w)
			last = i
		}
	}
	if last < 0 || amount.IsZero() {
		return shares
	}

	remaining := amount
	for i, w := range weights {
		if !w.IsPositive() {
			continue
		}
		if i == last {
			shares[i] = remaining
			break
		}
		share := domain.QuantizePrice(amount.Mul(w).Div(total), currency)
		shares[i] = share
		remaining = remaining.Sub(share)
	}
	return shares
}

func allocateToLines(states []*lineState, amount decimal.Decimal, currency string) {
	if !amount.IsPositive() {
		return
	}
	weights := make([]decimal.Decimal, len(states))
	for i, st := range states {
		weights[i] = st.baseTotal.Sub(st.orderShare)
	}
	for i, share := range Allocate(amount, weights, currency) {
		states[i].orderShare = states[i].orderShare.Add(share)
	}
}
