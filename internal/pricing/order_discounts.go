package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// shippingVoucherDiscount уменьшает базовую стоимость доставки на скидку shipping-ваучера.
func shippingVoucherDiscount(order *domain.Order, voucher *domain.Voucher) (domain.OrderDiscount, bool) {
	currency := order.Currency
	undiscounted := order.UndiscountedBaseShippingPrice.Amount
	amount := discountAmount(voucher.DiscountValueType, voucher.Value, undiscounted, currency)
	if !amount.IsPositive() {
		return domain.OrderDiscount{}, false
	}
	order.BaseShippingPrice = money(undiscounted.Sub(amount), currency)
	return voucherOrderDiscount(order, voucher, amount), true
}

func voucherOrderDiscount(order *domain.Order, voucher *domain.Voucher, amount decimal.Decimal) domain.OrderDiscount {
	return domain.OrderDiscount{
		Type:        domain.DiscountTypeVoucher,
		ValueType:   voucher.DiscountValueType,
		Value:       voucher.Value,
		Amount:      money(amount, order.Currency),
		Name:        voucher.Name,
		Reason:      domain.VoucherReason(order.VoucherCode),
		VoucherID:   voucher.ID,
		VoucherCode: order.VoucherCode,
		UniqueKey:   domain.DiscountUniqueKey(domain.DiscountTypeVoucher),
	}
}

// orderReward описывает лучшее вознаграждение order-промо для текущего subtotal.
type orderReward struct {
	promotion *domain.Promotion
	rule      domain.PromotionRule
	amount    decimal.Decimal
	gift      *domain.VariantChannelListing
}

// applySubtotalDiscount применяет не более одной скидки на subtotal:
// entire_order ваучер либо лучшую order-промо (скидка или подарок).
// Ручная скидка заказа исключает обе, код ваучера любого типа исключает order-промо.
func (c *Calculator) applySubtotalDiscount(
	order *domain.Order,
	voucher *domain.Voucher,
	states []*lineState,
	gifts []domain.OrderLine,
	in Input,
	now time.Time,
) (*domain.OrderLine, *domain.OrderDiscount) {
	if _, hasManual := in.Order.DiscountByType(domain.DiscountTypeManual); hasManual {
		return nil, nil
	}
	currency := order.Currency
	subtotal := subtotalOf(states)

	if voucher != nil && voucher.Type == domain.VoucherTypeEntireOrder && !voucher.ApplyOncePerOrder {
		amount := discountAmount(voucher.DiscountValueType, voucher.Value, subtotal, currency)
		if !amount.IsPositive() {
			return nil, nil
		}
		allocateToLines(states, amount, currency)
		d := voucherOrderDiscount(order, voucher, amount)
		return nil, &d
	}
	if order.VoucherCode != "" {
		return nil, nil
	}

	reward, ok := bestOrderReward(order, in, subtotal, now)
	if !ok {
		return nil, nil
	}
	if reward.gift != nil {
		return c.giftLine(order, reward, gifts, now), nil
	}

	allocateToLines(states, reward.amount, currency)
	ruleID := reward.rule.ID
	return nil, &domain.OrderDiscount{
		Type:            domain.DiscountTypeOrderPromotion,
		ValueType:       reward.rule.RewardValueType,
		Value:           reward.rule.RewardValue,
		Amount:          money(reward.amount, currency),
		Name:            reward.promotion.Name,
		Reason:          domain.PromotionReason(reward.promotion.ID),
		PromotionRuleID: &ruleID,
		UniqueKey:       domain.DiscountUniqueKey(domain.DiscountTypeOrderPromotion),
	}
}

// bestOrderReward выбирает правило order-промо с максимальной выгодой для покупателя.
// Выгода подарка равна цене самого дорогого доступного подарка.
func bestOrderReward(order *domain.Order, in Input, subtotal decimal.Decimal, now time.Time) (orderReward, bool) {
	var (
		best  orderReward
		found bool
	)
	for i := range in.Promotions {
		promo := &in.Promotions[i]
		if promo.Type != domain.PromotionTypeOrder || !promo.ActiveAt(now) {
			continue
		}
		for _, rule := range promo.Rules {
			if !rule.HasChannel(order.ChannelID) {
				continue
			}
			if rule.MinSubtotal != nil && subtotal.LessThan(*rule.MinSubtotal) {
				continue
			}
			candidate := orderReward{promotion: promo, rule: rule}
			switch rule.RewardType {
			case domain.RewardTypeGift:
				gift, ok := mostExpensiveGift(rule.GiftVariantIDs, in.Listings, order.Currency)
				if !ok {
					continue
				}
				candidate.gift = &gift
				candidate.amount = gift.Price.Amount
			default:
				candidate.amount = discountAmount(rule.RewardValueType, rule.RewardValue, subtotal, order.Currency)
			}
			if !candidate.amount.IsPositive() {
				continue
			}
			if !found || candidate.amount.GreaterThan(best.amount) {
				best, found = candidate, true
			}
		}
	}
	return best, found
}

func mostExpensiveGift(variantIDs []string, listings map[string]domain.VariantChannelListing, currency string) (domain.VariantChannelListing, bool) {
	var (
		best  domain.VariantChannelListing
		found bool
	)
	for _, id := range variantIDs {
		listing, ok := listings[id]
		if !ok || listing.Currency != currency {
			continue
		}
		if !found || listing.Price.Amount.GreaterThan(best.Price.Amount) {
			best, found = listing, true
		}
	}
	return best, found
}

// giftLine возвращает подарочную позицию с нулевыми ценами; существующая позиция с тем же вариантом переиспользуется.
func (c *Calculator) giftLine(order *domain.Order, reward orderReward, gifts []domain.OrderLine, now time.Time) *domain.OrderLine {
	currency := order.Currency
	listing := reward.gift

	var line domain.OrderLine
	for _, existing := range gifts {
		if existing.VariantID == listing.VariantID {
			line = existing.Clone()
			break
		}
	}
	if line.ID == "" {
		line = domain.OrderLine{ID: c.newID(), CreatedAt: now}
	}

	zero := domain.ZeroMoney(currency)
	zeroTaxed := domain.ZeroTaxedMoney(currency)
	line.OrderID = order.ID
	line.VariantID = listing.VariantID
	line.ProductID = listing.ProductID
	line.ProductName = listing.ProductName
	line.VariantName = listing.VariantName
	line.Quantity = 1
	line.IsGift = true
	line.UndiscountedBaseUnitPrice = zero
	line.BaseUnitPrice = zero
	line.UndiscountedUnitPrice = zeroTaxed
	line.UndiscountedTotalPrice = zeroTaxed
	line.UnitPrice = zeroTaxed
	line.TotalPrice = zeroTaxed

	ruleID := reward.rule.ID
	line.Discounts = []domain.OrderLineDiscount{{
		Type:            domain.DiscountTypeOrderPromotion,
		ValueType:       domain.DiscountValueTypeFixed,
		Value:           listing.Price.Amount,
		Amount:          money(listing.Price.Amount, currency),
		Name:            reward.promotion.Name,
		Reason:          domain.PromotionReason(reward.promotion.ID),
		PromotionRuleID: &ruleID,
		UniqueKey:       domain.DiscountUniqueKey(domain.DiscountTypeOrderPromotion),
	}}
	return &line
}

// applyManualOrderDiscount считает ручную скидку от subtotal + доставки и делит её между ними.
// Возвращает пересчитанную скидку и часть, приходящуюся на доставку.
func applyManualOrderDiscount(order *domain.Order, manual domain.OrderDiscount, states []*lineState) (domain.OrderDiscount, decimal.Decimal) {
	currency := order.Currency
	subtotal := subtotalOf(states)
	base := subtotal.Add(order.BaseShippingPrice.Amount)

	amount := discountAmount(manual.ValueType, manual.Value, base, currency)
	subtotalShare := decimal.Zero
	if base.IsPositive() {
		subtotalShare = domain.QuantizePrice(amount.Mul(subtotal).Div(base), currency)
	}
	shippingShare := amount.Sub(subtotalShare)

	allocateToLines(states, subtotalShare, currency)

	manual.Amount = money(amount, currency)
	manual.UniqueKey = domain.DiscountUniqueKey(domain.DiscountTypeManual)
	return manual, shippingShare
}
