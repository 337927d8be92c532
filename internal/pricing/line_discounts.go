package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// applyLineLevelDiscounts пересобирает ручную и каталожную скидки позиции.
// Ручная скидка позиции вытесняет все остальные скидки этой позиции.
func (c *Calculator) applyLineLevelDiscounts(order *domain.Order, line *domain.OrderLine, in Input, now time.Time) *lineState {
	currency := order.Currency
	qty := decimal.NewFromInt(int64(line.Quantity))
	unitPrice := line.UndiscountedBaseUnitPrice.Amount
	st := &lineState{line: line, baseTotal: unitPrice.Mul(qty)}

	if manual, ok := line.DiscountByType(domain.DiscountTypeManual); ok {
		unit := discountAmount(manual.ValueType, manual.Value, unitPrice, currency)
		manual.Amount = money(unit.Mul(qty), currency)
		line.Discounts = []domain.OrderLineDiscount{manual}
		st.baseTotal = st.baseTotal.Sub(manual.Amount.Amount)
		st.manual = true
		return st
	}

	var discounts []domain.OrderLineDiscount
	if d, ok := catalogueDiscount(order, line, in.Promotions, now); ok {
		discounts = append(discounts, d)
	} else if existing, ok := line.DiscountByType(domain.DiscountTypePromotion); ok && order.Status == domain.OrderStatusUnconfirmed {
		// Подтверждённая клиентом скидка сохраняется, даже если акция закончилась или удалена.
		unit := discountAmount(existing.ValueType, existing.Value, unitPrice, currency)
		existing.Amount = money(unit.Mul(qty), currency)
		if existing.PromotionRuleID != nil && !ruleExists(in.Promotions, *existing.PromotionRuleID) {
			existing.PromotionRuleID = nil
		}
		if !existing.Amount.IsZero() {
			discounts = append(discounts, existing)
		}
	}

	for _, d := range discounts {
		st.baseTotal = st.baseTotal.Sub(d.Amount.Amount)
	}
	line.Discounts = discounts
	return st
}

// catalogueDiscount выбирает каталожное правило с наибольшей скидкой на единицу.
func catalogueDiscount(order *domain.Order, line *domain.OrderLine, promotions []domain.Promotion, now time.Time) (domain.OrderLineDiscount, bool) {
	best, ok := bestCatalogueRule(order.ChannelID, line.VariantID, line.UndiscountedBaseUnitPrice.Amount, order.Currency, promotions, now)
	if !ok {
		return domain.OrderLineDiscount{}, false
	}
	ruleID := best.rule.ID
	return domain.OrderLineDiscount{
		Type:            domain.DiscountTypePromotion,
		ValueType:       best.rule.RewardValueType,
		Value:           best.rule.RewardValue,
		Amount:          money(best.unit.Mul(decimal.NewFromInt(int64(line.Quantity))), order.Currency),
		Name:            best.promotion.Name,
		Reason:          domain.PromotionReason(best.promotion.ID),
		PromotionRuleID: &ruleID,
		UniqueKey:       domain.DiscountUniqueKey(domain.DiscountTypePromotion),
	}, true
}

type catalogueRule struct {
	promotion *domain.Promotion
	rule      domain.PromotionRule
	unit      decimal.Decimal
}

// bestCatalogueRule ищет активное правило канала для варианта с наибольшей скидкой на единицу.
// При равной скидке побеждает правило, встреченное первым.
func bestCatalogueRule(channelID, variantID string, unitPrice decimal.Decimal, currency string, promotions []domain.Promotion, now time.Time) (catalogueRule, bool) {
	var (
		best  catalogueRule
		found bool
	)
	for i := range promotions {
		promo := &promotions[i]
		if promo.Type != domain.PromotionTypeCatalogue || !promo.ActiveAt(now) {
			continue
		}
		for _, rule := range promo.Rules {
			if !rule.HasChannel(channelID) || !rule.HasVariant(variantID) {
				continue
			}
			unit := discountAmount(rule.RewardValueType, rule.RewardValue, unitPrice, currency)
			if !unit.IsPositive() || (found && !unit.GreaterThan(best.unit)) {
				continue
			}
			best = catalogueRule{promotion: promo, rule: rule, unit: unit}
			found = true
		}
	}
	return best, found
}

// DiscountedPrice возвращает цену листинга после лучшего каталожного правила
// и идентификатор этого правила (nil, если скидки нет).
func DiscountedPrice(listing domain.VariantChannelListing, promotions []domain.Promotion, now time.Time) (domain.Money, *string) {
	price := listing.Price.Amount
	best, ok := bestCatalogueRule(listing.ChannelID, listing.VariantID, price, listing.Currency, promotions, now)
	if !ok {
		return money(price, listing.Currency), nil
	}
	ruleID := best.rule.ID
	return money(price.Sub(best.unit), listing.Currency), &ruleID
}

func ruleExists(promotions []domain.Promotion, ruleID string) bool {
	for i := range promotions {
		if _, ok := promotions[i].RuleByID(ruleID); ok {
			return true
		}
	}
	return false
}

// applicableVoucher возвращает ваучер заказа, если он действует для канала, даты и суммы.
func applicableVoucher(order *domain.Order, voucher *domain.Voucher, states []*lineState, now time.Time) *domain.Voucher {
	if voucher == nil || order.VoucherCode == "" {
		return nil
	}
	if order.VoucherID != "" && order.VoucherID != voucher.ID {
		return nil
	}
	if err := voucher.CheckApplicable(order.ChannelID, subtotalOf(states), now); err != nil {
		return nil
	}
	return voucher
}

// applyVoucherLineDiscounts добавляет скидки ваучера на позиции:
// specific_product на все единицы подходящих позиций, apply-once на одну единицу самой дешёвой.
func (c *Calculator) applyVoucherLineDiscounts(order *domain.Order, voucher *domain.Voucher, states []*lineState) {
	currency := order.Currency

	if voucher.ApplyOncePerOrder {
		if voucher.Type != domain.VoucherTypeEntireOrder && voucher.Type != domain.VoucherTypeSpecificProduct {
			return
		}
		var (
			cheapest  *lineState
			cheapUnit decimal.Decimal
		)
		for _, st := range states {
			if st.manual {
				continue
			}
			if voucher.Type == domain.VoucherTypeSpecificProduct && !voucher.AppliesToVariant(st.line.VariantID) {
				continue
			}
			unit := st.unitBase(currency)
			if !unit.IsPositive() {
				continue
			}
			if cheapest == nil || unit.LessThan(cheapUnit) {
				cheapest, cheapUnit = st, unit
			}
		}
		if cheapest == nil {
			return
		}
		amount := discountAmount(voucher.DiscountValueType, voucher.Value, cheapUnit, currency)
		addVoucherLineDiscount(order, voucher, cheapest, amount)
		return
	}

	if voucher.Type != domain.VoucherTypeSpecificProduct {
		return
	}
	for _, st := range states {
		if st.manual || !voucher.AppliesToVariant(st.line.VariantID) {
			continue
		}
		unit := discountAmount(voucher.DiscountValueType, voucher.Value, st.unitBase(currency), currency)
		amount := unit.Mul(decimal.NewFromInt(int64(st.line.Quantity)))
		addVoucherLineDiscount(order, voucher, st, amount)
	}
}

func addVoucherLineDiscount(order *domain.Order, voucher *domain.Voucher, st *lineState, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	amount = decimal.Min(amount, st.baseTotal)
	st.line.Discounts = append(st.line.Discounts, domain.OrderLineDiscount{
		Type:        domain.DiscountTypeVoucher,
		ValueType:   voucher.DiscountValueType,
		Value:       voucher.Value,
		Amount:      money(amount, order.Currency),
		Name:        voucher.Name,
		Reason:      domain.VoucherReason(order.VoucherCode),
		VoucherID:   voucher.ID,
		VoucherCode: order.VoucherCode,
		UniqueKey:   domain.DiscountUniqueKey(domain.DiscountTypeVoucher),
	})
	st.baseTotal = st.baseTotal.Sub(amount)
}

// summarizeLineDiscounts заполняет поля unit_discount_* по скидкам уровня позиции.
func summarizeLineDiscounts(line *domain.OrderLine, currency string) {
	if len(line.Discounts) == 0 || line.Quantity <= 0 {
		line.UnitDiscountAmount = domain.ZeroMoney(currency)
		line.UnitDiscountType = ""
		line.UnitDiscountValue = decimal.Zero
		line.UnitDiscountReason = ""
		return
	}

	total := decimal.Zero
	reasons := make([]string, 0, len(line.Discounts))
	for _, d := range line.Discounts {
		total = total.Add(d.Amount.Amount)
		if d.Reason != "" {
			reasons = append(reasons, d.Reason)
		}
	}
	unit := domain.QuantizePrice(total.Div(decimal.NewFromInt(int64(line.Quantity))), currency)

	line.UnitDiscountAmount = money(unit, currency)
	line.UnitDiscountReason = strings.Join(reasons, "; ")
	if len(line.Discounts) == 1 {
		line.UnitDiscountType = line.Discounts[0].ValueType
		line.UnitDiscountValue = line.Discounts[0].Value
		return
	}
	line.UnitDiscountType = domain.DiscountValueTypeFixed
	line.UnitDiscountValue = unit
}
