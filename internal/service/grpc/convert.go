package grpcsvc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pricingv1 "github.com/vladislavdragonenkov/order-pricing/api/pricing/v1"
	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

func toAPIMoney(m domain.Money) pricingv1.Money {
	return pricingv1.Money{
		Amount:   m.Amount.StringFixed(domain.CurrencyPrecision(m.Currency)),
		Currency: m.Currency,
	}
}

func toAPITaxedMoney(m domain.TaxedMoney) pricingv1.TaxedMoney {
	return pricingv1.TaxedMoney{Net: toAPIMoney(m.Net), Gross: toAPIMoney(m.Gross)}
}

func toAPIOrder(order domain.Order) *pricingv1.Order {
	lines := make([]pricingv1.OrderLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, toAPILine(line))
	}

	discounts := make([]pricingv1.Discount, 0, len(order.Discounts))
	for _, d := range order.Discounts {
		discounts = append(discounts, pricingv1.Discount{
			ID:              d.ID,
			Type:            string(d.Type),
			ValueType:       string(d.ValueType),
			Value:           d.Value.String(),
			Amount:          toAPIMoney(d.Amount),
			Name:            d.Name,
			Reason:          d.Reason,
			PromotionRuleID: d.PromotionRuleID,
			VoucherCode:     d.VoucherCode,
		})
	}

	return &pricingv1.Order{
		ID:                  order.ID,
		ChannelID:           order.ChannelID,
		Status:              string(order.Status),
		Currency:            order.Currency,
		VoucherCode:         order.VoucherCode,
		TaxExemption:        order.TaxExemption,
		Lines:               lines,
		Discounts:           discounts,
		BaseShippingPrice:   toAPIMoney(order.BaseShippingPrice),
		ShippingPrice:       toAPITaxedMoney(order.ShippingPrice),
		UndiscountedTotal:   toAPITaxedMoney(order.UndiscountedTotal),
		Subtotal:            toAPITaxedMoney(order.Subtotal),
		Total:               toAPITaxedMoney(order.Total),
		ShouldRefreshPrices: order.ShouldRefreshPrices,
		PricesRefreshedAt:   order.PricesRefreshedAt,
		Version:             order.Version,
	}
}

func toAPILine(line domain.OrderLine) pricingv1.OrderLine {
	discounts := make([]pricingv1.Discount, 0, len(line.Discounts))
	for _, d := range line.Discounts {
		discounts = append(discounts, pricingv1.Discount{
			ID:              d.ID,
			Type:            string(d.Type),
			ValueType:       string(d.ValueType),
			Value:           d.Value.String(),
			Amount:          toAPIMoney(d.Amount),
			Name:            d.Name,
			Reason:          d.Reason,
			PromotionRuleID: d.PromotionRuleID,
			VoucherCode:     d.VoucherCode,
		})
	}
	return pricingv1.OrderLine{
		ID:                        line.ID,
		VariantID:                 line.VariantID,
		ProductID:                 line.ProductID,
		ProductName:               line.ProductName,
		VariantName:               line.VariantName,
		Quantity:                  line.Quantity,
		IsGift:                    line.IsGift,
		UndiscountedBaseUnitPrice: toAPIMoney(line.UndiscountedBaseUnitPrice),
		BaseUnitPrice:             toAPIMoney(line.BaseUnitPrice),
		UndiscountedUnitPrice:     toAPITaxedMoney(line.UndiscountedUnitPrice),
		UnitPrice:                 toAPITaxedMoney(line.UnitPrice),
		TotalPrice:                toAPITaxedMoney(line.TotalPrice),
		UnitDiscountAmount:        toAPIMoney(line.UnitDiscountAmount),
		UnitDiscountReason:        line.UnitDiscountReason,
		TaxRate:                   line.TaxRate.String(),
		Discounts:                 discounts,
	}
}

func toAPITimeline(events []domain.TimelineEvent) []pricingv1.TimelineEvent {
	result := make([]pricingv1.TimelineEvent, 0, len(events))
	for _, event := range events {
		result = append(result, pricingv1.TimelineEvent{
			Type:     event.Type,
			Reason:   event.Reason,
			UnixTime: event.Occurred.Unix(),
		})
	}
	return result
}

func toAPIListing(l domain.VariantChannelListing) pricingv1.VariantListing {
	listing := pricingv1.VariantListing{
		VariantID:       l.VariantID,
		ProductID:       l.ProductID,
		ChannelID:       l.ChannelID,
		ProductName:     l.ProductName,
		VariantName:     l.VariantName,
		Price:           toAPIMoney(l.Price),
		TaxClassID:      l.TaxClassID,
		PromotionRuleID: l.PromotionRuleID,
	}
	if l.PriorPrice != nil {
		prior := toAPIMoney(*l.PriorPrice)
		listing.PriorPrice = &prior
	}
	if l.DiscountedPrice.Currency != "" {
		discounted := toAPIMoney(l.DiscountedPrice)
		listing.DiscountedPrice = &discounted
	}
	return listing
}

func fromAPIListing(in pricingv1.VariantListing) (domain.VariantChannelListing, error) {
	price, err := parseMoney("listing.price", in.Price)
	if err != nil {
		return domain.VariantChannelListing{}, err
	}
	listing := domain.VariantChannelListing{
		VariantID:   in.VariantID,
		ProductID:   in.ProductID,
		ChannelID:   in.ChannelID,
		Currency:    price.Currency,
		ProductName: in.ProductName,
		VariantName: in.VariantName,
		Price:       price,
		TaxClassID:  in.TaxClassID,
	}
	if in.PriorPrice != nil {
		prior, err := parseMoney("listing.prior_price", *in.PriorPrice)
		if err != nil {
			return domain.VariantChannelListing{}, err
		}
		listing.PriorPrice = &prior
	}
	return listing, nil
}

func toAPIPromotion(p domain.Promotion) pricingv1.Promotion {
	rules := make([]pricingv1.PromotionRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		rule := pricingv1.PromotionRule{
			ID:              r.ID,
			Name:            r.Name,
			ChannelIDs:      r.ChannelIDs,
			RewardType:      string(r.RewardType),
			RewardValueType: string(r.RewardValueType),
			RewardValue:     r.RewardValue.String(),
			VariantIDs:      r.VariantIDs,
			GiftVariantIDs:  r.GiftVariantIDs,
		}
		if r.MinSubtotal != nil {
			minSubtotal := r.MinSubtotal.String()
			rule.MinSubtotal = &minSubtotal
		}
		rules = append(rules, rule)
	}
	return pricingv1.Promotion{
		ID:        p.ID,
		Name:      p.Name,
		Type:      string(p.Type),
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Rules:     rules,
	}
}

func fromAPIPromotion(in pricingv1.Promotion) (domain.Promotion, error) {
	rules := make([]domain.PromotionRule, 0, len(in.Rules))
	for idx, r := range in.Rules {
		value, err := parseOptionalDecimal(fmt.Sprintf("rules[%d].reward_value", idx), r.RewardValue)
		if err != nil {
			return domain.Promotion{}, err
		}
		rule := domain.PromotionRule{
			ID:              r.ID,
			Name:            r.Name,
			ChannelIDs:      r.ChannelIDs,
			RewardType:      domain.RewardType(r.RewardType),
			RewardValueType: domain.DiscountValueType(r.RewardValueType),
			RewardValue:     value,
			VariantIDs:      r.VariantIDs,
			GiftVariantIDs:  r.GiftVariantIDs,
		}
		if r.MinSubtotal != nil {
			minSubtotal, err := parseDecimal(fmt.Sprintf("rules[%d].min_subtotal", idx), *r.MinSubtotal)
			if err != nil {
				return domain.Promotion{}, err
			}
			rule.MinSubtotal = &minSubtotal
		}
		rules = append(rules, rule)
	}
	return domain.Promotion{
		ID:        in.ID,
		Name:      in.Name,
		Type:      domain.PromotionType(in.Type),
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Rules:     rules,
	}, nil
}

func toAPIVoucher(v domain.Voucher) pricingv1.Voucher {
	voucher := pricingv1.Voucher{
		ID:                v.ID,
		Name:              v.Name,
		Type:              string(v.Type),
		Codes:             v.Codes,
		DiscountValueType: string(v.DiscountValueType),
		Value:             v.Value.String(),
		ApplyOncePerOrder: v.ApplyOncePerOrder,
		VariantIDs:        v.VariantIDs,
		ChannelIDs:        v.ChannelIDs,
		StartDate:         v.StartDate,
		EndDate:           v.EndDate,
	}
	if v.MinSpent != nil {
		minSpent := v.MinSpent.String()
		voucher.MinSpent = &minSpent
	}
	return voucher
}

func fromAPIVoucher(in pricingv1.Voucher) (domain.Voucher, error) {
	value, err := parseDecimal("voucher.value", in.Value)
	if err != nil {
		return domain.Voucher{}, err
	}
	voucher := domain.Voucher{
		ID:                in.ID,
		Name:              in.Name,
		Type:              domain.VoucherType(in.Type),
		Codes:             in.Codes,
		DiscountValueType: domain.DiscountValueType(in.DiscountValueType),
		Value:             value,
		ApplyOncePerOrder: in.ApplyOncePerOrder,
		VariantIDs:        in.VariantIDs,
		ChannelIDs:        in.ChannelIDs,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
	}
	if in.MinSpent != nil {
		minSpent, err := parseDecimal("voucher.min_spent", *in.MinSpent)
		if err != nil {
			return domain.Voucher{}, err
		}
		voucher.MinSpent = &minSpent
	}
	return voucher, nil
}

func toAPITaxConfiguration(cfg domain.TaxConfiguration) pricingv1.TaxConfiguration {
	result := pricingv1.TaxConfiguration{
		ChannelID:            cfg.ChannelID,
		ChargeTaxes:          cfg.ChargeTaxes,
		PricesEnteredWithTax: cfg.PricesEnteredWithTax,
		DefaultRate:          cfg.DefaultRate.String(),
		ShippingTaxClassID:   cfg.ShippingTaxClassID,
	}
	if len(cfg.ClassRates) > 0 {
		result.ClassRates = make(map[string]string, len(cfg.ClassRates))
		for classID, rate := range cfg.ClassRates {
			result.ClassRates[classID] = rate.String()
		}
	}
	return result
}

func fromAPITaxConfiguration(in pricingv1.TaxConfiguration) (domain.TaxConfiguration, error) {
	defaultRate, err := parseOptionalDecimal("configuration.default_rate", in.DefaultRate)
	if err != nil {
		return domain.TaxConfiguration{}, err
	}
	cfg := domain.TaxConfiguration{
		ChannelID:            in.ChannelID,
		ChargeTaxes:          in.ChargeTaxes,
		PricesEnteredWithTax: in.PricesEnteredWithTax,
		DefaultRate:          defaultRate,
		ShippingTaxClassID:   in.ShippingTaxClassID,
	}
	if len(in.ClassRates) > 0 {
		cfg.ClassRates = make(map[string]decimal.Decimal, len(in.ClassRates))
		for classID, raw := range in.ClassRates {
			rate, err := parseDecimal("configuration.class_rates."+classID, raw)
			if err != nil {
				return domain.TaxConfiguration{}, err
			}
			cfg.ClassRates[classID] = rate
		}
	}
	return cfg, nil
}

func parseMoney(field string, in pricingv1.Money) (domain.Money, error) {
	amount, err := parseDecimal(field+".amount", in.Amount)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(in.Currency))}, nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, status.Errorf(codes.InvalidArgument, "%s must be a decimal number", field)
	}
	return value, nil
}

func parseOptionalDecimal(field, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return parseDecimal(field, raw)
}
