package pricing_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/pricing"
)

const (
	channelID = "channel-usd"
	currency  = "USD"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func usd(v string) domain.Money { return domain.MustMoney(v, currency) }

func assertAmount(t *testing.T, want string, got domain.Money, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got.Amount), "want %s, got %s %v", want, got.Amount, msgAndArgs)
}

func assertTaxed(t *testing.T, wantNet, wantGross string, got domain.TaxedMoney, label string) {
	t.Helper()
	assertAmount(t, wantNet, got.Net, label+" net")
	assertAmount(t, wantGross, got.Gross, label+" gross")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func newCalculator() *pricing.Calculator {
	return pricing.NewCalculator(pricing.WithIDGenerator(sequentialIDs()))
}

func listing(variantID, price string) domain.VariantChannelListing {
	return domain.VariantChannelListing{
		VariantID:       variantID,
		ProductID:       "product-" + variantID,
		ChannelID:       channelID,
		Currency:        currency,
		ProductName:     "Product " + variantID,
		VariantName:     "Variant " + variantID,
		Price:           usd(price),
		DiscountedPrice: usd(price),
	}
}

func listings() map[string]domain.VariantChannelListing {
	return map[string]domain.VariantChannelListing{
		"variant-1": listing("variant-1", "10.00"),
		"variant-2": listing("variant-2", "20.00"),
		"gift-1":    listing("gift-1", "15.00"),
		"gift-2":    listing("gift-2", "8.00"),
	}
}

func flatTaxes() domain.TaxConfiguration {
	return domain.TaxConfiguration{
		ChannelID:   channelID,
		ChargeTaxes: true,
		DefaultRate: d("23"),
	}
}

// unconfirmedOrder: line-1 3 x 10.00, line-2 2 x 20.00, доставка 10.00.
func unconfirmedOrder() domain.Order {
	order := domain.NewDraftOrder("order-1", channelID, currency, now.Add(-time.Hour))
	order.Status = domain.OrderStatusUnconfirmed
	order.UndiscountedBaseShippingPrice = usd("10.00")
	order.BaseShippingPrice = usd("10.00")
	order.Lines = []domain.OrderLine{
		{ID: "line-1", OrderID: "order-1", VariantID: "variant-1", Quantity: 3, UndiscountedBaseUnitPrice: usd("10.00"), BaseUnitPrice: usd("10.00")},
		{ID: "line-2", OrderID: "order-1", VariantID: "variant-2", Quantity: 2, UndiscountedBaseUnitPrice: usd("20.00"), BaseUnitPrice: usd("20.00")},
	}
	return order
}

func catalogueFixed(variantID, value string) domain.Promotion {
	return domain.Promotion{
		ID:   "promo-catalogue",
		Name: "Catalogue sale",
		Type: domain.PromotionTypeCatalogue,
		Rules: []domain.PromotionRule{{
			ID:              "rule-catalogue",
			PromotionID:     "promo-catalogue",
			ChannelIDs:      []string{channelID},
			RewardValueType: domain.DiscountValueTypeFixed,
			RewardValue:     d(value),
			VariantIDs:      []string{variantID},
		}},
	}
}

func orderPromotion(valueType domain.DiscountValueType, value string) domain.Promotion {
	return domain.Promotion{
		ID:   "promo-order",
		Name: "Order sale",
		Type: domain.PromotionTypeOrder,
		Rules: []domain.PromotionRule{{
			ID:              "rule-order",
			PromotionID:     "promo-order",
			ChannelIDs:      []string{channelID},
			RewardType:      domain.RewardTypeSubtotalDiscount,
			RewardValueType: valueType,
			RewardValue:     d(value),
		}},
	}
}

func giftPromotion() domain.Promotion {
	return domain.Promotion{
		ID:   "promo-gift",
		Name: "Free gift",
		Type: domain.PromotionTypeOrder,
		Rules: []domain.PromotionRule{{
			ID:             "rule-gift",
			PromotionID:    "promo-gift",
			ChannelIDs:     []string{channelID},
			RewardType:     domain.RewardTypeGift,
			GiftVariantIDs: []string{"gift-1", "gift-2"},
		}},
	}
}

func manualOrderDiscount(valueType domain.DiscountValueType, value string) domain.OrderDiscount {
	return domain.OrderDiscount{
		ID:        "manual-1",
		OrderID:   "order-1",
		Type:      domain.DiscountTypeManual,
		ValueType: valueType,
		Value:     d(value),
		Name:      "Manual order discount",
		UniqueKey: domain.DiscountUniqueKey(domain.DiscountTypeManual),
	}
}

func voucher(voucherType domain.VoucherType, valueType domain.DiscountValueType, value string) *domain.Voucher {
	return &domain.Voucher{
		ID:                "voucher-1",
		Name:              "Voucher",
		Type:              voucherType,
		Codes:             []string{"SAVE"},
		DiscountValueType: valueType,
		Value:             d(value),
		ChannelIDs:        []string{channelID},
	}
}

func withVoucher(order domain.Order, v *domain.Voucher) domain.Order {
	order.VoucherID = v.ID
	order.VoucherCode = v.Codes[0]
	return order
}

func recalculate(t *testing.T, in pricing.Input) domain.Order {
	t.Helper()
	if in.Listings == nil {
		in.Listings = listings()
	}
	if in.Now.IsZero() {
		in.Now = now
	}
	out, err := newCalculator().Recalculate(in)
	require.NoError(t, err)
	return out
}

func line(t *testing.T, order domain.Order, id string) domain.OrderLine {
	t.Helper()
	l, ok := order.LineByID(id)
	require.True(t, ok, "line %s not found", id)
	return *l
}

func TestRecalculate_CatalogueDiscount(t *testing.T) {
	out := recalculate(t, pricing.Input{
		Order:      unconfirmedOrder(),
		Promotions: []domain.Promotion{catalogueFixed("variant-1", "3.00")},
		Tax:        flatTaxes(),
	})

	l1 := line(t, out, "line-1")
	require.Len(t, l1.Discounts, 1)
	discount := l1.Discounts[0]
	assert.Equal(t, domain.DiscountTypePromotion, discount.Type)
	assert.Equal(t, domain.DiscountValueTypeFixed, discount.ValueType)
	assert.True(t, d("3").Equal(discount.Value))
	assertAmount(t, "9.00", discount.Amount)
	assert.Equal(t, "Promotion: promo-catalogue", discount.Reason)
	require.NotNil(t, discount.PromotionRuleID)
	assert.Equal(t, "rule-catalogue", *discount.PromotionRuleID)

	assertAmount(t, "7.00", l1.BaseUnitPrice)
	assertTaxed(t, "30.00", "36.90", l1.UndiscountedTotalPrice, "line-1 undiscounted total")
	assertTaxed(t, "10.00", "12.30", l1.UndiscountedUnitPrice, "line-1 undiscounted unit")
	assertTaxed(t, "21.00", "25.83", l1.TotalPrice, "line-1 total")
	assertTaxed(t, "7.00", "8.61", l1.UnitPrice, "line-1 unit")
	assertAmount(t, "3.00", l1.UnitDiscountAmount)
	assert.Equal(t, domain.DiscountValueTypeFixed, l1.UnitDiscountType)
	assert.Equal(t, "Promotion: promo-catalogue", l1.UnitDiscountReason)
	assert.True(t, d("0.23").Equal(l1.TaxRate))

	l2 := line(t, out, "line-2")
	assert.Empty(t, l2.Discounts)
	assertTaxed(t, "40.00", "49.20", l2.TotalPrice, "line-2 total")
	assertAmount(t, "0", l2.UnitDiscountAmount)
	assert.Empty(t, l2.UnitDiscountReason)

	assert.Empty(t, out.Discounts)
	assertTaxed(t, "61.00", "75.03", out.Subtotal, "subtotal")
	assertTaxed(t, "10.00", "12.30", out.ShippingPrice, "shipping")
	assertTaxed(t, "71.00", "87.33", out.Total, "total")
	assertTaxed(t, "80.00", "98.40", out.UndiscountedTotal, "undiscounted total")

	assert.False(t, out.ShouldRefreshPrices)
	require.NotNil(t, out.PricesRefreshedAt)
	assert.True(t, now.Equal(*out.PricesRefreshedAt))
}

func TestRecalculate_OrderPromotionAllocatedProportionally(t *testing.T) {
	out := recalculate(t, pricing.Input{
		Order:      unconfirmedOrder(),
		Promotions: []domain.Promotion{orderPromotion(domain.DiscountValueTypeFixed, "10.00")},
		Tax:        flatTaxes(),
	})

	require.Len(t, out.Discounts, 1)
	discount := out.Discounts[0]
	assert.Equal(t, domain.DiscountTypeOrderPromotion, discount.Type)
	assertAmount(t, "10.00", discount.Amount)
	assert.True(t, d("10").Equal(discount.Value))
	assert.Equal(t, "Promotion: promo-order", discount.Reason)
	assert.Equal(t, "order-1", discount.OrderID)

	l1 := line(t, out, "line-1")
	l2 := line(t, out, "line-2")
	assert.Empty(t, l1.Discounts)
	assert.Empty(t, l2.Discounts)

	// 10 * 30 / 70 = 4.2857 -> 4.29, остаток 5.71 уходит последней позиции.
	assertAmount(t, "10.00", l1.BaseUnitPrice)
	assertTaxed(t, "25.71", "31.62", l1.TotalPrice, "line-1 total")
	assertTaxed(t, "8.57", "10.54", l1.UnitPrice, "line-1 unit")
	assertAmount(t, "20.00", l2.BaseUnitPrice)
	assertTaxed(t, "34.29", "42.18", l2.TotalPrice, "line-2 total")
	assertTaxed(t, "17.15", "21.09", l2.UnitPrice, "line-2 unit")

	assertTaxed(t, "60.00", "73.80", out.Subtotal, "subtotal")
	assertTaxed(t, "70.00", "86.10", out.Total, "total")
}

func TestRecalculate_GiftPromotionBeatsSmallerSubtotalDiscount(t *testing.T) {
	out := recalculate(t, pricing.Input{
		Order: unconfirmedOrder(),
		Promotions: []domain.Promotion{
			orderPromotion(domain.DiscountValueTypeFixed, "5.00"),
			giftPromotion(),
		},
		Tax: flatTaxes(),
	})

	assert.Empty(t, out.Discounts)
	require.Len(t, out.Lines, 3)
	gift := out.Lines[2]
	assert.True(t, gift.IsGift)
	assert.Equal(t, "gift-1", gift.VariantID)
	assert.Equal(t, 1, gift.Quantity)
	assertTaxed(t, "0", "0", gift.TotalPrice, "gift total")
	assertTaxed(t, "0", "0", gift.UnitPrice, "gift unit")
	assertTaxed(t, "0", "0", gift.UndiscountedTotalPrice, "gift undiscounted total")
	assertAmount(t, "0", gift.BaseUnitPrice)

	require.Len(t, gift.Discounts, 1)
	discount := gift.Discounts[0]
	assert.Equal(t, domain.DiscountTypeOrderPromotion, discount.Type)
	assert.Equal(t, domain.DiscountValueTypeFixed, discount.ValueType)
	assert.True(t, d("15").Equal(discount.Value))
	assertAmount(t, "15.00", discount.Amount)
	assert.Equal(t, "Promotion: promo-gift", discount.Reason)
	assertAmount(t, "15.00", gift.UnitDiscountAmount)
	assert.Equal(t, "Promotion: promo-gift", gift.UnitDiscountReason)

	assertTaxed(t, "70.00", "86.10", out.Subtotal, "subtotal")
}

func TestRecalculate_GiftLineIsReusedAcrossRuns(t *testing.T) {
	calc := newCalculator()
	in := pricing.Input{
		Order:      unconfirmedOrder(),
		Listings:   listings(),
		Promotions: []domain.Promotion{giftPromotion()},
		Tax:        flatTaxes(),
		Now:        now,
	}
	first, err := calc.Recalculate(in)
	require.NoError(t, err)
	require.Len(t, first.Lines, 3)

	in.Order = first
	second, err := calc.Recalculate(in)
	require.NoError(t, err)
	require.Len(t, second.Lines, 3)
	assert.Equal(t, first.Lines[2].ID, second.Lines[2].ID)
	assert.Equal(t, first.Lines[2].Discounts[0].ID, second.Lines[2].Discounts[0].ID)

	in.Order = second
	in.Promotions = nil
	third, err := calc.Recalculate(in)
	require.NoError(t, err)
	assert.Len(t, third.Lines, 2, "gift line must disappear with the promotion")
}

func TestRecalculate_DraftCatalogueAndOrderPromotion(t *testing.T) {
	order := unconfirmedOrder()
	order.Status = domain.OrderStatusDraft
	// Черновик всегда берёт цену из листинга.
	order.Lines[0].UndiscountedBaseUnitPrice = usd("9.00")

	out := recalculate(t, pricing.Input{
		Order: order,
		Promotions: []domain.Promotion{
			catalogueFixed("variant-2", "3.00"),
			orderPromotion(domain.DiscountValueTypePercentage, "10"),
		},
		Tax: flatTaxes(),
	})

	l1 := line(t, out, "line-1")
	l2 := line(t, out, "line-2")
	assertAmount(t, "10.00", l1.UndiscountedBaseUnitPrice)
	assert.Equal(t, "Product variant-1", l1.ProductName)
	require.Len(t, l2.Discounts, 1)
	assertAmount(t, "6.00", l2.Discounts[0].Amount)

	require.Len(t, out.Discounts, 1)
	// subtotal 30 + 34 = 64, 10% = 6.40; 6.40 * 30 / 64 = 3.00.
	assertAmount(t, "6.40", out.Discounts[0].Amount)
	assertTaxed(t, "27.00", "33.21", l1.TotalPrice, "line-1 total")
	assertTaxed(t, "30.60", "37.64", l2.TotalPrice, "line-2 total")
	assertAmount(t, "57.60", out.Subtotal.Net)
}

func TestRecalculate_OrderPromotionExceedingSubtotal(t *testing.T) {
	order := unconfirmedOrder()
	out := recalculate(t, pricing.Input{
		Order: order,
		Promotions: []domain.Promotion{
			catalogueFixed("variant-2", "3.00"),
			orderPromotion(domain.DiscountValueTypeFixed, "100000"),
		},
		Tax: flatTaxes(),
	})

	require.Len(t, out.Discounts, 1)
	assertAmount(t, "64.00", out.Discounts[0].Amount)
	assert.True(t, d("100000").Equal(out.Discounts[0].Value))

	for _, l := range out.Lines {
		assertTaxed(t, "0", "0", l.TotalPrice, l.ID+" total")
		assertTaxed(t, "0", "0", l.UnitPrice, l.ID+" unit")
	}
	assertAmount(t, "17.00", line(t, out, "line-2").BaseUnitPrice)
	assertTaxed(t, "0", "0", out.Subtotal, "subtotal")
	assertTaxed(t, "10.00", "12.30", out.Total, "total")
	assertTaxed(t, "80.00", "98.40", out.UndiscountedTotal, "undiscounted total")
}

func TestRecalculate_ManualDiscountExcludesOrderPromotion(t *testing.T) {
	order := unconfirmedOrder()
	order.Discounts = []domain.OrderDiscount{
		manualOrderDiscount(domain.DiscountValueTypePercentage, "50"),
		{ID: "stale-promo", Type: domain.DiscountTypeOrderPromotion, UniqueKey: "order_promotion", Amount: usd("10")},
	}

	out := recalculate(t, pricing.Input{
		Order:      order,
		Promotions: []domain.Promotion{orderPromotion(domain.DiscountValueTypeFixed, "10.00")},
		Tax:        flatTaxes(),
	})

	require.Len(t, out.Discounts, 1)
	manual := out.Discounts[0]
	assert.Equal(t, "manual-1", manual.ID)
	assert.Equal(t, domain.DiscountTypeManual, manual.Type)
	assertAmount(t, "40.00", manual.Amount)
	assert.Empty(t, manual.Reason)

	// 40 * 70 / 80 = 35 на позиции, 5 на доставку.
	assertTaxed(t, "15.00", "18.45", line(t, out, "line-1").TotalPrice, "line-1 total")
	assertTaxed(t, "20.00", "24.60", line(t, out, "line-2").TotalPrice, "line-2 total")
	assertTaxed(t, "5.00", "6.15", out.ShippingPrice, "shipping")
	assertTaxed(t, "40.00", "49.20", out.Total, "total")
}

func TestRecalculate_ManualDiscountRemovesGiftLine(t *testing.T) {
	order := unconfirmedOrder()
	order.Lines = append(order.Lines, domain.OrderLine{
		ID: "gift-line", OrderID: "order-1", VariantID: "gift-1", Quantity: 1, IsGift: true,
		UndiscountedBaseUnitPrice: usd("0"), BaseUnitPrice: usd("0"),
		Discounts: []domain.OrderLineDiscount{{ID: "gift-discount", Type: domain.DiscountTypeOrderPromotion, UniqueKey: "order_promotion"}},
	})
	order.Discounts = []domain.OrderDiscount{manualOrderDiscount(domain.DiscountValueTypeFixed, "10.00")}

	out := recalculate(t, pricing.Input{
		Order:      order,
		Promotions: []domain.Promotion{giftPromotion()},
		Tax:        flatTaxes(),
	})

	require.Len(t, out.Lines, 2)
	for _, l := range out.Lines {
		assert.False(t, l.IsGift)
	}
	require.Len(t, out.Discounts, 1)
	assertAmount(t, "10.00", out.Discounts[0].Amount)
	// 10 * 70 / 80 = 8.75 на позиции, 1.25 на доставку.
	assertAmount(t, "61.25", out.Subtotal.Net)
	assertAmount(t, "8.75", out.ShippingPrice.Net)
	assertAmount(t, "70.00", out.Total.Net)
}

func TestRecalculate_ManualDiscountWithCatalogueDiscount(t *testing.T) {
	order := unconfirmedOrder()
	order.Discounts = []domain.OrderDiscount{manualOrderDiscount(domain.DiscountValueTypePercentage, "50")}

	out := recalculate(t, pricing.Input{
		Order:      order,
		Promotions: []domain.Promotion{catalogueFixed("variant-1", "3.00")},
		Tax:        flatTaxes(),
	})

	require.Len(t, out.Discounts, 1)
	// (80 - 9) * 50% = 35.50.
	assertAmount(t, "35.50", out.Discounts[0].Amount)

	l1 := line(t, out, "line-1")
	require.Len(t, l1.Discounts, 1)
	assertAmount(t, "9.00", l1.Discounts[0].Amount)
	assertAmount(t, "7.00", l1.BaseUnitPrice)
	assertTaxed(t, "10.50", "12.92", l1.TotalPrice, "line-1 total")
	assertTaxed(t, "3.50", "4.31", l1.UnitPrice, "line-1 unit")

	l2 := line(t, out, "line-2")
	assertAmount(t, "20.00", l2.BaseUnitPrice)
	assertTaxed(t, "20.00", "24.60", l2.TotalPrice, "line-2 total")

	assertTaxed(t, "5.00", "6.15", out.ShippingPrice, "shipping")
	assertAmount(t, "35.50", out.Total.Net)
	assertAmount(t, "80.00", out.UndiscountedTotal.Net)
}

func TestRecalculate_ManualLineDiscountOverridesCatalogue(t *testing.T) {
	order := unconfirmedOrder()
	order.Lines[0].Discounts = []domain.OrderLineDiscount{{
		ID:        "manual-line",
		Type:      domain.DiscountTypeManual,
		ValueType: domain.DiscountValueTypePercentage,
		Value:     d("50"),
		Reason:    "damaged box",
		UniqueKey: "manual",
	}}

	out := recalculate(t, pricing.Input{
		Order:      order,
		Promotions: []domain.Promotion{catalogueFixed("variant-1", "3.00")},
		Tax:        flatTaxes(),
	})

	l1 := line(t, out, "line-1")
	require.Len(t, l1.Discounts, 1)
	assert.Equal(t, "manual-line", l1.Discounts[0].ID)
	assertAmount(t, "15.00", l1.Discounts[0].Amount)
	assertAmount(t, "5.00", l1.BaseUnitPrice)
	assert.Equal(t, domain.DiscountValueTypePercentage, l1.UnitDiscountType)
	assert.True(t, d("50").Equal(l1.UnitDiscountValue))
	assert.Equal(t, "damaged box", l1.UnitDiscountReason)
}

func TestRecalculate_SpecificProductVoucherWithManualDiscount(t *testing.T) {
	v := voucher(domain.VoucherTypeSpecificProduct, domain.DiscountValueTypeFixed, "2.00")
	v.VariantIDs = []string{"variant-1"}
	order := withVoucher(unconfirmedOrder(), v)
	order.Discounts = []domain.OrderDiscount{manualOrderDiscount(domain.DiscountValueTypeFixed, "10.00")}

	out := recalculate(t, pricing.Input{Order: order, Voucher: v, Tax: flatTaxes()})

	l1 := line(t, out, "line-1")
	require.Len(t, l1.Discounts, 1)
	vd := l1.Discounts[0]
	assert.Equal(t, domain.DiscountTypeVoucher, vd.Type)
	assertAmount(t, "6.00", vd.Amount)
	assert.True(t, d("2").Equal(vd.Value))
	assert.Equal(t, "Voucher code: SAVE", vd.Reason)
	assert.Equal(t, "voucher-1", vd.VoucherID)
	assertAmount(t, "8.00", l1.BaseUnitPrice)
	assertAmount(t, "2.00", l1.UnitDiscountAmount)
	assert.Equal(t, domain.DiscountValueTypeFixed, l1.UnitDiscountType)
	assert.Equal(t, "Voucher code: SAVE", l1.UnitDiscountReason)

	l2 := line(t, out, "line-2")
	assert.Empty(t, l2.Discounts)
	assertAmount(t, "0", l2.UnitDiscountAmount)
	assert.Empty(t, string(l2.UnitDiscountType))

	require.Len(t, out.Discounts, 1)
	assertAmount(t, "10.00", out.Discounts[0].Amount)
	assertAmount(t, "10.00", out.BaseShippingPrice)
	// 64 + 10 - 10.
	assertAmount(t, "64.00", out.Total.Net)
	// 10 * 64 / 74 = 8.6486 -> 8.65 на позиции.
	assertAmount(t, "55.35", out.Subtotal.Net)
	assertAmount(t, "8.65", out.ShippingPrice.Net)
}

func TestRecalculate_ApplyOnceVoucherWithManualDiscount(t *testing.T) {
	v := voucher(domain.VoucherTypeEntireOrder, domain.DiscountValueTypeFixed, "3.00")
	v.ApplyOncePerOrder = true
	order := withVoucher(unconfirmedOrder(), v)
	order.Discounts = []domain.OrderDiscount{manualOrderDiscount(domain.DiscountValueTypeFixed, "8.00")}

	out := recalculate(t, pricing.Input{Order: order, Voucher: v, Tax: flatTaxes()})

	l1 := line(t, out, "line-1")
	require.Len(t, l1.Discounts, 1)
	assertAmount(t, "3.00", l1.Discounts[0].Amount)
	assert.True(t, d("3").Equal(l1.Discounts[0].Value))
	assertAmount(t, "9.00", l1.BaseUnitPrice)
	assertAmount(t, "1.00", l1.UnitDiscountAmount)
	assert.Empty(t, line(t, out, "line-2").Discounts)

	require.Len(t, out.Discounts, 1)
	assert.Equal(t, domain.DiscountTypeManual, out.Discounts[0].Type)
	// 70 + 10 - 3 - 8.
	assertAmount(t, "69.00", out.Total.Net)
	assertAmount(t, "80.00", out.UndiscountedTotal.Net)
}

func TestRecalculate_EntireOrderVoucherExcludesOrderPromotion(t *testing.T) {
	v := voucher(domain.VoucherTypeEntireOrder, domain.DiscountValueTypePercentage, "10")
	order := withVoucher(unconfirmedOrder(), v)

	out := recalculate(t, pricing.Input{
		Order:      order,
		Voucher:    v,
		Promotions: []domain.Promotion{orderPromotion(domain.DiscountValueTypeFixed, "20.00")},
		Tax:        flatTaxes(),
	})

	require.Len(t, out.Discounts, 1)
	assert.Equal(t, domain.DiscountTypeVoucher, out.Discounts[0].Type)
	assertAmount(t, "7.00", out.Discounts[0].Amount)
	assert.Equal(t, "SAVE", out.Discounts[0].VoucherCode)
	assertAmount(t, "63.00", out.Subtotal.Net)
}

func TestRecalculate_ShippingVoucherExcludesOrderPromotion(t *testing.T) {
	v := voucher(domain.VoucherTypeShipping, domain.DiscountValueTypeFixed, "4.00")
	order := withVoucher(unconfirmedOrder(), v)

	out := recalculate(t, pricing.Input{
		Order:      order,
		Voucher:    v,
		Promotions: []domain.Promotion{orderPromotion(domain.DiscountValueTypeFixed, "20.00")},
		Tax:        flatTaxes(),
	})

	require.Len(t, out.Discounts, 1)
	assert.Equal(t, domain.DiscountTypeVoucher, out.Discounts[0].Type)
	assertAmount(t, "4.00", out.Discounts[0].Amount)
	_, ok := out.DiscountByType(domain.DiscountTypeOrderPromotion)
	assert.False(t, ok)
	assertAmount(t, "70.00", out.Subtotal.Net)
	assertAmount(t, "6.00", out.BaseShippingPrice)
	assertAmount(t, "76.00", out.Total.Net)
}

func TestRecalculate_SpecificProductVoucherExcludesGiftPromotion(t *testing.T) {
	v := voucher(domain.VoucherTypeSpecificProduct, domain.DiscountValueTypeFixed, "2.00")
	v.VariantIDs = []string{"variant-1"}
	order := withVoucher(unconfirmedOrder(), v)
	order.Lines = append(order.Lines, domain.OrderLine{
		ID: "gift-line", OrderID: "order-1", VariantID: "gift-1", Quantity: 1, IsGift: true,
		UndiscountedBaseUnitPrice: usd("0"), BaseUnitPrice: usd("0"),
		Discounts: []domain.OrderLineDiscount{{ID: "gift-discount", Type: domain.DiscountTypeOrderPromotion, UniqueKey: "order_promotion"}},
	})

	out := recalculate(t, pricing.Input{
		Order:      order,
		Voucher:    v,
		Promotions: []domain.Promotion{giftPromotion()},
		Tax:        flatTaxes(),
	})

	require.Len(t, out.Lines, 2)
	for _, l := range out.Lines {
		assert.False(t, l.IsGift, "line %s", l.ID)
	}
	l1 := line(t, out, "line-1")
	require.Len(t, l1.Discounts, 1)
	assert.Equal(t, domain.DiscountTypeVoucher, l1.Discounts[0].Type)
	assert.Empty(t, out.Discounts)
	assertAmount(t, "64.00", out.Subtotal.Net)
}

func TestRecalculate_VoucherMinSpentNotReached(t *testing.T) {
	v := voucher(domain.VoucherTypeEntireOrder, domain.DiscountValueTypeFixed, "5.00")
	minSpent := d("100")
	v.MinSpent = &minSpent

	out := recalculate(t, pricing.Input{Order: withVoucher(unconfirmedOrder(), v), Voucher: v, Tax: flatTaxes()})

	assert.Empty(t, out.Discounts)
	assertAmount(t, "70.00", out.Subtotal.Net)
	assert.Equal(t, "SAVE", out.VoucherCode, "code stays on the order")
}

func TestRecalculate_ShippingVoucherAndManualDiscount(t *testing.T) {
	tests := []struct {
		name             string
		voucherType      domain.DiscountValueType
		voucherValue     string
		manualType       domain.DiscountValueType
		manualValue      string
		wantBaseShipping string
		wantVoucher      string
		wantManual       string
		wantSubtotal     string
		wantShipping     string
		wantTotal        string
	}{
		{
			// base 70 + 6 = 76; 10 * 70 / 76 = 9.2105 -> 9.21.
			name:        "fixed",
			voucherType: domain.DiscountValueTypeFixed, voucherValue: "4.00",
			manualType: domain.DiscountValueTypeFixed, manualValue: "10.00",
			wantBaseShipping: "6.00", wantVoucher: "4.00", wantManual: "10.00",
			wantSubtotal: "60.79", wantShipping: "5.21", wantTotal: "66.00",
		},
		{
			// base 70 + 5 = 75; 10% = 7.50; 7.50 * 70 / 75 = 7.00.
			name:        "percentage",
			voucherType: domain.DiscountValueTypePercentage, voucherValue: "50",
			manualType: domain.DiscountValueTypePercentage, manualValue: "10",
			wantBaseShipping: "5.00", wantVoucher: "5.00", wantManual: "7.50",
			wantSubtotal: "63.00", wantShipping: "4.50", wantTotal: "67.50",
		},
		{
			name:        "manual exceeds total",
			voucherType: domain.DiscountValueTypeFixed, voucherValue: "4.00",
			manualType: domain.DiscountValueTypeFixed, manualValue: "1000",
			wantBaseShipping: "6.00", wantVoucher: "4.00", wantManual: "76.00",
			wantSubtotal: "0", wantShipping: "0", wantTotal: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := voucher(domain.VoucherTypeShipping, tt.voucherType, tt.voucherValue)
			order := withVoucher(unconfirmedOrder(), v)
			order.Discounts = []domain.OrderDiscount{manualOrderDiscount(tt.manualType, tt.manualValue)}

			out := recalculate(t, pricing.Input{Order: order, Voucher: v, Tax: flatTaxes()})

			require.Len(t, out.Discounts, 2)
			vd, ok := out.DiscountByType(domain.DiscountTypeVoucher)
			require.True(t, ok)
			assertAmount(t, tt.wantVoucher, vd.Amount)
			assert.Equal(t, "voucher-1", vd.VoucherID)
			assert.Equal(t, "SAVE", vd.VoucherCode)
			md, ok := out.DiscountByType(domain.DiscountTypeManual)
			require.True(t, ok)
			assertAmount(t, tt.wantManual, md.Amount)

			assertAmount(t, "10.00", out.UndiscountedBaseShippingPrice)
			assertAmount(t, tt.wantBaseShipping, out.BaseShippingPrice)
			assertAmount(t, tt.wantSubtotal, out.Subtotal.Net)
			assertAmount(t, tt.wantShipping, out.ShippingPrice.Net)
			assertAmount(t, tt.wantTotal, out.Total.Net)
			assert.True(t, domain.QuantizePrice(out.ShippingPrice.Net.Amount.Mul(d("1.23")), currency).Equal(out.ShippingPrice.Gross.Amount))
			assertAmount(t, "80.00", out.UndiscountedTotal.Net)
		})
	}
}

func TestRecalculate_PricesEnteredWithTaxAndTaxExemption(t *testing.T) {
	taxes := flatTaxes()
	taxes.PricesEnteredWithTax = true
	taxes.ChargeTaxes = false

	out := recalculate(t, pricing.Input{
		Order:      unconfirmedOrder(),
		Promotions: []domain.Promotion{catalogueFixed("variant-1", "3.00")},
		Tax:        taxes,
	})

	l1 := line(t, out, "line-1")
	assertTaxed(t, "21.00", "21.00", l1.TotalPrice, "line-1 total")
	assertTaxed(t, "7.00", "7.00", l1.UnitPrice, "line-1 unit")
	assertTaxed(t, "30.00", "30.00", l1.UndiscountedTotalPrice, "line-1 undiscounted")
	assert.True(t, l1.TaxRate.IsZero())
	assertTaxed(t, "71.00", "71.00", out.Total, "total")
	assertTaxed(t, "80.00", "80.00", out.UndiscountedTotal, "undiscounted total")
	assertTaxed(t, "61.00", "61.00", out.Subtotal, "subtotal")
}

func TestRecalculate_PricesEnteredWithTax(t *testing.T) {
	taxes := flatTaxes()
	taxes.PricesEnteredWithTax = true

	out := recalculate(t, pricing.Input{Order: unconfirmedOrder(), Tax: taxes})

	l2 := line(t, out, "line-2")
	// 40 / 1.23 = 32.5203; 20 / 1.23 = 16.2601.
	assertTaxed(t, "32.52", "40.00", l2.TotalPrice, "line-2 total")
	assertTaxed(t, "16.26", "20.00", l2.UnitPrice, "line-2 unit")
	assertAmount(t, "80.00", out.Total.Gross)
}

func TestRecalculate_OrderTaxExemption(t *testing.T) {
	order := unconfirmedOrder()
	order.TaxExemption = true

	out := recalculate(t, pricing.Input{Order: order, Tax: flatTaxes()})

	assertTaxed(t, "80.00", "80.00", out.Total, "total")
	assert.True(t, out.ShippingTaxRate.IsZero())
}

func TestRecalculate_TaxClassRates(t *testing.T) {
	reduced := "reduced"
	taxes := flatTaxes()
	taxes.ClassRates = map[string]decimal.Decimal{reduced: d("8")}
	taxes.Classes = map[string]domain.TaxClass{reduced: {ID: reduced, Name: "Reduced"}}
	taxes.ShippingTaxClassID = &reduced

	order := unconfirmedOrder()
	order.Status = domain.OrderStatusDraft
	ls := listings()
	l := ls["variant-2"]
	l.TaxClassID = &reduced
	ls["variant-2"] = l

	out := recalculate(t, pricing.Input{Order: order, Listings: ls, Tax: taxes})

	l2 := line(t, out, "line-2")
	require.NotNil(t, l2.TaxClass.ID)
	assert.Equal(t, "Reduced", l2.TaxClass.Name)
	assert.True(t, d("0.08").Equal(l2.TaxRate))
	assertTaxed(t, "40.00", "43.20", l2.TotalPrice, "line-2 total")
	assertTaxed(t, "30.00", "36.90", line(t, out, "line-1").TotalPrice, "line-1 total")
	assertTaxed(t, "10.00", "10.80", out.ShippingPrice, "shipping")
	assert.Equal(t, "Reduced", out.ShippingTaxClass.Name)
}

func TestRecalculate_RemovedCataloguePromotionKeepsDiscount(t *testing.T) {
	calc := newCalculator()
	in := pricing.Input{
		Order:      unconfirmedOrder(),
		Listings:   listings(),
		Promotions: []domain.Promotion{catalogueFixed("variant-1", "3.00")},
		Tax:        flatTaxes(),
		Now:        now,
	}
	first, err := calc.Recalculate(in)
	require.NoError(t, err)
	firstDiscount := line(t, first, "line-1").Discounts[0]

	in.Order = first
	in.Promotions = nil
	second, err := calc.Recalculate(in)
	require.NoError(t, err)

	l1 := line(t, second, "line-1")
	require.Len(t, l1.Discounts, 1)
	kept := l1.Discounts[0]
	assert.Equal(t, firstDiscount.ID, kept.ID)
	assertAmount(t, "9.00", kept.Amount)
	assert.True(t, d("3").Equal(kept.Value))
	assert.Equal(t, "Promotion: promo-catalogue", kept.Reason)
	assert.Nil(t, kept.PromotionRuleID)
	assertAmount(t, "7.00", l1.BaseUnitPrice)
	assertTaxed(t, "21.00", "25.83", l1.TotalPrice, "line-1 total")

	// Черновик не удерживает скидку закончившейся акции.
	draft := first
	draft.Status = domain.OrderStatusDraft
	in.Order = draft
	third, err := calc.Recalculate(in)
	require.NoError(t, err)
	assert.Empty(t, line(t, third, "line-1").Discounts)
}

func TestRecalculate_IsIdempotent(t *testing.T) {
	calc := newCalculator()
	order := unconfirmedOrder()
	order.Discounts = []domain.OrderDiscount{manualOrderDiscount(domain.DiscountValueTypeFixed, "5.00")}
	in := pricing.Input{
		Order:      order,
		Listings:   listings(),
		Promotions: []domain.Promotion{catalogueFixed("variant-1", "1.50")},
		Tax:        flatTaxes(),
		Now:        now,
	}

	first, err := calc.Recalculate(in)
	require.NoError(t, err)
	in.Order = first
	second, err := calc.Recalculate(in)
	require.NoError(t, err)

	require.Len(t, second.Discounts, len(first.Discounts))
	for i := range first.Discounts {
		assert.Equal(t, first.Discounts[i].ID, second.Discounts[i].ID)
		assert.True(t, first.Discounts[i].Amount.Equal(second.Discounts[i].Amount))
	}
	for i := range first.Lines {
		require.Len(t, second.Lines[i].Discounts, len(first.Lines[i].Discounts))
		for j := range first.Lines[i].Discounts {
			assert.Equal(t, first.Lines[i].Discounts[j].ID, second.Lines[i].Discounts[j].ID)
		}
		assert.True(t, first.Lines[i].TotalPrice.Equal(second.Lines[i].TotalPrice))
	}
	assert.True(t, first.Total.Equal(second.Total))
}

func TestRecalculate_RejectsNonEditableOrder(t *testing.T) {
	order := unconfirmedOrder()
	order.Status = domain.OrderStatusUnfulfilled

	_, err := newCalculator().Recalculate(pricing.Input{Order: order, Tax: flatTaxes(), Now: now})
	require.ErrorIs(t, err, domain.ErrOrderNotEditable)
}

func TestRecalculate_ZeroDecimalCurrency(t *testing.T) {
	order := domain.NewDraftOrder("order-jpy", channelID, "JPY", now)
	order.Status = domain.OrderStatusUnconfirmed
	order.Lines = []domain.OrderLine{
		{ID: "a", VariantID: "variant-1", Quantity: 1, UndiscountedBaseUnitPrice: domain.MustMoney("1000", "JPY")},
		{ID: "b", VariantID: "variant-2", Quantity: 2, UndiscountedBaseUnitPrice: domain.MustMoney("1000", "JPY")},
	}
	promo := orderPromotion(domain.DiscountValueTypeFixed, "100")

	out, err := newCalculator().Recalculate(pricing.Input{
		Order:      order,
		Promotions: []domain.Promotion{promo},
		Tax:        domain.DefaultTaxConfiguration(channelID),
		Now:        now,
	})
	require.NoError(t, err)

	// 100 * 1000 / 3000 = 33.3 -> 33, остаток 67.
	a, _ := out.LineByID("a")
	b, _ := out.LineByID("b")
	assert.True(t, d("967").Equal(a.TotalPrice.Net.Amount))
	assert.True(t, d("1933").Equal(b.TotalPrice.Net.Amount))
	assert.True(t, d("2900").Equal(out.Total.Net.Amount))
}
