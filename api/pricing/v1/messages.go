package pricingv1

import "time"

// Money — сумма в десятичной записи ("12.50") и код валюты.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// TaxedMoney — сумма без налога и с налогом.
type TaxedMoney struct {
	Net   Money `json:"net"`
	Gross Money `json:"gross"`
}

// Discount — скидка заказа или позиции.
type Discount struct {
	ID              string  `json:"id,omitempty"`
	Type            string  `json:"type"`
	ValueType       string  `json:"value_type"`
	Value           string  `json:"value"`
	Amount          Money   `json:"amount"`
	Name            string  `json:"name,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	PromotionRuleID *string `json:"promotion_rule_id,omitempty"`
	VoucherCode     string  `json:"voucher_code,omitempty"`
}

// OrderLine — позиция заказа с рассчитанными ценами.
type OrderLine struct {
	ID                        string     `json:"id"`
	VariantID                 string     `json:"variant_id"`
	ProductID                 string     `json:"product_id,omitempty"`
	ProductName               string     `json:"product_name,omitempty"`
	VariantName               string     `json:"variant_name,omitempty"`
	Quantity                  int        `json:"quantity"`
	IsGift                    bool       `json:"is_gift,omitempty"`
	UndiscountedBaseUnitPrice Money      `json:"undiscounted_base_unit_price"`
	BaseUnitPrice             Money      `json:"base_unit_price"`
	UndiscountedUnitPrice     TaxedMoney `json:"undiscounted_unit_price"`
	UnitPrice                 TaxedMoney `json:"unit_price"`
	TotalPrice                TaxedMoney `json:"total_price"`
	UnitDiscountAmount        Money      `json:"unit_discount_amount"`
	UnitDiscountReason        string     `json:"unit_discount_reason,omitempty"`
	TaxRate                   string     `json:"tax_rate"`
	Discounts                 []Discount `json:"discounts,omitempty"`
}

// Order — заказ с позициями, скидками и итогами.
type Order struct {
	ID                  string      `json:"id"`
	ChannelID           string      `json:"channel_id"`
	Status              string      `json:"status"`
	Currency            string      `json:"currency"`
	VoucherCode         string      `json:"voucher_code,omitempty"`
	TaxExemption        bool        `json:"tax_exemption,omitempty"`
	Lines               []OrderLine `json:"lines"`
	Discounts           []Discount  `json:"discounts,omitempty"`
	BaseShippingPrice   Money       `json:"base_shipping_price"`
	ShippingPrice       TaxedMoney  `json:"shipping_price"`
	UndiscountedTotal   TaxedMoney  `json:"undiscounted_total"`
	Subtotal            TaxedMoney  `json:"subtotal"`
	Total               TaxedMoney  `json:"total"`
	ShouldRefreshPrices bool        `json:"should_refresh_prices"`
	PricesRefreshedAt   *time.Time  `json:"prices_refreshed_at,omitempty"`
	Version             int64       `json:"version"`
}

// TimelineEvent — событие в истории заказа.
type TimelineEvent struct {
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	UnixTime int64  `json:"unix_time"`
}

// OrderResponse — ответ мутаций заказа.
type OrderResponse struct {
	Order *Order `json:"order"`
}

// OrderRequest адресует заказ без дополнительных параметров.
type OrderRequest struct {
	OrderID string `json:"order_id"`
}

type CreateDraftOrderRequest struct {
	ChannelID string `json:"channel_id"`
	Currency  string `json:"currency"`
}

type AddOrderLineRequest struct {
	OrderID   string `json:"order_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateOrderLineRequest меняет количество; 0 удаляет позицию.
type UpdateOrderLineRequest struct {
	OrderID  string `json:"order_id"`
	LineID   string `json:"line_id"`
	Quantity int    `json:"quantity"`
}

type DeleteOrderLineRequest struct {
	OrderID string `json:"order_id"`
	LineID  string `json:"line_id"`
}

type SetShippingRequest struct {
	OrderID string `json:"order_id"`
	Amount  string `json:"amount"`
}

type ApplyVoucherRequest struct {
	OrderID string `json:"order_id"`
	Code    string `json:"code"`
}

// AddManualDiscountRequest добавляет ручную скидку на заказ или, если задан LineID, на позицию.
type AddManualDiscountRequest struct {
	OrderID   string `json:"order_id"`
	LineID    string `json:"line_id,omitempty"`
	ValueType string `json:"value_type"`
	Value     string `json:"value"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type RemoveManualDiscountRequest struct {
	OrderID string `json:"order_id"`
	LineID  string `json:"line_id,omitempty"`
}

type SetTaxExemptionRequest struct {
	OrderID      string `json:"order_id"`
	TaxExemption bool   `json:"tax_exemption"`
}

// FetchOrderPricesRequest возвращает заказ, пересчитывая цены при необходимости.
type FetchOrderPricesRequest struct {
	OrderID string `json:"order_id"`
	Force   bool   `json:"force,omitempty"`
}

type GetOrderResponse struct {
	Order    *Order          `json:"order"`
	Timeline []TimelineEvent `json:"timeline,omitempty"`
}

// VariantListing — цена варианта в канале.
type VariantListing struct {
	VariantID       string  `json:"variant_id"`
	ProductID       string  `json:"product_id,omitempty"`
	ChannelID       string  `json:"channel_id"`
	ProductName     string  `json:"product_name,omitempty"`
	VariantName     string  `json:"variant_name,omitempty"`
	Price           Money   `json:"price"`
	PriorPrice      *Money  `json:"prior_price,omitempty"`
	DiscountedPrice *Money  `json:"discounted_price,omitempty"`
	TaxClassID      *string `json:"tax_class_id,omitempty"`
	PromotionRuleID *string `json:"promotion_rule_id,omitempty"`
}

type UpsertVariantListingRequest struct {
	Listing VariantListing `json:"listing"`
}

type VariantListingResponse struct {
	Listing VariantListing `json:"listing"`
}

// PromotionRule — правило промо-акции.
type PromotionRule struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name,omitempty"`
	ChannelIDs      []string `json:"channel_ids"`
	RewardType      string   `json:"reward_type,omitempty"`
	RewardValueType string   `json:"reward_value_type,omitempty"`
	RewardValue     string   `json:"reward_value,omitempty"`
	VariantIDs      []string `json:"variant_ids,omitempty"`
	MinSubtotal     *string  `json:"min_subtotal,omitempty"`
	GiftVariantIDs  []string `json:"gift_variant_ids,omitempty"`
}

// Promotion — каталожная промо-акция или акция уровня заказа.
type Promotion struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	StartDate *time.Time      `json:"start_date,omitempty"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	Rules     []PromotionRule `json:"rules"`
}

type CreatePromotionRequest struct {
	Promotion Promotion `json:"promotion"`
}

type PromotionResponse struct {
	Promotion Promotion `json:"promotion"`
}

type DeletePromotionRequest struct {
	PromotionID string `json:"promotion_id"`
}

type ListPromotionsRequest struct{}

type ListPromotionsResponse struct {
	Promotions []Promotion `json:"promotions"`
}

// Voucher — скидка, активируемая кодом.
type Voucher struct {
	ID                string     `json:"id,omitempty"`
	Name              string     `json:"name,omitempty"`
	Type              string     `json:"type"`
	Codes             []string   `json:"codes"`
	DiscountValueType string     `json:"discount_value_type"`
	Value             string     `json:"value"`
	ApplyOncePerOrder bool       `json:"apply_once_per_order,omitempty"`
	VariantIDs        []string   `json:"variant_ids,omitempty"`
	MinSpent          *string    `json:"min_spent,omitempty"`
	ChannelIDs        []string   `json:"channel_ids,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
}

type CreateVoucherRequest struct {
	Voucher Voucher `json:"voucher"`
}

type VoucherResponse struct {
	Voucher Voucher `json:"voucher"`
}

// TaxConfiguration — плоские ставки канала в процентах.
type TaxConfiguration struct {
	ChannelID            string            `json:"channel_id"`
	ChargeTaxes          bool              `json:"charge_taxes"`
	PricesEnteredWithTax bool              `json:"prices_entered_with_tax"`
	DefaultRate          string            `json:"default_rate"`
	ClassRates           map[string]string `json:"class_rates,omitempty"`
	ShippingTaxClassID   *string           `json:"shipping_tax_class_id,omitempty"`
}

type SetTaxConfigurationRequest struct {
	Configuration TaxConfiguration `json:"configuration"`
}

type TaxConfigurationResponse struct {
	Configuration TaxConfiguration `json:"configuration"`
}

// Empty — пустой ответ.
type Empty struct{}
