package domain

import "time"

// Типы событий таймлайна заказа.
const (
	TimelineDraftCreated       = "draft_created"
	TimelineLineAdded          = "line_added"
	TimelineLineUpdated        = "line_updated"
	TimelineLineRemoved        = "line_removed"
	TimelineShippingUpdated    = "shipping_updated"
	TimelineVoucherApplied     = "voucher_applied"
	TimelineVoucherRemoved     = "voucher_removed"
	TimelineDiscountAdded      = "discount_added"
	TimelineDiscountRemoved    = "discount_removed"
	TimelineTaxExemption       = "tax_exemption_changed"
	TimelinePricesRecalculated = "prices_recalculated"
	TimelineStatusChanged      = "status_changed"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
