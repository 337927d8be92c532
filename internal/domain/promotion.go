package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PromotionType разделяет каталожные промо-акции и акции уровня заказа.
type PromotionType string

const (
	PromotionTypeCatalogue PromotionType = "catalogue"
	PromotionTypeOrder     PromotionType = "order"
)

// RewardType описывает вознаграждение правила order-промо.
type RewardType string

const (
	// RewardTypeSubtotalDiscount — скидка на subtotal заказа.
	RewardTypeSubtotalDiscount RewardType = "subtotal_discount"
	// RewardTypeGift — бесплатный товар, добавляемый в заказ.
	RewardTypeGift RewardType = "gift"
)

// Promotion — промо-акция с набором правил.
type Promotion struct {
	ID        string
	Name      string
	Type      PromotionType
	StartDate *time.Time
	EndDate   *time.Time
	Rules     []PromotionRule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PromotionRule — одно правило промо-акции.
type PromotionRule struct {
	ID              string
	PromotionID     string
	Name            string
	ChannelIDs      []string
	RewardValueType DiscountValueType
	RewardValue     decimal.Decimal
	RewardType      RewardType
	// VariantIDs — предикат каталожного правила.
	VariantIDs []string
	// MinSubtotal — предикат order-правила (net subtotal после каталожных скидок).
	MinSubtotal    *decimal.Decimal
	GiftVariantIDs []string
}

// ActiveAt проверяет, действует ли промо-акция в момент t.
func (p *Promotion) ActiveAt(t time.Time) bool {
	if p.StartDate != nil && t.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && !t.Before(*p.EndDate) {
		return false
	}
	return true
}

// Validate проверяет конфигурацию промо-акции и её правил.
func (p *Promotion) Validate() error {
	if p.Type != PromotionTypeCatalogue && p.Type != PromotionTypeOrder {
		return fmt.Errorf("%w: unknown type %q", ErrPromotionInvalid, p.Type)
	}
	if p.StartDate != nil && p.EndDate != nil && !p.EndDate.After(*p.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrPromotionInvalid)
	}
	for _, rule := range p.Rules {
		if len(rule.ChannelIDs) == 0 {
			return fmt.Errorf("%w: rule %s has no channels", ErrPromotionInvalid, rule.ID)
		}
		switch p.Type {
		case PromotionTypeCatalogue:
			if len(rule.VariantIDs) == 0 {
				return fmt.Errorf("%w: catalogue rule %s has no variants", ErrPromotionInvalid, rule.ID)
			}
			if err := ValidateDiscountValue(rule.RewardValueType, rule.RewardValue); err != nil {
				return fmt.Errorf("%w: rule %s: %w", ErrPromotionInvalid, rule.ID, err)
			}
		case PromotionTypeOrder:
			switch rule.RewardType {
			case RewardTypeGift:
				if len(rule.GiftVariantIDs) == 0 {
					return fmt.Errorf("%w: gift rule %s has no gifts", ErrPromotionInvalid, rule.ID)
				}
			case RewardTypeSubtotalDiscount:
				if err := ValidateDiscountValue(rule.RewardValueType, rule.RewardValue); err != nil {
					return fmt.Errorf("%w: rule %s: %w", ErrPromotionInvalid, rule.ID, err)
				}
			default:
				return fmt.Errorf("%w: rule %s has unknown reward type %q", ErrPromotionInvalid, rule.ID, rule.RewardType)
			}
		}
	}
	return nil
}

// HasChannel проверяет, действует ли правило в канале.
func (r *PromotionRule) HasChannel(channelID string) bool {
	return containsString(r.ChannelIDs, channelID)
}

// HasVariant проверяет предикат каталожного правила.
func (r *PromotionRule) HasVariant(variantID string) bool {
	return containsString(r.VariantIDs, variantID)
}

// RuleByID ищет правило промо-акции.
func (p *Promotion) RuleByID(id string) (PromotionRule, bool) {
	for _, r := range p.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return PromotionRule{}, false
}

func containsString(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
