// Package catalogue ведёт листинги вариантов, промо-акции, ваучеры и налоги каналов.
//
// Любое изменение, влияющее на цены, помечает затронутые редактируемые заказы
// к пересчёту; сами заказы пересчитываются лениво при следующем чтении.
package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/order-pricing/internal/metrics"
	"github.com/vladislavdragonenkov/order-pricing/internal/pricing"
)

// Repositories перечисляет хранилища каталога и заказов.
type Repositories struct {
	Orders     domain.OrderRepository
	Catalogue  domain.CatalogueRepository
	Promotions domain.PromotionRepository
	Vouchers   domain.VoucherRepository
	Taxes      domain.TaxRepository
	Outbox     domain.OutboxRepository
}

// Service управляет каталожными данными для расчёта цен.
type Service struct {
	orders     domain.OrderRepository
	catalogue  domain.CatalogueRepository
	promotions domain.PromotionRepository
	vouchers   domain.VoucherRepository
	taxes      domain.TaxRepository
	outbox     domain.OutboxRepository

	logger  *log.Entry
	metrics *metrics.PricingMetrics
	now     func() time.Time
	newID   func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics включает запись метрик.
func WithMetrics(m *metrics.PricingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService создаёт сервис каталога.
func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{
		orders:     repos.Orders,
		catalogue:  repos.Catalogue,
		promotions: repos.Promotions,
		vouchers:   repos.Vouchers,
		taxes:      repos.Taxes,
		outbox:     repos.Outbox,
		logger:     log.New().WithField("component", "catalogue"),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertVariantListing сохраняет цену варианта в канале и помечает заказы с этим вариантом.
// DiscountedPrice и PromotionRuleID вычисляются по активным каталожным промо-акциям.
func (s *Service) UpsertVariantListing(_ context.Context, listing domain.VariantChannelListing) (domain.VariantChannelListing, error) {
	listing.VariantID = strings.TrimSpace(listing.VariantID)
	if listing.VariantID == "" {
		return domain.VariantChannelListing{}, domain.ErrVariantIDRequired
	}
	listing.Currency = strings.ToUpper(strings.TrimSpace(listing.Currency))
	listing.Price.Currency = strings.ToUpper(listing.Price.Currency)
	if listing.PriorPrice != nil {
		prior := *listing.PriorPrice
		prior.Currency = listing.Currency
		listing.PriorPrice = &prior
	}
	if err := listing.Validate(); err != nil {
		return domain.VariantChannelListing{}, err
	}
	listing.Price = listing.Price.Quantize()

	promotions, err := s.promotions.List()
	if err != nil {
		return domain.VariantChannelListing{}, fmt.Errorf("load promotions: %w", err)
	}
	listing.DiscountedPrice, listing.PromotionRuleID = pricing.DiscountedPrice(listing, promotions, s.now())
	listing.UpdatedAt = s.now()

	if err := s.catalogue.UpsertListing(listing); err != nil {
		return domain.VariantChannelListing{}, err
	}
	if _, err := s.expireOrders([]string{listing.VariantID}); err != nil {
		return domain.VariantChannelListing{}, err
	}

	s.logger.WithFields(log.Fields{
		"variant_id": listing.VariantID,
		"channel_id": listing.ChannelID,
		"price":      listing.Price.String(),
	}).Debug("variant listing updated")
	return listing, nil
}

// GetVariantListing возвращает листинг варианта в канале.
func (s *Service) GetVariantListing(variantID, channelID string) (domain.VariantChannelListing, error) {
	return s.catalogue.GetListing(variantID, channelID)
}

// SetTaxConfiguration задаёт ставки канала. Новые ставки применяются при следующем пересчёте заказа.
func (s *Service) SetTaxConfiguration(_ context.Context, cfg domain.TaxConfiguration) (domain.TaxConfiguration, error) {
	cfg.ChannelID = strings.TrimSpace(cfg.ChannelID)
	if cfg.ChannelID == "" {
		return domain.TaxConfiguration{}, domain.ErrChannelRequired
	}
	if cfg.DefaultRate.IsNegative() {
		return domain.TaxConfiguration{}, fmt.Errorf("%w: default rate is negative", domain.ErrDiscountValueInvalid)
	}
	for classID, rate := range cfg.ClassRates {
		if rate.IsNegative() {
			return domain.TaxConfiguration{}, fmt.Errorf("%w: rate of tax class %s is negative", domain.ErrDiscountValueInvalid, classID)
		}
	}
	if err := s.taxes.SetConfiguration(cfg); err != nil {
		return domain.TaxConfiguration{}, err
	}
	return cfg, nil
}

// CreatePromotion сохраняет промо-акцию и пересчитывает цены затронутых листингов.
func (s *Service) CreatePromotion(ctx context.Context, promotion domain.Promotion) (domain.Promotion, error) {
	if promotion.ID == "" {
		promotion.ID = s.newID()
	}
	now := s.now()
	promotion.CreatedAt = now
	promotion.UpdatedAt = now
	for i := range promotion.Rules {
		if promotion.Rules[i].ID == "" {
			promotion.Rules[i].ID = s.newID()
		}
		promotion.Rules[i].PromotionID = promotion.ID
	}
	if err := promotion.Validate(); err != nil {
		return domain.Promotion{}, err
	}
	if err := s.promotions.Create(promotion); err != nil {
		return domain.Promotion{}, err
	}

	if variants := ruleVariants(promotion); len(variants) > 0 {
		if _, err := s.RecalculateDiscountedPrices(ctx, variants); err != nil {
			return domain.Promotion{}, err
		}
	}

	s.logger.WithFields(log.Fields{
		"promotion_id": promotion.ID,
		"type":         promotion.Type,
		"rules":        len(promotion.Rules),
	}).Info("promotion created")
	return promotion, nil
}

// DeletePromotion удаляет промо-акцию. Скидки, уже выданные заказам, сохраняются
// без ссылки на правило; заказы со скидками её правил, листинги и заказы с её
// вариантами помечаются к пересчёту.
func (s *Service) DeletePromotion(ctx context.Context, promotionID string) error {
	promotion, err := s.promotions.Get(promotionID)
	if err != nil {
		return err
	}

	ruleIDs := make([]string, 0, len(promotion.Rules))
	for _, rule := range promotion.Rules {
		ruleIDs = append(ruleIDs, rule.ID)
	}
	// ссылки на правила обнуляются при удалении, поэтому заказы помечаются раньше.
	expired, err := s.orders.MarkPricesExpiredByRules(ruleIDs)
	if err != nil {
		return fmt.Errorf("expire orders by promotion rules: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordOrdersExpired(expired)
	}
	if err := s.promotions.Delete(promotionID); err != nil {
		return err
	}
	if err := s.orders.DetachPromotionRules(ruleIDs); err != nil {
		return fmt.Errorf("detach promotion rules: %w", err)
	}

	variants := ruleVariants(promotion)
	if len(variants) > 0 {
		if _, err := s.RecalculateDiscountedPrices(ctx, variants); err != nil {
			return err
		}
	}

	s.emitEvent(domain.AggregatePromotion, promotion.ID, domain.EventPromotionDeleted,
		kafka.NewCatalogueEvent(kafka.EventTypePromotionDeleted, promotion.ID, ruleIDs, variants))
	s.logger.WithFields(log.Fields{
		"promotion_id":   promotion.ID,
		"expired_orders": expired,
	}).Info("promotion deleted")
	return nil
}

// ListPromotions возвращает все промо-акции.
func (s *Service) ListPromotions() ([]domain.Promotion, error) {
	return s.promotions.List()
}

// CreateVoucher сохраняет ваучер; коды уникальны без учёта регистра.
func (s *Service) CreateVoucher(_ context.Context, voucher domain.Voucher) (domain.Voucher, error) {
	if voucher.ID == "" {
		voucher.ID = s.newID()
	}
	codes := make([]string, 0, len(voucher.Codes))
	for _, code := range voucher.Codes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	voucher.Codes = codes
	if err := voucher.Validate(); err != nil {
		return domain.Voucher{}, err
	}
	if err := s.vouchers.Create(voucher); err != nil {
		return domain.Voucher{}, err
	}
	return voucher, nil
}

// RecalculateDiscountedPrices обновляет DiscountedPrice листингов вариантов во всех каналах
// и помечает к пересчёту редактируемые заказы с этими вариантами.
// Возвращает число помеченных заказов.
func (s *Service) RecalculateDiscountedPrices(_ context.Context, variantIDs []string) (int, error) {
	if len(variantIDs) == 0 {
		return 0, nil
	}
	listings, err := s.catalogue.ListByVariants(variantIDs)
	if err != nil {
		return 0, fmt.Errorf("load listings: %w", err)
	}
	promotions, err := s.promotions.List()
	if err != nil {
		return 0, fmt.Errorf("load promotions: %w", err)
	}

	now := s.now()
	changed := make([]string, 0, len(listings))
	for _, listing := range listings {
		price, ruleID := pricing.DiscountedPrice(listing, promotions, now)
		if price.Equal(listing.DiscountedPrice) && sameRule(ruleID, listing.PromotionRuleID) {
			continue
		}
		listing.DiscountedPrice = price
		listing.PromotionRuleID = ruleID
		listing.UpdatedAt = now
		if err := s.catalogue.UpsertListing(listing); err != nil {
			return 0, fmt.Errorf("update listing %s/%s: %w", listing.VariantID, listing.ChannelID, err)
		}
		changed = append(changed, listing.VariantID)
	}

	marked, err := s.expireOrders(variantIDs)
	if err != nil {
		return 0, err
	}
	if len(changed) > 0 {
		s.emitEvent(domain.AggregateVariant, changed[0], domain.EventListingsRepriced,
			kafka.NewCatalogueEvent(kafka.EventTypeListingsRepriced, "", nil, changed))
	}
	return marked, nil
}

func (s *Service) expireOrders(variantIDs []string) (int, error) {
	marked, err := s.orders.MarkPricesExpired(variantIDs)
	if err != nil {
		return 0, fmt.Errorf("mark orders expired: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordOrdersExpired(marked)
	}
	if marked > 0 {
		s.logger.WithFields(log.Fields{
			"variants": len(variantIDs),
			"orders":   marked,
		}).Debug("orders marked for price recalculation")
	}
	return marked, nil
}

func (s *Service) emitEvent(aggregateType, aggregateID, eventType string, payload any) {
	if s.outbox == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithField("event", eventType).Error("marshal event failed")
		return
	}
	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
	}); err != nil {
		s.logger.WithError(err).WithField("event", eventType).Error("enqueue event failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

// ruleVariants возвращает варианты каталожных правил промо-акции без повторов.
func ruleVariants(promotion domain.Promotion) []string {
	if promotion.Type != domain.PromotionTypeCatalogue {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, rule := range promotion.Rules {
		for _, id := range rule.VariantIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func sameRule(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
