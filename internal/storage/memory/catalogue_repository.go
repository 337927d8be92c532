package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

type catalogueRepositoryInMemory struct {
	mu       sync.RWMutex
	listings map[domain.ListingKey]domain.VariantChannelListing
}

// NewCatalogueRepository создаёт in-memory хранилище листингов.
func NewCatalogueRepository() domain.CatalogueRepository {
	return &catalogueRepositoryInMemory{listings: make(map[domain.ListingKey]domain.VariantChannelListing)}
}

func (r *catalogueRepositoryInMemory) UpsertListing(listing domain.VariantChannelListing) error {
	if err := listing.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.Key()] = listing
	return nil
}

func (r *catalogueRepositoryInMemory) GetListing(variantID, channelID string) (domain.VariantChannelListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.listings[domain.ListingKey{VariantID: variantID, ChannelID: channelID}]
	if !ok {
		return domain.VariantChannelListing{}, domain.ErrVariantListingNotFound
	}
	return listing, nil
}

func (r *catalogueRepositoryInMemory) ListListings(channelID string, variantIDs []string) ([]domain.VariantChannelListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.VariantChannelListing, 0, len(variantIDs))
	seen := make(map[string]struct{}, len(variantIDs))
	for _, id := range variantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if listing, ok := r.listings[domain.ListingKey{VariantID: id, ChannelID: channelID}]; ok {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (r *catalogueRepositoryInMemory) ListByVariants(variantIDs []string) ([]domain.VariantChannelListing, error) {
	wanted := make(map[string]struct{}, len(variantIDs))
	for _, id := range variantIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.VariantChannelListing, 0)
	for key, listing := range r.listings {
		if _, ok := wanted[key.VariantID]; ok {
			out = append(out, listing)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VariantID != out[j].VariantID {
			return out[i].VariantID < out[j].VariantID
		}
		return out[i].ChannelID < out[j].ChannelID
	})
	return out, nil
}

var _ domain.CatalogueRepository = (*catalogueRepositoryInMemory)(nil)

type promotionRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Promotion
}

// NewPromotionRepository создаёт in-memory хранилище промо-акций.
func NewPromotionRepository() domain.PromotionRepository {
	return &promotionRepositoryInMemory{items: make(map[string]domain.Promotion)}
}

func (r *promotionRepositoryInMemory) Create(promotion domain.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[promotion.ID]; exists {
		return domain.ErrPromotionInvalid
	}
	r.items[promotion.ID] = clonePromotion(promotion)
	return nil
}

func (r *promotionRepositoryInMemory) Get(id string) (domain.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return domain.Promotion{}, domain.ErrPromotionNotFound
	}
	return clonePromotion(p), nil
}

func (r *promotionRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrPromotionNotFound
	}
	delete(r.items, id)
	return nil
}

// List возвращает промо-акции в порядке создания, чтобы выбор при равной скидке был стабильным.
func (r *promotionRepositoryInMemory) List() ([]domain.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Promotion, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, clonePromotion(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func clonePromotion(p domain.Promotion) domain.Promotion {
	out := p
	out.Rules = make([]domain.PromotionRule, len(p.Rules))
	for i, rule := range p.Rules {
		rule.ChannelIDs = append([]string(nil), rule.ChannelIDs...)
		rule.VariantIDs = append([]string(nil), rule.VariantIDs...)
		rule.GiftVariantIDs = append([]string(nil), rule.GiftVariantIDs...)
		out.Rules[i] = rule
	}
	return out
}

var _ domain.PromotionRepository = (*promotionRepositoryInMemory)(nil)

type voucherRepositoryInMemory struct {
	mu     sync.RWMutex
	items  map[string]domain.Voucher
	byCode map[string]string
}

// NewVoucherRepository создаёт in-memory хранилище ваучеров.
func NewVoucherRepository() domain.VoucherRepository {
	return &voucherRepositoryInMemory{
		items:  make(map[string]domain.Voucher),
		byCode: make(map[string]string),
	}
}

func (r *voucherRepositoryInMemory) Create(voucher domain.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[voucher.ID]; exists {
		return domain.ErrVoucherInvalid
	}
	for _, code := range voucher.Codes {
		if _, taken := r.byCode[strings.ToUpper(code)]; taken {
			return domain.ErrVoucherInvalid
		}
	}
	r.items[voucher.ID] = voucher
	for _, code := range voucher.Codes {
		r.byCode[strings.ToUpper(code)] = voucher.ID
	}
	return nil
}

func (r *voucherRepositoryInMemory) Get(id string) (domain.Voucher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		return domain.Voucher{}, domain.ErrVoucherNotFound
	}
	return v, nil
}

func (r *voucherRepositoryInMemory) GetByCode(code string) (domain.Voucher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return domain.Voucher{}, domain.ErrVoucherNotFound
	}
	return r.items[id], nil
}

var _ domain.VoucherRepository = (*voucherRepositoryInMemory)(nil)

type taxRepositoryInMemory struct {
	mu      sync.RWMutex
	configs map[string]domain.TaxConfiguration
}

// NewTaxRepository создаёт in-memory хранилище налоговых конфигураций.
func NewTaxRepository() domain.TaxRepository {
	return &taxRepositoryInMemory{configs: make(map[string]domain.TaxConfiguration)}
}

func (r *taxRepositoryInMemory) SetConfiguration(cfg domain.TaxConfiguration) error {
	if cfg.ChannelID == "" {
		return domain.ErrChannelRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.ChannelID] = cfg
	return nil
}

func (r *taxRepositoryInMemory) GetConfiguration(channelID string) (domain.TaxConfiguration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[channelID]
	if !ok {
		return domain.TaxConfiguration{}, domain.ErrTaxConfigurationNotFound
	}
	return cfg, nil
}

var _ domain.TaxRepository = (*taxRepositoryInMemory)(nil)
