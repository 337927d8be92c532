package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderAlreadyExists
	}
	// Храним глубокую копию, чтобы вызывающий код не менял состояние хранилища.
	r.items[order.ID] = normalizeDiscountKeys(order.Clone())
	return nil
}

// Get возвращает копию заказа или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	stored := normalizeDiscountKeys(order.Clone())
	stored.Version++
	r.items[order.ID] = stored
	return nil
}

// MarkPricesExpired выставляет ShouldRefreshPrices редактируемым заказам с указанными вариантами.
func (r *orderRepositoryInMemory) MarkPricesExpired(variantIDs []string) (int, error) {
	if len(variantIDs) == 0 {
		return 0, nil
	}
	wanted := make(map[string]struct{}, len(variantIDs))
	for _, id := range variantIDs {
		wanted[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	marked := 0
	for id, order := range r.items {
		if !order.Status.Editable() || order.ShouldRefreshPrices {
			continue
		}
		for _, line := range order.Lines {
			if _, ok := wanted[line.VariantID]; !ok {
				continue
			}
			order.ShouldRefreshPrices = true
			order.Version++
			order.UpdatedAt = time.Now().UTC()
			r.items[id] = order
			marked++
			break
		}
	}
	return marked, nil
}

// MarkPricesExpiredByRules выставляет ShouldRefreshPrices редактируемым заказам,
// у которых скидка заказа или позиции выдана одним из правил.
func (r *orderRepositoryInMemory) MarkPricesExpiredByRules(ruleIDs []string) (int, error) {
	if len(ruleIDs) == 0 {
		return 0, nil
	}
	rules := make(map[string]struct{}, len(ruleIDs))
	for _, id := range ruleIDs {
		rules[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	marked := 0
	for id, order := range r.items {
		if !order.Status.Editable() || order.ShouldRefreshPrices || !referencesRules(order, rules) {
			continue
		}
		order.ShouldRefreshPrices = true
		order.Version++
		order.UpdatedAt = time.Now().UTC()
		r.items[id] = order
		marked++
	}
	return marked, nil
}

func referencesRules(order domain.Order, rules map[string]struct{}) bool {
	matches := func(ruleID *string) bool {
		if ruleID == nil {
			return false
		}
		_, ok := rules[*ruleID]
		return ok
	}
	for _, d := range order.Discounts {
		if matches(d.PromotionRuleID) {
			return true
		}
	}
	for _, line := range order.Lines {
		for _, d := range line.Discounts {
			if matches(d.PromotionRuleID) {
				return true
			}
		}
	}
	return false
}

// DetachPromotionRules обнуляет ссылки скидок на удалённые правила, сами скидки остаются.
func (r *orderRepositoryInMemory) DetachPromotionRules(ruleIDs []string) error {
	if len(ruleIDs) == 0 {
		return nil
	}
	removed := make(map[string]struct{}, len(ruleIDs))
	for _, id := range ruleIDs {
		removed[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, order := range r.items {
		for i := range order.Discounts {
			if d := order.Discounts[i].PromotionRuleID; d != nil {
				if _, ok := removed[*d]; ok {
					order.Discounts[i].PromotionRuleID = nil
				}
			}
		}
		for li := range order.Lines {
			for di := range order.Lines[li].Discounts {
				if d := order.Lines[li].Discounts[di].PromotionRuleID; d != nil {
					if _, ok := removed[*d]; ok {
						order.Lines[li].Discounts[di].PromotionRuleID = nil
					}
				}
			}
		}
		r.items[id] = order
	}
	return nil
}

// normalizeDiscountKeys повторяет ограничение уникальности (владелец, unique_key):
// из дублей остаётся последняя запись.
func normalizeDiscountKeys(order domain.Order) domain.Order {
	order.Discounts = dedupeOrderDiscounts(order.Discounts)
	for i := range order.Lines {
		order.Lines[i].Discounts = dedupeLineDiscounts(order.Lines[i].Discounts)
	}
	return order
}

func dedupeOrderDiscounts(in []domain.OrderDiscount) []domain.OrderDiscount {
	if len(in) < 2 {
		return in
	}
	index := make(map[string]int, len(in))
	out := make([]domain.OrderDiscount, 0, len(in))
	for _, d := range in {
		key := d.UniqueKey
		if key == "" {
			key = domain.DiscountUniqueKey(d.Type)
		}
		if pos, ok := index[key]; ok {
			out[pos] = d
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}
	return out
}

func dedupeLineDiscounts(in []domain.OrderLineDiscount) []domain.OrderLineDiscount {
	if len(in) < 2 {
		return in
	}
	index := make(map[string]int, len(in))
	out := make([]domain.OrderLineDiscount, 0, len(in))
	for _, d := range in {
		key := d.UniqueKey
		if key == "" {
			key = domain.DiscountUniqueKey(d.Type)
		}
		if pos, ok := index[key]; ok {
			out[pos] = d
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}
	return out
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
