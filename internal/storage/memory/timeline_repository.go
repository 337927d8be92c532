package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// timelineRepositoryInMemory хранит события заказов в памяти.
type timelineRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.TimelineEvent
}

// NewTimelineRepository создаёт in-memory реализацию TimelineRepository.
func NewTimelineRepository() domain.TimelineRepository {
	return &timelineRepositoryInMemory{events: make(map[string][]domain.TimelineEvent)}
}

// Append вставляет событие, сохраняя хронологический порядок; события с одинаковым временем идут в порядке добавления.
func (r *timelineRepositoryInMemory) Append(event domain.TimelineEvent) error {
	if event.OrderID == "" {
		return domain.ErrOrderIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.events[event.OrderID]
	pos := sort.Search(len(events), func(i int) bool {
		return events[i].Occurred.After(event.Occurred)
	})
	events = append(events, domain.TimelineEvent{})
	copy(events[pos+1:], events[pos:])
	events[pos] = event
	r.events[event.OrderID] = events
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *timelineRepositoryInMemory) List(orderID string) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[orderID]
	result := make([]domain.TimelineEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.TimelineRepository = (*timelineRepositoryInMemory)(nil)
