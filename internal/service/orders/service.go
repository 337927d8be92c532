// Package orders управляет редактируемыми заказами и пересчётом их цен.
package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/lock"
	"github.com/vladislavdragonenkov/order-pricing/internal/metrics"
	"github.com/vladislavdragonenkov/order-pricing/internal/pricing"
)

const (
	defaultLockTTL         = 10 * time.Second
	defaultLockWait        = 5 * time.Second
	defaultMaxSaveAttempts = 3
	defaultRetryBaseDelay  = 10 * time.Millisecond
)

// Repositories перечисляет хранилища, с которыми работает сервис.
type Repositories struct {
	Orders     domain.OrderRepository
	Catalogue  domain.CatalogueRepository
	Promotions domain.PromotionRepository
	Vouchers   domain.VoucherRepository
	Taxes      domain.TaxRepository
	Outbox     domain.OutboxRepository
	Timeline   domain.TimelineRepository
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

// WithMetrics включает запись prometheus-метрик.
func WithMetrics(m *metrics.PricingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocker подменяет блокировку пересчёта (по умолчанию in-memory).
func WithLocker(locker domain.Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithCalculator подменяет калькулятор цен.
func WithCalculator(calculator *pricing.Calculator) Option {
	return func(s *Service) {
		if calculator != nil {
			s.calculator = calculator
		}
	}
}

// WithPricesTTL задаёт срок, после которого цены пересчитываются даже без изменений.
// Нулевое значение отключает пересчёт по времени.
func WithPricesTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.pricesTTL = ttl
		}
	}
}

// WithLockTimeouts задаёт время жизни блокировки и максимальное ожидание её получения.
func WithLockTimeouts(ttl, wait time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
		if wait > 0 {
			s.lockWait = wait
		}
	}
}

// WithMaxSaveAttempts задаёт число попыток сохранения при конфликте версий.
func WithMaxSaveAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxSaveAttempts = attempts
		}
	}
}

// WithClock подменяет источник времени (используется в тестах).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов заказов, позиций и ручных скидок.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Service реализует операции над заказами и FetchOrderPricesIfExpired.
type Service struct {
	orders     domain.OrderRepository
	catalogue  domain.CatalogueRepository
	promotions domain.PromotionRepository
	vouchers   domain.VoucherRepository
	taxes      domain.TaxRepository
	outbox     domain.OutboxRepository
	timeline   domain.TimelineRepository

	locker     domain.Locker
	calculator *pricing.Calculator
	logger     *log.Entry
	metrics    *metrics.PricingMetrics

	now             func() time.Time
	newID           func() string
	pricesTTL       time.Duration
	lockTTL         time.Duration
	lockWait        time.Duration
	maxSaveAttempts int
	retryBaseDelay  time.Duration
}

// NewService создаёт сервис заказов.
func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{
		orders:          repos.Orders,
		catalogue:       repos.Catalogue,
		promotions:      repos.Promotions,
		vouchers:        repos.Vouchers,
		taxes:           repos.Taxes,
		outbox:          repos.Outbox,
		timeline:        repos.Timeline,
		locker:          lock.NewMemoryLocker(),
		calculator:      pricing.NewCalculator(),
		logger:          log.New().WithField("component", "orders"),
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
		lockTTL:         defaultLockTTL,
		lockWait:        defaultLockWait,
		maxSaveAttempts: defaultMaxSaveAttempts,
		retryBaseDelay:  defaultRetryBaseDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrder возвращает заказ без пересчёта.
func (s *Service) GetOrder(orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}
	return s.orders.Get(orderID)
}

// Timeline возвращает события заказа в порядке возникновения.
func (s *Service) Timeline(orderID string) ([]domain.TimelineEvent, error) {
	if orderID == "" {
		return nil, domain.ErrOrderIDRequired
	}
	if _, err := s.orders.Get(orderID); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return nil, nil
	}
	return s.timeline.List(orderID)
}

func (s *Service) appendTimeline(orderID, eventType, reason string) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: s.now(),
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("append timeline event failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

func (s *Service) emitEvent(orderID, eventType string, payload any) {
	if s.outbox == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Error("enqueue event failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}
