package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты вызова FetchOrderPricesIfExpired.
const (
	ResultRecalculated = "recalculated"
	ResultFresh        = "fresh"
	ResultNotEditable  = "not_editable"
	ResultFailed       = "failed"
)

// PricingMetrics содержит метрики пересчёта цен и обработки каталога.
type PricingMetrics struct {
	recalculations        *prometheus.CounterVec
	recalculationDuration prometheus.Histogram
	discountsApplied      *prometheus.CounterVec
	versionConflicts      prometheus.Counter
	lockFailures          prometheus.Counter

	// Заказы, помеченные к пересчёту после изменения каталога.
	ordersExpired   prometheus.Counter
	catalogueEvents *prometheus.CounterVec

	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter

	activeRecalculations prometheus.Gauge
}

// NewPricingMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewPricingMetrics() *PricingMetrics {
	return NewPricingMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPricingMetricsWithRegisterer регистрирует метрики в переданном registry.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewPricingMetricsWithRegisterer(registerer prometheus.Registerer) *PricingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PricingMetrics{
		recalculations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pricing_recalculations_total",
			Help: "Total number of order price fetches grouped by result",
		}, []string{"result"}),
		recalculationDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pricing_recalculation_duration_seconds",
			Help:    "Duration of order price recalculation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		discountsApplied: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pricing_discounts_applied_total",
			Help: "Total number of discount rows produced by recalculation grouped by type",
		}, []string{"type"}),
		versionConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricing_version_conflicts_total",
			Help: "Total number of optimistic locking conflicts while saving recalculated orders",
		}),
		lockFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricing_lock_failures_total",
			Help: "Total number of recalculation lock acquisitions that failed",
		}),
		ordersExpired: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricing_orders_expired_total",
			Help: "Total number of orders marked for recalculation after catalogue changes",
		}),
		catalogueEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pricing_catalogue_events_total",
			Help: "Total number of consumed catalogue events grouped by result",
		}, []string{"result"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricing_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricing_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		activeRecalculations: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pricing_active_recalculations",
			Help: "Number of recalculations currently holding an order lock",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordRecalculation увеличивает счётчик вызовов с указанным результатом.
func (m *PricingMetrics) RecordRecalculation(result string) {
	m.recalculations.WithLabelValues(result).Inc()
}

// RecordRecalculationDuration записывает время пересчёта, включая ожидание блокировки.
func (m *PricingMetrics) RecordRecalculationDuration(duration time.Duration) {
	m.recalculationDuration.Observe(duration.Seconds())
}

// RecordDiscount увеличивает счётчик скидок указанного типа.
func (m *PricingMetrics) RecordDiscount(discountType string) {
	m.discountsApplied.WithLabelValues(discountType).Inc()
}

func (m *PricingMetrics) RecordVersionConflict() {
	m.versionConflicts.Inc()
}

func (m *PricingMetrics) RecordLockFailure() {
	m.lockFailures.Inc()
}

// RecordOrdersExpired добавляет число заказов, помеченных к пересчёту.
func (m *PricingMetrics) RecordOrdersExpired(count int) {
	if count <= 0 {
		return
	}
	m.ordersExpired.Add(float64(count))
}

// RecordCatalogueEvent увеличивает счётчик обработанных событий каталога.
func (m *PricingMetrics) RecordCatalogueEvent(result string) {
	m.catalogueEvents.WithLabelValues(result).Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *PricingMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *PricingMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// RecalculationStarted увеличивает количество активных пересчётов.
func (m *PricingMetrics) RecalculationStarted() {
	m.activeRecalculations.Inc()
}

// RecalculationFinished уменьшает количество активных пересчётов.
func (m *PricingMetrics) RecalculationFinished() {
	m.activeRecalculations.Dec()
}
