package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics содержит метрики фоновых воркеров: публикации outbox и очистки idempotency-ключей.
type WorkerMetrics struct {
	outboxPublishAttempts  *prometheus.CounterVec
	outboxPendingRecords   prometheus.Gauge
	outboxOldestPendingAge prometheus.Gauge

	cleanupRuns        *prometheus.CounterVec
	cleanupDeleted     prometheus.Counter
	cleanupLastDeleted prometheus.Gauge
}

// NewWorkerMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWithRegisterer регистрирует метрики в переданном registry.
func NewWorkerMetricsWithRegisterer(registerer prometheus.Registerer) *WorkerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &WorkerMetrics{
		outboxPublishAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pricing_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"}),
		outboxPendingRecords: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pricing_outbox_pending_records",
			Help: "Current number of pending records in transactional outbox",
		}),
		outboxOldestPendingAge: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pricing_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record",
		}),
		cleanupRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pricing_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result",
		}, []string{"result"}),
		cleanupDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pricing_idempotency_cleanup_deleted_total",
			Help: "Total number of deleted expired idempotency records",
		}),
		cleanupLastDeleted: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "pricing_idempotency_cleanup_last_deleted",
			Help: "Number of deleted records during the last cleanup run",
		}),
	}
}

// RecordOutboxPublish увеличивает счётчик попыток публикации (sent, retry_error, failed, dlq_failed).
func (m *WorkerMetrics) RecordOutboxPublish(result string) {
	m.outboxPublishAttempts.WithLabelValues(result).Inc()
}

// SetOutboxBacklog обновляет размер и возраст backlog outbox.
func (m *WorkerMetrics) SetOutboxBacklog(pending int, oldestAge time.Duration) {
	m.outboxPendingRecords.Set(float64(pending))
	if oldestAge < 0 {
		oldestAge = 0
	}
	m.outboxOldestPendingAge.Set(oldestAge.Seconds())
}

// RecordCleanupRun фиксирует результат цикла очистки.
func (m *WorkerMetrics) RecordCleanupRun(result string, deleted int) {
	m.cleanupRuns.WithLabelValues(result).Inc()
	if result == "ok" {
		m.cleanupLastDeleted.Set(float64(deleted))
	}
}

// RecordCleanupDeleted добавляет число удалённых записей.
func (m *WorkerMetrics) RecordCleanupDeleted(deleted int) {
	if deleted > 0 {
		m.cleanupDeleted.Add(float64(deleted))
	}
}
