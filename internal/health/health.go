// Package health отдаёт HTTP пробы сервиса и проверки его зависимостей.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// Status представляет статус компонента
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const defaultPingTimeout = 2 * time.Second

// Check представляет проверку здоровья компонента
type Check struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	Message    string        `json:"message,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
}

// Response представляет ответ health check
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker интерфейс для проверки здоровья компонента
type Checker interface {
	Check() Check
}

// Handler обрабатывает health check запросы
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	version   string
	startTime time.Time
}

// NewHandler создаёт новый health handler
func NewHandler(version string) *Handler {
	return &Handler{
		checkers:  make(map[string]Checker),
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterChecker регистрирует проверку компонента
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

func (h *Handler) snapshot() map[string]Checker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	checkers := make(map[string]Checker, len(h.checkers))
	for k, v := range h.checkers {
		checkers[k] = v
	}
	return checkers
}

// ServeHTTP обрабатывает HTTP запрос
func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	checks := make(map[string]Check)
	overallStatus := StatusHealthy

	for name, checker := range h.snapshot() {
		check := checker.Check()
		checks[name] = check

		if check.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
		} else if check.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}

	response := Response{
		Status:        overallStatus,
		Timestamp:     time.Now(),
		Checks:        checks,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	statusCode := http.StatusOK
	if overallStatus == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// LivenessHandler отвечает на проверку живости (всегда возвращает 200)
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadinessHandler проверяет готовность к обработке запросов.
// Degraded-компоненты (например, растущий outbox) готовность не снимают.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	for _, checker := range h.snapshot() {
		if checker.Check().Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// SimpleChecker простая проверка с функцией
type SimpleChecker struct {
	name    string
	checkFn func() error
}

// NewSimpleChecker создаёт простую проверку
func NewSimpleChecker(name string, checkFn func() error) *SimpleChecker {
	return &SimpleChecker{
		name:    name,
		checkFn: checkFn,
	}
}

// Check выполняет проверку
func (c *SimpleChecker) Check() Check {
	start := time.Now()
	err := c.checkFn()
	return result(c.name, start, err)
}

// Pinger описывает зависимость с проверкой доступности (*sql.DB, lock.RedisLocker).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc адаптирует функцию к Pinger.
type PingerFunc func(ctx context.Context) error

// PingContext вызывает f.
func (f PingerFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// PingChecker проверяет зависимость с ограничением по времени.
type PingChecker struct {
	name    string
	pinger  Pinger
	timeout time.Duration
}

// NewPingChecker создаёт проверку; timeout <= 0 заменяется на 2s.
func NewPingChecker(name string, pinger Pinger, timeout time.Duration) *PingChecker {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return &PingChecker{name: name, pinger: pinger, timeout: timeout}
}

// Check пингует зависимость.
func (c *PingChecker) Check() Check {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return result(c.name, start, c.pinger.PingContext(ctx))
}

// OutboxChecker помечает сервис degraded, если старейшее неотправленное событие старше maxAge
// или backlog превышает maxPending.
type OutboxChecker struct {
	repo       domain.OutboxRepository
	maxAge     time.Duration
	maxPending int
	now        func() time.Time
}

// NewOutboxChecker создаёт проверку backlog outbox.
func NewOutboxChecker(repo domain.OutboxRepository, maxAge time.Duration) *OutboxChecker {
	return &OutboxChecker{repo: repo, maxAge: maxAge, now: time.Now}
}

// WithMaxPending задаёт порог размера backlog; 0 отключает проверку.
func (c *OutboxChecker) WithMaxPending(maxPending int) *OutboxChecker {
	c.maxPending = maxPending
	return c
}

// Check читает статистику outbox.
func (c *OutboxChecker) Check() Check {
	start := time.Now()
	stats, err := c.repo.Stats()
	if err != nil {
		return result("outbox", start, err)
	}

	check := result("outbox", start, nil)
	if stats.PendingCount == 0 {
		return check
	}
	if c.maxPending > 0 && stats.PendingCount > c.maxPending {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("%d pending events, limit %d", stats.PendingCount, c.maxPending)
		return check
	}
	if stats.OldestPendingAt.IsZero() {
		return check
	}
	age := c.now().Sub(stats.OldestPendingAt)
	if c.maxAge > 0 && age > c.maxAge {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("%d pending events, oldest %s", stats.PendingCount, age.Round(time.Second))
	}
	return check
}

func result(name string, start time.Time, err error) Check {
	duration := time.Since(start)
	check := Check{
		Name:       name,
		Status:     StatusHealthy,
		Duration:   duration,
		DurationMs: duration.Milliseconds(),
	}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}
