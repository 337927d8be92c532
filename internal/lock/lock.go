// Package lock сериализует пересчёт цен одного заказа.
// MemoryLocker работает внутри процесса, RedisLocker между репликами сервиса.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

const defaultRetryInterval = 25 * time.Millisecond

type options struct {
	retryInterval time.Duration
	newToken      func() string
	now           func() time.Time
}

// Option настраивает locker.
type Option func(*options)

// WithRetryInterval задаёт паузу между попытками захвата.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

// WithClock подменяет источник времени (для тестов истечения TTL).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		retryInterval: defaultRetryInterval,
		newToken:      uuid.NewString,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// OrderKey возвращает ключ блокировки пересчёта цен заказа.
func OrderKey(orderID string) string {
	return "order-prices:" + orderID
}

// acquireLoop повторяет попытку, пока она не удастся или не истечёт контекст.
func acquireLoop(ctx context.Context, key string, interval time.Duration, try func() (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", domain.ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}
