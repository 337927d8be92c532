package lock

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker держит блокировки в памяти процесса с TTL.
type MemoryLocker struct {
	mu      sync.Mutex
	opts    options
	entries map[string]memoryEntry
}

// NewMemoryLocker создаёт in-process locker.
func NewMemoryLocker(opts ...Option) *MemoryLocker {
	return &MemoryLocker{
		opts:    buildOptions(opts),
		entries: make(map[string]memoryEntry),
	}
}

// Acquire ждёт освобождения ключа или истечения TTL текущего владельца.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (domain.Lock, error) {
	token := l.opts.newToken()
	err := acquireLoop(ctx, key, l.opts.retryInterval, func() (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()

		now := l.opts.now()
		if current, held := l.entries[key]; held && now.Before(current.expiresAt) {
			return false, nil
		}
		l.entries[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &memoryLock{locker: l, key: key, token: token}, nil
}

func (l *MemoryLocker) release(key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := l.entries[key]; ok && current.token == token {
		delete(l.entries, key)
	}
}

type memoryLock struct {
	locker *MemoryLocker
	key    string
	token  string
}

// Release снимает блокировку, только если она всё ещё принадлежит этому владельцу.
func (m *memoryLock) Release(context.Context) error {
	m.locker.release(m.key, m.token)
	return nil
}

var _ domain.Locker = (*MemoryLocker)(nil)
