package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

const defaultRedisPrefix = "pricing:lock:"

// releaseScript удаляет ключ только при совпадении токена владельца.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker реализует распределённую блокировку на SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	opts   options
}

// NewRedisLocker создаёт locker поверх клиента go-redis.
func NewRedisLocker(client redis.UniversalClient, prefix string, opts ...Option) *RedisLocker {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisLocker{client: client, prefix: prefix, opts: buildOptions(opts)}
}

// Acquire захватывает ключ через SET NX PX со случайным токеном владельца и повторяет попытки до отмены ctx.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (domain.Lock, error) {
	fullKey := l.prefix + key
	token := l.opts.newToken()
	err := acquireLoop(ctx, key, l.opts.retryInterval, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("acquire redis lock %s: %w", key, err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return &redisLock{client: l.client, key: fullKey, token: token}, nil
}

// Ping проверяет доступность Redis для health-чекера.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (r *redisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err(); err != nil {
		return fmt.Errorf("release redis lock %s: %w", r.key, err)
	}
	return nil
}

var _ domain.Locker = (*RedisLocker)(nil)
