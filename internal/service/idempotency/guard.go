// Package idempotency защищает мутирующие запросы от повторного выполнения
// и очищает просроченные ключи.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

const defaultKeyTTL = 24 * time.Hour

// Ошибки повторного запроса.
var (
	// ErrRequestInProgress — запрос с тем же ключом ещё выполняется.
	ErrRequestInProgress = errors.New("request with the same idempotency key is already processing")
	// ErrEmptyCachedResponse — ключ завершён, но ответ не сохранён.
	ErrEmptyCachedResponse = errors.New("idempotency cache is empty")
)

// ReplayedError — ошибка первого выполнения, возвращаемая повторно.
type ReplayedError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ReplayedError) Error() string {
	return e.Message
}

// FailureEncoder превращает ошибку обработчика в код и сообщение для кэша.
type FailureEncoder func(err error) (code int, message string)

// Guard выполняет обработчик не более одного раза для пары (ключ, хэш запроса).
type Guard struct {
	repo    domain.IdempotencyRepository
	logger  *log.Entry
	ttl     time.Duration
	now     func() time.Time
	encoder FailureEncoder
}

// GuardOption настраивает Guard.
type GuardOption func(*Guard)

// WithGuardLogger задаёт logger.
func WithGuardLogger(logger *log.Entry) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithKeyTTL задаёт время жизни ключа.
func WithKeyTTL(ttl time.Duration) GuardOption {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithFailureEncoder задаёт кодирование ошибок обработчика.
func WithFailureEncoder(encoder FailureEncoder) GuardOption {
	return func(g *Guard) {
		if encoder != nil {
			g.encoder = encoder
		}
	}
}

// NewGuard создаёт Guard поверх хранилища ключей.
func NewGuard(repo domain.IdempotencyRepository, opts ...GuardOption) *Guard {
	g := &Guard{
		repo:   repo,
		logger: log.New().WithField("component", "idempotency"),
		ttl:    defaultKeyTTL,
		now:    func() time.Time { return time.Now().UTC() },
		encoder: func(err error) (int, string) {
			return 0, err.Error()
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequestHash считает sha256 от "метод:тело запроса".
func RequestHash(method string, body []byte) string {
	payload := make([]byte, 0, len(method)+1+len(body))
	payload = append(payload, method...)
	payload = append(payload, ':')
	payload = append(payload, body...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Execute выполняет handler и кэширует результат под ключом.
// Повтор с тем же ключом и хэшем возвращает сохранённый ответ или *ReplayedError;
// с другим хэшем возвращает domain.ErrIdempotencyHashMismatch.
func (g *Guard) Execute(ctx context.Context, key, requestHash string, handler func(context.Context) ([]byte, error)) ([]byte, error) {
	record, err := g.repo.CreateProcessing(key, requestHash, g.now().Add(g.ttl))
	if err != nil {
		return g.replay(err, record)
	}

	body, runErr := handler(ctx)
	if runErr != nil {
		g.storeFailure(key, runErr)
		return nil, runErr
	}
	if err := g.repo.MarkDone(key, body, 0); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent success response")
	}
	return body, nil
}

func (g *Guard) replay(createErr error, record domain.IdempotencyRecord) ([]byte, error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		return nil, createErr
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
	default:
		return nil, fmt.Errorf("create idempotency record: %w", createErr)
	}

	switch record.Status {
	case domain.IdempotencyStatusDone:
		if len(record.ResponseBody) == 0 {
			return nil, ErrEmptyCachedResponse
		}
		return record.ResponseBody, nil
	case domain.IdempotencyStatusProcessing:
		return nil, ErrRequestInProgress
	case domain.IdempotencyStatusFailed:
		return nil, decodeFailure(record)
	default:
		return nil, fmt.Errorf("unknown idempotency record status %q", record.Status)
	}
}

func (g *Guard) storeFailure(key string, runErr error) {
	code, message := g.encoder(runErr)
	payload, err := json.Marshal(ReplayedError{Code: code, Message: message})
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to encode idempotency failure payload")
		payload = nil
	}
	if err := g.repo.MarkFailed(key, payload, code); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotency failure response")
	}
}

func decodeFailure(record domain.IdempotencyRecord) error {
	replayed := &ReplayedError{Code: record.ResponseCode}
	if len(record.ResponseBody) > 0 {
		_ = json.Unmarshal(record.ResponseBody, replayed)
	}
	if replayed.Message == "" {
		replayed.Message = "previous request with the same idempotency key failed"
	}
	return replayed
}
