package domain

import "time"

// IdempotencyStatus — состояние ключа идемпотентности мутации.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing — мутация заказа или каталога ещё выполняется.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone — мутация выполнена, JSON-ответ сохранён для повторов.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed — мутация завершилась ошибкой, сохранены код и сообщение.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// IdempotencyRecord — закэшированный результат gRPC-мутации под ключом из метаданных.
type IdempotencyRecord struct {
	Key string
	// RequestHash — sha256 от имени метода и тела запроса.
	RequestHash  string
	ResponseBody []byte
	// ResponseCode — gRPC-код сохранённой ошибки; 0 для успешного ответа.
	ResponseCode int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid проверяет, что статус известен.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	}
	return false
}

// Expired сообщает, что запись можно удалить к моменту at.
func (r IdempotencyRecord) Expired(at time.Time) bool {
	return !r.TTLAt.After(at)
}
