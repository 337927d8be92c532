package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора канала продаж.
	ErrChannelRequired = errors.New("channel_id is required")
	// Ошибка отсутствующего идентификатора варианта товара.
	ErrVariantIDRequired = errors.New("variant_id is required")
	// Ошибка отсутствующего кода валюты.
	ErrCurrencyRequired = errors.New("currency is required")
	// ErrCurrencyMismatch возвращается при операциях над суммами в разных валютах.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrLineQtyInvalid = errors.New("line quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Подарочная позиция всегда содержит ровно одну единицу товара.
	ErrGiftLineQtyInvalid = errors.New("gift line quantity must be exactly one")
	// Ошибка отрицательной стоимости доставки.
	ErrShippingPriceInvalid = errors.New("shipping price must be non-negative")
	// Ошибка некорректного значения скидки.
	ErrDiscountValueInvalid = errors.New("discount value must be positive")
	// Процентная скидка не может превышать 100%.
	ErrDiscountPercentageInvalid = errors.New("percentage discount must not exceed 100")
	// ErrDiscountTypeInvalid возвращается для неизвестного типа значения скидки.
	ErrDiscountTypeInvalid = errors.New("discount value type is invalid")
	// ErrOrderIDRequired возвращается, если идентификатор заказа не указан.
	ErrOrderIDRequired = errors.New("order_id is required")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderLineNotFound возвращается, если позиция не найдена в заказе.
	ErrOrderLineNotFound = errors.New("order line not found")
	// ErrOrderAlreadyExists возвращается при повторном создании заказа.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrOrderNotEditable возвращается при изменении заказа вне статусов draft/unconfirmed.
	ErrOrderNotEditable = errors.New("order is not editable")
	// ErrInvalidStatusTransition возвращается при недопустимой смене статуса.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	// ErrDiscountNotFound возвращается при удалении отсутствующей ручной скидки.
	ErrDiscountNotFound = errors.New("discount not found")
	// Подарочные позиции управляются промо-акцией и не редактируются вручную.
	ErrGiftLineNotEditable = errors.New("gift line is managed by promotion")
	// ErrVariantListingNotFound — вариант товара не продаётся в канале.
	ErrVariantListingNotFound = errors.New("variant channel listing not found")
	// ErrPromotionNotFound возвращается, если промо-акция не найдена.
	ErrPromotionNotFound = errors.New("promotion not found")
	// ErrPromotionInvalid возвращается при некорректной конфигурации промо-акции.
	ErrPromotionInvalid = errors.New("promotion is invalid")
	// ErrVoucherNotFound возвращается, если ваучер или код не найден.
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrVoucherInvalid возвращается при некорректной конфигурации ваучера.
	ErrVoucherInvalid = errors.New("voucher is invalid")
	// ErrVoucherNotApplicable — ваучер не действует для заказа (канал, даты, минимальная сумма).
	ErrVoucherNotApplicable = errors.New("voucher is not applicable to order")
	// ErrTaxConfigurationNotFound возвращается, если для канала не задана налоговая конфигурация.
	ErrTaxConfigurationNotFound = errors.New("tax configuration not found")
	// ErrIdempotencyKeyRequired возвращается, если ключ идемпотентности пустой.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired возвращается, если не передан хэш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound возвращается, если ключ идемпотентности не найден.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists возвращается при повторной регистрации ключа.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different payload")
	// ErrLockNotAcquired возвращается, если блокировку пересчёта получить не удалось.
	ErrLockNotAcquired = errors.New("recalculation lock not acquired")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsIdempotencyConflict проверяет, связана ли ошибка с повторным использованием ключа.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}

// IsNotFound объединяет ошибки отсутствующих сущностей.
func IsNotFound(err error) bool {
	switch {
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderLineNotFound),
		errors.Is(err, ErrDiscountNotFound),
		errors.Is(err, ErrVariantListingNotFound),
		errors.Is(err, ErrPromotionNotFound),
		errors.Is(err, ErrVoucherNotFound),
		errors.Is(err, ErrTaxConfigurationNotFound):
		return true
	default:
		return false
	}
}

// IsValidationError сообщает, что ошибка вызвана некорректными входными данными.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrChannelRequired,
		ErrVariantIDRequired,
		ErrCurrencyRequired,
		ErrCurrencyMismatch,
		ErrLineQtyInvalid,
		ErrLinePriceInvalid,
		ErrGiftLineQtyInvalid,
		ErrShippingPriceInvalid,
		ErrDiscountValueInvalid,
		ErrDiscountPercentageInvalid,
		ErrDiscountTypeInvalid,
		ErrOrderIDRequired,
		ErrPromotionInvalid,
		ErrVoucherInvalid,
		ErrGiftLineNotEditable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
