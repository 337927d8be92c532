package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderAlreadyExists, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ со строками и скидками или ErrOrderNotFound.
	Get(id string) (Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	// Скидки сохраняются по ключу (владелец, unique_key), лишние удаляются.
	Save(order Order) error
	// MarkPricesExpired помечает редактируемые заказы с указанными вариантами для пересчёта.
	MarkPricesExpired(variantIDs []string) (int, error)
	// MarkPricesExpiredByRules помечает редактируемые заказы, скидки которых ссылаются на правила.
	MarkPricesExpiredByRules(ruleIDs []string) (int, error)
	// DetachPromotionRules обнуляет ссылки скидок на удалённые правила промо-акций.
	DetachPromotionRules(ruleIDs []string) error
}

// CatalogueRepository хранит цены вариантов в каналах.
type CatalogueRepository interface {
	UpsertListing(listing VariantChannelListing) error
	GetListing(variantID, channelID string) (VariantChannelListing, error)
	// ListListings возвращает листинги канала для указанных вариантов; отсутствующие пропускаются.
	ListListings(channelID string, variantIDs []string) ([]VariantChannelListing, error)
	// ListByVariants возвращает листинги вариантов во всех каналах.
	ListByVariants(variantIDs []string) ([]VariantChannelListing, error)
}

// PromotionRepository хранит промо-акции вместе с правилами.
type PromotionRepository interface {
	Create(promotion Promotion) error
	Get(id string) (Promotion, error)
	Delete(id string) error
	List() ([]Promotion, error)
}

// VoucherRepository хранит ваучеры и их коды.
type VoucherRepository interface {
	Create(voucher Voucher) error
	Get(id string) (Voucher, error)
	GetByCode(code string) (Voucher, error)
}

// TaxRepository хранит налоговые конфигурации каналов.
type TaxRepository interface {
	SetConfiguration(cfg TaxConfiguration) error
	GetConfiguration(channelID string) (TaxConfiguration, error)
}
