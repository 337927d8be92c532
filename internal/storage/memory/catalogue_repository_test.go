package memory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/storage/memory"
)

func listing(variantID, channelID, price string) domain.VariantChannelListing {
	return domain.VariantChannelListing{
		VariantID:       variantID,
		ProductID:       "product-" + variantID,
		ChannelID:       channelID,
		Currency:        "USD",
		Price:           domain.MustMoney(price, "USD"),
		DiscountedPrice: domain.MustMoney(price, "USD"),
	}
}

func TestCatalogueRepository_UpsertAndGet(t *testing.T) {
	repo := memory.NewCatalogueRepository()

	require.NoError(t, repo.UpsertListing(listing("variant-1", "channel-1", "10")))
	require.NoError(t, repo.UpsertListing(listing("variant-1", "channel-1", "12")))

	got, err := repo.GetListing("variant-1", "channel-1")
	require.NoError(t, err)
	assert.True(t, got.Price.Amount.Equal(decimal.NewFromInt(12)))

	_, err = repo.GetListing("variant-1", "channel-2")
	require.ErrorIs(t, err, domain.ErrVariantListingNotFound)

	invalid := listing("variant-2", "channel-1", "10")
	invalid.Price = domain.MustMoney("10", "EUR")
	require.ErrorIs(t, repo.UpsertListing(invalid), domain.ErrCurrencyMismatch)
}

func TestCatalogueRepository_ListListings(t *testing.T) {
	repo := memory.NewCatalogueRepository()
	require.NoError(t, repo.UpsertListing(listing("variant-1", "channel-1", "10")))
	require.NoError(t, repo.UpsertListing(listing("variant-2", "channel-1", "20")))
	require.NoError(t, repo.UpsertListing(listing("variant-1", "channel-2", "11")))

	inChannel, err := repo.ListListings("channel-1", []string{"variant-1", "variant-1", "variant-3"})
	require.NoError(t, err)
	require.Len(t, inChannel, 1)
	assert.Equal(t, "variant-1", inChannel[0].VariantID)

	byVariant, err := repo.ListByVariants([]string{"variant-1"})
	require.NoError(t, err)
	require.Len(t, byVariant, 2)
	assert.Equal(t, "channel-1", byVariant[0].ChannelID)
	assert.Equal(t, "channel-2", byVariant[1].ChannelID)
}

func TestPromotionRepository_CRUD(t *testing.T) {
	repo := memory.NewPromotionRepository()
	now := time.Now().UTC()
	newer := domain.Promotion{ID: "promo-b", Type: domain.PromotionTypeCatalogue, CreatedAt: now}
	older := domain.Promotion{
		ID:        "promo-a",
		Type:      domain.PromotionTypeOrder,
		CreatedAt: now.Add(-time.Hour),
		Rules:     []domain.PromotionRule{{ID: "rule-1", ChannelIDs: []string{"channel-1"}}},
	}

	require.NoError(t, repo.Create(newer))
	require.NoError(t, repo.Create(older))
	require.ErrorIs(t, repo.Create(older), domain.ErrPromotionInvalid)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "promo-a", list[0].ID)

	list[0].Rules[0].ChannelIDs[0] = "mutated"
	got, err := repo.Get("promo-a")
	require.NoError(t, err)
	assert.Equal(t, "channel-1", got.Rules[0].ChannelIDs[0])

	require.NoError(t, repo.Delete("promo-a"))
	require.ErrorIs(t, repo.Delete("promo-a"), domain.ErrPromotionNotFound)
	_, err = repo.Get("promo-a")
	require.ErrorIs(t, err, domain.ErrPromotionNotFound)
}

func TestVoucherRepository_GetByCodeIgnoresCase(t *testing.T) {
	repo := memory.NewVoucherRepository()
	voucher := domain.Voucher{ID: "voucher-1", Type: domain.VoucherTypeEntireOrder, Codes: []string{"Save10"}}

	require.NoError(t, repo.Create(voucher))
	require.ErrorIs(t, repo.Create(domain.Voucher{ID: "voucher-2", Codes: []string{"SAVE10"}}), domain.ErrVoucherInvalid)

	got, err := repo.GetByCode("save10")
	require.NoError(t, err)
	assert.Equal(t, "voucher-1", got.ID)

	_, err = repo.GetByCode("unknown")
	require.ErrorIs(t, err, domain.ErrVoucherNotFound)
	_, err = repo.Get("voucher-2")
	require.ErrorIs(t, err, domain.ErrVoucherNotFound)
}

func TestTaxRepository(t *testing.T) {
	repo := memory.NewTaxRepository()

	_, err := repo.GetConfiguration("channel-1")
	require.ErrorIs(t, err, domain.ErrTaxConfigurationNotFound)
	require.ErrorIs(t, repo.SetConfiguration(domain.TaxConfiguration{}), domain.ErrChannelRequired)

	require.NoError(t, repo.SetConfiguration(domain.TaxConfiguration{
		ChannelID:   "channel-1",
		ChargeTaxes: true,
		DefaultRate: decimal.NewFromInt(23),
	}))
	cfg, err := repo.GetConfiguration("channel-1")
	require.NoError(t, err)
	assert.True(t, cfg.ChargeTaxes)
	assert.True(t, cfg.DefaultRate.Equal(decimal.NewFromInt(23)))
}
