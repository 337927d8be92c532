package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

type catalogueRepository struct {
	db *sql.DB
}

// NewCatalogueRepository создаёт PostgreSQL-реализацию CatalogueRepository.
func NewCatalogueRepository(store *Store) domain.CatalogueRepository {
	return &catalogueRepository{db: store.DB()}
}

const listingColumns = `
	variant_id, channel_id, product_id, currency, product_name, variant_name,
	price, discounted_price, prior_price, tax_class_id, promotion_rule_id, updated_at`

func (r *catalogueRepository) UpsertListing(listing domain.VariantChannelListing) error {
	if err := listing.Validate(); err != nil {
		return err
	}
	ctx, cancel := withTimeout()
	defer cancel()

	discounted := listing.DiscountedPrice.Amount
	if listing.DiscountedPrice.Currency == "" {
		discounted = listing.Price.Amount
	}
	var prior decimal.NullDecimal
	if listing.PriorPrice != nil {
		prior = decimal.NullDecimal{Decimal: listing.PriorPrice.Amount, Valid: true}
	}
	updatedAt := listing.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO variant_channel_listings (`+listingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (variant_id, channel_id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			currency = EXCLUDED.currency,
			product_name = EXCLUDED.product_name,
			variant_name = EXCLUDED.variant_name,
			price = EXCLUDED.price,
			discounted_price = EXCLUDED.discounted_price,
			prior_price = EXCLUDED.prior_price,
			tax_class_id = EXCLUDED.tax_class_id,
			promotion_rule_id = EXCLUDED.promotion_rule_id,
			updated_at = EXCLUDED.updated_at
	`,
		listing.VariantID, listing.ChannelID, listing.ProductID, listing.Currency,
		listing.ProductName, listing.VariantName,
		listing.Price.Amount, discounted, prior,
		nullString(listing.TaxClassID), nullString(listing.PromotionRuleID), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert variant listing: %w", err)
	}
	return nil
}

func (r *catalogueRepository) GetListing(variantID, channelID string) (domain.VariantChannelListing, error) {
	ctx, cancel := withTimeout()
	defer cancel()

	listing, err := scanListing(r.db.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM variant_channel_listings
		WHERE variant_id = $1 AND channel_id = $2
	`, variantID, channelID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VariantChannelListing{}, domain.ErrVariantListingNotFound
		}
		return domain.VariantChannelListing{}, fmt.Errorf("select variant listing: %w", err)
	}
	return listing, nil
}

func (r *catalogueRepository) ListListings(channelID string, variantIDs []string) ([]domain.VariantChannelListing, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout()
	defer cancel()

	return queryListings(ctx, r.db, `
		SELECT `+listingColumns+`
		FROM variant_channel_listings
		WHERE channel_id = $1 AND variant_id = ANY($2)
		ORDER BY variant_id
	`, channelID, variantIDs)
}

func (r *catalogueRepository) ListByVariants(variantIDs []string) ([]domain.VariantChannelListing, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout()
	defer cancel()

	return queryListings(ctx, r.db, `
		SELECT `+listingColumns+`
		FROM variant_channel_listings
		WHERE variant_id = ANY($1)
		ORDER BY variant_id, channel_id
	`, variantIDs)
}

func queryListings(ctx context.Context, q execer, query string, args ...any) ([]domain.VariantChannelListing, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list variant listings: %w", err)
	}
	defer rows.Close()

	result := make([]domain.VariantChannelListing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant listing: %w", err)
		}
		result = append(result, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant listings: %w", err)
	}
	return result, nil
}

func scanListing(row rowScanner) (domain.VariantChannelListing, error) {
	var (
		listing           domain.VariantChannelListing
		price, discounted decimal.Decimal
		prior             decimal.NullDecimal
		taxClassID        sql.NullString
		ruleID            sql.NullString
	)
	if err := row.Scan(
		&listing.VariantID, &listing.ChannelID, &listing.ProductID, &listing.Currency,
		&listing.ProductName, &listing.VariantName,
		&price, &discounted, &prior, &taxClassID, &ruleID, &listing.UpdatedAt,
	); err != nil {
		return domain.VariantChannelListing{}, err
	}
	listing.Price = money(price, listing.Currency)
	listing.DiscountedPrice = money(discounted, listing.Currency)
	if prior.Valid {
		p := money(prior.Decimal, listing.Currency)
		listing.PriorPrice = &p
	}
	listing.TaxClassID = stringPtr(taxClassID)
	listing.PromotionRuleID = stringPtr(ruleID)
	return listing, nil
}

var _ domain.CatalogueRepository = (*catalogueRepository)(nil)

type taxRepository struct {
	db *sql.DB
}

// NewTaxRepository создаёт PostgreSQL-реализацию TaxRepository.
func NewTaxRepository(store *Store) domain.TaxRepository {
	return &taxRepository{db: store.DB()}
}

func (r *taxRepository) SetConfiguration(cfg domain.TaxConfiguration) error {
	if cfg.ChannelID == "" {
		return domain.ErrChannelRequired
	}
	rates, err := jsonColumn(cfg.ClassRates)
	if err != nil {
		return err
	}
	classes, err := jsonColumn(cfg.Classes)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout()
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO tax_configurations (
			channel_id, charge_taxes, prices_entered_with_tax, default_rate,
			class_rates, classes, shipping_tax_class_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (channel_id) DO UPDATE SET
			charge_taxes = EXCLUDED.charge_taxes,
			prices_entered_with_tax = EXCLUDED.prices_entered_with_tax,
			default_rate = EXCLUDED.default_rate,
			class_rates = EXCLUDED.class_rates,
			classes = EXCLUDED.classes,
			shipping_tax_class_id = EXCLUDED.shipping_tax_class_id
	`,
		cfg.ChannelID, cfg.ChargeTaxes, cfg.PricesEnteredWithTax, cfg.DefaultRate,
		rates, classes, nullString(cfg.ShippingTaxClassID),
	); err != nil {
		return fmt.Errorf("upsert tax configuration: %w", err)
	}
	return nil
}

func (r *taxRepository) GetConfiguration(channelID string) (domain.TaxConfiguration, error) {
	ctx, cancel := withTimeout()
	defer cancel()

	var (
		cfg                domain.TaxConfiguration
		rates, classes     []byte
		shippingTaxClassID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT channel_id, charge_taxes, prices_entered_with_tax, default_rate,
		       class_rates, classes, shipping_tax_class_id
		FROM tax_configurations
		WHERE channel_id = $1
	`, channelID).Scan(
		&cfg.ChannelID, &cfg.ChargeTaxes, &cfg.PricesEnteredWithTax, &cfg.DefaultRate,
		&rates, &classes, &shippingTaxClassID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TaxConfiguration{}, domain.ErrTaxConfigurationNotFound
		}
		return domain.TaxConfiguration{}, fmt.Errorf("select tax configuration: %w", err)
	}
	if err := decodeJSONColumn(rates, &cfg.ClassRates); err != nil {
		return domain.TaxConfiguration{}, err
	}
	if err := decodeJSONColumn(classes, &cfg.Classes); err != nil {
		return domain.TaxConfiguration{}, err
	}
	cfg.ShippingTaxClassID = stringPtr(shippingTaxClassID)
	return cfg, nil
}

var _ domain.TaxRepository = (*taxRepository)(nil)
