package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

type promotionRepository struct {
	db *sql.DB
}

// NewPromotionRepository создаёт PostgreSQL-реализацию PromotionRepository.
func NewPromotionRepository(store *Store) domain.PromotionRepository {
	return &promotionRepository{db: store.DB()}
}

func (r *promotionRepository) Create(promotion domain.Promotion) error {
	return inTx(r.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO promotions (id, name, type, start_date, end_date, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			promotion.ID, promotion.Name, string(promotion.Type),
			nullTime(promotion.StartDate), nullTime(promotion.EndDate),
			promotion.CreatedAt, promotion.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: promotion %s already exists", domain.ErrPromotionInvalid, promotion.ID)
			}
			return fmt.Errorf("insert promotion: %w", err)
		}

		for pos, rule := range promotion.Rules {
			channels, err := jsonColumn(stringList(rule.ChannelIDs))
			if err != nil {
				return err
			}
			variants, err := jsonColumn(stringList(rule.VariantIDs))
			if err != nil {
				return err
			}
			gifts, err := jsonColumn(stringList(rule.GiftVariantIDs))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO promotion_rules (
					id, promotion_id, position, name, channel_ids, reward_value_type, reward_value,
					reward_type, variant_ids, min_subtotal, gift_variant_ids
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			`,
				rule.ID, promotion.ID, pos, rule.Name, channels,
				string(rule.RewardValueType), rule.RewardValue, string(rule.RewardType),
				variants, nullDecimal(rule.MinSubtotal), gifts,
			); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: rule %s already exists", domain.ErrPromotionInvalid, rule.ID)
				}
				return fmt.Errorf("insert promotion rule: %w", err)
			}
		}
		return nil
	})
}

func (r *promotionRepository) Get(id string) (domain.Promotion, error) {
	ctx, cancel := withTimeout()
	defer cancel()

	promotions, err := loadPromotions(ctx, r.db, `WHERE id = $1`, id)
	if err != nil {
		return domain.Promotion{}, err
	}
	if len(promotions) == 0 {
		return domain.Promotion{}, domain.ErrPromotionNotFound
	}
	return promotions[0], nil
}

// Delete удаляет промо-акцию; правила удаляются каскадно, ссылки скидок обнуляются внешним ключом.
func (r *promotionRepository) Delete(id string) error {
	ctx, cancel := withTimeout()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrPromotionNotFound
	}
	return nil
}

func (r *promotionRepository) List() ([]domain.Promotion, error) {
	ctx, cancel := withTimeout()
	defer cancel()

	return loadPromotions(ctx, r.db, "")
}

func loadPromotions(ctx context.Context, q execer, where string, args ...any) ([]domain.Promotion, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, start_date, end_date, created_at, updated_at
		FROM promotions `+where+`
		ORDER BY created_at, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	promotions := make([]domain.Promotion, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			p             domain.Promotion
			promotionType string
			start, end    sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &promotionType, &start, &end, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		p.Type = domain.PromotionType(promotionType)
		p.StartDate = timePtr(start)
		p.EndDate = timePtr(end)
		index[p.ID] = len(promotions)
		promotions = append(promotions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotions: %w", err)
	}
	rows.Close()

	if len(promotions) == 0 {
		return promotions, nil
	}
	ids := make([]string, 0, len(promotions))
	for _, p := range promotions {
		ids = append(ids, p.ID)
	}

	ruleRows, err := q.QueryContext(ctx, `
		SELECT id, promotion_id, name, channel_ids, reward_value_type, reward_value,
		       reward_type, variant_ids, min_subtotal, gift_variant_ids
		FROM promotion_rules
		WHERE promotion_id = ANY($1)
		ORDER BY promotion_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list promotion rules: %w", err)
	}
	defer ruleRows.Close()

	for ruleRows.Next() {
		rule, err := scanRule(ruleRows)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[rule.PromotionID]; ok {
			promotions[pos].Rules = append(promotions[pos].Rules, rule)
		}
	}
	if err := ruleRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotion rules: %w", err)
	}
	return promotions, nil
}

func scanRule(row rowScanner) (domain.PromotionRule, error) {
	var (
		rule                      domain.PromotionRule
		valueType, rewardType     string
		channels, variants, gifts []byte
		minSubtotal               decimal.NullDecimal
	)
	if err := row.Scan(
		&rule.ID, &rule.PromotionID, &rule.Name, &channels, &valueType, &rule.RewardValue,
		&rewardType, &variants, &minSubtotal, &gifts,
	); err != nil {
		return domain.PromotionRule{}, fmt.Errorf("scan promotion rule: %w", err)
	}
	rule.RewardValueType = domain.DiscountValueType(valueType)
	rule.RewardType = domain.RewardType(rewardType)
	rule.MinSubtotal = decimalPtr(minSubtotal)
	for _, col := range []struct {
		raw []byte
		dst *[]string
	}{{channels, &rule.ChannelIDs}, {variants, &rule.VariantIDs}, {gifts, &rule.GiftVariantIDs}} {
		if err := decodeJSONColumn(col.raw, col.dst); err != nil {
			return domain.PromotionRule{}, err
		}
	}
	return rule, nil
}

var _ domain.PromotionRepository = (*promotionRepository)(nil)

type voucherRepository struct {
	db *sql.DB
}

// NewVoucherRepository создаёт PostgreSQL-реализацию VoucherRepository.
func NewVoucherRepository(store *Store) domain.VoucherRepository {
	return &voucherRepository{db: store.DB()}
}

func (r *voucherRepository) Create(voucher domain.Voucher) error {
	variants, err := jsonColumn(stringList(voucher.VariantIDs))
	if err != nil {
		return err
	}
	channels, err := jsonColumn(stringList(voucher.ChannelIDs))
	if err != nil {
		return err
	}

	return inTx(r.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vouchers (
				id, name, type, discount_value_type, value, apply_once_per_order,
				variant_ids, min_spent, channel_ids, start_date, end_date
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			voucher.ID, voucher.Name, string(voucher.Type), string(voucher.DiscountValueType),
			voucher.Value, voucher.ApplyOncePerOrder, variants, nullDecimal(voucher.MinSpent),
			channels, nullTime(voucher.StartDate), nullTime(voucher.EndDate),
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: voucher %s already exists", domain.ErrVoucherInvalid, voucher.ID)
			}
			return fmt.Errorf("insert voucher: %w", err)
		}
		for pos, code := range voucher.Codes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO voucher_codes (code, voucher_id, position) VALUES ($1,$2,$3)
			`, code, voucher.ID, pos); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: code %s is already used", domain.ErrVoucherInvalid, code)
				}
				return fmt.Errorf("insert voucher code: %w", err)
			}
		}
		return nil
	})
}

func (r *voucherRepository) Get(id string) (domain.Voucher, error) {
	return r.getBy(`v.id = $1`, id)
}

func (r *voucherRepository) GetByCode(code string) (domain.Voucher, error) {
	return r.getBy(`v.id = (SELECT voucher_id FROM voucher_codes WHERE UPPER(code) = $1)`, strings.ToUpper(code))
}

func (r *voucherRepository) getBy(predicate string, arg string) (domain.Voucher, error) {
	ctx, cancel := withTimeout()
	defer cancel()

	var (
		v                  domain.Voucher
		voucherType, vtype string
		variants, channels []byte
		minSpent           decimal.NullDecimal
		start, end         sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT v.id, v.name, v.type, v.discount_value_type, v.value, v.apply_once_per_order,
		       v.variant_ids, v.min_spent, v.channel_ids, v.start_date, v.end_date
		FROM vouchers v
		WHERE `+predicate, arg).Scan(
		&v.ID, &v.Name, &voucherType, &vtype, &v.Value, &v.ApplyOncePerOrder,
		&variants, &minSpent, &channels, &start, &end,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Voucher{}, domain.ErrVoucherNotFound
		}
		return domain.Voucher{}, fmt.Errorf("select voucher: %w", err)
	}
	v.Type = domain.VoucherType(voucherType)
	v.DiscountValueType = domain.DiscountValueType(vtype)
	v.MinSpent = decimalPtr(minSpent)
	v.StartDate = timePtr(start)
	v.EndDate = timePtr(end)
	if err := decodeJSONColumn(variants, &v.VariantIDs); err != nil {
		return domain.Voucher{}, err
	}
	if err := decodeJSONColumn(channels, &v.ChannelIDs); err != nil {
		return domain.Voucher{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT code FROM voucher_codes WHERE voucher_id = $1 ORDER BY position
	`, v.ID)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("list voucher codes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return domain.Voucher{}, fmt.Errorf("scan voucher code: %w", err)
		}
		v.Codes = append(v.Codes, code)
	}
	if err := rows.Err(); err != nil {
		return domain.Voucher{}, fmt.Errorf("iterate voucher codes: %w", err)
	}
	return v, nil
}

var _ domain.VoucherRepository = (*voucherRepository)(nil)
