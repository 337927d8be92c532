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

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `
	id, channel_id, status, currency, voucher_id, voucher_code, tax_exemption,
	undiscounted_base_shipping_price, base_shipping_price,
	shipping_price_net, shipping_price_gross, shipping_tax_rate, shipping_tax_class,
	undiscounted_total_net, undiscounted_total_gross,
	subtotal_net, subtotal_gross, total_net, total_gross,
	should_refresh_prices, prices_refreshed_at, version, created_at, updated_at`

func (r *orderRepository) Create(order domain.Order) error {
	return inTx(r.db, func(ctx context.Context, tx *sql.Tx) error {
		shippingTaxClass, err := encodeTaxClass(order.ShippingTaxClass)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		`,
			order.ID, order.ChannelID, string(order.Status), order.Currency,
			order.VoucherID, order.VoucherCode, order.TaxExemption,
			order.UndiscountedBaseShippingPrice.Amount, order.BaseShippingPrice.Amount,
			order.ShippingPrice.Net.Amount, order.ShippingPrice.Gross.Amount,
			order.ShippingTaxRate, shippingTaxClass,
			order.UndiscountedTotal.Net.Amount, order.UndiscountedTotal.Gross.Amount,
			order.Subtotal.Net.Amount, order.Subtotal.Gross.Amount,
			order.Total.Net.Amount, order.Total.Gross.Amount,
			order.ShouldRefreshPrices, nullTime(order.PricesRefreshedAt),
			order.Version, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrOrderAlreadyExists
			}
			return fmt.Errorf("insert order: %w", err)
		}
		return writeOrderChildren(ctx, tx, order)
	})
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := withTimeout()
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if order.Lines, err = loadLines(ctx, r.db, order.ID, order.Currency); err != nil {
		return domain.Order{}, err
	}
	if order.Discounts, err = loadOrderDiscounts(ctx, r.db, order.ID, order.Currency); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Save обновляет заказ целиком: скалярные поля с проверкой версии,
// позиции и скидки через upsert по (владелец, unique_key) с удалением устаревших строк.
func (r *orderRepository) Save(order domain.Order) error {
	return inTx(r.db, func(ctx context.Context, tx *sql.Tx) error {
		shippingTaxClass, err := encodeTaxClass(order.ShippingTaxClass)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $1,
			    voucher_id = $2,
			    voucher_code = $3,
			    tax_exemption = $4,
			    undiscounted_base_shipping_price = $5,
			    base_shipping_price = $6,
			    shipping_price_net = $7,
			    shipping_price_gross = $8,
			    shipping_tax_rate = $9,
			    shipping_tax_class = $10,
			    undiscounted_total_net = $11,
			    undiscounted_total_gross = $12,
			    subtotal_net = $13,
			    subtotal_gross = $14,
			    total_net = $15,
			    total_gross = $16,
			    should_refresh_prices = $17,
			    prices_refreshed_at = $18,
			    version = version + 1,
			    updated_at = $19
			WHERE id = $20
			  AND version = $21
		`,
			string(order.Status), order.VoucherID, order.VoucherCode, order.TaxExemption,
			order.UndiscountedBaseShippingPrice.Amount, order.BaseShippingPrice.Amount,
			order.ShippingPrice.Net.Amount, order.ShippingPrice.Gross.Amount,
			order.ShippingTaxRate, shippingTaxClass,
			order.UndiscountedTotal.Net.Amount, order.UndiscountedTotal.Gross.Amount,
			order.Subtotal.Net.Amount, order.Subtotal.Gross.Amount,
			order.Total.Net.Amount, order.Total.Gross.Amount,
			order.ShouldRefreshPrices, nullTime(order.PricesRefreshedAt),
			order.UpdatedAt, order.ID, order.Version,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			exists, err := orderExists(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			if !exists {
				return domain.ErrOrderNotFound
			}
			return domain.ErrOrderVersionConflict
		}
		if err := writeOrderChildren(ctx, tx, order); err != nil {
			// правило удалили после загрузки промо-акций: заказ нужно перечитать.
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: %w", domain.ErrOrderVersionConflict, err)
			}
			return err
		}
		return nil
	})
}

func (r *orderRepository) MarkPricesExpired(variantIDs []string) (int, error) {
	if len(variantIDs) == 0 {
		return 0, nil
	}
	ctx, cancel := withTimeout()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET should_refresh_prices = TRUE,
		    version = version + 1,
		    updated_at = $1
		WHERE status IN ($2, $3)
		  AND should_refresh_prices = FALSE
		  AND id IN (SELECT order_id FROM order_lines WHERE variant_id = ANY($4))
	`, time.Now().UTC(), string(domain.OrderStatusDraft), string(domain.OrderStatusUnconfirmed), variantIDs)
	if err != nil {
		return 0, fmt.Errorf("mark order prices expired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *orderRepository) MarkPricesExpiredByRules(ruleIDs []string) (int, error) {
	if len(ruleIDs) == 0 {
		return 0, nil
	}
	ctx, cancel := withTimeout()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET should_refresh_prices = TRUE,
		    version = version + 1,
		    updated_at = $1
		WHERE status IN ($2, $3)
		  AND should_refresh_prices = FALSE
		  AND (
		    id IN (SELECT order_id FROM order_discounts WHERE promotion_rule_id = ANY($4))
		    OR id IN (
		      SELECT l.order_id FROM order_lines l
		      JOIN order_line_discounts d ON d.line_id = l.id
		      WHERE d.promotion_rule_id = ANY($4)
		    )
		  )
	`, time.Now().UTC(), string(domain.OrderStatusDraft), string(domain.OrderStatusUnconfirmed), ruleIDs)
	if err != nil {
		return 0, fmt.Errorf("mark order prices expired by rules: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *orderRepository) DetachPromotionRules(ruleIDs []string) error {
	if len(ruleIDs) == 0 {
		return nil
	}
	return inTx(r.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, table := range []string{"order_discounts", "order_line_discounts"} {
			if _, err := tx.ExecContext(ctx,
				`UPDATE `+table+` SET promotion_rule_id = NULL WHERE promotion_rule_id = ANY($1)`, ruleIDs,
			); err != nil {
				return fmt.Errorf("detach promotion rules in %s: %w", table, err)
			}
		}
		return nil
	})
}

func writeOrderChildren(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	lineIDs := make([]string, 0, len(order.Lines))
	for _, line := range order.Lines {
		lineIDs = append(lineIDs, line.ID)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_lines WHERE order_id = $1 AND NOT (id = ANY($2))`, order.ID, lineIDs,
	); err != nil {
		return fmt.Errorf("delete stale order lines: %w", err)
	}
	for _, line := range order.Lines {
		if err := upsertLine(ctx, tx, order.ID, line); err != nil {
			return err
		}
		if err := writeLineDiscounts(ctx, tx, line); err != nil {
			return err
		}
	}
	return writeOrderDiscounts(ctx, tx, order)
}

func upsertLine(ctx context.Context, tx *sql.Tx, orderID string, line domain.OrderLine) error {
	taxClass, err := encodeTaxClass(line.TaxClass)
	if err != nil {
		return err
	}
	createdAt := line.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_lines (
			id, order_id, variant_id, product_id, product_name, variant_name, quantity, is_gift,
			undiscounted_base_unit_price, base_unit_price,
			undiscounted_unit_price_net, undiscounted_unit_price_gross,
			undiscounted_total_price_net, undiscounted_total_price_gross,
			unit_price_net, unit_price_gross, total_price_net, total_price_gross,
			unit_discount_amount, unit_discount_type, unit_discount_value, unit_discount_reason,
			tax_rate, tax_class, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
		ON CONFLICT (id) DO UPDATE SET
			variant_id = EXCLUDED.variant_id,
			product_id = EXCLUDED.product_id,
			product_name = EXCLUDED.product_name,
			variant_name = EXCLUDED.variant_name,
			quantity = EXCLUDED.quantity,
			is_gift = EXCLUDED.is_gift,
			undiscounted_base_unit_price = EXCLUDED.undiscounted_base_unit_price,
			base_unit_price = EXCLUDED.base_unit_price,
			undiscounted_unit_price_net = EXCLUDED.undiscounted_unit_price_net,
			undiscounted_unit_price_gross = EXCLUDED.undiscounted_unit_price_gross,
			undiscounted_total_price_net = EXCLUDED.undiscounted_total_price_net,
			undiscounted_total_price_gross = EXCLUDED.undiscounted_total_price_gross,
			unit_price_net = EXCLUDED.unit_price_net,
			unit_price_gross = EXCLUDED.unit_price_gross,
			total_price_net = EXCLUDED.total_price_net,
			total_price_gross = EXCLUDED.total_price_gross,
			unit_discount_amount = EXCLUDED.unit_discount_amount,
			unit_discount_type = EXCLUDED.unit_discount_type,
			unit_discount_value = EXCLUDED.unit_discount_value,
			unit_discount_reason = EXCLUDED.unit_discount_reason,
			tax_rate = EXCLUDED.tax_rate,
			tax_class = EXCLUDED.tax_class
	`,
		line.ID, orderID, line.VariantID, line.ProductID, line.ProductName, line.VariantName,
		line.Quantity, line.IsGift,
		line.UndiscountedBaseUnitPrice.Amount, line.BaseUnitPrice.Amount,
		line.UndiscountedUnitPrice.Net.Amount, line.UndiscountedUnitPrice.Gross.Amount,
		line.UndiscountedTotalPrice.Net.Amount, line.UndiscountedTotalPrice.Gross.Amount,
		line.UnitPrice.Net.Amount, line.UnitPrice.Gross.Amount,
		line.TotalPrice.Net.Amount, line.TotalPrice.Gross.Amount,
		line.UnitDiscountAmount.Amount, string(line.UnitDiscountType), line.UnitDiscountValue, line.UnitDiscountReason,
		line.TaxRate, taxClass, createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert order line %s: %w", line.ID, err)
	}
	return nil
}

func writeLineDiscounts(ctx context.Context, tx *sql.Tx, line domain.OrderLine) error {
	keys := make([]string, 0, len(line.Discounts))
	for _, d := range line.Discounts {
		keys = append(keys, uniqueKey(d.UniqueKey, d.Type))
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_line_discounts WHERE line_id = $1 AND NOT (unique_key = ANY($2))`, line.ID, keys,
	); err != nil {
		return fmt.Errorf("delete stale line discounts: %w", err)
	}
	for _, d := range line.Discounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_line_discounts (
				id, line_id, type, value_type, value, amount, name, reason,
				promotion_rule_id, voucher_id, voucher_code, unique_key
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,(SELECT id FROM promotion_rules WHERE id = $9),$10,$11,$12)
			ON CONFLICT (line_id, unique_key) DO UPDATE SET
				id = EXCLUDED.id,
				type = EXCLUDED.type,
				value_type = EXCLUDED.value_type,
				value = EXCLUDED.value,
				amount = EXCLUDED.amount,
				name = EXCLUDED.name,
				reason = EXCLUDED.reason,
				promotion_rule_id = EXCLUDED.promotion_rule_id,
				voucher_id = EXCLUDED.voucher_id,
				voucher_code = EXCLUDED.voucher_code
		`,
			d.ID, line.ID, string(d.Type), string(d.ValueType), d.Value, d.Amount.Amount,
			d.Name, d.Reason, nullString(d.PromotionRuleID), d.VoucherID, d.VoucherCode,
			uniqueKey(d.UniqueKey, d.Type),
		); err != nil {
			return fmt.Errorf("upsert line discount %s: %w", d.ID, err)
		}
	}
	return nil
}

func writeOrderDiscounts(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	keys := make([]string, 0, len(order.Discounts))
	for _, d := range order.Discounts {
		keys = append(keys, uniqueKey(d.UniqueKey, d.Type))
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_discounts WHERE order_id = $1 AND NOT (unique_key = ANY($2))`, order.ID, keys,
	); err != nil {
		return fmt.Errorf("delete stale order discounts: %w", err)
	}
	for _, d := range order.Discounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_discounts (
				id, order_id, type, value_type, value, amount, name, reason,
				promotion_rule_id, voucher_id, voucher_code, unique_key
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,(SELECT id FROM promotion_rules WHERE id = $9),$10,$11,$12)
			ON CONFLICT (order_id, unique_key) DO UPDATE SET
				id = EXCLUDED.id,
				type = EXCLUDED.type,
				value_type = EXCLUDED.value_type,
				value = EXCLUDED.value,
				amount = EXCLUDED.amount,
				name = EXCLUDED.name,
				reason = EXCLUDED.reason,
				promotion_rule_id = EXCLUDED.promotion_rule_id,
				voucher_id = EXCLUDED.voucher_id,
				voucher_code = EXCLUDED.voucher_code
		`,
			d.ID, order.ID, string(d.Type), string(d.ValueType), d.Value, d.Amount.Amount,
			d.Name, d.Reason, nullString(d.PromotionRuleID), d.VoucherID, d.VoucherCode,
			uniqueKey(d.UniqueKey, d.Type),
		); err != nil {
			return fmt.Errorf("upsert order discount %s: %w", d.ID, err)
		}
	}
	return nil
}

func uniqueKey(key string, t domain.DiscountType) string {
	if key != "" {
		return key
	}
	return domain.DiscountUniqueKey(t)
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order                              domain.Order
		status                             string
		undiscountedShipping, baseShipping decimal.Decimal
		shippingNet, shippingGross         decimal.Decimal
		shippingTaxClass                   []byte
		undiscountedNet, undiscountedGross decimal.Decimal
		subtotalNet, subtotalGross         decimal.Decimal
		totalNet, totalGross               decimal.Decimal
		refreshedAt                        sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.ChannelID, &status, &order.Currency,
		&order.VoucherID, &order.VoucherCode, &order.TaxExemption,
		&undiscountedShipping, &baseShipping,
		&shippingNet, &shippingGross, &order.ShippingTaxRate, &shippingTaxClass,
		&undiscountedNet, &undiscountedGross,
		&subtotalNet, &subtotalGross, &totalNet, &totalGross,
		&order.ShouldRefreshPrices, &refreshedAt, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	taxClass, err := decodeTaxClass(shippingTaxClass)
	if err != nil {
		return domain.Order{}, err
	}
	currency := order.Currency
	order.Status = domain.OrderStatus(status)
	order.UndiscountedBaseShippingPrice = money(undiscountedShipping, currency)
	order.BaseShippingPrice = money(baseShipping, currency)
	order.ShippingPrice = taxed(shippingNet, shippingGross, currency)
	order.ShippingTaxClass = taxClass
	order.UndiscountedTotal = taxed(undiscountedNet, undiscountedGross, currency)
	order.Subtotal = taxed(subtotalNet, subtotalGross, currency)
	order.Total = taxed(totalNet, totalGross, currency)
	order.PricesRefreshedAt = timePtr(refreshedAt)
	return order, nil
}

func loadLines(ctx context.Context, q execer, orderID, currency string) ([]domain.OrderLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, variant_id, product_id, product_name, variant_name, quantity, is_gift,
		       undiscounted_base_unit_price, base_unit_price,
		       undiscounted_unit_price_net, undiscounted_unit_price_gross,
		       undiscounted_total_price_net, undiscounted_total_price_gross,
		       unit_price_net, unit_price_gross, total_price_net, total_price_gross,
		       unit_discount_amount, unit_discount_type, unit_discount_value, unit_discount_reason,
		       tax_rate, tax_class, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			line                                         domain.OrderLine
			undiscountedBase, base                       decimal.Decimal
			undiscountedUnitNet, undiscountedUnitGross   decimal.Decimal
			undiscountedTotalNet, undiscountedTotalGross decimal.Decimal
			unitNet, unitGross, totalNet, totalGross     decimal.Decimal
			unitDiscountAmount                           decimal.Decimal
			unitDiscountType                             string
			taxClass                                     []byte
		)
		if err := rows.Scan(
			&line.ID, &line.VariantID, &line.ProductID, &line.ProductName, &line.VariantName,
			&line.Quantity, &line.IsGift,
			&undiscountedBase, &base,
			&undiscountedUnitNet, &undiscountedUnitGross,
			&undiscountedTotalNet, &undiscountedTotalGross,
			&unitNet, &unitGross, &totalNet, &totalGross,
			&unitDiscountAmount, &unitDiscountType, &line.UnitDiscountValue, &line.UnitDiscountReason,
			&line.TaxRate, &taxClass, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		snapshot, err := decodeTaxClass(taxClass)
		if err != nil {
			return nil, err
		}
		line.OrderID = orderID
		line.UndiscountedBaseUnitPrice = money(undiscountedBase, currency)
		line.BaseUnitPrice = money(base, currency)
		line.UndiscountedUnitPrice = taxed(undiscountedUnitNet, undiscountedUnitGross, currency)
		line.UndiscountedTotalPrice = taxed(undiscountedTotalNet, undiscountedTotalGross, currency)
		line.UnitPrice = taxed(unitNet, unitGross, currency)
		line.TotalPrice = taxed(totalNet, totalGross, currency)
		line.UnitDiscountAmount = money(unitDiscountAmount, currency)
		line.UnitDiscountType = domain.DiscountValueType(unitDiscountType)
		line.TaxClass = snapshot
		index[line.ID] = len(lines)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	rows.Close()

	discounts, err := q.QueryContext(ctx, `
		SELECT d.id, d.line_id, d.type, d.value_type, d.value, d.amount, d.name, d.reason,
		       d.promotion_rule_id, d.voucher_id, d.voucher_code, d.unique_key
		FROM order_line_discounts d
		JOIN order_lines l ON l.id = d.line_id
		WHERE l.order_id = $1
		ORDER BY d.line_id, d.unique_key
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load line discounts: %w", err)
	}
	defer discounts.Close()

	for discounts.Next() {
		var (
			d                   domain.OrderLineDiscount
			discountType, value string
			amount              decimal.Decimal
			ruleID              sql.NullString
		)
		if err := discounts.Scan(
			&d.ID, &d.LineID, &discountType, &value, &d.Value, &amount, &d.Name, &d.Reason,
			&ruleID, &d.VoucherID, &d.VoucherCode, &d.UniqueKey,
		); err != nil {
			return nil, fmt.Errorf("scan line discount: %w", err)
		}
		d.Type = domain.DiscountType(discountType)
		d.ValueType = domain.DiscountValueType(value)
		d.Amount = money(amount, currency)
		d.PromotionRuleID = stringPtr(ruleID)
		if pos, ok := index[d.LineID]; ok {
			lines[pos].Discounts = append(lines[pos].Discounts, d)
		}
	}
	if err := discounts.Err(); err != nil {
		return nil, fmt.Errorf("iterate line discounts: %w", err)
	}
	return lines, nil
}

func loadOrderDiscounts(ctx context.Context, q execer, orderID, currency string) ([]domain.OrderDiscount, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, type, value_type, value, amount, name, reason,
		       promotion_rule_id, voucher_id, voucher_code, unique_key
		FROM order_discounts
		WHERE order_id = $1
		ORDER BY unique_key
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order discounts: %w", err)
	}
	defer rows.Close()

	var result []domain.OrderDiscount
	for rows.Next() {
		var (
			d                   domain.OrderDiscount
			discountType, value string
			amount              decimal.Decimal
			ruleID              sql.NullString
		)
		if err := rows.Scan(
			&d.ID, &discountType, &value, &d.Value, &amount, &d.Name, &d.Reason,
			&ruleID, &d.VoucherID, &d.VoucherCode, &d.UniqueKey,
		); err != nil {
			return nil, fmt.Errorf("scan order discount: %w", err)
		}
		d.OrderID = orderID
		d.Type = domain.DiscountType(discountType)
		d.ValueType = domain.DiscountValueType(value)
		d.Amount = money(amount, currency)
		d.PromotionRuleID = stringPtr(ruleID)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order discounts: %w", err)
	}
	return result, nil
}

func orderExists(ctx context.Context, q execer, orderID string) (bool, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
