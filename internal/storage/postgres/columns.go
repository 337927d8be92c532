package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

const opTimeout = 5 * time.Second

// execer покрывает *sql.DB и *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func inTx(db *sql.DB, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	ctx, cancel := withTimeout()
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func jsonColumn(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return raw, nil
}

func decodeJSONColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func stringList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func decimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

// taxClassColumn хранит снимок налогового класса в JSONB.
type taxClassColumn struct {
	ID              *string           `json:"id,omitempty"`
	Name            string            `json:"name,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	PrivateMetadata map[string]string `json:"private_metadata,omitempty"`
}

func encodeTaxClass(s domain.TaxClassSnapshot) ([]byte, error) {
	return jsonColumn(taxClassColumn{
		ID:              s.ID,
		Name:            s.Name,
		Metadata:        s.Metadata,
		PrivateMetadata: s.PrivateMetadata,
	})
}

func decodeTaxClass(raw []byte) (domain.TaxClassSnapshot, error) {
	var col taxClassColumn
	if err := decodeJSONColumn(raw, &col); err != nil {
		return domain.TaxClassSnapshot{}, err
	}
	return domain.TaxClassSnapshot{
		ID:              col.ID,
		Name:            col.Name,
		Metadata:        col.Metadata,
		PrivateMetadata: col.PrivateMetadata,
	}, nil
}

func money(amount decimal.Decimal, currency string) domain.Money {
	return domain.Money{Amount: amount, Currency: currency}
}

func taxed(net, gross decimal.Decimal, currency string) domain.TaxedMoney {
	return domain.TaxedMoney{Net: money(net, currency), Gross: money(gross, currency)}
}
