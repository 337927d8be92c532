package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVersionConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "conflict", err: ErrOrderVersionConflict, want: true},
		{name: "deleted promotion rule on save", err: fmt.Errorf("%w: upsert order discount od-1: fk", ErrOrderVersionConflict), want: true},
		{name: "joined", err: errors.Join(ErrOrderVersionConflict, errors.New("order-1")), want: true},
		{name: "lock not acquired", err: ErrLockNotAcquired, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVersionConflict(tt.err))
		})
	}
}

func TestIsIdempotencyConflict(t *testing.T) {
	assert.True(t, IsIdempotencyConflict(ErrIdempotencyKeyAlreadyExists))
	assert.True(t, IsIdempotencyConflict(fmt.Errorf("AddOrderLine: %w", ErrIdempotencyHashMismatch)))
	assert.False(t, IsIdempotencyConflict(ErrIdempotencyKeyRequired))
	assert.False(t, IsIdempotencyConflict(nil))
}

func TestIsNotFound(t *testing.T) {
	for _, err := range []error{
		ErrOrderNotFound,
		ErrOrderLineNotFound,
		ErrDiscountNotFound,
		ErrVariantListingNotFound,
		ErrPromotionNotFound,
		ErrVoucherNotFound,
		fmt.Errorf("tax for channel-1: %w", ErrTaxConfigurationNotFound),
	} {
		assert.True(t, IsNotFound(err), err.Error())
	}
	assert.False(t, IsNotFound(ErrVoucherNotApplicable))
	assert.False(t, IsNotFound(ErrIdempotencyKeyNotFound))
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "zero quantity", err: ErrLineQtyInvalid, want: true},
		{name: "percentage above 100", err: fmt.Errorf("manual discount: %w", ErrDiscountPercentageInvalid), want: true},
		{name: "currency mismatch", err: ErrCurrencyMismatch, want: true},
		{name: "gift line edit", err: ErrGiftLineNotEditable, want: true},
		{name: "invalid promotion", err: fmt.Errorf("%w: rule r-1 has no channels", ErrPromotionInvalid), want: true},
		{name: "not editable order", err: ErrOrderNotEditable, want: false},
		{name: "voucher not applicable", err: ErrVoucherNotApplicable, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidationError(tt.err))
		})
	}
}
