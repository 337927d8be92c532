package grpcsvc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pricingv1 "github.com/vladislavdragonenkov/order-pricing/api/pricing/v1"
	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/idempotency"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "not found", err: fmt.Errorf("load: %w", domain.ErrOrderNotFound), want: codes.NotFound},
		{name: "listing not found", err: domain.ErrVariantListingNotFound, want: codes.NotFound},
		{name: "validation", err: domain.ErrLineQtyInvalid, want: codes.InvalidArgument},
		{name: "joined validation", err: errors.Join(domain.ErrGiftLineQtyInvalid, domain.ErrLinePriceInvalid), want: codes.InvalidArgument},
		{name: "order id", err: domain.ErrOrderIDRequired, want: codes.InvalidArgument},
		{name: "not editable", err: domain.ErrOrderNotEditable, want: codes.FailedPrecondition},
		{name: "transition", err: domain.ErrInvalidStatusTransition, want: codes.FailedPrecondition},
		{name: "voucher not applicable", err: domain.ErrVoucherNotApplicable, want: codes.FailedPrecondition},
		{name: "version conflict", err: domain.ErrOrderVersionConflict, want: codes.Aborted},
		{name: "in progress", err: idempotency.ErrRequestInProgress, want: codes.Aborted},
		{name: "hash mismatch", err: domain.ErrIdempotencyHashMismatch, want: codes.AlreadyExists},
		{name: "lock", err: domain.ErrLockNotAcquired, want: codes.Unavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: codes.DeadlineExceeded},
		{name: "replayed", err: &idempotency.ReplayedError{Code: int(codes.NotFound), Message: "order not found"}, want: codes.NotFound},
		{name: "replayed invalid code", err: &idempotency.ReplayedError{Code: 99}, want: codes.Internal},
		{name: "status passthrough", err: status.Error(codes.PermissionDenied, "nope"), want: codes.PermissionDenied},
		{name: "unknown", err: errors.New("db is down"), want: codes.Internal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusCode(tc.err))
		})
	}
}

func TestEncodeFailureHidesInternalErrors(t *testing.T) {
	code, message := encodeFailure(errors.New("pq: connection refused"))
	assert.Equal(t, int(codes.Internal), code)
	assert.Equal(t, "internal error", message)

	code, message = encodeFailure(domain.ErrOrderNotFound)
	assert.Equal(t, int(codes.NotFound), code)
	assert.Equal(t, "order not found", message)
}

func TestParseDecimal(t *testing.T) {
	value, err := parseDecimal("amount", " 12.345 ")
	require.NoError(t, err)
	assert.Equal(t, "12.345", value.String())

	_, err = parseDecimal("amount", "abc")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	zero, err := parseOptionalDecimal("rate", "")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestFromAPIListing(t *testing.T) {
	listing, err := fromAPIListing(pricingv1.VariantListing{
		VariantID:  "variant-1",
		ChannelID:  "channel-1",
		Price:      pricingv1.Money{Amount: "9.99", Currency: " eur "},
		PriorPrice: &pricingv1.Money{Amount: "12", Currency: "eur"},
	})
	require.NoError(t, err)
	assert.Equal(t, "EUR", listing.Currency)
	assert.Equal(t, "9.99", listing.Price.Amount.String())
	require.NotNil(t, listing.PriorPrice)
	assert.Equal(t, "12", listing.PriorPrice.Amount.String())

	_, err = fromAPIListing(pricingv1.VariantListing{Price: pricingv1.Money{Amount: "x"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestToAPIMoneyUsesCurrencyPrecision(t *testing.T) {
	assert.Equal(t, "100", toAPIMoney(domain.MustMoney("100", "JPY")).Amount)
	assert.Equal(t, "1.500", toAPIMoney(domain.MustMoney("1.5", "KWD")).Amount)
	assert.Equal(t, "7.00", toAPIMoney(domain.MustMoney("7", "USD")).Amount)
}
