package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/idempotency"
)

// statusCode сопоставляет доменную ошибку gRPC коду.
func statusCode(err error) codes.Code {
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	var replayed *idempotency.ReplayedError
	switch {
	case errors.As(err, &replayed):
		if code, ok := grpcCodeFromInt(replayed.Code); ok && code != codes.OK {
			return code
		}
		return codes.Internal
	case domain.IsNotFound(err):
		return codes.NotFound
	case domain.IsValidationError(err),
		errors.Is(err, domain.ErrOrderIDRequired),
		errors.Is(err, domain.ErrIdempotencyKeyRequired):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrOrderNotEditable),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrVoucherNotApplicable):
		return codes.FailedPrecondition
	case domain.IsVersionConflict(err),
		errors.Is(err, idempotency.ErrRequestInProgress):
		return codes.Aborted
	case errors.Is(err, domain.ErrIdempotencyHashMismatch),
		errors.Is(err, domain.ErrOrderAlreadyExists):
		return codes.AlreadyExists
	case errors.Is(err, domain.ErrLockNotAcquired):
		return codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// statusMessage скрывает детали внутренних ошибок.
func statusMessage(err error, code codes.Code) string {
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	switch {
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return "idempotency key is already used with different request payload"
	case code == codes.Internal:
		return "internal error"
	default:
		return err.Error()
	}
}

// encodeFailure используется Guard для кэширования ошибки первого выполнения.
func encodeFailure(err error) (int, string) {
	code := statusCode(err)
	return int(code), statusMessage(err, code)
}

func (s *PricingService) toStatus(operation string, err error) error {
	if err == nil {
		return nil
	}
	code := statusCode(err)
	entry := s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"code":      code.String(),
	})
	if code == codes.Internal || code == codes.Unavailable {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	return status.Error(code, statusMessage(err, code))
}

func grpcCodeFromInt(value int) (codes.Code, bool) {
	if value < int(codes.OK) || value > int(codes.Unauthenticated) {
		return codes.Internal, false
	}
	return codes.Code(uint32(value)), true
}
