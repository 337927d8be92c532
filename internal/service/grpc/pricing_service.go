// Package grpcsvc реализует gRPC API сервиса пересчёта цен поверх сервисов заказов и каталога.
package grpcsvc

import (
	"context"
	"encoding/json"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	pricingv1 "github.com/vladislavdragonenkov/order-pricing/api/pricing/v1"
	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/catalogue"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/idempotency"
	"github.com/vladislavdragonenkov/order-pricing/internal/service/orders"
)

const idempotencyKeyHeader = "idempotency-key"

// PricingService реализует pricing.v1.OrderPricingService.
type PricingService struct {
	pricingv1.UnimplementedOrderPricingServiceServer

	orders    *orders.Service
	catalogue *catalogue.Service
	guard     *idempotency.Guard
	logger    *log.Entry
}

// NewPricingService конструирует сервис. Без guard мутации выполняются без idempotency-key.
func NewPricingService(
	ordersSvc *orders.Service,
	catalogueSvc *catalogue.Service,
	guard *idempotency.Guard,
	logger *log.Entry,
) *PricingService {
	if logger == nil {
		logger = log.New().WithField("component", "pricing-grpc")
	}
	return &PricingService{
		orders:    ordersSvc,
		catalogue: catalogueSvc,
		guard:     guard,
		logger:    logger,
	}
}

// NewIdempotencyGuard создаёт Guard, кэширующий ошибки в виде gRPC кодов.
// Дополнительные опции (например, WithKeyTTL) применяются после базовых.
func NewIdempotencyGuard(repo domain.IdempotencyRepository, logger *log.Entry, opts ...idempotency.GuardOption) *idempotency.Guard {
	base := []idempotency.GuardOption{
		idempotency.WithGuardLogger(logger),
		idempotency.WithFailureEncoder(encodeFailure),
	}
	return idempotency.NewGuard(repo, append(base, opts...)...)
}

// CreateDraftOrder создаёт черновик заказа.
func (s *PricingService) CreateDraftOrder(ctx context.Context, req *pricingv1.CreateDraftOrderRequest) (*pricingv1.OrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodCreateDraftOrder, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		order, err := s.orders.CreateDraftOrder(ctx, orders.CreateDraftInput{
			ChannelID: req.ChannelID,
			Currency:  req.Currency,
		})
		return orderResponse(order, err)
	})
}

// AddOrderLine добавляет вариант в заказ.
func (s *PricingService) AddOrderLine(ctx context.Context, req *pricingv1.AddOrderLineRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodAddOrderLine, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.AddLine(ctx, req.OrderID, req.VariantID, req.Quantity))
	})
}

// UpdateOrderLine меняет количество позиции.
func (s *PricingService) UpdateOrderLine(ctx context.Context, req *pricingv1.UpdateOrderLineRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodUpdateOrderLine, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.UpdateLineQuantity(ctx, req.OrderID, req.LineID, req.Quantity))
	})
}

// DeleteOrderLine удаляет позицию.
func (s *PricingService) DeleteOrderLine(ctx context.Context, req *pricingv1.DeleteOrderLineRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodDeleteOrderLine, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.DeleteLine(ctx, req.OrderID, req.LineID))
	})
}

// SetShipping задаёт базовую стоимость доставки.
func (s *PricingService) SetShipping(ctx context.Context, req *pricingv1.SetShippingRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, pricingv1.MethodSetShipping, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.SetShippingPrice(ctx, req.OrderID, amount))
	})
}

// ApplyVoucher применяет код ваучера.
func (s *PricingService) ApplyVoucher(ctx context.Context, req *pricingv1.ApplyVoucherRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodApplyVoucher, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.ApplyVoucherCode(ctx, req.OrderID, req.Code))
	})
}

// RemoveVoucher снимает ваучер с заказа.
func (s *PricingService) RemoveVoucher(ctx context.Context, req *pricingv1.OrderRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodRemoveVoucher, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.RemoveVoucher(ctx, req.OrderID))
	})
}

// AddManualDiscount добавляет ручную скидку на заказ или позицию.
func (s *PricingService) AddManualDiscount(ctx context.Context, req *pricingv1.AddManualDiscountRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	value, err := parseDecimal("value", req.Value)
	if err != nil {
		return nil, err
	}
	in := domain.ManualDiscountInput{
		ValueType: domain.DiscountValueType(strings.ToLower(strings.TrimSpace(req.ValueType))),
		Value:     value,
		Reason:    req.Reason,
		Name:      req.Name,
	}
	return withIdempotency(s, ctx, pricingv1.MethodAddManualDiscount, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		if req.LineID != "" {
			return orderResponse(s.orders.AddManualLineDiscount(ctx, req.OrderID, req.LineID, in))
		}
		return orderResponse(s.orders.AddManualOrderDiscount(ctx, req.OrderID, in))
	})
}

// RemoveManualDiscount снимает ручную скидку с заказа или позиции.
func (s *PricingService) RemoveManualDiscount(ctx context.Context, req *pricingv1.RemoveManualDiscountRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodRemoveManualDiscount, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		if req.LineID != "" {
			return orderResponse(s.orders.RemoveManualLineDiscount(ctx, req.OrderID, req.LineID))
		}
		return orderResponse(s.orders.RemoveManualOrderDiscount(ctx, req.OrderID))
	})
}

// SetTaxExemption включает или выключает освобождение от налогов.
func (s *PricingService) SetTaxExemption(ctx context.Context, req *pricingv1.SetTaxExemptionRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodSetTaxExemption, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.SetTaxExemption(ctx, req.OrderID, req.TaxExemption))
	})
}

// FetchOrderPrices возвращает заказ с актуальными ценами.
func (s *PricingService) FetchOrderPrices(ctx context.Context, req *pricingv1.FetchOrderPricesRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	order, err := s.orders.FetchOrderPricesIfExpired(ctx, req.OrderID, req.Force)
	if err != nil {
		return nil, s.toStatus("FetchOrderPrices", err)
	}
	return &pricingv1.OrderResponse{Order: toAPIOrder(order)}, nil
}

// GetOrder возвращает сохранённое состояние заказа и таймлайн без пересчёта.
func (s *PricingService) GetOrder(_ context.Context, req *pricingv1.OrderRequest) (*pricingv1.GetOrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	order, err := s.orders.GetOrder(req.OrderID)
	if err != nil {
		return nil, s.toStatus("GetOrder", err)
	}
	return &pricingv1.GetOrderResponse{
		Order:    toAPIOrder(order),
		Timeline: s.buildTimeline(order.ID),
	}, nil
}

// CompleteDraft переводит черновик в unconfirmed.
func (s *PricingService) CompleteDraft(ctx context.Context, req *pricingv1.OrderRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodCompleteDraft, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.CompleteDraft(ctx, req.OrderID))
	})
}

// ConfirmOrder подтверждает заказ и фиксирует цены.
func (s *PricingService) ConfirmOrder(ctx context.Context, req *pricingv1.OrderRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodConfirmOrder, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.ConfirmOrder(ctx, req.OrderID))
	})
}

// CancelOrder отменяет заказ.
func (s *PricingService) CancelOrder(ctx context.Context, req *pricingv1.OrderRequest) (*pricingv1.OrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodCancelOrder, req, func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return orderResponse(s.orders.CancelOrder(ctx, req.OrderID))
	})
}

// UpsertVariantListing сохраняет цену варианта в канале.
func (s *PricingService) UpsertVariantListing(ctx context.Context, req *pricingv1.UpsertVariantListingRequest) (*pricingv1.VariantListingResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	listing, err := fromAPIListing(req.Listing)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, pricingv1.MethodUpsertVariantListing, req, func(ctx context.Context) (*pricingv1.VariantListingResponse, error) {
		saved, err := s.catalogue.UpsertVariantListing(ctx, listing)
		if err != nil {
			return nil, err
		}
		return &pricingv1.VariantListingResponse{Listing: toAPIListing(saved)}, nil
	})
}

// CreatePromotion создаёт промо-акцию.
func (s *PricingService) CreatePromotion(ctx context.Context, req *pricingv1.CreatePromotionRequest) (*pricingv1.PromotionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	promotion, err := fromAPIPromotion(req.Promotion)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, pricingv1.MethodCreatePromotion, req, func(ctx context.Context) (*pricingv1.PromotionResponse, error) {
		created, err := s.catalogue.CreatePromotion(ctx, promotion)
		if err != nil {
			return nil, err
		}
		return &pricingv1.PromotionResponse{Promotion: toAPIPromotion(created)}, nil
	})
}

// DeletePromotion удаляет промо-акцию.
func (s *PricingService) DeletePromotion(ctx context.Context, req *pricingv1.DeletePromotionRequest) (*pricingv1.Empty, error) {
	if req == nil || req.PromotionID == "" {
		return nil, status.Error(codes.InvalidArgument, "promotion_id is required")
	}
	return withIdempotency(s, ctx, pricingv1.MethodDeletePromotion, req, func(ctx context.Context) (*pricingv1.Empty, error) {
		if err := s.catalogue.DeletePromotion(ctx, req.PromotionID); err != nil {
			return nil, err
		}
		return &pricingv1.Empty{}, nil
	})
}

// ListPromotions возвращает все промо-акции.
func (s *PricingService) ListPromotions(context.Context, *pricingv1.ListPromotionsRequest) (*pricingv1.ListPromotionsResponse, error) {
	promotions, err := s.catalogue.ListPromotions()
	if err != nil {
		return nil, s.toStatus("ListPromotions", err)
	}
	result := make([]pricingv1.Promotion, 0, len(promotions))
	for _, p := range promotions {
		result = append(result, toAPIPromotion(p))
	}
	return &pricingv1.ListPromotionsResponse{Promotions: result}, nil
}

// CreateVoucher создаёт ваучер.
func (s *PricingService) CreateVoucher(ctx context.Context, req *pricingv1.CreateVoucherRequest) (*pricingv1.VoucherResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	voucher, err := fromAPIVoucher(req.Voucher)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, pricingv1.MethodCreateVoucher, req, func(ctx context.Context) (*pricingv1.VoucherResponse, error) {
		created, err := s.catalogue.CreateVoucher(ctx, voucher)
		if err != nil {
			return nil, err
		}
		return &pricingv1.VoucherResponse{Voucher: toAPIVoucher(created)}, nil
	})
}

// SetTaxConfiguration задаёт налоговые ставки канала.
func (s *PricingService) SetTaxConfiguration(ctx context.Context, req *pricingv1.SetTaxConfigurationRequest) (*pricingv1.TaxConfigurationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	cfg, err := fromAPITaxConfiguration(req.Configuration)
	if err != nil {
		return nil, err
	}
	return withIdempotency(s, ctx, pricingv1.MethodSetTaxConfiguration, req, func(ctx context.Context) (*pricingv1.TaxConfigurationResponse, error) {
		saved, err := s.catalogue.SetTaxConfiguration(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &pricingv1.TaxConfigurationResponse{Configuration: toAPITaxConfiguration(saved)}, nil
	})
}

func orderResponse(order domain.Order, err error) (*pricingv1.OrderResponse, error) {
	if err != nil {
		return nil, err
	}
	return &pricingv1.OrderResponse{Order: toAPIOrder(order)}, nil
}

// withIdempotency выполняет мутацию через Guard. Ответ кэшируется в JSON,
// ошибки возвращаются gRPC статусами.
func withIdempotency[T any](
	s *PricingService,
	ctx context.Context,
	method string,
	req any,
	handler func(context.Context) (*T, error),
) (*T, error) {
	operation := method[strings.LastIndex(method, "/")+1:]

	if s.guard == nil {
		resp, err := handler(ctx)
		if err != nil {
			return nil, s.toStatus(operation, err)
		}
		return resp, nil
	}

	key, err := readIdempotencyKey(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		s.logger.WithError(err).WithField("method", method).Warn("failed to build idempotency request hash")
		return nil, status.Error(codes.Internal, "failed to initialize idempotency request")
	}

	var fresh *T
	cached, err := s.guard.Execute(ctx, key, idempotency.RequestHash(method, body), func(ctx context.Context) ([]byte, error) {
		resp, runErr := handler(ctx)
		if runErr != nil {
			return nil, runErr
		}
		fresh = resp
		return json.Marshal(resp)
	})
	if err != nil {
		return nil, s.toStatus(operation, err)
	}
	if fresh != nil {
		return fresh, nil
	}

	replayed := new(T)
	if err := json.Unmarshal(cached, replayed); err != nil {
		s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to decode cached idempotency response")
		return nil, status.Error(codes.Internal, "failed to decode cached idempotency response")
	}
	return replayed, nil
}

func readIdempotencyKey(ctx context.Context) (string, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(idempotencyKeyHeader)
		if len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return strings.TrimSpace(values[0]), nil
		}
	}

	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		values := md.Get(idempotencyKeyHeader)
		if len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return strings.TrimSpace(values[0]), nil
		}
	}

	return "", status.Error(codes.InvalidArgument, "idempotency-key metadata is required")
}

func (s *PricingService) buildTimeline(orderID string) []pricingv1.TimelineEvent {
	events, err := s.orders.Timeline(orderID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to list timeline events")
		return nil
	}
	return toAPITimeline(events)
}
