package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	pricingv1 "github.com/vladislavdragonenkov/order-pricing/api/pricing/v1"
	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

const idempotencyHeader = "idempotency-key"

// scenarioRunner прогоняет один сценарий жизненного цикла черновика.
type scenarioRunner struct {
	client pricingv1.OrderPricingServiceClient
	cfg    config
	runID  string
	col    *collector
}

// call выполняет RPC с таймаутом и учитывает его в collector.
// Непустой key передаётся в metadata как idempotency-key.
func call[T any](r *scenarioRunner, method, key string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.timeout)
	defer cancel()
	if key != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, idempotencyHeader, key)
	}

	start := time.Now()
	resp, err := fn(ctx)
	r.col.record(method, time.Since(start), grpcCode(err))
	return resp, err
}

func (r *scenarioRunner) key(step string, index int) string {
	return fmt.Sprintf("lt-%s-%s-%d", step, r.runID, index)
}

func (r *scenarioRunner) run(index int) (err error) {
	start := time.Now()
	defer func() {
		r.col.record(scenarioMethod, time.Since(start), grpcCode(err))
	}()

	created, err := call(r, "CreateDraftOrder", r.key("draft", index), func(ctx context.Context) (*pricingv1.OrderResponse, error) {
		return r.client.CreateDraftOrder(ctx, &pricingv1.CreateDraftOrderRequest{ChannelID: r.cfg.channel, Currency: r.cfg.currency})
	})
	if err != nil {
		return err
	}
	if created == nil || created.Order == nil || created.Order.ID == "" {
		return status.Error(codes.Internal, "create draft returned empty order id")
	}
	orderID := created.Order.ID

	for i, variantID := range r.cfg.variants {
		_, err := call(r, "AddOrderLine", r.key(fmt.Sprintf("line%d", i), index), func(ctx context.Context) (*pricingv1.OrderResponse, error) {
			return r.client.AddOrderLine(ctx, &pricingv1.AddOrderLineRequest{OrderID: orderID, VariantID: variantID, Quantity: r.cfg.quantity})
		})
		if err != nil {
			return err
		}
	}

	if r.cfg.mode == modeDiscount || r.cfg.mode == modeComplete {
		_, err := call(r, "AddManualDiscount", r.key("discount", index), func(ctx context.Context) (*pricingv1.OrderResponse, error) {
			return r.client.AddManualDiscount(ctx, &pricingv1.AddManualDiscountRequest{
				OrderID:   orderID,
				ValueType: string(domain.DiscountValueTypePercentage),
				Value:     r.cfg.discountPercent,
				Reason:    "load-test",
			})
		})
		if err != nil {
			return err
		}
	}

	if err := r.fetchPrices(orderID); err != nil {
		return err
	}

	if r.cfg.mode == modeComplete {
		_, err := call(r, "CompleteDraft", r.key("complete", index), func(ctx context.Context) (*pricingv1.OrderResponse, error) {
			return r.client.CompleteDraft(ctx, &pricingv1.OrderRequest{OrderID: orderID})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// fetchPrices параллельно запрашивает цены одного заказа fetchFanout раз.
// Первый запрос принудительный, остальные конкурируют за блокировку заказа.
func (r *scenarioRunner) fetchPrices(orderID string) error {
	fanout := max(r.cfg.fetchFanout, 1)
	errs := make([]error, fanout)

	var wg sync.WaitGroup
	for i := range fanout {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := call(r, "FetchOrderPrices", "", func(ctx context.Context) (*pricingv1.OrderResponse, error) {
				return r.client.FetchOrderPrices(ctx, &pricingv1.FetchOrderPricesRequest{OrderID: orderID, Force: i == 0})
			})
			if err == nil && (resp == nil || resp.Order == nil || resp.Order.ShouldRefreshPrices) {
				err = status.Error(codes.Internal, "fetched order still requires a price refresh")
			}
			errs[i] = err
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return status.Code(err)
}
