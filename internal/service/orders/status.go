package orders

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
)

// errPricesChanged: цены устарели между пересчётом и сменой статуса.
var errPricesChanged = errors.New("order prices changed before status transition")

// CompleteDraft оформляет черновик: цены пересчитываются, статус становится unconfirmed.
func (s *Service) CompleteDraft(ctx context.Context, orderID string) (domain.Order, error) {
	return s.transitionWithFreshPrices(ctx, orderID, domain.OrderStatusDraft, domain.OrderStatusUnconfirmed)
}

// ConfirmOrder подтверждает заказ; после этого цены больше не пересчитываются.
func (s *Service) ConfirmOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return s.transitionWithFreshPrices(ctx, orderID, domain.OrderStatusUnconfirmed, domain.OrderStatusUnfulfilled)
}

// CancelOrder отменяет заказ в любом статусе, кроме уже отменённого.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var previous domain.OrderStatus
	order, err := s.update(ctx, orderID, func(order *domain.Order) error {
		if order.Status == domain.OrderStatusCanceled {
			return fmt.Errorf("%w: order is already canceled", domain.ErrInvalidStatusTransition)
		}
		previous = order.Status
		order.Status = domain.OrderStatusCanceled
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.statusChanged(order, previous)
	return order, nil
}

// transitionWithFreshPrices фиксирует актуальные цены и меняет статус.
// Если заказ изменили между пересчётом и сохранением статуса, пересчёт повторяется.
func (s *Service) transitionWithFreshPrices(ctx context.Context, orderID string, from, to domain.OrderStatus) (domain.Order, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}
		if current.Status != from {
			return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current.Status, to)
		}
		if len(current.Lines) == 0 {
			return domain.Order{}, fmt.Errorf("%w: order has no lines", domain.ErrInvalidStatusTransition)
		}

		if _, err := s.FetchOrderPricesIfExpired(ctx, orderID, false); err != nil {
			return domain.Order{}, err
		}

		order, err := s.update(ctx, orderID, func(order *domain.Order) error {
			if order.Status != from {
				return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, order.Status, to)
			}
			if order.ShouldRefreshPrices {
				return errPricesChanged
			}
			order.Status = to
			return nil
		})
		if errors.Is(err, errPricesChanged) && attempt < s.maxSaveAttempts {
			s.logger.WithFields(log.Fields{
				"order_id": orderID,
				"attempt":  attempt,
			}).Warn("order changed during status transition, recalculating")
			continue
		}
		if err != nil {
			return domain.Order{}, err
		}
		s.statusChanged(order, from)
		return order, nil
	}
}

func (s *Service) statusChanged(order domain.Order, previous domain.OrderStatus) {
	s.appendTimeline(order.ID, domain.TimelineStatusChanged, fmt.Sprintf("%s -> %s", previous, order.Status))
	s.emitEvent(order.ID, domain.EventOrderStatusChanged, kafka.NewOrderStatusEvent(order.ID, string(previous), string(order.Status)))
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       order.Status,
	}).Info("order status changed")
}
