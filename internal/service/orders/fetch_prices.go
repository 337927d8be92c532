package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/lock"
	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/order-pricing/internal/metrics"
	"github.com/vladislavdragonenkov/order-pricing/internal/pricing"
)

// FetchOrderPricesIfExpired возвращает заказ с актуальными ценами.
//
// Нередактируемые заказы и заказы со свежими ценами (если force=false) возвращаются
// как есть. Иначе пересчёт выполняется под блокировкой заказа, результат сохраняется
// с optimistic locking; при конфликте версий заказ перечитывается и считается заново.
func (s *Service) FetchOrderPricesIfExpired(ctx context.Context, orderID string, force bool) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}
	started := time.Now()

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.Editable() {
		s.recordResult(metrics.ResultNotEditable)
		return order, nil
	}
	if !force && !order.PricesExpired(s.now(), s.pricesTTL) {
		s.recordResult(metrics.ResultFresh)
		return order, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	held, err := s.locker.Acquire(waitCtx, lock.OrderKey(orderID), s.lockTTL)
	cancel()
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordLockFailure()
		}
		s.recordResult(metrics.ResultFailed)
		s.logger.WithError(err).WithField("order_id", orderID).Warn("recalculation lock not acquired")
		return domain.Order{}, err
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WithError(err).WithField("order_id", orderID).Warn("release recalculation lock failed")
		}
	}()

	if s.metrics != nil {
		s.metrics.RecalculationStarted()
		defer s.metrics.RecalculationFinished()
	}

	updated, recalculated, err := s.recalculateLocked(ctx, orderID, force)
	if err != nil {
		s.recordResult(metrics.ResultFailed)
		s.logger.WithError(err).WithField("order_id", orderID).Error("order prices recalculation failed")
		return domain.Order{}, err
	}
	if !recalculated {
		s.recordResult(metrics.ResultFresh)
		return updated, nil
	}

	s.recordResult(metrics.ResultRecalculated)
	if s.metrics != nil {
		s.metrics.RecordRecalculationDuration(time.Since(started))
		for _, d := range updated.Discounts {
			s.metrics.RecordDiscount(string(d.Type))
		}
		for _, line := range updated.Lines {
			for _, d := range line.Discounts {
				s.metrics.RecordDiscount(string(d.Type))
			}
		}
	}

	s.appendTimeline(updated.ID, domain.TimelinePricesRecalculated, "total "+updated.Total.Gross.String())
	s.emitEvent(updated.ID, domain.EventOrderPricesRecalculated, kafka.NewOrderPricesEvent(updated))

	s.logger.WithFields(log.Fields{
		"order_id":    updated.ID,
		"total_gross": updated.Total.Gross.String(),
		"version":     updated.Version,
	}).Debug("order prices recalculated")
	return updated, nil
}

// recalculateLocked перечитывает заказ под блокировкой и сохраняет пересчёт.
// Второе значение false означает, что пересчёт не потребовался.
func (s *Service) recalculateLocked(ctx context.Context, orderID string, force bool) (domain.Order, bool, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, false, err
		}
		// Пока ждали блокировку, заказ мог пересчитать другой обработчик.
		if !current.Status.Editable() || (!force && !current.PricesExpired(s.now(), s.pricesTTL)) {
			return current, false, nil
		}

		in, err := s.buildInput(current)
		if err != nil {
			return domain.Order{}, false, err
		}
		updated, err := s.calculator.Recalculate(in)
		if err != nil {
			return domain.Order{}, false, fmt.Errorf("recalculate order %s: %w", orderID, err)
		}
		updated.UpdatedAt = in.Now

		err = s.orders.Save(updated)
		if err == nil {
			updated.Version++
			return updated, true, nil
		}
		if !domain.IsVersionConflict(err) || attempt >= s.maxSaveAttempts {
			return domain.Order{}, false, err
		}

		if s.metrics != nil {
			s.metrics.RecordVersionConflict()
		}
		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"attempt":  attempt,
			"version":  current.Version,
		}).Warn("version conflict detected, retrying")
		if err := s.backoff(ctx, attempt); err != nil {
			return domain.Order{}, false, err
		}
	}
}

// buildInput собирает листинги, промо-акции, ваучер и налоги для калькулятора.
func (s *Service) buildInput(order domain.Order) (pricing.Input, error) {
	now := s.now()

	tax, err := s.taxes.GetConfiguration(order.ChannelID)
	switch {
	case errors.Is(err, domain.ErrTaxConfigurationNotFound):
		tax = domain.DefaultTaxConfiguration(order.ChannelID)
	case err != nil:
		return pricing.Input{}, fmt.Errorf("load tax configuration: %w", err)
	}

	promotions, err := s.promotions.List()
	if err != nil {
		return pricing.Input{}, fmt.Errorf("load promotions: %w", err)
	}

	variantIDs := order.VariantIDs()
	seen := make(map[string]struct{}, len(variantIDs))
	for _, id := range variantIDs {
		seen[id] = struct{}{}
	}
	for _, promotion := range promotions {
		if promotion.Type != domain.PromotionTypeOrder {
			continue
		}
		for _, rule := range promotion.Rules {
			if !rule.HasChannel(order.ChannelID) {
				continue
			}
			for _, gift := range rule.GiftVariantIDs {
				if _, ok := seen[gift]; !ok {
					seen[gift] = struct{}{}
					variantIDs = append(variantIDs, gift)
				}
			}
		}
	}

	listings, err := s.catalogue.ListListings(order.ChannelID, variantIDs)
	if err != nil {
		return pricing.Input{}, fmt.Errorf("load variant listings: %w", err)
	}
	byVariant := make(map[string]domain.VariantChannelListing, len(listings))
	for _, listing := range listings {
		byVariant[listing.VariantID] = listing
	}

	voucher, err := s.orderVoucher(order)
	if err != nil {
		return pricing.Input{}, err
	}

	return pricing.Input{
		Order:      order,
		Listings:   byVariant,
		Promotions: promotions,
		Voucher:    voucher,
		Tax:        tax,
		Now:        now,
	}, nil
}

// orderVoucher загружает ваучер заказа; удалённый ваучер не считается ошибкой.
func (s *Service) orderVoucher(order domain.Order) (*domain.Voucher, error) {
	if order.VoucherID == "" && order.VoucherCode == "" {
		return nil, nil
	}

	var (
		voucher domain.Voucher
		err     error
	)
	if order.VoucherID != "" {
		voucher, err = s.vouchers.Get(order.VoucherID)
	} else {
		voucher, err = s.vouchers.GetByCode(order.VoucherCode)
	}
	if errors.Is(err, domain.ErrVoucherNotFound) {
		s.logger.WithFields(log.Fields{
			"order_id":     order.ID,
			"voucher_code": order.VoucherCode,
		}).Warn("order voucher no longer exists")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load voucher: %w", err)
	}
	return &voucher, nil
}

func (s *Service) backoff(ctx context.Context, attempt int) error {
	delay := s.retryBaseDelay << (attempt - 1)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) recordResult(result string) {
	if s.metrics != nil {
		s.metrics.RecordRecalculation(result)
	}
}
