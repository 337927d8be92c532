package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
)

// CreateDraftInput описывает новый черновик заказа.
type CreateDraftInput struct {
	// ID можно передать снаружи; пустое значение генерируется.
	ID        string
	ChannelID string
	Currency  string
}

// CreateDraftOrder создаёт пустой черновик, цены которого считаются при первом чтении.
func (s *Service) CreateDraftOrder(_ context.Context, in CreateDraftInput) (domain.Order, error) {
	channelID := strings.TrimSpace(in.ChannelID)
	if channelID == "" {
		return domain.Order{}, domain.ErrChannelRequired
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return domain.Order{}, domain.ErrCurrencyRequired
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = s.newID()
	}

	order := domain.NewDraftOrder(id, channelID, currency, s.now())
	if err := s.orders.Create(order); err != nil {
		return domain.Order{}, err
	}

	s.appendTimeline(order.ID, domain.TimelineDraftCreated, "channel "+channelID)
	s.logger.WithFields(log.Fields{
		"order_id":   order.ID,
		"channel_id": channelID,
	}).Info("draft order created")
	return order, nil
}

// AddLine добавляет вариант в заказ; повторное добавление увеличивает количество.
func (s *Service) AddLine(ctx context.Context, orderID, variantID string, quantity int) (domain.Order, error) {
	if quantity <= 0 {
		return domain.Order{}, domain.ErrLineQtyInvalid
	}
	return s.mutate(ctx, orderID, domain.TimelineLineAdded, func(order *domain.Order) (string, error) {
		listing, err := s.catalogue.GetListing(variantID, order.ChannelID)
		if err != nil {
			return "", fmt.Errorf("variant %s in channel %s: %w", variantID, order.ChannelID, err)
		}
		if !strings.EqualFold(listing.Currency, order.Currency) {
			return "", fmt.Errorf("%w: listing %s, order %s", domain.ErrCurrencyMismatch, listing.Currency, order.Currency)
		}

		for i := range order.Lines {
			line := &order.Lines[i]
			if line.VariantID == variantID && !line.IsGift {
				line.Quantity += quantity
				return fmt.Sprintf("%s x%d", variantID, line.Quantity), nil
			}
		}

		price := domain.Money{Amount: listing.Price.Amount, Currency: order.Currency}
		zero := domain.ZeroTaxedMoney(order.Currency)
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:                        s.newID(),
			OrderID:                   order.ID,
			VariantID:                 variantID,
			ProductID:                 listing.ProductID,
			ProductName:               listing.ProductName,
			VariantName:               listing.VariantName,
			Quantity:                  quantity,
			UndiscountedBaseUnitPrice: price,
			BaseUnitPrice:             price,
			UndiscountedUnitPrice:     zero,
			UndiscountedTotalPrice:    zero,
			UnitPrice:                 zero,
			TotalPrice:                zero,
			UnitDiscountAmount:        domain.ZeroMoney(order.Currency),
			TaxRate:                   decimal.Zero,
			CreatedAt:                 s.now(),
		})
		return fmt.Sprintf("%s x%d", variantID, quantity), nil
	})
}

// UpdateLineQuantity меняет количество; ноль удаляет позицию.
func (s *Service) UpdateLineQuantity(ctx context.Context, orderID, lineID string, quantity int) (domain.Order, error) {
	if quantity < 0 {
		return domain.Order{}, domain.ErrLineQtyInvalid
	}
	if quantity == 0 {
		return s.DeleteLine(ctx, orderID, lineID)
	}
	return s.mutate(ctx, orderID, domain.TimelineLineUpdated, func(order *domain.Order) (string, error) {
		line, err := editableLine(order, lineID)
		if err != nil {
			return "", err
		}
		line.Quantity = quantity
		return lineID + " quantity " + strconv.Itoa(quantity), nil
	})
}

// DeleteLine удаляет позицию заказа.
func (s *Service) DeleteLine(ctx context.Context, orderID, lineID string) (domain.Order, error) {
	return s.mutate(ctx, orderID, domain.TimelineLineRemoved, func(order *domain.Order) (string, error) {
		if _, err := editableLine(order, lineID); err != nil {
			return "", err
		}
		order.RemoveLine(lineID)
		return lineID, nil
	})
}

// SetShippingPrice задаёт базовую стоимость доставки до скидок и налогов.
func (s *Service) SetShippingPrice(ctx context.Context, orderID string, amount decimal.Decimal) (domain.Order, error) {
	if amount.IsNegative() {
		return domain.Order{}, domain.ErrShippingPriceInvalid
	}
	return s.mutate(ctx, orderID, domain.TimelineShippingUpdated, func(order *domain.Order) (string, error) {
		price := domain.Money{Amount: amount, Currency: order.Currency}.Quantize()
		order.UndiscountedBaseShippingPrice = price
		order.BaseShippingPrice = price
		return price.String(), nil
	})
}

// ApplyVoucherCode привязывает ваучер к заказу. Минимальная сумма проверяется при пересчёте.
func (s *Service) ApplyVoucherCode(ctx context.Context, orderID, code string) (domain.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Order{}, fmt.Errorf("%w: code is required", domain.ErrVoucherInvalid)
	}
	voucher, err := s.vouchers.GetByCode(code)
	if err != nil {
		return domain.Order{}, err
	}

	return s.mutate(ctx, orderID, domain.TimelineVoucherApplied, func(order *domain.Order) (string, error) {
		if !voucher.AppliesToChannel(order.ChannelID) {
			return "", fmt.Errorf("%w: channel %s", domain.ErrVoucherNotApplicable, order.ChannelID)
		}
		if !voucher.ActiveAt(s.now()) {
			return "", fmt.Errorf("%w: voucher is not active", domain.ErrVoucherNotApplicable)
		}
		if order.VoucherID != "" && order.VoucherID != voucher.ID {
			dropVoucherDiscounts(order)
		}
		order.VoucherID = voucher.ID
		order.VoucherCode = canonicalCode(voucher, code)
		return order.VoucherCode, nil
	})
}

// RemoveVoucher отвязывает ваучер и удаляет его скидки.
func (s *Service) RemoveVoucher(ctx context.Context, orderID string) (domain.Order, error) {
	return s.mutate(ctx, orderID, domain.TimelineVoucherRemoved, func(order *domain.Order) (string, error) {
		if order.VoucherID == "" && order.VoucherCode == "" {
			return "", domain.ErrVoucherNotFound
		}
		code := order.VoucherCode
		order.VoucherID = ""
		order.VoucherCode = ""
		dropVoucherDiscounts(order)
		return code, nil
	})
}

// AddManualOrderDiscount задаёт ручную скидку уровня заказа, заменяя предыдущую.
func (s *Service) AddManualOrderDiscount(ctx context.Context, orderID string, in domain.ManualDiscountInput) (domain.Order, error) {
	if err := in.Validate(); err != nil {
		return domain.Order{}, err
	}
	return s.mutate(ctx, orderID, domain.TimelineDiscountAdded, func(order *domain.Order) (string, error) {
		id := s.newID()
		if existing, ok := order.DiscountByType(domain.DiscountTypeManual); ok {
			id = existing.ID
			order.RemoveDiscount(domain.DiscountTypeManual)
		}
		order.Discounts = append(order.Discounts, domain.OrderDiscount{
			ID:        id,
			OrderID:   order.ID,
			Type:      domain.DiscountTypeManual,
			ValueType: in.ValueType,
			Value:     in.Value,
			Amount:    domain.ZeroMoney(order.Currency),
			Name:      in.Name,
			Reason:    in.Reason,
			UniqueKey: domain.DiscountUniqueKey(domain.DiscountTypeManual),
		})
		return manualReason("order", in), nil
	})
}

// RemoveManualOrderDiscount удаляет ручную скидку заказа.
func (s *Service) RemoveManualOrderDiscount(ctx context.Context, orderID string) (domain.Order, error) {
	return s.mutate(ctx, orderID, domain.TimelineDiscountRemoved, func(order *domain.Order) (string, error) {
		if !order.RemoveDiscount(domain.DiscountTypeManual) {
			return "", domain.ErrDiscountNotFound
		}
		return "order manual discount", nil
	})
}

// AddManualLineDiscount задаёт ручную скидку позиции; она вытесняет остальные скидки позиции.
func (s *Service) AddManualLineDiscount(ctx context.Context, orderID, lineID string, in domain.ManualDiscountInput) (domain.Order, error) {
	if err := in.Validate(); err != nil {
		return domain.Order{}, err
	}
	return s.mutate(ctx, orderID, domain.TimelineDiscountAdded, func(order *domain.Order) (string, error) {
		line, err := editableLine(order, lineID)
		if err != nil {
			return "", err
		}
		id := s.newID()
		kept := line.Discounts[:0]
		for _, d := range line.Discounts {
			if d.Type == domain.DiscountTypeManual {
				id = d.ID
				continue
			}
			kept = append(kept, d)
		}
		line.Discounts = append(kept, domain.OrderLineDiscount{
			ID:        id,
			LineID:    line.ID,
			Type:      domain.DiscountTypeManual,
			ValueType: in.ValueType,
			Value:     in.Value,
			Amount:    domain.ZeroMoney(order.Currency),
			Name:      in.Name,
			Reason:    in.Reason,
			UniqueKey: domain.DiscountUniqueKey(domain.DiscountTypeManual),
		})
		return manualReason("line "+lineID, in), nil
	})
}

// RemoveManualLineDiscount удаляет ручную скидку позиции.
func (s *Service) RemoveManualLineDiscount(ctx context.Context, orderID, lineID string) (domain.Order, error) {
	return s.mutate(ctx, orderID, domain.TimelineDiscountRemoved, func(order *domain.Order) (string, error) {
		line, err := editableLine(order, lineID)
		if err != nil {
			return "", err
		}
		removed := false
		kept := line.Discounts[:0]
		for _, d := range line.Discounts {
			if d.Type == domain.DiscountTypeManual {
				removed = true
				continue
			}
			kept = append(kept, d)
		}
		if !removed {
			return "", domain.ErrDiscountNotFound
		}
		line.Discounts = kept
		return "line " + lineID + " manual discount", nil
	})
}

// SetTaxExemption включает или отключает освобождение заказа от налогов.
func (s *Service) SetTaxExemption(ctx context.Context, orderID string, exempt bool) (domain.Order, error) {
	return s.mutate(ctx, orderID, domain.TimelineTaxExemption, func(order *domain.Order) (string, error) {
		order.TaxExemption = exempt
		return "tax exemption " + strconv.FormatBool(exempt), nil
	})
}

// mutate применяет изменение к редактируемому заказу и помечает цены устаревшими.
func (s *Service) mutate(ctx context.Context, orderID, timelineType string, fn func(order *domain.Order) (string, error)) (domain.Order, error) {
	var reason string
	order, err := s.update(ctx, orderID, func(order *domain.Order) error {
		if !order.Status.Editable() {
			return fmt.Errorf("%w: status %s", domain.ErrOrderNotEditable, order.Status)
		}
		var err error
		if reason, err = fn(order); err != nil {
			return err
		}
		order.MarkPricesExpired()
		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return errors.Join(errs...)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	s.appendTimeline(order.ID, timelineType, reason)
	return order, nil
}

// update перечитывает заказ и повторяет изменение при конфликте версий.
func (s *Service) update(ctx context.Context, orderID string, fn func(order *domain.Order) error) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrOrderIDRequired
	}
	for attempt := 1; ; attempt++ {
		order, err := s.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}
		if err := fn(&order); err != nil {
			return domain.Order{}, err
		}
		order.UpdatedAt = s.now()

		err = s.orders.Save(order)
		if err == nil {
			order.Version++
			return order, nil
		}
		if !domain.IsVersionConflict(err) || attempt >= s.maxSaveAttempts {
			return domain.Order{}, err
		}
		if s.metrics != nil {
			s.metrics.RecordVersionConflict()
		}
		if err := s.backoff(ctx, attempt); err != nil {
			return domain.Order{}, err
		}
	}
}

func editableLine(order *domain.Order, lineID string) (*domain.OrderLine, error) {
	line, ok := order.LineByID(lineID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderLineNotFound, lineID)
	}
	if line.IsGift {
		return nil, domain.ErrGiftLineNotEditable
	}
	return line, nil
}

func dropVoucherDiscounts(order *domain.Order) {
	order.RemoveDiscount(domain.DiscountTypeVoucher)
	for i := range order.Lines {
		line := &order.Lines[i]
		kept := line.Discounts[:0]
		for _, d := range line.Discounts {
			if d.Type != domain.DiscountTypeVoucher {
				kept = append(kept, d)
			}
		}
		line.Discounts = kept
	}
}

func canonicalCode(voucher domain.Voucher, code string) string {
	for _, c := range voucher.Codes {
		if strings.EqualFold(c, code) {
			return c
		}
	}
	return code
}

func manualReason(target string, in domain.ManualDiscountInput) string {
	reason := fmt.Sprintf("%s %s %s", target, in.ValueType, in.Value.String())
	if in.Reason != "" {
		reason += ": " + in.Reason
	}
	return reason
}
