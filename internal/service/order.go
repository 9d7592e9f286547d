package service

import (
	"context"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/metrics"
	"renthub-backend/internal/repository"
	"renthub-backend/internal/utils"
)

// RateProvider returns the current service fee rate. Every operation takes
// one snapshot up front so a concurrent rate change cannot split a single
// calculation.
type RateProvider func() float64

type orderService struct {
	repos      *repository.UnitOfWork
	tx         repository.TxManager
	disp       *dispatcher
	rate       RateProvider
	loyaltySvc LoyaltyService
}

func NewOrderService(tx repository.TxManager, repos *repository.UnitOfWork, disp *dispatcher, rate RateProvider, loyaltySvc LoyaltyService) OrderService {
	return &orderService{repos: repos, tx: tx, disp: disp, rate: rate, loyaltySvc: loyaltySvc}
}

// appliedDiscount is one discount resolved and priced for a specific order.
type appliedDiscount struct {
	discount   *domain.Discount
	assignment *domain.DiscountAssignment
	amount     int64
}

// resolveDiscounts validates up to two codes against the rental amount. The
// public code is priced on the full rental amount, the private one on what
// remains after it, and neither ever touches service fee or deposit.
func resolveDiscounts(ctx context.Context, repo repository.DiscountRepository, userID int64, item *domain.Item, rentalAmount int64, codes []string, now time.Time) (public, private *appliedDiscount, err error) {
	var publicCode, privateCode string
	for _, code := range codes {
		if code == "" {
			continue
		}
		d, err := repo.GetByCode(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		if d.IsPublic {
			if publicCode != "" {
				return nil, nil, domain.Validationf(domain.CodeInvalidInput, "at most one public discount code per order")
			}
			publicCode = code
		} else {
			if privateCode != "" {
				return nil, nil, domain.Validationf(domain.CodeInvalidInput, "at most one private discount code per order")
			}
			privateCode = code
		}
	}

	remaining := rentalAmount
	if publicCode != "" {
		d, a, amount, err := evaluateDiscount(ctx, repo, userID, publicCode, item, remaining, now)
		if err != nil {
			return nil, nil, err
		}
		public = &appliedDiscount{discount: d, assignment: a, amount: amount}
		remaining -= amount
	}
	if privateCode != "" {
		d, a, amount, err := evaluateDiscount(ctx, repo, userID, privateCode, item, remaining, now)
		if err != nil {
			return nil, nil, err
		}
		private = &appliedDiscount{discount: d, assignment: a, amount: amount}
	}
	return public, private, nil
}

// consumeDiscount burns one use and records the redemption, all inside the
// order transaction.
func consumeDiscount(ctx context.Context, uow *repository.UnitOfWork, applied *appliedDiscount, orderID, userID int64) error {
	if err := uow.Discounts.IncrementUsage(ctx, applied.discount.ID); err != nil {
		return err
	}
	if applied.assignment != nil {
		if err := uow.Discounts.IncrementAssignmentUsage(ctx, applied.assignment.ID); err != nil {
			return err
		}
	}
	return uow.Discounts.CreateRedemption(ctx, &domain.DiscountRedemption{
		DiscountID:    applied.discount.ID,
		OrderID:       orderID,
		UserID:        userID,
		AmountApplied: applied.amount,
		Status:        domain.RedemptionStatusApplied,
	})
}

func (s *orderService) QuoteOrder(ctx context.Context, identity domain.Identity, req CreateOrderRequest) (*utils.Quote, int64, error) {
	item, err := s.repos.Items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, 0, err
	}
	quote, err := utils.CalculateQuote(item.PriceUnit, item.BasePrice, item.DepositPerUnit, req.Quantity, req.StartAt, req.EndAt, s.rate())
	if err != nil {
		return nil, 0, err
	}
	public, private, err := resolveDiscounts(ctx, s.repos.Discounts, identity.UserID, item, quote.RentalAmount,
		[]string{req.DiscountCode, req.SecondaryDiscountCode}, time.Now())
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if public != nil {
		total += public.amount
	}
	if private != nil {
		total += private.amount
	}
	return quote, total, nil
}

func (s *orderService) CreateOrder(ctx context.Context, identity domain.Identity, req CreateOrderRequest) (*domain.Order, error) {
	if identity.Role == domain.UserRoleAdmin || identity.Role == domain.UserRoleModerator {
		return nil, domain.Unauthorizedf("staff accounts cannot place orders")
	}
	now := time.Now()
	rate := s.rate()

	var order *domain.Order
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		item, err := uow.Items.GetByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if item.OwnerID == identity.UserID {
			return domain.Validationf(domain.CodeInvalidInput, "cannot rent your own item")
		}
		if item.Status != domain.ItemStatusAvailable {
			return domain.Conflictf(domain.CodeStateConflict, "item %d is not available for rent", item.ID)
		}
		if req.Quantity > item.AvailableQuantity {
			return domain.Conflictf(domain.CodeItemOutOfStock, "only %d of item %d available", item.AvailableQuantity, item.ID)
		}

		quote, err := utils.CalculateQuote(item.PriceUnit, item.BasePrice, item.DepositPerUnit, req.Quantity, req.StartAt, req.EndAt, rate)
		if err != nil {
			return err
		}
		if item.MaxRentalDuration > 0 && quote.Duration > item.MaxRentalDuration {
			return domain.Validationf(domain.CodeMaxDuration, "rental of %d %ss exceeds the %d %s maximum for this item",
				quote.Duration, utils.UnitLabel(item.PriceUnit), item.MaxRentalDuration, utils.UnitLabel(item.PriceUnit))
		}

		public, private, err := resolveDiscounts(ctx, uow.Discounts, identity.UserID, item, quote.RentalAmount,
			[]string{req.DiscountCode, req.SecondaryDiscountCode}, now)
		if err != nil {
			return err
		}

		order = &domain.Order{
			RenterID:          identity.UserID,
			OwnerID:           item.OwnerID,
			ItemID:            item.ID,
			SnapshotTitle:     item.Title,
			SnapshotBasePrice: item.BasePrice,
			SnapshotImages:    item.Images,
			PriceUnit:         item.PriceUnit,
			Quantity:          req.Quantity,
			StartAt:           req.StartAt,
			EndAt:             req.EndAt,
			RentalDuration:    quote.Duration,
			RentalAmount:      quote.RentalAmount,
			ServiceFee:        quote.ServiceFee,
			DepositAmount:     quote.DepositAmount,
			TotalAmount:       quote.TotalAmount,
			PaymentStatus:     domain.PaymentStatusUnpaid,
			Status:            domain.OrderStatusPending,
		}
		if public != nil {
			order.DiscountCode = public.discount.Code
			order.DiscountAmount = public.amount
		}
		if private != nil {
			order.SecondaryDiscountCode = private.discount.Code
			order.SecondaryDiscountAmount = private.amount
		}
		order.FinalAmount = order.TotalAmount - order.TotalDiscount()
		if order.FinalAmount < 0 {
			order.FinalAmount = 0
		}

		if err := uow.Orders.Create(ctx, order); err != nil {
			return err
		}
		if public != nil {
			if err := consumeDiscount(ctx, uow, public, order.ID, identity.UserID); err != nil {
				return err
			}
		}
		if private != nil {
			if err := consumeDiscount(ctx, uow, private, order.ID, identity.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.OrderTransitionsTotal.WithLabelValues(string(domain.OrderStatusPending), "error").Inc()
		return nil, err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(domain.OrderStatusPending), "ok").Inc()
	logger.Info("order created", "order_id", order.ID, "renter_id", order.RenterID, "item_id", order.ItemID, "final_amount", order.FinalAmount)
	s.disp.orderStatusChanged(order, identity.UserID)
	return order, nil
}

func (s *orderService) ConfirmOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	order, err := s.transition(ctx, domain.OrderStatusConfirmed, func(uow *repository.UnitOfWork, order *domain.Order) error {
		if order.OwnerID != identity.UserID {
			return domain.Unauthorizedf("only the owner can confirm an order")
		}
		if order.Status != domain.OrderStatusPending {
			return domain.Conflictf(domain.CodeStateConflict, "order %d is %s, expected PENDING", order.ID, order.Status)
		}
		// The stock reservation happens here, not at creation. A losing racer
		// gets ITEM_OUT_OF_STOCK from the conditional decrement.
		for i := int32(0); i < order.Quantity; i++ {
			if err := uow.Items.DecrementAvailable(ctx, order.ItemID); err != nil {
				return err
			}
		}
		now := time.Now()
		order.Status = domain.OrderStatusConfirmed
		order.ConfirmedAt = &now
		return uow.Orders.Update(ctx, order)
	}, orderID)
	if err != nil {
		return nil, err
	}
	s.disp.orderStatusChanged(order, identity.UserID)
	s.disp.run("order_points", func(ctx context.Context) error {
		tx, err := s.loyaltySvc.AwardOrderPoints(ctx, order.RenterID, order)
		if err != nil || tx == nil {
			return err
		}
		s.disp.pointsAwarded(order.RenterID, tx.Points, "order confirmed")
		return nil
	})
	return order, nil
}

func (s *orderService) StartOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	order, err := s.transition(ctx, domain.OrderStatusProgress, func(uow *repository.UnitOfWork, order *domain.Order) error {
		if order.OwnerID != identity.UserID {
			return domain.Unauthorizedf("only the owner can hand over the item")
		}
		if order.Status != domain.OrderStatusConfirmed {
			return domain.Conflictf(domain.CodeStateConflict, "order %d is %s, expected CONFIRMED", order.ID, order.Status)
		}
		if time.Now().Before(order.StartAt) {
			return domain.Conflictf(domain.CodeStateConflict, "order %d rental window opens %s", order.ID, order.StartAt.Format("January 2, 2006 15:04"))
		}
		now := time.Now()
		order.Status = domain.OrderStatusProgress
		order.PaymentStatus = domain.PaymentStatusPaid
		order.StartedAt = &now
		return uow.Orders.Update(ctx, order)
	}, orderID)
	if err != nil {
		return nil, err
	}
	s.disp.orderStatusChanged(order, identity.UserID)
	return order, nil
}

func (s *orderService) ReturnOrder(ctx context.Context, identity domain.Identity, orderID int64, note string) (*domain.Order, error) {
	order, err := s.transition(ctx, domain.OrderStatusReturned, func(uow *repository.UnitOfWork, order *domain.Order) error {
		if order.RenterID != identity.UserID {
			return domain.Unauthorizedf("only the renter can report a return")
		}
		if order.Status != domain.OrderStatusProgress {
			return domain.Conflictf(domain.CodeStateConflict, "order %d is %s, expected PROGRESS", order.ID, order.Status)
		}
		now := time.Now()
		order.Status = domain.OrderStatusReturned
		order.ReturnedAt = &now
		order.ReturnNote = note
		return uow.Orders.Update(ctx, order)
	}, orderID)
	if err != nil {
		return nil, err
	}
	s.disp.orderStatusChanged(order, identity.UserID)
	return order, nil
}

func (s *orderService) CompleteOrder(ctx context.Context, identity domain.Identity, req CompleteOrderRequest) (*domain.Order, error) {
	switch req.Condition {
	case domain.ReturnConditionGood, domain.ReturnConditionSlightlyDamaged,
		domain.ReturnConditionHeavilyDamaged, domain.ReturnConditionLost:
	default:
		return nil, domain.Validationf(domain.CodeInvalidInput, "unknown return condition %q", req.Condition)
	}
	if req.DamageFee < 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "damage fee cannot be negative")
	}
	if req.Condition == domain.ReturnConditionGood && req.DamageFee != 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "a good-condition return cannot carry a damage fee")
	}

	order, err := s.transition(ctx, domain.OrderStatusCompleted, func(uow *repository.UnitOfWork, order *domain.Order) error {
		if order.OwnerID != identity.UserID {
			return domain.Unauthorizedf("only the owner can complete an order")
		}
		if order.Status != domain.OrderStatusReturned {
			return domain.Conflictf(domain.CodeStateConflict, "order %d is %s, expected RETURNED", order.ID, order.Status)
		}
		if req.Condition != domain.ReturnConditionLost && req.DamageFee > order.DepositAmount {
			return domain.Validationf(domain.CodeInvalidInput, "damage fee %d exceeds the %d deposit", req.DamageFee, order.DepositAmount)
		}

		// Lost units leave stock for good; anything else goes back on the shelf.
		for i := int32(0); i < order.Quantity; i++ {
			var err error
			if req.Condition == domain.ReturnConditionLost {
				err = uow.Items.DecrementQuantity(ctx, order.ItemID)
			} else {
				err = uow.Items.IncrementAvailable(ctx, order.ItemID)
			}
			if err != nil {
				return err
			}
		}
		if err := uow.Items.IncrementRentCount(ctx, order.ItemID); err != nil {
			return err
		}

		now := time.Now()
		order.Status = domain.OrderStatusCompleted
		order.CompletedAt = &now
		order.ReturnCondition = req.Condition
		order.DamageFee = req.DamageFee
		if req.Note != "" {
			order.ReturnNote = req.Note
		}
		if req.DamageFee > 0 {
			order.PaymentStatus = domain.PaymentStatusPartial
		}
		return uow.Orders.Update(ctx, order)
	}, req.OrderID)
	if err != nil {
		return nil, err
	}

	s.disp.orderStatusChanged(order, identity.UserID)
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, identity domain.Identity, orderID int64, reason string) (*domain.Order, error) {
	var wasConfirmed bool
	order, err := s.transition(ctx, domain.OrderStatusCancelled, func(uow *repository.UnitOfWork, order *domain.Order) error {
		// The renter can only back out before the owner commits stock; once
		// confirmed, cancellation is the owner's call alone.
		switch {
		case order.OwnerID == identity.UserID:
			if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusConfirmed {
				return domain.Conflictf(domain.CodeStateConflict, "order %d can no longer be cancelled by the owner", order.ID)
			}
		case order.RenterID == identity.UserID:
			if order.Status != domain.OrderStatusPending {
				return domain.Conflictf(domain.CodeStateConflict, "order %d can no longer be cancelled by the renter", order.ID)
			}
		default:
			return domain.Unauthorizedf("only a party to the order can cancel it")
		}

		// Confirmed orders hold reserved stock; give it back.
		wasConfirmed = order.Status == domain.OrderStatusConfirmed
		if wasConfirmed {
			for i := int32(0); i < order.Quantity; i++ {
				if err := uow.Items.IncrementAvailable(ctx, order.ItemID); err != nil {
					return err
				}
			}
		}
		if err := uow.Discounts.MarkRedemptionsRefunded(ctx, order.ID); err != nil {
			return err
		}

		now := time.Now()
		order.Status = domain.OrderStatusCancelled
		order.CancelledAt = &now
		order.CancelReason = reason
		if order.PaymentStatus == domain.PaymentStatusPaid {
			order.PaymentStatus = domain.PaymentStatusRefunded
		}
		return uow.Orders.Update(ctx, order)
	}, orderID)
	if err != nil {
		return nil, err
	}
	s.disp.orderStatusChanged(order, identity.UserID)
	if wasConfirmed {
		s.disp.run("order_points_revoke", func(ctx context.Context) error {
			_, err := s.loyaltySvc.RevokeOrderPoints(ctx, order.RenterID, order)
			return err
		})
	}
	return order, nil
}

func (s *orderService) DisputeOrder(ctx context.Context, identity domain.Identity, orderID int64, reason string) (*domain.Order, error) {
	if reason == "" {
		return nil, domain.Validationf(domain.CodeInvalidInput, "a dispute needs a reason")
	}
	order, err := s.transition(ctx, domain.OrderStatusDisputed, func(uow *repository.UnitOfWork, order *domain.Order) error {
		if !order.IsParty(identity.UserID) {
			return domain.Unauthorizedf("only a party to the order can open a dispute")
		}
		switch order.Status {
		case domain.OrderStatusCompleted, domain.OrderStatusCancelled, domain.OrderStatusDisputed:
			return domain.Conflictf(domain.CodeStateConflict, "order %d is %s and can no longer be disputed", order.ID, order.Status)
		}
		now := time.Now()
		order.Status = domain.OrderStatusDisputed
		order.DisputedAt = &now
		order.DisputeReason = reason
		return uow.Orders.Update(ctx, order)
	}, orderID)
	if err != nil {
		return nil, err
	}
	s.disp.orderStatusChanged(order, identity.UserID)
	return order, nil
}

// transition loads the order, applies fn inside one transaction and records
// the outcome metric.
func (s *orderService) transition(ctx context.Context, target domain.OrderStatus, fn func(uow *repository.UnitOfWork, order *domain.Order) error, orderID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		order, err = uow.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		return fn(uow, order)
	})
	if err != nil {
		metrics.OrderTransitionsTotal.WithLabelValues(string(target), "error").Inc()
		return nil, err
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(target), "ok").Inc()
	logger.Info("order transitioned", "order_id", order.ID, "status", order.Status)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParty(identity.UserID) && identity.Role != domain.UserRoleAdmin {
		return nil, domain.Unauthorizedf("not a party to order %d", orderID)
	}
	return order, nil
}

func (s *orderService) ListRentals(ctx context.Context, identity domain.Identity, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.repos.Orders.ListByRenter(ctx, identity.UserID, status, page, pageSize)
}

func (s *orderService) ListLendings(ctx context.Context, identity domain.Identity, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.repos.Orders.ListByOwner(ctx, identity.UserID, status, page, pageSize)
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
