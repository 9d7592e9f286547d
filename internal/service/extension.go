package service

import (
	"context"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/repository"
	"renthub-backend/internal/utils"
)

type extensionService struct {
	repos *repository.UnitOfWork
	tx    repository.TxManager
	disp  *dispatcher
}

func NewExtensionService(tx repository.TxManager, repos *repository.UnitOfWork, disp *dispatcher) ExtensionService {
	return &extensionService{repos: repos, tx: tx, disp: disp}
}

func (s *extensionService) RequestExtension(ctx context.Context, identity domain.Identity, orderID int64, duration int32, note string) (*domain.ExtensionRequest, error) {
	if duration < 1 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "extension duration must be at least 1")
	}

	var (
		order *domain.Order
		req   *domain.ExtensionRequest
	)
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		order, err = uow.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.RenterID != identity.UserID {
			return domain.Unauthorizedf("only the renter can request an extension")
		}
		if order.Status != domain.OrderStatusProgress {
			return domain.Conflictf(domain.CodeStateConflict, "order %d is %s, extensions require PROGRESS", order.ID, order.Status)
		}
		if _, err := uow.Extensions.GetPendingByOrder(ctx, orderID); err == nil {
			return domain.Conflictf(domain.CodePendingExtension, "order %d already has a pending extension request", orderID)
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}

		item, err := uow.Items.GetByID(ctx, order.ItemID)
		if err != nil {
			return err
		}
		if item.MaxRentalDuration > 0 && order.RentalDuration+duration > item.MaxRentalDuration {
			return domain.Validationf(domain.CodeMaxDuration, "extension would exceed the %d %s maximum for this item",
				item.MaxRentalDuration, utils.UnitLabel(order.PriceUnit))
		}

		unitHours, ok := utils.UnitHours(order.PriceUnit)
		if !ok {
			return domain.Invariantf(domain.CodeInvalidInput, "order %d carries unknown price unit %q", order.ID, order.PriceUnit)
		}
		newEndAt := order.EndAt.Add(time.Duration(float64(duration) * unitHours * float64(time.Hour)))

		// The added fee is priced at the snapshot rate, rental component only.
		// Deposit was already collected and the service fee on the extension is
		// absorbed by the platform.
		addedFee := order.SnapshotBasePrice * int64(duration) * int64(order.Quantity)

		req = &domain.ExtensionRequest{
			OrderID:     orderID,
			Duration:    duration,
			Unit:        order.PriceUnit,
			NewEndAt:    newEndAt,
			AddedFee:    addedFee,
			Status:      domain.ExtensionStatusPending,
			RequestedBy: identity.UserID,
			Note:        note,
		}
		return uow.Extensions.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("extension requested", "order_id", orderID, "request_id", req.ID, "duration", duration)
	s.disp.extensionRequested(order, req)
	return req, nil
}

func (s *extensionService) ApproveExtension(ctx context.Context, identity domain.Identity, requestID int64) (*domain.ExtensionRequest, error) {
	var (
		order *domain.Order
		req   *domain.ExtensionRequest
	)
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		req, order, err = s.loadPendingRequest(ctx, uow, identity, requestID)
		if err != nil {
			return err
		}

		now := time.Now()
		req.Status = domain.ExtensionStatusApproved
		req.DecidedBy = &identity.UserID
		req.DecidedOn = &now
		if err := uow.Extensions.Update(ctx, req); err != nil {
			return err
		}

		// The order absorbs the extension atomically with the decision.
		order.EndAt = req.NewEndAt
		order.RentalDuration += req.Duration
		order.RentalAmount += req.AddedFee
		order.TotalAmount += req.AddedFee
		order.FinalAmount += req.AddedFee
		if err := uow.Orders.Update(ctx, order); err != nil {
			return err
		}
		return uow.Items.IncrementRentCount(ctx, order.ItemID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("extension approved", "order_id", order.ID, "request_id", req.ID, "new_end_at", req.NewEndAt)
	s.disp.extensionDecided(order, req)
	return req, nil
}

func (s *extensionService) RejectExtension(ctx context.Context, identity domain.Identity, requestID int64, reason string) (*domain.ExtensionRequest, error) {
	var (
		order *domain.Order
		req   *domain.ExtensionRequest
	)
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		req, order, err = s.loadPendingRequest(ctx, uow, identity, requestID)
		if err != nil {
			return err
		}

		now := time.Now()
		req.Status = domain.ExtensionStatusRejected
		req.DecidedBy = &identity.UserID
		req.DecidedOn = &now
		req.RejectReason = reason
		return uow.Extensions.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("extension rejected", "order_id", order.ID, "request_id", req.ID)
	s.disp.extensionDecided(order, req)
	return req, nil
}

func (s *extensionService) loadPendingRequest(ctx context.Context, uow *repository.UnitOfWork, identity domain.Identity, requestID int64) (*domain.ExtensionRequest, *domain.Order, error) {
	req, err := uow.Extensions.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	order, err := uow.Orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order.OwnerID != identity.UserID {
		return nil, nil, domain.Unauthorizedf("only the owner can decide an extension request")
	}
	if req.Status != domain.ExtensionStatusPending {
		return nil, nil, domain.Conflictf(domain.CodeStateConflict, "extension request %d was already decided", requestID)
	}
	if order.Status != domain.OrderStatusProgress {
		return nil, nil, domain.Conflictf(domain.CodeStateConflict, "order %d is %s, extensions require PROGRESS", order.ID, order.Status)
	}
	return req, order, nil
}

func (s *extensionService) ListExtensions(ctx context.Context, identity domain.Identity, orderID int64) ([]domain.ExtensionRequest, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParty(identity.UserID) && identity.Role != domain.UserRoleAdmin {
		return nil, domain.Unauthorizedf("not a party to order %d", orderID)
	}
	return s.repos.Extensions.ListByOrder(ctx, orderID)
}
