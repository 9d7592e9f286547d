package service

import (
	"context"
	"testing"
	"time"

	"renthub-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func progressOrder() *domain.Order {
	return &domain.Order{
		ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 2,
		SnapshotTitle:     "Cordless drill",
		SnapshotBasePrice: 100_000,
		PriceUnit:         domain.PriceUnitDay,
		StartAt:           time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		EndAt:             time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
		RentalDuration:    2,
		RentalAmount:      400_000,
		ServiceFee:        20_000,
		DepositAmount:     100_000,
		TotalAmount:       520_000,
		FinalAmount:       520_000,
		Status:            domain.OrderStatusProgress,
		PaymentStatus:     domain.PaymentStatusPaid,
	}
}

func TestExtensionService_RequestExtension(t *testing.T) {
	ctx := context.Background()
	renter := domain.Identity{UserID: 1, Role: domain.UserRoleMember}

	t.Run("success", func(t *testing.T) {
		env := newTestEnv()
		svc := NewExtensionService(env.tx, env.uow, env.disp)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(progressOrder(), nil)
		env.extensions.On("GetPendingByOrder", mock.Anything, int64(100)).Return(nil, domain.NotFoundf("none"))
		env.items.On("GetByID", mock.Anything, int64(7)).Return(testItem(), nil)
		env.extensions.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtensionRequest")).Return(nil)
		env.allowSideEffects()

		req, err := svc.RequestExtension(ctx, renter, 100, 3, "need it longer")
		require.NoError(t, err)
		assert.Equal(t, domain.ExtensionStatusPending, req.Status)
		assert.Equal(t, time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC), req.NewEndAt)
		// Rental component only: 100k x 3 days x 2 units.
		assert.Equal(t, int64(600_000), req.AddedFee)
	})

	t.Run("only one pending request per order", func(t *testing.T) {
		env := newTestEnv()
		svc := NewExtensionService(env.tx, env.uow, env.disp)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(progressOrder(), nil)
		env.extensions.On("GetPendingByOrder", mock.Anything, int64(100)).
			Return(&domain.ExtensionRequest{ID: 400, OrderID: 100, Status: domain.ExtensionStatusPending}, nil)

		_, err := svc.RequestExtension(ctx, renter, 100, 1, "")
		require.Error(t, err)
		assert.Equal(t, domain.CodePendingExtension, domain.CodeOf(err))
	})

	t.Run("extension cannot exceed max rental duration", func(t *testing.T) {
		env := newTestEnv()
		svc := NewExtensionService(env.tx, env.uow, env.disp)
		item := testItem()
		item.MaxRentalDuration = 4
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(progressOrder(), nil)
		env.extensions.On("GetPendingByOrder", mock.Anything, int64(100)).Return(nil, domain.NotFoundf("none"))
		env.items.On("GetByID", mock.Anything, int64(7)).Return(item, nil)

		_, err := svc.RequestExtension(ctx, renter, 100, 3, "")
		require.Error(t, err)
		assert.Equal(t, domain.CodeMaxDuration, domain.CodeOf(err))
	})

	t.Run("only the renter may request", func(t *testing.T) {
		env := newTestEnv()
		svc := NewExtensionService(env.tx, env.uow, env.disp)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(progressOrder(), nil)

		_, err := svc.RequestExtension(ctx, domain.Identity{UserID: 2}, 100, 1, "")
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})
}

func TestExtensionService_ApproveExtension(t *testing.T) {
	ctx := context.Background()
	owner := domain.Identity{UserID: 2, Role: domain.UserRoleMember}

	pending := func(order *domain.Order) *domain.ExtensionRequest {
		return &domain.ExtensionRequest{
			ID: 400, OrderID: order.ID, Duration: 3, Unit: domain.PriceUnitDay,
			NewEndAt:    order.EndAt.AddDate(0, 0, 3),
			AddedFee:    600_000,
			Status:      domain.ExtensionStatusPending,
			RequestedBy: order.RenterID,
		}
	}

	t.Run("approval moves end date and totals atomically", func(t *testing.T) {
		env := newTestEnv()
		svc := NewExtensionService(env.tx, env.uow, env.disp)
		order := progressOrder()
		env.extensions.On("GetByID", mock.Anything, int64(400)).Return(pending(order), nil)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(order, nil)
		env.extensions.On("Update", mock.Anything, mock.AnythingOfType("*domain.ExtensionRequest")).Return(nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.items.On("IncrementRentCount", mock.Anything, int64(7)).Return(nil)
		env.allowSideEffects()

		req, err := svc.ApproveExtension(ctx, owner, 400)
		require.NoError(t, err)
		assert.Equal(t, domain.ExtensionStatusApproved, req.Status)
		assert.Equal(t, req.NewEndAt, order.EndAt)
		assert.Equal(t, int32(5), order.RentalDuration)
		assert.Equal(t, int64(1_000_000), order.RentalAmount)
		assert.Equal(t, int64(1_120_000), order.TotalAmount)
		assert.Equal(t, int64(1_120_000), order.FinalAmount)
		env.items.AssertCalled(t, "IncrementRentCount", mock.Anything, int64(7))
	})

	t.Run("already decided requests conflict", func(t *testing.T) {
		env := newTestEnv()
		svc := NewExtensionService(env.tx, env.uow, env.disp)
		order := progressOrder()
		req := pending(order)
		req.Status = domain.ExtensionStatusRejected
		env.extensions.On("GetByID", mock.Anything, int64(400)).Return(req, nil)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(order, nil)

		_, err := svc.ApproveExtension(ctx, owner, 400)
		require.Error(t, err)
		assert.Equal(t, domain.CodeStateConflict, domain.CodeOf(err))
	})

	t.Run("only the owner may decide", func(t *testing.T) {
		env := newTestEnv()
		svc := NewExtensionService(env.tx, env.uow, env.disp)
		order := progressOrder()
		env.extensions.On("GetByID", mock.Anything, int64(400)).Return(pending(order), nil)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(order, nil)

		_, err := svc.ApproveExtension(ctx, domain.Identity{UserID: 1}, 400)
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})
}

func TestExtensionService_RejectExtension(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := NewExtensionService(env.tx, env.uow, env.disp)
	order := progressOrder()
	env.extensions.On("GetByID", mock.Anything, int64(400)).Return(&domain.ExtensionRequest{
		ID: 400, OrderID: 100, Duration: 3, Status: domain.ExtensionStatusPending, RequestedBy: 1,
		NewEndAt: order.EndAt.AddDate(0, 0, 3),
	}, nil)
	env.orders.On("GetByID", mock.Anything, int64(100)).Return(order, nil)
	env.extensions.On("Update", mock.Anything, mock.AnythingOfType("*domain.ExtensionRequest")).Return(nil)
	env.allowSideEffects()

	req, err := svc.RejectExtension(ctx, domain.Identity{UserID: 2}, 400, "item is reserved next week")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtensionStatusRejected, req.Status)
	assert.Equal(t, "item is reserved next week", req.RejectReason)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), order.EndAt)
}
