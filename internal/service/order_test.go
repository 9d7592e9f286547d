package service

import (
	"context"
	"testing"
	"time"

	"renthub-backend/internal/config"
	"renthub-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testRate() float64 { return 0.05 }

func newOrderEnv(t *testing.T) (*testEnv, OrderService) {
	t.Helper()
	env := newTestEnv()
	loyaltySvc := NewLoyaltyService(env.tx, env.uow, config.LoyaltyConfig{OrderPointsDivisor: 10000, DailyLoginPoints: 10})
	svc := NewOrderService(env.tx, env.uow, env.disp, testRate, loyaltySvc)
	return env, svc
}

func testItem() *domain.Item {
	return &domain.Item{
		ID:                7,
		OwnerID:           2,
		Title:             "Cordless drill",
		PriceUnit:         domain.PriceUnitDay,
		BasePrice:         100_000,
		DepositPerUnit:    50_000,
		Quantity:          3,
		AvailableQuantity: 3,
		Status:            domain.ItemStatusAvailable,
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	renter := domain.Identity{UserID: 1, Role: domain.UserRoleMember}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	t.Run("success without discounts", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.items.On("GetByID", mock.Anything, int64(7)).Return(testItem(), nil)
		env.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.CreateOrder(ctx, renter, CreateOrderRequest{
			ItemID:   7,
			Quantity: 2,
			StartAt:  start,
			EndAt:    end,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, domain.PaymentStatusUnpaid, order.PaymentStatus)
		assert.Equal(t, int64(400_000), order.RentalAmount)
		assert.Equal(t, int64(20_000), order.ServiceFee)
		assert.Equal(t, int64(100_000), order.DepositAmount)
		assert.Equal(t, int64(520_000), order.TotalAmount)
		assert.Equal(t, order.TotalAmount, order.FinalAmount)
		assert.Equal(t, "Cordless drill", order.SnapshotTitle)
	})

	t.Run("public and private codes stack on rental only", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.items.On("GetByID", mock.Anything, int64(7)).Return(testItem(), nil)
		env.discounts.On("GetByCode", mock.Anything, "SPRING10").Return(&domain.Discount{
			ID: 20, Code: "SPRING10", Type: domain.DiscountTypePercent, Value: 10,
			StartsAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().AddDate(0, 2, 0),
			IsPublic: true, IsActive: true,
		}, nil)
		env.discounts.On("GetByCode", mock.Anything, "VIP50K").Return(&domain.Discount{
			ID: 21, Code: "VIP50K", Type: domain.DiscountTypeFixed, Value: 50_000,
			StartsAt: time.Now().Add(-time.Hour), ExpiresAt: time.Now().AddDate(0, 2, 0),
			IsPublic: false, IsActive: true, AllowedUserIDs: []int64{1},
		}, nil)
		env.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.discounts.On("IncrementUsage", mock.Anything, int64(20)).Return(nil)
		env.discounts.On("IncrementUsage", mock.Anything, int64(21)).Return(nil)
		env.discounts.On("CreateRedemption", mock.Anything, mock.AnythingOfType("*domain.DiscountRedemption")).Return(nil)
		env.allowSideEffects()

		order, err := svc.CreateOrder(ctx, renter, CreateOrderRequest{
			ItemID:                7,
			Quantity:              2,
			StartAt:               start,
			EndAt:                 end,
			DiscountCode:          "SPRING10",
			SecondaryDiscountCode: "VIP50K",
		})
		require.NoError(t, err)
		// 10% of 400k, then 50k off the remaining 360k.
		assert.Equal(t, int64(40_000), order.DiscountAmount)
		assert.Equal(t, int64(50_000), order.SecondaryDiscountAmount)
		assert.Equal(t, int64(520_000-90_000), order.FinalAmount)
		env.discounts.AssertNumberOfCalls(t, "CreateRedemption", 2)
	})

	t.Run("cannot rent own item", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.items.On("GetByID", mock.Anything, int64(7)).Return(testItem(), nil)

		_, err := svc.CreateOrder(ctx, domain.Identity{UserID: 2}, CreateOrderRequest{
			ItemID: 7, Quantity: 1, StartAt: start, EndAt: end,
		})
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("quantity above availability", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.items.On("GetByID", mock.Anything, int64(7)).Return(testItem(), nil)

		_, err := svc.CreateOrder(ctx, renter, CreateOrderRequest{
			ItemID: 7, Quantity: 5, StartAt: start, EndAt: end,
		})
		require.Error(t, err)
		assert.Equal(t, domain.CodeItemOutOfStock, domain.CodeOf(err))
	})

	t.Run("max rental duration enforced", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		item := testItem()
		item.MaxRentalDuration = 3
		env.items.On("GetByID", mock.Anything, int64(7)).Return(item, nil)

		_, err := svc.CreateOrder(ctx, renter, CreateOrderRequest{
			ItemID: 7, Quantity: 1, StartAt: start, EndAt: start.AddDate(0, 0, 10),
		})
		require.Error(t, err)
		assert.Equal(t, domain.CodeMaxDuration, domain.CodeOf(err))
	})

	t.Run("staff accounts cannot place orders", func(t *testing.T) {
		env, svc := newOrderEnv(t)

		for _, role := range []domain.UserRole{domain.UserRoleAdmin, domain.UserRoleModerator} {
			_, err := svc.CreateOrder(ctx, domain.Identity{UserID: 9, Role: role}, CreateOrderRequest{
				ItemID: 7, Quantity: 1, StartAt: start, EndAt: end,
			})
			require.Error(t, err)
			assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
		}
		env.items.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestOrderService_ConfirmOrder(t *testing.T) {
	ctx := context.Background()
	owner := domain.Identity{UserID: 2, Role: domain.UserRoleMember}

	pendingOrder := func() *domain.Order {
		return &domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 2,
			SnapshotTitle: "Cordless drill",
			FinalAmount:   370_000,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusUnpaid,
		}
	}

	t.Run("success reserves stock and awards points", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(pendingOrder(), nil)
		env.items.On("DecrementAvailable", mock.Anything, int64(7)).Return(nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.ConfirmOrder(ctx, owner, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
		assert.NotNil(t, order.ConfirmedAt)
		env.items.AssertNumberOfCalls(t, "DecrementAvailable", 2)
		// 370_000 / 10_000 points for the renter, credited at confirmation.
		env.loyalty.AssertCalled(t, "Append", mock.Anything, mock.MatchedBy(func(tx *domain.LoyaltyTransaction) bool {
			return tx.Points == 37 && tx.Type == domain.LoyaltyTypeOrderCompleted
		}))
	})

	t.Run("losing the stock race surfaces the conflict", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(pendingOrder(), nil)
		env.items.On("DecrementAvailable", mock.Anything, int64(7)).
			Return(domain.Conflictf(domain.CodeItemOutOfStock, "out of stock"))

		_, err := svc.ConfirmOrder(ctx, owner, 100)
		require.Error(t, err)
		assert.Equal(t, domain.CodeItemOutOfStock, domain.CodeOf(err))
	})

	t.Run("only the owner may confirm", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(pendingOrder(), nil)

		_, err := svc.ConfirmOrder(ctx, domain.Identity{UserID: 1}, 100)
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})

	t.Run("wrong state is a conflict", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		o := pendingOrder()
		o.Status = domain.OrderStatusProgress
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(o, nil)

		_, err := svc.ConfirmOrder(ctx, owner, 100)
		require.Error(t, err)
		assert.Equal(t, domain.CodeStateConflict, domain.CodeOf(err))
	})
}

func TestOrderService_StartOrder(t *testing.T) {
	ctx := context.Background()
	owner := domain.Identity{UserID: 2, Role: domain.UserRoleMember}

	confirmedOrder := func(startAt time.Time) *domain.Order {
		return &domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 1,
			SnapshotTitle: "Cordless drill",
			StartAt:       startAt,
			Status:        domain.OrderStatusConfirmed,
			PaymentStatus: domain.PaymentStatusUnpaid,
		}
	}

	t.Run("handover inside the rental window", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(confirmedOrder(time.Now().Add(-time.Hour)), nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.StartOrder(ctx, owner, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusProgress, order.Status)
		assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
		assert.NotNil(t, order.StartedAt)
	})

	t.Run("handover before the window opens is a conflict", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(confirmedOrder(time.Now().Add(48*time.Hour)), nil)

		_, err := svc.StartOrder(ctx, owner, 100)
		require.Error(t, err)
		assert.Equal(t, domain.CodeStateConflict, domain.CodeOf(err))
		env.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("only the owner may hand over", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(confirmedOrder(time.Now().Add(-time.Hour)), nil)

		_, err := svc.StartOrder(ctx, domain.Identity{UserID: 1}, 100)
		require.Error(t, err)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})
}

func TestOrderService_CompleteOrder(t *testing.T) {
	ctx := context.Background()
	owner := domain.Identity{UserID: 2, Role: domain.UserRoleMember}

	returnedOrder := func() *domain.Order {
		return &domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 1,
			SnapshotTitle: "Cordless drill",
			DepositAmount: 50_000,
			FinalAmount:   370_000,
			Status:        domain.OrderStatusReturned,
			PaymentStatus: domain.PaymentStatusPaid,
		}
	}

	t.Run("good return restores stock and stays fully paid", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(returnedOrder(), nil)
		env.items.On("IncrementAvailable", mock.Anything, int64(7)).Return(nil)
		env.items.On("IncrementRentCount", mock.Anything, int64(7)).Return(nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.CompleteOrder(ctx, owner, CompleteOrderRequest{
			OrderID: 100, Condition: domain.ReturnConditionGood,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCompleted, order.Status)
		assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
		// Points were already credited at confirmation.
		env.loyalty.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("lost item leaves stock permanently", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(returnedOrder(), nil)
		env.items.On("DecrementQuantity", mock.Anything, int64(7)).Return(nil)
		env.items.On("IncrementRentCount", mock.Anything, int64(7)).Return(nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.CompleteOrder(ctx, owner, CompleteOrderRequest{
			OrderID: 100, Condition: domain.ReturnConditionLost, DamageFee: 200_000,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPartial, order.PaymentStatus)
		env.items.AssertNotCalled(t, "IncrementAvailable", mock.Anything, mock.Anything)
	})

	t.Run("damage fee above deposit rejected for non-lost", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(returnedOrder(), nil)

		_, err := svc.CompleteOrder(ctx, owner, CompleteOrderRequest{
			OrderID: 100, Condition: domain.ReturnConditionSlightlyDamaged, DamageFee: 60_000,
		})
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("good condition cannot carry a damage fee", func(t *testing.T) {
		_, svc := newOrderEnv(t)
		_, err := svc.CompleteOrder(ctx, owner, CompleteOrderRequest{
			OrderID: 100, Condition: domain.ReturnConditionGood, DamageFee: 1,
		})
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("renter cancels while pending", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(&domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 2,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusUnpaid,
		}, nil)
		env.discounts.On("MarkRedemptionsRefunded", mock.Anything, int64(100)).Return(nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.CancelOrder(ctx, domain.Identity{UserID: 1}, 100, "change of plans")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
		assert.Equal(t, "change of plans", order.CancelReason)
		// Nothing was reserved yet, so nothing comes back.
		env.items.AssertNotCalled(t, "IncrementAvailable", mock.Anything, mock.Anything)
	})

	t.Run("owner cancelling a confirmed order restores stock and claws back points", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(&domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 2,
			FinalAmount:   370_000,
			Status:        domain.OrderStatusConfirmed,
			PaymentStatus: domain.PaymentStatusUnpaid,
		}, nil)
		env.users.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Email: "renter@test.com", Name: "Renter", Points: 500}, nil)
		env.items.On("IncrementAvailable", mock.Anything, int64(7)).Return(nil)
		env.discounts.On("MarkRedemptionsRefunded", mock.Anything, int64(100)).Return(nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.CancelOrder(ctx, domain.Identity{UserID: 2}, 100, "tool needs repair")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, order.Status)
		env.items.AssertNumberOfCalls(t, "IncrementAvailable", 2)
		// The award made at confirmation is taken back.
		env.loyalty.AssertCalled(t, "Append", mock.Anything, mock.MatchedBy(func(tx *domain.LoyaltyTransaction) bool {
			return tx.Points == -37 && tx.Type == domain.LoyaltyTypeOrderCancelled
		}))
	})

	t.Run("renter cannot cancel once confirmed", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(&domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 1,
			Status: domain.OrderStatusConfirmed,
		}, nil)

		_, err := svc.CancelOrder(ctx, domain.Identity{UserID: 1}, 100, "")
		require.Error(t, err)
		assert.Equal(t, domain.CodeStateConflict, domain.CodeOf(err))
	})

	t.Run("owner cannot cancel in progress", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(&domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 1,
			Status: domain.OrderStatusProgress,
		}, nil)

		_, err := svc.CancelOrder(ctx, domain.Identity{UserID: 2}, 100, "")
		require.Error(t, err)
		assert.Equal(t, domain.CodeStateConflict, domain.CodeOf(err))
	})
}

func TestOrderService_DisputeOrder(t *testing.T) {
	ctx := context.Background()

	activeOrder := func(status domain.OrderStatus) *domain.Order {
		return &domain.Order{
			ID: 100, RenterID: 1, OwnerID: 2, ItemID: 7, Quantity: 1,
			Status: status,
		}
	}

	t.Run("renter disputes an order in progress", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(activeOrder(domain.OrderStatusProgress), nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.DisputeOrder(ctx, domain.Identity{UserID: 1}, 100, "item broke on day one")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDisputed, order.Status)
		assert.NotNil(t, order.DisputedAt)
	})

	t.Run("a pending order can be disputed", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(activeOrder(domain.OrderStatusPending), nil)
		env.orders.On("Update", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
		env.allowSideEffects()

		order, err := svc.DisputeOrder(ctx, domain.Identity{UserID: 2}, 100, "renter unreachable")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDisputed, order.Status)
	})

	t.Run("terminal orders cannot be disputed", func(t *testing.T) {
		env, svc := newOrderEnv(t)
		env.orders.On("GetByID", mock.Anything, int64(100)).Return(activeOrder(domain.OrderStatusCancelled), nil)

		_, err := svc.DisputeOrder(ctx, domain.Identity{UserID: 1}, 100, "too late")
		require.Error(t, err)
		assert.Equal(t, domain.CodeStateConflict, domain.CodeOf(err))
	})

	t.Run("a dispute needs a reason", func(t *testing.T) {
		_, svc := newOrderEnv(t)
		_, err := svc.DisputeOrder(ctx, domain.Identity{UserID: 1}, 100, "")
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}
