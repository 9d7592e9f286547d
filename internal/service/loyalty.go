package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"renthub-backend/internal/config"
	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/repository"

	"github.com/google/uuid"
)

// pointsTiers maps an exact point cost to the percent discount it buys.
var pointsTiers = map[int64]int32{
	5000:  5,
	10000: 10,
	20000: 20,
}

const (
	loyaltyCodePrefix = "LYL-"
	codeAttempts      = 5
	// expiredBatchSize bounds one scheduler run.
	expiredBatchSize = 500
)

type loyaltyService struct {
	repos *repository.UnitOfWork
	tx    repository.TxManager
	cfg   config.LoyaltyConfig
}

func NewLoyaltyService(tx repository.TxManager, repos *repository.UnitOfWork, cfg config.LoyaltyConfig) LoyaltyService {
	return &loyaltyService{repos: repos, tx: tx, cfg: cfg}
}

// appendLedger writes one ledger row and moves the user's denormalized
// balance with it, atomically within the caller's transaction.
func appendLedger(ctx context.Context, uow *repository.UnitOfWork, userID, delta int64, typ domain.LoyaltyTransactionType, description string, orderID *int64, expiresAt *time.Time, meta domain.LoyaltyMetadata) (*domain.LoyaltyTransaction, error) {
	user, err := uow.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance := user.Points + delta
	if balance < 0 {
		return nil, domain.Conflictf(domain.CodeInsufficientPoint, "user %d has %d points, needs %d", userID, user.Points, -delta)
	}
	if err := uow.Users.UpdatePoints(ctx, userID, balance); err != nil {
		return nil, err
	}
	row := &domain.LoyaltyTransaction{
		UserID:      userID,
		Points:      delta,
		Balance:     balance,
		Type:        typ,
		Description: description,
		OrderID:     orderID,
		ExpiresAt:   expiresAt,
		Metadata:    meta,
	}
	if err := uow.Loyalty.Append(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func creditExpiry(now time.Time) *time.Time {
	t := now.AddDate(1, 0, 0)
	return &t
}

func (s *loyaltyService) GetBalance(ctx context.Context, identity domain.Identity) (int64, error) {
	user, err := s.repos.Users.GetByID(ctx, identity.UserID)
	if err != nil {
		return 0, err
	}
	return user.Points, nil
}

func (s *loyaltyService) ListHistory(ctx context.Context, identity domain.Identity, page, pageSize int32) ([]domain.LoyaltyTransaction, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.repos.Loyalty.List(ctx, identity.UserID, page, pageSize)
}

func (s *loyaltyService) AddDailyLoginPoints(ctx context.Context, userID int64) (*domain.LoyaltyTransaction, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var row *domain.LoyaltyTransaction
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		awarded, err := uow.Loyalty.HasTypeBetween(ctx, userID, domain.LoyaltyTypeDailyLogin, dayStart, dayStart.Add(24*time.Hour))
		if err != nil {
			return err
		}
		if awarded {
			return nil
		}
		row, err = appendLedger(ctx, uow, userID, s.cfg.DailyLoginPoints, domain.LoyaltyTypeDailyLogin,
			"Daily login reward", nil, creditExpiry(now), domain.LoyaltyMetadata{})
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *loyaltyService) AwardOrderPoints(ctx context.Context, userID int64, order *domain.Order) (*domain.LoyaltyTransaction, error) {
	points := order.FinalAmount / s.cfg.OrderPointsDivisor
	if points <= 0 {
		return nil, nil
	}

	var row *domain.LoyaltyTransaction
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		row, err = appendLedger(ctx, uow, userID, points, domain.LoyaltyTypeOrderCompleted,
			fmt.Sprintf("Points for order #%d", order.ID), &order.ID, creditExpiry(time.Now()), domain.LoyaltyMetadata{})
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("order points awarded", "user_id", userID, "order_id", order.ID, "points", points)
	return row, nil
}

// RevokeOrderPoints claws back what AwardOrderPoints granted when the order
// is later cancelled. The deduction is clamped to the current balance; the
// renter may have spent the points already.
func (s *loyaltyService) RevokeOrderPoints(ctx context.Context, userID int64, order *domain.Order) (*domain.LoyaltyTransaction, error) {
	points := order.FinalAmount / s.cfg.OrderPointsDivisor
	if points <= 0 {
		return nil, nil
	}

	var row *domain.LoyaltyTransaction
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		user, err := uow.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		deduct := points
		if deduct > user.Points {
			deduct = user.Points
		}
		if deduct == 0 {
			return nil
		}
		row, err = appendLedger(ctx, uow, userID, -deduct, domain.LoyaltyTypeOrderCancelled,
			fmt.Sprintf("Order #%d cancelled", order.ID), &order.ID, nil, domain.LoyaltyMetadata{})
		return err
	})
	if err != nil {
		return nil, err
	}
	if row != nil {
		logger.Info("order points revoked", "user_id", userID, "order_id", order.ID, "points", row.Points)
	}
	return row, nil
}

func (s *loyaltyService) AdjustPoints(ctx context.Context, identity domain.Identity, userID, points int64, description string) (*domain.LoyaltyTransaction, error) {
	if identity.Role != domain.UserRoleAdmin {
		return nil, domain.Unauthorizedf("only admins can adjust points")
	}
	if points == 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "adjustment cannot be zero")
	}

	var row *domain.LoyaltyTransaction
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		row, err = appendLedger(ctx, uow, userID, points, domain.LoyaltyTypeAdminAdjustment, description, nil, nil, domain.LoyaltyMetadata{})
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("points adjusted", "admin_id", identity.UserID, "user_id", userID, "points", points)
	return row, nil
}

func (s *loyaltyService) ConvertPointsToDiscount(ctx context.Context, identity domain.Identity, points int64) (*domain.Discount, error) {
	percent, ok := pointsTiers[points]
	if !ok {
		return nil, domain.Validationf(domain.CodeInvalidInput, "no conversion tier for %d points", points)
	}

	var discount *domain.Discount
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		code, err := generateLoyaltyCode(ctx, uow.Discounts)
		if err != nil {
			return err
		}

		now := time.Now()
		discount = &domain.Discount{
			Code:       code,
			Name:       fmt.Sprintf("%d%% loyalty reward", percent),
			Type:       domain.DiscountTypePercent,
			Value:      int64(percent),
			StartsAt:   now,
			ExpiresAt:  now.AddDate(0, 1, 0),
			UsageLimit: 1,
			IsPublic:   false,
			IsActive:   true,
		}
		if err := uow.Discounts.Create(ctx, discount); err != nil {
			return err
		}
		if err := uow.Discounts.CreateAssignment(ctx, &domain.DiscountAssignment{
			DiscountID:   discount.ID,
			UserID:       identity.UserID,
			PerUserLimit: 1,
		}); err != nil {
			return err
		}

		_, err = appendLedger(ctx, uow, identity.UserID, -points, domain.LoyaltyTypePointsToDiscount,
			fmt.Sprintf("Converted %d points to a %d%% discount", points, percent), nil, nil,
			domain.LoyaltyMetadata{DiscountCode: code, TierPercent: percent})
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("points converted to discount", "user_id", identity.UserID, "points", points, "code", discount.Code)
	return discount, nil
}

// generateLoyaltyCode draws random codes until one is free, giving up after a
// few collisions rather than looping forever.
func generateLoyaltyCode(ctx context.Context, repo repository.DiscountRepository) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
		code := loyaltyCodePrefix + raw[:8]
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", domain.Invariantf(domain.CodeCodeGeneration, "could not generate a unique discount code after %d attempts", codeAttempts)
}

// ExpirePoints offsets every credit whose expiry has passed with a negative
// EXPIRED row. A user's balance may already be below the expiring credit; in
// that case only what remains is taken.
func (s *loyaltyService) ExpirePoints(ctx context.Context, asOf time.Time) (int, error) {
	credits, err := s.repos.Loyalty.ListExpiredCredits(ctx, asOf, expiredBatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, credit := range credits {
		credit := credit
		err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
			user, err := uow.Users.GetByID(ctx, credit.UserID)
			if err != nil {
				return err
			}
			deduct := credit.Points
			if deduct > user.Points {
				deduct = user.Points
			}
			if deduct > 0 {
				if _, err := appendLedger(ctx, uow, credit.UserID, -deduct, domain.LoyaltyTypeExpired,
					fmt.Sprintf("Points from %s expired", credit.CreatedOn.Format("2006-01-02")), nil, nil,
					domain.LoyaltyMetadata{SourceTransactionID: credit.ID}); err != nil {
					return err
				}
			}
			return uow.Loyalty.MarkExpiredProcessed(ctx, credit.ID)
		})
		if err != nil {
			logger.Error("failed to expire loyalty credit", "transaction_id", credit.ID, "user_id", credit.UserID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}
