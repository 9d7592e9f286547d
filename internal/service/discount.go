package service

import (
	"context"
	"strings"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/repository"
)

type discountService struct {
	repos *repository.UnitOfWork
	tx    repository.TxManager
}

func NewDiscountService(tx repository.TxManager, repos *repository.UnitOfWork) DiscountService {
	return &discountService{repos: repos, tx: tx}
}

// evaluateDiscount checks a code against an order preview and prices it.
// It reads but never writes: usage is consumed separately, inside the order
// transaction, so a preview can never burn a redemption.
func evaluateDiscount(ctx context.Context, repo repository.DiscountRepository, userID int64, code string, item *domain.Item, baseAmount int64, now time.Time) (*domain.Discount, *domain.DiscountAssignment, int64, error) {
	d, err := repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, nil, 0, err
	}
	if !d.IsActive {
		return nil, nil, 0, domain.Validationf(domain.CodeInvalidCode, "discount %q is not active", d.Code)
	}
	if now.Before(d.StartsAt) {
		return nil, nil, 0, domain.Validationf(domain.CodeNotStarted, "discount %q is not valid yet", d.Code)
	}
	if now.After(d.ExpiresAt) {
		return nil, nil, 0, domain.Validationf(domain.CodeExpired, "discount %q has expired", d.Code)
	}
	if d.OwnerID != 0 && d.OwnerID != item.OwnerID {
		return nil, nil, 0, domain.Validationf(domain.CodeOwnerNotMatch, "discount %q does not apply to this owner's items", d.Code)
	}
	if d.ItemID != 0 && d.ItemID != item.ID {
		return nil, nil, 0, domain.Validationf(domain.CodeItemNotMatch, "discount %q does not apply to this item", d.Code)
	}
	if baseAmount < d.MinOrderAmount {
		return nil, nil, 0, domain.Validationf(domain.CodeBelowMinOrder, "order amount %d is below the %d minimum for %q", baseAmount, d.MinOrderAmount, d.Code)
	}
	if d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit {
		return nil, nil, 0, domain.Conflictf(domain.CodeUsageExceeded, "discount %q has been fully redeemed", d.Code)
	}

	// Private codes require eligibility: either the allow-list names the user
	// (no per-user cap on this path) or an assignment with its own cap and
	// validity window exists.
	var assignment *domain.DiscountAssignment
	if !d.IsPublic {
		if !containsID(d.AllowedUserIDs, userID) {
			assignment, err = repo.GetAssignment(ctx, d.ID, userID)
			if domain.KindOf(err) == domain.KindNotFound {
				return nil, nil, 0, domain.Validationf(domain.CodeNotAllowedUser, "discount %q is not available to this user", d.Code)
			}
			if err != nil {
				return nil, nil, 0, err
			}
			if !assignment.Active(now) {
				return nil, nil, 0, domain.Validationf(domain.CodeNotAllowedUser, "discount %q is outside its validity window for this user", d.Code)
			}
			if assignment.PerUserLimit > 0 && assignment.UsedCount >= assignment.PerUserLimit {
				return nil, nil, 0, domain.Conflictf(domain.CodeUsageExceeded, "per-user limit for discount %q reached", d.Code)
			}
		}
	}

	amount := discountAmount(d, baseAmount)
	return d, assignment, amount, nil
}

// discountAmount prices a discount against a base amount: percent values are
// floored, fixed values taken as-is, then clamped to the optional cap and
// never more than the base itself.
func discountAmount(d *domain.Discount, baseAmount int64) int64 {
	var amount int64
	switch d.Type {
	case domain.DiscountTypePercent:
		amount = baseAmount * d.Value / 100
	default:
		amount = d.Value
	}
	if d.MaxDiscountAmount > 0 && amount > d.MaxDiscountAmount {
		amount = d.MaxDiscountAmount
	}
	if amount > baseAmount {
		amount = baseAmount
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *discountService) ValidateDiscount(ctx context.Context, identity domain.Identity, code string, itemID int64, rentalAmount int64) (*domain.Discount, int64, error) {
	item, err := s.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, 0, err
	}
	d, _, amount, err := evaluateDiscount(ctx, s.repos.Discounts, identity.UserID, code, item, rentalAmount, time.Now())
	if err != nil {
		return nil, 0, err
	}
	return d, amount, nil
}

func (s *discountService) CreateDiscount(ctx context.Context, identity domain.Identity, req CreateDiscountRequest) (*domain.Discount, error) {
	if identity.Role != domain.UserRoleAdmin && req.OwnerID != identity.UserID {
		return nil, domain.Unauthorizedf("only admins can create discounts not scoped to their own items")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, domain.Validationf(domain.CodeInvalidInput, "discount code is required")
	}
	if req.Type != domain.DiscountTypePercent && req.Type != domain.DiscountTypeFixed {
		return nil, domain.Validationf(domain.CodeInvalidInput, "unknown discount type %q", req.Type)
	}
	if req.Value <= 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "discount value must be positive")
	}
	if req.Type == domain.DiscountTypePercent && req.Value > 100 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "percent discount cannot exceed 100")
	}
	if !req.ExpiresAt.After(req.StartsAt) {
		return nil, domain.Validationf(domain.CodeInvalidInput, "discount must expire after it starts")
	}
	if req.IsPublic && len(req.AllowedUserIDs) > 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "public discounts cannot carry an allow-list")
	}

	exists, err := s.repos.Discounts.CodeExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Conflictf(domain.CodeStateConflict, "discount code %q already exists", code)
	}

	d := &domain.Discount{
		Code:              code,
		Name:              req.Name,
		Type:              req.Type,
		Value:             req.Value,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderAmount:    req.MinOrderAmount,
		StartsAt:          req.StartsAt,
		ExpiresAt:         req.ExpiresAt,
		UsageLimit:        req.UsageLimit,
		IsPublic:          req.IsPublic,
		IsActive:          true,
		OwnerID:           req.OwnerID,
		ItemID:            req.ItemID,
		AllowedUserIDs:    req.AllowedUserIDs,
	}
	if err := s.repos.Discounts.Create(ctx, d); err != nil {
		return nil, err
	}
	logger.Info("discount created", "discount_id", d.ID, "code", d.Code, "public", d.IsPublic)
	return d, nil
}

func (s *discountService) AssignDiscount(ctx context.Context, identity domain.Identity, req AssignDiscountRequest) (*domain.DiscountAssignment, error) {
	if identity.Role != domain.UserRoleAdmin {
		return nil, domain.Unauthorizedf("only admins can assign discounts")
	}

	var assignment *domain.DiscountAssignment
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		_, err := uow.Discounts.GetAssignment(ctx, req.DiscountID, req.UserID)
		if err == nil {
			return domain.Conflictf(domain.CodeStateConflict, "user %d already holds discount %d", req.UserID, req.DiscountID)
		}
		if domain.KindOf(err) != domain.KindNotFound {
			return err
		}

		if _, err := uow.Users.GetByID(ctx, req.UserID); err != nil {
			return err
		}

		assignment = &domain.DiscountAssignment{
			DiscountID:   req.DiscountID,
			UserID:       req.UserID,
			PerUserLimit: req.PerUserLimit,
			EffectiveAt:  req.EffectiveAt,
			ExpiresAt:    req.ExpiresAt,
		}
		return uow.Discounts.CreateAssignment(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}
