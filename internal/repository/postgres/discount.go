package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"

	"github.com/lib/pq"
)

type discountRepository struct {
	q Querier
}

func NewDiscountRepository(q Querier) repository.DiscountRepository {
	return &discountRepository{q: q}
}

const discountColumns = `id, code, name, type, value, max_discount_amount, min_order_amount, starts_at, expires_at,
	usage_limit, used_count, is_public, is_active, owner_id, item_id, allowed_user_ids, created_on, updated_on`

func (r *discountRepository) Create(ctx context.Context, d *domain.Discount) error {
	query := `INSERT INTO discounts (code, name, type, value, max_discount_amount, min_order_amount, starts_at, expires_at,
	            usage_limit, used_count, is_public, is_active, owner_id, item_id, allowed_user_ids, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17) RETURNING id`
	now := time.Now()
	d.Code = strings.ToUpper(d.Code)
	return r.q.QueryRowContext(ctx, query, d.Code, d.Name, d.Type, d.Value, d.MaxDiscountAmount, d.MinOrderAmount,
		d.StartsAt, d.ExpiresAt, d.UsageLimit, d.UsedCount, d.IsPublic, d.IsActive,
		d.OwnerID, d.ItemID, pq.Array(d.AllowedUserIDs), now, now).Scan(&d.ID)
}

func (r *discountRepository) GetByCode(ctx context.Context, code string) (*domain.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE code = $1`
	d := &domain.Discount{}
	err := r.q.QueryRowContext(ctx, query, strings.ToUpper(code)).Scan(&d.ID, &d.Code, &d.Name, &d.Type, &d.Value,
		&d.MaxDiscountAmount, &d.MinOrderAmount, &d.StartsAt, &d.ExpiresAt, &d.UsageLimit, &d.UsedCount,
		&d.IsPublic, &d.IsActive, &d.OwnerID, &d.ItemID, pq.Array(&d.AllowedUserIDs), &d.CreatedOn, &d.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Validationf(domain.CodeInvalidCode, "discount code %q not found", code)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *discountRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM discounts WHERE code = $1)`
	err := r.q.QueryRowContext(ctx, query, strings.ToUpper(code)).Scan(&exists)
	return exists, err
}

// IncrementUsage re-checks the usage cap inside the write so two concurrent
// orders cannot both consume the last use.
func (r *discountRepository) IncrementUsage(ctx context.Context, discountID int64) error {
	query := `UPDATE discounts SET used_count = used_count + 1, updated_on = $2
	          WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)`
	res, err := r.q.ExecContext(ctx, query, discountID, time.Now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Conflictf(domain.CodeUsageExceeded, "discount %d usage limit reached", discountID)
	}
	return nil
}

func (r *discountRepository) GetAssignment(ctx context.Context, discountID, userID int64) (*domain.DiscountAssignment, error) {
	query := `SELECT id, discount_id, user_id, per_user_limit, used_count, effective_at, expires_at, created_on
	          FROM discount_assignments WHERE discount_id = $1 AND user_id = $2`
	a := &domain.DiscountAssignment{}
	err := r.q.QueryRowContext(ctx, query, discountID, userID).Scan(&a.ID, &a.DiscountID, &a.UserID,
		&a.PerUserLimit, &a.UsedCount, &a.EffectiveAt, &a.ExpiresAt, &a.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("no assignment of discount %d for user %d", discountID, userID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *discountRepository) CreateAssignment(ctx context.Context, a *domain.DiscountAssignment) error {
	query := `INSERT INTO discount_assignments (discount_id, user_id, per_user_limit, used_count, effective_at, expires_at, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.q.QueryRowContext(ctx, query, a.DiscountID, a.UserID, a.PerUserLimit, a.UsedCount,
		a.EffectiveAt, a.ExpiresAt, time.Now()).Scan(&a.ID)
}

func (r *discountRepository) IncrementAssignmentUsage(ctx context.Context, assignmentID int64) error {
	query := `UPDATE discount_assignments SET used_count = used_count + 1
	          WHERE id = $1 AND (per_user_limit = 0 OR used_count < per_user_limit)`
	res, err := r.q.ExecContext(ctx, query, assignmentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Conflictf(domain.CodeUsageExceeded, "assignment %d per-user limit reached", assignmentID)
	}
	return nil
}

func (r *discountRepository) CreateRedemption(ctx context.Context, red *domain.DiscountRedemption) error {
	query := `INSERT INTO discount_redemptions (discount_id, order_id, user_id, amount_applied, status, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.q.QueryRowContext(ctx, query, red.DiscountID, red.OrderID, red.UserID,
		red.AmountApplied, red.Status, time.Now()).Scan(&red.ID)
}

func (r *discountRepository) MarkRedemptionsRefunded(ctx context.Context, orderID int64) error {
	query := `UPDATE discount_redemptions SET status = $2 WHERE order_id = $1 AND status = $3`
	_, err := r.q.ExecContext(ctx, query, orderID, domain.RedemptionStatusRefunded, domain.RedemptionStatusApplied)
	return err
}
