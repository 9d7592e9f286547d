package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"

	"github.com/lib/pq"
)

type orderRepository struct {
	q Querier
}

func NewOrderRepository(q Querier) repository.OrderRepository {
	return &orderRepository{q: q}
}

const orderColumns = `id, renter_id, owner_id, item_id, snapshot_title, snapshot_base_price, snapshot_images,
	price_unit, quantity, start_at, end_at, rental_duration, rental_amount, service_fee, deposit_amount,
	discount_code, discount_amount, secondary_discount_code, secondary_discount_amount, total_amount, final_amount,
	payment_status, status, confirmed_at, started_at, returned_at, completed_at, cancelled_at, disputed_at,
	return_note, return_condition, damage_fee, cancel_reason, dispute_reason, contract_signed,
	created_on, updated_on, deleted_on`

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (renter_id, owner_id, item_id, snapshot_title, snapshot_base_price, snapshot_images,
	            price_unit, quantity, start_at, end_at, rental_duration, rental_amount, service_fee, deposit_amount,
	            discount_code, discount_amount, secondary_discount_code, secondary_discount_amount, total_amount, final_amount,
	            payment_status, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	          RETURNING id`
	now := time.Now()
	o.CreatedOn = now
	o.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query,
		o.RenterID, o.OwnerID, o.ItemID, o.SnapshotTitle, o.SnapshotBasePrice, pq.Array(o.SnapshotImages),
		o.PriceUnit, o.Quantity, o.StartAt, o.EndAt, o.RentalDuration, o.RentalAmount, o.ServiceFee, o.DepositAmount,
		o.DiscountCode, o.DiscountAmount, o.SecondaryDiscountCode, o.SecondaryDiscountAmount, o.TotalAmount, o.FinalAmount,
		o.PaymentStatus, o.Status, now, now).Scan(&o.ID)
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND deleted_on IS NULL`
	o := &domain.Order{}
	err := scanOrder(r.q.QueryRowContext(ctx, query, id), o)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("order %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET end_at=$1, rental_duration=$2, rental_amount=$3, total_amount=$4, final_amount=$5,
	            payment_status=$6, status=$7, confirmed_at=$8, started_at=$9, returned_at=$10, completed_at=$11,
	            cancelled_at=$12, disputed_at=$13, return_note=$14, return_condition=$15, damage_fee=$16,
	            cancel_reason=$17, dispute_reason=$18, contract_signed=$19, updated_on=$20
	          WHERE id=$21 AND deleted_on IS NULL`
	o.UpdatedOn = time.Now()
	_, err := r.q.ExecContext(ctx, query, o.EndAt, o.RentalDuration, o.RentalAmount, o.TotalAmount, o.FinalAmount,
		o.PaymentStatus, o.Status, o.ConfirmedAt, o.StartedAt, o.ReturnedAt, o.CompletedAt,
		o.CancelledAt, o.DisputedAt, o.ReturnNote, o.ReturnCondition, o.DamageFee,
		o.CancelReason, o.DisputeReason, o.ContractSigned, o.UpdatedOn, o.ID)
	return err
}

func (r *orderRepository) SetContractSigned(ctx context.Context, orderID int64, signed bool) error {
	query := `UPDATE orders SET contract_signed=$1, updated_on=$2 WHERE id=$3`
	_, err := r.q.ExecContext(ctx, query, signed, time.Now(), orderID)
	return err
}

func (r *orderRepository) ListByRenter(ctx context.Context, renterID int64, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error) {
	return r.list(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *orderRepository) ListByOwner(ctx context.Context, ownerID int64, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error) {
	return r.list(ctx, "owner_id", ownerID, status, page, pageSize)
}

func (r *orderRepository) list(ctx context.Context, partyColumn string, partyID int64, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + partyColumn + ` = $1 AND deleted_on IS NULL`

	args := []any{partyID}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") AS sub"
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, count, rows.Err()
}

func (r *orderRepository) ListEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE status = $1 AND end_at >= $2 AND end_at < $3 AND deleted_on IS NULL`
	rows, err := r.q.QueryContext(ctx, query, domain.OrderStatusProgress, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, o *domain.Order) error {
	return row.Scan(&o.ID, &o.RenterID, &o.OwnerID, &o.ItemID, &o.SnapshotTitle, &o.SnapshotBasePrice, pq.Array(&o.SnapshotImages),
		&o.PriceUnit, &o.Quantity, &o.StartAt, &o.EndAt, &o.RentalDuration, &o.RentalAmount, &o.ServiceFee, &o.DepositAmount,
		&o.DiscountCode, &o.DiscountAmount, &o.SecondaryDiscountCode, &o.SecondaryDiscountAmount, &o.TotalAmount, &o.FinalAmount,
		&o.PaymentStatus, &o.Status, &o.ConfirmedAt, &o.StartedAt, &o.ReturnedAt, &o.CompletedAt, &o.CancelledAt, &o.DisputedAt,
		&o.ReturnNote, &o.ReturnCondition, &o.DamageFee, &o.CancelReason, &o.DisputeReason, &o.ContractSigned,
		&o.CreatedOn, &o.UpdatedOn, &o.DeletedOn)
}
