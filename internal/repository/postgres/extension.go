package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"
)

type extensionRepository struct {
	q Querier
}

func NewExtensionRepository(q Querier) repository.ExtensionRepository {
	return &extensionRepository{q: q}
}

const extensionColumns = `id, order_id, duration, unit, new_end_at, added_fee, status, requested_by, decided_by,
	note, reject_reason, created_on, decided_on`

func (r *extensionRepository) Create(ctx context.Context, req *domain.ExtensionRequest) error {
	query := `INSERT INTO extension_requests (order_id, duration, unit, new_end_at, added_fee, status, requested_by, note, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	req.CreatedOn = time.Now()
	return r.q.QueryRowContext(ctx, query, req.OrderID, req.Duration, req.Unit, req.NewEndAt,
		req.AddedFee, req.Status, req.RequestedBy, req.Note, req.CreatedOn).Scan(&req.ID)
}

func (r *extensionRepository) GetByID(ctx context.Context, id int64) (*domain.ExtensionRequest, error) {
	query := `SELECT ` + extensionColumns + ` FROM extension_requests WHERE id = $1`
	req := &domain.ExtensionRequest{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.OrderID, &req.Duration, &req.Unit,
		&req.NewEndAt, &req.AddedFee, &req.Status, &req.RequestedBy, &req.DecidedBy,
		&req.Note, &req.RejectReason, &req.CreatedOn, &req.DecidedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("extension request %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *extensionRepository) GetPendingByOrder(ctx context.Context, orderID int64) (*domain.ExtensionRequest, error) {
	query := `SELECT ` + extensionColumns + ` FROM extension_requests WHERE order_id = $1 AND status = $2`
	req := &domain.ExtensionRequest{}
	err := r.q.QueryRowContext(ctx, query, orderID, domain.ExtensionStatusPending).Scan(&req.ID, &req.OrderID,
		&req.Duration, &req.Unit, &req.NewEndAt, &req.AddedFee, &req.Status, &req.RequestedBy, &req.DecidedBy,
		&req.Note, &req.RejectReason, &req.CreatedOn, &req.DecidedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("no pending extension for order %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *extensionRepository) Update(ctx context.Context, req *domain.ExtensionRequest) error {
	query := `UPDATE extension_requests SET status=$1, decided_by=$2, reject_reason=$3, decided_on=$4 WHERE id=$5`
	_, err := r.q.ExecContext(ctx, query, req.Status, req.DecidedBy, req.RejectReason, req.DecidedOn, req.ID)
	return err
}

func (r *extensionRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.ExtensionRequest, error) {
	query := `SELECT ` + extensionColumns + ` FROM extension_requests WHERE order_id = $1 ORDER BY created_on DESC`
	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.ExtensionRequest
	for rows.Next() {
		var req domain.ExtensionRequest
		if err := rows.Scan(&req.ID, &req.OrderID, &req.Duration, &req.Unit, &req.NewEndAt, &req.AddedFee,
			&req.Status, &req.RequestedBy, &req.DecidedBy, &req.Note, &req.RejectReason, &req.CreatedOn, &req.DecidedOn); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
