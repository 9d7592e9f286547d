package postgres

import (
	"context"
	"encoding/json"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"
)

type loyaltyRepository struct {
	q Querier
}

func NewLoyaltyRepository(q Querier) repository.LoyaltyRepository {
	return &loyaltyRepository{q: q}
}

const loyaltyColumns = `id, user_id, points, balance, type, description, order_id, expires_at, expired_processed, metadata, created_on`

func (r *loyaltyRepository) Append(ctx context.Context, tx *domain.LoyaltyTransaction) error {
	meta, err := json.Marshal(tx.Metadata)
	if err != nil {
		return err
	}
	query := `INSERT INTO loyalty_transactions (user_id, points, balance, type, description, order_id, expires_at, expired_processed, metadata, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	tx.CreatedOn = time.Now()
	return r.q.QueryRowContext(ctx, query, tx.UserID, tx.Points, tx.Balance, tx.Type, tx.Description,
		tx.OrderID, tx.ExpiresAt, tx.ExpiredProcessed, meta, tx.CreatedOn).Scan(&tx.ID)
}

func (r *loyaltyRepository) List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.LoyaltyTransaction, int32, error) {
	var count int32
	countQuery := `SELECT count(*) FROM loyalty_transactions WHERE user_id = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + loyaltyColumns + ` FROM loyalty_transactions
	          WHERE user_id = $1 ORDER BY created_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.LoyaltyTransaction
	for rows.Next() {
		tx, err := scanLoyalty(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *tx)
	}
	return txs, count, rows.Err()
}

func (r *loyaltyRepository) HasTypeBetween(ctx context.Context, userID int64, t domain.LoyaltyTransactionType, from, to time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM loyalty_transactions
	          WHERE user_id = $1 AND type = $2 AND created_on >= $3 AND created_on < $4)`
	err := r.q.QueryRowContext(ctx, query, userID, t, from, to).Scan(&exists)
	return exists, err
}

func (r *loyaltyRepository) ListExpiredCredits(ctx context.Context, asOf time.Time, limit int32) ([]domain.LoyaltyTransaction, error) {
	query := `SELECT ` + loyaltyColumns + ` FROM loyalty_transactions
	          WHERE points > 0 AND expires_at IS NOT NULL AND expires_at < $1 AND NOT expired_processed
	          ORDER BY expires_at LIMIT $2`
	rows, err := r.q.QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.LoyaltyTransaction
	for rows.Next() {
		tx, err := scanLoyalty(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func (r *loyaltyRepository) MarkExpiredProcessed(ctx context.Context, id int64) error {
	query := `UPDATE loyalty_transactions SET expired_processed = TRUE WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

func scanLoyalty(row rowScanner) (*domain.LoyaltyTransaction, error) {
	tx := &domain.LoyaltyTransaction{}
	var meta []byte
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Points, &tx.Balance, &tx.Type, &tx.Description,
		&tx.OrderID, &tx.ExpiresAt, &tx.ExpiredProcessed, &meta, &tx.CreatedOn); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &tx.Metadata); err != nil {
			return nil, err
		}
	}
	return tx, nil
}
