package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"

	"github.com/lib/pq"
)

type itemRepository struct {
	q Querier
}

func NewItemRepository(q Querier) repository.ItemRepository {
	return &itemRepository{q: q}
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	query := `SELECT id, owner_id, title, description, images, price_unit, base_price, deposit_per_unit,
	                 quantity, available_quantity, rent_count, max_rental_duration, status, created_on, updated_on, deleted_on
	          FROM items WHERE id = $1 AND deleted_on IS NULL`
	it := &domain.Item{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(&it.ID, &it.OwnerID, &it.Title, &it.Description,
		pq.Array(&it.Images), &it.PriceUnit, &it.BasePrice, &it.DepositPerUnit, &it.Quantity,
		&it.AvailableQuantity, &it.RentCount, &it.MaxRentalDuration, &it.Status, &it.CreatedOn, &it.UpdatedOn, &it.DeletedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("item %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// DecrementAvailable is the compare-and-swap guarding concurrent confirms:
// the decrement applies only while at least one unit remains, so the loser of
// a race on the last unit gets a conflict, never a negative count.
func (r *itemRepository) DecrementAvailable(ctx context.Context, itemID int64) error {
	query := `UPDATE items SET available_quantity = available_quantity - 1, updated_on = $2
	          WHERE id = $1 AND available_quantity >= 1`
	res, err := r.q.ExecContext(ctx, query, itemID, time.Now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Conflictf(domain.CodeItemOutOfStock, "item %d has no available units", itemID)
	}
	return nil
}

func (r *itemRepository) IncrementAvailable(ctx context.Context, itemID int64) error {
	query := `UPDATE items SET available_quantity = available_quantity + 1, updated_on = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, itemID, time.Now())
	return err
}

func (r *itemRepository) DecrementQuantity(ctx context.Context, itemID int64) error {
	query := `UPDATE items SET quantity = quantity - 1, updated_on = $2 WHERE id = $1 AND quantity >= 1`
	res, err := r.q.ExecContext(ctx, query, itemID, time.Now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Conflictf(domain.CodeStateConflict, "item %d has no stock to remove", itemID)
	}
	return nil
}

func (r *itemRepository) IncrementRentCount(ctx context.Context, itemID int64) error {
	query := `UPDATE items SET rent_count = rent_count + 1, updated_on = $2 WHERE id = $1`
	_, err := r.q.ExecContext(ctx, query, itemID, time.Now())
	return err
}
