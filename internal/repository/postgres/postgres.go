package postgres

import (
	"context"
	"database/sql"

	"renthub-backend/internal/repository"

	_ "github.com/lib/pq"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same repository code serves both standalone reads and transactional writes.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.UnitOfWork
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, UnitOfWork: newUnitOfWork(db)}
}

func newUnitOfWork(q Querier) repository.UnitOfWork {
	return repository.UnitOfWork{
		Users:         NewUserRepository(q),
		Items:         NewItemRepository(q),
		Orders:        NewOrderRepository(q),
		Discounts:     NewDiscountRepository(q),
		Extensions:    NewExtensionRepository(q),
		Contracts:     NewContractRepository(q),
		Signatures:    NewSignatureRepository(q),
		Loyalty:       NewLoyaltyRepository(q),
		Notifications: NewNotificationRepository(q),
		AuditLogs:     NewAuditLogRepository(q),
	}
}

// RunInTx executes fn inside one database transaction. fn receives a
// UnitOfWork bound to that transaction; any error rolls everything back.
func (s *Store) RunInTx(ctx context.Context, fn func(uow *repository.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	uow := newUnitOfWork(tx)
	if err := fn(&uow); err != nil {
		return err
	}
	return tx.Commit()
}
