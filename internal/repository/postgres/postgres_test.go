package postgres

import (
	"context"
	"database/sql"
	"testing"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestDecrementAvailable(t *testing.T) {
	t.Run("decrements while stock remains", func(t *testing.T) {
		store, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE items SET available_quantity = available_quantity - 1`).
			WithArgs(int64(7), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Items.DecrementAvailable(context.Background(), 7)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict when no units left", func(t *testing.T) {
		store, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE items SET available_quantity = available_quantity - 1`).
			WithArgs(int64(7), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Items.DecrementAvailable(context.Background(), 7)
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		assert.Equal(t, domain.CodeItemOutOfStock, domain.CodeOf(err))
	})
}

func TestIncrementUsage(t *testing.T) {
	t.Run("counts a redemption under the limit", func(t *testing.T) {
		store, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE discounts SET used_count = used_count \+ 1`).
			WithArgs(int64(3), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Discounts.IncrementUsage(context.Background(), 3)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict once the limit is reached", func(t *testing.T) {
		store, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE discounts SET used_count = used_count \+ 1`).
			WithArgs(int64(3), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Discounts.IncrementUsage(context.Background(), 3)
		require.Error(t, err)
		assert.Equal(t, domain.CodeUsageExceeded, domain.CodeOf(err))
	})
}

func TestGetByCodeUnknown(t *testing.T) {
	store, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT .+ FROM discounts WHERE code = \$1`).
		WithArgs("NOPE").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Discounts.GetByCode(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, domain.CodeInvalidCode, domain.CodeOf(err))
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	store, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE items SET available_quantity = available_quantity - 1`).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.RunInTx(context.Background(), func(uow *repository.UnitOfWork) error {
		return uow.Items.DecrementAvailable(context.Background(), 7)
	})
	require.Error(t, err)
	assert.Equal(t, domain.CodeItemOutOfStock, domain.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
