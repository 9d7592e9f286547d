package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"
)

type userRepository struct {
	q Querier
}

func NewUserRepository(q Querier) repository.UserRepository {
	return &userRepository{q: q}
}

const userColumns = `id, email, phone_number, name, avatar_url, role, status, points, identity_number_cipher, identity_number_iv, created_on, updated_on, deleted_on`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_on IS NULL`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_on IS NULL`
	return r.scanOne(r.q.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanOne(row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber, &u.Name, &u.AvatarURL, &u.Role, &u.Status,
		&u.Points, &u.IdentityNumberCipher, &u.IdentityNumberIV, &u.CreatedOn, &u.UpdatedOn, &u.DeletedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("user not found")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) UpdatePoints(ctx context.Context, userID, points int64) error {
	query := `UPDATE users SET points = $1, updated_on = $2 WHERE id = $3`
	_, err := r.q.ExecContext(ctx, query, points, time.Now(), userID)
	return err
}
