package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"
)

type contractRepository struct {
	q Querier
}

func NewContractRepository(q Querier) repository.ContractRepository {
	return &contractRepository{q: q}
}

const contractColumns = `id, order_id, template_id, content, status, signed_at, created_on, updated_on`

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	query := `INSERT INTO contracts (order_id, template_id, content, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	c.CreatedOn = now
	c.UpdatedOn = now
	return r.q.QueryRowContext(ctx, query, c.OrderID, c.TemplateID, c.Content, c.Status, now, now).Scan(&c.ID)
}

func (r *contractRepository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

func (r *contractRepository) GetByOrder(ctx context.Context, orderID int64) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE order_id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, orderID))
}

func (r *contractRepository) scanOne(row *sql.Row) (*domain.Contract, error) {
	c := &domain.Contract{}
	err := row.Scan(&c.ID, &c.OrderID, &c.TemplateID, &c.Content, &c.Status, &c.SignedAt, &c.CreatedOn, &c.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("contract not found")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contractRepository) Update(ctx context.Context, c *domain.Contract) error {
	query := `UPDATE contracts SET content=$1, status=$2, signed_at=$3, updated_on=$4 WHERE id=$5`
	c.UpdatedOn = time.Now()
	_, err := r.q.ExecContext(ctx, query, c.Content, c.Status, c.SignedAt, c.UpdatedOn, c.ID)
	return err
}

func (r *contractRepository) GetTemplate(ctx context.Context, id int64) (*domain.ContractTemplate, error) {
	query := `SELECT id, name, header, body, footer, is_default, created_on, updated_on FROM contract_templates WHERE id = $1`
	return r.scanTemplate(r.q.QueryRowContext(ctx, query, id))
}

func (r *contractRepository) GetDefaultTemplate(ctx context.Context) (*domain.ContractTemplate, error) {
	query := `SELECT id, name, header, body, footer, is_default, created_on, updated_on
	          FROM contract_templates WHERE is_default ORDER BY id LIMIT 1`
	return r.scanTemplate(r.q.QueryRowContext(ctx, query))
}

func (r *contractRepository) scanTemplate(row *sql.Row) (*domain.ContractTemplate, error) {
	t := &domain.ContractTemplate{}
	err := row.Scan(&t.ID, &t.Name, &t.Header, &t.Body, &t.Footer, &t.IsDefault, &t.CreatedOn, &t.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("contract template not found")
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
