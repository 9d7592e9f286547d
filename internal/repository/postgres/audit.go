package postgres

import (
	"context"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"
)

type auditLogRepository struct {
	q Querier
}

func NewAuditLogRepository(q Querier) repository.AuditLogRepository {
	return &auditLogRepository{q: q}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (table_name, record_id, operation, actor_id, summary, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	entry.CreatedOn = time.Now()
	return r.q.QueryRowContext(ctx, query, entry.TableName, entry.RecordID, entry.Operation,
		entry.ActorID, entry.Summary, entry.CreatedOn).Scan(&entry.ID)
}
