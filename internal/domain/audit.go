package domain

import "time"

type AuditOperation string

const (
	AuditOperationCreate AuditOperation = "CREATE"
	AuditOperationUpdate AuditOperation = "UPDATE"
	AuditOperationDelete AuditOperation = "DELETE"
)

// AuditLog is a tamper-evident trail row for sensitive mutations, currently
// signature create/update/delete.
type AuditLog struct {
	ID        int64          `json:"id"`
	TableName string         `json:"table_name"`
	RecordID  int64          `json:"record_id"`
	Operation AuditOperation `json:"operation"`
	ActorID   int64          `json:"actor_id"`
	Summary   string         `json:"summary"`
	CreatedOn time.Time      `json:"created_on"`
}
