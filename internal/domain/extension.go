package domain

import "time"

type ExtensionStatus string

const (
	ExtensionStatusPending  ExtensionStatus = "PENDING"
	ExtensionStatusApproved ExtensionStatus = "APPROVED"
	ExtensionStatusRejected ExtensionStatus = "REJECTED"
)

// ExtensionRequest lengthens an in-progress order's end time. At most one
// pending request exists per order; approve/reject is terminal.
type ExtensionRequest struct {
	ID      int64 `json:"id"`
	OrderID int64 `json:"order_id"`
	// Duration added, in the order's price unit.
	Duration  int32     `json:"duration"`
	Unit      PriceUnit `json:"unit"`
	NewEndAt  time.Time `json:"new_end_at"`
	AddedFee  int64     `json:"added_fee"`
	Status    ExtensionStatus `json:"status"`
	RequestedBy int64   `json:"requested_by"`
	DecidedBy   *int64  `json:"decided_by,omitempty"`
	Note        string  `json:"note,omitempty"`
	RejectReason string `json:"reject_reason,omitempty"`
	CreatedOn time.Time  `json:"created_on"`
	DecidedOn *time.Time `json:"decided_on,omitempty"`
}
