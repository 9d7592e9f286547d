package domain

import "time"

type LoyaltyTransactionType string

const (
	LoyaltyTypeDailyLogin       LoyaltyTransactionType = "DAILY_LOGIN"
	LoyaltyTypeOrderCompleted   LoyaltyTransactionType = "ORDER_COMPLETED"
	LoyaltyTypeOrderCancelled   LoyaltyTransactionType = "ORDER_CANCELLED"
	LoyaltyTypeReferral         LoyaltyTransactionType = "REFERRAL"
	LoyaltyTypeAdminAdjustment  LoyaltyTransactionType = "ADMIN_ADJUSTMENT"
	LoyaltyTypeExpired          LoyaltyTransactionType = "EXPIRED"
	LoyaltyTypePointsToDiscount LoyaltyTransactionType = "POINTS_TO_DISCOUNT"
)

// LoyaltyMetadata is the closed set of extra attributes a ledger row may
// carry, stored as one JSON column.
type LoyaltyMetadata struct {
	DiscountCode string `json:"discount_code,omitempty"`
	TierPercent  int32  `json:"tier_percent,omitempty"`
	// SourceTransactionID links an EXPIRED row to the credit it offsets.
	SourceTransactionID int64 `json:"source_transaction_id,omitempty"`
}

// LoyaltyTransaction is one append-only ledger row. Balance is the user's
// running balance immediately after this row is applied; the denormalized
// points field on the user always equals the latest row's balance.
type LoyaltyTransaction struct {
	ID          int64                  `json:"id"`
	UserID      int64                  `json:"user_id"`
	Points      int64                  `json:"points"` // signed delta
	Balance     int64                  `json:"balance"`
	Type        LoyaltyTransactionType `json:"type"`
	Description string                 `json:"description"`
	OrderID     *int64                 `json:"order_id,omitempty"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
	// ExpiredProcessed marks credits already offset by an EXPIRED row.
	ExpiredProcessed bool            `json:"expired_processed"`
	Metadata         LoyaltyMetadata `json:"metadata"`
	CreatedOn        time.Time       `json:"created_on"`
}
