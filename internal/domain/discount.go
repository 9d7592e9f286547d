package domain

import "time"

type DiscountType string

const (
	DiscountTypePercent DiscountType = "PERCENT"
	DiscountTypeFixed   DiscountType = "FIXED"
)

type Discount struct {
	ID   int64  `json:"id"`
	Code string `json:"code"` // stored uppercase, matched case-insensitively
	Name string `json:"name"`
	Type DiscountType `json:"type"`
	// Value is a percentage for PERCENT, a whole currency amount for FIXED.
	Value             int64 `json:"value"`
	MaxDiscountAmount int64 `json:"max_discount_amount"` // 0 = uncapped
	MinOrderAmount    int64 `json:"min_order_amount"`
	StartsAt          time.Time `json:"starts_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	// UsageLimit 0 means unlimited.
	UsageLimit int32 `json:"usage_limit"`
	UsedCount  int32 `json:"used_count"`
	IsPublic   bool  `json:"is_public"`
	IsActive   bool  `json:"is_active"`
	// Scope restrictions; zero means unscoped.
	OwnerID int64 `json:"owner_id,omitempty"`
	ItemID  int64 `json:"item_id,omitempty"`
	// AllowedUserIDs is the explicit allow-list path for private discounts.
	// It grants eligibility without a per-user cap; assignments carry their own.
	AllowedUserIDs []int64   `json:"allowed_user_ids,omitempty"`
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}

// DiscountAssignment is a per-user grant of a private discount, unique on
// (discount, user).
type DiscountAssignment struct {
	ID         int64 `json:"id"`
	DiscountID int64 `json:"discount_id"`
	UserID     int64 `json:"user_id"`
	// PerUserLimit 0 means unlimited.
	PerUserLimit int32      `json:"per_user_limit"`
	UsedCount    int32      `json:"used_count"`
	EffectiveAt  *time.Time `json:"effective_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedOn    time.Time  `json:"created_on"`
}

// Active reports whether the assignment window covers now.
func (a *DiscountAssignment) Active(now time.Time) bool {
	if a.EffectiveAt != nil && now.Before(*a.EffectiveAt) {
		return false
	}
	if a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return false
	}
	return true
}

type RedemptionStatus string

const (
	RedemptionStatusApplied  RedemptionStatus = "APPLIED"
	RedemptionStatusRefunded RedemptionStatus = "REFUNDED"
)

// DiscountRedemption is the immutable audit record of one discount
// application to one order. Only the status may flip, on refund.
type DiscountRedemption struct {
	ID            int64            `json:"id"`
	DiscountID    int64            `json:"discount_id"`
	OrderID       int64            `json:"order_id"`
	UserID        int64            `json:"user_id"`
	AmountApplied int64            `json:"amount_applied"`
	Status        RedemptionStatus `json:"status"`
	CreatedOn     time.Time        `json:"created_on"`
}
