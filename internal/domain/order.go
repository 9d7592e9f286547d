package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusProgress  OrderStatus = "PROGRESS"
	OrderStatusReturned  OrderStatus = "RETURNED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusDisputed  OrderStatus = "DISPUTED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusPartial  PaymentStatus = "PARTIAL"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type ReturnCondition string

const (
	ReturnConditionGood            ReturnCondition = "GOOD"
	ReturnConditionSlightlyDamaged ReturnCondition = "SLIGHTLY_DAMAGED"
	ReturnConditionHeavilyDamaged  ReturnCondition = "HEAVILY_DAMAGED"
	ReturnConditionLost            ReturnCondition = "LOST"
)

type Order struct {
	ID       int64 `json:"id"`
	RenterID int64 `json:"renter_id"`
	OwnerID  int64 `json:"owner_id"`
	ItemID   int64 `json:"item_id"`
	// Item snapshot, captured at order creation time. All
	// later calculations use these values, not live item prices.
	SnapshotTitle     string    `json:"snapshot_title"`
	SnapshotBasePrice int64     `json:"snapshot_base_price"`
	SnapshotImages    []string  `json:"snapshot_images"`
	PriceUnit         PriceUnit `json:"price_unit"`
	Quantity          int32     `json:"quantity"`
	StartAt           time.Time `json:"start_at"`
	EndAt             time.Time `json:"end_at"`
	// RentalDuration is in price units; extensions add to it.
	RentalDuration int32 `json:"rental_duration"`

	RentalAmount  int64 `json:"rental_amount"`
	ServiceFee    int64 `json:"service_fee"`
	DepositAmount int64 `json:"deposit_amount"`
	// Primary (public) and secondary (private) discount, both applied to the
	// rental amount only.
	DiscountCode            string `json:"discount_code,omitempty"`
	DiscountAmount          int64  `json:"discount_amount"`
	SecondaryDiscountCode   string `json:"secondary_discount_code,omitempty"`
	SecondaryDiscountAmount int64  `json:"secondary_discount_amount"`
	TotalAmount             int64  `json:"total_amount"`
	// FinalAmount = max(0, TotalAmount - total discount applied).
	FinalAmount int64 `json:"final_amount"`

	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        OrderStatus   `json:"status"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	DisputedAt  *time.Time `json:"disputed_at,omitempty"`

	ReturnNote      string          `json:"return_note,omitempty"`
	ReturnCondition ReturnCondition `json:"return_condition,omitempty"`
	DamageFee       int64           `json:"damage_fee"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	DisputeReason   string          `json:"dispute_reason,omitempty"`
	ContractSigned  bool            `json:"contract_signed"`

	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn time.Time  `json:"updated_on"`
	DeletedOn *time.Time `json:"deleted_on,omitempty"`
}

func (o *Order) TotalDiscount() int64 {
	return o.DiscountAmount + o.SecondaryDiscountAmount
}

// IsParty reports whether userID is the renter or the owner of the order.
func (o *Order) IsParty(userID int64) bool {
	return o.RenterID == userID || o.OwnerID == userID
}

func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}
