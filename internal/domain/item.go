package domain

import "time"

type PriceUnit string

const (
	PriceUnitHour  PriceUnit = "hour"
	PriceUnitDay   PriceUnit = "day"
	PriceUnitWeek  PriceUnit = "week"
	PriceUnitMonth PriceUnit = "month"
)

type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "AVAILABLE"
	ItemStatusUnavailable ItemStatus = "UNAVAILABLE"
	ItemStatusDeleted     ItemStatus = "DELETED"
)

type Item struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	PriceUnit   PriceUnit `json:"price_unit"`
	// BasePrice is the price per unit of time per item, in whole currency units.
	BasePrice      int64 `json:"base_price"`
	DepositPerUnit int64 `json:"deposit_per_unit"`
	Quantity       int32 `json:"quantity"`
	// AvailableQuantity and RentCount are written only by the order state
	// machine, inside its transactions.
	AvailableQuantity int32 `json:"available_quantity"`
	RentCount         int32 `json:"rent_count"`
	// MaxRentalDuration caps rentalDuration + extensions, in price units.
	// Zero means unlimited.
	MaxRentalDuration int32      `json:"max_rental_duration"`
	Status            ItemStatus `json:"status"`
	CreatedOn         time.Time  `json:"created_on"`
	UpdatedOn         time.Time  `json:"updated_on"`
	DeletedOn         *time.Time `json:"deleted_on,omitempty"`
}
