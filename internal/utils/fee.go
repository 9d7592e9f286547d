package utils

import (
	"math"
	"time"

	"renthub-backend/internal/domain"
)

// unitDays maps a price unit to its day equivalent.
var unitDays = map[domain.PriceUnit]float64{
	domain.PriceUnitHour:  1.0 / 24,
	domain.PriceUnitDay:   1,
	domain.PriceUnitWeek:  7,
	domain.PriceUnitMonth: 30,
}

var unitLabels = map[domain.PriceUnit]string{
	domain.PriceUnitHour:  "hour",
	domain.PriceUnitDay:   "day",
	domain.PriceUnitWeek:  "week",
	domain.PriceUnitMonth: "month",
}

// UnitLabel returns the display label for a price unit.
func UnitLabel(unit domain.PriceUnit) string {
	return unitLabels[unit]
}

// UnitHours returns the hour equivalent of one price unit.
func UnitHours(unit domain.PriceUnit) (float64, bool) {
	d, ok := unitDays[unit]
	if !ok {
		return 0, false
	}
	return d * 24, true
}

// Quote is a fee breakdown for one rental window. Amounts are whole currency
// units, rounded to the nearest unit.
type Quote struct {
	Duration      int32            `json:"duration"`
	Unit          domain.PriceUnit `json:"unit"`
	RentalAmount  int64            `json:"rental_amount"`
	ServiceFee    int64            `json:"service_fee"`
	DepositAmount int64            `json:"deposit_amount"`
	TotalAmount   int64            `json:"total_amount"`
}

// CalculateQuote computes the fee breakdown for renting quantity units of an
// item over [startAt, endAt). Duration is the smallest whole number of price
// units covering the window. serviceFeeRate is a snapshot taken by the
// caller, so the result is deterministic and safe to compute speculatively
// for previews.
func CalculateQuote(unit domain.PriceUnit, basePrice, depositPerUnit int64, quantity int32, startAt, endAt time.Time, serviceFeeRate float64) (*Quote, error) {
	if quantity < 1 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "quantity must be at least 1")
	}
	if basePrice <= 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "item has no base price")
	}
	ud, ok := unitDays[unit]
	if !ok {
		return nil, domain.Validationf(domain.CodeInvalidInput, "unknown price unit %q", unit)
	}

	days := endAt.Sub(startAt).Hours() / 24
	duration := int32(math.Ceil(days / ud))
	if duration <= 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "rental window must end after it starts")
	}

	rental := basePrice * int64(duration) * int64(quantity)
	fee := int64(math.Round(float64(rental) * serviceFeeRate))
	deposit := depositPerUnit * int64(quantity)

	return &Quote{
		Duration:      duration,
		Unit:          unit,
		RentalAmount:  rental,
		ServiceFee:    fee,
		DepositAmount: deposit,
		TotalAmount:   rental + fee + deposit,
	}, nil
}
