package utils

import (
	"testing"
	"time"

	"renthub-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestCalculateQuote(t *testing.T) {
	t.Run("Two days two units", func(t *testing.T) {
		q, err := CalculateQuote(domain.PriceUnitDay, 100_000, 50_000, 2, day(0), day(2), 0.05)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), q.Duration)
		assert.Equal(t, int64(400_000), q.RentalAmount)
		assert.Equal(t, int64(20_000), q.ServiceFee)
		assert.Equal(t, int64(100_000), q.DepositAmount)
		assert.Equal(t, int64(520_000), q.TotalAmount)
	})

	t.Run("Partial unit rounds up", func(t *testing.T) {
		end := day(0).Add(25 * time.Hour)
		q, err := CalculateQuote(domain.PriceUnitDay, 1000, 0, 1, day(0), end, 0)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), q.Duration)
		assert.Equal(t, int64(2000), q.RentalAmount)
	})

	t.Run("Hour unit", func(t *testing.T) {
		end := day(0).Add(90 * time.Minute)
		q, err := CalculateQuote(domain.PriceUnitHour, 500, 0, 1, day(0), end, 0)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), q.Duration)
	})

	t.Run("Week unit spans eight days", func(t *testing.T) {
		q, err := CalculateQuote(domain.PriceUnitWeek, 7000, 0, 1, day(0), day(8), 0)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), q.Duration)
	})

	t.Run("Month unit", func(t *testing.T) {
		q, err := CalculateQuote(domain.PriceUnitMonth, 90_000, 0, 1, day(0), day(30), 0)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), q.Duration)
	})

	t.Run("Service fee rounds to nearest unit", func(t *testing.T) {
		q, err := CalculateQuote(domain.PriceUnitDay, 333, 0, 1, day(0), day(1), 0.05)
		assert.NoError(t, err)
		// 333 * 0.05 = 16.65 -> 17
		assert.Equal(t, int64(17), q.ServiceFee)
	})

	t.Run("Empty window rejected", func(t *testing.T) {
		_, err := CalculateQuote(domain.PriceUnitDay, 1000, 0, 1, day(2), day(2), 0.05)
		assert.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("Inverted window rejected", func(t *testing.T) {
		_, err := CalculateQuote(domain.PriceUnitDay, 1000, 0, 1, day(2), day(1), 0.05)
		assert.Error(t, err)
	})

	t.Run("Zero quantity rejected", func(t *testing.T) {
		_, err := CalculateQuote(domain.PriceUnitDay, 1000, 0, 0, day(0), day(1), 0.05)
		assert.Error(t, err)
	})

	t.Run("Missing base price rejected", func(t *testing.T) {
		_, err := CalculateQuote(domain.PriceUnitDay, 0, 0, 1, day(0), day(1), 0.05)
		assert.Error(t, err)
	})

	t.Run("Unknown unit rejected", func(t *testing.T) {
		_, err := CalculateQuote(domain.PriceUnit("fortnight"), 1000, 0, 1, day(0), day(1), 0.05)
		assert.Error(t, err)
	})
}

func TestCalculateQuoteCeilingProperty(t *testing.T) {
	units := []domain.PriceUnit{domain.PriceUnitHour, domain.PriceUnitDay, domain.PriceUnitWeek, domain.PriceUnitMonth}
	windows := []time.Duration{time.Hour, 26 * time.Hour, 3 * 24 * time.Hour, 10 * 24 * time.Hour, 45 * 24 * time.Hour}

	for _, unit := range units {
		for _, w := range windows {
			q, err := CalculateQuote(unit, 1000, 0, 1, day(0), day(0).Add(w), 0)
			assert.NoError(t, err)

			hoursPerUnit, ok := UnitHours(unit)
			assert.True(t, ok)
			covered := float64(q.Duration) * hoursPerUnit
			assert.GreaterOrEqual(t, covered, w.Hours(), "duration must cover the window")
			if q.Duration > 1 {
				assert.Less(t, float64(q.Duration-1)*hoursPerUnit, w.Hours(), "duration must be minimal")
			}
		}
	}
}

func TestUnitHours(t *testing.T) {
	h, ok := UnitHours(domain.PriceUnitDay)
	assert.True(t, ok)
	assert.Equal(t, 24.0, h)

	_, ok = UnitHours(domain.PriceUnit("bogus"))
	assert.False(t, ok)
}
