package domain

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Showtime is read-only catalog input: the allocation engine never mutates it.
type Showtime struct {
	ID           int
	MovieID      int
	MovieTitle   string
	StartTime    time.Time
	ScreenNumber int
	Price        pgtype.Numeric
	TotalSeats   int
}

// Started reports whether the screening has already begun. Bookings and
// cancellations are both rejected past this point.
func (s Showtime) Started(now time.Time) bool {
	return !s.StartTime.After(now)
}

func (s Showtime) PriceDecimal() decimal.Decimal {
	return NumericToDecimal(s.Price)
}

func NumericToDecimal(numeric pgtype.Numeric) decimal.Decimal {
	if !numeric.Valid {
		return decimal.Zero
	}

	float64Value, floatErr := numeric.Float64Value()
	if floatErr != nil {
		return decimal.Zero
	}

	return decimal.NewFromFloat(float64Value.Float64)
}

type ShowtimeRepository interface {
	GetById(ctx context.Context, id int) (*Showtime, error)
}
