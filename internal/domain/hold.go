package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Hold is a time-boxed soft reservation kept in Redis while the customer fills
// out the booking form. It carries no correctness obligation: the final commit
// always goes through the atomic database claim.
type Hold struct {
	Id           string `json:"-"`
	ShowtimeID   int
	MovieTitle   string
	ShowtimeDate time.Time
	ScreenNumber int
	BasePrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	Seats        []HoldSeat
}

type HoldSeat struct {
	Id     int
	Row    string
	Number int
}

func NewHold(showtime Showtime, seats []Seat) Hold {
	id := uuid.New().String()
	holdSeats := toHoldSeats(seats)
	basePrice := showtime.PriceDecimal()
	totalPrice := basePrice.Mul(decimal.NewFromInt(int64(len(holdSeats))))

	return Hold{
		Id:           id,
		ShowtimeID:   showtime.ID,
		MovieTitle:   showtime.MovieTitle,
		ShowtimeDate: showtime.StartTime,
		ScreenNumber: showtime.ScreenNumber,
		BasePrice:    basePrice,
		TotalPrice:   totalPrice,
		Seats:        holdSeats,
	}
}

func toHoldSeats(seats []Seat) []HoldSeat {
	holdSeats := make([]HoldSeat, len(seats))

	for i, seat := range seats {
		holdSeats[i] = HoldSeat{
			Id:     seat.ID,
			Row:    seat.Row,
			Number: seat.Number,
		}
	}

	return holdSeats
}
