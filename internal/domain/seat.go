package domain

import (
	"context"
)

type SeatStatus string

const (
	SeatStatusFree   = SeatStatus("free")
	SeatStatusBooked = SeatStatus("booked")
)

// Seat is one bookable unit of showtime capacity. Identity (row, number) is
// fixed at provisioning time; only the occupancy state mutates.
type Seat struct {
	ID        int
	Row       string
	Number    int
	Status    SeatStatus
	BookingID *int
}

// ShowtimeSeatMap carries the seats of one showtime, pre-sorted by row then
// number, together with the showtime context needed to render them.
type ShowtimeSeatMap struct {
	Showtime Showtime
	Seats    []Seat
}

type SeatRepository interface {
	GetSeatsByShowtime(ctx context.Context, showtimeID int) (*ShowtimeSeatMap, error)
	GetSeatsByShowtimeAndSeatIds(ctx context.Context, showtimeID int, seatIDs []int) ([]Seat, error)
	ProvisionSeats(ctx context.Context, showtimeID int, rows []string, seatsPerRow int) error
}
