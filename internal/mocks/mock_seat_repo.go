package mocks

import (
	"context"

	"github.com/cinetix/booking-engine/internal/domain"
)

type MockSeatRepo struct {
	GetSeatsByShowtimeFunc           func(ctx context.Context, showtimeID int) (*domain.ShowtimeSeatMap, error)
	GetSeatsByShowtimeAndSeatIdsFunc func(ctx context.Context, showtimeID int, seatIDs []int) ([]domain.Seat, error)
	ProvisionSeatsFunc               func(ctx context.Context, showtimeID int, rows []string, seatsPerRow int) error
}

func (m *MockSeatRepo) GetSeatsByShowtime(ctx context.Context, showtimeID int) (*domain.ShowtimeSeatMap, error) {
	return m.GetSeatsByShowtimeFunc(ctx, showtimeID)
}

func (m *MockSeatRepo) GetSeatsByShowtimeAndSeatIds(
	ctx context.Context,
	showtimeID int,
	seatIDs []int) ([]domain.Seat, error) {

	return m.GetSeatsByShowtimeAndSeatIdsFunc(ctx, showtimeID, seatIDs)
}

func (m *MockSeatRepo) ProvisionSeats(ctx context.Context, showtimeID int, rows []string, seatsPerRow int) error {
	return m.ProvisionSeatsFunc(ctx, showtimeID, rows, seatsPerRow)
}
