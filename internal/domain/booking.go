package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusConfirmed = BookingStatus("confirmed")
	BookingStatusCancelled = BookingStatus("cancelled")
)

// Booking is the durable record of one completed seat claim. It is created
// exactly once, atomically with the seat-state transition of all its seats,
// and is immutable afterwards except for cancellation.
type Booking struct {
	ID            int
	UserID        int
	ShowtimeID    int
	CustomerName  string
	CustomerEmail string
	SeatIDs       []int
	TotalAmount   decimal.Decimal
	Status        BookingStatus
	CreatedAt     time.Time
}

type BookingSummary struct {
	BookingID    int
	MovieTitle   string
	ShowtimeDate time.Time
	ScreenNumber int
	SeatCount    int
	TotalAmount  decimal.Decimal
	Status       BookingStatus
	CreatedAt    time.Time
}

type BookingSeat struct {
	ID     int
	Row    string
	Number int
}

type BookingDetail struct {
	BookingID     int
	MovieTitle    string
	ShowtimeDate  time.Time
	ScreenNumber  int
	CustomerName  string
	CustomerEmail string
	Seats         []BookingSeat
	TotalAmount   decimal.Decimal
	Status        BookingStatus
	CreatedAt     time.Time
}

// BookingRecord is the reporting projection row: one booking with its showtime
// and movie context, read by dashboard collaborators.
type BookingRecord struct {
	BookingID     int
	MovieTitle    string
	ShowtimeDate  time.Time
	ScreenNumber  int
	CustomerName  string
	CustomerEmail string
	SeatCount     int
	TotalAmount   decimal.Decimal
	Status        BookingStatus
	CreatedAt     time.Time
}

type BookingRepository interface {
	// Create appends the booking and claims every seat in Booking.SeatIDs as a
	// single atomic unit. If any seat is not free the whole operation fails
	// with a *SeatConflictError and no state changes.
	Create(ctx context.Context, booking *Booking) error

	// Cancel marks the booking cancelled and releases its seats, atomically.
	Cancel(ctx context.Context, bookingID, userID int) error

	GetByIdAndUserId(ctx context.Context, bookingID, userID int) (*BookingDetail, error)
	GetBookingSummariesByUserId(ctx context.Context, userID int, pagination Pagination) ([]BookingSummary, *Metadata, error)
	GetAll(ctx context.Context, pagination Pagination) ([]BookingRecord, *Metadata, error)
}
