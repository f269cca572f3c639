package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound          = errors.New("record not found")
	ErrShowtimeExpired         = errors.New("showtime has already started")
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	ErrSeatAlreadyHeld         = errors.New("seat(s) are already held by another session")
	ErrHoldNotFound            = errors.New("hold not found or has expired")
	ErrSeatsAlreadyProvisioned = errors.New("seats are already provisioned for this showtime")
)

// SeatConflictError reports which requested seats were no longer free at claim
// time. Losing a race for a seat is an expected business outcome, so callers
// surface it to the user instead of treating it as a fault.
type SeatConflictError struct {
	SeatIDs []int
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat(s) no longer available: %v", e.SeatIDs)
}
