// Package api defines the request and response types of the booking HTTP API.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

// SeatConflictResponse tells the caller exactly which seats became unavailable
// so the UI can deselect them and let the user retry with a fresh selection.
type SeatConflictResponse struct {
	Message            string    `json:"message"`
	ConflictingSeatIds []int     `json:"conflictingSeatIds"`
	RequestId          string    `json:"requestId,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type SeatStatus string

const (
	FREE   = SeatStatus("FREE")
	HELD   = SeatStatus("HELD")
	BOOKED = SeatStatus("BOOKED")
)

type Seat struct {
	Id     int        `json:"id"`
	Row    string     `json:"row"`
	Number int        `json:"number"`
	Status SeatStatus `json:"status"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ShowtimeId   int             `json:"showtimeId"`
	MovieTitle   string          `json:"movieTitle"`
	ShowtimeDate time.Time       `json:"showtimeDate"`
	ScreenNumber int             `json:"screenNumber"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	SeatRows     []SeatRow       `json:"seatRows"`
}

type CreateHoldRequest struct {
	SeatIdList []int `json:"seatIdList" validate:"required,min=1,unique,dive,gt=0"`
}

type HoldSeat struct {
	Id     int    `json:"id"`
	Row    string `json:"row"`
	Number int    `json:"number"`
}

type Hold struct {
	HoldId       string          `json:"holdId"`
	ShowtimeId   int             `json:"showtimeId"`
	MovieTitle   string          `json:"movieTitle"`
	ShowtimeDate string          `json:"showtimeDate"`
	ScreenNumber int             `json:"screenNumber"`
	Seats        []HoldSeat      `json:"seats"`
	HoldTime     int             `json:"holdTime"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

type HoldResponse struct {
	Hold Hold `json:"hold"`
}

type CreateBookingRequest struct {
	SeatIdList    []int  `json:"seatIdList" validate:"required,min=1,unique,dive,gt=0"`
	CustomerName  string `json:"customerName" validate:"required,max=100"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
}

type BookingResponse struct {
	BookingId   int             `json:"bookingId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type BookingSummary struct {
	Id           int             `json:"id"`
	MovieTitle   string          `json:"movieTitle"`
	ShowtimeDate time.Time       `json:"showtimeDate"`
	ScreenNumber int             `json:"screenNumber"`
	SeatCount    int             `json:"seatCount"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type UserBookingsResponse struct {
	Bookings []BookingSummary `json:"bookings"`
	Metadata Metadata         `json:"metadata"`
}

type BookingSeat struct {
	Id     int    `json:"id"`
	Row    string `json:"row"`
	Number int    `json:"number"`
}

type BookingDetailResponse struct {
	Id            int             `json:"id"`
	MovieTitle    string          `json:"movieTitle"`
	ShowtimeDate  time.Time       `json:"showtimeDate"`
	ScreenNumber  int             `json:"screenNumber"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Seats         []BookingSeat   `json:"seats"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type BookingRecord struct {
	Id            int             `json:"id"`
	MovieTitle    string          `json:"movieTitle"`
	ShowtimeDate  time.Time       `json:"showtimeDate"`
	ScreenNumber  int             `json:"screenNumber"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	SeatCount     int             `json:"seatCount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type BookingReportResponse struct {
	Bookings []BookingRecord `json:"bookings"`
	Metadata Metadata        `json:"metadata"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}
