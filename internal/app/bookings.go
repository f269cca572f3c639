package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinetix/booking-engine/api"
	"github.com/cinetix/booking-engine/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CreateBookingHandler is the allocation engine entry point: it validates one
// booking attempt end-to-end and commits the claim, or rejects the whole
// request. Preconditions run in a fixed order and the first failure wins.
// A lost seat race is surfaced immediately; the engine never retries.
func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request, showtimeID int) {
	logger := app.contextGetLogger(r)

	if showtimeID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must be greater than zero"))
		return
	}

	var input api.CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	showtime, err := app.showtimeRepo.GetById(r.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponseWithErr(w, r, fmt.Errorf("showtime not found"))
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	if showtime.Started(time.Now()) {
		app.unprocessableEntityResponse(w, r, domain.ErrShowtimeExpired)
		return
	}

	distinctSeatIds := distinctInts(input.SeatIdList)

	if len(distinctSeatIds) > 0 {
		seats, err := app.seatRepo.GetSeatsByShowtimeAndSeatIds(r.Context(), showtimeID, distinctSeatIds)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		if len(seats) != len(distinctSeatIds) {
			logger.Warn(
				"booking rejected: one or more requested seat IDs do not exist for the showtime",
				"requested_seats", input.SeatIdList,
			)
			app.notFoundResponseWithErr(w, r, fmt.Errorf("one or more seats do not exist for this showtime"))
			return
		}
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	sessionID := app.sessionManager.Token(r.Context())

	heldByOthers, err := app.seatsHeldByOtherSession(r.Context(), showtimeID, input.SeatIdList, sessionID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(heldByOthers) > 0 {
		logger.Warn("booking rejected: seats held by another session", "conflicting_seats", heldByOthers)
		app.seatConflictResponse(w, r, heldByOthers)
		return
	}

	seatCount := decimal.NewFromInt(int64(len(input.SeatIdList)))
	totalAmount := showtime.PriceDecimal().Mul(seatCount)

	booking := domain.Booking{
		UserID:        app.contextGetUserId(r),
		ShowtimeID:    showtimeID,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		SeatIDs:       input.SeatIdList,
		TotalAmount:   totalAmount,
		Status:        domain.BookingStatusConfirmed,
	}

	err = app.bookingRepo.Create(r.Context(), &booking)
	if err != nil {
		var conflictErr *domain.SeatConflictError

		switch {
		case errors.As(err, &conflictErr):
			logger.Warn("booking lost seat race", "conflicting_seats", conflictErr.SeatIDs)
			app.seatConflictResponse(w, r, conflictErr.SeatIDs)
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponseWithErr(w, r, fmt.Errorf("one or more seats do not exist for this showtime"))
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.clearSeatHolds(r.Context(), showtimeID, booking.SeatIDs, sessionID)
	if err != nil {
		logger.Warn("failed to clear seat holds after booking", "booking_id", booking.ID, "error", err)
	}

	logger.Info("booking confirmed", "booking_id", booking.ID, "showtime_id", showtimeID, "seat_count", len(booking.SeatIDs))

	resp := api.BookingResponse{
		BookingId:   booking.ID,
		TotalAmount: booking.TotalAmount,
		Status:      string(booking.Status),
		CreatedAt:   booking.CreatedAt,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func distinctInts(values []int) []int {
	seen := make(map[int]bool, len(values))
	distinct := make([]int, 0, len(values))

	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}

	return distinct
}

func (app *Application) GetUserBookingsHandler(w http.ResponseWriter, r *http.Request) {
	userId := app.contextGetUserId(r)
	pagination := app.readPagination(r)

	summaries, metadata, err := app.bookingRepo.GetBookingSummariesByUserId(r.Context(), userId, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.UserBookingsResponse{
		Bookings: toApiBookingSummaries(summaries),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetUserBookingByIdHandler(w http.ResponseWriter, r *http.Request, bookingID int) {
	if bookingID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("booking ID must be greater than zero"))
		return
	}

	userId := app.contextGetUserId(r)

	detail, err := app.bookingRepo.GetByIdAndUserId(r.Context(), bookingID, userId)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toApiBookingDetail(detail)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// CancelBookingHandler releases a booking's seats using the same atomicity
// discipline as the claim itself.
func (app *Application) CancelBookingHandler(w http.ResponseWriter, r *http.Request, bookingID int) {
	logger := app.contextGetLogger(r)

	if bookingID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("booking ID must be greater than zero"))
		return
	}

	userId := app.contextGetUserId(r)

	detail, err := app.bookingRepo.GetByIdAndUserId(r.Context(), bookingID, userId)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	if !detail.ShowtimeDate.After(time.Now()) {
		app.unprocessableEntityResponse(w, r, fmt.Errorf("bookings cannot be cancelled after the showtime has started"))
		return
	}

	err = app.bookingRepo.Cancel(r.Context(), bookingID, userId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrBookingAlreadyCancelled):
			app.editConflictResponseWithErr(w, r, domain.ErrBookingAlreadyCancelled)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("booking cancelled", "booking_id", bookingID)

	w.WriteHeader(http.StatusNoContent)
}

// GetBookingsReportHandler is the ledger's reporting projection: every booking
// with its showtime and movie context, newest first. Read-only, not part of
// the concurrency-critical path.
func (app *Application) GetBookingsReportHandler(w http.ResponseWriter, r *http.Request) {
	pagination := app.readPagination(r)

	records, metadata, err := app.bookingRepo.GetAll(r.Context(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingReportResponse{
		Bookings: toApiBookingRecords(records),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiBookingSummaries(summaries []domain.BookingSummary) []api.BookingSummary {
	apiSummaries := make([]api.BookingSummary, len(summaries))

	for i, v := range summaries {
		apiSummaries[i] = api.BookingSummary{
			Id:           v.BookingID,
			MovieTitle:   v.MovieTitle,
			ShowtimeDate: v.ShowtimeDate,
			ScreenNumber: v.ScreenNumber,
			SeatCount:    v.SeatCount,
			TotalAmount:  v.TotalAmount,
			Status:       string(v.Status),
			CreatedAt:    v.CreatedAt,
		}
	}

	return apiSummaries
}

func toApiBookingDetail(detail *domain.BookingDetail) api.BookingDetailResponse {
	seats := make([]api.BookingSeat, len(detail.Seats))
	for i, v := range detail.Seats {
		seats[i] = api.BookingSeat{
			Id:     v.ID,
			Row:    v.Row,
			Number: v.Number,
		}
	}

	return api.BookingDetailResponse{
		Id:            detail.BookingID,
		MovieTitle:    detail.MovieTitle,
		ShowtimeDate:  detail.ShowtimeDate,
		ScreenNumber:  detail.ScreenNumber,
		CustomerName:  detail.CustomerName,
		CustomerEmail: detail.CustomerEmail,
		Seats:         seats,
		TotalAmount:   detail.TotalAmount,
		Status:        string(detail.Status),
		CreatedAt:     detail.CreatedAt,
	}
}

func toApiBookingRecords(records []domain.BookingRecord) []api.BookingRecord {
	apiRecords := make([]api.BookingRecord, len(records))

	for i, v := range records {
		apiRecords[i] = api.BookingRecord{
			Id:            v.BookingID,
			MovieTitle:    v.MovieTitle,
			ShowtimeDate:  v.ShowtimeDate,
			ScreenNumber:  v.ScreenNumber,
			CustomerName:  v.CustomerName,
			CustomerEmail: v.CustomerEmail,
			SeatCount:     v.SeatCount,
			TotalAmount:   v.TotalAmount,
			Status:        string(v.Status),
			CreatedAt:     v.CreatedAt,
		}
	}

	return apiRecords
}

func toApiMetadata(metadata *domain.Metadata) api.Metadata {
	if metadata == nil {
		return api.Metadata{}
	}

	return api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
