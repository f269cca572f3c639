package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinetix/booking-engine/api"
	"github.com/cinetix/booking-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	seatHoldTTL = 10 * time.Minute
	holdTTL     = 10 * time.Minute
)

var holdSeatsScript = redis.NewScript(`
    -- KEYS = seat hold keys (e.g., seat_hold:123:1, seat_hold:123:2 etc.)
    -- ARGV = [sessionID, ttl]

    for i=1, #KEYS do
        if redis.call("EXISTS", KEYS[i]) == 1 then
            return {err = "seat already held"} -- Return an error indicator
        end
    end

    for i=1, #KEYS do
        redis.call("SET", KEYS[i], ARGV[1], "EX", ARGV[2])
    end

    return "OK"
`)

// CreateHoldHandler places a time-boxed soft reservation on a seat set while
// the customer fills out the booking form. Holds improve UX only: the final
// commit still goes through the atomic database claim, which remains the
// single source of truth for booked seats.
func (app *Application) CreateHoldHandler(w http.ResponseWriter, r *http.Request, showtimeID int) {
	logger := app.contextGetLogger(r)

	if showtimeID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must be greater than zero"))
		return
	}

	var input api.CreateHoldRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	sessionID := app.sessionManager.Token(r.Context())
	holdId, err := app.redis.Get(r.Context(), holdSessionKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		logger.Error("failed to check for existing hold in redis", "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	if holdId != "" {
		logger.Warn("hold attempt rejected: a hold already exists for this session")
		app.badRequestResponse(w, r, fmt.Errorf("cannot create new hold if a hold already exists in session"))
		return
	}

	showtime, err := app.showtimeRepo.GetById(r.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	if showtime.Started(time.Now()) {
		app.unprocessableEntityResponse(w, r, domain.ErrShowtimeExpired)
		return
	}

	seatIds := input.SeatIdList

	seats, err := app.seatRepo.GetSeatsByShowtimeAndSeatIds(r.Context(), showtimeID, seatIds)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(seats) != len(seatIds) {
		logger.Warn("hold failed: one or more requested seat IDs do not exist for the showtime", "requested_seats", seatIds)
		app.notFoundResponse(w, r)
		return
	}

	for _, seat := range seats {
		if seat.Status == domain.SeatStatusBooked {
			logger.Warn("hold conflict: user selected an already booked seat", "seat_id", seat.ID)
			app.seatConflictResponse(w, r, []int{seat.ID})
			return
		}
	}

	err = app.tryHoldSeats(r.Context(), seatIds, showtimeID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatAlreadyHeld):
			logger.Warn("hold conflict due to race condition: user selected an already held seat")
			app.seatConflictResponse(w, r, seatIds)
		default:
			app.serverErrorResponse(w, r, fmt.Errorf("seats couldn't be acquired: %w", err))
		}

		return
	}

	hold, err := app.createHold(r.Context(), seatIds, showtimeID, sessionID, *showtime, seats)
	if err != nil {
		logger.Error("hold creation process failed", "error", err)
		app.serverErrorResponse(w, r, fmt.Errorf("hold couldn't be created: %w", err))
		return
	}

	resp := api.HoldResponse{
		Hold: toApiHold(hold),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiHold(hold *domain.Hold) api.Hold {
	return api.Hold{
		HoldId:       hold.Id,
		ShowtimeId:   hold.ShowtimeID,
		MovieTitle:   hold.MovieTitle,
		ShowtimeDate: hold.ShowtimeDate.Format(time.RFC1123),
		ScreenNumber: hold.ScreenNumber,
		Seats:        toApiHoldSeats(hold.Seats),
		HoldTime:     int(holdTTL.Seconds()),
		BasePrice:    hold.BasePrice,
		TotalPrice:   hold.TotalPrice,
	}
}

func toApiHoldSeats(holdSeats []domain.HoldSeat) []api.HoldSeat {
	apiHoldSeats := make([]api.HoldSeat, len(holdSeats))

	for i, v := range holdSeats {
		apiHoldSeats[i] = api.HoldSeat{
			Id:     v.Id,
			Row:    v.Row,
			Number: v.Number,
		}
	}

	return apiHoldSeats
}

// tryHoldSeats acquires hold locks on every requested seat as a single
// all-or-nothing unit. Two concurrent attempts on overlapping seat sets
// cannot both succeed because the script runs atomically in Redis.
func (app *Application) tryHoldSeats(ctx context.Context, seatIDs []int, showtimeID int, sessionID string) error {
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = seatHoldKey(showtimeID, seatID)
	}

	err := holdSeatsScript.Run(ctx, app.redis, keys, sessionID, int(seatHoldTTL.Seconds())).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, "seat already held") {
			return domain.ErrSeatAlreadyHeld
		}

		return err
	}

	return nil
}

func (app *Application) createHold(
	ctx context.Context,
	seatIDs []int,
	showtimeID int,
	sessionID string,
	showtime domain.Showtime,
	seats []domain.Seat) (*domain.Hold, error) {

	hold := domain.NewHold(showtime, seats)
	holdBytes, err := json.Marshal(hold)
	if err != nil {
		app.rollbackSeatHolds(ctx, showtimeID, seatIDs)
		return nil, err
	}

	holdPipe := app.redis.TxPipeline()

	seatIdInterfaces := make([]interface{}, len(seatIDs))
	for i, seatID := range seatIDs {
		seatIdInterfaces[i] = seatID
	}
	holdPipe.SAdd(ctx, seatHoldSetKey(showtimeID), seatIdInterfaces...)

	holdPipe.Set(ctx, holdSessionKey(sessionID), hold.Id, holdTTL)
	holdPipe.Set(ctx, hold.Id, holdBytes, holdTTL)

	_, err = holdPipe.Exec(ctx)
	if err != nil {
		app.rollbackSeatHolds(ctx, showtimeID, seatIDs)
		return nil, err
	}

	return &hold, nil
}

func (app *Application) rollbackSeatHolds(ctx context.Context, showtimeID int, seatIDs []int) {
	holdKeys := make([]string, len(seatIDs))
	seatIDInterfaces := make([]interface{}, len(seatIDs))

	for i, seatID := range seatIDs {
		holdKeys[i] = seatHoldKey(showtimeID, seatID)
		seatIDInterfaces[i] = seatID
	}

	pipe := app.redis.TxPipeline()
	pipe.Del(ctx, holdKeys...)
	pipe.SRem(ctx, seatHoldSetKey(showtimeID), seatIDInterfaces...)

	_, err := pipe.Exec(ctx)
	if err != nil {
		app.logger.Error("failed to rollback seat holds", "error", err)
		return
	}
}

func holdSessionKey(sessionID string) string {
	return fmt.Sprintf("hold:%s", sessionID)
}

func seatHoldKey(showtimeID, seatID int) string {
	return fmt.Sprintf("seat_hold:%d:%d", showtimeID, seatID)
}

func seatHoldSetKey(showtimeID int) string {
	return fmt.Sprintf("seat_holds:%d", showtimeID)
}

func (app *Application) DeleteHoldHandler(w http.ResponseWriter, r *http.Request, showtimeID int) {
	logger := app.contextGetLogger(r)

	if showtimeID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must be greater than zero"))
		return
	}

	sessionID := app.sessionManager.Token(r.Context())

	holdId, err := app.redis.Get(r.Context(), holdSessionKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if holdId == "" {
		app.notFoundResponse(w, r)
		return
	}

	holdBytes, err := app.redis.Get(r.Context(), holdId).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// The session points to a hold that no longer exists, delete the session key
			logger.Warn("dangling hold session key found and cleaned up", "dangling_hold_id", holdId)
			app.redis.Del(r.Context(), holdSessionKey(sessionID))
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	var hold domain.Hold

	err = json.Unmarshal(holdBytes, &hold)
	if err != nil {
		logger.Error("failed to unmarshal hold from redis", "hold_id", holdId, "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	if hold.ShowtimeID != showtimeID {
		logger.Warn(
			"hold deletion attempt with mismatched showtime ID in URL",
			"hold_showtime_id", hold.ShowtimeID,
			"url_showtime_id", showtimeID,
		)
		app.notFoundResponse(w, r)
		return
	}

	pipe := app.redis.TxPipeline()

	for _, seat := range hold.Seats {
		pipe.Del(r.Context(), seatHoldKey(showtimeID, seat.Id))
		pipe.SRem(r.Context(), seatHoldSetKey(showtimeID), seat.Id)
	}

	pipe.Del(r.Context(), holdId)
	pipe.Del(r.Context(), holdSessionKey(sessionID))

	_, err = pipe.Exec(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// seatsHeldByOtherSession returns the subset of seatIDs currently hold-locked
// by a session other than the given one.
func (app *Application) seatsHeldByOtherSession(
	ctx context.Context,
	showtimeID int,
	seatIDs []int,
	sessionID string) ([]int, error) {

	heldByOthers := make([]int, 0)

	for _, seatID := range seatIDs {
		ownerSessionID, err := app.redis.Get(ctx, seatHoldKey(showtimeID, seatID)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			return nil, err
		}

		if ownerSessionID != sessionID {
			heldByOthers = append(heldByOthers, seatID)
		}
	}

	return heldByOthers, nil
}

// clearSeatHolds drops the session's hold locks after a successful booking.
// Best effort: the locks expire on their own anyway.
func (app *Application) clearSeatHolds(ctx context.Context, showtimeID int, seatIDs []int, sessionID string) error {
	holdId, err := app.redis.Get(ctx, holdSessionKey(sessionID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := app.redis.TxPipeline()

	for _, seatID := range seatIDs {
		pipe.Del(ctx, seatHoldKey(showtimeID, seatID))
		pipe.SRem(ctx, seatHoldSetKey(showtimeID), seatID)
	}

	if holdId != "" {
		pipe.Del(ctx, holdId)
		pipe.Del(ctx, holdSessionKey(sessionID))
	}

	_, err = pipe.Exec(ctx)
	return err
}
