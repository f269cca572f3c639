package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cinetix/booking-engine/api"
	"github.com/cinetix/booking-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis Lua script to clean up expired seat hold locks and return currently valid held seat IDs.
var filterValidHoldSeats = redis.NewScript(`
	local setKey = KEYS[1]
	local showtimeId = ARGV[1]
	local cursor = "0"
	local batchSize = 100
	local expiredSeats = {}
	local validSeats = {}

	repeat
		local result = redis.call("SSCAN", setKey, cursor, "COUNT", batchSize)
		cursor = result[1]
		local seatIds = result[2]

		for _, seatId in ipairs(seatIds) do
			local holdKey = "seat_hold:" .. showtimeId .. ":" .. seatId
			if redis.call("EXISTS", holdKey) == 0 then
				table.insert(expiredSeats, seatId)
			else
				table.insert(validSeats, seatId)
			end
		end
	until cursor == "0"

	if #expiredSeats > 0 then
		redis.call("SREM", setKey, unpack(expiredSeats))
	end

	return validSeats
`)

func (app *Application) GetSeatMapByShowtime(
	w http.ResponseWriter,
	r *http.Request,
	showtimeID int) {

	logger := app.contextGetLogger(r)

	if showtimeID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must be greater than zero"))
		return
	}

	seatMap, err := app.seatRepo.GetSeatsByShowtime(r.Context(), showtimeID)
	if err != nil {
		if err == domain.ErrRecordNotFound {
			logger.Warn("seat map not found for showtime", "showtime_id", showtimeID)
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	heldSeatIds, err := app.currentlyHeldSeats(r.Context(), showtimeID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := toSeatMapResponse(showtimeID, seatMap, heldSeatIds)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// currentlyHeldSeats prunes expired hold locks from the per-showtime member
// set and returns the seat ids still under a valid hold.
func (app *Application) currentlyHeldSeats(ctx context.Context, showtimeID int) (map[int]bool, error) {
	cmd := filterValidHoldSeats.Run(ctx, app.redis, []string{seatHoldSetKey(showtimeID)}, showtimeID)
	heldSeatIds, err := cmd.Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run filterValidHoldSeats script: %w", err)
	}

	held := make(map[int]bool, len(heldSeatIds))
	for _, seatId := range heldSeatIds {
		held[int(seatId)] = true
	}

	return held, nil
}

func toSeatMapResponse(showtimeID int, seatMap *domain.ShowtimeSeatMap, heldSeatIds map[int]bool) api.SeatMapResponse {
	return api.SeatMapResponse{
		ShowtimeId:   showtimeID,
		MovieTitle:   seatMap.Showtime.MovieTitle,
		ShowtimeDate: seatMap.Showtime.StartTime,
		ScreenNumber: seatMap.Showtime.ScreenNumber,
		BasePrice:    seatMap.Showtime.PriceDecimal(),
		SeatRows:     toSeatRows(seatMap.Seats, heldSeatIds),
	}
}

func toSeatRows(seats []domain.Seat, heldSeatIds map[int]bool) []api.SeatRow {
	// Seats are pre-sorted by row,number (ascending).
	// This allows us to process them in a single pass without additional sorting or mapping.

	var seatRows []api.SeatRow
	currentRow := api.SeatRow{Row: seats[0].Row}

	for _, v := range seats {
		if v.Row != currentRow.Row {
			seatRows = append(seatRows, currentRow)
			currentRow = api.SeatRow{Row: v.Row}
		}

		currentRow.Seats = append(currentRow.Seats, api.Seat{
			Id:     v.ID,
			Row:    v.Row,
			Number: v.Number,
			Status: toSeatStatus(v, heldSeatIds),
		})
	}

	seatRows = append(seatRows, currentRow)

	return seatRows
}

func toSeatStatus(seat domain.Seat, heldSeatIds map[int]bool) api.SeatStatus {
	switch {
	case seat.Status == domain.SeatStatusBooked:
		return api.BOOKED
	case heldSeatIds[seat.ID]:
		return api.HELD
	default:
		return api.FREE
	}
}
