package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinetix/booking-engine/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

func (p *PostgresSeatRepository) GetSeatsByShowtime(ctx context.Context, showtimeID int) (*domain.ShowtimeSeatMap, error) {
	query := `
		SELECT
			s.id,
			s.movie_id,
			m.title,
			s.start_time,
			s.screen_number,
			s.price,
			s.total_seats,
			se.id,
			se.seat_row,
			se.seat_number,
			se.status,
			se.booking_id
		FROM showtimes s
		JOIN movies m ON s.movie_id = m.id
		JOIN seats se ON se.showtime_id = s.id
		WHERE s.id = $1
		ORDER BY se.seat_row, se.seat_number
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seatMap domain.ShowtimeSeatMap

	for rows.Next() {
		var seat domain.Seat

		err = rows.Scan(
			&seatMap.Showtime.ID,
			&seatMap.Showtime.MovieID,
			&seatMap.Showtime.MovieTitle,
			&seatMap.Showtime.StartTime,
			&seatMap.Showtime.ScreenNumber,
			&seatMap.Showtime.Price,
			&seatMap.Showtime.TotalSeats,
			&seat.ID,
			&seat.Row,
			&seat.Number,
			&seat.Status,
			&seat.BookingID,
		)
		if err != nil {
			return nil, err
		}

		seatMap.Seats = append(seatMap.Seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(seatMap.Seats) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	return &seatMap, nil
}

func (p *PostgresSeatRepository) GetSeatsByShowtimeAndSeatIds(
	ctx context.Context,
	showtimeID int,
	seatIDs []int) ([]domain.Seat, error) {

	query := `
		SELECT id, seat_row, seat_number, status, booking_id
		FROM seats
		WHERE showtime_id = $1 AND id = ANY($2)
		ORDER BY seat_row, seat_number
	`

	rows, err := p.db.Query(ctx, query, showtimeID, seatIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0, len(seatIDs))

	for rows.Next() {
		var seat domain.Seat

		err = rows.Scan(&seat.ID, &seat.Row, &seat.Number, &seat.Status, &seat.BookingID)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

// ProvisionSeats creates the seat inventory of a showtime: rows of numbered
// seats, all free. This is a one-time setup operation, not part of the
// allocation protocol.
func (p *PostgresSeatRepository) ProvisionSeats(
	ctx context.Context,
	showtimeID int,
	seatRows []string,
	seatsPerRow int) error {

	rows := make([][]any, 0, len(seatRows)*seatsPerRow)
	for _, row := range seatRows {
		for number := 1; number <= seatsPerRow; number++ {
			rows = append(rows, []any{showtimeID, row, number, domain.SeatStatusFree})
		}
	}

	_, err := p.db.CopyFrom(
		ctx,
		pgx.Identifier{"seats"},
		[]string{"showtime_id", "seat_row", "seat_number", "status"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrSeatsAlreadyProvisioned
		}

		return err
	}

	return nil
}

// claimSeats transitions every seat in seatIDs from free to booked as a single
// atomic unit, inside the caller's transaction. Seats are locked in seat id
// order so that overlapping claims always acquire locks in the same sequence.
// If any seat is not free, a *domain.SeatConflictError naming the conflicting
// seats is returned and the transaction must be rolled back.
func claimSeats(ctx context.Context, tx pgx.Tx, showtimeID int, seatIDs []int, bookingID int) error {
	query := `
		SELECT id, status
		FROM seats
		WHERE showtime_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, showtimeID, seatIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	locked := 0
	conflicts := make([]int, 0)

	for rows.Next() {
		var (
			seatID int
			status domain.SeatStatus
		)

		err = rows.Scan(&seatID, &status)
		if err != nil {
			return err
		}

		locked++

		if status != domain.SeatStatusFree {
			conflicts = append(conflicts, seatID)
		}
	}

	if err = rows.Err(); err != nil {
		return err
	}

	if locked != len(seatIDs) {
		return domain.ErrRecordNotFound
	}

	if len(conflicts) > 0 {
		return &domain.SeatConflictError{SeatIDs: conflicts}
	}

	query = `
		UPDATE seats
		SET status = $1, booking_id = $2
		WHERE showtime_id = $3 AND id = ANY($4) AND status = $5
	`

	tag, err := tx.Exec(ctx, query, domain.SeatStatusBooked, bookingID, showtimeID, seatIDs, domain.SeatStatusFree)
	if err != nil {
		return err
	}

	if int(tag.RowsAffected()) != len(seatIDs) {
		return fmt.Errorf("claimed %d of %d seats despite row locks", tag.RowsAffected(), len(seatIDs))
	}

	return nil
}

// releaseSeats is the inverse transition, booked back to free, used on booking
// cancellation. Same transactional discipline as claimSeats.
func releaseSeats(ctx context.Context, tx pgx.Tx, bookingID int) error {
	query := `
		UPDATE seats
		SET status = $1, booking_id = NULL
		WHERE booking_id = $2
	`

	_, err := tx.Exec(ctx, query, domain.SeatStatusFree, bookingID)
	return err
}
