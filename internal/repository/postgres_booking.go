package repository

import (
	"context"
	"errors"

	"github.com/cinetix/booking-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// Create appends the booking and claims its seats in one transaction. The seat
// row locks taken by claimSeats are the sole serialization point between
// concurrent bookings: overlapping seat sets are strictly ordered, disjoint
// ones commit concurrently. A claim failure rolls the whole transaction back,
// so a rejected request leaves no ledger entry and no seat state change.
func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (user_id, showtime_id, customer_name, customer_email, total_amount, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			booking.UserID,
			booking.ShowtimeID,
			booking.CustomerName,
			booking.CustomerEmail,
			booking.TotalAmount,
			booking.Status,
		).Scan(&booking.ID, &booking.CreatedAt)

		if err != nil {
			return err
		}

		return claimSeats(ctx, tx, booking.ShowtimeID, booking.SeatIDs, booking.ID)
	})
}

// Cancel marks the booking cancelled and frees its seats atomically.
func (p *PostgresBookingRepository) Cancel(ctx context.Context, bookingID, userID int) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT status
			FROM bookings
			WHERE id = $1 AND user_id = $2
			FOR UPDATE
		`

		var status domain.BookingStatus

		err := tx.QueryRow(ctx, query, bookingID, userID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if status == domain.BookingStatusCancelled {
			return domain.ErrBookingAlreadyCancelled
		}

		query = `UPDATE bookings SET status = $1 WHERE id = $2`

		_, err = tx.Exec(ctx, query, domain.BookingStatusCancelled, bookingID)
		if err != nil {
			return err
		}

		return releaseSeats(ctx, tx, bookingID)
	})
}

func (p *PostgresBookingRepository) GetByIdAndUserId(
	ctx context.Context,
	bookingID,
	userID int) (*domain.BookingDetail, error) {

	query := `
		SELECT
			b.id,
			m.title,
			s.start_time,
			s.screen_number,
			b.customer_name,
			b.customer_email,
			b.total_amount,
			b.status,
			b.created_at
		FROM bookings b
		JOIN showtimes s ON b.showtime_id = s.id
		JOIN movies m ON s.movie_id = m.id
		WHERE b.id = $1 AND b.user_id = $2
	`

	var detail domain.BookingDetail

	err := p.db.QueryRow(ctx, query, bookingID, userID).Scan(
		&detail.BookingID,
		&detail.MovieTitle,
		&detail.ShowtimeDate,
		&detail.ScreenNumber,
		&detail.CustomerName,
		&detail.CustomerEmail,
		&detail.TotalAmount,
		&detail.Status,
		&detail.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	seats, err := p.retrieveBookingSeats(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	detail.Seats = seats

	return &detail, nil
}

func (p *PostgresBookingRepository) retrieveBookingSeats(
	ctx context.Context,
	bookingID int) ([]domain.BookingSeat, error) {

	query := `
		SELECT id, seat_row, seat_number
		FROM seats
		WHERE booking_id = $1
		ORDER BY seat_row, seat_number
	`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.BookingSeat, 0)

	for rows.Next() {
		var seat domain.BookingSeat

		err = rows.Scan(&seat.ID, &seat.Row, &seat.Number)
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

func (p *PostgresBookingRepository) GetBookingSummariesByUserId(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.id,
			m.title,
			s.start_time,
			s.screen_number,
			(SELECT COUNT(*) FROM seats se WHERE se.booking_id = b.id),
			b.total_amount,
			b.status,
			b.created_at
		FROM bookings b
		JOIN showtimes s ON b.showtime_id = s.id
		JOIN movies m ON s.movie_id = m.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	summaries := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.BookingSummary

		err = rows.Scan(
			&totalRecords,
			&summary.BookingID,
			&summary.MovieTitle,
			&summary.ShowtimeDate,
			&summary.ScreenNumber,
			&summary.SeatCount,
			&summary.TotalAmount,
			&summary.Status,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, nil, err
		}

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return summaries, metadata, nil
}

func (p *PostgresBookingRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.BookingRecord, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.id,
			m.title,
			s.start_time,
			s.screen_number,
			b.customer_name,
			b.customer_email,
			(SELECT COUNT(*) FROM seats se WHERE se.booking_id = b.id),
			b.total_amount,
			b.status,
			b.created_at
		FROM bookings b
		JOIN showtimes s ON b.showtime_id = s.id
		JOIN movies m ON s.movie_id = m.id
		ORDER BY b.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := p.db.Query(ctx, query, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	records := make([]domain.BookingRecord, 0)
	totalRecords := 0

	for rows.Next() {
		var record domain.BookingRecord

		err = rows.Scan(
			&totalRecords,
			&record.BookingID,
			&record.MovieTitle,
			&record.ShowtimeDate,
			&record.ScreenNumber,
			&record.CustomerName,
			&record.CustomerEmail,
			&record.SeatCount,
			&record.TotalAmount,
			&record.Status,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, nil, err
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return records, metadata, nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
