package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cinetix/booking-engine/internal/app"
	"github.com/cinetix/booking-engine/internal/repository"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type TestApp struct {
	App   *app.Application
	DB    *pgxpool.Pool
	Cache *redis.Client
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	application, err := app.NewApplication(cfg)
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	cache := redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})

	return &TestApp{
		App:   application,
		DB:    db,
		Cache: cache,
	}, nil
}

func (a *TestApp) Close() {
	a.DB.Close()
	a.Cache.Close()
	a.App.Close()
}

// authenticatedUserCookie commits a session carrying the given user id, the
// way the external identity provider would, and returns its cookie.
func (a *TestApp) authenticatedUserCookie(t testing.TB, userId int) http.Cookie {
	sessionManager := a.App.SessionManager()

	ctx, err := sessionManager.Load(context.Background(), "")
	require.NoError(t, err)

	sessionManager.Put(ctx, app.SessionKeyUserId.String(), userId)

	token, _, err := sessionManager.Commit(ctx)
	require.NoError(t, err)

	return http.Cookie{Name: "session_id", Value: token}
}

// guestCookie commits an anonymous session and returns its cookie. Used to
// exercise hold ownership across distinct sessions.
func (a *TestApp) guestCookie(t testing.TB) http.Cookie {
	sessionManager := a.App.SessionManager()

	ctx, err := sessionManager.Load(context.Background(), "")
	require.NoError(t, err)

	sessionManager.Put(ctx, app.SessionKeyGuest.String(), true)

	token, _, err := sessionManager.Commit(ctx)
	require.NoError(t, err)

	return http.Cookie{Name: "session_id", Value: token}
}

// resetState empties the booking tables and drops all hold keys while leaving
// committed sessions untouched.
func resetState(t testing.TB, a *TestApp) {
	ctx := context.Background()

	_, err := a.DB.Exec(ctx, `TRUNCATE seats, bookings, showtimes, movies RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	for _, pattern := range []string{"seat_hold:*", "seat_holds:*", "hold:*"} {
		iter := a.Cache.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()

			if pattern == "hold:*" {
				if holdId, err := a.Cache.Get(ctx, key).Result(); err == nil {
					a.Cache.Del(ctx, holdId)
				}
			}

			a.Cache.Del(ctx, key)
		}
		require.NoError(t, iter.Err())
	}
}

// seedShowtime inserts a movie and one showtime, then provisions two rows of
// two seats each. With identities restarted the seat ids are deterministic:
// A1=1, A2=2, B1=3, B2=4.
func seedShowtime(t testing.TB, a *TestApp, startTime time.Time) int {
	ctx := context.Background()

	var movieId int
	err := a.DB.QueryRow(ctx,
		`INSERT INTO movies (title, duration_minutes) VALUES ($1, 120) RETURNING id`,
		TestMovieTitle,
	).Scan(&movieId)
	require.NoError(t, err)

	var showtimeId int
	err = a.DB.QueryRow(ctx,
		`INSERT INTO showtimes (movie_id, start_time, screen_number, price, total_seats)
		 VALUES ($1, $2, $3, $4, 4) RETURNING id`,
		movieId, startTime, TestScreen, TestSeatPrice,
	).Scan(&showtimeId)
	require.NoError(t, err)

	seatRepo := repository.NewPostgresSeatRepository(a.DB)
	require.NoError(t, seatRepo.ProvisionSeats(ctx, showtimeId, []string{"A", "B"}, 2))

	return showtimeId
}

func seatStatus(t testing.TB, a *TestApp, seatId int) (string, *int) {
	var status string
	var bookingId *int

	err := a.DB.QueryRow(context.Background(),
		`SELECT status, booking_id FROM seats WHERE id = $1`, seatId,
	).Scan(&status, &bookingId)
	require.NoError(t, err)

	return status, bookingId
}

func bookingStatus(t testing.TB, a *TestApp, bookingId int) string {
	var status string

	err := a.DB.QueryRow(context.Background(),
		`SELECT status FROM bookings WHERE id = $1`, bookingId,
	).Scan(&status)
	require.NoError(t, err)

	return status
}

func countBookings(t testing.TB, a *TestApp, showtimeId int) int {
	var count int

	err := a.DB.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM bookings WHERE showtime_id = $1 AND status = 'confirmed'`, showtimeId,
	).Scan(&count)
	require.NoError(t, err)

	return count
}

func bookingRequestBody(seatIds ...int) io.Reader {
	body, _ := json.Marshal(map[string]any{
		"seatIdList":    seatIds,
		"customerName":  TestCustomer,
		"customerEmail": TestCustomerEml,
	})

	return bytes.NewReader(body)
}

func holdRequestBody(seatIds ...int) io.Reader {
	body, _ := json.Marshal(map[string]any{"seatIdList": seatIds})

	return bytes.NewReader(body)
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string, cookies []http.Cookie) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	for _, cookie := range cookies {
		req.AddCookie(&cookie)
	}

	return req, nil
}

func executeAgainstRoutes(t testing.TB, a *TestApp, req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	a.App.Routes().ServeHTTP(rec, req)

	return rec.Result()
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indeterministic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		return k == "timestamp" || k == "requestId" || k == "createdAt" || k == "holdId"
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func decodeBody[T any](t testing.TB, body io.Reader) T {
	var v T
	require.NoError(t, json.NewDecoder(body).Decode(&v))

	return v
}

func futureShowtimeStart() time.Time {
	return time.Now().Add(4 * time.Hour).Truncate(time.Second)
}

func pastShowtimeStart() time.Time {
	return time.Now().Add(-1 * time.Hour).Truncate(time.Second)
}
