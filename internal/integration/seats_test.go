package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/cinetix/booking-engine/api"
	"github.com/cinetix/booking-engine/internal/domain"
	"github.com/cinetix/booking-engine/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SeatMapTestSuite struct {
	BaseSuite
}

func TestSeatMapSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	suite.Run(t, new(SeatMapTestSuite))
}

func (s *SeatMapTestSuite) TestGetSeatMapByShowtime() {
	resetState(s.T(), s.app)
	showtimeId := seedShowtime(s.T(), s.app, futureShowtimeStart())

	scenarios := []Scenario{
		{
			Name:           "returns 404 for a showtime with no seats",
			Method:         "GET",
			URL:            "/showtimes/999/seats",
			ExpectedStatus: http.StatusNotFound,
		},
		{
			Name:           "returns all seats as free for a fresh showtime",
			Method:         "GET",
			URL:            fmt.Sprintf("/showtimes/%d/seats", showtimeId),
			ExpectedStatus: http.StatusOK,
			AfterTestFunc: func(t testing.TB, app *TestApp, res *http.Response) {
				resp := decodeBody[api.SeatMapResponse](t, res.Body)

				require.Equal(t, TestMovieTitle, resp.MovieTitle)
				require.Equal(t, TestScreen, resp.ScreenNumber)
				require.Len(t, resp.SeatRows, 2)

				for _, row := range resp.SeatRows {
					for _, seat := range row.Seats {
						require.Equal(t, api.FREE, seat.Status)
					}
				}
			},
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}

func (s *SeatMapTestSuite) TestSeatMapReflectsBookingsAndHolds() {
	resetState(s.T(), s.app)
	showtimeId := seedShowtime(s.T(), s.app, futureShowtimeStart())

	bookingCookie := s.app.authenticatedUserCookie(s.T(), TestUserId)
	holdCookie := s.app.guestCookie(s.T())

	bookScenario := Scenario{
		Name:           "seat 1 gets booked",
		Method:         "POST",
		URL:            fmt.Sprintf("/showtimes/%d/bookings", showtimeId),
		Body:           bookingRequestBody(1),
		Cookies:        []http.Cookie{bookingCookie},
		ExpectedStatus: http.StatusCreated,
	}
	bookScenario.Run(s.T(), s.app)

	holdScenario := Scenario{
		Name:           "seat 3 gets held by another session",
		Method:         "POST",
		URL:            fmt.Sprintf("/showtimes/%d/holds", showtimeId),
		Body:           holdRequestBody(3),
		Cookies:        []http.Cookie{holdCookie},
		ExpectedStatus: http.StatusOK,
	}
	holdScenario.Run(s.T(), s.app)

	readSeatMap := func(t testing.TB) map[int]api.SeatStatus {
		req, err := prepareRequest("GET", fmt.Sprintf("/showtimes/%d/seats", showtimeId), nil, nil, nil)
		require.NoError(t, err)

		res := executeAgainstRoutes(t, s.app, req)
		defer res.Body.Close()

		require.Equal(t, http.StatusOK, res.StatusCode)

		resp := decodeBody[api.SeatMapResponse](t, res.Body)

		statuses := make(map[int]api.SeatStatus)
		for _, row := range resp.SeatRows {
			for _, seat := range row.Seats {
				statuses[seat.Id] = seat.Status
			}
		}

		return statuses
	}

	statuses := readSeatMap(s.T())

	s.Equal(api.BOOKED, statuses[1])
	s.Equal(api.FREE, statuses[2])
	s.Equal(api.HELD, statuses[3])
	s.Equal(api.FREE, statuses[4])

	// reading the seat map is idempotent and must not mutate any seat state
	s.Equal(statuses, readSeatMap(s.T()))
}

func (s *SeatMapTestSuite) TestProvisionSeatsIsOneShot() {
	resetState(s.T(), s.app)
	showtimeId := seedShowtime(s.T(), s.app, futureShowtimeStart())

	seatRepo := repository.NewPostgresSeatRepository(s.app.DB)

	err := seatRepo.ProvisionSeats(context.Background(), showtimeId, []string{"A", "B"}, 2)
	s.ErrorIs(err, domain.ErrSeatsAlreadyProvisioned)

	var seatCount int
	err = s.app.DB.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM seats WHERE showtime_id = $1`, showtimeId,
	).Scan(&seatCount)
	s.NoError(err)
	s.Equal(4, seatCount)
}
