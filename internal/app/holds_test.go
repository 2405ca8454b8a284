package app

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/megacine/reservation-system/api"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testUserId      = 11
	testScreeningId = 3
	maxSeats        = 8
)

var testSeatIds = []int{101, 102}

type HoldsTestSuite struct {
	suite.Suite
	app            *Application
	bookingService *MockBookingService
}

func (s *HoldsTestSuite) SetupTest() {
	s.bookingService = new(MockBookingService)

	s.app = newTestApplication(func(a *Application) {
		a.bookingService = s.bookingService
	})
}

func TestHoldsSuite(t *testing.T) {
	suite.Run(t, new(HoldsTestSuite))
}

func (s *HoldsTestSuite) TestCreateSeatHoldsHandler() {
	tests := []struct {
		name           string
		screeningId    string
		input          api.SeatHoldRequest
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:        "should hold seats and return no content",
			screeningId: "3",
			input:       api.SeatHoldRequest{SeatIdList: testSeatIds},
			setupMocks: func() {
				s.bookingService.On("HoldSeats", mock.Anything, testUserId, testScreeningId, testSeatIds).
					Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:        "should fail when screening ID is not a positive integer",
			screeningId: "0",
			input:       api.SeatHoldRequest{SeatIdList: testSeatIds},
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "should fail when seat list is empty",
			screeningId: "3",
			input:       api.SeatHoldRequest{SeatIdList: []int{}},
			wantStatus:  http.StatusUnprocessableEntity,
		},
		{
			name:        "should fail when seat count exceeds the maximum",
			screeningId: "3",
			input:       api.SeatHoldRequest{SeatIdList: make([]int, maxSeats+1)},
			wantStatus:  http.StatusUnprocessableEntity,
		},
		{
			name:        "should fail when seat IDs repeat",
			screeningId: "3",
			input:       api.SeatHoldRequest{SeatIdList: []int{101, 101}},
			wantStatus:  http.StatusUnprocessableEntity,
		},
		{
			name:        "should return conflict when another user holds a seat",
			screeningId: "3",
			input:       api.SeatHoldRequest{SeatIdList: testSeatIds},
			setupMocks: func() {
				s.bookingService.On("HoldSeats", mock.Anything, testUserId, testScreeningId, testSeatIds).
					Return(domain.ErrSeatAlreadyHeld)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:        "should refuse holds inside the reservation cutoff",
			screeningId: "3",
			input:       api.SeatHoldRequest{SeatIdList: testSeatIds},
			setupMocks: func() {
				s.bookingService.On("HoldSeats", mock.Anything, testUserId, testScreeningId, testSeatIds).
					Return(domain.ErrScreeningNotReservable)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:        "should return not found for an unknown screening",
			screeningId: "3",
			input:       api.SeatHoldRequest{SeatIdList: testSeatIds},
			setupMocks: func() {
				s.bookingService.On("HoldSeats", mock.Anything, testUserId, testScreeningId, testSeatIds).
					Return(domain.ErrScreeningNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			url := fmt.Sprintf("/screenings/%s/holds", tt.screeningId)
			w, r := executeRequest(s.T(), http.MethodPost, url, tt.input)
			r = withAuthenticatedUser(r, testUserId)
			r = withURLParam(r, "screeningId", tt.screeningId)

			s.app.CreateSeatHoldsHandler(w, r)

			s.Equal(tt.wantStatus, w.Code)
		})
	}
}

func (s *HoldsTestSuite) TestReleaseSeatHoldsHandler() {
	s.bookingService.On("ReleaseHolds", mock.Anything, testUserId, testSeatIds).Return(nil)

	w, r := executeRequest(s.T(), http.MethodDelete, "/screenings/3/holds",
		api.SeatHoldRequest{SeatIdList: testSeatIds})
	r = withAuthenticatedUser(r, testUserId)
	r = withURLParam(r, "screeningId", "3")

	s.app.ReleaseSeatHoldsHandler(w, r)

	s.Equal(http.StatusNoContent, w.Code)
	s.bookingService.AssertExpectations(s.T())
}
