package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/megacine/reservation-system/internal/validator"
	"github.com/stretchr/testify/mock"
)

func newTestApplication(opts ...func(*Application)) *Application {
	app := &Application{
		config:    Config{Env: "test"},
		validator: validator.NewValidator(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// withAuthenticatedUser injects the user id the way requireAuthentication does.
func withAuthenticatedUser(r *http.Request, userId int) *http.Request {
	ctx := context.WithValue(r.Context(), SessionKeyUserId, userId)
	return r.WithContext(ctx)
}

// withURLParam injects a chi route parameter for direct handler invocation.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}

	rctx.URLParams.Add(key, value)

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type MockBookingService struct {
	mock.Mock
	BookingOrchestrator
}

func (m *MockBookingService) HoldSeats(ctx context.Context, userId, screeningId int, seatIds []int) error {
	args := m.Called(ctx, userId, screeningId, seatIds)
	return args.Error(0)
}

func (m *MockBookingService) ReleaseHolds(ctx context.Context, userId int, seatIds []int) error {
	args := m.Called(ctx, userId, seatIds)
	return args.Error(0)
}

func (m *MockBookingService) CreateReservation(
	ctx context.Context,
	userId, screeningId int,
	seatIds []int) (*domain.ReservationGroup, *domain.Payment, error) {

	args := m.Called(ctx, userId, screeningId, seatIds)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.ReservationGroup), args.Get(1).(*domain.Payment), args.Error(2)
}

func (m *MockBookingService) CancelScreening(ctx context.Context, screeningId int, reason string) error {
	args := m.Called(ctx, screeningId, reason)
	return args.Error(0)
}

type MockPaymentService struct {
	mock.Mock
	PaymentSettler
}

func (m *MockPaymentService) VerifyAndCompletePayment(
	ctx context.Context,
	userId, groupId int,
	merchantUid, gatewayPaymentId string) (*domain.Payment, error) {

	args := m.Called(ctx, userId, groupId, merchantUid, gatewayPaymentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) CancelReservation(
	ctx context.Context,
	userId, groupId int,
	reason string) (*domain.Payment, error) {

	args := m.Called(ctx, userId, groupId, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
