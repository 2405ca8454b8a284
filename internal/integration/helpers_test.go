package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/megacine/reservation-system/api"
	"github.com/megacine/reservation-system/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// Fields whose values depend on the clock or generated ids.
var keysToIgnore = map[string]struct{}{
	"timestamp":   {},
	"requestId":   {},
	"createdAt":   {},
	"updatedAt":   {},
	"startTime":   {},
	"paidAt":      {},
	"cancelledAt": {},
	"merchantUid": {},
}

func prepareRequest(
	method, path string,
	body io.Reader,
	headers map[string]string,
	cookies []*http.Cookie) (*http.Request, error) {

	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	return req, nil
}

func jsonBody(t testing.TB, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(data)
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func executeSQLFile(t testing.TB, db *pgxpool.Pool, path string) {
	t.Helper()

	script, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = db.Exec(context.Background(), string(script))
	require.NoError(t, err)
}

// resetScreeningState rebuilds the screening fixtures and drops any leftover
// seat holds. Sessions survive; only hold keys are cleared.
func resetScreeningState(t testing.TB, app *TestApp) {
	t.Helper()

	executeSQLFile(t, app.DB, "testdata/screenings_down.sql")
	executeSQLFile(t, app.DB, "testdata/screenings_up.sql")
	clearSeatHolds(t, app.RedisClient)
	app.Mailer.Reset()
	app.Gateway.Reset()
}

func clearSeatHolds(t testing.TB, client *redis.Client) {
	t.Helper()

	ctx := context.Background()

	keys, err := client.Keys(ctx, "seat_hold:*").Result()
	require.NoError(t, err)

	if len(keys) > 0 {
		require.NoError(t, client.Del(ctx, keys...).Err())
	}
}

func seedTestUser(t testing.TB, app *TestApp) {
	t.Helper()

	var user domain.User
	require.NoError(t, user.Password.Set(TestUserPassword))

	_, err := app.DB.Exec(
		context.Background(),
		`INSERT INTO users (id, name, email, phone_number, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		TestUserId,
		TestUserName,
		TestUserEmail,
		TestUserPhone,
		user.Password.Hash,
	)
	require.NoError(t, err)
}

// authenticatedUserCookies logs the fixture user in through the real auth
// handler and returns the resulting session cookies.
func (app *TestApp) authenticatedUserCookies(t testing.TB) []*http.Cookie {
	t.Helper()

	seedTestUser(t, app)

	body := jsonBody(t, api.LoginRequest{Email: TestUserEmail, Password: TestUserPassword})

	req, err := prepareRequest(http.MethodPost, "/auth/login", body, nil, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode, "login failed during test setup")

	cookies := res.Cookies()
	require.NotEmpty(t, cookies, "expected a session cookie after login")

	return cookies
}

// completeReservation walks the happy path up to a verified payment and
// returns the reservation group id.
func completeReservation(t testing.TB, app *TestApp, cookies []*http.Cookie, seatIds []int) int {
	t.Helper()

	group := createReservation(t, app, cookies, seatIds)

	app.Gateway.Payments[TestGatewayPayment] = &domain.GatewayPayment{
		ID:       TestGatewayPayment,
		Amount:   group.ExpectedAmount,
		Paid:     true,
		Status:   "succeeded",
		Provider: TestGatewayProvider,
		Method:   "card",
	}

	verifyBody := jsonBody(t, api.PaymentVerificationRequest{
		ReservationGroupId: group.ReservationGroupId,
		MerchantUid:        group.MerchantUid,
		GatewayPaymentId:   TestGatewayPayment,
	})

	req, err := prepareRequest(http.MethodPost, "/payments/verification", verifyBody, nil, cookies)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "payment verification failed during test setup")

	return group.ReservationGroupId
}

func createReservation(t testing.TB, app *TestApp, cookies []*http.Cookie, seatIds []int) api.ReservationResponse {
	t.Helper()

	holdSeats(t, app, cookies, TestScreeningId, seatIds)

	body := jsonBody(t, api.CreateReservationRequest{SeatIdList: seatIds})
	url := fmt.Sprintf("/screenings/%d/reservations", TestScreeningId)

	req, err := prepareRequest(http.MethodPost, url, body, nil, cookies)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, "reservation creation failed during test setup")

	var group api.ReservationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&group))

	return group
}
