package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/payment"
	"github.com/iliyamo/travel-booking/internal/repository"
)

type fakeGateway struct {
	verifyErr error
	orderID   string
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error) {
	return f.orderID, nil
}
func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) error {
	return f.verifyErr
}

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := NewBookingHandler(
		repository.NewTravelOptionRepo(db),
		repository.NewBookingRepo(db),
		repository.NewPassengerRepo(db),
		&fakeGateway{orderID: "order_test"},
	)
	return h, mock, func() { db.Close() }
}

func jsonCtx(method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func expectTripLock(mock sqlmock.Sqlmock, tripID uint64, priceCents int64, available int) {
	now := time.Now()
	mock.ExpectQuery("FROM travel_options WHERE id = (.+) FOR UPDATE").
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "mode_id", "source", "destination", "travel_date", "return_date",
			"price_cents", "total_seats", "available_seats", "created_at", "updated_at",
		}).AddRow(tripID, 1, "Mumbai", "Goa", now.Add(48*time.Hour), now.Add(120*time.Hour),
			priceCents, 40, available, now, now))
}

const twoPassengerBody = `{
	"seat_labels": ["a1", "A2"],
	"passengers": [
		{"name": "Asha Rao", "age": 31, "national_id": "111122223333", "email": "asha@example.com"},
		{"name": "Vik Rao", "age": 34, "national_id": "444455556666", "email": "vik@example.com"}
	]
}`

func TestCreateOffline(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	expectTripLock(mock, 7, 250000, 12)
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT bs.label").
		WithArgs(uint64(7), "A1", "A2").
		WillReturnRows(sqlmock.NewRows([]string{"label"}))
	mock.ExpectExec("INSERT INTO passengers").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO passengers").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec("UPDATE travel_options").
		WithArgs(2, uint64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(7), 2, int64(500000), "Pending", "pending", sqlmock.AnyArg(), nil, "", "").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO booking_passengers").
		WithArgs(uint64(42), uint64(11), uint64(42), uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO booking_seats").
		WithArgs(uint64(42), uint64(7), "A1", 0, uint64(42), uint64(7), "A2", 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	c, rec := jsonCtx(http.MethodPost, "/v1/trips/7/bookings/offline", twoPassengerBody, 1)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.CreateOffline(c); err != nil {
		t.Fatalf("CreateOffline: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"booking_status":"Pending"`) {
		t.Fatalf("want Pending status, got %s", body)
	}
	if !strings.Contains(body, `"total_price_cents":500000`) {
		t.Fatalf("want total as price times seats, got %s", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateOfflineCapacityConflict(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	expectTripLock(mock, 7, 250000, 1) // one seat left, two requested
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/trips/7/bookings/offline", twoPassengerBody, 1)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.CreateOffline(c); err != nil {
		t.Fatalf("CreateOffline: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateOfflineMissingFields(t *testing.T) {
	h, _, done := newBookingHandler(t)
	defer done()

	cases := []string{
		`{}`,
		`{"seat_labels": ["A1"], "passengers": []}`,
		`{"seat_labels": ["A1", "A2"], "passengers": [{"name":"A","age":30,"national_id":"x","email":"a@b.c"}]}`,
		`{"seat_labels": ["A1", "A1"], "passengers": [{"name":"A","age":30,"national_id":"x","email":"a@b.c"},{"name":"B","age":31,"national_id":"y","email":"b@b.c"}]}`,
		`{"seat_labels": ["A1"], "passengers": [{"name":"A","age":0,"national_id":"x","email":"a@b.c"}]}`,
	}
	for _, body := range cases {
		c, rec := jsonCtx(http.MethodPost, "/v1/trips/7/bookings/offline", body, 1)
		c.SetParamNames("id")
		c.SetParamValues("7")
		if err := h.CreateOffline(c); err != nil {
			t.Fatalf("CreateOffline(%s): %v", body, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: want 400, got %d", body, rec.Code)
		}
	}
}

func TestCreateOnlineRejectsBadSignatureBeforeAnyWrite(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()
	h.Gateway = &fakeGateway{verifyErr: payment.ErrVerificationFailed}

	body := strings.TrimSuffix(twoPassengerBody, "\n}") + `,
	"razorpay_order_id": "order_x",
	"razorpay_payment_id": "pay_x",
	"razorpay_signature": "bad"
}`
	c, rec := jsonCtx(http.MethodPost, "/v1/trips/7/bookings/online", body, 1)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.CreateOnline(c); err != nil {
		t.Fatalf("CreateOnline: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
	}
	// no transaction was ever opened
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no database activity: %v", err)
	}
}

func TestCreateOnlineDuplicateNationalIDWithinRequest(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()

	// both passengers carry the same national id
	body := `{
		"seat_labels": ["A1", "A2"],
		"passengers": [
			{"name": "Asha Rao", "age": 31, "national_id": "111122223333", "email": "asha@example.com"},
			{"name": "Vik Rao", "age": 34, "national_id": "111122223333", "email": "vik@example.com"}
		],
		"razorpay_order_id": "order_x",
		"razorpay_payment_id": "pay_x",
		"razorpay_signature": "good"
	}`
	c, rec := jsonCtx(http.MethodPost, "/v1/trips/7/bookings/online", body, 1)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.CreateOnline(c); err != nil {
		t.Fatalf("CreateOnline: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "national_id") {
		t.Fatalf("want duplicate national_id error, got %s", rec.Body.String())
	}
	// rejected during validation, before any transaction
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no database activity: %v", err)
	}
}

func TestCreateOnlineDuplicateIdentityWritesNothing(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()

	body := strings.TrimSuffix(twoPassengerBody, "\n}") + `,
	"razorpay_order_id": "order_x",
	"razorpay_payment_id": "pay_x",
	"razorpay_signature": "good"
}`
	mock.ExpectBegin()
	expectTripLock(mock, 7, 250000, 12)
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT bs.label").
		WithArgs(uint64(7), "A1", "A2").
		WillReturnRows(sqlmock.NewRows([]string{"label"}))
	mock.ExpectQuery("SELECT 1 FROM passengers").
		WithArgs("111122223333").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/v1/trips/7/bookings/online", body, 1)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.CreateOnline(c); err != nil {
		t.Fatalf("CreateOnline: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQuoteRejectsNonPositiveTravelers(t *testing.T) {
	h, _, done := newBookingHandler(t)
	defer done()

	for _, travelers := range []string{"0", "-2", "abc", ""} {
		c, rec := jsonCtx(http.MethodGet, "/v1/trips/7/quote?travelers="+travelers, "", 1)
		c.SetParamNames("id")
		c.SetParamValues("7")
		if err := h.Quote(c); err != nil {
			t.Fatalf("Quote: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("travelers=%q: want 400, got %d", travelers, rec.Code)
		}
	}
}

func cancelBookingRow(userID uint64, status, payStatus string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "trip_id", "seats", "total_price_cents",
		"booking_status", "payment_status", "booking_reference",
		"razorpay_order_id", "razorpay_payment_id", "razorpay_signature",
		"booked_at", "updated_at",
	}).AddRow(5, userID, 7, 2, 500000, status, payStatus, "AB12CD34EF", "", "", "", now, now)
}

func TestCancelByNonOwnerLeavesBookingUntouched(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(cancelBookingRow(2, "Confirmed", "success"))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodDelete, "/v1/bookings/5", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCancelFailedPaymentRejected(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(cancelBookingRow(1, "Pending", "failed"))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodDelete, "/v1/bookings/5", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCancelReleasesSeats(t *testing.T) {
	h, mock, done := newBookingHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = (.+) FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(cancelBookingRow(1, "Confirmed", "success"))
	mock.ExpectExec("UPDATE travel_options").
		WithArgs(2, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings").
		WithArgs("Cancelled", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := jsonCtx(http.MethodDelete, "/v1/bookings/5", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"seats_released":2`) {
		t.Fatalf("want seats_released in response, got %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
