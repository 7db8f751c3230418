package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/repository"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, BcryptCost: 4}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewBookingRepo(db))
	return h, mock, func() { db.Close() }
}

func TestRegister(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("rhea@example.com", "Rhea", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))

	body := `{"email": "Rhea@Example.com", "name": "Rhea", "password": "hunter22"}`
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", body, 0)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}
	out := rec.Body.String()
	if !strings.Contains(out, `"email":"rhea@example.com"`) {
		t.Fatalf("want normalized email, got %s", out)
	}
	if !strings.Contains(out, `"token"`) {
		t.Fatalf("want access token in response, got %s", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errDuplicateEmail{})

	body := `{"email": "rhea@example.com", "name": "Rhea", "password": "hunter22"}`
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", body, 0)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

type errDuplicateEmail struct{}

func (errDuplicateEmail) Error() string {
	return "Error 1062 (23000): Duplicate entry 'rhea@example.com' for key 'users.email'"
}

func TestRegisterMissingFields(t *testing.T) {
	h, _, done := newAuthHandler(t)
	defer done()

	for _, body := range []string{`{}`, `{"email": "a@b.c"}`, `{"password": "x"}`} {
		c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", body, 0)
		if err := h.Register(c); err != nil {
			t.Fatalf("Register(%s): %v", body, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: want 400, got %d", body, rec.Code)
		}
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("rhea@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	body := `{"email": "rhea@example.com", "password": "wrong"}`
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", body, 0)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d: %s", rec.Code, rec.Body.String())
	}
}
