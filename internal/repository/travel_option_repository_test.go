package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*TravelOptionRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewTravelOptionRepo(db), mock, func() { db.Close() }
}

func tripRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "mode_id", "source", "destination", "travel_date", "return_date",
		"price_cents", "total_seats", "available_seats", "created_at", "updated_at",
	}).AddRow(7, 1, "Mumbai", "Goa", now.Add(48*time.Hour), now.Add(120*time.Hour),
		250000, 40, 12, now, now)
}

func TestReserveSeats(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE travel_options").
		WithArgs(3, uint64(7), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.ReserveSeatsTx(context.Background(), tx, 7, 3); err != nil {
		t.Fatalf("ReserveSeatsTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReserveSeatsInsufficient(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	// the conditional update matches no row when capacity is short
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE travel_options").
		WithArgs(50, uint64(7), 50).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := repo.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	err = repo.ReserveSeatsTx(context.Background(), tx, 7, 50)
	if !errors.Is(err, ErrInsufficientSeats) {
		t.Fatalf("want ErrInsufficientSeats, got %v", err)
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReleaseSeatsUnknownTrip(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE travel_options").
		WithArgs(2, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, _ := repo.DB().Begin()
	err := repo.ReleaseSeatsTx(context.Background(), tx, 99, 2)
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("want ErrTripNotFound, got %v", err)
	}
	_ = tx.Rollback()
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	// an empty result set maps to the sentinel, not sql.ErrNoRows
	empty := sqlmock.NewRows([]string{
		"id", "mode_id", "source", "destination", "travel_date", "return_date",
		"price_cents", "total_seats", "available_seats", "created_at", "updated_at",
	})
	mock.ExpectQuery("FROM travel_options WHERE id").
		WithArgs(uint64(404)).
		WillReturnRows(empty)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("want ErrTripNotFound, got %v", err)
	}
}

func TestSearchAppliesFilters(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM travel_options WHERE").
		WithArgs("%goa%", uint64(2), start, int64(10000), int64(500000)).
		WillReturnRows(tripRows())

	got, err := repo.Search(context.Background(), TripSearchQuery{
		Destination:   "Goa",
		ModeID:        2,
		StartDate:     &start,
		MinPriceCents: 10000,
		MaxPriceCents: 500000,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Destination != "Goa" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
