package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
)

// TravelOptionRepo provides read access to the trip catalog and owns
// the seat inventory ledger.  Seat counts are only ever mutated by
// ReserveSeatsTx and ReleaseSeatsTx, both of which run inside a caller
// supplied transaction so the counter moves in the same atomic unit as
// the booking rows that justify the movement.
type TravelOptionRepo struct {
	db *sql.DB
}

// NewTravelOptionRepo returns a TravelOptionRepo bound to the given database.
func NewTravelOptionRepo(db *sql.DB) *TravelOptionRepo { return &TravelOptionRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *TravelOptionRepo) DB() *sql.DB { return r.db }

const tripColumns = `id, mode_id, source, destination, travel_date, return_date,
	price_cents, total_seats, available_seats, created_at, updated_at`

func scanTrip(row *sql.Row) (*model.TravelOption, error) {
	var t model.TravelOption
	err := row.Scan(&t.ID, &t.ModeID, &t.Source, &t.Destination,
		&t.TravelDate, &t.ReturnDate, &t.PriceCents,
		&t.TotalSeats, &t.AvailableSeats, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByID loads a single travel option.  Returns ErrTripNotFound when
// no row matches.
func (r *TravelOptionRepo) GetByID(ctx context.Context, id uint64) (*model.TravelOption, error) {
	const q = `SELECT ` + tripColumns + ` FROM travel_options WHERE id = ?`
	return scanTrip(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads a travel option with a row lock so that the
// check-then-deduct sequence of a booking serialises per trip.  Must
// run inside the transaction that performs the corresponding booking
// writes.
func (r *TravelOptionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.TravelOption, error) {
	const q = `SELECT ` + tripColumns + ` FROM travel_options WHERE id = ? FOR UPDATE`
	return scanTrip(tx.QueryRowContext(ctx, q, id))
}

// ReserveSeatsTx deducts count seats from the trip's availability.
// The condition in the UPDATE makes the check and the deduction a
// single atomic statement: when the remaining capacity is smaller
// than count, zero rows are affected, nothing is mutated and
// ErrInsufficientSeats is returned.
func (r *TravelOptionRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, tripID uint64, count int) error {
	const q = `UPDATE travel_options
	           SET available_seats = available_seats - ?
	           WHERE id = ? AND available_seats >= ?`
	res, err := tx.ExecContext(ctx, q, count, tripID, count)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientSeats
	}
	return nil
}

// ReleaseSeatsTx restores count seats to the trip's availability.  The
// lifecycle layer guarantees a release is paired 1:1 with a prior
// successful reserve, so the counter can never exceed the original
// capacity.
func (r *TravelOptionRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, tripID uint64, count int) error {
	const q = `UPDATE travel_options SET available_seats = available_seats + ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, count, tripID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTripNotFound
	}
	return nil
}

// TripSearchQuery defines the catalog filters.  Zero values mean the
// corresponding filter is not applied, except MinPriceCents which the
// handler always populates (a fixed positive floor when the client
// does not supply one).
type TripSearchQuery struct {
	Destination   string     // substring match on destination
	ModeID        uint64     // exact travel mode
	StartDate     *time.Time // travel_date lower bound
	EndDate       *time.Time // return_date upper bound
	MinPriceCents int64      // price lower bound
	MaxPriceCents int64      // price upper bound, 0 = unbounded
}

// Search returns travel options matching every provided filter,
// newest departure first.  The query is read only.
func (r *TravelOptionRepo) Search(ctx context.Context, q TripSearchQuery) ([]model.TravelOption, error) {
	where := []string{"1=1"}
	args := []any{}

	if q.Destination != "" {
		where = append(where, "LOWER(destination) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Destination)+"%")
	}
	if q.ModeID != 0 {
		where = append(where, "mode_id = ?")
		args = append(args, q.ModeID)
	}
	if q.StartDate != nil {
		where = append(where, "travel_date >= ?")
		args = append(args, q.StartDate.UTC())
	}
	if q.EndDate != nil {
		where = append(where, "return_date <= ?")
		args = append(args, q.EndDate.UTC())
	}
	if q.MinPriceCents > 0 {
		where = append(where, "price_cents >= ?")
		args = append(args, q.MinPriceCents)
	}
	if q.MaxPriceCents > 0 {
		where = append(where, "price_cents <= ?")
		args = append(args, q.MaxPriceCents)
	}

	query := `SELECT ` + tripColumns + ` FROM travel_options WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY travel_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TravelOption, 0)
	for rows.Next() {
		var t model.TravelOption
		if err := rows.Scan(&t.ID, &t.ModeID, &t.Source, &t.Destination,
			&t.TravelDate, &t.ReturnDate, &t.PriceCents,
			&t.TotalSeats, &t.AvailableSeats, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
