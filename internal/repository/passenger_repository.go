package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-booking/internal/model"
)

// PassengerRepo persists passenger identity snapshots.  Passengers are
// only ever created inside a booking transaction and never updated
// afterwards.
type PassengerRepo struct {
	db *sql.DB
}

// NewPassengerRepo returns a PassengerRepo bound to the given database.
func NewPassengerRepo(db *sql.DB) *PassengerRepo { return &PassengerRepo{db: db} }

// ExistsByNationalIDTx reports whether any stored passenger carries
// the given national ID.  Runs inside the booking transaction so the
// duplicate check and the subsequent inserts observe the same snapshot.
func (r *PassengerRepo) ExistsByNationalIDTx(ctx context.Context, tx *sql.Tx, nationalID string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM passengers WHERE national_id = ? LIMIT 1`, nationalID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts a single passenger within the provided transaction
// and populates the generated ID on the record.
func (r *PassengerRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Passenger) error {
	const q = `INSERT INTO passengers (name, age, national_id, email, phone) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.Name, p.Age, p.NationalID, p.Email, p.Phone)
	if err != nil {
		if strings.Contains(err.Error(), "1062") && strings.Contains(err.Error(), "national_id") {
			return ErrDuplicatePassenger
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// CreateAllTx inserts every passenger in order, populating the IDs on
// the passed records.  A failure part way through is left for the
// caller's rollback to undo.
func (r *PassengerRepo) CreateAllTx(ctx context.Context, tx *sql.Tx, passengers []*model.Passenger) error {
	for _, p := range passengers {
		if err := r.CreateTx(ctx, tx, p); err != nil {
			return err
		}
	}
	return nil
}
