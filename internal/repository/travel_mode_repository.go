package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/travel-booking/internal/model"
)

// TravelModeRepo provides read access to the travel_modes table.
type TravelModeRepo struct {
	db *sql.DB
}

// NewTravelModeRepo returns a TravelModeRepo bound to the given database.
func NewTravelModeRepo(db *sql.DB) *TravelModeRepo { return &TravelModeRepo{db: db} }

// List returns all travel modes ordered by name.
func (r *TravelModeRepo) List(ctx context.Context) ([]model.TravelMode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM travel_modes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TravelMode, 0)
	for rows.Next() {
		var m model.TravelMode
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByID loads a single travel mode.
func (r *TravelModeRepo) GetByID(ctx context.Context, id uint64) (*model.TravelMode, error) {
	var m model.TravelMode
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM travel_modes WHERE id = ?`, id).
		Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
