package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings, their passenger
// associations and their seat labels.  Every write method takes a
// *sql.Tx: a booking never changes outside the transaction that also
// moves the trip's seat counter.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking within the provided transaction and
// populates the generated ID.  Status must be a valid lifecycle state
// and the reference must already be set; uniqueness of the reference
// and of razorpay_order_id is enforced by DB constraints as the last
// line of defence behind the explicit pre-checks.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (user_id, trip_id, seats, total_price_cents, booking_status,
	            payment_status, booking_reference, razorpay_order_id,
	            razorpay_payment_id, razorpay_signature)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var orderID any
	if b.RazorpayOrderID != "" {
		orderID = b.RazorpayOrderID
	}
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.TripID, b.Seats, b.TotalPriceCents,
		string(b.Status), string(b.PaymentStatus), b.Reference,
		orderID, b.RazorpayPayID, b.RazorpaySig)
	if err != nil {
		if strings.Contains(err.Error(), "1062") && strings.Contains(err.Error(), "razorpay_order_id") {
			return ErrDuplicateOrder
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// AttachPassengersTx inserts the booking↔passenger association rows in
// one statement.  Passing an empty slice has no effect.
func (r *BookingRepo) AttachPassengersTx(ctx context.Context, tx *sql.Tx, bookingID uint64, passengerIDs []uint64) error {
	if len(passengerIDs) == 0 {
		return nil
	}
	query := `INSERT INTO booking_passengers (booking_id, passenger_id) VALUES `
	args := make([]any, 0, len(passengerIDs)*2)
	for i, pid := range passengerIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, bookingID, pid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateSeatLabelsTx inserts the booking's ordered seat labels.  The
// position column preserves the order the user picked the seats in.
func (r *BookingRepo) CreateSeatLabelsTx(ctx context.Context, tx *sql.Tx, bookingID, tripID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, trip_id, label, position) VALUES `
	args := make([]any, 0, len(labels)*4)
	for i, l := range labels {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, bookingID, tripID, l, i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// TakenSeatLabelsTx returns the subset of the candidate labels already
// attached to a pending or confirmed booking of the trip.  Cancelled
// bookings do not block a label from being reused.
func (r *BookingRepo) TakenSeatLabelsTx(ctx context.Context, tx *sql.Tx, tripID uint64, labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	query := `SELECT bs.label
	          FROM booking_seats bs
	          JOIN bookings b ON b.id = bs.booking_id
	          WHERE bs.trip_id = ?
	            AND b.booking_status IN ('Pending', 'Confirmed')
	            AND bs.label IN (` + placeholders + `)`
	args := make([]any, 0, len(labels)+1)
	args = append(args, tripID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var taken []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		taken = append(taken, l)
	}
	return taken, rows.Err()
}

// HasActiveForTrip reports whether the user already holds a pending or
// confirmed booking against the trip.
func (r *BookingRepo) HasActiveForTrip(ctx context.Context, userID, tripID uint64) (bool, error) {
	return hasActiveForTrip(ctx, r.db, userID, tripID)
}

// HasActiveForTripTx is HasActiveForTrip inside a transaction, used by
// the create paths so the admission check shares the trip row lock.
func (r *BookingRepo) HasActiveForTripTx(ctx context.Context, tx *sql.Tx, userID, tripID uint64) (bool, error) {
	return hasActiveForTrip(ctx, tx, userID, tripID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasActiveForTrip(ctx context.Context, q queryRower, userID, tripID uint64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM bookings
		 WHERE user_id = ? AND trip_id = ? AND booking_status IN ('Pending', 'Confirmed')
		 LIMIT 1`, userID, tripID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// OrderIDExistsTx reports whether a booking already carries the given
// payment order id.
func (r *BookingRepo) OrderIDExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM bookings WHERE razorpay_order_id = ? LIMIT 1`, orderID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetForUpdateTx loads a booking with a row lock so that the
// cancellation decision and the seat release serialise with any
// concurrent transition on the same booking.  Returns
// ErrBookingNotFound when no row matches.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, trip_id, seats, total_price_cents,
	                  booking_status, payment_status, booking_reference,
	                  COALESCE(razorpay_order_id, ''), razorpay_payment_id, razorpay_signature,
	                  booked_at, updated_at
	           FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	var status, payStatus string
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.TripID, &b.Seats, &b.TotalPriceCents,
		&status, &payStatus, &b.Reference,
		&b.RazorpayOrderID, &b.RazorpayPayID, &b.RazorpaySig,
		&b.BookedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	b.PaymentStatus = model.PaymentStatus(payStatus)
	return &b, nil
}

// UpdateStatusTx sets the booking lifecycle status within the provided
// transaction.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("unknown booking status %q", status)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET booking_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// BookingDetail is a booking joined with its trip, seat labels and
// passenger names, as returned to customers by the my-bookings
// endpoint.
type BookingDetail struct {
	ID              uint64    `json:"id"`
	TripID          uint64    `json:"trip_id"`
	Source          string    `json:"source"`
	Destination     string    `json:"destination"`
	TravelDate      time.Time `json:"travel_date"`
	ReturnDate      time.Time `json:"return_date"`
	Seats           int       `json:"seats"`
	SeatLabels      []string  `json:"seat_labels"`
	Passengers      []string  `json:"passengers"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"booking_status"`
	PaymentStatus   string    `json:"payment_status"`
	Reference       string    `json:"booking_reference"`
	BookedAt        time.Time `json:"booked_at"`
}

// ListByUser returns all bookings of the user with trip, seat and
// passenger detail, newest first.  Seat labels and passenger names are
// populated in one query each rather than per booking.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.trip_id, t.source, t.destination, t.travel_date, t.return_date,
	                  b.seats, b.total_price_cents, b.booking_status, b.payment_status,
	                  b.booking_reference, b.booked_at
	           FROM bookings b
	           JOIN travel_options t ON t.id = b.trip_id
	           WHERE b.user_id = ?
	           ORDER BY b.booked_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.TripID, &d.Source, &d.Destination,
			&d.TravelDate, &d.ReturnDate, &d.Seats, &d.TotalPriceCents,
			&d.Status, &d.PaymentStatus, &d.Reference, &d.BookedAt); err != nil {
			return nil, err
		}
		d.SeatLabels = []string{}
		d.Passengers = []string{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]any, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	in := strings.Join(placeholders, ",")

	seatQ := `SELECT booking_id, label FROM booking_seats
	          WHERE booking_id IN (` + in + `) ORDER BY booking_id, position`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var label string
		if err := srows.Scan(&bid, &label); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].SeatLabels = append(details[idx].SeatLabels, label)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}

	paxQ := `SELECT bp.booking_id, p.name
	         FROM booking_passengers bp
	         JOIN passengers p ON p.id = bp.passenger_id
	         WHERE bp.booking_id IN (` + in + `) ORDER BY bp.booking_id, p.id`
	prows, err := r.db.QueryContext(ctx, paxQ, ids...)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var bid uint64
		var name string
		if err := prows.Scan(&bid, &name); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].Passengers = append(details[idx].Passengers, name)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// UserStats aggregates profile figures: how many bookings a user has
// made and how many distinct destinations they have paid for.
type UserStats struct {
	TotalBookings        int64 `json:"total_bookings"`
	DestinationsVisited  int64 `json:"destinations_visited"`
}

// StatsByUser computes UserStats for the profile endpoint.
func (r *BookingRepo) StatsByUser(ctx context.Context, userID uint64) (UserStats, error) {
	var s UserStats
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = ?`, userID).Scan(&s.TotalBookings); err != nil {
		return s, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT t.destination)
		 FROM bookings b JOIN travel_options t ON t.id = b.trip_id
		 WHERE b.user_id = ? AND b.payment_status = 'success'`, userID).Scan(&s.DestinationsVisited); err != nil {
		return s, err
	}
	return s, nil
}
