package model

import "time"

// TravelMode is a row in the `travel_modes` table.  It names a way of
// travelling (Flight, Train, Bus, ...) that travel options reference.
//
// Fields:
//  ID   – primary key identifier.
//  Name – human readable mode name, unique.
type TravelMode struct {
	ID   uint64 // travel_modes.id
	Name string // travel_modes.name
}

// TravelOption is a sellable trip as stored in the `travel_options`
// table.  Prices are kept in integer cents to avoid floating point
// arithmetic on money.  AvailableSeats is the authoritative remaining
// capacity and is only ever mutated through the ledger operations of
// the travel option repository, inside the same transaction as the
// booking writes that depend on it.
//
// Fields:
//  ID             – primary key identifier.
//  ModeID         – foreign key into travel_modes.
//  Source         – departure location.
//  Destination    – arrival location.
//  TravelDate     – when the trip departs.
//  ReturnDate     – when the trip returns; never before TravelDate.
//  PriceCents     – price per seat in cents.
//  TotalSeats     – capacity the trip was created with.
//  AvailableSeats – seats still available; never negative.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type TravelOption struct {
	ID             uint64    // travel_options.id
	ModeID         uint64    // travel_options.mode_id
	Source         string    // travel_options.source
	Destination    string    // travel_options.destination
	TravelDate     time.Time // travel_options.travel_date
	ReturnDate     time.Time // travel_options.return_date
	PriceCents     int64     // travel_options.price_cents
	TotalSeats     int       // travel_options.total_seats
	AvailableSeats int       // travel_options.available_seats
	CreatedAt      time.Time // travel_options.created_at
	UpdatedAt      time.Time // travel_options.updated_at
}

// Duration is the span between departure and return.  It is derived
// from the two stored timestamps on every call and never persisted.
func (t *TravelOption) Duration() time.Duration {
	if t.ReturnDate.Before(t.TravelDate) {
		return 0
	}
	return t.ReturnDate.Sub(t.TravelDate)
}

// Days is the whole number of days covered by the trip.
func (t *TravelOption) Days() int {
	return int(t.Duration() / (24 * time.Hour))
}

// Nights is Days minus one, floored at zero for same-day trips.
func (t *TravelOption) Nights() int {
	if d := t.Days(); d > 0 {
		return d - 1
	}
	return 0
}
