package model

import "time"

// Passenger is an identity snapshot captured at booking time and
// stored in the `passengers` table.  Rows are immutable once created;
// a booking references its passengers through the booking_passengers
// join table.  The national ID is checked for duplication on the
// online booking path only, matching the documented behaviour of the
// system this replaces.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – passenger full name.
//  Age        – passenger age in years.
//  NationalID – 12 character national identity number.
//  Email      – contact email address.
//  Phone      – optional contact phone number.
//  CreatedAt  – creation timestamp.
type Passenger struct {
	ID         uint64    // passengers.id
	Name       string    // passengers.name
	Age        int       // passengers.age
	NationalID string    // passengers.national_id
	Email      string    // passengers.email
	Phone      string    // passengers.phone (may be empty)
	CreatedAt  time.Time // passengers.created_at
}
