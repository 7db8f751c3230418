// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them to distinct HTTP responses. Storage errors that are not one of
// these sentinels are surfaced unchanged so that callers can log them;
// they are never silently swallowed.
package repository

import "errors"

// ErrTripNotFound is returned when a travel option lookup matches no row.
var ErrTripNotFound = errors.New("trip not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInsufficientSeats is returned by the seat ledger when a reserve
// request exceeds the trip's current availability. Nothing is mutated
// when this error is returned.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as cancelling another user's booking.
// Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrDuplicatePassenger is returned when a passenger's national ID
// already exists in storage. The check applies to the online booking
// path only.
var ErrDuplicatePassenger = errors.New("duplicate passenger national id")

// ErrDuplicateOrder is returned when a payment order id is already
// attached to an existing booking.
var ErrDuplicateOrder = errors.New("duplicate payment order id")

// ErrAlreadyBooked is returned when the user already holds a pending
// or confirmed booking for the same trip.
var ErrAlreadyBooked = errors.New("trip already booked by user")

// ErrSeatTaken is returned when one of the requested seat labels is
// already attached to an active booking of the same trip.
var ErrSeatTaken = errors.New("seat label already taken")

// ErrCannotCancel is returned when a booking's payment status blocks
// the cancellation transition (anything other than pending or success).
var ErrCannotCancel = errors.New("booking cannot be cancelled")

// ErrEmailExists is returned when registering a user whose email is
// already present.
var ErrEmailExists = errors.New("email already exists")
