package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.  A
// booking is created directly into Pending (offline path, payment due
// at the counter) or Confirmed (online path, payment already
// verified).  Cancelled is terminal; no transition leaves it.
type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

// PaymentStatus enumerates payment resolution states.  Offline
// bookings stay pending until settled outside this system; online
// bookings are success at creation because the gateway signature is
// verified before any write.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking is the central transactional record, table `bookings`.
// Seats, passengers and the seat counter on the trip are written in
// the same transaction that creates or cancels a booking, so the seat
// conservation law holds across every commit: for any trip, the seat
// counts of its non-cancelled bookings plus its available_seats equal
// its original capacity.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – user who made the booking.
//  TripID           – travel option being booked.
//  Seats            – number of seats; equals the passenger count and
//                     the seat label count.
//  SeatLabels       – ordered seat labels chosen by the user.
//  TotalPriceCents  – trip price times Seats, in cents.
//  Status           – booking lifecycle state.
//  PaymentStatus    – payment resolution state.
//  Reference        – unique 10 character uppercase booking reference.
//  RazorpayOrderID  – gateway order correlation id; unique when set.
//  RazorpayPayID    – gateway payment id.
//  RazorpaySig      – gateway signature.
//  BookedAt         – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID              uint64        // bookings.id
	UserID          uint64        // bookings.user_id
	TripID          uint64        // bookings.trip_id
	Seats           int           // bookings.seats
	SeatLabels      []string      // booking_seats.label, ordered
	TotalPriceCents int64         // bookings.total_price_cents
	Status          BookingStatus // bookings.booking_status
	PaymentStatus   PaymentStatus // bookings.payment_status
	Reference       string        // bookings.booking_reference
	RazorpayOrderID string        // bookings.razorpay_order_id (may be empty)
	RazorpayPayID   string        // bookings.razorpay_payment_id (may be empty)
	RazorpaySig     string        // bookings.razorpay_signature (may be empty)
	BookedAt        time.Time     // bookings.booked_at
	UpdatedAt       time.Time     // bookings.updated_at
}

// Active reports whether the booking still holds seats.  Pending and
// Confirmed bookings count against trip capacity; cancelled ones do
// not.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// CanCancel reports whether the user-initiated cancellation transition
// is permitted.  Only pending or success payment states are
// cancellable; a failed payment booking cannot be cancelled through
// this path.  Cancelled bookings are terminal.
func (b *Booking) CanCancel() bool {
	if b.Status == BookingCancelled {
		return false
	}
	return b.PaymentStatus == PaymentPending || b.PaymentStatus == PaymentSuccess
}

// ValidStatus reports whether s is a known booking status value.
func ValidStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}
