// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after an online booking commits.
// It carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID       uint64   `json:"booking_id"`
	Reference       string   `json:"booking_reference"`
	UserID          uint64   `json:"user_id"`
	TripID          uint64   `json:"trip_id"`
	Source          string   `json:"source"`
	Destination     string   `json:"destination"`
	TravelDate      string   `json:"travel_date"`
	Seats           int      `json:"seats"`
	SeatLabels      []string `json:"seat_labels"`
	TotalPriceCents int64    `json:"total_price_cents"`
	PaymentOrderID  string   `json:"payment_order_id,omitempty"`
	ConfirmedAt     string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a cancellation commits and
// the seats have been returned to the trip's availability.
type BookingCancelledEvent struct {
	BookingID     uint64 `json:"booking_id"`
	Reference     string `json:"booking_reference"`
	UserID        uint64 `json:"user_id"`
	TripID        uint64 `json:"trip_id"`
	SeatsReleased int    `json:"seats_released"`
	CancelledAt   string `json:"cancelled_at"`
}
