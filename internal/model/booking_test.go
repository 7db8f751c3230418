package model

import (
	"testing"
	"time"
)

func TestCanCancelByPaymentStatus(t *testing.T) {
	cases := []struct {
		status  BookingStatus
		payment PaymentStatus
		want    bool
	}{
		{BookingPending, PaymentPending, true},
		{BookingConfirmed, PaymentSuccess, true},
		{BookingConfirmed, PaymentFailed, false},
		{BookingPending, PaymentFailed, false},
		{BookingCancelled, PaymentSuccess, false},
		{BookingCancelled, PaymentPending, false},
	}
	for _, c := range cases {
		b := Booking{Status: c.status, PaymentStatus: c.payment}
		if got := b.CanCancel(); got != c.want {
			t.Fatalf("CanCancel(%s/%s) = %v, want %v", c.status, c.payment, got, c.want)
		}
	}
}

func TestActiveExcludesCancelled(t *testing.T) {
	for _, s := range []BookingStatus{BookingPending, BookingConfirmed} {
		b := Booking{Status: s}
		if !b.Active() {
			t.Fatalf("booking in %s should be active", s)
		}
	}
	b := Booking{Status: BookingCancelled}
	if b.Active() {
		t.Fatalf("cancelled booking must not be active")
	}
}

func TestDerivedDurationDaysNights(t *testing.T) {
	dep := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	trip := TravelOption{TravelDate: dep, ReturnDate: dep.Add(72 * time.Hour)}
	if trip.Duration() != 72*time.Hour {
		t.Fatalf("duration = %v, want 72h", trip.Duration())
	}
	if trip.Days() != 3 {
		t.Fatalf("days = %d, want 3", trip.Days())
	}
	if trip.Nights() != 2 {
		t.Fatalf("nights = %d, want 2", trip.Nights())
	}
}

func TestDerivedFieldsSameDayTrip(t *testing.T) {
	dep := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	trip := TravelOption{TravelDate: dep, ReturnDate: dep.Add(6 * time.Hour)}
	if trip.Days() != 0 {
		t.Fatalf("days = %d, want 0", trip.Days())
	}
	if trip.Nights() != 0 {
		t.Fatalf("nights = %d, want 0 for a same-day trip", trip.Nights())
	}
}

func TestDerivedFieldsInvertedRange(t *testing.T) {
	dep := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	trip := TravelOption{TravelDate: dep, ReturnDate: dep.Add(-24 * time.Hour)}
	if trip.Duration() != 0 {
		t.Fatalf("inverted range should yield zero duration, got %v", trip.Duration())
	}
}
