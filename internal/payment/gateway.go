// Package payment defines the boundary to the external payment
// provider.  The booking core consumes exactly two operations: order
// creation before checkout and signature verification before a booking
// is written.  The concrete client is constructed once at process
// start and injected into the handlers; nothing in this module reaches
// for a process-wide gateway singleton.
package payment

import (
	"context"
	"errors"
)

// ErrVerificationFailed is returned when the gateway rejects a payment
// signature, or when the verification call itself errors or times out.
// Callers must treat it as a hard stop before any booking write.
var ErrVerificationFailed = errors.New("payment verification failed")

// Gateway is the payment provider abstraction consumed by the booking
// handlers.
type Gateway interface {
	// CreateOrder registers a payment order for the given amount and
	// returns the provider's order id.  The receipt is an opaque
	// caller-side correlation string.
	CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error)
	// VerifySignature checks that the signature authenticates the
	// (order, payment) pair.  A mismatch returns ErrVerificationFailed.
	VerifySignature(orderID, paymentID, signature string) error
}
