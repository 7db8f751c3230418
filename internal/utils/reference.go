package utils

import (
	"crypto/rand"
)

// referenceAlphabet is the character set for booking references.
// Uppercase letters and digits only, so references read cleanly on
// tickets and over the phone.
const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferenceLength is the fixed length of a booking reference.
const ReferenceLength = 10

// NewBookingReference returns a random booking reference: 10 uppercase
// alphanumeric characters from crypto/rand.  Uniqueness is enforced by
// the DB constraint on bookings.booking_reference; the keyspace of
// 36^10 makes a retry on collision effectively unreachable.
func NewBookingReference() (string, error) {
	buf := make([]byte, ReferenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf), nil
}
