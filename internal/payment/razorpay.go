package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// defaultBaseURL is the production Razorpay API endpoint.
const defaultBaseURL = "https://api.razorpay.com/v1"

// Razorpay implements Gateway against the Razorpay orders API.
// Signature verification is done locally: Razorpay signs
// "order_id|payment_id" with HMAC-SHA256 under the key secret, so no
// network call is needed to verify.
type Razorpay struct {
	keyID   string
	secret  string
	baseURL string
	client  *http.Client
}

// NewRazorpay builds a Razorpay gateway client.  The HTTP client
// carries a hard timeout so payment calls are bounded; a timeout
// surfaces to the booking flow as a verification/order failure, never
// as a half-created booking.
func NewRazorpay(keyID, secret string) *Razorpay {
	return &Razorpay{
		keyID:   keyID,
		secret:  secret,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint.  Used by tests.
func (r *Razorpay) WithBaseURL(u string) *Razorpay {
	r.baseURL = u
	return r
}

// orderRequest mirrors the Razorpay order creation payload.  Amounts
// are already in the currency's smallest unit (paise/cents).
type orderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers an order with auto-capture enabled and returns
// the provider order id.
func (r *Razorpay) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(orderRequest{
		Amount:         amountCents,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.keyID, r.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("razorpay order create: unexpected status %d", resp.StatusCode)
	}
	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("razorpay order create: decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("razorpay order create: empty order id in response")
	}
	return out.ID, nil
}

// VerifySignature recomputes the HMAC over "orderID|paymentID" and
// compares it to the provided signature in constant time.  Any
// mismatch, including empty inputs, yields ErrVerificationFailed.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrVerificationFailed
	}
	mac := hmac.New(sha256.New, []byte(r.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrVerificationFailed
	}
	return nil
}
