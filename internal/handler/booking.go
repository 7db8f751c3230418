package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/payment"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
	queue_publisher "github.com/iliyamo/travel-booking/internal/service"
	"github.com/iliyamo/travel-booking/internal/utils"
)

// BookingHandler orchestrates booking creation and cancellation on
// behalf of customers.  All methods assume JWT authentication already
// ran.  Every write runs inside a single transaction so the seat
// counter, the booking row, its passengers and its seat labels commit
// or roll back together.
type BookingHandler struct {
	Trips      *repository.TravelOptionRepo
	Bookings   *repository.BookingRepo
	Passengers *repository.PassengerRepo
	Gateway    payment.Gateway
}

// NewBookingHandler constructs a BookingHandler.  The gateway may be
// nil only in deployments without an online booking path.
func NewBookingHandler(trips *repository.TravelOptionRepo, bookings *repository.BookingRepo, passengers *repository.PassengerRepo, gw payment.Gateway) *BookingHandler {
	if trips == nil || bookings == nil || passengers == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Trips: trips, Bookings: bookings, Passengers: passengers, Gateway: gw}
}

// ----- request/response shapes -----

type passengerReq struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type createBookingReq struct {
	SeatLabels []string       `json:"seat_labels"`
	Passengers []passengerReq `json:"passengers"`

	// online path only
	RazorpayOrderID string `json:"razorpay_order_id"`
	RazorpayPayID   string `json:"razorpay_payment_id"`
	RazorpaySig     string `json:"razorpay_signature"`
}

type bookingResp struct {
	ID              uint64   `json:"id"`
	TripID          uint64   `json:"trip_id"`
	Seats           int      `json:"seats"`
	SeatLabels      []string `json:"seat_labels"`
	TotalPriceCents int64    `json:"total_price_cents"`
	Status          string   `json:"booking_status"`
	PaymentStatus   string   `json:"payment_status"`
	Reference       string   `json:"booking_reference"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:              b.ID,
		TripID:          b.TripID,
		Seats:           b.Seats,
		SeatLabels:      b.SeatLabels,
		TotalPriceCents: b.TotalPriceCents,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		Reference:       b.Reference,
	}
}

// validate normalizes the request and reports the first missing field.
// The passenger count, seat label count and seat count must agree; the
// caller books exactly one seat per passenger.
func (req *createBookingReq) validate() (string, bool) {
	if len(req.Passengers) == 0 {
		return "passengers is required", false
	}
	if len(req.SeatLabels) == 0 {
		return "seat_labels is required", false
	}
	if len(req.SeatLabels) != len(req.Passengers) {
		return "seat_labels and passengers must have the same length", false
	}
	seen := make(map[string]struct{}, len(req.SeatLabels))
	for i, l := range req.SeatLabels {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" {
			return "seat label must not be empty", false
		}
		if _, dup := seen[l]; dup {
			return "duplicate seat label " + l, false
		}
		seen[l] = struct{}{}
		req.SeatLabels[i] = l
	}
	seenIDs := make(map[string]struct{}, len(req.Passengers))
	for i := range req.Passengers {
		p := &req.Passengers[i]
		p.Name = strings.TrimSpace(p.Name)
		p.NationalID = strings.TrimSpace(p.NationalID)
		p.Email = strings.ToLower(strings.TrimSpace(p.Email))
		p.Phone = strings.TrimSpace(p.Phone)
		switch {
		case p.Name == "":
			return "passenger name is required", false
		case p.Age <= 0:
			return "passenger age must be positive", false
		case p.NationalID == "":
			return "passenger national_id is required", false
		case p.Email == "":
			return "passenger email is required", false
		}
		if _, dup := seenIDs[p.NationalID]; dup {
			return "duplicate passenger national_id " + p.NationalID, false
		}
		seenIDs[p.NationalID] = struct{}{}
	}
	return "", true
}

// Quote handles GET /v1/trips/:id/quote.  It is the pre-booking
// admission check: it prices the requested number of travelers against
// live availability and rejects exactly the conditions booking
// creation would reject, so clients can surface errors before
// collecting passenger details.
func (h *BookingHandler) Quote(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	travelers, err := strconv.Atoi(c.QueryParam("travelers"))
	if err != nil || travelers <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travelers must be a positive integer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	trip, err := h.Trips.GetByID(ctx, tripID)
	if err != nil {
		return bookingError(c, err)
	}
	if travelers > trip.AvailableSeats {
		return bookingError(c, fmt.Errorf("%w: %d of %d seats left", repository.ErrInsufficientSeats, trip.AvailableSeats, trip.TotalSeats))
	}
	already, err := h.Bookings.HasActiveForTrip(ctx, userID, tripID)
	if err != nil {
		return bookingError(c, err)
	}
	if already {
		return bookingError(c, repository.ErrAlreadyBooked)
	}

	total := trip.PriceCents * int64(travelers)
	return c.JSON(http.StatusOK, echo.Map{
		"trip_id":           trip.ID,
		"travelers":         travelers,
		"price_cents":       trip.PriceCents,
		"total_price_cents": total,
		"available_seats":   trip.AvailableSeats,
	})
}

// CreateOffline handles POST /v1/trips/:id/bookings/offline.  The
// booking is created Pending with payment due at the counter; seats
// are deducted immediately so the hold is real.
func (h *BookingHandler) CreateOffline(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	b, _, err := h.createBooking(c, userID, tripID, &req, model.BookingPending, model.PaymentPending, false)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// CreateOnline handles POST /v1/trips/:id/bookings/online.  The
// gateway signature is verified before any database write: a booking
// on this path only ever exists in the Confirmed/success state, so a
// failed verification leaves no record behind.
func (h *BookingHandler) CreateOnline(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Gateway == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "online payments are not configured"})
	}
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if req.RazorpayOrderID == "" || req.RazorpayPayID == "" || req.RazorpaySig == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "razorpay_order_id, razorpay_payment_id and razorpay_signature are required"})
	}
	if err := h.Gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPayID, req.RazorpaySig); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment verification failed"})
	}

	b, trip, err := h.createBooking(c, userID, tripID, &req, model.BookingConfirmed, model.PaymentSuccess, true)
	if err != nil {
		return bookingError(c, err)
	}

	h.publishConfirmed(b, trip)
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// createBooking runs the shared transactional path for both booking
// flavours: lock the trip row, admit the request, create passengers,
// deduct seats and insert the booking with its seat labels.  Rejection
// reasons come back as the repository sentinels so the caller maps
// them to HTTP statuses in one place.
func (h *BookingHandler) createBooking(c echo.Context, userID, tripID uint64, req *createBookingReq, bs model.BookingStatus, ps model.PaymentStatus, checkIdentity bool) (*model.Booking, *model.TravelOption, error) {
	ctx := c.Request().Context()
	seats := len(req.Passengers)

	tx, err := h.Trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	trip, err := h.Trips.GetForUpdateTx(ctx, tx, tripID)
	if err != nil {
		return nil, nil, err
	}

	already, err := h.Bookings.HasActiveForTripTx(ctx, tx, userID, tripID)
	if err != nil {
		return nil, nil, err
	}
	if already {
		return nil, nil, repository.ErrAlreadyBooked
	}
	if seats > trip.AvailableSeats {
		return nil, nil, fmt.Errorf("%w: %d of %d seats left", repository.ErrInsufficientSeats, trip.AvailableSeats, trip.TotalSeats)
	}

	taken, err := h.Bookings.TakenSeatLabelsTx(ctx, tx, tripID, req.SeatLabels)
	if err != nil {
		return nil, nil, err
	}
	if len(taken) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", repository.ErrSeatTaken, strings.Join(taken, ", "))
	}

	if checkIdentity {
		for i := range req.Passengers {
			exists, err := h.Passengers.ExistsByNationalIDTx(ctx, tx, req.Passengers[i].NationalID)
			if err != nil {
				return nil, nil, err
			}
			if exists {
				return nil, nil, fmt.Errorf("%w: %s", repository.ErrDuplicatePassenger, req.Passengers[i].NationalID)
			}
		}
		dup, err := h.Bookings.OrderIDExistsTx(ctx, tx, req.RazorpayOrderID)
		if err != nil {
			return nil, nil, err
		}
		if dup {
			return nil, nil, repository.ErrDuplicateOrder
		}
	}

	passengers := make([]*model.Passenger, 0, seats)
	for i := range req.Passengers {
		p := req.Passengers[i]
		passengers = append(passengers, &model.Passenger{
			Name:       p.Name,
			Age:        p.Age,
			NationalID: p.NationalID,
			Email:      p.Email,
			Phone:      p.Phone,
		})
	}
	if err := h.Passengers.CreateAllTx(ctx, tx, passengers); err != nil {
		return nil, nil, err
	}

	if err := h.Trips.ReserveSeatsTx(ctx, tx, tripID, seats); err != nil {
		return nil, nil, err
	}

	ref, err := utils.NewBookingReference()
	if err != nil {
		return nil, nil, err
	}
	b := &model.Booking{
		UserID:          userID,
		TripID:          tripID,
		Seats:           seats,
		SeatLabels:      req.SeatLabels,
		TotalPriceCents: trip.PriceCents * int64(seats),
		Status:          bs,
		PaymentStatus:   ps,
		Reference:       ref,
		RazorpayOrderID: req.RazorpayOrderID,
		RazorpayPayID:   req.RazorpayPayID,
		RazorpaySig:     req.RazorpaySig,
	}
	if err := h.Bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, nil, err
	}

	ids := make([]uint64, 0, len(passengers))
	for _, p := range passengers {
		ids = append(ids, p.ID)
	}
	if err := h.Bookings.AttachPassengersTx(ctx, tx, b.ID, ids); err != nil {
		return nil, nil, err
	}
	if err := h.Bookings.CreateSeatLabelsTx(ctx, tx, b.ID, tripID, req.SeatLabels); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	return b, trip, nil
}

// bookingError translates domain sentinels into HTTP responses.
// Anything that is not a recognised rejection is a storage failure.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTripNotFound),
		errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInsufficientSeats),
		errors.Is(err, repository.ErrAlreadyBooked),
		errors.Is(err, repository.ErrSeatTaken),
		errors.Is(err, repository.ErrDuplicatePassenger),
		errors.Is(err, repository.ErrDuplicateOrder),
		errors.Is(err, repository.ErrCannotCancel):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	log.Printf("booking: storage error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// Cancel handles DELETE /v1/bookings/:id.  Seats return to the trip in
// the same transaction that flips the status, so availability never
// drifts from the booking ledger.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return bookingError(c, err)
	}
	if b.UserID != userID {
		return bookingError(c, repository.ErrForbidden)
	}
	if !b.CanCancel() {
		return bookingError(c, fmt.Errorf("%w: payment status %s", repository.ErrCannotCancel, b.PaymentStatus))
	}

	if err := h.Trips.ReleaseSeatsTx(ctx, tx, b.TripID, b.Seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seats"})
	}
	if err := h.Bookings.UpdateStatusTx(ctx, tx, b.ID, model.BookingCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit cancellation"})
	}
	committed = true

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishBookingCancelled(ctx, queue.BookingCancelledEvent{
			BookingID:     b.ID,
			Reference:     b.Reference,
			UserID:        b.UserID,
			TripID:        b.TripID,
			SeatsReleased: b.Seats,
			CancelledAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"id":             b.ID,
		"booking_status": string(model.BookingCancelled),
		"seats_released": b.Seats,
	})
}

// ListMine handles GET /v1/my-bookings.  Bookings are grouped the way
// the account page presents them: upcoming confirmed or pending trips,
// past trips and cancelled bookings, with counts and spend alongside.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	all, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	upcoming := make([]repository.BookingDetail, 0)
	past := make([]repository.BookingDetail, 0)
	cancelled := make([]repository.BookingDetail, 0)
	var spentCents int64
	for _, d := range all {
		if d.PaymentStatus == string(model.PaymentSuccess) && d.Status != string(model.BookingCancelled) {
			spentCents += d.TotalPriceCents
		}
		switch {
		case d.Status == string(model.BookingCancelled):
			cancelled = append(cancelled, d)
		case d.TravelDate.Before(now):
			past = append(past, d)
		default:
			upcoming = append(upcoming, d)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"upcoming":  upcoming,
		"past":      past,
		"cancelled": cancelled,
		"counts": echo.Map{
			"total":     len(all),
			"upcoming":  len(upcoming),
			"past":      len(past),
			"cancelled": len(cancelled),
		},
		"total_spent_cents": spentCents,
	})
}

// publishConfirmed emits the confirmation event on a best-effort
// basis after the transaction has committed.
func (h *BookingHandler) publishConfirmed(b *model.Booking, trip *model.TravelOption) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ev := queue.BookingConfirmedEvent{
			BookingID:       b.ID,
			Reference:       b.Reference,
			UserID:          b.UserID,
			TripID:          b.TripID,
			Seats:           b.Seats,
			SeatLabels:      b.SeatLabels,
			TotalPriceCents: b.TotalPriceCents,
			PaymentOrderID:  b.RazorpayOrderID,
			ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if trip != nil {
			ev.Source = trip.Source
			ev.Destination = trip.Destination
			ev.TravelDate = trip.TravelDate.Format(time.RFC3339)
		}
		_ = queue_publisher.PublishBookingConfirmed(ctx, ev)
	}()
}
