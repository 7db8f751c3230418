package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/payment"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// PaymentHandler creates gateway orders for the online booking flow.
// The client takes the returned order id through the gateway checkout
// and comes back to POST /v1/bookings/online with the signed result.
type PaymentHandler struct {
	Cfg     config.Config
	Trips   *repository.TravelOptionRepo
	Gateway payment.Gateway
}

func NewPaymentHandler(cfg config.Config, trips *repository.TravelOptionRepo, gw payment.Gateway) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Trips: trips, Gateway: gw}
}

type createOrderReq struct {
	TripID    uint64 `json:"trip_id"`
	Travelers int    `json:"travelers"`
}

// CreateOrder handles POST /v1/payments/order.  The amount is computed
// server side from the trip price so the client cannot pay less than
// the quote.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	if h.Gateway == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "online payments are not configured"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.TripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_id is required"})
	}
	if req.Travelers <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travelers must be a positive integer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	trip, err := h.Trips.GetByID(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if req.Travelers > trip.AvailableSeats {
		return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats available"})
	}

	amount := trip.PriceCents * int64(req.Travelers)
	receipt := "trip-" + uuid.NewString()
	orderID, err := h.Gateway.CreateOrder(ctx, amount, h.Cfg.Currency, receipt)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to create payment order"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":     orderID,
		"amount_cents": amount,
		"currency":     h.Cfg.Currency,
		"key_id":       h.Cfg.RazorpayKeyID,
		"receipt":      receipt,
	})
}
