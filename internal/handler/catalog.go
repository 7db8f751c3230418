package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// CatalogHandler serves the public trip catalog: travel mode listing,
// filtered trip search and single trip detail.
type CatalogHandler struct {
	Cfg   config.Config
	Trips *repository.TravelOptionRepo
	Modes *repository.TravelModeRepo
}

func NewCatalogHandler(cfg config.Config, trips *repository.TravelOptionRepo, modes *repository.TravelModeRepo) *CatalogHandler {
	return &CatalogHandler{Cfg: cfg, Trips: trips, Modes: modes}
}

// tripResp is a catalog view of a travel option, price in whole
// currency units alongside the exact cents value.
type tripResp struct {
	ID             uint64  `json:"id"`
	ModeID         uint64  `json:"mode_id"`
	Source         string  `json:"source"`
	Destination    string  `json:"destination"`
	TravelDate     string  `json:"travel_date"`
	ReturnDate     string  `json:"return_date"`
	Days           int     `json:"days"`
	Nights         int     `json:"nights"`
	Price          float64 `json:"price"`
	PriceCents     int64   `json:"price_cents"`
	TotalSeats     int     `json:"total_seats"`
	AvailableSeats int     `json:"available_seats"`
}

func toTripResp(t *model.TravelOption) tripResp {
	return tripResp{
		ID:             t.ID,
		ModeID:         t.ModeID,
		Source:         t.Source,
		Destination:    t.Destination,
		TravelDate:     t.TravelDate.Format(time.RFC3339),
		ReturnDate:     t.ReturnDate.Format(time.RFC3339),
		Days:           t.Days(),
		Nights:         t.Nights(),
		Price:          float64(t.PriceCents) / 100,
		PriceCents:     t.PriceCents,
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
	}
}

// ListModes returns all travel modes.
func (h *CatalogHandler) ListModes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	modes, err := h.Modes.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"modes": modes})
}

// SearchTrips lists travel options matching the query filters.
// Malformed filter values are rejected with 400 rather than silently
// ignored; an absent minimum price falls back to the configured floor.
//
// Query parameters: search (destination substring), travel_mode (id),
// start_date, end_date (both YYYY-MM-DD), min_price, max_price (whole
// currency units).
func (h *CatalogHandler) SearchTrips(c echo.Context) error {
	q := repository.TripSearchQuery{
		Destination:   strings.TrimSpace(c.QueryParam("search")),
		MinPriceCents: h.Cfg.MinPriceFloor * 100,
	}

	if v := strings.TrimSpace(c.QueryParam("travel_mode")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid travel_mode filter"})
		}
		q.ModeID = id
	}
	if v := strings.TrimSpace(c.QueryParam("start_date")); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date, want YYYY-MM-DD"})
		}
		q.StartDate = &d
	}
	if v := strings.TrimSpace(c.QueryParam("end_date")); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date, want YYYY-MM-DD"})
		}
		// inclusive upper bound on the return date
		d = d.Add(24*time.Hour - time.Second)
		q.EndDate = &d
	}
	if v := strings.TrimSpace(c.QueryParam("min_price")); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_price"})
		}
		q.MinPriceCents = int64(p * 100)
	}
	if v := strings.TrimSpace(c.QueryParam("max_price")); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		q.MaxPriceCents = int64(p * 100)
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date before start_date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if q.ModeID != 0 {
		if _, err := h.Modes.GetByID(ctx, q.ModeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown travel_mode"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	trips, err := h.Trips.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]tripResp, 0, len(trips))
	for i := range trips {
		out = append(out, toTripResp(&trips[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"trips": out})
}

// GetTrip returns a single travel option with derived trip length.
func (h *CatalogHandler) GetTrip(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Trips.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toTripResp(t))
}
