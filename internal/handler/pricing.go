package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// PricingHandler serves price quotes, stage availability and the
// calculation audit trail.
type PricingHandler struct {
	pricing     *service.PricingService
	coordinator *service.Coordinator
	recordLimit int
}

// NewPricingHandler constructs a PricingHandler.
func NewPricingHandler(pricing *service.PricingService, coordinator *service.Coordinator, recordLimit int) *PricingHandler {
	if recordLimit <= 0 {
		recordLimit = 100
	}
	return &PricingHandler{pricing: pricing, coordinator: coordinator, recordLimit: recordLimit}
}

// Quote handles GET /v1/zones/:id/quote?seat_id=N.  Without seat_id it
// returns the zone-level price, which is the general-admission path.
func (h *PricingHandler) Quote(c echo.Context) error {
	zoneID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid zone id"})
	}
	var seatID *uint64
	if raw := c.QueryParam("seat_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid seat id"})
		}
		seatID = &v
	}
	q, err := h.pricing.Quote(c.Request().Context(), zoneID, seatID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Availability handles GET /v1/stages/:id/availability.
func (h *PricingHandler) Availability(c echo.Context) error {
	stageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid stage id"})
	}
	av, err := h.coordinator.Available(c.Request().Context(), stageID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// Records handles GET /v1/events/:id/price-records?limit=N.
func (h *PricingHandler) Records(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid event id"})
	}
	limit := h.recordLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	records, err := h.pricing.Records(c.Request().Context(), eventID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"records": records})
}
